package testutil

import (
	"testing"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/renderer"
)

// TestPublicURL is the base of share links produced in tests.
const TestPublicURL = "http://localhost:5001"

// NewTestRenderer creates a Renderer whose share links point at TestPublicURL.
func NewTestRenderer(t *testing.T) *renderer.Renderer {
	t.Helper()

	r, err := renderer.New(TestPublicURL)
	if err != nil {
		t.Fatalf("Failed to create renderer: %v", err)
	}
	return r
}
