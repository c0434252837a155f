package service_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/repository"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/service"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/testutil"
)

// TestCleanupJob_Run tests the scheduled quote cache cleanup.
//
// WHY: Expired rows are never served but would otherwise accumulate for every
// ticker ever looked up. The job must drop them and leave fresh rows alone.
func TestCleanupJob_Run(t *testing.T) {
	db := testutil.SetupTestDB(t)
	now := time.Now().Unix()

	insert := `INSERT INTO quote_cache (ticker, data, fetched_at, expires_at) VALUES (?, '{}', ?, ?)`
	if _, err := db.Exec(insert, "OLD", now-120, now-60); err != nil {
		t.Fatalf("Failed to insert expired quote: %v", err)
	}
	if _, err := db.Exec(insert, "NEW", now, now+3600); err != nil {
		t.Fatalf("Failed to insert fresh quote: %v", err)
	}

	job := service.NewCleanupJob(repository.NewQuoteRepository(db), zerolog.Nop())
	job.Run()

	testutil.AssertRowCount(t, db, "quote_cache", 1)

	var ticker string
	if err := db.QueryRow("SELECT ticker FROM quote_cache").Scan(&ticker); err != nil {
		t.Fatalf("Failed to read remaining quote: %v", err)
	}
	if ticker != "NEW" {
		t.Errorf("Expected fresh quote to remain, got %q", ticker)
	}

	if job.Name() != "quote_cache_cleanup" {
		t.Errorf("Unexpected job name %q", job.Name())
	}
}
