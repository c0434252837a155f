package codec

import (
	"fmt"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/apperrors"
)

// DecodeError reports why a shareable portfolio string was rejected.
// Record is the 1-based position of the offending holding record; 0 refers to
// the string as a whole (length, version marker, legacy JSON envelope).
type DecodeError struct {
	Record int    `json:"record"`
	Field  string `json:"field"`
	Value  string `json:"value,omitempty"`
	Reason string `json:"reason"`
}

func (e *DecodeError) Error() string {
	if e.Record == 0 {
		return fmt.Sprintf("%s: %s: %s", apperrors.ErrMalformedPortfolio, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: record %d: %s %q: %s", apperrors.ErrMalformedPortfolio, e.Record, e.Field, e.Value, e.Reason)
}

// Unwrap makes every DecodeError match apperrors.ErrMalformedPortfolio.
func (e *DecodeError) Unwrap() error {
	return apperrors.ErrMalformedPortfolio
}
