package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MinSearchQueryLength is the shortest query sent to the symbol search.
const MinSearchQueryLength = 3

// HistoryPeriods lists the supported chart periods.
var HistoryPeriods = map[string]bool{
	"1mo": true, "3mo": true, "6mo": true, "1y": true,
}

func ValidateSearchQuery(query string) error {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinSearchQueryLength {
		return fieldError("q", fmt.Sprintf("search query must be at least %d characters", MinSearchQueryLength))
	}
	if len(query) > 100 {
		return fieldError("q", "search query must be 100 characters or less")
	}
	return nil
}

func ValidatePeriod(period string) error {
	if !HistoryPeriods[period] {
		return fieldError("period", "period must be one of 1mo, 3mo, 6mo, 1y")
	}
	return nil
}
