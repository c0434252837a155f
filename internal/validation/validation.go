package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaxTickerLength bounds a ticker so a full portfolio stays within the share link limit.
const MaxTickerLength = 20

// DateLayout is the only date format accepted from users and share links.
const DateLayout = "2006-01-02"

// Tickers are restricted to characters that never need percent-encoding and
// never collide with the share link separators ("_" and "~").
var tickerPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]*$`)

// NormalizeTicker trims and upper-cases a user supplied ticker.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// ValidateTicker checks an already normalized ticker.
func ValidateTicker(ticker string) error {
	if msg := tickerProblem(ticker); msg != "" {
		return fieldError("ticker", msg)
	}
	return nil
}

func tickerProblem(ticker string) string {
	switch {
	case ticker == "":
		return "ticker is required"
	case len(ticker) > MaxTickerLength:
		return fmt.Sprintf("ticker must be %d characters or less", MaxTickerLength)
	case !tickerPattern.MatchString(ticker):
		return "ticker may only contain letters, digits, '.' and '-'"
	}
	return ""
}

// ValidateHolding checks the fields of a holding before it enters a portfolio.
// All problems are reported at once, keyed by field name.
func ValidateHolding(ticker string, quantity, costBasis decimal.Decimal) error {
	errors := make(map[string]string)

	if msg := tickerProblem(ticker); msg != "" {
		errors["ticker"] = msg
	}
	if !quantity.IsPositive() {
		errors["quantity"] = "quantity must be greater than zero"
	} else if msg := amountProblem("quantity", quantity); msg != "" {
		errors["quantity"] = msg
	}
	if costBasis.IsNegative() {
		errors["costBasis"] = "cost basis cannot be negative"
	} else if msg := amountProblem("cost basis", costBasis); msg != "" {
		errors["costBasis"] = msg
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ParseDate parses a "2006-01-02" date into midnight UTC.
// An empty string yields the zero time.
func ParseDate(str string) (time.Time, error) {
	str = strings.TrimSpace(str)
	if str == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(DateLayout, str)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: expected YYYY-MM-DD", str)
	}
	return parsed.UTC(), nil
}
