package validation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// MaxAmountLength bounds the canonical text of a quantity or cost basis.
	// Together with MaxTickerLength it caps one share link record at 74 characters.
	MaxAmountLength = 20

	// MaxAmountPlaces is the number of decimal places kept in a quantity or cost basis.
	MaxAmountPlaces = 12

	// maxAmountExponent rejects exponent notation before the value is expanded.
	maxAmountExponent = 64
)

// ValidateAmount checks that a quantity or cost basis fits the share link:
// at most MaxAmountPlaces decimal places and MaxAmountLength characters in
// canonical form. label names the value in the message.
func ValidateAmount(field, label string, amount decimal.Decimal) error {
	if msg := amountProblem(label, amount); msg != "" {
		return fieldError(field, msg)
	}
	return nil
}

func amountProblem(label string, amount decimal.Decimal) string {
	if exp := amount.Exponent(); exp < -maxAmountExponent || exp > maxAmountExponent {
		return label + " is out of range"
	}

	text := amount.String()
	if dot := strings.IndexByte(text, '.'); dot >= 0 && len(text)-dot-1 > MaxAmountPlaces {
		return fmt.Sprintf("%s may have at most %d decimal places", label, MaxAmountPlaces)
	}
	if len(text) > MaxAmountLength {
		return fmt.Sprintf("%s must be at most %d characters long", label, MaxAmountLength)
	}
	return ""
}
