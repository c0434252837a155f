package renderer

import (
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatMoney formats amount in currency using the currency's symbol, grouping
// and fraction digits. Unknown or empty currencies fall back to two decimals
// followed by the code.
func FormatMoney(amount float64, currency string) string {
	cur := money.GetCurrency(strings.ToUpper(currency))
	if cur == nil {
		s := decimal.NewFromFloat(amount).StringFixed(2)
		if currency == "" {
			return s
		}
		return s + " " + currency
	}
	minor := decimal.NewFromFloat(amount).Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// SignedMoney is FormatMoney with an explicit "+" for gains.
func SignedMoney(amount float64, currency string) string {
	if amount > 0 {
		return "+" + FormatMoney(amount, currency)
	}
	return FormatMoney(amount, currency)
}

// FormatPercent formats a nullable percentage with a sign, "n/a" when nil.
func FormatPercent(pct *float64) string {
	if pct == nil {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", *pct)
}

// FormatShare formats a nullable allocation share, "n/a" when nil.
func FormatShare(pct *float64) string {
	if pct == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", *pct)
}

func formatOptionalMoney(amount *float64, currency string) string {
	if amount == nil {
		return "n/a"
	}
	return FormatMoney(*amount, currency)
}

func formatOptionalSignedMoney(amount *float64, currency string) string {
	if amount == nil {
		return "n/a"
	}
	return SignedMoney(*amount, currency)
}

func formatQuantity(q float64) string {
	return decimal.NewFromFloat(q).String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04 MST")
}

// Cell escapes text for a markdown table cell.
func Cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
