// Package codec converts a portfolio to and from its shareable representation:
// a compact string that travels as a single URL query value.
//
// Version 1 layout:
//
//	v1_AAPL~10~100_MSFT~2.5~310.2~2024-03-01
//
// Each holding is one record prefixed with "_"; its fields are separated by
// "~": ticker, quantity, cost basis and an optional purchase date. Both
// separators are RFC 3986 unreserved characters, so links survive copy and
// paste without percent-encoding, and neither can appear inside a ticker, a
// decimal number or a date. The empty portfolio encodes to "".
//
// Writing is strict and deterministic: always the current version, canonical
// decimals, insertion order. Reading is lenient so old links keep working:
// the version marker is optional, tickers are upper-cased, repeated tickers
// are merged with the portfolio merge policy, and JSON links produced by the
// first release of the dashboard are accepted.
package codec

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/model"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/validation"
)

const (
	// Version is the marker written at the start of every non-empty representation.
	Version = "v1"

	// MaxEncodedLength bounds accepted input. A full portfolio at the widest
	// ticker, amount and date fields encodes to 7402 characters.
	MaxEncodedLength = 8192

	recordSeparator = "_"
	fieldSeparator  = "~"
	maxErrorValue   = 40
)

var versionMarker = regexp.MustCompile(`^[vV][0-9]+$`)

// Encode returns the shareable representation of p.
func Encode(p *model.Portfolio) string {
	if p == nil || p.Len() == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(Version)
	for h := range p.List() {
		b.WriteString(recordSeparator)
		b.WriteString(h.Ticker)
		b.WriteString(fieldSeparator)
		b.WriteString(h.Quantity.String())
		b.WriteString(fieldSeparator)
		b.WriteString(h.CostBasis.String())
		if !h.AcquiredOn.IsZero() {
			b.WriteString(fieldSeparator)
			b.WriteString(h.AcquiredOn.Format(validation.DateLayout))
		}
	}
	return b.String()
}

// Decode parses a shareable representation. It never returns a partial
// portfolio: any malformed record fails the whole decode with a *DecodeError.
func Decode(s string) (*model.Portfolio, error) {
	if len(s) > MaxEncodedLength {
		return nil, &DecodeError{
			Field:  "portfolio",
			Reason: fmt.Sprintf("longer than %d characters", MaxEncodedLength),
		}
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return model.NewPortfolio(), nil
	}
	if strings.HasPrefix(s, "[") {
		return decodeLegacy(s)
	}

	records := strings.Split(s, recordSeparator)
	if first := records[0]; versionMarker.MatchString(first) {
		if !strings.EqualFold(first, Version) {
			return nil, &DecodeError{Field: "version", Value: first, Reason: "unsupported version"}
		}
		records = records[1:]
	}

	p := model.NewPortfolio()
	for i, record := range records {
		if err := decodeRecord(p, i+1, record); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func decodeRecord(p *model.Portfolio, position int, record string) error {
	fields := strings.Split(record, fieldSeparator)
	if record == "" || len(fields) < 3 || len(fields) > 4 {
		return &DecodeError{
			Record: position,
			Field:  "record",
			Value:  clip(record),
			Reason: fmt.Sprintf("expected 3 or 4 fields separated by %q, got %d", fieldSeparator, fieldCount(record, fields)),
		}
	}

	h, err := parseFields(position, fields)
	if err != nil {
		return err
	}
	return addDecoded(p, position, h)
}

func parseFields(position int, fields []string) (model.Holding, error) {
	var h model.Holding

	h.Ticker = validation.NormalizeTicker(fields[0])
	if err := validation.ValidateTicker(h.Ticker); err != nil {
		return h, fieldProblem(position, "ticker", fields[0], err)
	}

	quantity, err := decimal.NewFromString(fields[1])
	if err != nil {
		return h, &DecodeError{Record: position, Field: "quantity", Value: clip(fields[1]), Reason: "not a number"}
	}
	if !quantity.IsPositive() {
		return h, &DecodeError{Record: position, Field: "quantity", Value: clip(fields[1]), Reason: "must be greater than zero"}
	}
	if err := validation.ValidateAmount("quantity", "quantity", quantity); err != nil {
		return h, fieldProblem(position, "quantity", fields[1], err)
	}
	h.Quantity = quantity

	costBasis, err := decimal.NewFromString(fields[2])
	if err != nil {
		return h, &DecodeError{Record: position, Field: "costBasis", Value: clip(fields[2]), Reason: "not a number"}
	}
	if costBasis.IsNegative() {
		return h, &DecodeError{Record: position, Field: "costBasis", Value: clip(fields[2]), Reason: "cannot be negative"}
	}
	if err := validation.ValidateAmount("costBasis", "cost basis", costBasis); err != nil {
		return h, fieldProblem(position, "costBasis", fields[2], err)
	}
	h.CostBasis = costBasis

	if len(fields) == 4 {
		acquiredOn, err := validation.ParseDate(fields[3])
		if err != nil || acquiredOn.IsZero() {
			return h, &DecodeError{Record: position, Field: "acquiredOn", Value: clip(fields[3]), Reason: "expected a YYYY-MM-DD date"}
		}
		h.AcquiredOn = acquiredOn
	}
	return h, nil
}

// addDecoded adds a parsed holding; repeated tickers merge instead of failing.
func addDecoded(p *model.Portfolio, position int, h model.Holding) error {
	if err := p.Add(h.Ticker, h.Quantity, h.CostBasis, h.AcquiredOn); err != nil {
		return fieldProblem(position, "record", h.Ticker, err)
	}
	return nil
}

// fieldProblem turns a validation failure into a DecodeError for one field.
func fieldProblem(position int, field, value string, err error) *DecodeError {
	reason := err.Error()
	if vErr, ok := err.(*validation.Error); ok {
		for _, msg := range vErr.Fields {
			reason = msg
			break
		}
	}
	return &DecodeError{Record: position, Field: field, Value: clip(value), Reason: reason}
}

func fieldCount(record string, fields []string) int {
	if record == "" {
		return 0
	}
	return len(fields)
}

func clip(s string) string {
	if len(s) <= maxErrorValue {
		return s
	}
	return s[:maxErrorValue] + "..."
}
