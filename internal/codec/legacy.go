package codec

import (
	"encoding/json"
	"strings"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/model"
)

// legacyHolding is one entry of the JSON array the first dashboard release
// stored in the portfolio query parameter. Display-only fields (name,
// exchange, last price) are ignored; they are fetched again on render.
type legacyHolding struct {
	Symbol   string          `json:"symbol"`
	Quantity json.RawMessage `json:"quantity"`
	BuyPrice json.RawMessage `json:"buy_price"`
	BuyDate  string          `json:"buy_date"`
}

func decodeLegacy(s string) (*model.Portfolio, error) {
	var entries []legacyHolding
	if err := json.Unmarshal([]byte(s), &entries); err != nil {
		return nil, &DecodeError{Field: "portfolio", Reason: "invalid legacy JSON portfolio"}
	}

	p := model.NewPortfolio()
	for i, entry := range entries {
		position := i + 1
		fields := []string{entry.Symbol, legacyNumber(entry.Quantity), legacyNumber(entry.BuyPrice)}
		if date := strings.TrimSpace(entry.BuyDate); date != "" {
			fields = append(fields, date)
		}

		h, err := parseFields(position, fields)
		if err != nil {
			return nil, err
		}
		if err := addDecoded(p, position, h); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// legacyNumber accepts a JSON number or a numeric string and returns its text
// unchanged, so parseFields sees exactly what the link carried.
func legacyNumber(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(string(raw))
}
