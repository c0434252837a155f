package validation

import (
	"time"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/api/request"
)

// ValidateAddHolding validates an add-holding request. A missing cost basis is
// allowed only when a purchase date is given, so the price on that date can be used.
// The purchase date may not lie in the future.
func ValidateAddHolding(req request.AddHoldingRequest, now time.Time) error {
	errors := make(map[string]string)

	if msg := tickerProblem(NormalizeTicker(req.Ticker)); msg != "" {
		errors["ticker"] = msg
	}

	if !req.Quantity.IsPositive() {
		errors["quantity"] = "quantity must be greater than zero"
	} else if msg := amountProblem("quantity", req.Quantity); msg != "" {
		errors["quantity"] = msg
	}

	acquiredOn, err := ParseDate(req.AcquiredOn)
	if err != nil {
		errors["acquiredOn"] = err.Error()
	} else if acquiredOn.After(now) {
		errors["acquiredOn"] = "purchase date cannot be in the future"
	}

	if req.CostBasis == nil {
		if acquiredOn.IsZero() {
			errors["costBasis"] = "cost basis is required when no purchase date is given"
		}
	} else if req.CostBasis.IsNegative() {
		errors["costBasis"] = "cost basis cannot be negative"
	} else if msg := amountProblem("cost basis", *req.CostBasis); msg != "" {
		errors["costBasis"] = msg
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}
