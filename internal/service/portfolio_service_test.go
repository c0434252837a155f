package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/api/request"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/apperrors"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/codec"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/model"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/testutil"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/validation"
)

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// TestPortfolioService_Render tests the full render cycle.
//
// WHY: Rendering is what every page view does. It must reject malformed links
// with a DecodeError and must still render when some prices are missing.
func TestPortfolioService_Render(t *testing.T) {
	ctx := context.Background()

	t.Run("values every holding", func(t *testing.T) {
		mock := testutil.NewMockYahooClient().WithPrice("AAPL", 150).WithPrice("MSFT", 400)
		svc := testutil.NewTestPortfolioService(t, testutil.SetupTestDB(t), mock)
		code := testutil.NewPortfolio().WithHolding("AAPL", 10, 100).WithHolding("MSFT", 1, 300).Encode(t)

		dashboard, err := svc.Render(ctx, code)
		if err != nil {
			t.Fatalf("Render() returned unexpected error: %v", err)
		}

		if dashboard.Code != code {
			t.Errorf("Expected code %q, got %q", code, dashboard.Code)
		}
		if dashboard.Report.ID == "" || dashboard.Report.GeneratedAt.IsZero() {
			t.Error("Expected report ID and generation time")
		}
		if dashboard.Report.TotalMarketValue != 1900 {
			t.Errorf("Expected total market value 1900, got %v", dashboard.Report.TotalMarketValue)
		}
		if dashboard.Report.HasStale() {
			t.Error("Expected no stale holdings")
		}
	})

	t.Run("renders empty portfolio without fetching", func(t *testing.T) {
		mock := testutil.NewMockYahooClient()
		svc := testutil.NewTestPortfolioService(t, nil, mock)

		dashboard, err := svc.Render(ctx, "")
		if err != nil {
			t.Fatalf("Render() returned unexpected error: %v", err)
		}
		if len(dashboard.Report.Holdings) != 0 || mock.QueryCount() != 0 {
			t.Errorf("Expected empty report and no queries, got %d holdings, %d queries",
				len(dashboard.Report.Holdings), mock.QueryCount())
		}
	})

	t.Run("marks failed tickers stale", func(t *testing.T) {
		mock := testutil.NewMockYahooClient().
			WithPrice("A", 10).
			WithSymbolError("B", fmt.Errorf("%w: HTTP 503", apperrors.ErrPriceUnavailable))
		svc := testutil.NewTestPortfolioService(t, nil, mock)

		dashboard, err := svc.Render(ctx, "v1_A~1~5_B~1~5")
		if err != nil {
			t.Fatalf("Render() returned unexpected error: %v", err)
		}
		if dashboard.Report.StaleCount != 1 || !dashboard.Report.Holdings[1].Stale {
			t.Errorf("Expected B to be stale, got %+v", dashboard.Report.Holdings)
		}
	})

	t.Run("rejects malformed code", func(t *testing.T) {
		svc := testutil.NewTestPortfolioService(t, nil, testutil.NewMockYahooClient())

		_, err := svc.Render(ctx, "not;a;valid;record")

		var decodeErr *codec.DecodeError
		if !errors.As(err, &decodeErr) {
			t.Fatalf("Expected DecodeError, got %v", err)
		}
		if decodeErr.Record != 1 {
			t.Errorf("Expected record 1, got %d", decodeErr.Record)
		}
	})
}

func TestPortfolioService_Share(t *testing.T) {
	svc := testutil.NewTestPortfolioService(t, nil, testutil.NewMockYahooClient())

	code, err := svc.Share(`[{"symbol":"aapl","quantity":1,"buy_price":10.50,"buy_date":"2024-01-02"}]`)
	if err != nil {
		t.Fatalf("Share() returned unexpected error: %v", err)
	}
	if code != "v1_AAPL~1~10.5~2024-01-02" {
		t.Errorf("Unexpected canonical code %q", code)
	}
}

// TestPortfolioService_AddHolding tests adding holdings to an encoded portfolio.
//
// WHY: Adding is the main mutation. A missing cost basis must be resolved from
// the close on the purchase date, and invalid input must never produce a code.
func TestPortfolioService_AddHolding(t *testing.T) {
	ctx := context.Background()

	t.Run("adds holding with explicit cost", func(t *testing.T) {
		svc := testutil.NewTestPortfolioService(t, nil, testutil.NewMockYahooClient())

		code, err := svc.AddHolding(ctx, "v1_AAPL~1~100", request.AddHoldingRequest{
			Ticker:    "msft",
			Quantity:  decimal.NewFromInt(2),
			CostBasis: decimalPtr("310.20"),
		})
		if err != nil {
			t.Fatalf("AddHolding() returned unexpected error: %v", err)
		}
		if code != "v1_AAPL~1~100_MSFT~2~310.2" {
			t.Errorf("Unexpected code %q", code)
		}
	})

	t.Run("merges existing ticker", func(t *testing.T) {
		svc := testutil.NewTestPortfolioService(t, nil, testutil.NewMockYahooClient())

		code, err := svc.AddHolding(ctx, "v1_AAPL~10~100", request.AddHoldingRequest{
			Ticker:    "AAPL",
			Quantity:  decimal.NewFromInt(10),
			CostBasis: decimalPtr("200"),
		})
		if err != nil {
			t.Fatalf("AddHolding() returned unexpected error: %v", err)
		}
		if code != "v1_AAPL~20~150" {
			t.Errorf("Unexpected code %q", code)
		}
	})

	t.Run("uses historical close when cost is missing", func(t *testing.T) {
		friday := time.Date(2024, 3, 8, 20, 0, 0, 0, time.UTC)
		mock := testutil.NewMockYahooClient().
			WithSymbolResponse("AAPL", testutil.CreateMockYahooResponseForDate("AAPL", friday, 170.731234567))
		svc := testutil.NewTestPortfolioService(t, nil, mock)

		code, err := svc.AddHolding(ctx, "", request.AddHoldingRequest{
			Ticker:     "AAPL",
			Quantity:   decimal.NewFromInt(3),
			AcquiredOn: "2024-03-10",
		})
		if err != nil {
			t.Fatalf("AddHolding() returned unexpected error: %v", err)
		}
		if code != "v1_AAPL~3~170.731235~2024-03-10" {
			t.Errorf("Unexpected code %q", code)
		}
	})

	t.Run("reports missing historical close as validation error", func(t *testing.T) {
		mock := testutil.NewMockYahooClient().
			WithSymbolResponse("AAPL", testutil.CreateMockYahooResponse("AAPL", 0, 1))
		svc := testutil.NewTestPortfolioService(t, nil, mock)

		_, err := svc.AddHolding(ctx, "", request.AddHoldingRequest{
			Ticker:     "AAPL",
			Quantity:   decimal.NewFromInt(1),
			AcquiredOn: "2024-03-10",
		})

		var vErr *validation.Error
		if !errors.As(err, &vErr) || vErr.Fields["costBasis"] == "" {
			t.Fatalf("Expected costBasis validation error, got %v", err)
		}
	})

	t.Run("propagates rate limiting during cost lookup", func(t *testing.T) {
		mock := testutil.NewMockYahooClient().WithError(fmt.Errorf("%w: HTTP 429", apperrors.ErrRateLimited))
		svc := testutil.NewTestPortfolioService(t, nil, mock)

		_, err := svc.AddHolding(ctx, "", request.AddHoldingRequest{
			Ticker:     "AAPL",
			Quantity:   decimal.NewFromInt(1),
			AcquiredOn: "2024-03-10",
		})
		if !errors.Is(err, apperrors.ErrRateLimited) {
			t.Errorf("Expected ErrRateLimited, got %v", err)
		}
	})

	t.Run("rejects invalid request", func(t *testing.T) {
		svc := testutil.NewTestPortfolioService(t, nil, testutil.NewMockYahooClient())

		_, err := svc.AddHolding(ctx, "v1_AAPL~1~1", request.AddHoldingRequest{
			Ticker:    "",
			Quantity:  decimal.NewFromInt(-1),
			CostBasis: decimalPtr("1"),
		})

		var vErr *validation.Error
		if !errors.As(err, &vErr) {
			t.Fatalf("Expected validation error, got %v", err)
		}
		if _, ok := vErr.Fields["ticker"]; !ok {
			t.Error("Expected ticker field error")
		}
		if _, ok := vErr.Fields["quantity"]; !ok {
			t.Error("Expected quantity field error")
		}
	})

	t.Run("rejects full portfolio", func(t *testing.T) {
		svc := testutil.NewTestPortfolioService(t, nil, testutil.NewMockYahooClient())
		b := testutil.NewPortfolio()
		for i := range model.MaxHoldings {
			b.WithHolding(fmt.Sprintf("T%d", i), 1, 1)
		}

		_, err := svc.AddHolding(ctx, b.Encode(t), request.AddHoldingRequest{
			Ticker:    "NEW",
			Quantity:  decimal.NewFromInt(1),
			CostBasis: decimalPtr("1"),
		})

		var vErr *validation.Error
		if !errors.As(err, &vErr) {
			t.Fatalf("Expected validation error, got %v", err)
		}
	})
}

func TestPortfolioService_RemoveAndClear(t *testing.T) {
	svc := testutil.NewTestPortfolioService(t, nil, testutil.NewMockYahooClient())

	code, removed, err := svc.RemoveHolding("v1_A~1~1_B~2~2", "b")
	if err != nil {
		t.Fatalf("RemoveHolding() returned unexpected error: %v", err)
	}
	if !removed || code != "v1_A~1~1" {
		t.Errorf("Expected B removed, got %q (removed=%v)", code, removed)
	}

	code, removed, err = svc.RemoveHolding(code, "ZZZ")
	if err != nil || removed || code != "v1_A~1~1" {
		t.Errorf("Expected no-op removal, got %q (removed=%v, err=%v)", code, removed, err)
	}

	if _, _, err := svc.RemoveHolding("v1_A~x~1", "A"); err == nil {
		t.Error("Expected error for malformed code")
	}

	if cleared := svc.ClearHoldings(); cleared != "" {
		t.Errorf("Expected empty code, got %q", cleared)
	}
}
