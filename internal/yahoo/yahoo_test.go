package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/apperrors"
)

const chartBody = `{"chart":{"result":[{"meta":{"currency":"USD","symbol":"AAPL","exchangeName":"NMS",
"fullExchangeName":"NasdaqGS","longName":"Apple Inc.","shortName":"Apple","regularMarketPrice":191.5,
"regularMarketTime":1717185600},"timestamp":[1716903000,1716989400,1717075800],
"indicators":{"quote":[{"open":[189.1,null,190.0],"close":[189.9,null,191.2],"high":[190.5,null,192.0],
"low":[188.8,null,189.7],"volume":[50000000,null,42000000]}]}}],"error":null}}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *FinanceClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewFinanceClient(
		WithChartURL(server.URL+"/chart"),
		WithSearchURL(server.URL+"/search"),
		WithRetry(2, time.Millisecond),
	)
}

func TestFinanceClient_QuerySymbolByRange(t *testing.T) {
	t.Run("requests daily bars for the range", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chart/BRK-B", r.URL.Path)
			assert.Equal(t, "1d", r.URL.Query().Get("interval"))
			assert.Equal(t, "5d", r.URL.Query().Get("range"))
			assert.NotEmpty(t, r.Header.Get("User-Agent"))
			w.Write([]byte(chartBody))
		})

		resp, err := client.QuerySymbolByRange(context.Background(), "BRK-B", "5d")
		require.NoError(t, err)
		require.Len(t, resp.Chart.Result, 1)
		assert.Equal(t, "AAPL", resp.Chart.Result[0].Meta.Symbol)
	})

	t.Run("maps 404 to symbol not found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
		})

		_, err := client.QuerySymbolByRange(context.Background(), "NOPE", "1d")
		assert.ErrorIs(t, err, apperrors.ErrSymbolNotFound)
		assert.Contains(t, err.Error(), "symbol may be delisted")
	})

	t.Run("maps chart error in a 200 body to symbol not found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"chart":{"result":[],"error":{"code":"Not Found","description":"gone"}}}`))
		})

		_, err := client.QuerySymbolByRange(context.Background(), "NOPE", "1d")
		assert.ErrorIs(t, err, apperrors.ErrSymbolNotFound)
	})

	t.Run("does not retry rate limiting", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		})

		_, err := client.QuerySymbolByRange(context.Background(), "AAPL", "1d")
		assert.ErrorIs(t, err, apperrors.ErrRateLimited)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("retries server errors then succeeds", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Write([]byte(chartBody))
		})

		_, err := client.QuerySymbolByRange(context.Background(), "AAPL", "1d")
		require.NoError(t, err)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := client.QuerySymbolByRange(context.Background(), "AAPL", "1d")
		assert.ErrorIs(t, err, apperrors.ErrPriceUnavailable)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("cancelled context is unavailable", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(chartBody))
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.QuerySymbolByRange(ctx, "AAPL", "1d")
		assert.ErrorIs(t, err, apperrors.ErrPriceUnavailable)
	})

	t.Run("invalid JSON is unavailable", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`<html>`))
		})

		_, err := client.QuerySymbolByRange(context.Background(), "AAPL", "1d")
		assert.ErrorIs(t, err, apperrors.ErrPriceUnavailable)
	})
}

func TestFinanceClient_QuerySymbolByDateRange(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1704067200", r.URL.Query().Get("period1"))
		assert.Equal(t, "1704672000", r.URL.Query().Get("period2"))
		w.Write([]byte(chartBody))
	})

	_, err := client.QuerySymbolByDateRange(context.Background(), "AAPL", start, end)
	require.NoError(t, err)
}

func TestFinanceClient_Search(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "apple", r.URL.Query().Get("q"))
		assert.Equal(t, "2", r.URL.Query().Get("quotesCount"))
		w.Write([]byte(`{"quotes":[
			{"symbol":"AAPL","shortname":"Apple Inc.","longname":"Apple Inc.","exchange":"NMS","exchDisp":"NASDAQ","quoteType":"EQUITY"},
			{"shortname":"no symbol"},
			{"symbol":"APLE","shortname":"Apple Hospitality","exchange":"NYQ","exchDisp":"NYSE","quoteType":"EQUITY"},
			{"symbol":"AAPL.MX","shortname":"Apple MX","exchange":"MEX","quoteType":"EQUITY"}
		]}`))
	})

	quotes, err := client.Search(context.Background(), "apple", 2)
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "AAPL", quotes[0].Symbol)
	assert.Equal(t, "NASDAQ", quotes[0].ExchDisp)
	assert.Equal(t, "APLE", quotes[1].Symbol)
}

func TestFinanceClient_ParseChart(t *testing.T) {
	client := NewFinanceClient()

	t.Run("skips null bars", func(t *testing.T) {
		server := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte(chartBody)) })
		resp, err := server.QuerySymbolByRange(context.Background(), "AAPL", "5d")
		require.NoError(t, err)

		chart, err := client.ParseChart(resp)
		require.NoError(t, err)
		require.Len(t, chart.Indicators, 2)
		assert.Equal(t, 189.9, chart.Indicators[0].PriceClose)
		assert.Equal(t, 191.2, chart.Indicators[1].PriceClose)
		assert.Equal(t, "Apple Inc.", chart.Name())
	})

	t.Run("rejects mismatched lengths", func(t *testing.T) {
		price := 1.0
		resp := Response{Chart: Chart{Result: []Result{{
			Timestamp:  []int64{1, 2},
			Indicators: IndicatorsContainer{Quote: []Quote{{Close: []*float64{&price}}}},
		}}}}

		_, err := client.ParseChart(resp)
		assert.ErrorIs(t, err, apperrors.ErrPriceUnavailable)
	})

	t.Run("accepts meta price without bars", func(t *testing.T) {
		price := 42.0
		resp := Response{Chart: Chart{Result: []Result{{
			Meta: Meta{Symbol: "X", RegularMarketPrice: &price, RegularMarketTime: 1717185600},
		}}}}

		chart, err := client.ParseChart(resp)
		require.NoError(t, err)
		latest, asOf, ok := chart.Latest()
		require.True(t, ok)
		assert.Equal(t, 42.0, latest)
		assert.Equal(t, time.Unix(1717185600, 0).UTC(), asOf)
	})

	t.Run("rejects empty chart", func(t *testing.T) {
		_, err := client.ParseChart(Response{Chart: Chart{Result: []Result{{}}}})
		assert.ErrorIs(t, err, apperrors.ErrPriceUnavailable)

		_, err = client.ParseChart(Response{})
		assert.ErrorIs(t, err, apperrors.ErrSymbolNotFound)
	})
}

func TestPriceChart_Lookups(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 3, d, 14, 30, 0, 0, time.UTC) }
	chart := PriceChart{Indicators: []Indicators{
		{Date: day(7), PriceClose: 10}, // Thursday
		{Date: day(8), PriceClose: 11}, // Friday
		{Date: day(11), PriceClose: 12},
	}}

	t.Run("exact date", func(t *testing.T) {
		ind, ok := chart.GetIndicatorForDate(time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC))
		require.True(t, ok)
		assert.Equal(t, 11.0, ind.PriceClose)
	})

	t.Run("weekend resolves to friday", func(t *testing.T) {
		ind, ok := chart.PriceOnOrBefore(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
		require.True(t, ok)
		assert.Equal(t, 11.0, ind.PriceClose)

		_, ok = chart.GetIndicatorForDate(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
		assert.False(t, ok)
	})

	t.Run("same day bar counts", func(t *testing.T) {
		ind, ok := chart.PriceOnOrBefore(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC))
		require.True(t, ok)
		assert.Equal(t, 12.0, ind.PriceClose)
	})

	t.Run("before first bar", func(t *testing.T) {
		_, ok := chart.PriceOnOrBefore(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
		assert.False(t, ok)
	})

	t.Run("latest falls back to last close", func(t *testing.T) {
		price, asOf, ok := chart.Latest()
		require.True(t, ok)
		assert.Equal(t, 12.0, price)
		assert.Equal(t, day(11), asOf)
	})
}
