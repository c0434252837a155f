package main

import (
	"bytes"
	"context"
	"flag"
	"strings"
	"testing"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/testutil"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/yahoo"
)

func newTestApp(t *testing.T, mock *testutil.MockYahooClient) (*app, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	return &app{
		portfolios: testutil.NewTestPortfolioService(t, nil, mock),
		market:     testutil.NewTestMarketService(t, mock),
		renderer:   testutil.NewTestRenderer(t),
		out:        &out,
		errOut:     &errOut,
	}, &out, &errOut
}

// run parses args with the command's flags and executes it.
func run(t *testing.T, cmd subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(f)
	require.NoError(t, f.Parse(args))
	return cmd.Execute(context.Background(), f)
}

func TestAddCmd(t *testing.T) {
	t.Run("prints new code", func(t *testing.T) {
		a, out, errOut := newTestApp(t, testutil.NewMockYahooClient())

		status := run(t, &addCmd{app: a}, "-portfolio", "v1_MSFT~1~300", "-ticker", "aapl", "-quantity", "10", "-cost", "150")

		require.Equal(t, subcommands.ExitSuccess, status, errOut.String())
		assert.Equal(t, "v1_MSFT~1~300_AAPL~10~150\n", out.String())
		assert.Contains(t, errOut.String(), testutil.TestPublicURL+"/?portfolio=")
	})

	t.Run("rejects invalid quantity", func(t *testing.T) {
		a, out, errOut := newTestApp(t, testutil.NewMockYahooClient())

		status := run(t, &addCmd{app: a}, "-ticker", "AAPL", "-quantity", "ten", "-cost", "1")

		assert.Equal(t, subcommands.ExitFailure, status)
		assert.Empty(t, out.String())
		assert.Contains(t, errOut.String(), "invalid -quantity")
	})

	t.Run("reports validation errors", func(t *testing.T) {
		a, out, errOut := newTestApp(t, testutil.NewMockYahooClient())

		status := run(t, &addCmd{app: a}, "-ticker", "AAPL", "-quantity", "-1", "-cost", "1")

		assert.Equal(t, subcommands.ExitFailure, status)
		assert.Empty(t, out.String())
		assert.Contains(t, errOut.String(), "quantity")
	})
}

func TestRemoveCmd(t *testing.T) {
	a, out, errOut := newTestApp(t, testutil.NewMockYahooClient())

	status := run(t, &removeCmd{app: a}, "-portfolio", "v1_AAPL~1~1_MSFT~2~2_TSLA~3~3", "msft", "tsla", "nvda")

	require.Equal(t, subcommands.ExitSuccess, status, errOut.String())
	assert.Equal(t, "v1_AAPL~1~1\n", out.String())
	assert.Contains(t, errOut.String(), "NVDA is not in the portfolio")

	t.Run("requires a ticker", func(t *testing.T) {
		a, _, _ := newTestApp(t, testutil.NewMockYahooClient())
		assert.Equal(t, subcommands.ExitUsageError, run(t, &removeCmd{app: a}, "-portfolio", "v1_AAPL~1~1"))
	})
}

func TestClearCmd(t *testing.T) {
	a, out, _ := newTestApp(t, testutil.NewMockYahooClient())

	status := run(t, &clearCmd{app: a})

	assert.Equal(t, subcommands.ExitSuccess, status)
	assert.Equal(t, "\n", out.String())
}

func TestShowCmd(t *testing.T) {
	t.Run("prints raw markdown", func(t *testing.T) {
		a, out, errOut := newTestApp(t, testutil.NewMockYahooClient().WithPrice("AAPL", 150))

		status := run(t, &showCmd{app: a}, "-portfolio", "v1_AAPL~10~100", "-markdown")

		require.Equal(t, subcommands.ExitSuccess, status, errOut.String())
		assert.Contains(t, out.String(), "| AAPL |")
		assert.Contains(t, out.String(), "$1,500.00")
	})

	t.Run("renders for the terminal", func(t *testing.T) {
		a, out, errOut := newTestApp(t, testutil.NewMockYahooClient().WithPrice("AAPL", 150))

		status := run(t, &showCmd{app: a}, "-portfolio", "v1_AAPL~10~100", "-style", "notty")

		require.Equal(t, subcommands.ExitSuccess, status, errOut.String())
		assert.Contains(t, out.String(), "AAPL")
		assert.NotContains(t, out.String(), "|:--")
	})

	t.Run("fails on malformed code", func(t *testing.T) {
		a, _, errOut := newTestApp(t, testutil.NewMockYahooClient())

		status := run(t, &showCmd{app: a}, "-portfolio", "not;a;valid;record")

		assert.Equal(t, subcommands.ExitFailure, status)
		assert.Contains(t, errOut.String(), "malformed portfolio")
	})
}

func TestSearchCmd(t *testing.T) {
	mock := testutil.NewMockYahooClient().WithSearchResults(
		yahoo.SearchQuote{Symbol: "AAPL", Shortname: "Apple Inc.", Exchange: "NMS", QuoteType: "EQUITY"},
		yahoo.SearchQuote{Symbol: "APLE", Shortname: "Apple | Hospitality", Exchange: "NYQ", QuoteType: "EQUITY"},
	)
	a, out, errOut := newTestApp(t, mock)

	status := run(t, &searchCmd{app: a}, "-markdown", "apple", "inc")

	require.Equal(t, subcommands.ExitSuccess, status, errOut.String())
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "| AAPL | Apple Inc. | NMS | EQUITY |", lines[2])
	assert.Contains(t, lines[3], `Apple \| Hospitality`)
}

func TestRegister(t *testing.T) {
	a, _, _ := newTestApp(t, testutil.NewMockYahooClient())
	commander := subcommands.NewCommander(flag.NewFlagSet("pftrack", flag.ContinueOnError), "pftrack")

	register(commander, a)

	var names []string
	commander.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		names = append(names, c.Name())
	})
	assert.ElementsMatch(t, []string{"add", "remove", "clear", "show", "search"}, names)
}
