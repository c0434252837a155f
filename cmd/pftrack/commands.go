package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/api/request"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/renderer"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/service"
)

// app holds what the commands share.
type app struct {
	portfolios *service.PortfolioService
	market     *service.MarketService
	renderer   *renderer.Renderer
	out        io.Writer
	errOut     io.Writer
}

func (a *app) fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(a.errOut, err)
	return subcommands.ExitFailure
}

// printCode prints a new portfolio code on its own line followed by its share link.
func (a *app) printCode(code string) subcommands.ExitStatus {
	fmt.Fprintln(a.out, code)
	fmt.Fprintln(a.errOut, a.renderer.ShareURL(code))
	return subcommands.ExitSuccess
}

// printMarkdown renders md for the terminal, or prints it raw.
func (a *app) printMarkdown(md, style string, width int, raw bool) subcommands.ExitStatus {
	if raw {
		fmt.Fprint(a.out, md)
		return subcommands.ExitSuccess
	}
	out, err := a.renderer.Terminal(md, style, width)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprint(a.out, out)
	return subcommands.ExitSuccess
}

type addCmd struct {
	*app
	portfolio string
	ticker    string
	quantity  string
	cost      string
	date      string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add a holding, merging it with an existing one for the same ticker" }
func (*addCmd) Usage() string {
	return `pftrack add [-portfolio <code>] -ticker <symbol> -quantity <n> [-cost <price>] [-date <YYYY-MM-DD>]

  Adds a holding and prints the new portfolio code. Without -cost the close
  price on -date is used as cost basis.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "portfolio", "", "current portfolio code")
	f.StringVar(&c.ticker, "ticker", "", "ticker symbol, e.g. AAPL or RELIANCE.NS")
	f.StringVar(&c.quantity, "quantity", "", "number of shares")
	f.StringVar(&c.cost, "cost", "", "cost basis per share")
	f.StringVar(&c.date, "date", "", "purchase date (YYYY-MM-DD)")
}

func (c *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	req := request.AddHoldingRequest{Ticker: c.ticker, AcquiredOn: c.date}

	quantity, err := decimal.NewFromString(strings.TrimSpace(c.quantity))
	if err != nil {
		return c.fail(fmt.Errorf("invalid -quantity %q: %w", c.quantity, err))
	}
	req.Quantity = quantity

	if strings.TrimSpace(c.cost) != "" {
		cost, err := decimal.NewFromString(strings.TrimSpace(c.cost))
		if err != nil {
			return c.fail(fmt.Errorf("invalid -cost %q: %w", c.cost, err))
		}
		req.CostBasis = &cost
	}

	code, err := c.portfolios.AddHolding(ctx, c.portfolio, req)
	if err != nil {
		return c.fail(err)
	}
	return c.printCode(code)
}

type removeCmd struct {
	*app
	portfolio string
}

func (*removeCmd) Name() string     { return "remove" }
func (*removeCmd) Synopsis() string { return "remove holdings by ticker" }
func (*removeCmd) Usage() string {
	return `pftrack remove -portfolio <code> <ticker>...

  Removes the given tickers and prints the new portfolio code. Tickers that
  are not in the portfolio are ignored.
`
}

func (c *removeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "portfolio", "", "current portfolio code")
}

func (c *removeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprint(c.errOut, c.Usage())
		return subcommands.ExitUsageError
	}

	code := c.portfolio
	for _, ticker := range f.Args() {
		next, removed, err := c.portfolios.RemoveHolding(code, ticker)
		if err != nil {
			return c.fail(err)
		}
		if !removed {
			fmt.Fprintf(c.errOut, "%s is not in the portfolio\n", strings.ToUpper(ticker))
		}
		code = next
	}
	return c.printCode(code)
}

type clearCmd struct {
	*app
}

func (*clearCmd) Name() string     { return "clear" }
func (*clearCmd) Synopsis() string { return "print the code of an empty portfolio" }
func (*clearCmd) Usage() string {
	return `pftrack clear
`
}
func (*clearCmd) SetFlags(*flag.FlagSet) {}

func (c *clearCmd) Execute(context.Context, *flag.FlagSet, ...any) subcommands.ExitStatus {
	return c.printCode(c.portfolios.ClearHoldings())
}

type showCmd struct {
	*app
	portfolio string
	style     string
	width     int
	raw       bool
}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "value the portfolio at current prices" }
func (*showCmd) Usage() string {
	return `pftrack show -portfolio <code> [-style <dark|light|notty|ascii>] [-width <n>] [-markdown]

  Fetches current prices and prints the valuation report.
`
}

func (c *showCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "portfolio", "", "portfolio code")
	f.StringVar(&c.style, "style", "", "glamour style; detected from the terminal when empty")
	f.IntVar(&c.width, "width", renderer.DefaultTerminalWidth, "word wrap width")
	f.BoolVar(&c.raw, "markdown", false, "print raw markdown")
}

func (c *showCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	dashboard, err := c.portfolios.Render(ctx, c.portfolio)
	if err != nil {
		return c.fail(err)
	}
	md, err := c.renderer.Markdown(dashboard.Report)
	if err != nil {
		return c.fail(err)
	}
	return c.printMarkdown(md, c.style, c.width, c.raw)
}

type searchCmd struct {
	*app
	style string
	raw   bool
}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "search ticker symbols by name or symbol" }
func (*searchCmd) Usage() string {
	return `pftrack search [-style <style>] [-markdown] <query>
`
}

func (c *searchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.style, "style", "", "glamour style; detected from the terminal when empty")
	f.BoolVar(&c.raw, "markdown", false, "print raw markdown")
}

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprint(c.errOut, c.Usage())
		return subcommands.ExitUsageError
	}

	suggestions, err := c.market.Search(ctx, strings.Join(f.Args(), " "))
	if err != nil {
		return c.fail(err)
	}
	if len(suggestions) == 0 {
		fmt.Fprintln(c.errOut, "no matching symbols")
		return subcommands.ExitSuccess
	}

	var b strings.Builder
	b.WriteString("| Symbol | Name | Exchange | Type |\n|:--|:--|:--|:--|\n")
	for _, s := range suggestions {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			renderer.Cell(s.Symbol), renderer.Cell(s.Name), renderer.Cell(s.Exchange), renderer.Cell(s.Type))
	}
	return c.printMarkdown(b.String(), c.style, renderer.DefaultTerminalWidth, c.raw)
}
