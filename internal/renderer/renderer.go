// Package renderer turns valuation reports into markdown, HTML and terminal output.
package renderer

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"io"
	"net/url"
	"strings"
	texttemplate "text/template"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/model"
)

//go:embed templates/*
var templates embed.FS

// DefaultTerminalWidth is the word wrap width used when none is given.
const DefaultTerminalWidth = 100

// Renderer renders valuation reports. It is safe for concurrent use.
type Renderer struct {
	report    *texttemplate.Template
	dashboard *htmltemplate.Template
	markdown  goldmark.Markdown
	publicURL string
}

// New parses the embedded templates. publicURL is the base of share links.
func New(publicURL string) (*Renderer, error) {
	funcs := texttemplate.FuncMap{
		"money":     FormatMoney,
		"signed":    SignedMoney,
		"optMoney":  formatOptionalMoney,
		"optSigned": formatOptionalSignedMoney,
		"pct":       FormatPercent,
		"share":     FormatShare,
		"qty":       formatQuantity,
		"date":      formatDate,
		"timestamp": formatTimestamp,
		"cell":      Cell,
		"staleList": staleList,
	}

	report, err := texttemplate.New("report.md.tmpl").Funcs(funcs).ParseFS(templates, "templates/report.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template: %w", err)
	}

	dashboard, err := htmltemplate.New("dashboard.html.tmpl").
		Funcs(htmltemplate.FuncMap(funcs)).
		ParseFS(templates, "templates/dashboard.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse dashboard template: %w", err)
	}

	return &Renderer{
		report:    report,
		dashboard: dashboard,
		markdown:  goldmark.New(goldmark.WithExtensions(extension.GFM)),
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Markdown renders the report as GitHub-flavored markdown.
func (r *Renderer) Markdown(report model.ValuationReport) (string, error) {
	var buf bytes.Buffer
	if err := r.report.Execute(&buf, report); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.String(), nil
}

// HTML converts markdown to HTML. Raw HTML in the input is not passed through.
func (r *Renderer) HTML(markdown string) (htmltemplate.HTML, error) {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}
	//nolint:gosec // goldmark escapes raw HTML unless WithUnsafe is set
	return htmltemplate.HTML(buf.String()), nil
}

// Terminal renders markdown for a terminal. style is a glamour style name
// such as "dark", "light" or "notty"; empty picks one from the terminal background.
func (r *Renderer) Terminal(markdown, style string, width int) (string, error) {
	if width <= 0 {
		width = DefaultTerminalWidth
	}

	styleOpt := glamour.WithAutoStyle()
	if style != "" {
		styleOpt = glamour.WithStandardStyle(style)
	}

	term, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("failed to create terminal renderer: %w", err)
	}
	out, err := term.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render for terminal: %w", err)
	}
	return out, nil
}

// ShareURL returns the link that reopens the dashboard for code.
func (r *Renderer) ShareURL(code string) string {
	if code == "" {
		return r.publicURL + "/"
	}
	return r.publicURL + "/?portfolio=" + url.QueryEscape(code)
}

// Page is the data shown by the HTML dashboard.
type Page struct {
	Report model.ValuationReport
	Code   string
	Error  string            // message of a rejected action
	Fields map[string]string // per-field messages of a rejected action
}

type pageView struct {
	Page
	ShareURL   string
	ReportHTML htmltemplate.HTML
	Chart      chartData
}

// chartData feeds the client-side charts; html/template encodes it as JSON.
type chartData struct {
	Labels  []string          `json:"labels"`
	Values  []float64         `json:"values"`
	Tickers []string          `json:"tickers"`
	Bought  map[string]string `json:"bought"`
}

// Dashboard writes the HTML dashboard page.
func (r *Renderer) Dashboard(w io.Writer, page Page) error {
	md, err := r.Markdown(page.Report)
	if err != nil {
		return err
	}
	reportHTML, err := r.HTML(md)
	if err != nil {
		return err
	}

	view := pageView{
		Page:       page,
		ShareURL:   r.ShareURL(page.Code),
		ReportHTML: reportHTML,
		Chart:      newChartData(page.Report),
	}
	if err := r.dashboard.Execute(w, view); err != nil {
		return fmt.Errorf("failed to render dashboard: %w", err)
	}
	return nil
}

func newChartData(report model.ValuationReport) chartData {
	data := chartData{
		Labels:  []string{},
		Values:  []float64{},
		Tickers: []string{},
		Bought:  map[string]string{},
	}
	for _, h := range report.Holdings {
		data.Tickers = append(data.Tickers, h.Ticker)
		if !h.AcquiredOn.IsZero() {
			data.Bought[h.Ticker] = formatDate(h.AcquiredOn)
		}
		if h.Stale || h.MarketValue == nil {
			continue
		}
		data.Labels = append(data.Labels, h.Ticker)
		data.Values = append(data.Values, *h.MarketValue)
	}
	return data
}

func staleList(holdings []model.HoldingValuation) string {
	var items []string
	for _, h := range holdings {
		if h.Stale {
			items = append(items, fmt.Sprintf("`%s` (%s)", h.Ticker, h.PriceStatus))
		}
	}
	return strings.Join(items, ", ")
}
