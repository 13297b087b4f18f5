package summary

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// PrintOptions sets the page geometry and running heads of the printed
// summary. Lengths are in inches.
type PrintOptions struct {
	PaperWidth   float64
	PaperHeight  float64
	MarginTop    float64
	MarginBottom float64
	MarginSide   float64
	// Header prints the document title and the print date above each page.
	Header bool
	// FooterNote is printed left of the page count on every page.
	FooterNote string
	Timeout    time.Duration
}

// DefaultPrintOptions prints US Letter with the title header and the
// estimate disclaimer in the footer.
func DefaultPrintOptions() PrintOptions {
	return PrintOptions{
		PaperWidth:   8.5,
		PaperHeight:  11,
		MarginTop:    0.75,
		MarginBottom: 0.75,
		MarginSide:   0.5,
		Header:       true,
		FooterNote:   "Estimates only. Not legal advice.",
		Timeout:      30 * time.Second,
	}
}

const runningHeadStyle = `font-family:Helvetica,Arial,sans-serif;font-size:8px;color:#6c757d;width:100%;margin:0 0.5in;display:flex;justify-content:space-between;`

// headerTemplate uses Chromium's title and date placeholders, filled from the
// document's <title> at print time.
func (o PrintOptions) headerTemplate() string {
	if !o.Header {
		return `<div></div>`
	}
	return `<div style="` + runningHeadStyle + `"><span class="title"></span><span class="date"></span></div>`
}

func (o PrintOptions) footerTemplate() string {
	return `<div style="` + runningHeadStyle + `"><span>` + html.EscapeString(o.FooterNote) + `</span>` +
		`<span>Page <span class="pageNumber"></span> of <span class="totalPages"></span></span></div>`
}

func (o PrintOptions) params() *page.PrintToPDFParams {
	return page.PrintToPDF().
		WithPrintBackground(true).
		WithDisplayHeaderFooter(true).
		WithHeaderTemplate(o.headerTemplate()).
		WithFooterTemplate(o.footerTemplate()).
		WithPaperWidth(o.PaperWidth).
		WithPaperHeight(o.PaperHeight).
		WithMarginTop(o.MarginTop).
		WithMarginBottom(o.MarginBottom).
		WithMarginLeft(o.MarginSide).
		WithMarginRight(o.MarginSide).
		WithPreferCSSPageSize(false)
}

// ChromiumRenderer prints summary HTML with a headless Chromium.
type ChromiumRenderer struct {
	chromePath string
	opts       PrintOptions
}

// NewChromiumRenderer uses chromePath when set and otherwise looks for a
// system Chromium. Zero-valued options fall back to DefaultPrintOptions.
func NewChromiumRenderer(chromePath string, opts PrintOptions) *ChromiumRenderer {
	if chromePath == "" {
		chromePath = detectChromePath()
	}
	def := DefaultPrintOptions()
	if opts.PaperWidth <= 0 || opts.PaperHeight <= 0 {
		opts.PaperWidth, opts.PaperHeight = def.PaperWidth, def.PaperHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	return &ChromiumRenderer{chromePath: chromePath, opts: opts}
}

func (r *ChromiumRenderer) Render(ctx context.Context, htmlDoc string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if r.chromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(r.chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(timeoutCtx, append(chromedp.DefaultExecAllocatorOptions[:], allocOpts...)...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var pdf []byte
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(htmlDoc))
	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) (err error) {
			pdf, _, err = r.opts.params().Do(ctx)
			return err
		}),
	); err != nil {
		return nil, fmt.Errorf("print summary pdf: %w", err)
	}
	return pdf, nil
}

func detectChromePath() string {
	if p := os.Getenv("CHROME_PATH"); p != "" {
		return p
	}
	for _, p := range []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
