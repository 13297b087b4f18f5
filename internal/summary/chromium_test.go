package summary

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/joelkehle/lease-audit/internal/analysis"
)

func TestPrintParams(t *testing.T) {
	opts := DefaultPrintOptions()
	opts.FooterNote = "Audit <a-1> & co"
	p := opts.params()
	if p.PaperWidth != 8.5 || p.PaperHeight != 11 {
		t.Fatalf("paper %.2fx%.2f, want letter", p.PaperWidth, p.PaperHeight)
	}
	if !p.DisplayHeaderFooter || !p.PrintBackground {
		t.Fatalf("header/footer and backgrounds must print: %+v", p)
	}
	if p.MarginLeft != opts.MarginSide || p.MarginRight != opts.MarginSide {
		t.Fatalf("side margins %.2f/%.2f", p.MarginLeft, p.MarginRight)
	}
	if !strings.Contains(p.HeaderTemplate, `class="title"`) {
		t.Fatalf("header does not carry the document title: %s", p.HeaderTemplate)
	}
	if !strings.Contains(p.FooterTemplate, "Audit &lt;a-1&gt; &amp; co") {
		t.Fatalf("footer note not escaped: %s", p.FooterTemplate)
	}
	if !strings.Contains(p.FooterTemplate, `class="totalPages"`) {
		t.Fatalf("footer has no page count: %s", p.FooterTemplate)
	}

	opts.Header = false
	if got := opts.params().HeaderTemplate; got != `<div></div>` {
		t.Fatalf("disabled header rendered %q", got)
	}
}

func TestNewChromiumRendererFillsDefaults(t *testing.T) {
	r := NewChromiumRenderer("/opt/chrome", PrintOptions{MarginSide: 1})
	if r.chromePath != "/opt/chrome" {
		t.Fatalf("chrome path %q", r.chromePath)
	}
	if r.opts.PaperWidth != 8.5 || r.opts.Timeout != 30*time.Second || r.opts.MarginSide != 1 {
		t.Fatalf("unexpected options %+v", r.opts)
	}
}

func TestChromiumRendersSummary(t *testing.T) {
	if testing.Short() {
		t.Skip("launches a browser")
	}
	path := detectChromePath()
	if path == "" {
		t.Skip("no Chromium found")
	}
	r := analysis.Analyze("Tenant: Acme LLC. Base Rent: $4,000 per month. Term of 24 months. CAM charges of $500 per month, uncapped.")
	doc, err := HTML("Lease Audit a-1", analysis.BuildMarkdown(r, "a-1", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("html: %v", err)
	}
	pdf, err := NewChromiumRenderer(path, DefaultPrintOptions()).Render(context.Background(), doc)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Fatalf("output is not a pdf")
	}
}
