package summary

import (
	"strings"
	"testing"
	"time"

	"github.com/joelkehle/lease-audit/internal/analysis"
)

func TestHTMLRendersTablesAndBadge(t *testing.T) {
	r := analysis.Analyze("Tenant: Acme LLC. Base Rent: $4,000 per month. Term of 24 months. CAM charges of $500 per month, uncapped.")
	md := analysis.BuildMarkdown(r, "a-1", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	out, err := HTML("Lease Audit a-1", md)
	if err != nil {
		t.Fatalf("html: %v", err)
	}
	for _, want := range []string{
		"<title>Lease Audit a-1</title>",
		"<table>",
		"<td>Acme LLC</td>",
		`class="risk-badge risk-`,
		`data-page-break-before="true">Rent Schedule</h2>`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in html:\n%s", want, out)
		}
	}
}

func TestApplyPrintLayoutHooksNoopWhenHeadingMissing(t *testing.T) {
	in := "<h2>Flags</h2><p>x</p>"
	if out := applyPrintLayoutHooks(in); out != in {
		t.Fatalf("expected no change, got: %s", out)
	}
}

func TestHTMLEscapesTitle(t *testing.T) {
	out, err := HTML("<script>", "# Hi")
	if err != nil {
		t.Fatalf("html: %v", err)
	}
	if strings.Contains(out, "<title><script>") {
		t.Fatalf("title not escaped: %s", out)
	}
}
