// Package summary renders the markdown audit summary as HTML and, through
// headless Chromium, as a print-ready PDF.
package summary

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const baseCSS = `body{font-family:Helvetica,Arial,sans-serif;color:#1f2937;margin:0;padding:0.6rem;background:#fff;}
.summary-wrap{max-width:900px;margin:0 auto;}
h1{font-size:1.6rem;border-bottom:3px solid #1e3a8a;padding-bottom:0.3rem;}
h2{font-size:1.15rem;color:#1e3a8a;margin-top:1.4rem;}
table{width:100%;border-collapse:collapse;font-size:0.85rem;}
th,td{border:1px solid #cbd5e1;padding:0.35rem 0.45rem;text-align:left;vertical-align:top;}
thead th{background:#f1f5f9;font-weight:700;}
td:nth-child(n+2){font-variant-numeric:tabular-nums;}
.risk-badge{display:inline-block;padding:0.1rem 0.5rem;border-radius:0.4rem;font-weight:700;}
.risk-HIGH{background:#fee2e2;color:#991b1b;}
.risk-MEDIUM{background:#fef3c7;color:#92400e;}
.risk-LOW{background:#dcfce7;color:#166534;}
h2[data-page-break-before="true"]{break-before:page;page-break-before:always;}
@media print{@page{size:letter;margin:12mm;} body{padding:0;}}`

var (
	reRentSchedule = regexp.MustCompile(`(?i)<h2([^>]*)>\s*Rent Schedule\s*</h2>`)
	reRiskLevel    = regexp.MustCompile(`Risk level: <strong>(LOW|MEDIUM|HIGH)</strong>`)
)

// HTML converts the markdown summary to a standalone HTML document.
func HTML(title, markdown string) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return "<!doctype html><html><head><meta charset='utf-8'><title>" + html.EscapeString(title) + "</title>" +
		"<style>" + baseCSS + "</style></head><body><div class='summary-wrap'>" +
		applyPrintLayoutHooks(content.String()) +
		"</div></body></html>", nil
}

func applyPrintLayoutHooks(contentHTML string) string {
	out := reRentSchedule.ReplaceAllString(contentHTML, `<h2$1 data-page-break-before="true">Rent Schedule</h2>`)
	return reRiskLevel.ReplaceAllString(out, `Risk level: <strong class="risk-badge risk-$1">$1</strong>`)
}
