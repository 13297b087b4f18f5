package report

import (
	"fmt"
	"strings"

	"github.com/joelkehle/lease-audit/internal/analysis"
	"github.com/joelkehle/lease-audit/internal/layout"
	"github.com/joelkehle/lease-audit/internal/lease"
)

// Block records where one section started and ended, the height that was
// reserved for it and the drawing calls it issued.
type Block struct {
	Name     string
	Start    layout.Cursor
	End      layout.Cursor
	Measured float64
	Ops      []layout.Op
}

type Trace struct {
	Pages   int
	Blocks  []Block
	Cursors []layout.Cursor
}

type Options struct {
	Theme   layout.Theme
	Fonts   layout.Fonts
	AuditID string
}

func DefaultOptions() Options {
	return Options{Theme: layout.DefaultTheme(), Fonts: layout.DefaultFonts()}
}

// Render lays out the full report for r. The same input always yields the
// same bytes and the same trace.
func Render(r analysis.Result, opts Options) ([]byte, Trace, error) {
	doc, err := layout.New(opts.Theme, opts.Fonts)
	if err != nil {
		return nil, Trace{}, err
	}
	doc.SetTitle("Lease Audit Report")
	if opts.AuditID != "" {
		doc.SetFooter("Audit " + opts.AuditID)
	}
	c, err := doc.Start()
	if err != nil {
		return nil, Trace{}, err
	}

	t := opts.Theme
	var tr Trace
	place := func(name string, measured float64, draw func(layout.Cursor) (layout.Cursor, error)) error {
		start, err := doc.EnsureSpace(c, min(measured, t.ContentHeight()))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		drawn := len(doc.Ops())
		end, err := draw(start)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		tr.Blocks = append(tr.Blocks, Block{Name: name, Start: start, End: end, Measured: measured, Ops: doc.Ops()[drawn:]})
		doc.Mark(end)
		c = end.Down(t.Spacing.LG)
		return nil
	}

	hero := buildHero(r)
	if err := place("hero", MeasureHero(t, hero), func(c layout.Cursor) (layout.Cursor, error) {
		return DrawHero(doc, c, hero)
	}); err != nil {
		return nil, Trace{}, err
	}

	for _, cl := range buildCallouts(r) {
		if err := place("callout:"+cl.Title, MeasureCallout(t, cl), func(c layout.Cursor) (layout.Cursor, error) {
			return DrawCallout(doc, c, cl)
		}); err != nil {
			return nil, Trace{}, err
		}
		if cl.Title == snapshotTitle && r.HasFindings() {
			rollup := rollupTable(r)
			if err := place("table:rollup", MeasureSummaryTable(t, rollup), func(c layout.Cursor) (layout.Cursor, error) {
				return DrawSummaryTable(doc, c, rollup)
			}); err != nil {
				return nil, Trace{}, err
			}
		}
	}

	if len(r.RentSchedule) > 0 {
		sched := scheduleTable(r.RentSchedule)
		if err := place("table:rent_schedule", MeasureSummaryTable(t, sched), func(c layout.Cursor) (layout.Cursor, error) {
			return DrawSummaryTable(doc, c, sched)
		}); err != nil {
			return nil, Trace{}, err
		}
	}

	bottom := buildBottomLine(r)
	box := ExplanationBox{
		Title:      "How these numbers were estimated",
		Paragraphs: explanationParagraphs(r),
		Reserve:    MeasureBottomLine(t, bottom) + t.Spacing.LG,
	}
	h, brk := box.HeightAt(c, t)
	if brk {
		if c, err = doc.AddPage(); err != nil {
			return nil, Trace{}, err
		}
		h, _ = box.HeightAt(c, t)
	}
	if err := place("explanation", h, func(c layout.Cursor) (layout.Cursor, error) {
		return DrawExplanation(doc, c, box)
	}); err != nil {
		return nil, Trace{}, err
	}
	if err := place("bottom_line", MeasureBottomLine(t, bottom), func(c layout.Cursor) (layout.Cursor, error) {
		return DrawBottomLine(doc, c, bottom)
	}); err != nil {
		return nil, Trace{}, err
	}

	tr.Pages = doc.PageCount()
	tr.Cursors = doc.Trace()
	out, err := doc.Finalize()
	if err != nil {
		return nil, Trace{}, err
	}
	return out, tr, nil
}

func riskTone(level lease.RiskLevel) Tone {
	switch level {
	case lease.RiskLow:
		return ToneSuccess
	case lease.RiskMedium:
		return ToneWarning
	default:
		return ToneDanger
	}
}

func buildHero(r analysis.Result) Hero {
	var parts []string
	if r.Tenant != nil {
		parts = append(parts, *r.Tenant)
	}
	if r.Premises != nil {
		parts = append(parts, *r.Premises)
	}
	h := Hero{
		Title:    "Lease Audit Report",
		Subtitle: strings.Join(parts, " | "),
		Badge:    "RISK: " + string(r.RiskLevel),
		Tone:     riskTone(r.RiskLevel),
	}
	total := r.Rollup.Total()
	switch {
	case !r.HasFindings():
		h.Headline = "No significant findings"
		h.Caption = "Automated review of rent and CAM/NNN terms."
	case total.IsZero():
		h.Headline = "Exposure could not be estimated"
		h.Caption = "The lease does not state enough CAM/NNN figures to size the risk."
	default:
		h.Headline = "Estimated exposure: " + analysis.FormatRange(total)
		h.Caption = fmt.Sprintf("Avoidable CAM/NNN cost over the lease term, conservative to aggressive. %d provision(s) flagged.", len(r.Health.Flags))
	}
	return h
}

const snapshotTitle = "Lease snapshot"

func buildCallouts(r analysis.Result) []Callout {
	if !r.HasFindings() {
		return []Callout{{
			Title: "No significant findings",
			Body:  "No rent, CAM/NNN or party terms could be read from this document. It may be a scanned image, an amendment without economic terms, or a format the audit does not recognize. Review the lease manually before relying on this report.",
			Tone:  ToneInfo,
		}}
	}
	snapshot := Callout{Title: snapshotTitle, Tone: ToneInfo}
	for _, row := range analysis.SnapshotRows(r) {
		snapshot.Bullets = append(snapshot.Bullets, row[0]+": "+row[1])
	}

	health := Callout{Tone: riskTone(r.RiskLevel)}
	if r.InsufficientData() {
		health.Title = "Lease health: insufficient data"
		health.Body = "No CAM/NNN terms were found, so the lease could not be scored. Treat it as high risk until the operating expense provisions are reviewed."
	} else {
		health.Title = fmt.Sprintf("Lease health: %d / 100 (%s risk)", r.Health.Score, r.RiskLevel)
		if len(r.Health.Flags) == 0 {
			health.Body = "No penalty conditions were detected in the CAM/NNN provisions."
		}
		for _, f := range r.Health.Flags {
			line := fmt.Sprintf("%s (-%d). %s", f.Label, f.Points, f.Recommendation)
			if f.EstimatedImpact != nil {
				line += " Estimated impact: " + analysis.FormatRange(*f.EstimatedImpact) + "."
			}
			health.Bullets = append(health.Bullets, line)
		}
	}
	return []Callout{snapshot, health}
}

func rollupTable(r analysis.Result) SummaryTable {
	tb := SummaryTable{
		Title: "Estimated exposure over the term",
		Columns: []Column{
			{Header: "Category", Width: 0.5},
			{Header: "Low", Width: 0.25, Align: layout.AlignRight},
			{Header: "High", Width: 0.25, Align: layout.AlignRight},
		},
	}
	for _, row := range analysis.RollupRows(r.Rollup) {
		tb.Rows = append(tb.Rows, []string{row.Label, analysis.FormatMoney(row.Range.Low), analysis.FormatMoney(row.Range.High)})
	}
	total := r.Rollup.Total()
	tb.Footer = []string{"Total", analysis.FormatMoney(total.Low), analysis.FormatMoney(total.High)}
	return tb
}

func scheduleTable(rows []lease.RentScheduleRow) SummaryTable {
	tb := SummaryTable{
		Title: "Projected rent schedule",
		Columns: []Column{
			{Header: "Lease year", Width: 0.3},
			{Header: "Annual rent", Width: 0.35, Align: layout.AlignRight},
			{Header: "Monthly rent", Width: 0.35, Align: layout.AlignRight},
		},
	}
	var total float64
	for _, row := range rows {
		tb.Rows = append(tb.Rows, []string{fmt.Sprintf("Year %d", row.Year), analysis.FormatMoney(row.AnnualRent), analysis.FormatMoney(row.MonthlyRent)})
		total += row.AnnualRent
	}
	tb.Footer = []string{"Total", analysis.FormatMoney(total), ""}
	return tb
}

func explanationParagraphs(r analysis.Result) []string {
	ps := []string{
		fmt.Sprintf("CAM/NNN escalation is modeled at %.0f%% a year for capped charges and %.0f%% a year when no cap applies, over the full lease term. A stated cap lowers the low end of the range.", lease.CappedGrowthRate*100, lease.UncappedGrowthRate*100),
		"Capital items are estimated at 5% to 15% of annual CAM when the lease passes capital expenditures through. Management fees are compared with a 3% to 5% market range; when no fee is stated, up to 2% of CAM is assumed.",
		"Rent escalations compound on the prior year for percentage increases; fixed increases are added monthly. CPI-linked rent is shown flat because the index is unknown.",
	}
	if r.CamTotalAvoidableExposure > 0 {
		ps = append(ps, fmt.Sprintf("Total CAM over the term plus modeled escalation comes to %s.", analysis.FormatMoney(r.CamTotalAvoidableExposure)))
	}
	return append(ps, analysis.Disclaimer)
}

func buildBottomLine(r analysis.Result) BottomLine {
	switch {
	case !r.HasFindings():
		return BottomLine{Headline: "Bottom line", Body: "Nothing in this document could be audited automatically. Have the lease reviewed by hand."}
	case r.InsufficientData():
		return BottomLine{Headline: "Bottom line", Body: "Rent terms were found but no CAM/NNN provisions. Confirm how operating expenses are billed before signing."}
	}
	total := r.Rollup.Total()
	n := len(r.Health.Flags)
	if n == 0 {
		return BottomLine{Headline: "Bottom line", Body: "The CAM/NNN provisions read as tenant-friendly. Keep the cap and reconciliation rights in the final draft."}
	}
	b := BottomLine{Headline: "Bottom line", Body: fmt.Sprintf("%d provision(s) shift cost to the tenant.", n)}
	if !total.IsZero() {
		b.Range = analysis.FormatRange(total)
		b.Body += " Negotiating them could avoid this much over the term."
	}
	return b
}
