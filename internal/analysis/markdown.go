package analysis

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/joelkehle/lease-audit/internal/lease"
)

// BuildMarkdown renders the result as the plain summary used by the CLI and the
// HTML/PDF summary endpoints.
func BuildMarkdown(r Result, auditID string, generatedAt time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Lease Audit Summary\n\n")
	if auditID != "" {
		fmt.Fprintf(&b, "- Audit ID: %s\n", auditID)
	}
	fmt.Fprintf(&b, "- Date: %s\n", generatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Risk level: **%s**\n", r.RiskLevel)
	if r.InsufficientData() {
		fmt.Fprintf(&b, "- Health score: insufficient data\n\n")
	} else {
		fmt.Fprintf(&b, "- Health score: **%d / 100**\n\n", r.Health.Score)
	}
	fmt.Fprintf(&b, "%s\n\n", Disclaimer)

	if !r.HasFindings() {
		fmt.Fprintf(&b, "## No significant findings\n\n")
		fmt.Fprintf(&b, "No rent, CAM/NNN or party terms could be read from the document.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "## Lease Snapshot\n\n")
	fmt.Fprintf(&b, "| Field | Value |\n|---|---|\n")
	for _, row := range SnapshotRows(r) {
		fmt.Fprintf(&b, "| %s | %s |\n", row[0], escapeCell(row[1]))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Estimated Exposure\n\n")
	total := r.Rollup.Total()
	fmt.Fprintf(&b, "Total range: **%s**\n\n", FormatRange(total))
	fmt.Fprintf(&b, "| Category | Low | High |\n|---|---:|---:|\n")
	for _, row := range RollupRows(r.Rollup) {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", row.Label, FormatMoney(row.Range.Low), FormatMoney(row.Range.High))
	}
	if r.CamTotalAvoidableExposure > 0 {
		fmt.Fprintf(&b, "\nCAM total plus modeled escalation over the term: %s\n", FormatMoney(r.CamTotalAvoidableExposure))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Flags\n\n")
	if len(r.Health.Flags) == 0 {
		b.WriteString("- None\n")
	}
	for _, f := range r.Health.Flags {
		fmt.Fprintf(&b, "- **%s** (%s, -%d): %s\n", f.Label, f.Severity, f.Points, f.Recommendation)
		if f.EstimatedImpact != nil {
			fmt.Fprintf(&b, "  - Estimated impact: %s\n", FormatRange(*f.EstimatedImpact))
		}
	}
	b.WriteString("\n")

	if len(r.RentSchedule) > 0 {
		fmt.Fprintf(&b, "## Rent Schedule\n\n")
		fmt.Fprintf(&b, "| Year | Annual | Monthly |\n|---:|---:|---:|\n")
		for _, row := range r.RentSchedule {
			fmt.Fprintf(&b, "| %d | %s | %s |\n", row.Year, FormatMoney(row.AnnualRent), FormatMoney(row.MonthlyRent))
		}
	}
	return b.String()
}

// RollupRow is one labelled category of the exposure rollup.
type RollupRow struct {
	Label string
	Range lease.Range
}

func RollupRows(r lease.Rollup) []RollupRow {
	return []RollupRow{
		{Label: "CAM escalation", Range: r.CamEscalation},
		{Label: "Capital items", Range: r.CapitalItems},
		{Label: "Management fees", Range: r.ManagementFees},
	}
}

// SnapshotRows lists the extracted lease facts as label/value pairs, with
// "Not found" for anything missing.
func SnapshotRows(r Result) [][2]string {
	rows := [][2]string{
		{"Tenant", strOr(r.Tenant)},
		{"Landlord", strOr(r.Landlord)},
		{"Premises", strOr(r.Premises)},
		{"Lease start", strOr(r.LeaseStart)},
		{"Lease end", strOr(r.LeaseEnd)},
	}
	term := notFound
	if r.TermMonths != nil {
		term = fmt.Sprintf("%d months", *r.TermMonths)
	}
	rows = append(rows, [2]string{"Term", term})

	rent := notFound
	if r.Rent.BaseRent != nil {
		rent = FormatMoney(*r.Rent.BaseRent)
		if r.Rent.Frequency != nil {
			rent += " " + string(*r.Rent.Frequency)
		}
	}
	rows = append(rows, [2]string{"Base rent", rent})
	rows = append(rows, [2]string{"Escalation", describeEscalation(r.Rent)})

	cam := notFound
	if r.CamNnn != nil && r.CamNnn.MonthlyAmount != nil {
		cam = FormatMoney(*r.CamNnn.MonthlyAmount) + " monthly"
	}
	rows = append(rows, [2]string{"CAM/NNN", cam})
	return rows
}

const notFound = "Not found"

func describeEscalation(rent lease.Rent) string {
	switch rent.EscalationType {
	case lease.EscalationFixedPercent:
		if rent.EscalationValue != nil {
			return strings.TrimSpace(fmt.Sprintf("%s%% %s", trimFloat(*rent.EscalationValue), intervalOr(rent.EscalationInterval)))
		}
	case lease.EscalationFixedAmount:
		if rent.EscalationValue != nil {
			return strings.TrimSpace(fmt.Sprintf("%s/month %s", FormatMoney(*rent.EscalationValue), intervalOr(rent.EscalationInterval)))
		}
	case lease.EscalationCPI:
		return "CPI adjusted"
	}
	return "None found"
}

func intervalOr(iv *lease.Interval) string {
	if iv == nil {
		return ""
	}
	return string(*iv)
}

func strOr(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return notFound
	}
	return *s
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func trimFloat(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

// FormatMoney renders whole dollars with thousands separators, or cents when
// the amount has them.
func FormatMoney(v float64) string {
	neg := v < 0
	v = math.Abs(v)
	cents := math.Round(v*100) - math.Floor(v)*100
	whole := int64(math.Floor(v))
	if cents >= 100 {
		whole++
		cents -= 100
	}
	s := fmt.Sprintf("%d", whole)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if cents > 0 {
		s += fmt.Sprintf(".%02d", int(cents))
	}
	if neg {
		return "-$" + s
	}
	return "$" + s
}

func FormatRange(r lease.Range) string {
	return FormatMoney(r.Low) + " - " + FormatMoney(r.High)
}
