package lease

import "fmt"

const (
	maxScore = 100

	LowRiskThreshold    = 75
	MediumRiskThreshold = 50

	escalationThreshold       = 10000
	escalationSevereThreshold = 50000
	capitalThreshold          = 15000
	capitalSevereThreshold    = 50000
	mgmtFeeThreshold          = 5000
	mgmtFeeSevereThreshold    = 20000
)

type penalty struct {
	applies func(cam *CamNnn, f Findings) bool
	flag    func(f Findings) HealthFlag
}

// penalties is evaluated top to bottom; order is part of the contract since
// flags are reported in this order.
var penalties = []penalty{
	{
		applies: func(cam *CamNnn, _ Findings) bool { return cam.IsUncapped },
		flag: func(Findings) HealthFlag {
			return HealthFlag{
				Code:           "CAM_UNCAPPED",
				Label:          "CAM/NNN charges are uncapped",
				Severity:       SeverityHigh,
				Recommendation: "Negotiate an annual cap on controllable CAM increases (typically 3-5%).",
				Points:         25,
			}
		},
	},
	{
		applies: func(cam *CamNnn, _ Findings) bool { return !cam.IsUncapped && cam.CamCapPercent == nil },
		flag: func(Findings) HealthFlag {
			return HealthFlag{
				Code:           "CAM_CAP_UNSPECIFIED",
				Label:          "No CAM/NNN cap could be identified",
				Severity:       SeverityMedium,
				Recommendation: "Confirm whether controllable expenses are capped and get the cap in writing.",
				Points:         15,
			}
		},
	},
	{
		applies: func(cam *CamNnn, _ Findings) bool { return cam.IncludesCapex },
		flag: func(f Findings) HealthFlag {
			return HealthFlag{
				Code:            "CAPEX_PASS_THROUGH",
				Label:           "Capital expenditures are passed through in CAM",
				Severity:        SeverityHigh,
				Recommendation:  "Exclude capital repairs and replacements, or require amortization over useful life.",
				EstimatedImpact: impact(f.CapitalItems),
				Points:          15,
			}
		},
	},
	{
		applies: func(cam *CamNnn, _ Findings) bool { return cam.ProRata },
		flag: func(Findings) HealthFlag {
			return HealthFlag{
				Code:           "PRO_RATA_ALLOCATION",
				Label:          "Expenses are allocated by pro-rata share",
				Severity:       SeverityMedium,
				Recommendation: "Verify the denominator (gross leasable area) and require a gross-up cap for vacancy.",
				Points:         10,
			}
		},
	},
	{
		applies: func(_ *CamNnn, f Findings) bool { return f.Escalation.High > escalationThreshold },
		flag: func(f Findings) HealthFlag {
			return HealthFlag{
				Code:            "ESCALATION_EXPOSURE",
				Label:           fmt.Sprintf("CAM escalation exposure above $%s", formatWhole(escalationThreshold)),
				Severity:        SeverityMedium,
				Recommendation:  "Model CAM growth over the full term and push for a fixed escalation schedule.",
				EstimatedImpact: impact(f.Escalation),
				Points:          10,
			}
		},
	},
	{
		applies: func(_ *CamNnn, f Findings) bool { return f.Escalation.High > escalationSevereThreshold },
		flag: func(f Findings) HealthFlag {
			return HealthFlag{
				Code:           "ESCALATION_EXPOSURE_SEVERE",
				Label:          fmt.Sprintf("CAM escalation exposure above $%s", formatWhole(escalationSevereThreshold)),
				Severity:       SeverityHigh,
				Recommendation: "Treat CAM growth as a primary negotiation point before signing or renewing.",
				Points:         5,
			}
		},
	},
	{
		applies: func(_ *CamNnn, f Findings) bool { return f.CapitalItems.High > capitalThreshold },
		flag: func(f Findings) HealthFlag {
			return HealthFlag{
				Code:            "CAPITAL_ITEMS_EXPOSURE",
				Label:           fmt.Sprintf("Capital-item exposure above $%s", formatWhole(capitalThreshold)),
				Severity:        SeverityMedium,
				Recommendation:  "Request the landlord's capital plan and exclude roof, structure and parking replacements.",
				EstimatedImpact: impact(f.CapitalItems),
				Points:          10,
			}
		},
	},
	{
		applies: func(_ *CamNnn, f Findings) bool { return f.CapitalItems.High > capitalSevereThreshold },
		flag: func(Findings) HealthFlag {
			return HealthFlag{
				Code:           "CAPITAL_ITEMS_EXPOSURE_SEVERE",
				Label:          fmt.Sprintf("Capital-item exposure above $%s", formatWhole(capitalSevereThreshold)),
				Severity:       SeverityHigh,
				Recommendation: "Cap annual capital pass-throughs at a fixed dollar amount.",
				Points:         10,
			}
		},
	},
	{
		applies: func(_ *CamNnn, f Findings) bool { return f.ManagementFees.High > mgmtFeeThreshold },
		flag: func(f Findings) HealthFlag {
			return HealthFlag{
				Code:            "MANAGEMENT_FEE_EXPOSURE",
				Label:           fmt.Sprintf("Management-fee exposure above $%s", formatWhole(mgmtFeeThreshold)),
				Severity:        SeverityLow,
				Recommendation:  "Limit the management fee to a percentage of collected base rent, not total expenses.",
				EstimatedImpact: impact(f.ManagementFees),
				Points:          5,
			}
		},
	},
	{
		applies: func(_ *CamNnn, f Findings) bool { return f.ManagementFees.High > mgmtFeeSevereThreshold },
		flag: func(Findings) HealthFlag {
			return HealthFlag{
				Code:           "MANAGEMENT_FEE_EXPOSURE_SEVERE",
				Label:          fmt.Sprintf("Management-fee exposure above $%s", formatWhole(mgmtFeeSevereThreshold)),
				Severity:       SeverityMedium,
				Recommendation: "Benchmark the fee against 3-5% market rates and negotiate it down.",
				Points:         5,
			}
		},
	},
	{
		applies: func(cam *CamNnn, _ Findings) bool { return !cam.Reconciliation },
		flag: func(Findings) HealthFlag {
			return HealthFlag{
				Code:           "NO_RECONCILIATION",
				Label:          "No annual reconciliation process detected",
				Severity:       SeverityMedium,
				Recommendation: "Require an annual reconciliation statement with audit rights and a refund of overpayments.",
				Points:         10,
			}
		},
	},
}

// ScoreHealth starts at 100 and subtracts each applicable penalty, recording a
// flag per penalty so that every deducted point has a visible reason. A nil
// cam means there was nothing to score.
func ScoreHealth(cam *CamNnn, findings *Findings) Health {
	h := Health{
		Score:    maxScore,
		Status:   HealthInsufficientData,
		Flags:    []HealthFlag{},
		Findings: []StructuredFinding{},
	}
	if cam == nil {
		return h
	}
	h.Status = HealthScored

	var f Findings
	if findings != nil {
		f = *findings
	}
	score := maxScore
	for _, p := range penalties {
		if !p.applies(cam, f) {
			continue
		}
		flag := p.flag(f)
		score -= flag.Points
		h.Flags = append(h.Flags, flag)
	}
	h.Score = clampScore(score)
	h.Findings = structuredFindings(f)
	return h
}

// RiskLevelFor buckets a health score. Insufficient data reports HIGH so an
// unscored lease is never presented as safe.
func RiskLevelFor(h Health) RiskLevel {
	if h.Status == HealthInsufficientData {
		return RiskHigh
	}
	switch {
	case h.Score >= LowRiskThreshold:
		return RiskLow
	case h.Score >= MediumRiskThreshold:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// TotalPoints sums the points of all flags.
func (h Health) TotalPoints() int {
	n := 0
	for _, f := range h.Flags {
		n += f.Points
	}
	return n
}

func structuredFindings(f Findings) []StructuredFinding {
	out := []StructuredFinding{}
	add := func(cat FindingCategory, label string, r Range, threshold float64) {
		if r.IsZero() {
			return
		}
		sev := SeverityLow
		if r.High > threshold {
			sev = SeverityMedium
		}
		out = append(out, StructuredFinding{Category: cat, Label: label, Range: r.Ordered(), Severity: sev})
	}
	add(CategoryEscalation, "CAM escalation", f.Escalation, escalationThreshold)
	add(CategoryCapitalItems, "Capital items", f.CapitalItems, capitalThreshold)
	add(CategoryManagementFees, "Management fees", f.ManagementFees, mgmtFeeThreshold)
	return out
}

func impact(r Range) *Range {
	if r.IsZero() {
		return nil
	}
	o := r.Ordered()
	return &o
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > maxScore {
		return maxScore
	}
	return s
}

func formatWhole(v int) string {
	s := fmt.Sprintf("%d", v)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}
