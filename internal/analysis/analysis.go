package analysis

import (
	"github.com/joelkehle/lease-audit/internal/extract"
	"github.com/joelkehle/lease-audit/internal/lease"
)

const Disclaimer = "This audit is generated by pattern matching against the lease text. It is not legal or accounting advice; verify every figure against the executed lease."

// Result is the stored analysis of one lease. The embedded facts serialize as
// top-level keys.
type Result struct {
	lease.Facts
	Rent                      lease.Rent              `json:"rent"`
	RentSchedule              []lease.RentScheduleRow `json:"rent_schedule"`
	CamNnn                    *lease.CamNnn           `json:"cam_nnn"`
	CamTotalAvoidableExposure float64                 `json:"cam_total_avoidable_exposure"`
	Health                    lease.Health            `json:"health"`
	RiskLevel                 lease.RiskLevel         `json:"risk_level"`
	Rollup                    lease.Rollup            `json:"rollup"`
}

// Analyze runs extraction, projection, exposure modeling and scoring over raw
// lease text. It never fails; missing facts degrade to nil or empty values.
func Analyze(text string) Result {
	ex := extract.Extract(text)
	return FromExtraction(ex)
}

// FromExtraction runs every stage after extraction.
func FromExtraction(ex extract.Extraction) Result {
	term := ex.Facts.TermMonths
	cam := lease.ModelCamExposure(ex.Cam, term)
	rollup := lease.BuildRollup(cam, term)

	var findings *lease.Findings
	if cam != nil {
		findings = lease.FindingsFromRollup(rollup)
	}
	health := lease.ScoreHealth(cam, findings)

	return Result{
		Facts:                     ex.Facts,
		Rent:                      ex.Rent,
		RentSchedule:              lease.ProjectRentSchedule(ex.Rent, term),
		CamNnn:                    cam,
		CamTotalAvoidableExposure: lease.AvoidableExposure(cam),
		Health:                    health,
		RiskLevel:                 lease.RiskLevelFor(health),
		Rollup:                    rollup,
	}
}

// HasFindings reports whether anything was extracted or flagged. A result
// without findings still renders, as a "no significant findings" report.
func (r Result) HasFindings() bool {
	f := r.Facts
	if f.Tenant != nil || f.Landlord != nil || f.Premises != nil || f.LeaseStart != nil || f.LeaseEnd != nil || f.TermMonths != nil {
		return true
	}
	return r.Rent.BaseRent != nil || r.CamNnn != nil || len(r.Health.Flags) > 0 || len(r.RentSchedule) > 0
}

// InsufficientData reports whether the score is a default rather than an
// assessment.
func (r Result) InsufficientData() bool {
	return r.Health.Status == lease.HealthInsufficientData
}
