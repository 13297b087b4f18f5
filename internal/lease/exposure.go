package lease

import "math"

// Assumed annual growth of CAM/NNN charges. These are policy constants chosen
// to give an explainable range, not a forecast.
const (
	UncappedGrowthRate = 0.06
	CappedGrowthRate   = 0.03

	// Growth assumed for the high end of a capped lease whose cap percent
	// could not be read.
	unknownCapGrowthRate = 0.045

	capexLowShare  = 0.05
	capexHighShare = 0.15

	marketMgmtFeeLowPct  = 3.0
	marketMgmtFeeHighPct = 5.0
	unknownMgmtFeePct    = 2.0
)

// ModelCamExposure returns a copy of cam with the annual amount, total
// exposure and escalation exposure filled in for the lease term. Exposures stay
// nil when the monthly amount or the term is unknown.
func ModelCamExposure(cam *CamNnn, termMonths *int) *CamNnn {
	if cam == nil {
		return nil
	}
	out := *cam
	out.TotalExposure = nil
	out.EscalationExposure = nil
	if out.MonthlyAmount == nil {
		return &out
	}
	annual := roundCents(*out.MonthlyAmount * 12)
	out.AnnualAmount = &annual

	if termMonths == nil || *termMonths <= 0 {
		return &out
	}
	years := float64(*termMonths) / 12
	total := roundCents(annual * years)
	out.TotalExposure = &total

	rate := CappedGrowthRate
	if out.IsUncapped {
		rate = UncappedGrowthRate
	}
	esc := roundCents(annual * rate * years)
	out.EscalationExposure = &esc
	return &out
}

// AvoidableExposure is the combined figure surfaced to the report:
// total exposure plus escalation exposure.
func AvoidableExposure(cam *CamNnn) float64 {
	if cam == nil {
		return 0
	}
	var sum float64
	if cam.TotalExposure != nil {
		sum += *cam.TotalExposure
	}
	if cam.EscalationExposure != nil {
		sum += *cam.EscalationExposure
	}
	return roundCents(sum)
}

// BuildRollup derives the escalation, capital-item and management-fee bands.
// An unknown CAM amount or term yields the zero rollup.
func BuildRollup(cam *CamNnn, termMonths *int) Rollup {
	if cam == nil || termMonths == nil || *termMonths <= 0 {
		return Rollup{}
	}
	annual := annualAmount(cam)
	if annual <= 0 {
		return Rollup{}
	}
	years := float64(*termMonths) / 12

	lowRate, highRate := escalationRates(cam)
	r := Rollup{
		CamEscalation: band(annual*lowRate*years, annual*highRate*years),
	}
	if cam.IncludesCapex {
		r.CapitalItems = band(annual*capexLowShare*years, annual*capexHighShare*years)
	}
	if cam.ManagementFeePercent != nil {
		fee := *cam.ManagementFeePercent
		r.ManagementFees = band(
			annual*math.Max(fee-marketMgmtFeeHighPct, 0)/100*years,
			annual*math.Max(fee-marketMgmtFeeLowPct, 0)/100*years,
		)
	} else {
		r.ManagementFees = band(0, annual*unknownMgmtFeePct/100*years)
	}
	return r
}

// FindingsFromRollup maps a rollup onto the scorer's sub-findings.
func FindingsFromRollup(r Rollup) *Findings {
	return &Findings{
		Escalation:     r.CamEscalation,
		CapitalItems:   r.CapitalItems,
		ManagementFees: r.ManagementFees,
	}
}

func escalationRates(cam *CamNnn) (float64, float64) {
	low := CappedGrowthRate
	if cam.CamCapPercent != nil && *cam.CamCapPercent/100 < low {
		low = *cam.CamCapPercent / 100
	}
	switch {
	case cam.IsUncapped:
		return low, UncappedGrowthRate
	case cam.CamCapPercent != nil:
		return low, math.Max(low, *cam.CamCapPercent/100)
	default:
		return low, unknownCapGrowthRate
	}
}

func annualAmount(cam *CamNnn) float64 {
	if cam.AnnualAmount != nil {
		return *cam.AnnualAmount
	}
	if cam.MonthlyAmount != nil {
		return *cam.MonthlyAmount * 12
	}
	return 0
}

func band(low, high float64) Range {
	return Range{Low: math.Round(low), High: math.Round(high)}.Ordered()
}
