package lease

type Frequency string

const (
	FrequencyMonthly Frequency = "monthly"
	FrequencyAnnual  Frequency = "annual"
)

type EscalationType string

const (
	EscalationFixedPercent EscalationType = "fixed_percent"
	EscalationFixedAmount  EscalationType = "fixed_amount"
	EscalationCPI          EscalationType = "cpi"
	EscalationNone         EscalationType = "none"
)

type Interval string

const IntervalAnnual Interval = "annual"

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

type HealthStatus string

const (
	HealthScored           HealthStatus = "scored"
	HealthInsufficientData HealthStatus = "insufficient_data"
)

// Facts are the party, premises and term fields of a lease. Every field is
// optional; nil means no pattern matched.
type Facts struct {
	Tenant     *string `json:"tenant"`
	Landlord   *string `json:"landlord"`
	Premises   *string `json:"premises"`
	LeaseStart *string `json:"lease_start"`
	LeaseEnd   *string `json:"lease_end"`
	TermMonths *int    `json:"term_months"`
}

// Rent describes base rent and its escalation rule. EscalationValue is only
// set when EscalationType is not none.
type Rent struct {
	BaseRent           *float64       `json:"base_rent"`
	Frequency          *Frequency     `json:"frequency"`
	EscalationType     EscalationType `json:"escalation_type"`
	EscalationValue    *float64       `json:"escalation_value"`
	EscalationInterval *Interval      `json:"escalation_interval"`
}

type RentScheduleRow struct {
	Year        int     `json:"year"`
	AnnualRent  float64 `json:"annual_rent"`
	MonthlyRent float64 `json:"monthly_rent"`
}

// CamNnn holds the common-area / triple-net charge terms and the modeled
// exposure derived from them.
type CamNnn struct {
	MonthlyAmount        *float64 `json:"monthly_amount"`
	AnnualAmount         *float64 `json:"annual_amount"`
	TotalExposure        *float64 `json:"total_exposure"`
	IsUncapped           bool     `json:"is_uncapped"`
	Reconciliation       bool     `json:"reconciliation"`
	ProRata              bool     `json:"pro_rata"`
	IncludesCapex        bool     `json:"includes_capex"`
	CamCapPercent        *float64 `json:"cam_cap_percent"`
	EscalationExposure   *float64 `json:"escalation_exposure"`
	ManagementFeePercent *float64 `json:"management_fee_percent,omitempty"`
}

type Range struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Ordered returns r with Low <= High.
func (r Range) Ordered() Range {
	if r.Low > r.High {
		return Range{Low: r.High, High: r.Low}
	}
	return r
}

func (r Range) Add(o Range) Range {
	return Range{Low: r.Low + o.Low, High: r.High + o.High}
}

func (r Range) IsZero() bool { return r.Low == 0 && r.High == 0 }

// Rollup is the three-category exposure breakdown behind the report headline.
type Rollup struct {
	CamEscalation  Range `json:"camEscalation"`
	CapitalItems   Range `json:"capitalItems"`
	ManagementFees Range `json:"managementFees"`
}

// Total is the element-wise sum of the three categories.
func (r Rollup) Total() Range {
	return r.CamEscalation.Add(r.CapitalItems).Add(r.ManagementFees)
}

type HealthFlag struct {
	Code            string   `json:"code"`
	Label           string   `json:"label"`
	Severity        Severity `json:"severity"`
	Recommendation  string   `json:"recommendation"`
	EstimatedImpact *Range   `json:"estimated_impact,omitempty"`
	Points          int      `json:"points"`
}

type FindingCategory string

const (
	CategoryEscalation     FindingCategory = "escalation"
	CategoryCapitalItems   FindingCategory = "capital_items"
	CategoryManagementFees FindingCategory = "management_fees"
)

type StructuredFinding struct {
	Category FindingCategory `json:"category"`
	Label    string          `json:"label"`
	Range    Range           `json:"range"`
	Severity Severity        `json:"severity"`
}

// Findings are the optional low/high sub-findings fed to the scorer.
type Findings struct {
	Escalation     Range
	CapitalItems   Range
	ManagementFees Range
}

type Health struct {
	Score    int                 `json:"score"`
	Status   HealthStatus        `json:"status"`
	Flags    []HealthFlag        `json:"flags"`
	Findings []StructuredFinding `json:"findings"`
}
