package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelkehle/lease-audit/internal/lease"
)

const sampleLease = `COMMERCIAL LEASE AGREEMENT

This Lease is made by and between Harbor Point Properties LLC, a Delaware limited
liability company ("Landlord") and Blue Finch Coffee Co. ("Tenant").

Premises: 1200 Harbor Way, Suite 4, Portland, OR.
The Commencement Date shall be January 1, 2024 and the Lease shall expire on December 31, 2026.
The lease has a term of thirty-six (36) months.

Base Rent: $5,000 per month, payable in advance. Base Rent increases by 3% annually.

Tenant shall pay its pro rata share of Common Area Maintenance (CAM) charges,
estimated at $2,000 per month. CAM charges are not subject to any cap and include
capital improvements to the Building. Landlord may charge a management fee of 6% of
operating expenses.`

func TestExtractSampleLease(t *testing.T) {
	got := Extract(sampleLease)

	require.NotNil(t, got.Facts.Tenant)
	assert.Equal(t, "Blue Finch Coffee Co.", *got.Facts.Tenant)
	require.NotNil(t, got.Facts.Landlord)
	assert.Equal(t, "Harbor Point Properties LLC", *got.Facts.Landlord)
	require.NotNil(t, got.Facts.Premises)
	assert.Equal(t, "1200 Harbor Way, Suite 4, Portland, OR", *got.Facts.Premises)
	require.NotNil(t, got.Facts.LeaseStart)
	assert.Equal(t, "2024-01-01", *got.Facts.LeaseStart)
	require.NotNil(t, got.Facts.LeaseEnd)
	assert.Equal(t, "2026-12-31", *got.Facts.LeaseEnd)
	require.NotNil(t, got.Facts.TermMonths)
	assert.Equal(t, 36, *got.Facts.TermMonths)

	require.NotNil(t, got.Rent.BaseRent)
	assert.Equal(t, 5000.0, *got.Rent.BaseRent)
	require.NotNil(t, got.Rent.Frequency)
	assert.Equal(t, lease.FrequencyMonthly, *got.Rent.Frequency)
	assert.Equal(t, lease.EscalationFixedPercent, got.Rent.EscalationType)
	require.NotNil(t, got.Rent.EscalationValue)
	assert.Equal(t, 3.0, *got.Rent.EscalationValue)
	require.NotNil(t, got.Rent.EscalationInterval)
	assert.Equal(t, lease.IntervalAnnual, *got.Rent.EscalationInterval)

	require.NotNil(t, got.Cam)
	require.NotNil(t, got.Cam.MonthlyAmount)
	assert.Equal(t, 2000.0, *got.Cam.MonthlyAmount)
	assert.True(t, got.Cam.IsUncapped)
	assert.True(t, got.Cam.ProRata)
	assert.True(t, got.Cam.IncludesCapex)
	assert.False(t, got.Cam.Reconciliation)
	assert.Nil(t, got.Cam.CamCapPercent)
	require.NotNil(t, got.Cam.ManagementFeePercent)
	assert.Equal(t, 6.0, *got.Cam.ManagementFeePercent)
}

func TestExtractEmptyTextLeavesEverythingNil(t *testing.T) {
	for _, raw := range []string{"", "   \n\t "} {
		got := Extract(raw)
		assert.Equal(t, lease.Facts{}, got.Facts)
		assert.Nil(t, got.Rent.BaseRent)
		assert.Nil(t, got.Rent.Frequency)
		assert.Equal(t, lease.EscalationNone, got.Rent.EscalationType)
		assert.Nil(t, got.Rent.EscalationValue)
		assert.Nil(t, got.Rent.EscalationInterval)
		assert.Nil(t, got.Cam)
	}
}

func TestExtractRentOnlyExample(t *testing.T) {
	got := Extract("Base Rent: $5,000 per month. Rent increases by 3% each year.")
	require.NotNil(t, got.Rent.BaseRent)
	assert.Equal(t, 5000.0, *got.Rent.BaseRent)
	assert.Equal(t, lease.FrequencyMonthly, *got.Rent.Frequency)
	assert.Equal(t, lease.EscalationFixedPercent, got.Rent.EscalationType)
	assert.Equal(t, 3.0, *got.Rent.EscalationValue)
	assert.Nil(t, got.Cam, "no CAM language means no CAM record")
	assert.Nil(t, got.Facts.TermMonths)
}

func TestExtractAnnualRentAndFixedAmount(t *testing.T) {
	got := Extract("Annual Base Rent shall be $60,000.00 per year. On each anniversary the rent shall increase by $250 per month.")
	require.NotNil(t, got.Rent.BaseRent)
	assert.Equal(t, 60000.0, *got.Rent.BaseRent)
	assert.Equal(t, lease.FrequencyAnnual, *got.Rent.Frequency)
	assert.Equal(t, lease.EscalationFixedAmount, got.Rent.EscalationType)
	assert.Equal(t, 250.0, *got.Rent.EscalationValue)
}

func TestExtractCPIEscalation(t *testing.T) {
	got := Extract("Base Rent of $3,200 per month shall be adjusted annually based on the Consumer Price Index.")
	assert.Equal(t, lease.EscalationCPI, got.Rent.EscalationType)
	assert.Nil(t, got.Rent.EscalationValue)
	require.NotNil(t, got.Rent.EscalationInterval)
}

func TestExtractCamCapAndExclusions(t *testing.T) {
	text := `Tenant shall pay NNN charges of $1,500 per month. Increases in controllable operating
expenses shall not exceed 5% per year. Operating expenses exclude capital improvements.
Landlord shall deliver an annual reconciliation.`
	got := Extract(text)
	require.NotNil(t, got.Cam)
	require.NotNil(t, got.Cam.CamCapPercent)
	assert.Equal(t, 5.0, *got.Cam.CamCapPercent)
	assert.False(t, got.Cam.IsUncapped)
	assert.False(t, got.Cam.IncludesCapex)
	assert.True(t, got.Cam.Reconciliation)
	assert.Equal(t, 1500.0, *got.Cam.MonthlyAmount)
}

func TestExtractCamAnnualAmountIsConvertedToMonthly(t *testing.T) {
	got := Extract("Estimated CAM charges are $24,000 per year.")
	require.NotNil(t, got.Cam)
	require.NotNil(t, got.Cam.AnnualAmount)
	assert.Equal(t, 24000.0, *got.Cam.AnnualAmount)
	assert.Equal(t, 2000.0, *got.Cam.MonthlyAmount)
}

func TestExtractCamPerSquareFootIsNotMonthly(t *testing.T) {
	got := Extract("CAM is estimated at $8.50 per square foot.")
	require.NotNil(t, got.Cam)
	assert.Nil(t, got.Cam.MonthlyAmount)
}

func TestExtractTermFromYearsAndDates(t *testing.T) {
	got := Extract("The lease has a term of five (5) years.")
	require.NotNil(t, got.Facts.TermMonths)
	assert.Equal(t, 60, *got.Facts.TermMonths)

	got = Extract("This lease runs from March 1, 2023 through February 28, 2025.")
	require.NotNil(t, got.Facts.TermMonths)
	assert.Equal(t, 24, *got.Facts.TermMonths)
	assert.Equal(t, "2023-03-01", *got.Facts.LeaseStart)
	assert.Equal(t, "2025-02-28", *got.Facts.LeaseEnd)
}

func TestExtractTermYearsAndMonths(t *testing.T) {
	for text, want := range map[string]int{
		"The lease has a term of three (3) years and six (6) months.": 42,
		"Tenant accepts a 5-year and 6-month lease term.":             66,
	} {
		got := Extract(text)
		require.NotNil(t, got.Facts.TermMonths, text)
		assert.Equal(t, want, *got.Facts.TermMonths, text)
	}
}

func TestTermMonthsFromDatesUsesDayOfMonth(t *testing.T) {
	tests := []struct {
		start, end string
		want       int
	}{
		{"2025-01-15", "2025-03-03", 1},
		{"2025-01-15", "2025-03-14", 2},
		{"2025-01-15", "2025-03-15", 2},
		{"2025-01-31", "2025-02-28", 1},
		{"2024-01-01", "2028-12-31", 60},
		{"2023-03-01", "2025-02-28", 24},
	}
	for _, tt := range tests {
		got := termMonths("", &tt.start, &tt.end)
		require.NotNil(t, got, tt.start+" to "+tt.end)
		assert.Equal(t, tt.want, *got, tt.start+" to "+tt.end)
	}

	start, end := "2025-01-15", "2025-02-03"
	assert.Nil(t, termMonths("", &start, &end), "less than a month")
}

func TestFirstMatchEarlierRuleWins(t *testing.T) {
	rules := []Rule{
		capture(`first:\s*(\w+)`, 1),
		capture(`second:\s*(\w+)`, 1),
	}
	v, ok := FirstMatch("second: b first: a", rules)
	require.True(t, ok)
	assert.Equal(t, "a", v)

	_, ok = FirstMatch("nothing here", rules)
	assert.False(t, ok)
}

func TestNormalizeFoldsWhitespaceAndQuotes(t *testing.T) {
	assert.Equal(t, `Tenant: "Acme" - Suite 1`, Normalize("Tenant: “Acme”\n\n–  Suite\t1"))
	assert.Equal(t, "", Normalize(""))
}
