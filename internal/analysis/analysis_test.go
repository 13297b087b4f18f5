package analysis

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelkehle/lease-audit/internal/lease"
)

func TestAnalyzeEmptyText(t *testing.T) {
	r := Analyze("")

	assert.Equal(t, lease.Facts{}, r.Facts)
	require.NotNil(t, r.RentSchedule)
	assert.Empty(t, r.RentSchedule)
	assert.Nil(t, r.CamNnn)
	assert.Equal(t, 100, r.Health.Score)
	assert.Empty(t, r.Health.Flags)
	assert.Equal(t, lease.RiskHigh, r.RiskLevel)
	assert.True(t, r.InsufficientData())
	assert.False(t, r.HasFindings())
}

func TestAnalyzeRentScheduleExample(t *testing.T) {
	r := Analyze("Base Rent: $5,000 per month. The rent increases by 3% annually. The lease has a term of 36 months.")

	require.Len(t, r.RentSchedule, 3)
	assert.Equal(t, 60000.0, r.RentSchedule[0].AnnualRent)
	assert.Equal(t, 61800.0, r.RentSchedule[1].AnnualRent)
	assert.Equal(t, 63654.0, r.RentSchedule[2].AnnualRent)
}

func TestAnalyzeCamExposureExample(t *testing.T) {
	r := Analyze("Term of 12 months. Tenant pays CAM charges of $2,000 per month, which are uncapped.")

	require.NotNil(t, r.CamNnn)
	require.NotNil(t, r.CamNnn.TotalExposure)
	assert.Equal(t, 24000.0, *r.CamNnn.TotalExposure)
	assert.Equal(t, 1440.0, *r.CamNnn.EscalationExposure)
	assert.Equal(t, 25440.0, r.CamTotalAvoidableExposure)
	assert.Equal(t, lease.HealthScored, r.Health.Status)

	total := r.Rollup.Total()
	assert.LessOrEqual(t, total.Low, total.High)
}

func TestAnalyzeNoRentMeansEmptySchedule(t *testing.T) {
	for _, text := range []string{
		"Tenant: Acme LLC. The lease has a term of 24 months.",
		"CAM charges of $100 per month.",
		"lorem ipsum dolor sit amet",
	} {
		r := Analyze(text)
		require.NotNil(t, r.RentSchedule, text)
		assert.Empty(t, r.RentSchedule, text)
	}
}

func TestResultJSONKeys(t *testing.T) {
	data, err := json.Marshal(Analyze(""))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for _, k := range []string{
		"tenant", "landlord", "premises", "lease_start", "lease_end", "term_months",
		"rent", "rent_schedule", "cam_nnn", "cam_total_avoidable_exposure", "health", "risk_level",
	} {
		assert.Contains(t, m, k)
	}
	assert.Nil(t, m["tenant"])
	assert.Equal(t, []any{}, m["rent_schedule"])
	assert.Equal(t, "HIGH", m["risk_level"])
	health := m["health"].(map[string]any)
	assert.Equal(t, []any{}, health["flags"])
}

func TestBuildMarkdown(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	empty := BuildMarkdown(Analyze(""), "a1", at)
	assert.Contains(t, empty, "No significant findings")
	assert.Contains(t, empty, "insufficient data")
	assert.Contains(t, empty, "2026-03-01T12:00:00Z")

	r := Analyze("Tenant: Acme LLC. Base Rent: $5,000 per month, increases by 3% annually. Term of 24 months. CAM of $1,000 per month, no cap, pro rata share.")
	md := BuildMarkdown(r, "a2", at)
	assert.Contains(t, md, "| Tenant | Acme LLC |")
	assert.Contains(t, md, "CAM/NNN charges are uncapped")
	assert.Contains(t, md, "## Rent Schedule")
	assert.Contains(t, md, "| 2 | $61,800 | $5,150 |")
	assert.False(t, strings.Contains(md, "No significant findings"))
}

func TestFormatMoney(t *testing.T) {
	cases := map[float64]string{
		0:         "$0",
		5000:      "$5,000",
		63654:     "$63,654",
		3333.33:   "$3,333.33",
		1234567.5: "$1,234,567.50",
		-250:      "-$250",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatMoney(in), "%v", in)
	}
}
