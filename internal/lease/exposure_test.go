package lease

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelCamExposureUncapped(t *testing.T) {
	cam := &CamNnn{MonthlyAmount: f64(2000), IsUncapped: true}
	out := ModelCamExposure(cam, intp(12))

	require.NotNil(t, out.AnnualAmount)
	require.NotNil(t, out.TotalExposure)
	require.NotNil(t, out.EscalationExposure)
	assert.Equal(t, 24000.0, *out.AnnualAmount)
	assert.Equal(t, 24000.0, *out.TotalExposure)
	assert.Equal(t, 1440.0, *out.EscalationExposure)
	assert.Equal(t, 25440.0, AvoidableExposure(out))
	assert.Nil(t, cam.TotalExposure, "input must not be mutated")
}

func TestModelCamExposureCappedUsesLowerRate(t *testing.T) {
	out := ModelCamExposure(&CamNnn{MonthlyAmount: f64(1000)}, intp(24))
	require.NotNil(t, out.EscalationExposure)
	assert.Equal(t, 24000.0, *out.TotalExposure)
	assert.Equal(t, 720.0, *out.EscalationExposure)
}

func TestModelCamExposureNilMonthlyAmount(t *testing.T) {
	out := ModelCamExposure(&CamNnn{IsUncapped: true, ProRata: true}, intp(60))
	require.NotNil(t, out)
	assert.Nil(t, out.TotalExposure)
	assert.Nil(t, out.EscalationExposure)
	assert.Zero(t, AvoidableExposure(out))
	assert.Nil(t, ModelCamExposure(nil, intp(12)))
}

func TestBuildRollupTotalsAreSums(t *testing.T) {
	cases := []*CamNnn{
		{MonthlyAmount: f64(2000), IsUncapped: true, IncludesCapex: true},
		{MonthlyAmount: f64(750), CamCapPercent: f64(5)},
		{MonthlyAmount: f64(4100), CamCapPercent: f64(2), ManagementFeePercent: f64(8)},
		{MonthlyAmount: f64(10), ManagementFeePercent: f64(1)},
		{},
	}
	for i, cam := range cases {
		r := BuildRollup(ModelCamExposure(cam, intp(60)), intp(60))
		total := r.Total()
		assert.Equal(t, r.CamEscalation.Low+r.CapitalItems.Low+r.ManagementFees.Low, total.Low, "case %d", i)
		assert.Equal(t, r.CamEscalation.High+r.CapitalItems.High+r.ManagementFees.High, total.High, "case %d", i)
		assert.LessOrEqual(t, total.Low, total.High, "case %d", i)
		for _, band := range []Range{r.CamEscalation, r.CapitalItems, r.ManagementFees} {
			assert.LessOrEqual(t, band.Low, band.High, "case %d", i)
		}
	}
}

func TestBuildRollupBands(t *testing.T) {
	cam := ModelCamExposure(&CamNnn{MonthlyAmount: f64(1000), IsUncapped: true, IncludesCapex: true, ManagementFeePercent: f64(6)}, intp(60))
	r := BuildRollup(cam, intp(60))
	// annual 12000 over 5 years
	assert.Equal(t, Range{Low: 1800, High: 3600}, r.CamEscalation)
	assert.Equal(t, Range{Low: 3000, High: 9000}, r.CapitalItems)
	assert.Equal(t, Range{Low: 600, High: 1800}, r.ManagementFees)
}

func TestBuildRollupUnknownInputsAreZero(t *testing.T) {
	assert.Equal(t, Rollup{}, BuildRollup(nil, intp(12)))
	assert.Equal(t, Rollup{}, BuildRollup(&CamNnn{IsUncapped: true}, intp(12)))
	assert.Equal(t, Rollup{}, BuildRollup(&CamNnn{MonthlyAmount: f64(100)}, nil))
}
