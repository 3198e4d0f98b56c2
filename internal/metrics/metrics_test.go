package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbdouB/dialogue/internal/models"
)

func sampleScenario() *models.Scenario {
	return &models.Scenario{
		Metadata:       models.ScenarioMetadata{Country: "Testland", ScenarioName: "Base"},
		MilestoneYears: []int{2030, 2040},
		Supply: models.Supply{
			Capacity: map[models.Technology]models.Series{
				models.TechSolarPV:    {2030: 1000, 2040: 3000},
				models.TechWind:       {2030: 500, 2040: 1000},
				models.TechNaturalGas: {2030: 500, 2040: 500},
				models.TechCoal:       {2030: 400, 2040: 100},
				models.TechBattery:    {2030: 100, 2040: 300},
			},
			Generation: map[models.Technology]models.Series{
				models.TechSolarPV:    {2030: 1500, 2040: 4500},
				models.TechWind:       {2030: 1000, 2040: 2000},
				models.TechNaturalGas: {2030: 2000, 2040: 1000},
				models.TechCoal:       {2030: 500, 2040: 500},
			},
			Investment: models.Investment{
				Annual: models.Series{2030: 400, 2040: 800},
			},
		},
		Indicators: map[string]float64{
			"investment.privateSectorShare": 35,
		},
	}
}

func TestParsePath(t *testing.T) {
	p, err := ParsePath("supply.capacity.solarPV.2030")
	require.NoError(t, err)
	assert.Equal(t, "supply.capacity.solarPV", p.Key())
	year, ok := p.Year()
	assert.True(t, ok)
	assert.Equal(t, 2030, year)

	p, err = ParsePath("investment.privateSectorShare")
	require.NoError(t, err)
	_, ok = p.Year()
	assert.False(t, ok)

	for _, bad := range []string{"", ".", "a..b", "supply.capacity.solar-pv.2030", "a b"} {
		_, err := ParsePath(bad)
		assert.ErrorIs(t, err, ErrInvalidPath, bad)
	}
}

func TestResolveUnknownPathIsAbsent(t *testing.T) {
	s := sampleScenario()
	d := Derive(s)

	_, ok := Resolve(s, d, "invalid.path.2030")
	assert.False(t, ok)
	assert.Nil(t, GetMetricValue(s, d, "invalid.path.2030"))
	assert.Nil(t, GetMetricValue(nil, nil, "renewableShare.2030"))
	assert.Nil(t, GetMetricValue(s, d, "renewableShare.2099"))
}

func TestResolveOrder(t *testing.T) {
	s := sampleScenario()
	// an indicator with the same path as a derived metric loses to the derived value
	s.Indicators["renewableShare.2030"] = 1
	d := Derive(s)

	v, ok := Resolve(s, d, "renewableShare.2030")
	require.True(t, ok)
	assert.Equal(t, 50.0, v)

	v, ok = Resolve(s, d, "supply.capacity.solarPV.2040")
	require.True(t, ok)
	assert.Equal(t, 3000.0, v)

	v, ok = Resolve(s, d, "investment.privateSectorShare")
	require.True(t, ok)
	assert.Equal(t, 35.0, v)
}

func TestResolveIgnoresNonFinite(t *testing.T) {
	s := sampleScenario()
	s.Supply.Capacity[models.TechHydro] = models.Series{2030: math.NaN()}
	s.Indicators["bad.indicator"] = math.Inf(1)

	_, ok := Resolve(s, nil, "supply.capacity.hydro.2030")
	assert.False(t, ok)
	_, ok = Resolve(s, nil, "bad.indicator")
	assert.False(t, ok)
}

func TestComputedAggregates(t *testing.T) {
	s := sampleScenario()

	tests := []struct {
		path string
		want float64
	}{
		{"supply.capacity.total.2030", 2500},
		{"supply.capacity.renewables.2040", 4000},
		{"supply.capacity.fossil.2040", 600},
		{"supply.capacity.variable.2030", 1500},
		{"supply.capacity.storage.2040", 300},
		{"supply.capacity.coal.retirementRate", 7.5},
		{"supply.capacity.naturalGas.retirementRate", 0},
		{"supply.investment.annual.yearOverYearGrowth", (math.Pow(2, 0.1) - 1) * 100},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			v, ok := Resolve(s, nil, tt.path)
			require.True(t, ok)
			assert.InDelta(t, tt.want, v, 1e-9)
		})
	}

	_, ok := Resolve(s, nil, "supply.capacity.unicorns.2030")
	assert.False(t, ok)
}

func TestCAGR(t *testing.T) {
	v, ok := CAGR(models.Series{2020: 100, 2030: 200})
	require.True(t, ok)
	assert.InDelta(t, 7.177, v, 0.001)

	_, ok = CAGR(models.Series{2020: 0, 2030: 200})
	assert.False(t, ok)
	_, ok = CAGR(models.Series{2030: 200})
	assert.False(t, ok)
	_, ok = CAGR(nil)
	assert.False(t, ok)
}

func TestBuildIndicators(t *testing.T) {
	s := sampleScenario()
	d := Derive(s)

	got := BuildIndicators(s, d, []string{"renewableShare.2040", "nope.2030", "investment.privateSectorShare"})
	assert.Len(t, got, 2)
	assert.Contains(t, got, "renewableShare.2040")
	assert.NotContains(t, got, "nope.2030")
}

func TestDerive(t *testing.T) {
	d := Derive(sampleScenario())

	// generation shares: RE 2500/5000 and 6500/8000
	assert.Equal(t, 50.0, d.RenewableShare[2030])
	assert.Equal(t, 81.3, d.RenewableShare[2040])
	assert.Equal(t, 50.0, d.FossilShare[2030])

	// battery counts as installed, not as generating capacity
	assert.Equal(t, 2500.0, d.Capacity.TotalInstalled[2030])
	assert.Equal(t, 62.5, d.Capacity.VariableRenewableShare[2030])

	// land: solar 1000*2 + wind 500*0.3 + battery 100*0.1
	assert.InDelta(t, 2160, d.LandUse.TotalNewLand[2030], 1e-9)
	assert.InDelta(t, 2000, d.LandUse.ByTechnology[models.TechSolarPV][2030], 1e-9)

	// 2040 construction counts additions only: solar 2000*10 + wind 500*8 + battery 200*3
	assert.Equal(t, 24600.0, d.Jobs.Construction[2040])
	assert.Equal(t, d.Jobs.Construction[2040]+d.Jobs.Operations[2040], d.Jobs.Total[2040])

	// emissions from fossil generation: gas 2000*400 + coal 500*900 t
	assert.InDelta(t, 1.25, d.Emissions.Absolute[2030], 1e-9)
	assert.InDelta(t, 0.85, d.Emissions.Absolute[2040], 1e-9)
	assert.Equal(t, 32.0, d.Emissions.ReductionPercent[2040])
	assert.Equal(t, 0.0, d.Emissions.ReductionPercent[2030])

	assert.Equal(t, 1200.0, d.Investment.TotalCumulative[2040])
	require.NotNil(t, d.Investment.AnnualPeak)
	assert.Equal(t, 800.0, *d.Investment.AnnualPeak)
	assert.Equal(t, 600.0, *d.Investment.AverageAnnual)
}

func TestDeriveEstimatesInvestment(t *testing.T) {
	s := sampleScenario()
	s.Supply.Investment = models.Investment{}

	d := Derive(s)

	// additions 2030->2040: solar 2000 + wind 500 at 1.5, battery 200 at 2.0
	assert.InDelta(t, 4150, d.Investment.TotalCumulative[2040], 1e-9)
	require.NotNil(t, d.Investment.AverageAnnual)
	assert.InDelta(t, 415, *d.Investment.AverageAnnual, 1e-9)
}

func TestDeriveNilScenario(t *testing.T) {
	d := Derive(nil)
	require.NotNil(t, d)
	assert.Empty(t, d.RenewableShare)
}

func TestBaseline(t *testing.T) {
	s := sampleScenario()
	assert.Equal(t, models.AdjustmentState{REShare2030: 60, REShare2040: 82, CoalPhaseout: 2045}, Baseline(s))

	s.Supply.Capacity[models.TechCoal] = models.Series{2030: 400, 2040: 5}
	assert.Equal(t, 2035, CoalPhaseout(s))

	delete(s.Supply.Capacity, models.TechCoal)
	assert.Equal(t, 2030, CoalPhaseout(s))

	s.MilestoneYears = []int{2030, 2050}
	s.Supply.Capacity[models.TechCoal] = models.Series{2050: 50}
	assert.Equal(t, 2050, CoalPhaseout(s))

	s.MilestoneYears = nil
	assert.Zero(t, CoalPhaseout(s))
	assert.Equal(t, models.AdjustmentState{}, Baseline(nil))
}

func TestBaselineWithoutCapacity(t *testing.T) {
	s := &models.Scenario{MilestoneYears: []int{2030}}
	got := Baseline(s)
	assert.Zero(t, got.REShare2030)
	assert.Zero(t, got.REShare2040)
	assert.Equal(t, 2030.0, got.CoalPhaseout)
}
