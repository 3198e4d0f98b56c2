package metrics

import (
	"math"

	"github.com/AbdouB/dialogue/internal/models"
)

// Job factors per MW installed. Construction is in job-years, operations
// in permanent jobs. Approximations for discussion, not forecasts.
var (
	constructionJobs = map[models.Technology]float64{
		models.TechSolarPV: 10, models.TechWind: 8, models.TechHydro: 12, models.TechBattery: 3,
		models.TechGeothermal: 6, models.TechBiomass: 8, models.TechCoal: 4, models.TechNaturalGas: 4,
		models.TechDiesel: 3, models.TechHFO: 3, models.TechNuclear: 10, models.TechInterconnector: 5,
	}
	operationsJobs = map[models.Technology]float64{
		models.TechSolarPV: 0.3, models.TechWind: 0.4, models.TechHydro: 0.5, models.TechBattery: 0.1,
		models.TechGeothermal: 0.6, models.TechBiomass: 1.0, models.TechCoal: 0.8, models.TechNaturalGas: 0.8,
		models.TechDiesel: 0.5, models.TechHFO: 0.5, models.TechNuclear: 0.7, models.TechInterconnector: 0.05,
	}
)

// landFactors are hectares per MW for technologies with a generalisable footprint
var landFactors = map[models.Technology]float64{
	models.TechSolarPV: 2.0,
	models.TechWind:    0.3,
	models.TechBattery: 0.1,
}

// emissionFactors are combustion emissions in t CO2 per GWh
var emissionFactors = map[models.Technology]float64{
	models.TechCoal:       900,
	models.TechNaturalGas: 400,
	models.TechDiesel:     700,
	models.TechHFO:        650,
}

// Investment cost estimates in million USD per MW added, used when the
// scenario carries no investment series
const (
	renewableCostPerMW = 1.5
	fossilCostPerMW    = 1.0
	storageCostPerMW   = 2.0
)

// Derive computes derived metrics for every milestone year of a scenario.
// Years without the underlying data are left out of the series.
func Derive(s *models.Scenario) *models.DerivedMetrics {
	d := &models.DerivedMetrics{
		RenewableShare: models.Series{},
		FossilShare:    models.Series{},
		Jobs: models.Jobs{
			Construction: models.Series{},
			Operations:   models.Series{},
			Total:        models.Series{},
		},
		LandUse: models.LandUse{
			TotalNewLand: models.Series{},
			ByTechnology: map[models.Technology]models.Series{},
		},
		Emissions: models.EmissionsMetrics{
			Absolute:         models.Series{},
			ReductionPercent: models.Series{},
		},
		Capacity: models.CapacityMetrics{
			TotalInstalled:         models.Series{},
			VariableRenewableShare: models.Series{},
		},
		Investment: models.InvestmentMetrics{TotalCumulative: models.Series{}},
	}
	if s == nil {
		return d
	}

	years := s.Years()
	for i, year := range years {
		deriveShares(s, d, year)
		deriveCapacity(s, d, year)
		deriveLand(s, d, year)
		prev := 0
		if i > 0 {
			prev = years[i-1]
		}
		deriveJobs(s, d, year, prev)
		deriveEmissions(s, d, year)
	}
	deriveReductions(d)
	deriveInvestment(s, d, years)
	return d
}

func deriveShares(s *models.Scenario, d *models.DerivedMetrics, year int) {
	// generation shares are preferred, capacity shares are the fallback
	re, reOK := sumSeries(s.Supply.Generation, models.RenewableTechnologies, year)
	fossil, fossilOK := sumSeries(s.Supply.Generation, models.FossilTechnologies, year)
	total, totalOK := sumSeries(s.Supply.Generation, generatingTechnologies(), year)
	if !totalOK || total <= 0 {
		re, reOK = sumSeries(s.Supply.Capacity, models.RenewableTechnologies, year)
		fossil, fossilOK = sumSeries(s.Supply.Capacity, models.FossilTechnologies, year)
		total, totalOK = sumSeries(s.Supply.Capacity, generatingTechnologies(), year)
	}
	if !totalOK || total <= 0 {
		return
	}
	if reOK {
		d.RenewableShare[year] = round1(re / total * 100)
	}
	if fossilOK {
		d.FossilShare[year] = round1(fossil / total * 100)
	}
}

func deriveCapacity(s *models.Scenario, d *models.DerivedMetrics, year int) {
	installed, ok := sumSeries(s.Supply.Capacity, installedTechnologies(), year)
	if !ok {
		return
	}
	d.Capacity.TotalInstalled[year] = installed

	generating, _ := sumSeries(s.Supply.Capacity, generatingTechnologies(), year)
	if generating > 0 {
		variable, _ := sumSeries(s.Supply.Capacity, models.VariableTechnologies, year)
		d.Capacity.VariableRenewableShare[year] = round1(variable / generating * 100)
	}
}

func deriveLand(s *models.Scenario, d *models.DerivedMetrics, year int) {
	var total float64
	found := false
	for _, tech := range []models.Technology{models.TechSolarPV, models.TechWind, models.TechBattery} {
		mw, ok := seriesValue(s.Supply.Capacity[tech], year)
		if !ok {
			continue
		}
		hectares := mw * landFactors[tech]
		if d.LandUse.ByTechnology[tech] == nil {
			d.LandUse.ByTechnology[tech] = models.Series{}
		}
		d.LandUse.ByTechnology[tech][year] = hectares
		total += hectares
		found = true
	}
	if found {
		d.LandUse.TotalNewLand[year] = total
	}
}

// deriveJobs counts construction job-years for capacity added since the
// previous milestone (all capacity for the first one) and permanent jobs
// for all installed capacity
func deriveJobs(s *models.Scenario, d *models.DerivedMetrics, year, prev int) {
	var construction, operations float64
	found := false
	for _, tech := range models.Technologies {
		mw, ok := seriesValue(s.Supply.Capacity[tech], year)
		if !ok {
			continue
		}
		found = true
		added := mw
		if prev != 0 {
			before, _ := seriesValue(s.Supply.Capacity[tech], prev)
			added = math.Max(0, mw-before)
		}
		construction += added * constructionJobs[tech]
		operations += mw * operationsJobs[tech]
	}
	if !found {
		return
	}
	d.Jobs.Construction[year] = math.Round(construction)
	d.Jobs.Operations[year] = math.Round(operations)
	d.Jobs.Total[year] = math.Round(construction + operations)
}

func deriveEmissions(s *models.Scenario, d *models.DerivedMetrics, year int) {
	if v, ok := seriesValue(s.Supply.Emissions, year); ok {
		d.Emissions.Absolute[year] = v
		return
	}
	// estimate from fossil generation, t CO2 to Mt CO2
	var tonnes float64
	found := false
	for tech, factor := range emissionFactors {
		if gwh, ok := seriesValue(s.Supply.Generation[tech], year); ok {
			tonnes += gwh * factor
			found = true
		}
	}
	if found {
		d.Emissions.Absolute[year] = tonnes / 1e6
	}
}

// deriveReductions expresses emissions relative to the first year
func deriveReductions(d *models.DerivedMetrics) {
	_, base, ok := d.Emissions.Absolute.First()
	if !ok || base <= 0 {
		return
	}
	for year, v := range d.Emissions.Absolute {
		d.Emissions.ReductionPercent[year] = round1((base - v) / base * 100)
	}
}

func deriveInvestment(s *models.Scenario, d *models.DerivedMetrics, years []int) {
	annual := s.Supply.Investment.Annual
	cumulative := s.Supply.Investment.Cumulative

	if len(annual) == 0 && len(cumulative) == 0 {
		annual, cumulative = estimateInvestment(s, years)
	}

	if len(cumulative) > 0 {
		for y, v := range cumulative {
			if finite(v) {
				d.Investment.TotalCumulative[y] = v
			}
		}
	} else {
		var running float64
		for _, y := range annual.Years() {
			running += annual[y]
			d.Investment.TotalCumulative[y] = running
		}
	}

	if len(annual) == 0 {
		return
	}
	var peak, sum float64
	for _, y := range annual.Years() {
		peak = math.Max(peak, annual[y])
		sum += annual[y]
	}
	avg := sum / float64(len(annual))
	d.Investment.AnnualPeak = &peak
	d.Investment.AverageAnnual = &avg
}

// estimateInvestment prices capacity additions between milestones and
// spreads each period's cost evenly over its years
func estimateInvestment(s *models.Scenario, years []int) (annual, cumulative models.Series) {
	annual, cumulative = models.Series{}, models.Series{}
	var running float64
	for i := 1; i < len(years); i++ {
		prev, year := years[i-1], years[i]
		var cost float64
		for _, tech := range models.Technologies {
			now, ok := seriesValue(s.Supply.Capacity[tech], year)
			if !ok {
				continue
			}
			before, _ := seriesValue(s.Supply.Capacity[tech], prev)
			cost += math.Max(0, now-before) * costPerMW(tech)
		}
		running += cost
		annual[year] = cost / float64(year-prev)
		cumulative[year] = running
	}
	return annual, cumulative
}

func costPerMW(tech models.Technology) float64 {
	switch {
	case tech == models.TechBattery:
		return storageCostPerMW
	case containsTech(models.RenewableTechnologies, tech):
		return renewableCostPerMW
	case containsTech(models.FossilTechnologies, tech):
		return fossilCostPerMW
	}
	return fossilCostPerMW
}

// generatingTechnologies excludes storage and imports
func generatingTechnologies() []models.Technology {
	var techs []models.Technology
	for _, t := range models.Technologies {
		if t != models.TechBattery && t != models.TechInterconnector {
			techs = append(techs, t)
		}
	}
	return techs
}

func sumSeries(m map[models.Technology]models.Series, techs []models.Technology, year int) (float64, bool) {
	var total float64
	found := false
	for _, t := range techs {
		if v, ok := seriesValue(m[t], year); ok {
			total += v
			found = true
		}
	}
	return total, found
}

func containsTech(techs []models.Technology, t models.Technology) bool {
	for _, x := range techs {
		if x == t {
			return true
		}
	}
	return false
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
