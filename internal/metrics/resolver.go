package metrics

import (
	"math"

	"github.com/AbdouB/dialogue/internal/models"
)

type seriesFunc func(d *models.DerivedMetrics) models.Series

type scalarFunc func(d *models.DerivedMetrics) *float64

// derivedSeries maps derived metric keys (path without year) to their series
var derivedSeries = map[string]seriesFunc{
	"renewableShare":                  func(d *models.DerivedMetrics) models.Series { return d.RenewableShare },
	"fossilShare":                     func(d *models.DerivedMetrics) models.Series { return d.FossilShare },
	"jobs.construction":               func(d *models.DerivedMetrics) models.Series { return d.Jobs.Construction },
	"jobs.operations":                 func(d *models.DerivedMetrics) models.Series { return d.Jobs.Operations },
	"jobs.total":                      func(d *models.DerivedMetrics) models.Series { return d.Jobs.Total },
	"landUse.totalNewLand":            func(d *models.DerivedMetrics) models.Series { return d.LandUse.TotalNewLand },
	"emissions.absolute":              func(d *models.DerivedMetrics) models.Series { return d.Emissions.Absolute },
	"emissions.reductionPercent":      func(d *models.DerivedMetrics) models.Series { return d.Emissions.ReductionPercent },
	"capacity.totalInstalled":         func(d *models.DerivedMetrics) models.Series { return d.Capacity.TotalInstalled },
	"capacity.variableRenewableShare": func(d *models.DerivedMetrics) models.Series { return d.Capacity.VariableRenewableShare },
	"investment.totalCumulative":      func(d *models.DerivedMetrics) models.Series { return d.Investment.TotalCumulative },
}

// derivedScalars are derived metrics that carry no year
var derivedScalars = map[string]scalarFunc{
	"investment.annualPeak":    func(d *models.DerivedMetrics) *float64 { return d.Investment.AnnualPeak },
	"investment.averageAnnual": func(d *models.DerivedMetrics) *float64 { return d.Investment.AverageAnnual },
}

type scenarioSeriesFunc func(s *models.Scenario) models.Series

// scenarioSeries maps fixed scenario keys to their series
var scenarioSeries = map[string]scenarioSeriesFunc{
	"supply.emissions":             func(s *models.Scenario) models.Series { return s.Supply.Emissions },
	"supply.investment.annual":     func(s *models.Scenario) models.Series { return s.Supply.Investment.Annual },
	"supply.investment.cumulative": func(s *models.Scenario) models.Series { return s.Supply.Investment.Cumulative },
	"demand.total":                 func(s *models.Scenario) models.Series { return s.Demand.Total },
	"demand.peak":                  func(s *models.Scenario) models.Series { return s.Demand.Peak },
}

// Resolve returns the value of a metric path. Derived metrics are tried
// first, then the scenario's own series, then aggregates computed from the
// scenario, and finally the scenario's supplementary indicators.
// Unresolvable paths, nil inputs and non-finite values yield ok == false.
func Resolve(s *models.Scenario, d *models.DerivedMetrics, path string) (float64, bool) {
	p, err := ParsePath(path)
	if err != nil {
		return 0, false
	}

	if v, ok := resolveDerived(d, p); ok {
		return v, true
	}
	if v, ok := resolveScenario(s, p); ok {
		return v, true
	}
	if v, ok := resolveComputed(s, p); ok {
		return v, true
	}
	if s != nil {
		if v, ok := s.Indicators[path]; ok && finite(v) {
			return v, true
		}
	}
	return 0, false
}

// GetMetricValue is Resolve returning nil when the path does not resolve,
// for callers that display raw values
func GetMetricValue(s *models.Scenario, d *models.DerivedMetrics, path string) *float64 {
	v, ok := Resolve(s, d, path)
	if !ok {
		return nil
	}
	return &v
}

// BuildIndicators pre-resolves paths into a map holding only resolvable ones
func BuildIndicators(s *models.Scenario, d *models.DerivedMetrics, paths []string) map[string]float64 {
	indicators := make(map[string]float64, len(paths))
	for _, path := range paths {
		if v, ok := Resolve(s, d, path); ok {
			indicators[path] = v
		}
	}
	return indicators
}

func resolveDerived(d *models.DerivedMetrics, p Path) (float64, bool) {
	if d == nil {
		return 0, false
	}
	key := p.Key()
	year, hasYear := p.Year()

	if !hasYear {
		if fn, ok := derivedScalars[key]; ok {
			if v := fn(d); v != nil && finite(*v) {
				return *v, true
			}
		}
		return 0, false
	}

	if fn, ok := derivedSeries[key]; ok {
		return seriesValue(fn(d), year)
	}

	// landUse.byTechnology.<tech>
	if seg := p.key; len(seg) == 3 && seg[0] == "landUse" && seg[1] == "byTechnology" {
		return seriesValue(d.LandUse.ByTechnology[models.Technology(seg[2])], year)
	}
	return 0, false
}

func resolveScenario(s *models.Scenario, p Path) (float64, bool) {
	if s == nil {
		return 0, false
	}
	year, hasYear := p.Year()
	if !hasYear {
		return 0, false
	}
	if fn, ok := scenarioSeries[p.Key()]; ok {
		return seriesValue(fn(s), year)
	}

	seg := p.key
	if len(seg) != 3 {
		return 0, false
	}
	switch {
	case seg[0] == "supply" && seg[1] == "capacity" && models.IsTechnology(seg[2]):
		return seriesValue(s.Supply.Capacity[models.Technology(seg[2])], year)
	case seg[0] == "supply" && seg[1] == "generation" && models.IsTechnology(seg[2]):
		return seriesValue(s.Supply.Generation[models.Technology(seg[2])], year)
	case seg[0] == "demand" && seg[1] == "bySector" && models.IsSector(seg[2]):
		return seriesValue(s.Demand.BySector[models.Sector(seg[2])], year)
	}
	return 0, false
}

func seriesValue(series models.Series, year int) (float64, bool) {
	v, ok := series.At(year)
	if !ok || !finite(v) {
		return 0, false
	}
	return v, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
