package metrics

import (
	"math"

	"github.com/AbdouB/dialogue/internal/models"
)

// capacityGroups are aggregate capacity keys under supply.capacity
var capacityGroups = map[string][]models.Technology{
	"total":      installedTechnologies(),
	"renewables": models.RenewableTechnologies,
	"fossil":     models.FossilTechnologies,
	"variable":   models.VariableTechnologies,
	"storage":    {models.TechBattery},
}

// installedTechnologies is every technology except interconnectors,
// which import power rather than generate it
func installedTechnologies() []models.Technology {
	var techs []models.Technology
	for _, t := range models.Technologies {
		if t != models.TechInterconnector {
			techs = append(techs, t)
		}
	}
	return techs
}

func resolveComputed(s *models.Scenario, p Path) (float64, bool) {
	if s == nil {
		return 0, false
	}
	seg := p.key
	year, hasYear := p.Year()

	switch {
	case hasYear && len(seg) == 3 && seg[0] == "supply" && seg[1] == "capacity":
		techs, ok := capacityGroups[seg[2]]
		if !ok {
			return 0, false
		}
		return SumCapacity(s, techs, year)

	case !hasYear && len(seg) == 4 && seg[0] == "supply" && seg[1] == "capacity" && models.IsTechnology(seg[2]):
		series := s.Supply.Capacity[models.Technology(seg[2])]
		switch seg[3] {
		case "CAGR":
			return CAGR(series)
		case "retirementRate":
			return RetirementRate(series)
		}

	case !hasYear && p.Key() == "supply.investment.annual.yearOverYearGrowth":
		return PeakGrowth(s.Supply.Investment.Annual)
	}
	return 0, false
}

// SumCapacity adds the capacity of techs in a year. It resolves only when
// at least one of them reports a value for that year.
func SumCapacity(s *models.Scenario, techs []models.Technology, year int) (float64, bool) {
	var total float64
	found := false
	for _, t := range techs {
		if v, ok := seriesValue(s.Supply.Capacity[t], year); ok {
			total += v
			found = true
		}
	}
	return total, found
}

// CAGR is the compound annual growth rate in percent between the first
// and last year of a series. The first value must be positive.
func CAGR(series models.Series) (float64, bool) {
	y0, v0, ok := series.First()
	if !ok {
		return 0, false
	}
	y1, v1, _ := series.Last()
	if y1 <= y0 || v0 <= 0 || v1 < 0 {
		return 0, false
	}
	rate := (math.Pow(v1/v0, 1/float64(y1-y0)) - 1) * 100
	return rate, finite(rate)
}

// RetirementRate is the average share of first-year capacity retired per
// year, in percent. Growing series retire nothing.
func RetirementRate(series models.Series) (float64, bool) {
	y0, v0, ok := series.First()
	if !ok {
		return 0, false
	}
	y1, v1, _ := series.Last()
	if y1 <= y0 || v0 <= 0 {
		return 0, false
	}
	if v1 >= v0 {
		return 0, true
	}
	return (v0 - v1) / v0 / float64(y1-y0) * 100, true
}

// PeakGrowth is the largest annualised growth in percent between
// consecutive entries of a series
func PeakGrowth(series models.Series) (float64, bool) {
	years := series.Years()
	best, found := 0.0, false
	for i := 1; i < len(years); i++ {
		prev, cur := series[years[i-1]], series[years[i]]
		if prev <= 0 || cur < 0 {
			continue
		}
		growth := (math.Pow(cur/prev, 1/float64(years[i]-years[i-1])) - 1) * 100
		if !finite(growth) {
			continue
		}
		if !found || growth > best {
			best, found = growth, true
		}
	}
	return best, found
}
