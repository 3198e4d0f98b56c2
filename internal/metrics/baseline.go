package metrics

import (
	"math"

	"github.com/AbdouB/dialogue/internal/models"
)

// Coal capacity above this many MW still counts as operating
const coalOperatingMW = 10

// Baseline reads the adjustable targets off a scenario: the renewable
// capacity share in 2030 and 2040, rounded to whole percent, and the
// estimated coal phaseout year.
func Baseline(s *models.Scenario) models.AdjustmentState {
	if s == nil {
		return models.AdjustmentState{}
	}
	return models.AdjustmentState{
		REShare2030:  capacityShare(s, 2030),
		REShare2040:  capacityShare(s, 2040),
		CoalPhaseout: float64(CoalPhaseout(s)),
	}
}

func capacityShare(s *models.Scenario, year int) float64 {
	total, _ := SumCapacity(s, installedTechnologies(), year)
	if total <= 0 {
		return 0
	}
	renewable, _ := SumCapacity(s, models.RenewableTechnologies, year)
	return math.Round(renewable / total * 100)
}

// CoalPhaseout estimates when coal leaves the mix: five years after the
// last milestone with coal still operating, capped at 2050. Without any
// operating coal it is the first milestone year.
func CoalPhaseout(s *models.Scenario) int {
	years := s.MilestoneYears
	for i := len(years) - 1; i >= 0; i-- {
		v, _ := seriesValue(s.Supply.Capacity[models.TechCoal], years[i])
		if v > coalOperatingMW {
			if years[i] < 2050 {
				return years[i] + 5
			}
			return 2050
		}
	}
	if len(years) == 0 {
		return 0
	}
	return years[0]
}
