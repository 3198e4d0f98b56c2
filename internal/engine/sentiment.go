package engine

import (
	"math"

	"github.com/AbdouB/dialogue/internal/models"
)

// Net score breakpoints. Scores within the neutral band leave sentiment
// unchanged.
const (
	NeutralBand          = 1
	ModerateSentiment    = 3
	SignificantSentiment = 5
)

// SentimentChanges scores how every stakeholder reacts when the targets
// move from base to adjusted, in registry order
func (e *Engine) SentimentChanges(base, adjusted models.AdjustmentState) ([]models.SentimentChange, error) {
	profiles := e.reg.Stakeholders()
	out := make([]models.SentimentChange, 0, len(profiles))
	for _, p := range profiles {
		rules, err := e.reg.SentimentRules(p.ID)
		if err != nil {
			return nil, err
		}
		change := scoreSentiment(rules, base, adjusted)
		change.StakeholderID = p.ID
		change.StakeholderName = p.Name
		out = append(out, change)
	}
	return out, nil
}

func scoreSentiment(rules []models.SentimentRule, base, adjusted models.AdjustmentState) models.SentimentChange {
	values := sentimentValues(base, adjusted)
	change := models.SentimentChange{
		PositiveFactors: []string{},
		NegativeFactors: []string{},
	}
	chainFired := false
	for _, rule := range rules {
		if !rule.ElseIf {
			chainFired = false
		} else if chainFired {
			continue
		}
		if !sentimentHolds(rule.When, values) {
			continue
		}
		chainFired = true
		if rule.Positive != "" {
			change.PositiveFactors = append(change.PositiveFactors, rule.Positive)
		}
		if rule.Negative != "" {
			change.NegativeFactors = append(change.NegativeFactors, rule.Negative)
		}
		change.NetScore += rule.Score
	}
	change.Direction, change.Magnitude = ClassifySentiment(change.NetScore)
	return change
}

func sentimentValues(base, adjusted models.AdjustmentState) map[string]float64 {
	return map[string]float64{
		models.SentimentDelta2030:    adjusted.REShare2030 - base.REShare2030,
		models.SentimentDelta2040:    adjusted.REShare2040 - base.REShare2040,
		models.SentimentDeltaCoal:    adjusted.CoalPhaseout - base.CoalPhaseout,
		models.SentimentAdjusted2030: adjusted.REShare2030,
		models.SentimentAdjusted2040: adjusted.REShare2040,
	}
}

func sentimentHolds(conds []models.SentimentCondition, values map[string]float64) bool {
	for _, c := range conds {
		v, ok := values[c.Metric]
		if !ok {
			return false
		}
		if c.Abs {
			v = math.Abs(v)
		}
		if !c.Op.Holds(v, c.Value) {
			return false
		}
	}
	return true
}

// ClassifySentiment maps a net score to a direction and magnitude
func ClassifySentiment(net int) (models.SentimentDirection, models.SentimentMagnitude) {
	switch {
	case net > NeutralBand:
		return models.SentimentPositive, sentimentMagnitude(net)
	case net < -NeutralBand:
		return models.SentimentNegative, sentimentMagnitude(-net)
	}
	return models.SentimentNeutral, models.MagnitudeMinor
}

func sentimentMagnitude(n int) models.SentimentMagnitude {
	switch {
	case n >= SignificantSentiment:
		return models.MagnitudeSignificant
	case n >= ModerateSentiment:
		return models.MagnitudeModerate
	}
	return models.MagnitudeMinor
}
