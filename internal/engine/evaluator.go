package engine

import (
	"github.com/AbdouB/dialogue/internal/metrics"
	"github.com/AbdouB/dialogue/internal/models"
)

// Evaluation is what a stakeholder's concern and indicator rules found in a scenario
type Evaluation struct {
	Concerns      []models.Concern `json:"concerns"`
	Appreciations []string         `json:"appreciations"`
}

// Evaluate runs a stakeholder's concern rules and positive indicators
// against the scenario. Rules whose metric does not resolve are skipped.
func (e *Engine) Evaluate(id models.StakeholderID, s *models.Scenario, d *models.DerivedMetrics, opts Options) (Evaluation, error) {
	t, err := e.resolve(id, opts)
	if err != nil {
		return Evaluation{}, err
	}
	return t.evaluate(s, d), nil
}

func (t target) evaluate(s *models.Scenario, d *models.DerivedMetrics) Evaluation {
	ev := Evaluation{
		Concerns:      []models.Concern{},
		Appreciations: []string{},
	}

	for _, rule := range t.profile.ConcernTriggers {
		value, ok := metrics.Resolve(s, d, rule.Metric)
		if !ok {
			continue
		}
		threshold := t.threshold(rule.Threshold, rule.Metric)
		if !rule.Direction.Crosses(value, threshold) {
			continue
		}
		ev.Concerns = append(ev.Concerns, models.Concern{
			Text:        interpolate(rule.ConcernText, value),
			Explanation: rule.Explanation,
			Severity:    ClassifySeverity(value, threshold, rule.Direction),
			Metric:      rule.Metric,
		})
	}

	for _, rule := range t.profile.PositiveIndicators {
		value, ok := metrics.Resolve(s, d, rule.Metric)
		if !ok {
			continue
		}
		if rule.Direction.Crosses(value, t.threshold(rule.Threshold, rule.Metric)) {
			ev.Appreciations = append(ev.Appreciations, interpolate(rule.PraiseText, value))
		}
	}

	return ev
}
