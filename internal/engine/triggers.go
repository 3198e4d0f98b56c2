package engine

import (
	"github.com/AbdouB/dialogue/internal/models"
)

// EvaluateInteractionTriggers returns the stakeholder's interaction
// triggers whose conditions all hold, in declaration order. Condition
// thresholds are recalibrated by the context; a condition whose metric is
// missing from indicators is false. Triggers limited to other contexts
// never fire, and without a context only unrestricted triggers can.
func (e *Engine) EvaluateInteractionTriggers(id models.StakeholderID, indicators map[string]float64, contextID models.ContextID) ([]models.InteractionTrigger, error) {
	t, err := e.resolve(id, Options{Context: contextID})
	if err != nil {
		return nil, err
	}
	triggers, err := e.reg.Triggers(id)
	if err != nil {
		return nil, err
	}
	return t.fire(triggers, indicators, contextID), nil
}

func (t target) fire(triggers []models.InteractionTrigger, indicators map[string]float64, contextID models.ContextID) []models.InteractionTrigger {
	var fired []models.InteractionTrigger
	for _, trig := range triggers {
		if len(trig.Contexts) > 0 && (contextID == "" || !trig.AppliesIn(contextID)) {
			continue
		}
		if t.allHold(trig.Conditions, indicators) {
			fired = append(fired, trig)
		}
	}
	return fired
}

func (t target) allHold(conditions []models.Condition, indicators map[string]float64) bool {
	if len(conditions) == 0 {
		return false
	}
	for _, c := range conditions {
		value, ok := indicators[c.Metric]
		if !ok {
			return false
		}
		if !c.Direction.Crosses(value, t.contextThreshold(c.Threshold, c.Metric)) {
			return false
		}
	}
	return true
}

// triggerMetrics collects the distinct metric paths used by triggers
func triggerMetrics(triggers []models.InteractionTrigger) []string {
	seen := map[string]bool{}
	var paths []string
	for _, trig := range triggers {
		for _, m := range trig.Metrics() {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	return paths
}
