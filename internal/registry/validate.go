package registry

import (
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/AbdouB/dialogue/internal/metrics"
	"github.com/AbdouB/dialogue/internal/models"
)

// CatchAll is the modifier pattern matching every metric
const CatchAll = "*"

// Validate checks the tables against the invariants the engine relies on.
// All problems are reported together.
func (r *Registry) Validate() error {
	var errs []error
	errs = append(errs, r.validateStakeholders()...)
	errs = append(errs, r.validateContexts()...)
	errs = append(errs, r.validateVariants()...)
	errs = append(errs, r.validateTriggers()...)
	errs = append(errs, r.validateSentiment()...)
	for id := range r.voices {
		if !r.HasStakeholder(id) {
			errs = append(errs, fmt.Errorf("voices: unknown stakeholder %q", id))
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) validateStakeholders() []error {
	var errs []error
	seen := map[models.StakeholderID]bool{}
	hasPlaceholder := false
	for _, p := range r.stakeholders {
		where := fmt.Sprintf("stakeholder %q", p.ID)
		if seen[p.ID] {
			errs = append(errs, fmt.Errorf("%s: declared twice", where))
		}
		seen[p.ID] = true

		if p.Name == "" {
			errs = append(errs, fmt.Errorf("%s: missing name", where))
		}
		errs = append(errs, atLeast(where, "priorities", len(p.Priorities), 3)...)
		errs = append(errs, atLeast(where, "typical_questions", len(p.TypicalQuestions), 3)...)
		errs = append(errs, atLeast(where, "challenges", len(p.Challenges), 2)...)
		errs = append(errs, atLeast(where, "good_practices", len(p.GoodPractices), 2)...)
		errs = append(errs, atLeast(where, "concern_triggers", len(p.ConcernTriggers), 1)...)
		errs = append(errs, atLeast(where, "positive_indicators", len(p.PositiveIndicators), 1)...)
		errs = append(errs, atLeast(where, "advice.when_concerned", len(p.Advice.WhenConcerned), 1)...)
		errs = append(errs, atLeast(where, "advice.when_supportive", len(p.Advice.WhenSupportive), 1)...)

		for _, q := range p.TypicalQuestions {
			if !strings.HasSuffix(q, "?") {
				errs = append(errs, fmt.Errorf("%s: question %q does not end with '?'", where, q))
			}
		}
		for _, c := range p.ConcernTriggers {
			errs = append(errs, checkRule(where, c.Metric, c.Direction, c.Threshold)...)
			if strings.Contains(c.ConcernText, models.ValuePlaceholder) {
				hasPlaceholder = true
			}
			if c.ConcernText == "" {
				errs = append(errs, fmt.Errorf("%s: concern on %s has no text", where, c.Metric))
			}
		}
		for _, ind := range p.PositiveIndicators {
			errs = append(errs, checkRule(where, ind.Metric, ind.Direction, ind.Threshold)...)
			if ind.PraiseText == "" {
				errs = append(errs, fmt.Errorf("%s: indicator on %s has no text", where, ind.Metric))
			}
		}
		for _, t := range p.ResponseTemplates {
			switch t.Condition {
			case models.ConditionHighInvestment, models.ConditionLowInvestment,
				models.ConditionHighRenewable, models.ConditionHighFossil:
			default:
				errs = append(errs, fmt.Errorf("%s: unknown template condition %q", where, t.Condition))
			}
			if t.InitialReaction == "" {
				errs = append(errs, fmt.Errorf("%s: template %q has no reaction", where, t.Condition))
			}
		}
	}
	for _, id := range models.StakeholderIDs {
		if !seen[id] {
			errs = append(errs, fmt.Errorf("stakeholder %q is missing", id))
		}
	}
	if len(r.stakeholders) > 0 && !hasPlaceholder {
		errs = append(errs, fmt.Errorf("no concern text uses the %s placeholder", models.ValuePlaceholder))
	}
	return errs
}

func (r *Registry) validateContexts() []error {
	var errs []error
	seen := map[models.ContextID]bool{}
	for _, c := range r.contexts {
		where := fmt.Sprintf("context %q", c.ID)
		seen[c.ID] = true

		hasCatchAll := false
		for _, m := range c.ThresholdModifiers {
			errs = append(errs, checkModifier(where, m)...)
			if m.Pattern == CatchAll {
				hasCatchAll = true
			}
			switch c.ID {
			case models.ContextLeastDeveloped:
				if m.Factor >= 1 {
					errs = append(errs, fmt.Errorf("%s: factor %v for %q must be below 1", where, m.Factor, m.Pattern))
				}
			case models.ContextDeveloped:
				if m.Factor <= 1 {
					errs = append(errs, fmt.Errorf("%s: factor %v for %q must be above 1", where, m.Factor, m.Pattern))
				}
			}
		}
		// every metric has to move in these two contexts
		if (c.ID == models.ContextLeastDeveloped || c.ID == models.ContextDeveloped) && !hasCatchAll {
			errs = append(errs, fmt.Errorf("%s: needs a %q catch-all modifier", where, CatchAll))
		}

		for id, shifts := range c.PriorityShifts {
			if !r.HasStakeholder(id) {
				errs = append(errs, fmt.Errorf("%s: priority shift for unknown stakeholder %q", where, id))
			}
			for _, s := range shifts {
				if s.Weight <= 0 {
					errs = append(errs, fmt.Errorf("%s: priority %q has weight %v", where, s.Priority, s.Weight))
				}
			}
		}
		for _, a := range c.Appreciations {
			errs = append(errs, checkRule(where, a.Metric, a.Direction, a.Threshold)...)
		}
	}
	for _, id := range models.ContextIDs {
		if !seen[id] {
			errs = append(errs, fmt.Errorf("context %q is missing", id))
		}
	}
	return errs
}

func (r *Registry) validateVariants() []error {
	var errs []error
	for id := range r.variants {
		if !r.HasStakeholder(id) {
			errs = append(errs, fmt.Errorf("variants: unknown stakeholder %q", id))
		}
	}
	for _, p := range r.stakeholders {
		list := r.variants[p.ID]
		seen := map[models.VariantID]bool{}
		for _, v := range list {
			where := fmt.Sprintf("variant %s/%s", p.ID, v.ID)
			seen[v.ID] = true
			for _, m := range v.ThresholdModifiers {
				errs = append(errs, checkModifier(where, m)...)
				switch v.ID {
				case models.VariantConservative:
					if m.Factor >= 1 {
						errs = append(errs, fmt.Errorf("%s: factor %v for %q must be below 1", where, m.Factor, m.Pattern))
					}
				case models.VariantPragmatic:
					if m.Factor != 1 {
						errs = append(errs, fmt.Errorf("%s: factor %v for %q must be 1", where, m.Factor, m.Pattern))
					}
				case models.VariantProgressive:
					if m.Factor < 1 {
						errs = append(errs, fmt.Errorf("%s: factor %v for %q must be at least 1", where, m.Factor, m.Pattern))
					}
				default:
					errs = append(errs, fmt.Errorf("%s: unknown variant", where))
				}
			}
			errs = append(errs, checkTone(where, v.ToneAdjustment)...)
		}
		for _, id := range models.VariantIDs {
			if !seen[id] {
				errs = append(errs, fmt.Errorf("variant %s/%s is missing", p.ID, id))
			}
		}
	}
	return errs
}

func (r *Registry) validateTriggers() []error {
	var errs []error
	for id := range r.triggers {
		if !r.HasStakeholder(id) {
			errs = append(errs, fmt.Errorf("triggers: unknown stakeholder %q", id))
		}
	}
	for _, p := range r.stakeholders {
		list := r.triggers[p.ID]
		errs = append(errs, atLeast(fmt.Sprintf("stakeholder %q", p.ID), "interaction triggers", len(list), 2)...)
		seen := map[string]bool{}
		for _, t := range list {
			where := fmt.Sprintf("trigger %s/%s", p.ID, t.ID)
			if t.ID == "" {
				errs = append(errs, fmt.Errorf("trigger of %q has no id", p.ID))
			}
			if seen[t.ID] {
				errs = append(errs, fmt.Errorf("%s: declared twice", where))
			}
			seen[t.ID] = true

			if t.Kind != models.TriggerConcern && t.Kind != models.TriggerAppreciation {
				errs = append(errs, fmt.Errorf("%s: unknown kind %q", where, t.Kind))
			}
			if len(t.Conditions) == 0 {
				errs = append(errs, fmt.Errorf("%s: no conditions", where))
			}
			for _, c := range t.Conditions {
				errs = append(errs, checkRule(where, c.Metric, c.Direction, c.Threshold)...)
			}
			for _, c := range t.Contexts {
				if !isContext(c) {
					errs = append(errs, fmt.Errorf("%s: unknown context %q", where, c))
				}
			}
			if t.ConcernText == "" {
				errs = append(errs, fmt.Errorf("%s: no text", where))
			}
		}
	}
	return errs
}

func (r *Registry) validateSentiment() []error {
	var errs []error
	for id := range r.sentiment {
		if !r.HasStakeholder(id) {
			errs = append(errs, fmt.Errorf("sentiment: unknown stakeholder %q", id))
		}
	}
	for _, p := range r.stakeholders {
		list := r.sentiment[p.ID]
		errs = append(errs, atLeast(fmt.Sprintf("stakeholder %q", p.ID), "sentiment rules", len(list), 1)...)
		for i, rule := range list {
			where := fmt.Sprintf("sentiment %s[%d]", p.ID, i)
			if i == 0 && rule.ElseIf {
				errs = append(errs, fmt.Errorf("%s: else_if has no rule to follow", where))
			}
			if len(rule.When) == 0 {
				errs = append(errs, fmt.Errorf("%s: no conditions", where))
			}
			if rule.Positive == "" && rule.Negative == "" {
				errs = append(errs, fmt.Errorf("%s: no factor text", where))
			}
			for _, c := range rule.When {
				if !slices.Contains(models.SentimentMetrics, c.Metric) {
					errs = append(errs, fmt.Errorf("%s: unknown metric %q", where, c.Metric))
				}
				if !c.Op.Valid() {
					errs = append(errs, fmt.Errorf("%s: %s has op %q", where, c.Metric, c.Op))
				}
			}
		}
	}
	return errs
}

func atLeast(where, field string, n, want int) []error {
	if n >= want {
		return nil
	}
	return []error{fmt.Errorf("%s: %s has %d entries, want at least %d", where, field, n, want)}
}

// checkRule validates one threshold comparison. Thresholds must be positive
// so that scaling by a modifier factor moves them in the factor's direction.
func checkRule(where, metric string, dir models.Direction, threshold float64) []error {
	var errs []error
	if _, err := metrics.ParsePath(metric); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", where, err))
	}
	if !dir.Valid() {
		errs = append(errs, fmt.Errorf("%s: %s has direction %q", where, metric, dir))
	}
	if !(threshold > 0) {
		errs = append(errs, fmt.Errorf("%s: %s threshold %v must be positive", where, metric, threshold))
	}
	return errs
}

func checkModifier(where string, m models.ThresholdModifier) []error {
	var errs []error
	if _, err := path.Match(m.Pattern, ""); err != nil || m.Pattern == "" {
		errs = append(errs, fmt.Errorf("%s: bad pattern %q", where, m.Pattern))
	}
	if m.Factor <= 0 {
		errs = append(errs, fmt.Errorf("%s: factor for %q must be positive", where, m.Pattern))
	}
	return errs
}

func checkTone(where string, t models.ToneAdjustment) []error {
	var errs []error
	switch t.RiskTolerance {
	case models.RiskLow, models.RiskMedium, models.RiskHigh:
	default:
		errs = append(errs, fmt.Errorf("%s: risk_tolerance %q", where, t.RiskTolerance))
	}
	switch t.ChangeOpenness {
	case models.OpennessResistant, models.OpennessCautious, models.OpennessEmbracing:
	default:
		errs = append(errs, fmt.Errorf("%s: change_openness %q", where, t.ChangeOpenness))
	}
	switch t.CollaborationStyle {
	case models.CollaborationDefensive, models.CollaborationTransactional, models.CollaborationPartnership:
	default:
		errs = append(errs, fmt.Errorf("%s: collaboration_style %q", where, t.CollaborationStyle))
	}
	return errs
}

func isContext(id models.ContextID) bool {
	for _, c := range models.ContextIDs {
		if c == id {
			return true
		}
	}
	return false
}
