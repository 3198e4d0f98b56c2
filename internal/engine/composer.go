package engine

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/AbdouB/dialogue/internal/metrics"
	"github.com/AbdouB/dialogue/internal/models"
)

// Response template conditions, checked at the scenario's final year
const (
	HighInvestmentThreshold = 5000.0 // cumulative million USD
	LowInvestmentThreshold  = 1000.0
	HighRenewableThreshold  = 70.0 // renewable share, percent
	HighFossilThreshold     = 30.0 // renewable share below this reads as fossil-heavy
)

// AdviceCount is the number of engagement advice items per response
const AdviceCount = 3

// concerns sharing this many leading characters are the same concern
const duplicatePrefix = 30

// genericAdvice tops up stakeholders with small advice pools
var genericAdvice = []string{
	"Share the scenario assumptions early and invite written feedback",
	"Follow up with a short note on how their input shaped the scenario",
	"Offer a dedicated session for their technical questions",
}

// GenerateRuleBasedResponse builds a stakeholder's response from its
// concern and indicator rules alone. Empty context and variant ids leave
// thresholds untouched.
func (e *Engine) GenerateRuleBasedResponse(s *models.Scenario, d *models.DerivedMetrics, id models.StakeholderID, opts Options) (*models.GeneratedResponse, error) {
	t, err := e.resolve(id, opts)
	if err != nil {
		return nil, err
	}

	ev := t.evaluate(s, d)
	resp := e.compose(t, s, d, ev, func(c models.Concern) []string { return []string{c.Metric} })
	resp.Metadata = t.metadata(opts)
	return resp, nil
}

// GenerateEnhancedResponse folds interaction triggers, context
// appreciations and the variant's framing into the rule-based response.
// Context defaults to emerging and variant to pragmatic unless the engine
// was built WithDefaults.
func (e *Engine) GenerateEnhancedResponse(s *models.Scenario, d *models.DerivedMetrics, id models.StakeholderID, opts Options) (*models.GeneratedResponse, error) {
	opts = opts.withDefaults(e.defaults)
	t, err := e.resolve(id, opts)
	if err != nil {
		return nil, err
	}
	triggers, err := e.reg.Triggers(id)
	if err != nil {
		return nil, err
	}

	indicators := metrics.BuildIndicators(s, d, triggerMetrics(triggers))
	fired := t.fire(triggers, indicators, opts.Context)

	ev := t.evaluate(s, d)
	triggerPaths := make(map[string][]string)
	names := make([]string, 0, len(fired))
	for _, trig := range fired {
		names = append(names, trig.ID)
		if trig.Kind == models.TriggerAppreciation {
			if !similarAppreciation(ev.Appreciations, trig.ConcernText) {
				ev.Appreciations = append(ev.Appreciations, trig.ConcernText)
			}
			continue
		}
		if duplicateConcern(ev.Concerns, trig.ConcernText) {
			continue
		}
		triggerPaths[trig.ID] = trig.Metrics()
		ev.Concerns = append(ev.Concerns, models.Concern{
			Text:        trig.ConcernText,
			Explanation: joinSentences(trig.Explanation, trig.SuggestedResponse),
			Severity:    models.SeverityMedium,
			Metric:      trig.ID,
		})
	}

	// context appreciations compare against raw thresholds
	for _, rule := range t.context.Appreciations {
		if v, ok := metrics.Resolve(s, d, rule.Metric); ok && rule.Direction.Crosses(v, rule.Threshold) {
			ev.Appreciations = appendUnique(ev.Appreciations, interpolate(rule.PraiseText, v))
		}
	}

	resp := e.compose(t, s, d, ev, func(c models.Concern) []string {
		if paths, ok := triggerPaths[c.Metric]; ok {
			return paths
		}
		return []string{c.Metric}
	})
	if framing := t.variant.FramingPreference; framing != "" {
		resp.InitialReaction = framing + " " + resp.InitialReaction
	}

	md := t.metadata(opts)
	md.InteractionTriggersCount = len(fired)
	md.TriggeredInteractions = names
	resp.Metadata = md
	return resp, nil
}

func (e *Engine) compose(t target, s *models.Scenario, d *models.DerivedMetrics, ev Evaluation, concernMetrics func(models.Concern) []string) *models.GeneratedResponse {
	return &models.GeneratedResponse{
		StakeholderID:    t.profile.ID,
		StakeholderName:  t.profile.Name,
		GenerationType:   models.GenerationRuleBased,
		InitialReaction:  initialReaction(t.profile, s, d, ev),
		Appreciation:     ev.Appreciations,
		Concerns:         ev.Concerns,
		Questions:        selectQuestions(t.profile, ev.Concerns, concernMetrics),
		EngagementAdvice: selectAdvice(t.profile, len(ev.Concerns) > 0),
		GeneratedAt:      e.now().UTC(),
	}
}

func (t target) metadata(opts Options) *models.ResponseMetadata {
	md := &models.ResponseMetadata{
		Context:    opts.Context,
		Variant:    opts.Variant,
		Priorities: t.weightedPriorities(),
	}
	if t.variant != nil {
		tone := t.variant.ToneAdjustment
		md.Tone = &tone
	}
	return md
}

// weightedPriorities applies the context's priority shifts, heaviest first.
// Shifted priorities the profile does not list are added.
func (t target) weightedPriorities() []models.WeightedPriority {
	out := make([]models.WeightedPriority, 0, len(t.profile.Priorities))
	for _, p := range t.profile.Priorities {
		out = append(out, models.WeightedPriority{Priority: p, Weight: 1})
	}
	if t.context != nil {
		for _, shift := range t.context.PriorityShifts[t.profile.ID] {
			i := slices.IndexFunc(out, func(w models.WeightedPriority) bool { return w.Priority == shift.Priority })
			if i < 0 {
				out = append(out, models.WeightedPriority{Priority: shift.Priority, Weight: shift.Weight})
				continue
			}
			out[i].Weight = shift.Weight
		}
	}
	slices.SortStableFunc(out, func(a, b models.WeightedPriority) int {
		return cmp.Compare(b.Weight, a.Weight)
	})
	return out
}

// initialReaction opens with a matching template or a tone chosen by the
// balance of appreciations and concerns, then names the dominant signal
func initialReaction(p models.StakeholderProfile, s *models.Scenario, d *models.DerivedMetrics, ev Evaluation) string {
	reaction := templateReaction(p, s, d)
	if reaction == "" {
		reaction = balanceReaction(p.Name, len(ev.Concerns), len(ev.Appreciations))
	}
	if signal := dominantSignal(ev); signal != "" {
		reaction += " " + signal
	}
	return reaction
}

func templateReaction(p models.StakeholderProfile, s *models.Scenario, d *models.DerivedMetrics) string {
	year, ok := s.FinalYear()
	if !ok {
		return ""
	}
	for _, tpl := range p.ResponseTemplates {
		if conditionHolds(tpl.Condition, s, d, year) {
			return tpl.InitialReaction
		}
	}
	return ""
}

func conditionHolds(cond models.TemplateCondition, s *models.Scenario, d *models.DerivedMetrics, year int) bool {
	y := strconv.Itoa(year)
	switch cond {
	case models.ConditionHighInvestment, models.ConditionLowInvestment:
		v, ok := metrics.Resolve(s, d, "investment.totalCumulative."+y)
		if !ok {
			v, ok = metrics.Resolve(s, d, "supply.investment.cumulative."+y)
		}
		if !ok {
			return false
		}
		if cond == models.ConditionHighInvestment {
			return v > HighInvestmentThreshold
		}
		return v < LowInvestmentThreshold
	case models.ConditionHighRenewable:
		v, ok := metrics.Resolve(s, d, "renewableShare."+y)
		return ok && v > HighRenewableThreshold
	case models.ConditionHighFossil:
		v, ok := metrics.Resolve(s, d, "renewableShare."+y)
		return ok && v < HighFossilThreshold
	}
	return false
}

func balanceReaction(name string, concerns, appreciations int) string {
	if concerns == 0 && appreciations == 0 {
		return fmt.Sprintf("As %s, we have reviewed this scenario and need more detail before forming a view.", name)
	}
	ratio := float64(appreciations) / float64(concerns+appreciations+1)
	switch {
	case ratio > 0.7:
		return fmt.Sprintf("As %s, we see several positive aspects in this scenario.", name)
	case ratio > 0.4:
		return fmt.Sprintf("As %s, we see both opportunities and challenges in this scenario.", name)
	}
	return fmt.Sprintf("As %s, we have significant concerns about this scenario.", name)
}

func dominantSignal(ev Evaluation) string {
	if len(ev.Concerns) > 0 {
		return "Our most pressing concern: " + bySeverity(ev.Concerns)[0].Text
	}
	if len(ev.Appreciations) > 0 {
		return "What stands out most: " + ev.Appreciations[0]
	}
	return ""
}

// selectAdvice leads with the situational advice, then good practices,
// then the rest of the pool
func selectAdvice(p models.StakeholderProfile, concerned bool) []string {
	pool := p.Advice.WhenSupportive
	if concerned {
		pool = p.Advice.WhenConcerned
	}

	var candidates []string
	if len(pool) > 0 {
		candidates = append(candidates, pool[0])
	}
	candidates = append(candidates, p.GoodPractices...)
	if len(pool) > 1 {
		candidates = append(candidates, pool[1:]...)
	}
	candidates = append(candidates, genericAdvice...)

	advice := make([]string, 0, AdviceCount)
	for _, c := range candidates {
		if len(advice) == AdviceCount {
			break
		}
		advice = appendUnique(advice, c)
	}
	return advice
}

// duplicateConcern reports whether an existing concern already contains
// the opening of text, ignoring case
func duplicateConcern(existing []models.Concern, text string) bool {
	key := concernKey(text)
	for _, c := range existing {
		if strings.Contains(strings.ToLower(c.Text), key) {
			return true
		}
	}
	return false
}

// similarAppreciation is duplicateConcern for appreciation items
func similarAppreciation(existing []string, text string) bool {
	key := concernKey(text)
	for _, a := range existing {
		if strings.Contains(strings.ToLower(a), key) {
			return true
		}
	}
	return false
}

func concernKey(text string) string {
	r := []rune(strings.ToLower(text))
	if len(r) > duplicatePrefix {
		r = r[:duplicatePrefix]
	}
	return string(r)
}

func appendUnique(list []string, s string) []string {
	if slices.Contains(list, s) {
		return list
	}
	return append(list, s)
}

func joinSentences(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
