package models

// StakeholderID identifies one of the nine stakeholder groups
type StakeholderID string

const (
	StakeholderPolicyMakers        StakeholderID = "policy-makers"
	StakeholderGridOperators       StakeholderID = "grid-operators"
	StakeholderIndustry            StakeholderID = "industry"
	StakeholderPublic              StakeholderID = "public"
	StakeholderCSOsNGOs            StakeholderID = "csos-ngos"
	StakeholderScientific          StakeholderID = "scientific"
	StakeholderFinance             StakeholderID = "finance"
	StakeholderRegionalBodies      StakeholderID = "regional-bodies"
	StakeholderDevelopmentPartners StakeholderID = "development-partners"
)

// StakeholderIDs lists the stakeholder groups in presentation order
var StakeholderIDs = []StakeholderID{
	StakeholderPolicyMakers,
	StakeholderGridOperators,
	StakeholderIndustry,
	StakeholderPublic,
	StakeholderCSOsNGOs,
	StakeholderScientific,
	StakeholderFinance,
	StakeholderRegionalBodies,
	StakeholderDevelopmentPartners,
}

// Direction tells which side of a threshold triggers a rule
type Direction string

const (
	DirectionAbove Direction = "above"
	DirectionBelow Direction = "below"
)

// Valid reports whether d is a known direction
func (d Direction) Valid() bool {
	return d == DirectionAbove || d == DirectionBelow
}

// Crosses reports whether value is on the triggering side of threshold.
// Equality never triggers.
func (d Direction) Crosses(value, threshold float64) bool {
	switch d {
	case DirectionAbove:
		return value > threshold
	case DirectionBelow:
		return value < threshold
	}
	return false
}

// ValuePlaceholder is replaced by the metric value in concern text
const ValuePlaceholder = "{value}"

// ConcernRule produces a concern when its metric crosses the threshold
type ConcernRule struct {
	Metric      string    `json:"metric" yaml:"metric"`
	Threshold   float64   `json:"threshold" yaml:"threshold"`
	Direction   Direction `json:"direction" yaml:"direction"`
	ConcernText string    `json:"concern_text" yaml:"concern_text"` // may contain {value}
	Explanation string    `json:"explanation" yaml:"explanation"`
}

// IndicatorRule produces an appreciation when its metric crosses the threshold
type IndicatorRule struct {
	Metric     string    `json:"metric" yaml:"metric"`
	Threshold  float64   `json:"threshold" yaml:"threshold"`
	Direction  Direction `json:"direction" yaml:"direction"`
	PraiseText string    `json:"praise_text" yaml:"praise_text"`
}

// TemplateCondition names a whole-scenario condition a response template reacts to
type TemplateCondition string

const (
	ConditionHighInvestment TemplateCondition = "highInvestment"
	ConditionLowInvestment  TemplateCondition = "lowInvestment"
	ConditionHighRenewable  TemplateCondition = "highRenewable"
	ConditionHighFossil     TemplateCondition = "highFossil"
)

// ResponseTemplate overrides the opening of the initial reaction when its condition holds
type ResponseTemplate struct {
	Condition       TemplateCondition `json:"condition" yaml:"condition"`
	InitialReaction string            `json:"initial_reaction" yaml:"initial_reaction"`
}

// StakeholderProfile is the static description of a stakeholder group
type StakeholderProfile struct {
	ID                 StakeholderID      `json:"id" yaml:"id"`
	Name               string             `json:"name" yaml:"name"`
	Description        string             `json:"description" yaml:"description"`
	WhyEngage          string             `json:"why_engage,omitempty" yaml:"why_engage"`
	BenefitForThem     string             `json:"benefit_for_them,omitempty" yaml:"benefit_for_them"`
	Priorities         []string           `json:"priorities" yaml:"priorities"`
	TypicalQuestions   []string           `json:"typical_questions" yaml:"typical_questions"`
	Challenges         []string           `json:"challenges" yaml:"challenges"`
	GoodPractices      []string           `json:"good_practices" yaml:"good_practices"`
	ConcernTriggers    []ConcernRule      `json:"concern_triggers" yaml:"concern_triggers"`
	PositiveIndicators []IndicatorRule    `json:"positive_indicators" yaml:"positive_indicators"`
	ResponseTemplates  []ResponseTemplate `json:"response_templates,omitempty" yaml:"response_templates"`
	Advice             AdvicePools        `json:"advice" yaml:"advice"`
}

// AdvicePools hold situational engagement advice, chosen by whether
// any concern was triggered
type AdvicePools struct {
	WhenConcerned  []string `json:"when_concerned" yaml:"when_concerned"`
	WhenSupportive []string `json:"when_supportive" yaml:"when_supportive"`
}

// TriggerKind tells whether an interaction trigger raises a concern or an appreciation
type TriggerKind string

const (
	TriggerConcern      TriggerKind = "concern"
	TriggerAppreciation TriggerKind = "appreciation"
)

// Condition is one comparison inside an interaction trigger
type Condition struct {
	Metric    string    `json:"metric" yaml:"metric"`
	Threshold float64   `json:"threshold" yaml:"threshold"`
	Direction Direction `json:"direction" yaml:"direction"`
}

// InteractionTrigger is a compound rule that fires when all conditions hold
type InteractionTrigger struct {
	ID                string      `json:"id" yaml:"id"`
	Kind              TriggerKind `json:"kind" yaml:"kind"`
	Conditions        []Condition `json:"conditions" yaml:"conditions"`
	Contexts          []ContextID `json:"contexts,omitempty" yaml:"contexts"` // empty applies everywhere
	ConcernText       string      `json:"concern_text" yaml:"concern_text"`
	Explanation       string      `json:"explanation,omitempty" yaml:"explanation"`
	SuggestedResponse string      `json:"suggested_response,omitempty" yaml:"suggested_response"`
}

// AppliesIn reports whether the trigger is active in the given context
func (t InteractionTrigger) AppliesIn(ctx ContextID) bool {
	if len(t.Contexts) == 0 {
		return true
	}
	for _, c := range t.Contexts {
		if c == ctx {
			return true
		}
	}
	return false
}

// Metrics returns the metric paths referenced by the trigger's conditions
func (t InteractionTrigger) Metrics() []string {
	paths := make([]string, 0, len(t.Conditions))
	for _, c := range t.Conditions {
		paths = append(paths, c.Metric)
	}
	return paths
}

// VoiceExample is a short sample of how a stakeholder talks about a scenario
type VoiceExample struct {
	Scenario string `json:"scenario" yaml:"scenario"`
	Response string `json:"response" yaml:"response"`
}

// Voice describes the register a text enhancer should write in
type Voice struct {
	Description string         `json:"description" yaml:"description"`
	Examples    []VoiceExample `json:"examples,omitempty" yaml:"examples"`
}
