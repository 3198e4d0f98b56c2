package models

// ContextID identifies a national development context
type ContextID string

const (
	ContextLeastDeveloped ContextID = "least-developed"
	ContextEmerging       ContextID = "emerging"
	ContextDeveloped      ContextID = "developed"
)

// ContextIDs lists the development contexts from least to most developed
var ContextIDs = []ContextID{ContextLeastDeveloped, ContextEmerging, ContextDeveloped}

// VariantID identifies a persona variant
type VariantID string

const (
	VariantConservative VariantID = "conservative"
	VariantPragmatic    VariantID = "pragmatic"
	VariantProgressive  VariantID = "progressive"
)

// VariantIDs lists the persona variants from most to least cautious
var VariantIDs = []VariantID{VariantConservative, VariantPragmatic, VariantProgressive}

// ThresholdModifier scales thresholds of metrics matching Pattern.
// Pattern uses path.Match syntax over the dotted metric path.
type ThresholdModifier struct {
	Pattern   string  `json:"pattern" yaml:"pattern"`
	Factor    float64 `json:"factor" yaml:"factor"`
	Rationale string  `json:"rationale,omitempty" yaml:"rationale"`
}

// PriorityShift reweights a stakeholder priority in a given context
type PriorityShift struct {
	Priority string  `json:"priority" yaml:"priority"`
	Weight   float64 `json:"weight" yaml:"weight"`
}

// ContextProfile recalibrates thresholds for a development context
type ContextProfile struct {
	ID                 ContextID                         `json:"id" yaml:"id"`
	Name               string                            `json:"name" yaml:"name"`
	Description        string                            `json:"description" yaml:"description"`
	Characteristics    []string                          `json:"characteristics,omitempty" yaml:"characteristics"`
	ThresholdModifiers []ThresholdModifier               `json:"threshold_modifiers" yaml:"threshold_modifiers"`
	PriorityShifts     map[StakeholderID][]PriorityShift `json:"priority_shifts,omitempty" yaml:"priority_shifts"`
	Appreciations      []IndicatorRule                   `json:"appreciations,omitempty" yaml:"appreciations"`
}

// RiskTolerance describes how much uncertainty a persona accepts
type RiskTolerance string

const (
	RiskLow    RiskTolerance = "low"
	RiskMedium RiskTolerance = "medium"
	RiskHigh   RiskTolerance = "high"
)

// ChangeOpenness describes how a persona greets change
type ChangeOpenness string

const (
	OpennessResistant ChangeOpenness = "resistant"
	OpennessCautious  ChangeOpenness = "cautious"
	OpennessEmbracing ChangeOpenness = "embracing"
)

// CollaborationStyle describes how a persona engages with planners
type CollaborationStyle string

const (
	CollaborationDefensive     CollaborationStyle = "defensive"
	CollaborationTransactional CollaborationStyle = "transactional"
	CollaborationPartnership   CollaborationStyle = "partnership"
)

// ToneAdjustment shapes the voice of a persona variant
type ToneAdjustment struct {
	RiskTolerance      RiskTolerance      `json:"risk_tolerance" yaml:"risk_tolerance"`
	ChangeOpenness     ChangeOpenness     `json:"change_openness" yaml:"change_openness"`
	CollaborationStyle CollaborationStyle `json:"collaboration_style" yaml:"collaboration_style"`
}

// VariantProfile is one persona flavour of a stakeholder
type VariantProfile struct {
	ID                 VariantID           `json:"id" yaml:"id"`
	Name               string              `json:"name" yaml:"name"`
	Description        string              `json:"description" yaml:"description"`
	ThresholdModifiers []ThresholdModifier `json:"threshold_modifiers,omitempty" yaml:"threshold_modifiers"`
	ToneAdjustment     ToneAdjustment      `json:"tone_adjustment" yaml:"tone_adjustment"`
	FramingPreference  string              `json:"framing_preference" yaml:"framing_preference"`
}
