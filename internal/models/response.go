package models

import "time"

// Severity grades how strongly a concern is felt
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities, higher is more severe
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// GenerationType records how a response was produced
type GenerationType string

const (
	GenerationRuleBased  GenerationType = "rule-based"
	GenerationAIEnhanced GenerationType = "ai-enhanced"
)

// Enhancement outcomes recorded in response metadata
const (
	EnhancementApplied     = "applied"
	EnhancementSkipped     = "skipped"
	EnhancementUnavailable = "unavailable"
	EnhancementTimeout     = "timeout"
	EnhancementFailed      = "failed"
	EnhancementCanceled    = "canceled"
)

// Concern is a triggered concern attributed to a metric or interaction trigger
type Concern struct {
	Text        string   `json:"text"`
	Explanation string   `json:"explanation,omitempty"`
	Severity    Severity `json:"severity"`
	Metric      string   `json:"metric"`
}

// WeightedPriority is a stakeholder priority after context reweighting
type WeightedPriority struct {
	Priority string  `json:"priority"`
	Weight   float64 `json:"weight"`
}

// ResponseMetadata describes the settings a response was generated under
type ResponseMetadata struct {
	Context                  ContextID          `json:"context,omitempty"`
	Variant                  VariantID          `json:"variant,omitempty"`
	InteractionTriggersCount int                `json:"interaction_triggers_count"`
	TriggeredInteractions    []string           `json:"triggered_interactions,omitempty"`
	Priorities               []WeightedPriority `json:"priorities,omitempty"`
	Tone                     *ToneAdjustment    `json:"tone,omitempty"`
	Enhancement              string             `json:"enhancement,omitempty"`
}

// GeneratedResponse is a stakeholder's reaction to a scenario.
// It is produced fresh on every call and never cached.
type GeneratedResponse struct {
	StakeholderID    StakeholderID     `json:"stakeholder_id"`
	StakeholderName  string            `json:"stakeholder_name"`
	GenerationType   GenerationType    `json:"generation_type"`
	InitialReaction  string            `json:"initial_reaction"`
	Appreciation     []string          `json:"appreciation"`
	Concerns         []Concern         `json:"concerns"`
	Questions        []string          `json:"questions"`
	EngagementAdvice []string          `json:"engagement_advice"`
	GeneratedAt      time.Time         `json:"generated_at"`
	Metadata         *ResponseMetadata `json:"metadata,omitempty"`
}

// Clone returns a deep copy of the response
func (r *GeneratedResponse) Clone() *GeneratedResponse {
	if r == nil {
		return nil
	}
	out := *r
	out.Appreciation = cloneSlice(r.Appreciation)
	out.Concerns = cloneSlice(r.Concerns)
	out.Questions = cloneSlice(r.Questions)
	out.EngagementAdvice = cloneSlice(r.EngagementAdvice)
	if r.Metadata != nil {
		md := *r.Metadata
		md.TriggeredInteractions = cloneSlice(r.Metadata.TriggeredInteractions)
		md.Priorities = cloneSlice(r.Metadata.Priorities)
		if r.Metadata.Tone != nil {
			tone := *r.Metadata.Tone
			md.Tone = &tone
		}
		out.Metadata = &md
	}
	return &out
}

// cloneSlice copies s, keeping nil and empty slices distinct
func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
