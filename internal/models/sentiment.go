package models

// AdjustmentState is the set of headline targets a user can move away
// from a scenario's own values
type AdjustmentState struct {
	REShare2030  float64 `json:"re_share_2030"`
	REShare2040  float64 `json:"re_share_2040"`
	CoalPhaseout float64 `json:"coal_phaseout"`
}

// Metrics a sentiment condition can read. Deltas are adjusted minus base;
// a positive coal phaseout delta is a later exit.
const (
	SentimentDelta2030    = "delta.reShare2030"
	SentimentDelta2040    = "delta.reShare2040"
	SentimentDeltaCoal    = "delta.coalPhaseout"
	SentimentAdjusted2030 = "adjusted.reShare2030"
	SentimentAdjusted2040 = "adjusted.reShare2040"
)

// SentimentMetrics lists every metric a sentiment condition may name
var SentimentMetrics = []string{
	SentimentDelta2030,
	SentimentDelta2040,
	SentimentDeltaCoal,
	SentimentAdjusted2030,
	SentimentAdjusted2040,
}

// SentimentOp compares a sentiment metric with a value
type SentimentOp string

const (
	OpAbove   SentimentOp = "above"
	OpBelow   SentimentOp = "below"
	OpAtMost  SentimentOp = "at_most"
	OpAtLeast SentimentOp = "at_least"
)

// Valid reports whether op is a known comparison
func (op SentimentOp) Valid() bool {
	switch op {
	case OpAbove, OpBelow, OpAtMost, OpAtLeast:
		return true
	}
	return false
}

// Holds reports whether v op value is true
func (op SentimentOp) Holds(v, value float64) bool {
	switch op {
	case OpAbove:
		return v > value
	case OpBelow:
		return v < value
	case OpAtMost:
		return v <= value
	case OpAtLeast:
		return v >= value
	}
	return false
}

// SentimentCondition is one comparison of a sentiment rule. Abs compares
// the magnitude of the metric.
type SentimentCondition struct {
	Metric string      `json:"metric" yaml:"metric"`
	Op     SentimentOp `json:"op" yaml:"op"`
	Value  float64     `json:"value" yaml:"value"`
	Abs    bool        `json:"abs,omitempty" yaml:"abs,omitempty"`
}

// SentimentRule adds its factors and score when every condition holds.
// An ElseIf rule is skipped once an earlier rule of its chain has fired;
// any rule without ElseIf starts a new chain.
type SentimentRule struct {
	When     []SentimentCondition `json:"when" yaml:"when"`
	ElseIf   bool                 `json:"else_if,omitempty" yaml:"else_if,omitempty"`
	Positive string               `json:"positive,omitempty" yaml:"positive,omitempty"`
	Negative string               `json:"negative,omitempty" yaml:"negative,omitempty"`
	Score    int                  `json:"score" yaml:"score"`
}

// SentimentDirection is the way a stakeholder's mood moves
type SentimentDirection string

const (
	SentimentPositive SentimentDirection = "positive"
	SentimentNegative SentimentDirection = "negative"
	SentimentNeutral  SentimentDirection = "neutral"
)

// SentimentMagnitude is how far a stakeholder's mood moves
type SentimentMagnitude string

const (
	MagnitudeMinor       SentimentMagnitude = "minor"
	MagnitudeModerate    SentimentMagnitude = "moderate"
	MagnitudeSignificant SentimentMagnitude = "significant"
)

// SentimentChange is a stakeholder's anticipated reaction to an adjustment
type SentimentChange struct {
	StakeholderID   StakeholderID      `json:"stakeholder_id"`
	StakeholderName string             `json:"stakeholder_name"`
	Direction       SentimentDirection `json:"direction"`
	Magnitude       SentimentMagnitude `json:"magnitude"`
	PositiveFactors []string           `json:"positive_factors"`
	NegativeFactors []string           `json:"negative_factors"`
	NetScore        int                `json:"net_score"`
}

// Adjustment moves some targets; nil fields keep the base value
type Adjustment struct {
	REShare2030  *float64 `json:"re_share_2030,omitempty"`
	REShare2040  *float64 `json:"re_share_2040,omitempty"`
	CoalPhaseout *float64 `json:"coal_phaseout,omitempty"`
}

// Apply returns base with the set targets replaced
func (a Adjustment) Apply(base AdjustmentState) AdjustmentState {
	if a.REShare2030 != nil {
		base.REShare2030 = *a.REShare2030
	}
	if a.REShare2040 != nil {
		base.REShare2040 = *a.REShare2040
	}
	if a.CoalPhaseout != nil {
		base.CoalPhaseout = *a.CoalPhaseout
	}
	return base
}

// SentimentReport is the outcome of exploring an adjustment
type SentimentReport struct {
	Base     AdjustmentState   `json:"base"`
	Adjusted AdjustmentState   `json:"adjusted"`
	Changes  []SentimentChange `json:"changes"`
}
