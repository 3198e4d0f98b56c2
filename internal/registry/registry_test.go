package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbdouB/dialogue/internal/models"
)

func TestLoadEmbedded(t *testing.T) {
	r, err := Load()
	require.NoError(t, err)

	assert.Equal(t, models.StakeholderIDs, r.StakeholderIDs())
	assert.Len(t, r.Stakeholders(), 9)

	contexts := r.Contexts()
	require.Len(t, contexts, 3)
	assert.Equal(t, models.ContextLeastDeveloped, contexts[0].ID)

	for _, id := range r.StakeholderIDs() {
		variants, err := r.Variants(id)
		require.NoError(t, err)
		assert.Len(t, variants, 3, id)

		triggers, err := r.Triggers(id)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(triggers), 2, id)

		voice, err := r.Voice(id)
		require.NoError(t, err)
		assert.NotEmpty(t, voice.Description, id)
	}
}

func TestStakeholderReturnsCopy(t *testing.T) {
	r, err := Load()
	require.NoError(t, err)

	p, err := r.Stakeholder(models.StakeholderPolicyMakers)
	require.NoError(t, err)
	original := p.Priorities[0]
	p.Priorities[0] = "changed"
	p.ConcernTriggers[0].Threshold = -1

	again, err := r.Stakeholder(models.StakeholderPolicyMakers)
	require.NoError(t, err)
	assert.Equal(t, original, again.Priorities[0])
	assert.NotEqual(t, -1.0, again.ConcernTriggers[0].Threshold)

	c, err := r.Context(models.ContextLeastDeveloped)
	require.NoError(t, err)
	c.ThresholdModifiers[0].Factor = 5
	c2, err := r.Context(models.ContextLeastDeveloped)
	require.NoError(t, err)
	assert.Less(t, c2.ThresholdModifiers[0].Factor, 1.0)
}

func TestUnknownIDs(t *testing.T) {
	r, err := Load()
	require.NoError(t, err)

	_, err = r.Stakeholder("policy-maker")
	require.ErrorIs(t, err, ErrUnknownID)
	var unknown *UnknownIDError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "stakeholder", unknown.Kind)
	require.NotEmpty(t, unknown.Suggestions)
	assert.Equal(t, "policy-makers", unknown.Suggestions[0])
	assert.Contains(t, err.Error(), "did you mean")

	_, err = r.Context("developing")
	assert.ErrorIs(t, err, ErrUnknownID)

	_, err = r.Variant(models.StakeholderFinance, "radical")
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "variant", unknown.Kind)

	_, err = r.Triggers("nobody")
	assert.ErrorIs(t, err, ErrUnknownID)
}

func TestTriggerKinds(t *testing.T) {
	r, err := Load()
	require.NoError(t, err)

	triggers, err := r.Triggers(models.StakeholderIndustry)
	require.NoError(t, err)
	kinds := map[string]models.TriggerKind{}
	for _, tr := range triggers {
		kinds[tr.ID] = tr.Kind
	}
	assert.Equal(t, models.TriggerAppreciation, kinds["supply-chain-opportunity"])
	assert.Equal(t, models.TriggerConcern, kinds["reliability-concerns"])
}

func TestLoadDirOverridesAndValidates(t *testing.T) {
	dir := t.TempDir()
	contexts := `contexts:
  - id: least-developed
    name: LDC
    threshold_modifiers:
      - pattern: "renewableShare.*"
        factor: 1.2
  - id: emerging
    name: Emerging
  - id: developed
    name: Developed
    threshold_modifiers:
      - pattern: "*"
        factor: 0.9
      - pattern: "[bad"
        factor: 1.5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ContextsFile), []byte(contexts), 0o644))

	_, err := LoadDir(dir)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, `context "least-developed": factor 1.2 for "renewableShare.*" must be below 1`)
	assert.Contains(t, msg, `context "least-developed": needs a "*" catch-all modifier`)
	assert.Contains(t, msg, `context "developed": factor 0.9 for "*" must be above 1`)
	assert.Contains(t, msg, `bad pattern "[bad"`)
}

func TestLoadDirFallsBackToEmbedded(t *testing.T) {
	r, err := LoadDir(t.TempDir())
	require.NoError(t, err)
	assert.Len(t, r.StakeholderIDs(), 9)
}

func TestValidateStakeholderShape(t *testing.T) {
	r, err := Load()
	require.NoError(t, err)

	r.stakeholders[0].TypicalQuestions = []string{"Why", "How?"}
	r.stakeholders[1].ConcernTriggers[0].Direction = "sideways"
	r.stakeholders[2].ConcernTriggers[0].Threshold = -10
	r.stakeholders[3].PositiveIndicators[0].Threshold = 0
	r.stakeholders = r.stakeholders[:8]

	err = r.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "typical_questions has 2 entries, want at least 3")
	assert.Contains(t, msg, `question "Why" does not end with '?'`)
	assert.Contains(t, msg, `direction "sideways"`)
	assert.Contains(t, msg, `stakeholder "development-partners" is missing`)
	assert.Contains(t, msg, "threshold -10 must be positive")
	assert.Contains(t, msg, "threshold 0 must be positive")
	assert.NotContains(t, msg, "placeholder")
}

func TestValidateRequiresValuePlaceholder(t *testing.T) {
	r, err := Load()
	require.NoError(t, err)

	for i := range r.stakeholders {
		for j := range r.stakeholders[i].ConcernTriggers {
			c := &r.stakeholders[i].ConcernTriggers[j]
			c.ConcernText = strings.ReplaceAll(c.ConcernText, models.ValuePlaceholder, "that level")
		}
	}
	err = r.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no concern text uses the {value} placeholder")
}

func TestSentimentRules(t *testing.T) {
	r, err := Load()
	require.NoError(t, err)

	for _, id := range models.StakeholderIDs {
		rules, err := r.SentimentRules(id)
		require.NoError(t, err, id)
		assert.NotEmpty(t, rules, id)
		assert.False(t, rules[0].ElseIf, id)
	}

	rules, err := r.SentimentRules(models.StakeholderCSOsNGOs)
	require.NoError(t, err)
	rules[0].When[0].Value = 99
	again, err := r.SentimentRules(models.StakeholderCSOsNGOs)
	require.NoError(t, err)
	assert.Equal(t, 15.0, again[0].When[0].Value)

	_, err = r.SentimentRules("nobody")
	assert.ErrorIs(t, err, ErrUnknownID)
}

func TestLoadDirRejectsBadSentiment(t *testing.T) {
	dir := t.TempDir()
	sentiment := `sentiment:
  policy-makers:
    - else_if: true
      when: [{metric: delta.reShare2050, op: above, value: 10}]
      positive: "More ambition"
      score: 2
    - when: [{metric: delta.coalPhaseout, op: around, value: 0}]
      score: 1
  ministers:
    - when: [{metric: delta.reShare2030, op: above, value: 10}]
      positive: "Unused"
      score: 1
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, SentimentFile), []byte(sentiment), 0o644))

	_, err := LoadDir(dir)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "sentiment policy-makers[0]: else_if has no rule to follow")
	assert.Contains(t, msg, `sentiment policy-makers[0]: unknown metric "delta.reShare2050"`)
	assert.Contains(t, msg, `sentiment policy-makers[1]: delta.coalPhaseout has op "around"`)
	assert.Contains(t, msg, "sentiment policy-makers[1]: no factor text")
	assert.Contains(t, msg, `sentiment: unknown stakeholder "ministers"`)
	assert.Contains(t, msg, `stakeholder "finance": sentiment rules has 0 entries, want at least 1`)
}
