package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbdouB/dialogue/internal/engine"
	"github.com/AbdouB/dialogue/internal/models"
	"github.com/AbdouB/dialogue/internal/registry"
)

const scenarioJSON = `{
  "metadata": {"country": "Testland", "scenarioName": "High ambition"},
  "milestoneYears": [2030, 2040, 2050],
  "supply": {
    "capacity": {
      "solarPV": {"2030": 1200, "2040": 3000, "2050": 4500},
      "wind": {"2030": 400, "2040": 1200, "2050": 2000},
      "naturalGas": {"2030": 600, "2040": 600, "2050": 400},
      "battery": {"2030": 100, "2040": 150, "2050": 400}
    },
    "investment": {"cumulative": {"2030": 4000, "2040": 9000, "2050": 15000}}
  },
  "indicators": {"access.electrificationRate.2030": 80}
}`

const scenarioYAML = `metadata:
  country: Yamland
  scenarioName: From stdin
milestoneYears: [2030, 2050]
supply:
  capacity:
    solarPV: {2030: 1000, 2050: 3000}
    naturalGas: {2030: 800, 2050: 400}
  investment:
    cumulative: {2030: 2000, 2050: 8000}
`

// harness runs CLI invocations against one temp scenario library
type harness struct {
	t      *testing.T
	dbPath string
}

func newHarness(t *testing.T) *harness {
	return &harness{t: t, dbPath: filepath.Join(t.TempDir(), "scenarios.db")}
}

// run executes the CLI and returns stdout
func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(args, "--db", h.dbPath))
	err := cmd.Execute()
	return out.String(), err
}

func writeScenario(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.json")
	require.NoError(t, os.WriteFile(path, []byte(scenarioJSON), 0644))
	return path
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("", "version")
	require.NoError(t, err)
	assert.Equal(t, "dialogue version dev (Go)\n", out)
}

func TestStakeholdersCommand(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("", "stakeholders")
	require.NoError(t, err)
	var profiles []models.StakeholderProfile
	require.NoError(t, json.Unmarshal([]byte(out), &profiles))
	assert.Len(t, profiles, len(models.StakeholderIDs))

	out, err = h.run("", "stakeholders", "finance", "--text")
	require.NoError(t, err)
	assert.Contains(t, out, "Typical questions")

	_, err = h.run("", "stakeholders", "financiers")
	assert.ErrorIs(t, err, registry.ErrUnknownID)

	out, err = h.run("", "variants", "public")
	require.NoError(t, err)
	var variants []models.VariantProfile
	require.NoError(t, json.Unmarshal([]byte(out), &variants))
	assert.Len(t, variants, 3)

	out, err = h.run("", "contexts", "--text")
	require.NoError(t, err)
	assert.Contains(t, out, "least-developed")
}

func TestRespondCommand(t *testing.T) {
	h := newHarness(t)
	path := writeScenario(t)

	out, err := h.run("", "respond", path, "-s", "finance", "-c", "least-developed", "--variant", "conservative")
	require.NoError(t, err)
	var resp models.GeneratedResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, models.StakeholderFinance, resp.StakeholderID)
	assert.Equal(t, models.ContextLeastDeveloped, resp.Metadata.Context)
	assert.Equal(t, models.VariantConservative, resp.Metadata.Variant)
	assert.NotEmpty(t, resp.InitialReaction)

	out, err = h.run("", "respond", path, "--basic")
	require.NoError(t, err)
	var all []models.GeneratedResponse
	require.NoError(t, json.Unmarshal([]byte(out), &all))
	assert.Len(t, all, len(models.StakeholderIDs))

	out, err = h.run("", "respond", path, "-s", "grid-operators", "--text")
	require.NoError(t, err)
	assert.Contains(t, out, "Questions")
	assert.Contains(t, out, "Engagement advice")
}

func TestRespondFromStdinYAML(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(scenarioYAML, "respond", "-", "-s", "public")
	require.NoError(t, err)
	var resp models.GeneratedResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, models.StakeholderPublic, resp.StakeholderID)

	_, err = h.run("", "respond", "-", "-s", "public")
	assert.ErrorContains(t, err, "no input provided on stdin")

	_, err = h.run("", "respond", "-s", "public")
	assert.ErrorContains(t, err, "--id is required")
}

func TestCompareCommand(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("", "compare", writeScenario(t), "-s", "policy-makers")
	require.NoError(t, err)
	var compared []engine.VariantResponse
	require.NoError(t, json.Unmarshal([]byte(out), &compared))
	require.Len(t, compared, 3)
	assert.Equal(t, models.VariantProgressive, compared[2].Variant)

	_, err = h.run("", "compare", writeScenario(t))
	assert.Error(t, err)
}

func TestExploreCommand(t *testing.T) {
	h := newHarness(t)
	path := writeScenario(t)

	out, err := h.run("", "explore", path, "--coal-phaseout", "2040")
	require.NoError(t, err)
	var report models.SentimentReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, models.AdjustmentState{REShare2030: 70, REShare2040: 85, CoalPhaseout: 2030}, report.Base)
	assert.Equal(t, models.AdjustmentState{REShare2030: 70, REShare2040: 85, CoalPhaseout: 2040}, report.Adjusted)
	require.Len(t, report.Changes, 9)
	csos := report.Changes[4]
	assert.Equal(t, -5, csos.NetScore)
	assert.Equal(t, models.SentimentNegative, csos.Direction)

	out, err = h.run("", "explore", path, "--coal-phaseout", "2040", "--text")
	require.NoError(t, err)
	assert.Contains(t, out, "Coal phaseout")
	assert.Contains(t, out, "-> 2040")
	assert.Contains(t, out, csos.StakeholderName)
	assert.Contains(t, out, "(negative, significant)")
	assert.Contains(t, out, "Delayed coal phaseout incompatible with 1.5°C pathway")

	out, err = h.run(scenarioYAML, "explore", "-", "--re2030", "66")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 56.0, report.Base.REShare2030)
	assert.Equal(t, 66.0, report.Adjusted.REShare2030)
	assert.Zero(t, report.Adjusted.REShare2040)
}

func TestMetricAndDeriveCommands(t *testing.T) {
	h := newHarness(t)
	path := writeScenario(t)

	out, err := h.run("", "metric", path, "supply.investment.cumulative.2050")
	require.NoError(t, err)
	assert.JSONEq(t, `{"path": "supply.investment.cumulative.2050", "value": 15000}`, out)

	out, err = h.run("", "metric", path, "invalid.path.2030")
	require.NoError(t, err)
	assert.JSONEq(t, `{"path": "invalid.path.2030", "value": null}`, out)

	out, err = h.run("", "metric", path, "supply.investment.cumulative.2050", "--text")
	require.NoError(t, err)
	assert.Equal(t, "supply.investment.cumulative.2050 = 15,000\n", out)

	out, err = h.run("", "derive", path)
	require.NoError(t, err)
	var d models.DerivedMetrics
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.NotEmpty(t, d.RenewableShare)
}

func TestScenarioLibraryCommands(t *testing.T) {
	h := newHarness(t)
	path := writeScenario(t)

	out, err := h.run("", "scenario", "save", "testland", path)
	require.NoError(t, err)
	var saved models.ScenarioSummary
	require.NoError(t, json.Unmarshal([]byte(out), &saved))
	assert.Equal(t, "Testland", saved.Country)

	_, err = h.run("", "scenario", "save", "testland", path)
	assert.ErrorContains(t, err, "already in use")

	out, err = h.run(scenarioYAML, "scenario", "save", "testland", "-", "--replace")
	require.NoError(t, err)
	var replaced models.ScenarioSummary
	require.NoError(t, json.Unmarshal([]byte(out), &replaced))
	assert.Equal(t, saved.ID, replaced.ID)
	assert.Equal(t, "Yamland", replaced.Country)

	out, err = h.run("", "scenario", "list")
	require.NoError(t, err)
	var list []models.ScenarioSummary
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 1)

	out, err = h.run("", "respond", "--id", "testland", "-s", "industry")
	require.NoError(t, err)
	assert.Contains(t, out, `"stakeholder_id": "industry"`)

	out, err = h.run("", "scenario", "show", saved.ID)
	require.NoError(t, err)
	assert.Contains(t, out, `"Yamland"`)

	_, err = h.run("", "scenario", "delete", "testland")
	require.NoError(t, err)

	_, err = h.run("", "scenario", "show", "testland")
	assert.ErrorContains(t, err, `scenario "testland" not found`)
}

func TestOutputError(t *testing.T) {
	err := &registry.UnknownIDError{Kind: "stakeholder", ID: "financiers", Suggestions: []string{"finance"}}

	var buf bytes.Buffer
	outputError(&buf, false, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &body))
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, []interface{}{"finance"}, body["suggestions"])

	buf.Reset()
	outputError(&buf, true, errors.New("boom"))
	assert.Equal(t, "Error: boom\n", buf.String())
}
