package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AbdouB/dialogue/internal/db"
	"github.com/AbdouB/dialogue/internal/engine"
	"github.com/AbdouB/dialogue/internal/models"
	"github.com/AbdouB/dialogue/internal/registry"
)

type testServer struct {
	router  http.Handler
	metrics *Metrics
	store   *db.ScenarioRepository
}

func newTestServer(t *testing.T, enhanceByDefault bool, opts ...engine.Option) *testServer {
	t.Helper()
	reg, err := registry.Load()
	require.NoError(t, err)

	database, err := db.Open(filepath.Join(t.TempDir(), "scenarios.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	store := db.NewScenarioRepository(database)

	promReg := prometheus.NewRegistry()
	m := MustNewMetrics(promReg)

	h, err := NewHandlers(engine.New(reg, opts...), HandlersConfig{
		Store:            store,
		Metrics:          m,
		Logger:           zap.NewNop(),
		CacheSize:        4,
		EnhanceByDefault: enhanceByDefault,
	})
	require.NoError(t, err)

	return &testServer{
		router:  SetupRoutes(h, []string{"http://localhost:5173"}, promReg),
		metrics: m,
		store:   store,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func apiScenario() *models.Scenario {
	return &models.Scenario{
		Metadata:       models.ScenarioMetadata{Country: "Testland", ScenarioName: "High ambition"},
		MilestoneYears: []int{2030, 2040, 2050},
		Supply: models.Supply{
			Capacity: map[models.Technology]models.Series{
				models.TechSolarPV:    {2030: 1200, 2040: 3000, 2050: 4500},
				models.TechWind:       {2030: 400, 2040: 1200, 2050: 2000},
				models.TechNaturalGas: {2030: 600, 2040: 600, 2050: 400},
				models.TechBattery:    {2030: 100, 2040: 150, 2050: 400},
			},
			Investment: models.Investment{
				Cumulative: models.Series{2030: 4000, 2040: 9000, 2050: 15000},
			},
		},
		Indicators: map[string]float64{"access.electrificationRate.2030": 80},
	}
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(len(models.StakeholderIDs)), body["stakeholders"])
	assert.Equal(t, engine.EnhancerDisabled, body["enhancer"])
	assert.Equal(t, true, body["library"])
}

func TestRegistryRoutes(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(t, http.MethodGet, "/api/stakeholders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.StakeholderProfile](t, rec), len(models.StakeholderIDs))

	rec = ts.do(t, http.MethodGet, "/api/stakeholders/policy-makers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StakeholderPolicyMakers, decode[models.StakeholderProfile](t, rec).ID)

	rec = ts.do(t, http.MethodGet, "/api/stakeholders/policy-makers/variants", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.VariantProfile](t, rec), 3)

	rec = ts.do(t, http.MethodGet, "/api/contexts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.ContextProfile](t, rec), 3)

	rec = ts.do(t, http.MethodGet, "/api/stakeholders/policy-maker", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[map[string]interface{}](t, rec)
	assert.Contains(t, body["error"], `unknown stakeholder "policy-maker"`)
	assert.Contains(t, body["suggestions"], "policy-makers")
}

func TestGenerateResponse(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(t, http.MethodPost, "/api/responses", map[string]interface{}{
		"scenario":    apiScenario(),
		"stakeholder": "policy-makers",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[models.GeneratedResponse](t, rec)
	assert.Equal(t, models.StakeholderPolicyMakers, resp.StakeholderID)
	assert.Equal(t, models.GenerationRuleBased, resp.GenerationType)
	require.NotNil(t, resp.Metadata)
	assert.Equal(t, models.ContextEmerging, resp.Metadata.Context)
	assert.GreaterOrEqual(t, len(resp.Questions), 3)

	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.responses.WithLabelValues("policy-makers", "rule-based")))
	assert.Equal(t, 1, testutil.CollectAndCount(ts.metrics.duration))
}

func TestGenerateAllResponses(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(t, http.MethodPost, "/api/responses", map[string]interface{}{
		"scenario": apiScenario(),
		"context":  "least-developed",
		"basic":    true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[struct {
		Responses []models.GeneratedResponse `json:"responses"`
	}](t, rec)
	require.Len(t, body.Responses, len(models.StakeholderIDs))
	for _, resp := range body.Responses {
		assert.Equal(t, models.ContextLeastDeveloped, resp.Metadata.Context)
		assert.Zero(t, resp.Metadata.InteractionTriggersCount)
	}
}

func TestGenerateResponseErrors(t *testing.T) {
	ts := newTestServer(t, false)

	tests := []struct {
		name string
		body interface{}
		want int
	}{
		{"missing scenario", map[string]interface{}{"stakeholder": "finance"}, http.StatusBadRequest},
		{"unknown stakeholder", map[string]interface{}{"scenario": apiScenario(), "stakeholder": "bankers"}, http.StatusBadRequest},
		{"unknown context", map[string]interface{}{"scenario": apiScenario(), "stakeholder": "finance", "context": "mars"}, http.StatusBadRequest},
		{"unknown variant", map[string]interface{}{"scenario": apiScenario(), "stakeholder": "finance", "variant": "radical"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/responses", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/responses", strings.NewReader("{scenario"))
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid JSON body")
}

func TestCompareVariantsRoute(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(t, http.MethodPost, "/api/responses/compare", map[string]interface{}{
		"scenario":    apiScenario(),
		"stakeholder": "grid-operators",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[struct {
		Stakeholder models.StakeholderID     `json:"stakeholder"`
		Variants    []engine.VariantResponse `json:"variants"`
	}](t, rec)
	assert.Equal(t, models.StakeholderGridOperators, body.Stakeholder)
	require.Len(t, body.Variants, 3)
	assert.Equal(t, models.VariantConservative, body.Variants[0].Variant)
	assert.Equal(t, 3.0, testutil.ToFloat64(ts.metrics.responses.WithLabelValues("grid-operators", "rule-based")))

	rec = ts.do(t, http.MethodPost, "/api/responses/compare", map[string]interface{}{"scenario": apiScenario()})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricRoutes(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(t, http.MethodPost, "/api/metrics/value", map[string]interface{}{
		"scenario": apiScenario(),
		"path":     "supply.investment.cumulative.2050",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]interface{}](t, rec)
	assert.Equal(t, 15000.0, body["value"])

	rec = ts.do(t, http.MethodPost, "/api/metrics/value", map[string]interface{}{
		"scenario": apiScenario(),
		"path":     "invalid.path.2030",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode[map[string]interface{}](t, rec)
	assert.Contains(t, body, "value")
	assert.Nil(t, body["value"])

	rec = ts.do(t, http.MethodPost, "/api/derived", map[string]interface{}{"scenario": apiScenario()})
	require.Equal(t, http.StatusOK, rec.Code)
	derived := decode[models.DerivedMetrics](t, rec)
	assert.NotEmpty(t, derived.RenewableShare)
}

func TestScenarioLibrary(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(t, http.MethodPost, "/api/scenarios", map[string]interface{}{
		"name":     "testland-high",
		"scenario": apiScenario(),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.ScenarioSummary](t, rec)
	assert.Equal(t, "Testland", created.Country)

	rec = ts.do(t, http.MethodPost, "/api/scenarios", map[string]interface{}{
		"name":     "testland-high",
		"scenario": apiScenario(),
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []models.ScenarioSummary{created}, decode[[]models.ScenarioSummary](t, rec))

	// lookups work by name as well as id
	rec = ts.do(t, http.MethodGet, "/api/scenarios/testland-high", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decode[models.SavedScenario](t, rec).ID)

	for i := 0; i < 2; i++ {
		rec = ts.do(t, http.MethodGet, "/api/scenarios/"+created.ID+"/derived", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.cache.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.cache.WithLabelValues("hit")))

	rec = ts.do(t, http.MethodPost, "/api/scenarios/"+created.ID+"/responses", map[string]interface{}{
		"stakeholder": "finance",
		"variant":     "conservative",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.VariantConservative, decode[models.GeneratedResponse](t, rec).Metadata.Variant)

	rec = ts.do(t, http.MethodPost, "/api/scenarios/"+created.ID+"/responses", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := apiScenario()
	updated.Metadata.Country = "Otherland"
	rec = ts.do(t, http.MethodPut, "/api/scenarios/"+created.ID, map[string]interface{}{"scenario": updated})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Otherland", decode[models.ScenarioSummary](t, rec).Country)

	rec = ts.do(t, http.MethodDelete, "/api/scenarios/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/scenarios/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/scenarios?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDerivedCacheKeysOnPayload(t *testing.T) {
	cache, err := newDerivedCache(4, nil)
	require.NoError(t, err)

	saved := models.NewSavedScenario("testland", apiScenario())
	first := cache.get(saved)
	assert.Same(t, first, cache.get(saved))

	// same id and timestamp, different payload
	saved.Scenario = apiScenario()
	saved.Scenario.Supply.Capacity[models.TechSolarPV][2030] = 100
	second := cache.get(saved)
	assert.NotSame(t, first, second)
	assert.NotEqual(t, first.RenewableShare[2030], second.RenewableShare[2030])
	assert.Equal(t, 2, cache.len())
}

func TestSentimentRoutes(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(t, http.MethodPost, "/api/sentiment", map[string]interface{}{
		"scenario": apiScenario(),
		"adjusted": map[string]interface{}{"coal_phaseout": 2040},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decode[models.SentimentReport](t, rec)
	assert.Equal(t, models.AdjustmentState{REShare2030: 70, REShare2040: 85, CoalPhaseout: 2030}, report.Base)
	assert.Equal(t, 2040.0, report.Adjusted.CoalPhaseout)
	require.Len(t, report.Changes, len(models.StakeholderIDs))
	csos := report.Changes[4]
	assert.Equal(t, models.StakeholderCSOsNGOs, csos.StakeholderID)
	assert.Equal(t, -5, csos.NetScore)
	assert.Equal(t, models.SentimentNegative, csos.Direction)
	assert.Equal(t, models.MagnitudeSignificant, csos.Magnitude)

	rec = ts.do(t, http.MethodPost, "/api/sentiment", map[string]interface{}{
		"base":     models.AdjustmentState{REShare2030: 30, REShare2040: 50, CoalPhaseout: 2045},
		"adjusted": map[string]interface{}{"re_share_2030": 42},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report = decode[models.SentimentReport](t, rec)
	assert.Equal(t, models.AdjustmentState{REShare2030: 42, REShare2040: 50, CoalPhaseout: 2045}, report.Adjusted)

	rec = ts.do(t, http.MethodPost, "/api/sentiment", map[string]interface{}{"adjusted": map[string]interface{}{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	saved := models.NewSavedScenario("testland-explore", apiScenario())
	require.NoError(t, ts.store.Create(saved))
	rec = ts.do(t, http.MethodPost, "/api/scenarios/testland-explore/sentiment", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report = decode[models.SentimentReport](t, rec)
	assert.Equal(t, report.Base, report.Adjusted)
	assert.Len(t, report.Changes, len(models.StakeholderIDs))
}

type prefixEnhancer struct{}

func (prefixEnhancer) Rewrite(_ context.Context, text string, _ engine.VoiceHints) (string, error) {
	return "Frankly, " + text, nil
}

func TestEnhancedByDefault(t *testing.T) {
	ts := newTestServer(t, true, engine.WithEnhancer(prefixEnhancer{}, time.Second))

	rec := ts.do(t, http.MethodPost, "/api/responses", map[string]interface{}{
		"scenario":    apiScenario(),
		"stakeholder": "policy-makers",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[models.GeneratedResponse](t, rec)
	assert.Equal(t, models.GenerationAIEnhanced, resp.GenerationType)
	assert.True(t, strings.HasPrefix(resp.InitialReaction, "Frankly, "))
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.enhancement.WithLabelValues(models.EnhancementApplied)))

	rec = ts.do(t, http.MethodPost, "/api/responses", map[string]interface{}{
		"scenario":    apiScenario(),
		"stakeholder": "policy-makers",
		"enhance":     false,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.GenerationRuleBased, decode[models.GeneratedResponse](t, rec).GenerationType)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, false)
	ts.do(t, http.MethodPost, "/api/responses", map[string]interface{}{
		"scenario":    apiScenario(),
		"stakeholder": "finance",
	})

	rec := ts.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `dialogue_responses_generated_total{generation_type="rule-based",stakeholder="finance"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodOptions, "/api/responses", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, ln, http.NotFoundHandler(), zap.NewNop())
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
