// Package server exposes the response engine and the scenario library over HTTP
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/AbdouB/dialogue/internal/db"
	"github.com/AbdouB/dialogue/internal/engine"
	"github.com/AbdouB/dialogue/internal/metrics"
	"github.com/AbdouB/dialogue/internal/models"
	"github.com/AbdouB/dialogue/internal/registry"
)

// maxBodyBytes bounds request bodies; scenarios are a few hundred KB at most
const maxBodyBytes = 8 << 20

// ScenarioStore is the subset of the scenario library the API uses
type ScenarioStore interface {
	Create(saved *models.SavedScenario) error
	Find(ref string) (*models.SavedScenario, error)
	List(country string, limit int) ([]models.ScenarioSummary, error)
	Update(saved *models.SavedScenario) error
	Delete(id string) error
}

// Handlers contains all HTTP handlers
type Handlers struct {
	engine  *engine.Engine
	store   ScenarioStore
	derived *derivedCache
	metrics *Metrics
	logger  *zap.Logger

	// enhanceByDefault applies when a request leaves "enhance" unset
	enhanceByDefault bool
}

// HandlersConfig wires optional collaborators into Handlers
type HandlersConfig struct {
	Store            ScenarioStore
	Metrics          *Metrics
	Logger           *zap.Logger
	CacheSize        int
	EnhanceByDefault bool
}

// NewHandlers creates handlers over eng. A nil store disables the
// scenario library routes.
func NewHandlers(eng *engine.Engine, cfg HandlersConfig) (*Handlers, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, err := newDerivedCache(cfg.CacheSize, cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create derived metrics cache: %w", err)
	}
	return &Handlers{
		engine:           eng,
		store:            cfg.Store,
		derived:          cache,
		metrics:          cfg.Metrics,
		logger:           logger,
		enhanceByDefault: cfg.EnhanceByDefault,
	}, nil
}

// responseRequest asks for one stakeholder's response, or every
// stakeholder's when Stakeholder is empty
type responseRequest struct {
	Scenario    *models.Scenario     `json:"scenario"`
	Stakeholder models.StakeholderID `json:"stakeholder,omitempty"`
	Context     models.ContextID     `json:"context,omitempty"`
	Variant     models.VariantID     `json:"variant,omitempty"`
	Basic       bool                 `json:"basic,omitempty"`
	Enhance     *bool                `json:"enhance,omitempty"`
}

func (req responseRequest) revealOptions(enhanceByDefault bool) engine.RevealOptions {
	enhance := enhanceByDefault
	if req.Enhance != nil {
		enhance = *req.Enhance
	}
	return engine.RevealOptions{
		Options: engine.Options{Context: req.Context, Variant: req.Variant},
		Basic:   req.Basic,
		Enhance: enhance,
	}
}

type metricRequest struct {
	Scenario *models.Scenario `json:"scenario"`
	Path     string           `json:"path"`
}

// sentimentRequest explores an adjustment against either explicit base
// targets or the targets read off a scenario
type sentimentRequest struct {
	Scenario *models.Scenario        `json:"scenario,omitempty"`
	Base     *models.AdjustmentState `json:"base,omitempty"`
	Adjusted models.Adjustment       `json:"adjusted"`
}

type scenarioRequest struct {
	Name     string           `json:"name"`
	Scenario *models.Scenario `json:"scenario"`
}

// HealthCheck reports liveness and enhancer reachability
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "healthy",
		"stakeholders": len(h.engine.Registry().StakeholderIDs()),
		"enhancer":     h.engine.EnhancerStatus(r.Context()),
		"library":      h.store != nil,
	})
}

// ListStakeholders returns every stakeholder profile in registry order
func (h *Handlers) ListStakeholders(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.Registry().Stakeholders())
}

// GetStakeholder returns one profile
func (h *Handlers) GetStakeholder(w http.ResponseWriter, r *http.Request) {
	profile, err := h.engine.Registry().Stakeholder(models.StakeholderID(chi.URLParam(r, "id")))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// ListVariants returns a stakeholder's persona variants
func (h *Handlers) ListVariants(w http.ResponseWriter, r *http.Request) {
	variants, err := h.engine.Registry().Variants(models.StakeholderID(chi.URLParam(r, "id")))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, variants)
}

// ListContexts returns the development contexts
func (h *Handlers) ListContexts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.Registry().Contexts())
}

// GenerateResponses reveals responses for a posted scenario
func (h *Handlers) GenerateResponses(w http.ResponseWriter, r *http.Request) {
	var req responseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Scenario == nil {
		respondError(w, http.StatusBadRequest, "scenario is required")
		return
	}
	h.reveal(w, r, req, metrics.Derive(req.Scenario))
}

// CompareVariants reveals one stakeholder's response under each variant
func (h *Handlers) CompareVariants(w http.ResponseWriter, r *http.Request) {
	var req responseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Scenario == nil || req.Stakeholder == "" {
		respondError(w, http.StatusBadRequest, "scenario and stakeholder are required")
		return
	}

	start := time.Now()
	compared, err := h.engine.CompareVariants(r.Context(), req.Scenario, metrics.Derive(req.Scenario), req.Stakeholder, req.revealOptions(h.enhanceByDefault))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	responses := make([]*models.GeneratedResponse, len(compared))
	for i, c := range compared {
		responses[i] = c.Response
	}
	h.metrics.ObserveResponses("compare", time.Since(start), responses...)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"stakeholder": req.Stakeholder,
		"variants":    compared,
	})
}

// MetricValue resolves one metric path against a posted scenario.
// Unresolvable paths answer with a null value.
func (h *Handlers) MetricValue(w http.ResponseWriter, r *http.Request) {
	var req metricRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Scenario == nil || req.Path == "" {
		respondError(w, http.StatusBadRequest, "scenario and path are required")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"path":  req.Path,
		"value": metrics.GetMetricValue(req.Scenario, metrics.Derive(req.Scenario), req.Path),
	})
}

// DeriveMetrics computes derived metrics for a posted scenario
func (h *Handlers) DeriveMetrics(w http.ResponseWriter, r *http.Request) {
	var req metricRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Scenario == nil {
		respondError(w, http.StatusBadRequest, "scenario is required")
		return
	}
	respondJSON(w, http.StatusOK, metrics.Derive(req.Scenario))
}

// SentimentChanges scores every stakeholder's reaction to moved targets
func (h *Handlers) SentimentChanges(w http.ResponseWriter, r *http.Request) {
	var req sentimentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var base models.AdjustmentState
	switch {
	case req.Base != nil:
		base = *req.Base
	case req.Scenario != nil:
		base = metrics.Baseline(req.Scenario)
	default:
		respondError(w, http.StatusBadRequest, "scenario or base is required")
		return
	}
	report, err := h.explore(base, req.Adjusted)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// ScenarioSentiment scores reactions to moved targets of a stored scenario
func (h *Handlers) ScenarioSentiment(w http.ResponseWriter, r *http.Request) {
	saved, ok := h.findScenario(w, r)
	if !ok {
		return
	}
	var req sentimentRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	report, err := h.explore(metrics.Baseline(saved.Scenario), req.Adjusted)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *Handlers) explore(base models.AdjustmentState, adj models.Adjustment) (*models.SentimentReport, error) {
	adjusted := adj.Apply(base)
	changes, err := h.engine.SentimentChanges(base, adjusted)
	if err != nil {
		return nil, err
	}
	return &models.SentimentReport{Base: base, Adjusted: adjusted, Changes: changes}, nil
}

// ListScenarios lists the scenario library
func (h *Handlers) ListScenarios(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	list, err := h.store.List(r.URL.Query().Get("country"), limit)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// CreateScenario saves a scenario under a unique name
func (h *Handlers) CreateScenario(w http.ResponseWriter, r *http.Request) {
	var req scenarioRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" || req.Scenario == nil {
		respondError(w, http.StatusBadRequest, "name and scenario are required")
		return
	}
	saved := models.NewSavedScenario(req.Name, req.Scenario)
	if err := h.store.Create(saved); err != nil {
		h.respondErr(w, err)
		return
	}
	h.logger.Info("scenario saved", zap.String("id", saved.ID), zap.String("name", saved.Name))
	respondJSON(w, http.StatusCreated, saved.Summary())
}

// GetScenario returns a stored scenario by id or name
func (h *Handlers) GetScenario(w http.ResponseWriter, r *http.Request) {
	saved, ok := h.findScenario(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

// UpdateScenario replaces a stored scenario's payload and optionally its name
func (h *Handlers) UpdateScenario(w http.ResponseWriter, r *http.Request) {
	saved, ok := h.findScenario(w, r)
	if !ok {
		return
	}
	var req scenarioRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Scenario == nil {
		respondError(w, http.StatusBadRequest, "scenario is required")
		return
	}
	saved.Scenario = req.Scenario
	if req.Name != "" {
		saved.Name = req.Name
	}
	if err := h.store.Update(saved); err != nil {
		h.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, saved.Summary())
}

// DeleteScenario removes a stored scenario
func (h *Handlers) DeleteScenario(w http.ResponseWriter, r *http.Request) {
	saved, ok := h.findScenario(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(saved.ID); err != nil {
		h.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ScenarioDerived returns cached derived metrics of a stored scenario
func (h *Handlers) ScenarioDerived(w http.ResponseWriter, r *http.Request) {
	saved, ok := h.findScenario(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, h.derived.get(saved))
}

// ScenarioResponses reveals responses for a stored scenario
func (h *Handlers) ScenarioResponses(w http.ResponseWriter, r *http.Request) {
	saved, ok := h.findScenario(w, r)
	if !ok {
		return
	}
	var req responseRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	req.Scenario = saved.Scenario
	h.reveal(w, r, req, h.derived.get(saved))
}

func (h *Handlers) reveal(w http.ResponseWriter, r *http.Request, req responseRequest, d *models.DerivedMetrics) {
	opts := req.revealOptions(h.enhanceByDefault)
	start := time.Now()

	if req.Stakeholder == "" {
		responses, err := h.engine.RevealAll(r.Context(), req.Scenario, d, opts)
		if err != nil {
			h.respondErr(w, err)
			return
		}
		h.metrics.ObserveResponses("all", time.Since(start), responses...)
		respondJSON(w, http.StatusOK, map[string]interface{}{"responses": responses})
		return
	}

	resp, err := h.engine.Reveal(r.Context(), req.Scenario, d, req.Stakeholder, opts)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	h.metrics.ObserveResponses("single", time.Since(start), resp)
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handlers) findScenario(w http.ResponseWriter, r *http.Request) (*models.SavedScenario, bool) {
	ref := chi.URLParam(r, "id")
	saved, err := h.store.Find(ref)
	if err != nil {
		h.respondErr(w, err)
		return nil, false
	}
	if saved == nil {
		respondError(w, http.StatusNotFound, fmt.Sprintf("scenario %q not found", ref))
		return nil, false
	}
	return saved, true
}

// respondErr maps domain errors to status codes. Unknown ids are the
// caller's fault; anything unexpected is logged and hidden.
func (h *Handlers) respondErr(w http.ResponseWriter, err error) {
	var unknown *registry.UnknownIDError
	switch {
	case errors.As(err, &unknown):
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":       err.Error(),
			"suggestions": unknown.Suggestions,
		})
	case errors.Is(err, db.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, db.ErrNameTaken):
		respondError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "An internal error occurred")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
