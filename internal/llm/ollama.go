// Package llm rephrases response prose with a local Ollama model
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/AbdouB/dialogue/internal/engine"
)

const (
	DefaultBaseURL     = "http://localhost:11434/api"
	DefaultModel       = "gemma2:2b"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 400

	// MaxRewriteLength caps a rewrite in characters
	MaxRewriteLength = 300

	checkTimeout    = time.Second
	availabilityTTL = 30 * time.Second
)

// ErrEmptyOutput is returned when the model produced no usable text
var ErrEmptyOutput = errors.New("ollama returned no text")

var (
	_ engine.TextEnhancer        = (*OllamaEnhancer)(nil)
	_ engine.AvailabilityChecker = (*OllamaEnhancer)(nil)
)

// Config configures the Ollama enhancer
type Config struct {
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	HTTPClient  *http.Client
}

// OllamaEnhancer rewrites text through Ollama's generate endpoint
type OllamaEnhancer struct {
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	logger      *zap.Logger

	mu        sync.Mutex
	available bool
	checkedAt time.Time
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

type tagsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

// NewOllamaEnhancer creates an enhancer. The base URL may be given with
// or without the /api suffix.
func NewOllamaEnhancer(cfg Config, logger *zap.Logger) *OllamaEnhancer {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/api") {
		baseURL += "/api"
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OllamaEnhancer{
		baseURL:     baseURL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  cfg.HTTPClient,
		logger:      logger.Named("ollama"),
	}
}

// Model returns the model name requests are sent to
func (o *OllamaEnhancer) Model() string {
	return o.model
}

// Rewrite asks the model to rephrase text in the stakeholder's voice
func (o *OllamaEnhancer) Rewrite(ctx context.Context, text string, hints engine.VoiceHints) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  o.model,
		Prompt: BuildPrompt(text, hints),
		Stream: false,
		Options: map[string]any{
			"temperature": o.temperature,
			"num_predict": o.maxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ollama request failed: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("ollama error: %s", out.Error)
	}

	cleaned := CleanOutput(out.Response)
	if cleaned == "" {
		return "", ErrEmptyOutput
	}
	o.logger.Debug("Rewrote text",
		zap.String("stakeholder", string(hints.StakeholderID)),
		zap.String("field", hints.Field),
		zap.Int("chars", len(cleaned)))
	return cleaned, nil
}

// Available reports whether the server answers and has the model pulled.
// Results are cached briefly so a burst of responses checks once.
func (o *OllamaEnhancer) Available(ctx context.Context) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.checkedAt.IsZero() && time.Since(o.checkedAt) < availabilityTTL {
		return o.available
	}

	o.available = o.checkModel(ctx)
	o.checkedAt = time.Now()
	return o.available
}

func (o *OllamaEnhancer) checkModel(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/tags", nil)
	if err != nil {
		return false
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		o.logger.Debug("Ollama not reachable", zap.Error(err))
		return false
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return false
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return false
	}
	for _, m := range tags.Models {
		if modelMatches(o.model, m.Name) || modelMatches(o.model, m.Model) {
			return true
		}
	}
	o.logger.Debug("Ollama model not pulled", zap.String("model", o.model))
	return false
}

// modelMatches treats an untagged model name as :latest
func modelMatches(want, have string) bool {
	if have == "" {
		return false
	}
	if want == have {
		return true
	}
	return !strings.Contains(want, ":") && have == want+":latest"
}

// CleanOutput trims model chatter: surrounding whitespace and quotes, a
// leading label, and anything past MaxRewriteLength
func CleanOutput(s string) string {
	s = strings.TrimSpace(s)
	for _, label := range []string{"Rewritten:", "Rewrite:", "Response:"} {
		if strings.HasPrefix(s, label) {
			s = strings.TrimSpace(strings.TrimPrefix(s, label))
		}
	}
	s = strings.Trim(s, "\"'“”")
	s = strings.TrimSpace(s)

	if utf8.RuneCountInString(s) > MaxRewriteLength {
		runes := []rune(s)[:MaxRewriteLength]
		s = string(runes)
		if i := strings.LastIndexAny(s, ".!?"); i > MaxRewriteLength/2 {
			s = s[:i+1]
		}
	}
	return s
}
