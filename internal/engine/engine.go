// Package engine turns a scenario into stakeholder responses. Evaluation
// is pure and synchronous; the optional text enhancement pass is the only
// goroutine boundary and always falls back to the rule-based response.
package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/AbdouB/dialogue/internal/models"
	"github.com/AbdouB/dialogue/internal/registry"
)

// Defaults applied by the enhanced path when no context or variant is given
const (
	DefaultContext = models.ContextEmerging
	DefaultVariant = models.VariantPragmatic

	DefaultEnhanceTimeout = 3 * time.Second
)

// Engine generates stakeholder responses from an injected registry.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	reg            *registry.Registry
	logger         *zap.Logger
	enhancer       TextEnhancer
	enhanceTimeout time.Duration
	defaults       Options
	now            func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger used for enhancement outcomes
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithEnhancer installs a text enhancer. A non-positive timeout keeps
// DefaultEnhanceTimeout.
func WithEnhancer(enhancer TextEnhancer, timeout time.Duration) Option {
	return func(e *Engine) {
		e.enhancer = enhancer
		if timeout > 0 {
			e.enhanceTimeout = timeout
		}
	}
}

// WithDefaults replaces the context and variant the enhanced path falls
// back to. Empty fields keep DefaultContext and DefaultVariant.
func WithDefaults(opts Options) Option {
	return func(e *Engine) {
		e.defaults = opts.withDefaults(e.defaults)
	}
}

// WithClock overrides the clock stamping GeneratedAt
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an engine over reg
func New(reg *registry.Registry, opts ...Option) *Engine {
	e := &Engine{
		reg:            reg,
		logger:         zap.NewNop(),
		enhanceTimeout: DefaultEnhanceTimeout,
		defaults:       Options{Context: DefaultContext, Variant: DefaultVariant},
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry the engine evaluates against
func (e *Engine) Registry() *registry.Registry {
	return e.reg
}

// Options select the development context and persona variant.
// Empty ids mean no recalibration on the rule-based path.
type Options struct {
	Context models.ContextID `json:"context,omitempty"`
	Variant models.VariantID `json:"variant,omitempty"`
}

func (o Options) withDefaults(def Options) Options {
	if o.Context == "" {
		o.Context = def.Context
	}
	if o.Variant == "" {
		o.Variant = def.Variant
	}
	return o
}

// target is a stakeholder with its resolved context and variant
type target struct {
	profile models.StakeholderProfile
	context *models.ContextProfile
	variant *models.VariantProfile
}

func (e *Engine) resolve(id models.StakeholderID, opts Options) (target, error) {
	profile, err := e.reg.Stakeholder(id)
	if err != nil {
		return target{}, err
	}
	t := target{profile: profile}
	if opts.Context != "" {
		c, err := e.reg.Context(opts.Context)
		if err != nil {
			return target{}, err
		}
		t.context = &c
	}
	if opts.Variant != "" {
		v, err := e.reg.Variant(id, opts.Variant)
		if err != nil {
			return target{}, err
		}
		t.variant = &v
	}
	return t, nil
}

// threshold recalibrates a rule threshold, context first then variant
func (t target) threshold(base float64, metric string) float64 {
	return t.variantThreshold(t.contextThreshold(base, metric), metric)
}

func (t target) contextThreshold(base float64, metric string) float64 {
	if t.context == nil {
		return base
	}
	return base * factorFor(t.context.ThresholdModifiers, metric)
}

func (t target) variantThreshold(base float64, metric string) float64 {
	if t.variant == nil {
		return base
	}
	return base * factorFor(t.variant.ThresholdModifiers, metric)
}
