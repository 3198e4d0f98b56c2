package engine

import (
	"context"
	"errors"
	"regexp"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AbdouB/dialogue/internal/models"
)

// Fields a rewrite can target, passed in VoiceHints.Field
const (
	FieldInitialReaction = "initial_reaction"
	FieldConcern         = "concern"
	FieldAppreciation    = "appreciation"
)

// minReactionLength is the shortest acceptable initial reaction
const minReactionLength = 21

// Rewrite rejections
var (
	ErrEmptyRewrite = errors.New("enhancer returned empty text")
	ErrNewFigures   = errors.New("enhancer introduced figures not in the source text")
	ErrShortRewrite = errors.New("enhancer shortened the initial reaction too far")
)

// VoiceHints steer a rewrite towards the stakeholder's register
type VoiceHints struct {
	StakeholderID models.StakeholderID
	Name          string
	Voice         models.Voice
	Tone          *models.ToneAdjustment
	Priorities    []string
	Field         string
}

// TextEnhancer rephrases one prose field of a response
type TextEnhancer interface {
	Rewrite(ctx context.Context, text string, hints VoiceHints) (string, error)
}

// AvailabilityChecker is implemented by enhancers that can tell up front
// whether their backend is reachable
type AvailabilityChecker interface {
	Available(ctx context.Context) bool
}

type rewriteResult struct {
	texts []string
	err   error
}

// Enhance rewrites the initial reaction, concern texts and appreciations of
// a copy of resp. All rewrites must succeed within the engine's timeout or
// the copy is returned unchanged as rule-based. Enhance never fails; the
// outcome is recorded in the response metadata.
func (e *Engine) Enhance(ctx context.Context, resp *models.GeneratedResponse) *models.GeneratedResponse {
	out := resp.Clone()
	if out == nil {
		return nil
	}
	out.GenerationType = models.GenerationRuleBased
	if out.Metadata == nil {
		out.Metadata = &models.ResponseMetadata{}
	}

	if e.enhancer == nil {
		out.Metadata.Enhancement = models.EnhancementSkipped
		return out
	}

	ctx, cancel := context.WithTimeout(ctx, e.enhanceTimeout)
	defer cancel()

	if checker, ok := e.enhancer.(AvailabilityChecker); ok && !checker.Available(ctx) {
		e.fallback(out, models.EnhancementUnavailable, nil)
		return out
	}

	// the goroutine may outlive this call, so it reads its own copy
	src, hints := out.Clone(), e.hints(out)
	done := make(chan rewriteResult, 1)
	go func() {
		texts, err := e.rewriteAll(ctx, src, hints)
		done <- rewriteResult{texts: texts, err: err}
	}()

	select {
	case <-ctx.Done():
		e.fallback(out, ctxOutcome(ctx.Err()), ctx.Err())
		return out
	case res := <-done:
		if res.err != nil {
			outcome := models.EnhancementFailed
			if ctx.Err() != nil {
				outcome = ctxOutcome(ctx.Err())
			}
			e.fallback(out, outcome, res.err)
			return out
		}
		apply(out, res.texts)
		out.GenerationType = models.GenerationAIEnhanced
		out.Metadata.Enhancement = models.EnhancementApplied
		return out
	}
}

func ctxOutcome(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.EnhancementTimeout
	}
	return models.EnhancementCanceled
}

func (e *Engine) fallback(out *models.GeneratedResponse, outcome string, err error) {
	out.Metadata.Enhancement = outcome
	fields := []zap.Field{
		zap.String("stakeholder", string(out.StakeholderID)),
		zap.String("outcome", outcome),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	if outcome == models.EnhancementFailed {
		e.logger.Warn("Text enhancement failed, keeping rule-based response", fields...)
		return
	}
	e.logger.Debug("Text enhancement skipped", fields...)
}

func (e *Engine) hints(resp *models.GeneratedResponse) VoiceHints {
	h := VoiceHints{StakeholderID: resp.StakeholderID, Name: resp.StakeholderName}
	if voice, err := e.reg.Voice(resp.StakeholderID); err == nil {
		h.Voice = voice
	}
	if md := resp.Metadata; md != nil {
		if md.Tone != nil {
			tone := *md.Tone
			h.Tone = &tone
		}
		for _, p := range md.Priorities {
			h.Priorities = append(h.Priorities, p.Priority)
		}
	}
	return h
}

type rewriteJob struct {
	field string
	text  string
}

// rewriteAll rewrites every prose field concurrently. Results are in job
// order: reaction, concerns, appreciations.
func (e *Engine) rewriteAll(ctx context.Context, resp *models.GeneratedResponse, hints VoiceHints) ([]string, error) {
	jobs := []rewriteJob{{field: FieldInitialReaction, text: resp.InitialReaction}}
	for _, c := range resp.Concerns {
		jobs = append(jobs, rewriteJob{field: FieldConcern, text: c.Text})
	}
	for _, a := range resp.Appreciation {
		jobs = append(jobs, rewriteJob{field: FieldAppreciation, text: a})
	}

	results := make([]string, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			h := hints
			h.Field = job.field
			text, err := e.enhancer.Rewrite(gctx, job.text, h)
			if err != nil {
				return err
			}
			text, err = checkRewrite(job, text)
			if err != nil {
				return err
			}
			results[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

var figurePattern = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

// checkRewrite rejects rewrites that are empty, carry figures the
// original does not, or shrink the initial reaction below its minimum
func checkRewrite(job rewriteJob, rewritten string) (string, error) {
	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return "", ErrEmptyRewrite
	}
	known := figures(job.text)
	for _, f := range figures(rewritten) {
		if !slices.Contains(known, f) {
			return "", ErrNewFigures
		}
	}
	if job.field == FieldInitialReaction && len(rewritten) < minReactionLength {
		return "", ErrShortRewrite
	}
	return rewritten, nil
}

func figures(text string) []string {
	var out []string
	for _, m := range figurePattern.FindAllString(text, -1) {
		out = append(out, strings.TrimRight(strings.ReplaceAll(m, ",", ""), "."))
	}
	return out
}

func apply(resp *models.GeneratedResponse, texts []string) {
	resp.InitialReaction = texts[0]
	i := 1
	for j := range resp.Concerns {
		resp.Concerns[j].Text = texts[i]
		i++
	}
	for j := range resp.Appreciation {
		resp.Appreciation[j] = texts[i]
		i++
	}
}

// Enhancer states reported by EnhancerStatus
const (
	EnhancerDisabled    = "disabled"
	EnhancerAvailable   = "available"
	EnhancerUnavailable = "unavailable"
	EnhancerConfigured  = "configured"
)

// EnhancerStatus reports whether enhancement can currently run. Enhancers
// without an availability check are reported as configured.
func (e *Engine) EnhancerStatus(ctx context.Context) string {
	if e.enhancer == nil {
		return EnhancerDisabled
	}
	checker, ok := e.enhancer.(AvailabilityChecker)
	if !ok {
		return EnhancerConfigured
	}
	if checker.Available(ctx) {
		return EnhancerAvailable
	}
	return EnhancerUnavailable
}
