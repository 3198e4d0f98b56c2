package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/AbdouB/dialogue/internal/models"
)

// RevealOptions select how a response is produced
type RevealOptions struct {
	Options
	Basic   bool // rule-based path only, no triggers or framing
	Enhance bool // run the text enhancement pass
}

// Reveal produces a stakeholder's response the way a user asks for it:
// the enhanced path by default, optionally followed by the text pass
func (e *Engine) Reveal(ctx context.Context, s *models.Scenario, d *models.DerivedMetrics, id models.StakeholderID, opts RevealOptions) (*models.GeneratedResponse, error) {
	var (
		resp *models.GeneratedResponse
		err  error
	)
	if opts.Basic {
		resp, err = e.GenerateRuleBasedResponse(s, d, id, opts.Options)
	} else {
		resp, err = e.GenerateEnhancedResponse(s, d, id, opts.Options)
	}
	if err != nil {
		return nil, err
	}
	if opts.Enhance {
		resp = e.Enhance(ctx, resp)
	}
	return resp, nil
}

// RevealAll produces responses for every stakeholder in registry order
func (e *Engine) RevealAll(ctx context.Context, s *models.Scenario, d *models.DerivedMetrics, opts RevealOptions) ([]*models.GeneratedResponse, error) {
	ids := e.reg.StakeholderIDs()
	out := make([]*models.GeneratedResponse, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			resp, err := e.Reveal(gctx, s, d, id, opts)
			if err != nil {
				return err
			}
			out[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// VariantResponse pairs a persona variant with the response it produced
type VariantResponse struct {
	Variant  models.VariantID          `json:"variant"`
	Response *models.GeneratedResponse `json:"response"`
}

// CompareVariants produces one stakeholder's response under each of its
// persona variants, in registry order. opts.Variant is ignored.
func (e *Engine) CompareVariants(ctx context.Context, s *models.Scenario, d *models.DerivedMetrics, id models.StakeholderID, opts RevealOptions) ([]VariantResponse, error) {
	variants, err := e.reg.Variants(id)
	if err != nil {
		return nil, err
	}
	out := make([]VariantResponse, len(variants))

	g, gctx := errgroup.WithContext(ctx)
	for i, v := range variants {
		i, v := i, v
		g.Go(func() error {
			vopts := opts
			vopts.Variant = v.ID
			resp, err := e.Reveal(gctx, s, d, id, vopts)
			if err != nil {
				return err
			}
			out[i] = VariantResponse{Variant: v.ID, Response: resp}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
