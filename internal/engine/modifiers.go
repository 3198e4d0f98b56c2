package engine

import (
	"path"

	"github.com/AbdouB/dialogue/internal/models"
)

// ApplyContextModifiers scales a threshold by the context's factor for
// metric. Metrics without a matching modifier keep their threshold.
// Thresholds are positive (the registry rejects others), so a factor
// below 1 always lowers the threshold and one above 1 raises it.
func (e *Engine) ApplyContextModifiers(base float64, metric string, contextID models.ContextID) (float64, error) {
	c, err := e.reg.Context(contextID)
	if err != nil {
		return 0, err
	}
	return base * factorFor(c.ThresholdModifiers, metric), nil
}

// ApplyVariantModifiers scales a threshold by the stakeholder variant's factor for metric
func (e *Engine) ApplyVariantModifiers(base float64, metric string, stakeholderID models.StakeholderID, variantID models.VariantID) (float64, error) {
	v, err := e.reg.Variant(stakeholderID, variantID)
	if err != nil {
		return 0, err
	}
	return base * factorFor(v.ThresholdModifiers, metric), nil
}

// AdjustThreshold applies the context modifier, then the variant modifier
// to the result. Empty ids are skipped.
func (e *Engine) AdjustThreshold(base float64, metric string, stakeholderID models.StakeholderID, opts Options) (float64, error) {
	t, err := e.resolve(stakeholderID, opts)
	if err != nil {
		return 0, err
	}
	return t.threshold(base, metric), nil
}

// factorFor returns the factor of the first modifier whose pattern
// matches metric, or 1
func factorFor(mods []models.ThresholdModifier, metric string) float64 {
	for _, m := range mods {
		if ok, _ := path.Match(m.Pattern, metric); ok {
			return m.Factor
		}
	}
	return 1
}
