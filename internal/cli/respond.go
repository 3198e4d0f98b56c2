package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AbdouB/dialogue/internal/engine"
	"github.com/AbdouB/dialogue/internal/metrics"
	"github.com/AbdouB/dialogue/internal/models"
)

// metricResult is the output of the metric command
type metricResult struct {
	Path  string   `json:"path"`
	Value *float64 `json:"value"`
}

// loadScenario reads the scenario named by --id from the library, or the
// file (or stdin) given as the first argument
func (a *app) loadScenario(args []string, id string) (*models.Scenario, error) {
	if id != "" {
		store, err := a.store()
		if err != nil {
			return nil, err
		}
		saved, err := store.Find(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load scenario: %w", err)
		}
		if saved == nil {
			return nil, fmt.Errorf("scenario %q not found", id)
		}
		return saved.Scenario, nil
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("a scenario file, '-' for stdin, or --id is required")
	}
	return a.readScenario(args[0])
}

func newRespondCmd(a *app) *cobra.Command {
	var (
		stakeholder, contextID, variant, id string
		basic, enhance                      bool
	)
	cmd := &cobra.Command{
		Use:   "respond [file|-]",
		Short: "Generate stakeholder responses to a scenario",
		Long: `Generate how stakeholders would react to a scenario.

Without --stakeholder every group responds. Context defaults to emerging and
variant to pragmatic. --basic skips interaction triggers and framing;
--enhance rephrases the prose with a local Ollama model and falls back to the
rule-based text when the model is slow or unavailable.

Example:
  dialogue respond scenario.json -s finance -c least-developed
  dialogue respond scenario.yaml --variant progressive --text
  cat scenario.json | dialogue respond - -s public --enhance
  dialogue respond --id kenya-net-zero -s industry`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadScenario(args, id)
			if err != nil {
				return err
			}
			eng := a.engine(enhance)
			opts := engine.RevealOptions{
				Options: engine.Options{Context: models.ContextID(contextID), Variant: models.VariantID(variant)},
				Basic:   basic,
				Enhance: enhance || a.cfg.Enhancement.Enabled,
			}
			d := metrics.Derive(s)

			if stakeholder == "" {
				responses, err := eng.RevealAll(cmd.Context(), s, d, opts)
				if err != nil {
					return err
				}
				return a.outputResult(cmd, responses)
			}
			resp, err := eng.Reveal(cmd.Context(), s, d, models.StakeholderID(stakeholder), opts)
			if err != nil {
				return err
			}
			return a.outputResult(cmd, resp)
		},
	}
	cmd.Flags().StringVarP(&stakeholder, "stakeholder", "s", "", "Stakeholder id (default: all)")
	cmd.Flags().StringVarP(&contextID, "context", "c", "", "Development context: least-developed, emerging, developed")
	cmd.Flags().StringVar(&variant, "variant", "", "Persona variant: conservative, pragmatic, progressive")
	cmd.Flags().StringVar(&id, "id", "", "Use a scenario from the library (id or name)")
	cmd.Flags().BoolVar(&basic, "basic", false, "Rule-based response only, no triggers or framing")
	cmd.Flags().BoolVar(&enhance, "enhance", false, "Rephrase with the local language model")
	return cmd
}

func newCompareCmd(a *app) *cobra.Command {
	var (
		stakeholder, contextID, id string
		enhance                    bool
	)
	cmd := &cobra.Command{
		Use:   "compare [file|-]",
		Short: "Compare one stakeholder's response across persona variants",
		Long: `Generate one stakeholder's response under each persona variant
(conservative, pragmatic, progressive) so the framings can be read side by side.

Example:
  dialogue compare scenario.json -s policy-makers -c developed --text`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadScenario(args, id)
			if err != nil {
				return err
			}
			opts := engine.RevealOptions{
				Options: engine.Options{Context: models.ContextID(contextID)},
				Enhance: enhance || a.cfg.Enhancement.Enabled,
			}
			compared, err := a.engine(enhance).CompareVariants(cmd.Context(), s, metrics.Derive(s), models.StakeholderID(stakeholder), opts)
			if err != nil {
				return err
			}
			return a.outputResult(cmd, compared)
		},
	}
	cmd.Flags().StringVarP(&stakeholder, "stakeholder", "s", "", "Stakeholder id")
	cmd.Flags().StringVarP(&contextID, "context", "c", "", "Development context")
	cmd.Flags().StringVar(&id, "id", "", "Use a scenario from the library (id or name)")
	cmd.Flags().BoolVar(&enhance, "enhance", false, "Rephrase with the local language model")
	cmd.MarkFlagRequired("stakeholder")
	return cmd
}

func newMetricCmd(a *app) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "metric [file|-] <path>",
		Short: "Resolve a metric path against a scenario",
		Long: `Resolve a dotted metric path the way concern rules do. Derived
metrics win over scenario tables, which win over computed aggregates and
supplementary indicators. Unresolvable paths print a null value.

Example:
  dialogue metric scenario.json renewableShare.2030
  dialogue metric --id kenya supply.capacity.coal.retirementRate`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[len(args)-1]
			s, err := a.loadScenario(args[:len(args)-1], id)
			if err != nil {
				return err
			}
			return a.outputResult(cmd, metricResult{
				Path:  path,
				Value: metrics.GetMetricValue(s, metrics.Derive(s), path),
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Use a scenario from the library (id or name)")
	return cmd
}

func newDeriveCmd(a *app) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "derive [file|-]",
		Short: "Compute derived metrics for a scenario",
		Long: `Compute the summary statistics the engine evaluates: renewable and
fossil shares, jobs, land use, emissions intensity and investment totals.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadScenario(args, id)
			if err != nil {
				return err
			}
			return a.outputResult(cmd, metrics.Derive(s))
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Use a scenario from the library (id or name)")
	return cmd
}
