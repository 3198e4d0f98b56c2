package cli

import (
	"github.com/spf13/cobra"

	"github.com/AbdouB/dialogue/internal/metrics"
	"github.com/AbdouB/dialogue/internal/models"
)

func newExploreCmd(a *app) *cobra.Command {
	var (
		id             string
		re2030, re2040 float64
		coalPhaseout   float64
	)
	cmd := &cobra.Command{
		Use:   "explore [file|-]",
		Short: "Anticipate how stakeholder sentiment shifts when targets move",
		Long: `Move the headline targets of a scenario and report, per stakeholder,
whether sentiment turns positive, negative or stays neutral, with the factors
behind it. The base targets are read off the scenario: renewable capacity
share in 2030 and 2040 and the estimated coal phaseout year. Targets without
a flag keep their base value. Results are directional only.

Example:
  dialogue explore scenario.json --re2030 65 --coal-phaseout 2035 --text
  dialogue explore --id kenya-net-zero --re2040 90`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadScenario(args, id)
			if err != nil {
				return err
			}
			var adj models.Adjustment
			if cmd.Flags().Changed("re2030") {
				adj.REShare2030 = &re2030
			}
			if cmd.Flags().Changed("re2040") {
				adj.REShare2040 = &re2040
			}
			if cmd.Flags().Changed("coal-phaseout") {
				adj.CoalPhaseout = &coalPhaseout
			}

			base := metrics.Baseline(s)
			adjusted := adj.Apply(base)
			changes, err := a.engine(false).SentimentChanges(base, adjusted)
			if err != nil {
				return err
			}
			return a.outputResult(cmd, &models.SentimentReport{Base: base, Adjusted: adjusted, Changes: changes})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Use a scenario from the library (id or name)")
	cmd.Flags().Float64Var(&re2030, "re2030", 0, "Renewable share target for 2030 in percent")
	cmd.Flags().Float64Var(&re2040, "re2040", 0, "Renewable share target for 2040 in percent")
	cmd.Flags().Float64Var(&coalPhaseout, "coal-phaseout", 0, "Coal phaseout year")
	return cmd
}
