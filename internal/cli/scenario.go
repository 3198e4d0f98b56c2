package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AbdouB/dialogue/internal/models"
)

func newScenarioCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Manage the scenario library",
		Long: `Save scenarios under a name and reuse them with --id in respond,
compare, metric and derive.

Example:
  dialogue scenario save kenya-net-zero scenario.yaml
  dialogue scenario list --country Kenya
  dialogue respond --id kenya-net-zero -s finance`,
	}
	cmd.AddCommand(
		newScenarioSaveCmd(a),
		newScenarioListCmd(a),
		newScenarioShowCmd(a),
		newScenarioDeleteCmd(a),
	)
	return cmd
}

func newScenarioSaveCmd(a *app) *cobra.Command {
	var replace bool
	cmd := &cobra.Command{
		Use:   "save <name> <file|->",
		Short: "Save a scenario under a name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			s, err := a.readScenario(args[1])
			if err != nil {
				return err
			}
			store, err := a.store()
			if err != nil {
				return err
			}

			if replace {
				existing, err := store.GetByName(name)
				if err != nil {
					return fmt.Errorf("failed to look up scenario: %w", err)
				}
				if existing != nil {
					existing.Scenario = s
					if err := store.Update(existing); err != nil {
						return fmt.Errorf("failed to update scenario: %w", err)
					}
					a.logger.Debug("scenario replaced")
					return a.outputResult(cmd, existing.Summary())
				}
			}

			saved := models.NewSavedScenario(name, s)
			if err := store.Create(saved); err != nil {
				return fmt.Errorf("failed to save scenario: %w", err)
			}
			return a.outputResult(cmd, saved.Summary())
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "Overwrite a scenario with the same name")
	return cmd
}

func newScenarioListCmd(a *app) *cobra.Command {
	var (
		country string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved scenarios, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.store()
			if err != nil {
				return err
			}
			list, err := store.List(country, limit)
			if err != nil {
				return fmt.Errorf("failed to list scenarios: %w", err)
			}
			return a.outputResult(cmd, list)
		},
	}
	cmd.Flags().StringVar(&country, "country", "", "Only scenarios for this country")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of results")
	return cmd
}

func newScenarioShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|name>",
		Short: "Show a saved scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.store()
			if err != nil {
				return err
			}
			saved, err := store.Find(args[0])
			if err != nil {
				return fmt.Errorf("failed to load scenario: %w", err)
			}
			if saved == nil {
				return fmt.Errorf("scenario %q not found", args[0])
			}
			return a.outputResult(cmd, saved)
		},
	}
}

func newScenarioDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id|name>",
		Short: "Delete a saved scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.store()
			if err != nil {
				return err
			}
			saved, err := store.Find(args[0])
			if err != nil {
				return fmt.Errorf("failed to load scenario: %w", err)
			}
			if saved == nil {
				return fmt.Errorf("scenario %q not found", args[0])
			}
			if err := store.Delete(saved.ID); err != nil {
				return fmt.Errorf("failed to delete scenario: %w", err)
			}
			return a.outputResult(cmd, map[string]string{
				"status": "deleted",
				"id":     saved.ID,
				"name":   saved.Name,
			})
		},
	}
}
