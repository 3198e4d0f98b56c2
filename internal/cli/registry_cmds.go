package cli

import (
	"github.com/spf13/cobra"

	"github.com/AbdouB/dialogue/internal/models"
)

func newStakeholdersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stakeholders [id]",
		Short: "List stakeholder groups or show one profile",
		Long: `List the nine stakeholder groups, or show the full profile of one:
priorities, concern rules, typical questions and engagement advice.

Example:
  dialogue stakeholders
  dialogue stakeholders grid-operators --text`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return a.outputResult(cmd, a.reg.Stakeholders())
			}
			profile, err := a.reg.Stakeholder(models.StakeholderID(args[0]))
			if err != nil {
				return err
			}
			return a.outputResult(cmd, profile)
		},
	}
}

func newContextsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "contexts",
		Short: "List development contexts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.outputResult(cmd, a.reg.Contexts())
		},
	}
}

func newVariantsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "variants <stakeholder>",
		Short: "List a stakeholder's persona variants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			variants, err := a.reg.Variants(models.StakeholderID(args[0]))
			if err != nil {
				return err
			}
			return a.outputResult(cmd, variants)
		},
	}
}
