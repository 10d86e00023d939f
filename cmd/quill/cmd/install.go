package cmd

import (
	"github.com/spf13/cobra"

	"github.com/featherline/quill/internal/plan"
)

var (
	installSkills     []string
	installAgents     []string
	installScope      string
	installAutoRepair bool
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install skills for your agents",
	Example: `  quill install -s seo -s accessibility -a cursor
  quill install -s seo --scope global`,
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := parseScope(installScope)
		if err != nil {
			return err
		}
		a, err := newApp(installAutoRepair)
		if err != nil {
			return err
		}
		if err := a.checkScope(scope); err != nil {
			return err
		}
		return a.runBatch(func() (*plan.InvocationPlan, error) {
			return a.orchestrator.InstallMany(installSkills, installAgents, scope)
		})
	},
}

func init() {
	installCmd.Flags().StringSliceVarP(&installSkills, "skill", "s", nil, "skill to install (repeatable)")
	installCmd.Flags().StringSliceVarP(&installAgents, "agent", "a", nil, "agent to install for (repeatable; default: all detected)")
	installCmd.Flags().StringVar(&installScope, "scope", "auto", "installation scope: local, global, auto, or all")
	installCmd.Flags().BoolVar(&installAutoRepair, "auto-repair", false, "reinstall automatically when verification finds missing files")
	_ = installCmd.MarkFlagRequired("skill")
	rootCmd.AddCommand(installCmd)
}
