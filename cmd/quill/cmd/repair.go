package cmd

import (
	"github.com/spf13/cobra"

	"github.com/featherline/quill/internal/plan"
)

var (
	repairSkills []string
	repairAgents []string
	repairScope  string
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Force-reinstall skills whose files are missing or damaged",
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := parseScope(repairScope)
		if err != nil {
			return err
		}
		a, err := newApp(false)
		if err != nil {
			return err
		}
		if err := a.checkScope(scope); err != nil {
			return err
		}
		return a.runBatch(func() (*plan.InvocationPlan, error) {
			return a.orchestrator.RepairMany(repairSkills, repairAgents, scope)
		})
	},
}

func init() {
	repairCmd.Flags().StringSliceVarP(&repairSkills, "skill", "s", nil, "skill to repair (repeatable)")
	repairCmd.Flags().StringSliceVarP(&repairAgents, "agent", "a", nil, "agent to repair for (repeatable)")
	repairCmd.Flags().StringVar(&repairScope, "scope", "auto", "scope to repair: local, global, auto, or all")
	_ = repairCmd.MarkFlagRequired("skill")
	rootCmd.AddCommand(repairCmd)
}
