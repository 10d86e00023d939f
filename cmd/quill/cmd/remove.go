package cmd

import (
	"github.com/spf13/cobra"

	"github.com/featherline/quill/internal/plan"
)

var (
	removeSkills []string
	removeAgents []string
	removeScope  string
)

var removeCmd = &cobra.Command{
	Use:     "remove",
	Aliases: []string{"uninstall"},
	Short:   "Remove installed skills",
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := parseScope(removeScope)
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
			return a.orchestrator.RemoveMany(removeSkills, removeAgents, scope)
		})
	},
}

func init() {
	removeCmd.Flags().StringSliceVarP(&removeSkills, "skill", "s", nil, "skill to remove (repeatable)")
	removeCmd.Flags().StringSliceVarP(&removeAgents, "agent", "a", nil, "agent to remove from (repeatable)")
	removeCmd.Flags().StringVar(&removeScope, "scope", "auto", "scope to remove from: local, global, auto, or all")
	_ = removeCmd.MarkFlagRequired("skill")
	rootCmd.AddCommand(removeCmd)
}
