package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/featherline/quill/internal/plan"
)

var (
	updateSkills []string
	updateAll    bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update installed skills to their latest versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !updateAll && len(updateSkills) == 0 {
			return errors.New("specify --skill or --all")
		}
		a, err := newApp(false)
		if err != nil {
			return err
		}
		return a.runBatch(func() (*plan.InvocationPlan, error) {
			return a.orchestrator.UpdateMany(updateSkills, updateAll)
		})
	},
}

func init() {
	updateCmd.Flags().StringSliceVarP(&updateSkills, "skill", "s", nil, "skill to update (repeatable)")
	updateCmd.Flags().BoolVar(&updateAll, "all", false, "update every installed skill")
	rootCmd.AddCommand(updateCmd)
}
