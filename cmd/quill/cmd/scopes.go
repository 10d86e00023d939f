package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scopesCmd = &cobra.Command{
	Use:   "scopes",
	Short: "Show which installation scopes are currently usable",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}

		fmt.Printf("allowed: %s\n", a.policy.AllowedScopes)
		fmt.Printf("environment: %s\n", joinScopes(a.policy.EnvironmentScopes))
		if len(a.policy.EffectiveScopes) == 0 {
			fmt.Printf("effective: none (%s)\n", blockedReasonMessage(a.policy.BlockedReason))
			return nil
		}
		fmt.Printf("effective: %s\n", joinScopes(a.policy.EffectiveScopes))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scopesCmd)
}
