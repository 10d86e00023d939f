package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/featherline/quill/internal/core"
)

var agentsDetected bool

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List supported AI coding agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		agents, err := core.LoadAgents()
		if err != nil {
			return err
		}
		if agentsDetected {
			agents = core.DetectAgents(agents)
			if len(agents) == 0 {
				fmt.Println("No agents detected.")
				return nil
			}
		}
		for _, agent := range agents {
			fmt.Printf("%s\t%s\t%s\n", agent.Name, agent.DisplayName, agent.SkillsDir)
		}
		return nil
	},
}

func init() {
	agentsCmd.Flags().BoolVar(&agentsDetected, "detected", false, "only list agents detected on this system")
	rootCmd.AddCommand(agentsCmd)
}
