package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/featherline/quill/internal/core"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List installed skills across all agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}

		includeLocal, includeGlobal := scanScopes(a)
		scanner := core.NewScanner(a.agents)
		installed, err := scanner.Scan(a.workspaceRoot, core.ScanOptions{
			IncludeLocal:  includeLocal,
			IncludeGlobal: includeGlobal,
		})
		if err != nil {
			return err
		}

		if len(installed) == 0 {
			fmt.Println("No skills installed.")
			return nil
		}

		names := make([]string, 0, len(installed))
		for name := range installed {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			skill := installed[name]
			if skill == nil {
				fmt.Printf("%s (unreadable SKILL.md)\n", name)
				continue
			}
			version := skill.Version
			if version == "" {
				version = "unversioned"
			}
			fmt.Printf("%s (%s) agents=%s scopes=%s\n",
				skill.Name, version,
				strings.Join(skill.Agents, ","),
				joinScopes(skill.Scopes))
		}
		return nil
	},
}

// scanScopes maps the effective scope policy onto scan include flags.
func scanScopes(a *app) (includeLocal, includeGlobal bool) {
	for _, s := range a.policy.EffectiveScopes {
		switch s {
		case core.ScopeLocal:
			includeLocal = true
		case core.ScopeGlobal:
			includeGlobal = true
		}
	}
	return includeLocal, includeGlobal
}

func joinScopes(scopes []core.Scope) string {
	parts := make([]string, len(scopes))
	for i, s := range scopes {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
