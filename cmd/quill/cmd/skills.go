package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/featherline/quill/internal/registry"
)

var skillsCached bool

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "List skills available in the registry catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}

		client := registry.NewClient(a.settings.RegistryURL)
		var catalog *registry.Catalog
		if skillsCached {
			catalog = client.Cached()
			if catalog == nil {
				return fmt.Errorf("no cached catalog; run without --cached to fetch it")
			}
		} else {
			catalog, err = client.Fetch(cmd.Context())
			if err != nil {
				return err
			}
		}

		for _, skill := range catalog.Skills {
			if skill.Version != "" {
				fmt.Printf("%s (%s): %s\n", skill.Name, skill.Version, skill.Description)
			} else {
				fmt.Printf("%s: %s\n", skill.Name, skill.Description)
			}
		}
		return nil
	},
}

func init() {
	skillsCmd.Flags().BoolVar(&skillsCached, "cached", false, "use the cached catalog without fetching")
	rootCmd.AddCommand(skillsCmd)
}
