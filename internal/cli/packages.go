package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carraways/monorel/internal/config"
)

var packagesCmd = &cobra.Command{
	Use:   "packages",
	Short: "List the registered packages",
	Long: `List every package in the registry with its directory, manifest path, and
tag prefix.

The registry comes from the 'packages' list in .monorel/config.yml; without
configuration a single root package covering the whole repository is
assumed.`,
	Example: `  monorel packages`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runPackages,
}

func init() {
	packagesCmd.GroupID = GroupInspection
	rootCmd.AddCommand(packagesCmd)
}

// runPackages needs only configuration, not a git repository, so broken
// checkouts can still inspect their registry.
func runPackages(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return err
	}
	reg, err := cfg.Registry()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	packages := reg.All()
	fmt.Fprintf(out, "Packages (%d):\n", len(packages))

	nameWidth := 0
	for _, p := range packages {
		if n := len(p.DisplayName()); n > nameWidth {
			nameWidth = n
		}
	}
	for _, p := range packages {
		dir := p.Dir
		if dir == "" {
			dir = "."
		}
		fmt.Fprintf(out, "  %-*s  dir=%s  manifest=%s  tags=%s*\n",
			nameWidth, p.DisplayName(), dir, p.ManifestPath(), p.TagPrefix())
	}
	return nil
}
