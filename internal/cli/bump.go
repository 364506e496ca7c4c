package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carraways/monorel/internal/manifest"
	"github.com/carraways/monorel/internal/registry"
	"github.com/carraways/monorel/internal/version"
)

var (
	bumpJSONFlag   bool
	bumpDryRunFlag bool
)

var bumpCmd = &cobra.Command{
	Use:   "bump [package]",
	Short: "Compute the next version for a package and update its manifest",
	Long: `Compute the next semantic version for a package from the commits since its
latest release tag.

Commit severity decides the bump: a breaking change raises the major
version, a feature the minor version, a fix the patch version. With no
release-worthy commits the version stays put. A manifest that has fallen
behind the tag series is synced back to the tag version without a release.

The manifest is updated in place unless --dry-run is given; every other
byte of the file is preserved.

Exit codes:
  0 - Decision computed (and manifest written when warranted)
  2 - Manifest version is ahead of the tag series
  4 - Configuration problem`,
	Example: `  # Bump the root package
  monorel bump

  # Bump the api package without touching the manifest
  monorel bump api --dry-run

  # Machine-readable decision
  monorel bump api --json`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runBump,
}

func init() {
	bumpCmd.GroupID = GroupRelease
	rootCmd.AddCommand(bumpCmd)

	bumpCmd.Flags().BoolVar(&bumpJSONFlag, "json", false, "Output the decision as JSON")
	bumpCmd.Flags().BoolVar(&bumpDryRunFlag, "dry-run", false, "Compute the decision without writing the manifest")
}

// bumpResult is the JSON shape of a bump decision.
type bumpResult struct {
	Package string `json:"package"`
	version.Decision
	Tag             string `json:"tag,omitempty"`
	ManifestWritten bool   `json:"manifestWritten"`
}

func runBump(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	p, err := ws.pkg(args)
	if err != nil {
		return err
	}
	man, err := ws.manifestFor(p)
	if err != nil {
		return err
	}

	from, err := sinceBaseRef(ws.seriesFor(p))
	if err != nil {
		return err
	}
	agg := ws.aggregatorFor(p, man, ws.cfg.Changelog.Versioned)
	decision, err := agg.CalculateRange(cmd.Context(), from, "HEAD")
	if err != nil {
		return err
	}

	written := false
	if changesVersion(decision) && !bumpDryRunFlag {
		if err := man.WriteVersion(decision.TargetVersion); err != nil {
			return err
		}
		written = true
	}

	if bumpJSONFlag {
		result := bumpResult{
			Package:         p.DisplayName(),
			Decision:        decision,
			ManifestWritten: written,
		}
		if decision.ShouldBump {
			result.Tag = p.TagName(decision.TargetVersion)
		}
		return printJSON(cmd, result)
	}

	printDecision(cmd, p, man, decision, written)
	return nil
}

// changesVersion reports whether the decision moves the on-disk version:
// either a real bump or a sync back to the tag baseline.
func changesVersion(d version.Decision) bool {
	return d.ShouldBump || d.Bump == version.BumpSynced
}

func printDecision(cmd *cobra.Command, p registry.Package, man *manifest.Manifest, d version.Decision, written bool) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Package:  %s\n", p.DisplayName())
	switch {
	case d.ShouldBump:
		fmt.Fprintf(out, "Decision: %s bump %s -> %s\n", d.Bump, d.CurrentVersion, d.TargetVersion)
		fmt.Fprintf(out, "Tag:      %s\n", p.TagName(d.TargetVersion))
	case d.Bump == version.BumpSynced:
		fmt.Fprintf(out, "Decision: sync manifest to %s\n", d.TargetVersion)
	default:
		fmt.Fprintf(out, "Decision: no bump (version stays %s)\n", d.TargetVersion)
	}
	fmt.Fprintf(out, "Reason:   %s\n", d.Reason)

	if written {
		fmt.Fprintf(out, "Manifest: %s updated to %s\n", p.ManifestPath(), d.TargetVersion)
	} else if changesVersion(d) && bumpDryRunFlag {
		fmt.Fprintf(out, "Manifest: %s left unchanged (dry run)\n", p.ManifestPath())
	}
}

// printJSON writes v to the command's stdout as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
