package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	clierrors "github.com/carraways/monorel/internal/errors"
	"github.com/carraways/monorel/internal/version"
)

var (
	releaseTagFlag     bool
	releaseDryRunFlag  bool
	releaseMessageFlag string
)

var releaseCmd = &cobra.Command{
	Use:   "release [package]",
	Short: "Bump the version, update the changelog, and optionally tag",
	Long: `Run the full release bookkeeping for one package: compute the version
decision, write the new version into the manifest, merge the pending
section into the changelog file, and (with --tag) create the release tag.

Each invocation releases exactly one package; the manifest and changelog
are each written once. When no release-worthy commits exist the command
reports why and leaves every file untouched; a manifest that has fallen
behind the tag series is synced without a release.

The pending changelog section is always labeled with the released version,
regardless of the changelog.versioned setting.

Exit codes:
  0 - Release bookkeeping completed (or nothing to do)
  2 - Manifest version is ahead of the tag series
  4 - Configuration problem`,
	Example: `  # Release the root package
  monorel release

  # Release the api package and create the api-vX.Y.Z tag
  monorel release api --tag

  # Annotated tag with a message
  monorel release api --tag --message "api hotfix"

  # Show what would happen without writing anything
  monorel release api --dry-run`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runRelease,
}

func init() {
	releaseCmd.GroupID = GroupRelease
	rootCmd.AddCommand(releaseCmd)

	releaseCmd.Flags().BoolVar(&releaseTagFlag, "tag", false, "Create the release tag after writing the files")
	releaseCmd.Flags().BoolVar(&releaseDryRunFlag, "dry-run", false, "Show the release plan without writing anything")
	releaseCmd.Flags().StringVarP(&releaseMessageFlag, "message", "m", "", "Tag annotation message (empty creates a lightweight tag)")
}

func runRelease(cmd *cobra.Command, args []string) error {
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
	// A release always labels the pending section with the real version.
	agg := ws.aggregatorFor(p, man, true)
	decision, err := agg.CalculateRange(cmd.Context(), from, "HEAD")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !decision.ShouldBump {
		if decision.Bump == version.BumpSynced {
			if !releaseDryRunFlag {
				if err := man.WriteVersion(decision.TargetVersion); err != nil {
					return err
				}
			}
			fmt.Fprintf(out, "%s: manifest synced to %s, no release\n", p.DisplayName(), decision.TargetVersion)
			return nil
		}
		fmt.Fprintf(out, "%s: nothing to release (%s)\n", p.DisplayName(), decision.Reason)
		return nil
	}

	// Render the merged changelog before writing anything so a render
	// failure leaves no partial release behind.
	path := ws.changelogPath(p)
	previous, err := readChangelog(path)
	if err != nil {
		return err
	}
	merged, err := agg.GenerateMergedChangelog(previous)
	if err != nil {
		return err
	}

	if releaseDryRunFlag {
		fmt.Fprintf(out, "%s: would release %s -> %s (%s bump)\n",
			p.DisplayName(), decision.CurrentVersion, decision.TargetVersion, decision.Bump)
		fmt.Fprintf(out, "  manifest:  %s\n", p.ManifestPath())
		fmt.Fprintf(out, "  changelog: %s\n", ws.changelogRelPath(p))
		if releaseTagFlag {
			fmt.Fprintf(out, "  tag:       %s\n", p.TagName(decision.TargetVersion))
		}
		return nil
	}

	if err := man.WriteVersion(decision.TargetVersion); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(merged), 0o644); err != nil {
		return clierrors.WrapWithMessage(err, clierrors.Runtime,
			fmt.Sprintf("failed to write changelog %s", path))
	}

	fmt.Fprintf(out, "%s: released %s -> %s (%s bump)\n",
		p.DisplayName(), decision.CurrentVersion, decision.TargetVersion, decision.Bump)
	fmt.Fprintf(out, "  manifest:  %s\n", p.ManifestPath())
	fmt.Fprintf(out, "  changelog: %s\n", ws.changelogRelPath(p))

	if releaseTagFlag {
		name, err := ws.seriesFor(p).Create(decision.TargetVersion, "HEAD", releaseMessageFlag)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  tag:       %s\n", name)
	}
	return nil
}
