package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	clierrors "github.com/carraways/monorel/internal/errors"
	"github.com/carraways/monorel/internal/registry"
	"github.com/carraways/monorel/internal/version"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the release state of every package",
	Long: `Show one line per registered package: the manifest version on disk, the
latest release tag, and the bump the commits since that tag would produce.

Packages are inspected concurrently and read-only; nothing is written. A
package whose inspection fails shows the failure in its own row instead of
aborting the others.

Exit codes:
  0 - Every package inspected cleanly
  1 - At least one package failed to inspect
  2 - At least one manifest is ahead of its tag series`,
	Example: `  # All packages at a glance
  monorel status`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runStatus,
}

func init() {
	statusCmd.GroupID = GroupInspection
	rootCmd.AddCommand(statusCmd)
}

// packageStatus is one package's inspection result.
type packageStatus struct {
	pkg      registry.Package
	disk     string
	base     string
	decision version.Decision
	err      error
}

func runStatus(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	packages := ws.reg.All()
	results := make([]packageStatus, len(packages))

	g, ctx := errgroup.WithContext(cmd.Context())
	for i, p := range packages {
		g.Go(func() error {
			results[i] = inspectPackage(ctx, ws, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	printStatusTable(cmd, results)
	return statusExitError(results)
}

// inspectPackage computes one package's row. Failures land in the row
// instead of propagating, so one broken package never hides the others.
func inspectPackage(ctx context.Context, ws *workspace, p registry.Package) packageStatus {
	st := packageStatus{pkg: p}

	man, err := ws.manifestFor(p)
	if err != nil {
		st.err = err
		return st
	}
	st.disk = man.Version

	series := ws.seriesFor(p)
	base, ok, err := series.Base()
	if err != nil {
		st.err = err
		return st
	}
	from := ""
	if ok {
		st.base = base.Name
		from = base.Name
	}

	agg := ws.aggregatorFor(p, man, ws.cfg.Changelog.Versioned)
	decision, err := agg.CalculateRange(ctx, from, "HEAD")
	if err != nil {
		st.err = err
		return st
	}
	st.decision = decision
	return st
}

func printStatusTable(cmd *cobra.Command, results []packageStatus) {
	out := cmd.OutOrStdout()

	nameWidth := len("PACKAGE")
	for _, st := range results {
		if n := len(st.pkg.DisplayName()); n > nameWidth {
			nameWidth = n
		}
	}

	fmt.Fprintf(out, "%-*s  %-10s %-14s %-10s %s\n", nameWidth, "PACKAGE", "DISK", "TAG", "NEXT", "STATUS")
	for _, st := range results {
		fmt.Fprintf(out, "%-*s  %-10s %-14s %-10s %s\n",
			nameWidth, st.pkg.DisplayName(),
			orDash(st.disk), orDash(st.base), statusNext(st), statusText(st))
	}
}

func statusNext(st packageStatus) string {
	if st.err != nil || !changesVersion(st.decision) {
		return "-"
	}
	return st.decision.TargetVersion
}

func statusText(st packageStatus) string {
	switch {
	case st.err != nil:
		return fmt.Sprintf("error: %v", st.err)
	case st.decision.ShouldBump:
		return fmt.Sprintf("%s bump pending", st.decision.Bump)
	case st.decision.Bump == version.BumpSynced:
		return "manifest behind tags"
	default:
		return "up to date"
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// statusExitError maps the worst row failure to an exit code: integrity
// problems first, then any other failure.
func statusExitError(results []packageStatus) error {
	failed := false
	for _, st := range results {
		if st.err == nil {
			continue
		}
		if clierrors.HasCategory(st.err, clierrors.Integrity) {
			return NewExitError(ExitIntegrity)
		}
		failed = true
	}
	if failed {
		return NewExitError(ExitFailure)
	}
	return nil
}
