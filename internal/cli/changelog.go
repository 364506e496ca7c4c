package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/carraways/monorel/internal/changelog"
	clierrors "github.com/carraways/monorel/internal/errors"
	"github.com/carraways/monorel/internal/logging"
	"github.com/carraways/monorel/internal/registry"
)

var (
	changelogAllFlag   bool
	changelogWriteFlag bool
	changelogWatchFlag bool
)

var changelogCmd = &cobra.Command{
	Use:   "changelog [package]",
	Short: "Build the changelog for a package from its commit history",
	Long: `Build a changelog for a package: one section per release tag in range,
plus a pending section for the commits since the latest tag when they
warrant a new version.

By default only the commits since the latest release tag are considered.
Use --all to rebuild every historical release section from the tag series.

With --write the generated sections are merged into the package's changelog
file: regenerated sections replace their old versions in place, sections
only present in the file keep their position, and new sections are
prepended.

With --watch the preview re-renders whenever the repository's refs change.
Press Ctrl+C to stop.`,
	Example: `  # Preview the pending section for the root package
  monorel changelog

  # Rebuild the full history for the api package
  monorel changelog api --all

  # Merge the result into the api package's changelog file
  monorel changelog api --all --write

  # Live preview while committing
  monorel changelog --watch`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runChangelog,
}

func init() {
	changelogCmd.GroupID = GroupRelease
	rootCmd.AddCommand(changelogCmd)

	changelogCmd.Flags().BoolVar(&changelogAllFlag, "all", false, "Include every historical release section")
	changelogCmd.Flags().BoolVar(&changelogWriteFlag, "write", false, "Merge the result into the package changelog file")
	changelogCmd.Flags().BoolVar(&changelogWatchFlag, "watch", false, "Re-render the preview when repository refs change")
}

func runChangelog(cmd *cobra.Command, args []string) error {
	if changelogWatchFlag && changelogWriteFlag {
		return clierrors.NewUsageError("--watch and --write cannot be combined",
			"Use --watch for a live preview and --write for a one-shot update")
	}

	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	p, err := ws.pkg(args)
	if err != nil {
		return err
	}

	if changelogWatchFlag {
		return watchChangelog(cmd, ws, p)
	}
	if changelogWriteFlag {
		return writeChangelog(cmd, ws, p)
	}

	content, err := buildChangelogContent(cmd.Context(), ws, p)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), content)
	return nil
}

// calculateDocument loads the manifest, picks the commit range, and builds
// the package's changelog document.
func calculateDocument(ctx context.Context, ws *workspace, p registry.Package) (*changelog.Aggregator, error) {
	man, err := ws.manifestFor(p)
	if err != nil {
		return nil, err
	}
	from := ""
	if !changelogAllFlag {
		if from, err = sinceBaseRef(ws.seriesFor(p)); err != nil {
			return nil, err
		}
	}
	agg := ws.aggregatorFor(p, man, ws.cfg.Changelog.Versioned)
	if _, err := agg.CalculateRange(ctx, from, "HEAD"); err != nil {
		return nil, err
	}
	return agg, nil
}

// buildChangelogContent calculates the package document and renders it.
func buildChangelogContent(ctx context.Context, ws *workspace, p registry.Package) (string, error) {
	agg, err := calculateDocument(ctx, ws, p)
	if err != nil {
		return "", err
	}
	return agg.GenerateChangelog()
}

// writeChangelog merges the calculated sections into the package's
// changelog file.
func writeChangelog(cmd *cobra.Command, ws *workspace, p registry.Package) error {
	agg, err := calculateDocument(cmd.Context(), ws, p)
	if err != nil {
		return err
	}

	path := ws.changelogPath(p)
	previous, err := readChangelog(path)
	if err != nil {
		return err
	}
	merged, err := agg.GenerateMergedChangelog(previous)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(merged), 0o644); err != nil {
		return clierrors.WrapWithMessage(err, clierrors.Runtime,
			fmt.Sprintf("failed to write changelog %s", path))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Changelog written to %s\n", ws.changelogRelPath(p))
	return nil
}

// watchChangelog re-renders the preview whenever the repository's refs
// change. A slow ticker backs up fsnotify for ref updates that bypass the
// watched paths (packed refs, for example); identical output is never
// reprinted.
func watchChangelog(cmd *cobra.Command, ws *workspace, p registry.Package) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	gitDir := filepath.Join(ws.root, ".git")
	watched := 0
	for _, path := range []string{
		gitDir,
		filepath.Join(gitDir, "refs", "heads"),
		filepath.Join(gitDir, "refs", "tags"),
	} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		watched++
	}
	if watched == 0 {
		return clierrors.NewRuntimeError(fmt.Sprintf("nothing to watch under %s", gitDir))
	}

	out := cmd.OutOrStdout()
	last := ""
	render := func(first bool) error {
		content, err := buildChangelogContent(ctx, ws, p)
		if err != nil {
			return err
		}
		if content == last {
			return nil
		}
		last = content
		if !first {
			fmt.Fprintf(out, "\n--- %s ---\n\n", time.Now().Format("15:04:05"))
		}
		fmt.Fprint(out, content)
		return nil
	}
	if err := render(true); err != nil {
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "\nWatching for ref changes (Ctrl+C to stop)...")

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
				event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				pending = time.After(250 * time.Millisecond)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn("changelog watcher error", "err", err)
		case <-pending:
			pending = nil
			if err := render(false); err != nil {
				return err
			}
		case <-ticker.C:
			if err := render(false); err != nil {
				return err
			}
		}
	}
}
