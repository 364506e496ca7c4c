package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/carraways/monorel/internal/changelog"
	"github.com/carraways/monorel/internal/config"
	clierrors "github.com/carraways/monorel/internal/errors"
	"github.com/carraways/monorel/internal/gitx"
	"github.com/carraways/monorel/internal/logging"
	"github.com/carraways/monorel/internal/manifest"
	"github.com/carraways/monorel/internal/registry"
)

// workspace bundles what a release command needs: the merged configuration,
// the validated package registry, and the open repository.
type workspace struct {
	cfg  *config.Configuration
	reg  *registry.Registry
	repo *gitx.Repository
	root string
}

// openWorkspace loads configuration and opens the surrounding repository.
// The config file's log level applies only when no level was requested on
// the command line.
func openWorkspace() (*workspace, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, err
	}

	if flagLogLevel() == "" && cfg.LogLevel != "" {
		logging.Configure(cfg.LogLevel, nil)
	}

	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	repo, err := gitx.Open("")
	if err != nil {
		return nil, clierrors.GitNotRepository()
	}

	root, err := repo.Root()
	if err != nil {
		return nil, clierrors.Wrap(err, clierrors.Runtime)
	}

	return &workspace{cfg: cfg, reg: reg, repo: repo, root: root}, nil
}

// pkg resolves a command's package argument against the registry. No
// argument selects the root package.
func (w *workspace) pkg(args []string) (registry.Package, error) {
	name := "root"
	if len(args) > 0 {
		name = args[0]
	}
	p, ok := w.reg.Get(name)
	if !ok {
		return registry.Package{}, clierrors.PackageNotFound(name)
	}
	return p, nil
}

// manifestFor loads the package's manifest from the repository root.
func (w *workspace) manifestFor(p registry.Package) (*manifest.Manifest, error) {
	return manifest.Load(filepath.Join(w.root, p.ManifestPath()))
}

// seriesFor returns the package's release-tag series.
func (w *workspace) seriesFor(p registry.Package) *gitx.TagSeries {
	return w.repo.Series(p.DisplayName(), p.TagPrefix())
}

// aggregatorFor wires the changelog aggregator for one package. A named
// package sees only the history under its own directory; the root package
// sees everything except the other packages' directories.
func (w *workspace) aggregatorFor(p registry.Package, man *manifest.Manifest, versioned bool) *changelog.Aggregator {
	opts := changelog.Options{
		Versioned: versioned,
		Order:     w.cfg.Changelog.CommitOrder,
	}
	if p.IsRoot() {
		opts.ExcludePaths = w.reg.OtherDirs(p.Name)
	} else if p.Dir != "" && p.Dir != "." {
		opts.Paths = []string{p.Dir}
	}
	return changelog.NewAggregator(w.repo.History(), w.seriesFor(p), man.Version, changelog.NewMarkdownEngine(), opts)
}

// changelogRelPath is the package's changelog location relative to the
// repository root.
func (w *workspace) changelogRelPath(p registry.Package) string {
	if p.Dir == "" || p.Dir == "." {
		return w.cfg.Changelog.File
	}
	return filepath.Join(p.Dir, w.cfg.Changelog.File)
}

// changelogPath is the package's changelog location on disk.
func (w *workspace) changelogPath(p registry.Package) string {
	return filepath.Join(w.root, w.changelogRelPath(p))
}

// sinceBaseRef returns the range start for "everything since the latest
// release": the base tag's name, or empty (whole history) when the series
// has no tags yet.
func sinceBaseRef(series *gitx.TagSeries) (string, error) {
	base, ok, err := series.Base()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return base.Name, nil
}

// readChangelog returns the current changelog content, empty when the file
// does not exist yet.
func readChangelog(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", clierrors.WrapWithMessage(err, clierrors.Runtime,
			fmt.Sprintf("failed to read changelog %s", path))
	}
	return string(data), nil
}
