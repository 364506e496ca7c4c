// Package health provides repository health checks for monorel. It validates
// that the git repository, the configuration, and every package manifest are
// usable, and that no manifest version has drifted ahead of its tag series,
// returning structured reports used by the 'monorel doctor' command.
package health

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/carraways/monorel/internal/config"
	"github.com/carraways/monorel/internal/gitx"
	"github.com/carraways/monorel/internal/manifest"
	"github.com/carraways/monorel/internal/registry"
	"github.com/carraways/monorel/internal/version"
)

// maxPollInterval caps the backoff between Poll attempts.
const maxPollInterval = 30 * time.Second

// CheckResult represents the result of a single health check
type CheckResult struct {
	Name string
	// Package is the display name of the package the check concerns.
	// Empty for repository-level checks.
	Package string
	Passed  bool
	Message string
}

// Report contains all health check results
type Report struct {
	Checks []CheckResult
	Passed bool
}

func (r *Report) add(check CheckResult) {
	r.Checks = append(r.Checks, check)
	if !check.Passed {
		r.Passed = false
	}
}

// Options configures which repository and configuration RunChecks examines.
type Options struct {
	// Dir is the directory to examine (default: current directory).
	Dir string
	// ProjectConfigPath overrides the project config path.
	ProjectConfigPath string
}

// RunChecks runs all health checks and returns a report. Failures never
// abort the run; they become failed checks so the report stays complete.
func RunChecks(opts Options) *Report {
	report := &Report{Passed: true}

	repo, repoCheck := checkRepository(opts.Dir)
	report.add(repoCheck)

	root := opts.Dir
	if root == "" {
		root = "."
	}
	if repo != nil {
		if r, err := repo.Root(); err == nil {
			root = r
		}
	}

	reg, configCheck := checkConfiguration(opts.ProjectConfigPath)
	report.add(configCheck)
	if reg == nil {
		return report
	}

	for _, pkg := range reg.All() {
		m, manifestCheck := checkManifest(root, pkg)
		report.add(manifestCheck)
		if repo == nil || m == nil {
			continue
		}
		report.add(checkIntegrity(repo, pkg, m.Version))
	}

	return report
}

// checkRepository checks that a git repository is reachable from dir.
func checkRepository(dir string) (*gitx.Repository, CheckResult) {
	repo, err := gitx.Open(dir)
	if err != nil {
		return nil, CheckResult{
			Name:    "Repository",
			Passed:  false,
			Message: "no git repository found - run monorel from inside one",
		}
	}

	message := "git repository detected"
	if root, err := repo.Root(); err == nil {
		message = fmt.Sprintf("git repository at %s", root)
	}
	return repo, CheckResult{
		Name:    "Repository",
		Passed:  true,
		Message: message,
	}
}

// checkConfiguration loads the configuration and builds the package registry.
func checkConfiguration(projectConfigPath string) (*registry.Registry, CheckResult) {
	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ProjectConfigPath: projectConfigPath,
		SkipWarnings:      true,
	})
	if err != nil {
		return nil, CheckResult{
			Name:    "Configuration",
			Passed:  false,
			Message: err.Error(),
		}
	}

	reg, err := cfg.Registry()
	if err != nil {
		return nil, CheckResult{
			Name:    "Configuration",
			Passed:  false,
			Message: err.Error(),
		}
	}

	return reg, CheckResult{
		Name:    "Configuration",
		Passed:  true,
		Message: fmt.Sprintf("%d package(s) registered", reg.Len()),
	}
}

// checkManifest checks that the package manifest is readable and versioned.
func checkManifest(root string, pkg registry.Package) (*manifest.Manifest, CheckResult) {
	path := filepath.Join(root, pkg.ManifestPath())
	m, err := manifest.Load(path)
	if err != nil {
		return nil, CheckResult{
			Name:    "Manifest",
			Package: pkg.DisplayName(),
			Passed:  false,
			Message: err.Error(),
		}
	}

	return m, CheckResult{
		Name:    "Manifest",
		Package: pkg.DisplayName(),
		Passed:  true,
		Message: fmt.Sprintf("version %s in %s", m.Version, pkg.ManifestPath()),
	}
}

// checkIntegrity checks that the manifest version has not drifted ahead of
// the package's tag series.
func checkIntegrity(repo *gitx.Repository, pkg registry.Package, diskVersion string) CheckResult {
	series := repo.Series(pkg.DisplayName(), pkg.TagPrefix())
	base, ok, err := series.Base()
	if err != nil {
		return CheckResult{
			Name:    "Integrity",
			Package: pkg.DisplayName(),
			Passed:  false,
			Message: err.Error(),
		}
	}

	tagVersion := "0.0.0"
	if ok {
		tagVersion = base.Version
	}
	if version.Compare(diskVersion, tagVersion) > 0 {
		return CheckResult{
			Name:    "Integrity",
			Package: pkg.DisplayName(),
			Passed:  false,
			Message: fmt.Sprintf("manifest version %s is ahead of tag version %s - check for a missing %s tag", diskVersion, tagVersion, pkg.TagName(diskVersion)),
		}
	}

	if !ok {
		return CheckResult{
			Name:    "Integrity",
			Package: pkg.DisplayName(),
			Passed:  true,
			Message: "no releases tagged yet",
		}
	}
	return CheckResult{
		Name:    "Integrity",
		Package: pkg.DisplayName(),
		Passed:  true,
		Message: fmt.Sprintf("manifest %s, latest tag %s", diskVersion, base.Name),
	}
}

// FormatReport formats the health report for console output
func FormatReport(report *Report) string {
	var output string

	for _, check := range report.Checks {
		name := check.Name
		if check.Package != "" {
			name = fmt.Sprintf("%s (%s)", check.Name, check.Package)
		}
		if check.Passed {
			output += fmt.Sprintf("✓ %s: %s\n", name, check.Message)
		} else {
			output += fmt.Sprintf("✗ %s: %s\n", name, check.Message)
		}
	}

	return output
}

// Poll re-runs check until it returns a passing report. The wait between
// attempts starts at interval and doubles up to maxPollInterval. Returns the
// last report; the error is non-nil when ctx ends before the checks pass.
func Poll(ctx context.Context, interval time.Duration, check func() *Report) (*Report, error) {
	if interval <= 0 {
		interval = time.Second
	}

	wait := interval
	var last *Report
	for {
		last = check()
		if last != nil && last.Passed {
			return last, nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return last, ctx.Err()
		case <-timer.C:
		}

		wait *= 2
		if wait > maxPollInterval {
			wait = maxPollInterval
		}
	}
}
