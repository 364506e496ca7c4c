// Package registry models the set of packages managed in a repository.
// The registry is loaded once at startup from configuration and passed as an
// explicit dependency into every component that needs it; nothing in monorel
// reads it as ambient global state.
package registry

import (
	"fmt"
	"path"
	"strings"

	"github.com/carraways/monorel/internal/errors"
)

// Package describes one versioned package in the repository.
// The root package has an empty Name and owns the bare "v" tag series;
// every named package owns the "<name>-v" series.
type Package struct {
	// Name is the package identifier used in tag prefixes and CLI arguments.
	// Empty for the repository root package.
	Name string `koanf:"name"`
	// Dir is the package directory relative to the repository root.
	// "." (or empty) for the root package.
	Dir string `koanf:"dir"`
	// Manifest is the path to the package manifest file, relative to the
	// repository root. Defaults to "<dir>/package.json".
	Manifest string `koanf:"manifest"`
}

// IsRoot reports whether this is the repository root package.
func (p Package) IsRoot() bool {
	return p.Name == ""
}

// DisplayName returns the name to show in CLI output ("root" for the
// root package).
func (p Package) DisplayName() string {
	if p.IsRoot() {
		return "root"
	}
	return p.Name
}

// TagPrefix returns the tag series prefix for this package:
// "v" for the root package, "<name>-v" otherwise.
func (p Package) TagPrefix() string {
	if p.IsRoot() {
		return "v"
	}
	return p.Name + "-v"
}

// TagName derives the tag name for a version in this package's series,
// e.g. "api-v1.2.0". Callers create the actual tag after a bump is approved.
func (p Package) TagName(version string) string {
	return p.TagPrefix() + version
}

// ManifestPath returns the manifest path, defaulting to package.json in the
// package directory.
func (p Package) ManifestPath() string {
	if p.Manifest != "" {
		return p.Manifest
	}
	if p.Dir == "" || p.Dir == "." {
		return "package.json"
	}
	return path.Join(p.Dir, "package.json")
}

// Registry is the process-wide list of managed packages, indexed by name.
type Registry struct {
	packages []Package
	byName   map[string]int
}

// New validates the package list and builds a registry.
// Duplicate names, duplicate manifest paths, and absolute dirs are rejected.
func New(packages []Package) (*Registry, error) {
	r := &Registry{
		packages: make([]Package, 0, len(packages)),
		byName:   make(map[string]int, len(packages)),
	}

	manifests := make(map[string]string, len(packages))
	for _, pkg := range packages {
		pkg.Name = strings.TrimSpace(pkg.Name)
		if strings.HasPrefix(pkg.Dir, "/") {
			return nil, errors.NewConfigError(
				fmt.Sprintf("package %q has an absolute dir %q; dirs are relative to the repository root", pkg.DisplayName(), pkg.Dir))
		}
		if _, dup := r.byName[pkg.Name]; dup {
			return nil, errors.NewConfigError(
				fmt.Sprintf("duplicate package %q in registry", pkg.DisplayName()))
		}
		manifest := pkg.ManifestPath()
		if owner, dup := manifests[manifest]; dup {
			return nil, errors.NewConfigError(
				fmt.Sprintf("packages %q and %q share the manifest %s", owner, pkg.DisplayName(), manifest))
		}
		manifests[manifest] = pkg.DisplayName()

		r.byName[pkg.Name] = len(r.packages)
		r.packages = append(r.packages, pkg)
	}

	return r, nil
}

// Get returns the package with the given name. The root package is reachable
// as "" or "root".
func (r *Registry) Get(name string) (Package, bool) {
	if name == "root" {
		name = ""
	}
	idx, ok := r.byName[name]
	if !ok {
		return Package{}, false
	}
	return r.packages[idx], true
}

// All returns the registered packages in configuration order.
func (r *Registry) All() []Package {
	out := make([]Package, len(r.packages))
	copy(out, r.packages)
	return out
}

// Len returns the number of registered packages.
func (r *Registry) Len() int {
	return len(r.packages)
}

// OtherDirs returns the directories of every package except the named one.
// The root package uses this list to exclude sub-package history from its own.
func (r *Registry) OtherDirs(name string) []string {
	if name == "root" {
		name = ""
	}
	var dirs []string
	for _, pkg := range r.packages {
		if pkg.Name == name {
			continue
		}
		if pkg.Dir == "" || pkg.Dir == "." {
			continue
		}
		dirs = append(dirs, pkg.Dir)
	}
	return dirs
}
