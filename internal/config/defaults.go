package config

// GetDefaultConfigTemplate returns a fully commented config template
// that helps users understand all available options
func GetDefaultConfigTemplate() string {
	return `# Monorel Configuration
# Project config lives at .monorel/config.yml, user config at
# ~/.config/monorel/config.yml. Environment variables use the MONOREL_ prefix.

# Managed packages. Each entry owns one tag series:
# the root package (empty name) owns "v1.2.3" tags, a named package
# owns "<name>-v1.2.3" tags.
packages:
  - name: ""                  # root package
    dir: "."
    manifest: package.json    # JSON or YAML, needs name + version fields
  # - name: api
  #   dir: services/api
  #   manifest: services/api/package.json

# Changelog settings
changelog:
  file: CHANGELOG.md          # Resolved under each package directory
  versioned: true             # false labels pending sections "unreleased"
  commit_order: desc          # Per-section commit order: desc | asc

# Logging
log_level: info               # debug | info | warn | error
`
}

// GetDefaults returns the default configuration values
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		// packages: With no configuration monorel manages a single root
		// package at the repository root with a package.json manifest.
		// A user-supplied packages list replaces this entirely.
		"packages": []interface{}{
			map[string]interface{}{
				"name":     "",
				"dir":      ".",
				"manifest": "package.json",
			},
		},
		// changelog: Rendering settings shared by every package.
		"changelog": map[string]interface{}{
			"file":         "CHANGELOG.md",
			"versioned":    true,   // Pending sections labeled with the target version
			"commit_order": "desc", // Newest commit first within each section
		},
		// log_level: Minimum level for diagnostic output on stderr.
		// Can be set via MONOREL_LOG_LEVEL env var or the --log-level flag.
		"log_level": "info",
	}
}
