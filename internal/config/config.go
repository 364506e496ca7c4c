// Package config provides hierarchical configuration management for monorel
// using koanf. Configuration is loaded with priority: environment variables >
// project config (.monorel/config.yml) > user config (~/.config/monorel/config.yml)
// > defaults. Legacy JSON project configs still load with a deprecation warning.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/carraways/monorel/internal/changelog"
	"github.com/carraways/monorel/internal/errors"
	"github.com/carraways/monorel/internal/registry"
)

// Configuration represents the monorel CLI tool configuration
type Configuration struct {
	// Packages is the list of managed packages. Each entry owns one tag
	// series; the root package (empty name) owns the bare "v" series.
	// Replaced wholesale by a user-supplied list, never merged entry-wise.
	Packages []registry.Package `koanf:"packages"`

	// Changelog configures changelog generation for every package.
	// Environment variable support via MONOREL_CHANGELOG_* prefix.
	Changelog changelog.Config `koanf:"changelog"`

	// LogLevel is the minimum level for diagnostic output on stderr.
	// Can be set via MONOREL_LOG_LEVEL env var or the --log-level flag.
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// Registry validates the configured packages and builds the process-wide
// package registry.
func (c *Configuration) Registry() (*registry.Registry, error) {
	return registry.New(c.Packages)
}

// LoadOptions configures how configuration is loaded
type LoadOptions struct {
	// ProjectConfigPath overrides the project config path (default: .monorel/config.yml)
	ProjectConfigPath string
	// WarningWriter receives deprecation warnings (default: os.Stderr)
	WarningWriter io.Writer
	// SkipWarnings suppresses deprecation warnings
	SkipWarnings bool
}

// Load loads configuration from user, project, and environment sources.
// Priority: Environment variables > Project config > User config > Defaults
//
// YAML config paths:
//   - User config: ~/.config/monorel/config.yml (XDG compliant)
//   - Project config: .monorel/config.yml
//
// Legacy JSON project config (.monorel/config.json) is deprecated and
// triggers a migration warning.
func Load(projectConfigPath string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{ProjectConfigPath: projectConfigPath})
}

// LoadWithOptions loads configuration with custom options
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")
	warningWriter := getWarningWriter(opts.WarningWriter)

	loadDefaults(k)

	if err := loadUserConfig(k); err != nil {
		return nil, err
	}

	if err := loadProjectConfig(k, opts.ProjectConfigPath, warningWriter, opts.SkipWarnings); err != nil {
		return nil, err
	}

	if err := loadEnvironmentConfig(k); err != nil {
		return nil, err
	}

	return finalizeConfig(k)
}

// getWarningWriter returns the warning writer or defaults to stderr
func getWarningWriter(w io.Writer) io.Writer {
	if w == nil {
		return os.Stderr
	}
	return w
}

// loadDefaults applies default configuration values
func loadDefaults(k *koanf.Koanf) {
	defaults := GetDefaults()
	for key, value := range defaults {
		k.Set(key, value)
	}
}

// loadUserConfig loads the user-level YAML config if present.
func loadUserConfig(k *koanf.Koanf) error {
	userYAMLPath, _ := UserConfigPath()
	if !fileExists(userYAMLPath) {
		return nil
	}
	return loadYAMLConfig(k, userYAMLPath)
}

// loadProjectConfig loads project-level config (YAML preferred, legacy JSON
// supported). Supports a custom path override; an explicitly requested path
// that does not exist is an error, while the default paths simply fall back
// to defaults. Legacy JSON loads with a deprecation warning.
func loadProjectConfig(k *koanf.Koanf, customPath string, warningWriter io.Writer, skipWarnings bool) error {
	if customPath != "" {
		if !fileExists(customPath) {
			return errors.ConfigFileNotFound(customPath)
		}
		return loadYAMLConfig(k, customPath)
	}

	projectYAMLPath := ProjectConfigPath()
	legacyProjectPath := LegacyProjectConfigPath()

	projectYAMLExists := fileExists(projectYAMLPath)
	legacyProjectExists := fileExists(legacyProjectPath)

	if projectYAMLExists {
		if err := loadYAMLConfig(k, projectYAMLPath); err != nil {
			return err
		}
		warnLegacyExists(warningWriter, legacyProjectPath, projectYAMLPath, legacyProjectExists, skipWarnings)
	} else if legacyProjectExists {
		if err := loadLegacyJSONConfig(k, legacyProjectPath, warningWriter, skipWarnings); err != nil {
			return err
		}
	}
	return nil
}

// loadYAMLConfig validates and loads a YAML config file
func loadYAMLConfig(k *koanf.Koanf, path string) error {
	if err := ValidateYAMLSyntax(path); err != nil {
		return errors.ConfigParseError(path, err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return errors.ConfigParseError(path, err)
	}
	return nil
}

// loadLegacyJSONConfig loads legacy JSON and warns about migration
func loadLegacyJSONConfig(k *koanf.Koanf, path string, warningWriter io.Writer, skipWarnings bool) error {
	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		return errors.ConfigParseError(path, err)
	}
	if !skipWarnings {
		fmt.Fprintf(warningWriter, "Warning: Using deprecated JSON config at %s\n", path)
		fmt.Fprintf(warningWriter, "  Convert it to YAML at %s and delete the JSON file.\n\n", ProjectConfigPath())
	}
	return nil
}

// warnLegacyExists warns if legacy JSON exists alongside new YAML
func warnLegacyExists(warningWriter io.Writer, legacyPath, yamlPath string, legacyExists, skipWarnings bool) {
	if legacyExists && !skipWarnings {
		fmt.Fprintf(warningWriter, "Warning: Legacy JSON config found at %s (ignored, using %s)\n", legacyPath, yamlPath)
		fmt.Fprintf(warningWriter, "  Delete the legacy file to silence this warning.\n\n")
	}
}

// loadEnvironmentConfig loads environment variable overrides
func loadEnvironmentConfig(k *koanf.Koanf) error {
	if err := k.Load(env.Provider("MONOREL_", ".", envTransform), nil); err != nil {
		return errors.WrapWithMessage(err, errors.Config, "failed to load environment config")
	}
	return nil
}

// finalizeConfig unmarshals and validates the merged configuration.
// The packages list is validated through the registry so that duplicate
// names, duplicate manifests, and absolute dirs are rejected at load time.
func finalizeConfig(k *koanf.Koanf) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.WrapWithMessage(err, errors.Config, "failed to unmarshal config")
	}

	if err := ValidateConfigValues(&cfg, "config"); err != nil {
		return nil, errors.WrapWithMessage(err, errors.Config, "config validation failed",
			"Check .monorel/config.yml against 'monorel packages' output")
	}

	if _, err := cfg.Registry(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// fileExists returns true if the file exists and is readable
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// envTransform converts environment variable names to config keys.
// Examples: MONOREL_LOG_LEVEL -> log_level,
// MONOREL_CHANGELOG_COMMIT_ORDER -> changelog.commit_order
func envTransform(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, "MONOREL_"))
	if rest, ok := strings.CutPrefix(key, "changelog_"); ok {
		return "changelog." + rest
	}
	return key
}
