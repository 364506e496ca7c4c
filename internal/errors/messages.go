package errors

import "fmt"

// Common error messages for the monorel CLI.
// These templates keep messages consistent and actionable.

// PackageNotFound creates an error for an unknown package name.
func PackageNotFound(name string) *ReleaseError {
	return NewConfigError(
		fmt.Sprintf("package %q is not in the registry", name),
		"List registered packages with: monorel packages",
		"Add the package to .monorel/config.yml under 'packages'",
	)
}

// ManifestNotFound creates an error for a missing package manifest.
func ManifestNotFound(path string) *ReleaseError {
	return NewConfigError(
		fmt.Sprintf("manifest not found: %s", path),
		"Check the 'manifest' path for this package in .monorel/config.yml",
		"The manifest must contain at least a name and a version field",
	)
}

// ManifestVersionMissing creates an error for a manifest without a version field.
func ManifestVersionMissing(path string) *ReleaseError {
	return NewConfigError(
		fmt.Sprintf("manifest %s has no version field", path),
		"Add a version entry, e.g. \"version\": \"0.0.0\"",
	)
}

// ConfigFileNotFound creates an error for a missing config file.
func ConfigFileNotFound(path string) *ReleaseError {
	return NewConfigError(
		fmt.Sprintf("config file not found: %s", path),
		"Create .monorel/config.yml with a 'packages' list",
	)
}

// ConfigParseError creates an error for an invalid config file.
func ConfigParseError(path string, err error) *ReleaseError {
	return WrapWithMessage(err, Config,
		fmt.Sprintf("failed to parse config file: %s", path),
		"Check the file for YAML syntax errors",
	)
}

// GitNotRepository creates an error when not in a git repository.
func GitNotRepository() *ReleaseError {
	return NewRuntimeError(
		"not a git repository",
		"Initialize with: git init",
		"Or run monorel from inside an existing repository",
	)
}

// RenderBeforeCalculate creates the usage error for rendering a changelog
// before any range has been calculated.
func RenderBeforeCalculate() *ReleaseError {
	return NewUsageError(
		"changelog document not calculated: call CalculateRange before rendering",
	)
}

// EngineUnset creates the usage error for rendering without a template engine.
func EngineUnset() *ReleaseError {
	return NewUsageError(
		"no template engine configured for changelog rendering",
	)
}
