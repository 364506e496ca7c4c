package config

import (
	"os"
	"path/filepath"
)

// UserConfigPath returns the path to the user-level config file.
// This follows the XDG Base Directory Specification:
// - Linux: ~/.config/monorel/config.yml
// - macOS: ~/Library/Application Support/monorel/config.yml
// - Windows: %APPDATA%\monorel\config.yml
//
// If XDG_CONFIG_HOME is set, it will be respected on Linux.
func UserConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "monorel", "config.yml"), nil
}

// UserConfigDir returns the path to the user-level config directory.
func UserConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "monorel"), nil
}

// ProjectConfigPath returns the path to the project-level config file.
// This is always .monorel/config.yml relative to the current directory.
func ProjectConfigPath() string {
	return filepath.Join(".monorel", "config.yml")
}

// ProjectConfigDir returns the path to the project-level config directory.
func ProjectConfigDir() string {
	return ".monorel"
}

// LegacyProjectConfigPath returns the path to the legacy project-level JSON
// config file. This was the old location: .monorel/config.json
func LegacyProjectConfigPath() string {
	return filepath.Join(".monorel", "config.json")
}
