package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/carraways/monorel/internal/changelog"
	"github.com/carraways/monorel/internal/errors"
)

// isolate points the user config dir and the working directory at empty temp
// dirs so tests never see real machine configuration.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func writeUserConfig(t *testing.T, content string) {
	t.Helper()
	path, err := UserConfigPath()
	require.NoError(t, err)
	writeFile(t, path, content)
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	require.Len(t, cfg.Packages, 1)
	assert.True(t, cfg.Packages[0].IsRoot())
	assert.Equal(t, "package.json", cfg.Packages[0].Manifest)

	assert.Equal(t, "CHANGELOG.md", cfg.Changelog.File)
	assert.True(t, cfg.Changelog.Versioned)
	assert.Equal(t, changelog.OrderDescending, cfg.Changelog.CommitOrder)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_ProjectConfigReplacesPackages(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yml")
	writeFile(t, path, `packages:
  - name: api
    dir: services/api
    manifest: services/api/package.json
  - name: web
    dir: services/web
    manifest: services/web/package.json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	// User lists replace the default root package entirely.
	require.Len(t, cfg.Packages, 2)
	assert.Equal(t, "api", cfg.Packages[0].Name)
	assert.Equal(t, "web", cfg.Packages[1].Name)
}

func TestLoad_ChangelogSettingsMergeWithDefaults(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yml")
	writeFile(t, path, "changelog:\n  versioned: false\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Changelog.Versioned)
	assert.Equal(t, "CHANGELOG.md", cfg.Changelog.File)
	assert.Equal(t, changelog.OrderDescending, cfg.Changelog.CommitOrder)
}

func TestLoad_ProjectOverridesUser(t *testing.T) {
	isolate(t)
	writeUserConfig(t, "log_level: debug\nchangelog:\n  file: HISTORY.md\n")
	writeFile(t, ProjectConfigPath(), "log_level: warn\n")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	// Keys the project config does not set survive from the user config.
	assert.Equal(t, "HISTORY.md", cfg.Changelog.File)
}

func TestLoad_EnvOverridesEverything(t *testing.T) {
	isolate(t)
	writeFile(t, ProjectConfigPath(), "log_level: warn\nchangelog:\n  commit_order: desc\n")
	t.Setenv("MONOREL_LOG_LEVEL", "error")
	t.Setenv("MONOREL_CHANGELOG_COMMIT_ORDER", "asc")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, changelog.OrderAscending, cfg.Changelog.CommitOrder)
}

func TestLoad_LegacyJSONWithWarning(t *testing.T) {
	isolate(t)
	writeFile(t, LegacyProjectConfigPath(), `{
  "packages": [
    {"name": "", "dir": ".", "manifest": "package.json"},
    {"name": "api", "dir": "services/api", "manifest": "services/api/package.json"}
  ],
  "log_level": "debug"
}`)

	var warnings bytes.Buffer
	cfg, err := LoadWithOptions(LoadOptions{WarningWriter: &warnings})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	require.Len(t, cfg.Packages, 2)
	assert.Equal(t, "api", cfg.Packages[1].Name)

	assert.Contains(t, warnings.String(), "deprecated JSON config")
	assert.Contains(t, warnings.String(), LegacyProjectConfigPath())
}

func TestLoad_YAMLPreferredOverLegacyJSON(t *testing.T) {
	isolate(t)
	writeFile(t, ProjectConfigPath(), "log_level: warn\n")
	writeFile(t, LegacyProjectConfigPath(), `{"log_level": "debug"}`)

	var warnings bytes.Buffer
	cfg, err := LoadWithOptions(LoadOptions{WarningWriter: &warnings})
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Contains(t, warnings.String(), "ignored")
}

func TestLoad_SkipWarnings(t *testing.T) {
	isolate(t)
	writeFile(t, LegacyProjectConfigPath(), `{"log_level": "debug"}`)

	var warnings bytes.Buffer
	_, err := LoadWithOptions(LoadOptions{WarningWriter: &warnings, SkipWarnings: true})
	require.NoError(t, err)
	assert.Empty(t, warnings.String())
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "nope.yml"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.Config))
	assert.Contains(t, err.Error(), "nope.yml")
}

func TestLoad_InvalidYAMLSyntax(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yml")
	writeFile(t, path, "packages:\n  - name: [unclosed\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.Config))
	assert.Contains(t, err.Error(), path)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := map[string]struct {
		yaml        string
		wantMessage string
	}{
		"unknown log level": {
			yaml:        "log_level: chatty\n",
			wantMessage: "log_level",
		},
		"unknown commit order": {
			yaml:        "changelog:\n  commit_order: newest\n",
			wantMessage: "commit_order",
		},
		"empty changelog file": {
			yaml:        "changelog:\n  file: \"\"\n",
			wantMessage: "is required",
		},
		"duplicate package names": {
			yaml: `packages:
  - name: api
    dir: services/api
  - name: api
    dir: tools/api
`,
			wantMessage: "duplicate package",
		},
		"absolute package dir": {
			yaml: `packages:
  - name: api
    dir: /srv/api
`,
			wantMessage: "absolute dir",
		},
		"shared manifest path": {
			yaml: `packages:
  - name: api
    dir: services/api
    manifest: package.json
  - name: web
    dir: services/web
    manifest: package.json
`,
			wantMessage: "share the manifest",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := isolate(t)
			path := filepath.Join(dir, "config.yml")
			writeFile(t, path, tt.yaml)

			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.Config))
			assert.Contains(t, err.Error(), tt.wantMessage)
		})
	}
}

func TestConfiguration_Registry(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yml")
	writeFile(t, path, `packages:
  - name: ""
    dir: "."
  - name: api
    dir: services/api
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	reg, err := cfg.Registry()
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	pkg, ok := reg.Get("api")
	require.True(t, ok)
	assert.Equal(t, "api-v", pkg.TagPrefix())
}

func TestGetDefaultConfigTemplate_MatchesDefaults(t *testing.T) {
	var raw map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(GetDefaultConfigTemplate()), &raw))

	cl, ok := raw["changelog"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "CHANGELOG.md", cl["file"])
	assert.Equal(t, true, cl["versioned"])
	assert.Equal(t, "desc", cl["commit_order"])
	assert.Equal(t, "info", raw["log_level"])
}

func TestGetDefaultConfigTemplate_LoadsCleanly(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yml")
	writeFile(t, path, GetDefaultConfigTemplate())

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Packages, 1)
	assert.True(t, cfg.Packages[0].IsRoot())
}

func TestEnvTransform(t *testing.T) {
	tests := map[string]struct {
		env  string
		want string
	}{
		"top-level key":          {env: "MONOREL_LOG_LEVEL", want: "log_level"},
		"changelog file":         {env: "MONOREL_CHANGELOG_FILE", want: "changelog.file"},
		"changelog versioned":    {env: "MONOREL_CHANGELOG_VERSIONED", want: "changelog.versioned"},
		"changelog commit order": {env: "MONOREL_CHANGELOG_COMMIT_ORDER", want: "changelog.commit_order"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, envTransform(tt.env))
		})
	}
}
