package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReleaseCmdRegistration(t *testing.T) {
	found := false
	for _, cmd := range rootCmd.Commands() {
		if cmd.Use == "release [package]" {
			found = true
			break
		}
	}
	assert.True(t, found, "release command should be registered")
	assert.Equal(t, GroupRelease, releaseCmd.GroupID)
}

func TestReleaseCmdFlags(t *testing.T) {
	tests := map[string]struct {
		flagName  string
		shorthand string
		defValue  string
		wantType  string
	}{
		"tag flag": {
			flagName: "tag",
			defValue: "false",
			wantType: "bool",
		},
		"dry-run flag": {
			flagName: "dry-run",
			defValue: "false",
			wantType: "bool",
		},
		"message flag": {
			flagName:  "message",
			shorthand: "m",
			defValue:  "",
			wantType:  "string",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := releaseCmd.Flags().Lookup(tt.flagName)
			require.NotNil(t, f, "flag %s should exist", tt.flagName)
			assert.Equal(t, tt.shorthand, f.Shorthand)
			assert.Equal(t, tt.defValue, f.DefValue)
			assert.Equal(t, tt.wantType, f.Value.Type())
		})
	}
}

func TestReleaseNothingToRelease(t *testing.T) {
	r := initRepo(t)
	sha := r.commit("feat: initial release", map[string]string{
		"package.json": `{"name": "app", "version": "1.0.0"}`,
	})
	r.tag("v1.0.0", sha)

	var stdout, stderr bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetContext(context.Background())

	err := runRelease(cmd, nil)
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "root: nothing to release (No commits in range)")
	assert.NoFileExists(t, filepath.Join(r.dir, "CHANGELOG.md"))
	assert.Equal(t, "1.0.0", r.manifestVersion("package.json"))
}

func TestReleaseWritesManifestAndChangelog(t *testing.T) {
	r := initRepo(t)
	sha := r.commit("feat: initial release", map[string]string{
		"package.json": `{"name": "app", "version": "1.0.0"}`,
	})
	r.tag("v1.0.0", sha)
	r.commit("feat: add export endpoint", map[string]string{
		"export.go": "package app\n",
	})

	var stdout, stderr bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetContext(context.Background())

	err := runRelease(cmd, nil)
	require.NoError(t, err)

	out := stdout.String()
	assert.Contains(t, out, "root: released 1.0.0 -> 1.1.0 (minor bump)")
	assert.Contains(t, out, "manifest:  package.json")
	assert.Contains(t, out, "changelog: CHANGELOG.md")
	assert.NotContains(t, out, "tag:", "no tag without --tag")

	assert.Equal(t, "1.1.0", r.manifestVersion("package.json"))
	data, err := os.ReadFile(filepath.Join(r.dir, "CHANGELOG.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "## [1.1.0]")
	assert.Contains(t, string(data), "feat: add export endpoint")
}

func TestReleaseDryRun(t *testing.T) {
	r := initRepo(t)
	sha := r.commit("feat: initial release", map[string]string{
		"package.json": `{"name": "app", "version": "1.0.0"}`,
	})
	r.tag("v1.0.0", sha)
	r.commit("feat: add export endpoint", map[string]string{
		"export.go": "package app\n",
	})

	releaseDryRunFlag = true
	releaseTagFlag = true
	defer func() { releaseDryRunFlag, releaseTagFlag = false, false }()

	var stdout, stderr bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetContext(context.Background())

	err := runRelease(cmd, nil)
	require.NoError(t, err)

	out := stdout.String()
	assert.Contains(t, out, "root: would release 1.0.0 -> 1.1.0 (minor bump)")
	assert.Contains(t, out, "tag:       v1.1.0")

	assert.Equal(t, "1.0.0", r.manifestVersion("package.json"))
	assert.NoFileExists(t, filepath.Join(r.dir, "CHANGELOG.md"))
	_, err = r.repo.Tag("v1.1.0")
	assert.Error(t, err, "dry run must not create the tag")
}

func TestReleaseCreatesTag(t *testing.T) {
	r := initRepo(t)
	sha := r.commit("feat: initial release", map[string]string{
		"package.json": `{"name": "app", "version": "1.0.0"}`,
	})
	r.tag("v1.0.0", sha)
	r.commit("fix: handle empty payload", map[string]string{
		"payload.go": "package app\n",
	})

	releaseTagFlag = true
	releaseMessageFlag = "hotfix release"
	defer func() { releaseTagFlag, releaseMessageFlag = false, "" }()

	var stdout, stderr bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetContext(context.Background())

	err := runRelease(cmd, nil)
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "root: released 1.0.0 -> 1.0.1 (patch bump)")
	assert.Contains(t, stdout.String(), "tag:       v1.0.1")

	_, err = r.repo.Tag("v1.0.1")
	assert.NoError(t, err, "release tag should exist")
}

func TestReleaseSyncsManifestBehindTags(t *testing.T) {
	r := initRepo(t)
	sha := r.commit("feat: initial release", map[string]string{
		"package.json": `{"name": "app", "version": "1.1.0"}`,
	})
	r.tag("v1.2.0", sha)
	r.commit("chore: tidy readme", map[string]string{
		"README.md": "# app\n",
	})

	var stdout, stderr bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetContext(context.Background())

	err := runRelease(cmd, nil)
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "root: manifest synced to 1.2.0, no release")
	assert.Equal(t, "1.2.0", r.manifestVersion("package.json"))
	assert.NoFileExists(t, filepath.Join(r.dir, "CHANGELOG.md"))
}
