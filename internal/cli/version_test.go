package cli

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionCmdRegistration(t *testing.T) {
	t.Parallel()

	found := false
	for _, cmd := range rootCmd.Commands() {
		if cmd.Use == "version" {
			found = true
			break
		}
	}
	assert.True(t, found, "version command should be registered")
	assert.Contains(t, versionCmd.Aliases, "v")
	assert.Equal(t, GroupInspection, versionCmd.GroupID)
}

func TestVersionCmdOutput(t *testing.T) {
	var buf bytes.Buffer
	originalOut := versionCmd.OutOrStdout()
	versionCmd.SetOut(&buf)
	defer versionCmd.SetOut(originalOut)

	versionCmd.Run(versionCmd, []string{})

	out := buf.String()
	assert.Contains(t, out, "monorel dev")
	assert.Contains(t, out, "commit: unknown")
	assert.Contains(t, out, "built: unknown")
	assert.Contains(t, out, "go: go1")
	assert.Contains(t, out, "platform: "+runtime.GOOS+"/"+runtime.GOARCH)
}
