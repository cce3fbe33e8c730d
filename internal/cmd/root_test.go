package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)

	stdout, _, err := execute(t, cmd, "--help")
	require.NoError(t, err)

	assert.Contains(t, stdout, "qatriage")
	assert.Contains(t, stdout, "Robot Framework")
	assert.Contains(t, stdout, "analyze")
	assert.Contains(t, stdout, "history")
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "qatriage", cmd.Use)

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["analyze"], "missing analyze command")
	assert.True(t, names["history"], "missing history command")
}

func TestVersionFlag(t *testing.T) {
	stdout, _, err := execute(t, NewRootCommand(), "--version")
	require.NoError(t, err)
	assert.True(t, strings.Contains(stdout, Version), "version output %q should contain %q", stdout, Version)
}
