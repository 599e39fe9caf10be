//go:build !integration

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"normalize", "similar", "variants", "analyze", "top", "stream", "fetch", "runs", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "employer-resolve", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestTopCommand_Flags(t *testing.T) {
	for _, name := range []string{"top", "state", "year", "format", "divider", "summary", "output", "save", "strategy", "threshold", "pre-normalize", "skip-malformed"} {
		assert.NotNil(t, topCmd.Flags().Lookup(name), "top should have --%s", name)
	}
	flag := topCmd.Flags().Lookup("format")
	require.NotNil(t, flag)
	assert.Equal(t, "table", flag.DefValue)
}

func TestStreamCommand_NoStrategyFlag(t *testing.T) {
	assert.Nil(t, streamCmd.Flags().Lookup("strategy"))
	assert.NotNil(t, streamCmd.Flags().Lookup("top"))
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"list", "show", "stats", "employers"} {
		assert.True(t, names[name], "expected runs subcommand %q", name)
	}
}
