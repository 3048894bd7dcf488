package commands

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

// TestRootCommand_ShowsHelpWhenNoSubcommand tests that the root command
// shows help instead of silently succeeding when invoked without a subcommand
func TestRootCommand_ShowsHelpWhenNoSubcommand(t *testing.T) {
	testRoot := &cobra.Command{
		Use:   "livestore",
		Short: "Test root command",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	buf := new(bytes.Buffer)
	testRoot.SetOut(buf)
	testRoot.SetErr(buf)

	err := testRoot.Execute()

	// Should show help (which returns nil error in cobra)
	assert.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "Usage:", "Help should be displayed")
	assert.Contains(t, output, "livestore", "Help should show command name")
}

// TestRootCommand_RejectsUnknownFlags tests that unknown flags
// passed to the root command cause an error instead of being silently ignored
func TestRootCommand_RejectsUnknownFlags(t *testing.T) {
	testRoot := &cobra.Command{
		Use:   "livestore",
		Short: "Test root command",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		FParseErrWhitelist: cobra.FParseErrWhitelist{},
	}

	testRoot.SetArgs([]string{"--unknown-flag", "value"})

	buf := new(bytes.Buffer)
	testRoot.SetOut(buf)
	testRoot.SetErr(buf)

	err := testRoot.Execute()
	assert.Error(t, err, "Unknown flag should cause an error")
	assert.Contains(t, err.Error(), "unknown flag", "Error should mention unknown flag")
}

// TestRootCommand_RegistersSubcommands checks every command is reachable from the root
func TestRootCommand_RegistersSubcommands(t *testing.T) {
	for _, name := range []string{"get", "set", "append", "watch", "version"} {
		t.Run(name, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{name})
			assert.NoError(t, err)
			assert.Equal(t, name, cmd.Name())
		})
	}
}

// TestRootCommand_GlobalFlags checks the persistent flags and their defaults
func TestRootCommand_GlobalFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	tests := map[string]string{
		"config":    "livestore.yml",
		"redis-url": "",
		"namespace": "",
		"scope":     "",
		"log-level": "warn",
		"settle":    "300ms",
	}
	for name, def := range tests {
		flag := flags.Lookup(name)
		if assert.NotNil(t, flag, "flag --%s should exist", name) {
			assert.Equal(t, def, flag.DefValue, "default of --%s", name)
		}
	}
}

func TestSetupLogger(t *testing.T) {
	assert.NoError(t, setupLogger("debug"))
	assert.NoError(t, setupLogger("warn"))

	err := setupLogger("loud")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse log level")
}
