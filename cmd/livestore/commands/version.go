package commands

import (
	"github.com/dyluth/livestore/internal/printer"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printer.Info("livestore %s\n  commit: %s\n  built:  %s\n", orDefault(version, "dev"), orDefault(commit, "none"), orDefault(date, "unknown"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
