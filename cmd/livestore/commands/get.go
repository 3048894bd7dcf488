package commands

import (
	"encoding/json"

	"github.com/dyluth/livestore/internal/printer"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print the current value as JSON",
	Long: `Print the current value of <id> as JSON.

The persisted copy for this session scope is used when present. Otherwise
live peers are asked for theirs and the first answer within --settle wins.
A value nobody knows prints as null.

Examples:
  livestore get todos
  livestore get todos --settle 1s | jq length`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	v, err := openValue(cmd.Context(), args[0], nil)
	if err != nil {
		return err
	}
	defer v.Close()

	return printJSON(v.Value())
}

func printJSON(value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return printer.Error("Failed to format value", err.Error(), nil)
	}
	printer.Value(data)
	return nil
}
