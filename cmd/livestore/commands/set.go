package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dyluth/livestore/internal/printer"
	"github.com/dyluth/livestore/pkg/livestore"
	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set <id> <json>",
	Short: "Replace the value and broadcast it",
	Long: `Replace the value of <id> with <json>, persist it for this session
scope and broadcast it to every live peer.

Examples:
  livestore set todos '["milk"]'
  livestore set config '{"theme":"dark"}'`,
	Args: cobra.ExactArgs(2),
	RunE: runSet,
}

var appendCmd = &cobra.Command{
	Use:   "append <id> <json>",
	Short: "Append an element to an array value",
	Long: `Append <json> as one element to the array stored at <id>.

A value nobody knows starts as an empty array. Appending to a value that is
not an array fails and leaves it untouched.

Examples:
  livestore append todos '"eggs"'
  livestore append events '{"kind":"login"}'`,
	Args: cobra.ExactArgs(2),
	RunE: runAppend,
}

func init() {
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(appendCmd)
}

func runSet(cmd *cobra.Command, args []string) error {
	value, err := parseJSON(args[1])
	if err != nil {
		return err
	}

	return update(cmd.Context(), args[0], nil, func(any) (any, error) {
		return value, nil
	})
}

func runAppend(cmd *cobra.Command, args []string) error {
	element, err := parseJSON(args[1])
	if err != nil {
		return err
	}

	return update(cmd.Context(), args[0], []any{}, func(prev any) (any, error) {
		list, ok := prev.([]any)
		if !ok && prev != nil {
			return nil, fmt.Errorf("value is a %T, not an array", prev)
		}
		// Never grow the previous slice in place, peers may share it.
		next := make([]any, 0, len(list)+1)
		next = append(next, list...)
		return append(next, element), nil
	})
}

// update opens id, applies fn and prints the resulting value
func update(ctx context.Context, id string, initial any, fn func(any) (any, error)) error {
	v, err := openValue(ctx, id, initial)
	if err != nil {
		return err
	}
	defer v.Close()

	if err := v.Update(ctx, fn); err != nil {
		return printer.ErrorWithContext(
			fmt.Sprintf("Failed to update %q", id),
			err.Error(),
			map[string]string{
				"Store":     v.caps.StoreMode,
				"Transport": v.caps.TransportMode,
			},
			nil,
		)
	}

	printer.Success("%s updated\n", id)
	return printJSON(v.Value())
}

// parseJSON decodes a command line value. Integers stay exact: they become
// int64 or uint64 so every codec encodes them as integers.
func parseJSON(arg string) (any, error) {
	var value any
	if err := (livestore.JSONCodec{}).Unmarshal([]byte(arg), &value); err != nil {
		return nil, printer.Error(
			"Invalid JSON value",
			err.Error(),
			[]string{`Quote strings as JSON, e.g. '"milk"'`},
		)
	}
	return normalizeNumbers(value), nil
}

func normalizeNumbers(value any) any {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if u, err := strconv.ParseUint(v.String(), 10, 64); err == nil {
			return u
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v
	case []any:
		for i := range v {
			v[i] = normalizeNumbers(v[i])
		}
		return v
	case map[string]any:
		for k := range v {
			v[k] = normalizeNumbers(v[k])
		}
		return v
	default:
		return value
	}
}
