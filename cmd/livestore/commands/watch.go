package commands

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyluth/livestore/internal/printer"
	"github.com/dyluth/livestore/internal/watch"
	"github.com/dyluth/livestore/pkg/livestore"
	"github.com/spf13/cobra"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch <id>",
	Short: "Stay live and print every change",
	Long: `Keep <id> open, answer peers asking for it, and print one line per
observed change until interrupted.

Each line carries the time and where the value came from:
  initial - nobody knew the value yet
  store   - the persisted copy of this session scope
  peer    - an update from another process
  local   - an update made by this process

Examples:
  livestore watch todos
  livestore watch todos --interval 50ms`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", watch.DefaultInterval, "Polling interval for changes")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	v, err := openValue(ctx, args[0], nil)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return err
	}
	defer v.Close()

	if v.caps.Transport == nil {
		printer.Warning("no transport available, changes from other processes will not be seen\n")
	}

	err = watch.Changes[observed](ctx, snapshots{v}, watchInterval, func(o observed) error {
		data, err := json.Marshal(o.value)
		if err != nil {
			return err
		}
		printer.Change(time.Now(), o.origin.String(), data)
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return printer.Error("Watch failed", err.Error(), nil)
	}
	return nil
}

// observed is one value with the origin it had when it was read
type observed struct {
	value  any
	origin livestore.Origin
}

type snapshots struct{ v *liveValue }

func (s snapshots) Value() observed {
	value, origin := s.v.Snapshot()
	return observed{value: value, origin: origin}
}
