package watch

import (
	"context"
	"errors"
	"reflect"
	"time"
)

// DefaultInterval is the polling period used by the CLI.
const DefaultInterval = 200 * time.Millisecond

// ErrTimeout is returned by Until when the condition did not hold in time.
var ErrTimeout = errors.New("timeout waiting for condition")

// Source is anything exposing a current value, typically a livestore container.
type Source[V any] interface {
	Value() V
}

// Until polls cond every interval until it returns true.
// Returns ErrTimeout when timeout elapses first, or ctx.Err() on cancellation.
func Until(ctx context.Context, interval, timeout time.Duration, cond func() bool) error {
	if cond() {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-timeoutCh:
			return ErrTimeout

		case <-ticker.C:
			if cond() {
				return nil
			}
		}
	}
}

// Changes calls fn with the current value of src, then again every time a
// poll observes a different value. It runs until ctx is done, returning
// ctx.Err(), or until fn returns an error.
//
// Changes that are overwritten between two polls are not observed.
func Changes[V any](ctx context.Context, src Source[V], interval time.Duration, fn func(V) error) error {
	last := src.Value()
	if err := fn(last); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			current := src.Value()
			if reflect.DeepEqual(current, last) {
				continue
			}
			last = current
			if err := fn(current); err != nil {
				return err
			}
		}
	}
}
