package livestore

import "context"

// Store is the per-context persistent cache the container hydrates from.
// Keys are container identifiers; values are codec output in string form.
//
// A nil Store means persistence is unavailable: hydration always misses and
// writes are skipped, while synchronization between live contexts is unaffected.
type Store interface {
	// Get returns the stored value. ok is false when nothing is stored.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
}

// Transport opens broadcast channels scoped to a container identifier.
//
// A nil Transport means broadcasting is unavailable and the container runs in
// single-context mode.
type Transport interface {
	Open(ctx context.Context, id string) (Channel, error)
}

// Channel is a broadcast channel bound to one identifier.
//
// Send delivers data to every other live listener bound to the same identifier
// and never back to the sender. OnMessage installs the handler invoked once per
// inbound message in delivery order; installing a second handler replaces the
// first. Implementations must invoke the handler from their own goroutine,
// never from inside Send or OnMessage, and must report handler errors through
// their own error reporting. Close must not wait for an in-flight handler.
type Channel interface {
	Send(ctx context.Context, data []byte) error
	OnMessage(handler func(ctx context.Context, data []byte) error)
	Close() error
}

// Capabilities describes which collaborators are available to a container.
// A nil field marks the collaborator as unavailable.
type Capabilities struct {
	Store     Store
	Transport Transport
}
