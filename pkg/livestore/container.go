package livestore

import (
	"context"
	"fmt"
	"sync"
)

// Origin records where a container's current value came from.
type Origin int

const (
	// OriginInitial is the caller-supplied initial value.
	OriginInitial Origin = iota
	// OriginStore is a value hydrated from the persistent store.
	OriginStore
	// OriginPeer is a value received in an UPDATE message.
	OriginPeer
	// OriginLocal is a value produced by Update or Set.
	OriginLocal
)

func (o Origin) String() string {
	switch o {
	case OriginInitial:
		return "initial"
	case OriginStore:
		return "store"
	case OriginPeer:
		return "peer"
	case OriginLocal:
		return "local"
	default:
		return fmt.Sprintf("Origin(%d)", int(o))
	}
}

// Container holds one context's copy of a value shared by every container
// with the same identifier.
//
// Update and inbound message handling are the only two mutation paths and are
// serialized by the container, so it is safe for concurrent use. Values
// returned by Value are shared with the container and must not be mutated in
// place; produce a new value in the updater instead.
type Container[V any] struct {
	id      string
	codec   Codec
	store   Store
	channel Channel

	mu     sync.Mutex
	value  V
	origin Origin
}

// New creates a container for id and seeds its value.
//
// The persisted value for id is used when present, otherwise initial. With a
// transport available, the container always subscribes to the id's channel and,
// when nothing was persisted, asks live peers for their value with a HYDRATE
// message. Peers answer asynchronously; until then Value returns initial.
//
// A persisted value that cannot be decoded fails with a SerializationError.
func New[V any](ctx context.Context, id string, initial V, opts ...Option) (*Container[V], error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	c := &Container[V]{
		id:    id,
		codec: cfg.codec,
		store: cfg.store,
	}

	// Inbound messages wait for the lock, so none is handled while seeding.
	c.mu.Lock()
	defer c.mu.Unlock()

	hydrated, err := c.hydrate(ctx)
	if err != nil {
		return nil, err
	}
	if !hydrated {
		c.value = initial
		c.origin = OriginInitial
	}

	if cfg.transport == nil {
		return c, nil
	}

	channel, err := cfg.transport.Open(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to open channel for %q: %w", id, err)
	}
	c.channel = channel
	channel.OnMessage(c.handle)

	if !hydrated {
		if err := c.send(ctx, HydrateMessage[V]{}); err != nil {
			_ = channel.Close()
			return nil, err
		}
	}

	return c, nil
}

// Snapshot returns the current value together with its origin, read atomically.
func (c *Container[V]) Snapshot() (V, Origin) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.origin
}

// ID returns the container identifier.
func (c *Container[V]) ID() string {
	return c.id
}

// Value returns the current value.
func (c *Container[V]) Value() V {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Origin reports where the current value came from.
func (c *Container[V]) Origin() Origin {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.origin
}

// Update computes the next value from the current one, installs it, persists
// it and broadcasts it to peers.
//
// An error returned by fn is returned unchanged and leaves the value intact, as
// does a next value the codec cannot encode (SerializationError). Store and
// transport failures are returned wrapped; the new value is installed by then.
// fn runs while the container is locked and must not call back into it.
func (c *Container[V]) Update(ctx context.Context, fn func(prev V) (V, error)) error {
	if fn == nil {
		return ErrNilUpdater
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fn(c.value)
	if err != nil {
		return err
	}
	return c.commit(ctx, next, OriginLocal, true)
}

// Set replaces the value. It is Update with an updater ignoring the previous value.
func (c *Container[V]) Set(ctx context.Context, value V) error {
	return c.Update(ctx, func(V) (V, error) { return value, nil })
}

// Close releases the broadcast channel. The container keeps working in
// single-context mode afterwards. The persisted value is left in place.
func (c *Container[V]) Close() error {
	c.mu.Lock()
	channel := c.channel
	c.channel = nil
	c.mu.Unlock()

	if channel == nil {
		return nil
	}
	return channel.Close()
}

// hydrate loads the persisted value. It reports false when there is no store
// or nothing (or an empty string) is stored for the id.
func (c *Container[V]) hydrate(ctx context.Context) (bool, error) {
	if c.store == nil {
		return false, nil
	}

	stored, ok, err := c.store.Get(ctx, c.id)
	if err != nil {
		return false, fmt.Errorf("failed to read persisted value for %q: %w", c.id, err)
	}
	if !ok || stored == "" {
		return false, nil
	}

	data, err := decodeString(c.codec, stored)
	if err != nil {
		return false, &SerializationError{Op: OpDecodeValue, ID: c.id, Err: err}
	}
	var value V
	if err := c.codec.Unmarshal(data, &value); err != nil {
		return false, &SerializationError{Op: OpDecodeValue, ID: c.id, Err: err}
	}

	c.value = value
	c.origin = OriginStore
	return true, nil
}

// handle is the channel handler. It runs on the transport's goroutine.
func (c *Container[V]) handle(ctx context.Context, data []byte) error {
	msg, err := DecodeMessage[V](c.codec, data)
	if err != nil {
		return &SerializationError{Op: OpDecodeMessage, ID: c.id, Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch m := msg.(type) {
	case HydrateMessage[V]:
		// Every listener receives the answer; there is no addressing.
		return c.send(ctx, UpdateMessage[V]{NextValue: c.value})
	case UpdateMessage[V]:
		// Last message applied wins.
		return c.commit(ctx, m.NextValue, OriginPeer, false)
	default:
		return fmt.Errorf("livestore: unhandled message %T for %q", msg, c.id)
	}
}

// commit is the single path installing a new value. It encodes first so an
// unencodable value never replaces the current one, then persists and, for
// local changes, broadcasts. The caller holds c.mu.
func (c *Container[V]) commit(ctx context.Context, next V, origin Origin, broadcast bool) error {
	encoded, err := c.codec.Marshal(next)
	if err != nil {
		return &SerializationError{Op: OpEncodeValue, ID: c.id, Err: err}
	}

	c.value = next
	c.origin = origin

	if c.store != nil {
		if err := c.store.Set(ctx, c.id, encodeString(c.codec, encoded)); err != nil {
			return fmt.Errorf("failed to persist value for %q: %w", c.id, err)
		}
	}

	if !broadcast {
		return nil
	}
	return c.send(ctx, UpdateMessage[V]{NextValue: next})
}

// send encodes and broadcasts msg. Without a channel it is a no-op.
func (c *Container[V]) send(ctx context.Context, msg Message[V]) error {
	if c.channel == nil {
		return nil
	}

	data, err := EncodeMessage[V](c.codec, msg)
	if err != nil {
		return &SerializationError{Op: OpEncodeMessage, ID: c.id, Err: err}
	}
	if err := c.channel.Send(ctx, data); err != nil {
		return fmt.Errorf("failed to broadcast %s for %q: %w", msg.Kind(), c.id, err)
	}
	return nil
}
