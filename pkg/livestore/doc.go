// Package livestore provides a value container that stays consistent across
// independent, concurrently running contexts sharing an identifier, without a
// central coordinator.
//
// # Overview
//
// Each context holds its own in-memory copy of the value in a Container. A
// per-context Store caches the value so it survives a restart of that context,
// and a broadcast Channel, opened from a Transport, propagates updates and
// bootstraps new contexts from live peers.
//
// # Protocol
//
// Two messages exist:
//
//	{"type":"HYDRATE"}                                  pull: "send me your value"
//	{"type":"UPDATE","payload":{"nextValue":<value>}}   push: "this is the value"
//
// A new container first hydrates from its Store. On a miss it starts from the
// caller's initial value and broadcasts HYDRATE; any live peer answers with
// UPDATE carrying its current value. Every local Update persists the new value
// and broadcasts UPDATE. An inbound UPDATE replaces the value unconditionally
// and persists it: the last message applied wins.
//
// There are no acknowledgements, retries or timeouts. A context that updates
// before any peer answered its HYDRATE keeps its own value until a peer
// broadcasts again.
//
// # Degraded modes
//
// Collaborators are injected explicitly. A nil Store keeps the value in memory
// only; a nil Transport runs the container in single-context mode. Use
// WithCapabilities to pass the result of feature detection.
//
// # Usage Example
//
//	hub := bus.NewHub()
//	a, _ := livestore.New[[]string](ctx, "posts", nil,
//		livestore.WithStore(session.NewMemory()),
//		livestore.WithTransport(hub),
//	)
//	_ = a.Update(ctx, func(prev []string) ([]string, error) {
//		return append(slices.Clip(prev), "Brave new world"), nil
//	})
//
//	// b asks a for its value and converges to ["Brave new world"].
//	b, _ := livestore.New[[]string](ctx, "posts", nil,
//		livestore.WithStore(session.NewMemory()),
//		livestore.WithTransport(hub),
//	)
package livestore
