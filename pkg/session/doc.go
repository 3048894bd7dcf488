// Package session provides persistent stores for livestore containers.
//
// A store plays the role of a browser tab's session storage: it belongs to one
// context (scope) and lets that context's containers survive a restart. Stores
// are never shared between contexts that are expected to diverge; sharing is
// the job of the transport.
//
// Memory keeps values for the life of the process, Redis keeps them in a
// scope-namespaced Redis key space with an optional expiry, and File keeps
// them in a JSON file guarded by an advisory lock.
package session
