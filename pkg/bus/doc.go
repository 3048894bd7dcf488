// Package bus provides broadcast transports for livestore containers.
//
// A transport opens one channel per container identifier. A message sent on a
// channel reaches every other channel opened for the same identifier and never
// the sender, mirroring a browser BroadcastChannel.
//
// Hub connects containers living in one process. Redis connects containers
// across processes and machines through Redis Pub/Sub on
// livestore:{namespace}:channel:{id}.
//
// Delivery is at-most-once and asynchronous: handlers run on a goroutine owned
// by the channel, in the order messages were received. Handler errors are
// reported to the function installed with WithErrorHandler. There is no
// default reporting: a transport created without WithErrorHandler discards
// them, so a peer's malformed message leaves no trace.
package bus
