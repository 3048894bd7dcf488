package schema

import (
	"fmt"
	"strings"
)

// Redis key pattern helpers
//
// All Redis keys and Pub/Sub channels are namespaced so several independent
// deployments can share one Redis server without interference.
//
// Key pattern: livestore:{namespace}:session:{scope}:value:{id}
// Channel pattern: livestore:{namespace}:channel:{id}

// ValueKey returns the Redis key holding one session's persisted value.
// Pattern: livestore:{namespace}:session:{scope}:value:{id}
func ValueKey(namespace, scope, id string) string {
	return fmt.Sprintf("livestore:%s:session:%s:value:%s", namespace, scope, id)
}

// SessionPrefix returns the key prefix shared by every value of one session.
func SessionPrefix(namespace, scope string) string {
	return fmt.Sprintf("livestore:%s:session:%s:value:", namespace, scope)
}

// SessionPattern returns a SCAN pattern matching every value of one session.
// Glob characters in namespace and scope are escaped so they match literally.
// Pattern: livestore:{namespace}:session:{scope}:value:*
func SessionPattern(namespace, scope string) string {
	return globEscaper.Replace(SessionPrefix(namespace, scope)) + "*"
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// Channel returns the Pub/Sub channel name shared by every container with id.
// Pattern: livestore:{namespace}:channel:{id}
func Channel(namespace, id string) string {
	return fmt.Sprintf("livestore:%s:channel:%s", namespace, id)
}
