package livestore

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyID is returned by New when the container identifier is empty.
	ErrEmptyID = errors.New("livestore: container id cannot be empty")
	// ErrNilCodec is returned when WithCodec is given a nil codec.
	ErrNilCodec = errors.New("livestore: codec cannot be nil")
	// ErrNilUpdater is returned by Update when the updater function is nil.
	ErrNilUpdater = errors.New("livestore: updater cannot be nil")
)

// Serialization operations reported in SerializationError.Op.
const (
	OpEncodeValue   = "encode value"
	OpDecodeValue   = "decode value"
	OpEncodeMessage = "encode message"
	OpDecodeMessage = "decode message"
)

// SerializationError reports a value or message that could not be encoded
// to, or decoded from, its persisted or wire representation.
// It is returned unchanged (possibly wrapped) to the caller of the operation
// that triggered it: New, Update, or the transport invoking the message handler.
type SerializationError struct {
	Op  string // One of the Op* constants
	ID  string // Container identifier
	Err error  // Underlying codec error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("livestore: %s for %q: %v", e.Op, e.ID, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// IsSerializationError reports whether err is, or wraps, a SerializationError.
func IsSerializationError(err error) bool {
	var serr *SerializationError
	return errors.As(err, &serr)
}
