package livestore

import "fmt"

// Kind is the wire tag of a protocol message.
type Kind string

const (
	// KindHydrate asks every listening peer to rebroadcast its current value.
	KindHydrate Kind = "HYDRATE"
	// KindUpdate carries the next value.
	KindUpdate Kind = "UPDATE"
)

// Message is the closed set of protocol messages exchanged between containers
// sharing an identifier. The only implementations are HydrateMessage and
// UpdateMessage.
type Message[V any] interface {
	Kind() Kind
	sealed()
}

// HydrateMessage is a pull request sent by a container that found no
// persisted value. It carries no payload.
type HydrateMessage[V any] struct{}

func (HydrateMessage[V]) Kind() Kind { return KindHydrate }
func (HydrateMessage[V]) sealed()    {}

// UpdateMessage pushes a value to every listening peer.
type UpdateMessage[V any] struct {
	NextValue V
}

func (UpdateMessage[V]) Kind() Kind { return KindUpdate }
func (UpdateMessage[V]) sealed()    {}

// wireMessage is the encoded form of a Message.
// HYDRATE omits the payload field entirely.
type wireMessage[V any] struct {
	Type    Kind            `json:"type"`
	Payload *wirePayload[V] `json:"payload,omitempty"`
}

type wirePayload[V any] struct {
	NextValue V `json:"nextValue"`
}

// EncodeMessage converts a message to its wire representation.
func EncodeMessage[V any](c Codec, msg Message[V]) ([]byte, error) {
	var wire wireMessage[V]
	switch m := msg.(type) {
	case HydrateMessage[V]:
		wire.Type = KindHydrate
	case UpdateMessage[V]:
		wire.Type = KindUpdate
		wire.Payload = &wirePayload[V]{NextValue: m.NextValue}
	default:
		return nil, fmt.Errorf("unsupported message %T", msg)
	}
	return c.Marshal(wire)
}

// DecodeMessage parses a wire representation produced by EncodeMessage.
// Unknown tags and UPDATE messages without a payload are rejected.
func DecodeMessage[V any](c Codec, data []byte) (Message[V], error) {
	var wire wireMessage[V]
	if err := c.Unmarshal(data, &wire); err != nil {
		return nil, err
	}

	switch wire.Type {
	case KindHydrate:
		return HydrateMessage[V]{}, nil
	case KindUpdate:
		if wire.Payload == nil {
			return nil, fmt.Errorf("%s message has no payload", KindUpdate)
		}
		return UpdateMessage[V]{NextValue: wire.Payload.NextValue}, nil
	default:
		return nil, fmt.Errorf("unknown message type %q", wire.Type)
	}
}
