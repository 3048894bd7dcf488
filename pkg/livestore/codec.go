package livestore

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec serializes values and protocol messages.
// The same codec is used for the persisted representation and the wire format,
// so every container sharing an identifier must agree on it.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	// Binary reports whether encoded output may contain arbitrary bytes.
	// Binary output is base64 wrapped before it reaches a Store.
	Binary() bool
}

// JSONCodec uses encoding/json. It is the default codec.
//
// Numbers decoded into an interface become json.Number rather than float64,
// so integers beyond 2^53 survive a decode and re-encode unchanged.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("invalid character after top-level value")
	}
	return nil
}

func (JSONCodec) Binary() bool { return false }

// MsgpackCodec uses MessagePack. Struct fields are matched by their json tags,
// so types annotated for JSONCodec work unchanged.
type MsgpackCodec struct{}

func (MsgpackCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (MsgpackCodec) Unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

func (MsgpackCodec) Binary() bool { return true }

// encodeString converts codec output into the persisted string form.
func encodeString(c Codec, data []byte) string {
	if c.Binary() {
		return base64.StdEncoding.EncodeToString(data)
	}
	return string(data)
}

// decodeString reverses encodeString.
func decodeString(c Codec, s string) ([]byte, error) {
	if c.Binary() {
		return base64.StdEncoding.DecodeString(s)
	}
	return []byte(s), nil
}
