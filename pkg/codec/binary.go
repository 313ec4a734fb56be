package codec

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
)

// Binary encodes values that have no structured representation.
// The bytes are stored base64-encoded as element text.
type Binary interface {
	// Marshal serializes v into bytes.
	Marshal(v any) ([]byte, error)
	// Unmarshal deserializes data into v (must be a pointer).
	Unmarshal(data []byte, v any) error
	// Name returns the codec identifier used for diagnostics.
	Name() string
}

// MsgPack is the default binary codec using MessagePack encoding.
type MsgPack struct{}

// Marshal serializes v to MessagePack bytes.
func (MsgPack) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Unmarshal deserializes MessagePack bytes into v.
func (MsgPack) Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}

// Name returns "msgpack".
func (MsgPack) Name() string { return "msgpack" }

// JSON is a binary codec producing human-readable payloads before base64.
type JSON struct{}

// Marshal serializes v to JSON bytes.
func (JSON) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal deserializes JSON bytes into v.
func (JSON) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// Name returns "json".
func (JSON) Name() string { return "json" }

// BinaryByName returns the binary codec registered under name.
// The empty name selects MessagePack.
func BinaryByName(name string) (Binary, error) {
	switch name {
	case "", "msgpack":
		return MsgPack{}, nil
	case "json":
		return JSON{}, nil
	default:
		return nil, errs.New(errs.ErrCodeInvalidInput, "unknown binary codec %q (valid: msgpack, json)", name)
	}
}
