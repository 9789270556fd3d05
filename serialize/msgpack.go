package serialize

import (
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// msgpackSerializer encodes values as MessagePack. It is the default
// backend: like the original tool's pickle backend, it round-trips
// arbitrary Go values without requiring them to be tabular or
// JSON-compatible.
type msgpackSerializer struct {
	sortKeys bool
}

// MsgpackOption configures the MessagePack backend.
type MsgpackOption func(*msgpackSerializer)

// MsgpackSortKeys makes map encoding deterministic at the cost of a sort
// per map. Only the stored bytes are affected, never the cache key.
func MsgpackSortKeys() MsgpackOption {
	return func(s *msgpackSerializer) { s.sortKeys = true }
}

// Msgpack returns the MessagePack backend.
func Msgpack(opts ...MsgpackOption) Serializer {
	s := &msgpackSerializer{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *msgpackSerializer) Serialize(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return &SerializationError{Backend: "msgpack", Type: fmt.Sprintf("%T", v), Cause: err}
	}
	enc := msgpack.NewEncoder(f)
	if s.sortKeys {
		enc.SetSortMapKeys(true)
	}
	if err := enc.Encode(v); err != nil {
		f.Close()
		return &SerializationError{Backend: "msgpack", Type: fmt.Sprintf("%T", v), Cause: err}
	}
	if err := f.Close(); err != nil {
		return &SerializationError{Backend: "msgpack", Type: fmt.Sprintf("%T", v), Cause: err}
	}
	return nil
}

func (s *msgpackSerializer) Deserialize(path string, v any) error {
	if err := checkPointer(v); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return &SerializationError{Backend: "msgpack", Type: fmt.Sprintf("%T", v), Cause: err}
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(v); err != nil {
		return &SerializationError{Backend: "msgpack", Type: fmt.Sprintf("%T", v), Cause: err}
	}
	return nil
}

func (s *msgpackSerializer) Extension() string { return "msgpack" }

var _ Serializer = (*msgpackSerializer)(nil)
