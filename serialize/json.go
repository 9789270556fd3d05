package serialize

import (
	"encoding/json"
	"fmt"
	"os"
)

// jsonSerializer encodes values as JSON.
type jsonSerializer struct {
	indent string
}

// JSONOption configures the JSON backend.
type JSONOption func(*jsonSerializer)

// JSONIndent sets the indentation string for written files. The default is
// compact output.
func JSONIndent(indent string) JSONOption {
	return func(s *jsonSerializer) { s.indent = indent }
}

// JSON returns the JSON backend. It handles any JSON-compatible value.
func JSON(opts ...JSONOption) Serializer {
	s := &jsonSerializer{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *jsonSerializer) Serialize(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return &SerializationError{Backend: "json", Type: fmt.Sprintf("%T", v), Cause: err}
	}
	enc := json.NewEncoder(f)
	if s.indent != "" {
		enc.SetIndent("", s.indent)
	}
	if err := enc.Encode(v); err != nil {
		f.Close()
		return &SerializationError{Backend: "json", Type: fmt.Sprintf("%T", v), Cause: err}
	}
	if err := f.Close(); err != nil {
		return &SerializationError{Backend: "json", Type: fmt.Sprintf("%T", v), Cause: err}
	}
	return nil
}

func (s *jsonSerializer) Deserialize(path string, v any) error {
	if err := checkPointer(v); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return &SerializationError{Backend: "json", Type: fmt.Sprintf("%T", v), Cause: err}
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return &SerializationError{Backend: "json", Type: fmt.Sprintf("%T", v), Cause: err}
	}
	return nil
}

func (s *jsonSerializer) Extension() string { return "json" }

var _ Serializer = (*jsonSerializer)(nil)
