package serialize

import "github.com/jonwraymond/pycheckpoint/identity"

// Serializer persists one value to a file and reads it back.
//
// Contract:
// - Serialize must either write a complete file or return an error; partial
//   writes are the caller's problem only insofar as it stages to a temp path.
// - Deserialize fills v, which must be a non-nil pointer to the expected
//   return type.
// - Extension returns the file extension without a leading dot.
type Serializer interface {
	Serialize(path string, v any) error
	Deserialize(path string, v any) error
	Extension() string
}

// SerializeFunc writes v to path.
type SerializeFunc func(path string, v any) error

// DeserializeFunc reads the value at path into the pointer v.
type DeserializeFunc func(path string, v any) error

// custom adapts a caller-supplied function pair.
type custom struct {
	ser SerializeFunc
	de  DeserializeFunc
	ext string
}

// Custom wraps a caller-supplied serialize/deserialize pair behind the
// Serializer interface. The pair is used verbatim; the extension is
// sanitized the same way file names are.
func Custom(ser SerializeFunc, de DeserializeFunc, extension string) Serializer {
	return &custom{ser: ser, de: de, ext: identity.SanitizeName(extension)}
}

func (c *custom) Serialize(path string, v any) error {
	return c.ser(path, v)
}

func (c *custom) Deserialize(path string, v any) error {
	return c.de(path, v)
}

func (c *custom) Extension() string { return c.ext }

var _ Serializer = (*custom)(nil)
