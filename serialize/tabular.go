package serialize

import (
	"fmt"
	"reflect"
)

// checkPointer validates a deserialization target.
func checkPointer(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return ErrNotPointer
	}
	return nil
}

// tabularValue checks that v is a slice of structs, the shape the tabular
// backends require, and returns the slice and its row type.
func tabularValue(backend string, v any) (reflect.Value, reflect.Type, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() != reflect.Struct {
		return reflect.Value{}, nil, &SerializationError{
			Backend: backend,
			Type:    fmt.Sprintf("%T", v),
			Cause:   ErrNotTabular,
		}
	}
	return rv, rv.Type().Elem(), nil
}

// tabularTarget checks that v is a pointer to a slice of structs and
// returns the slice value to fill and its row type.
func tabularTarget(backend string, v any) (reflect.Value, reflect.Type, error) {
	if err := checkPointer(v); err != nil {
		return reflect.Value{}, nil, err
	}
	slice := reflect.ValueOf(v).Elem()
	if slice.Kind() != reflect.Slice || slice.Type().Elem().Kind() != reflect.Struct {
		return reflect.Value{}, nil, &SerializationError{
			Backend: backend,
			Type:    fmt.Sprintf("%T", v),
			Cause:   ErrNotTabular,
		}
	}
	return slice, slice.Type().Elem(), nil
}
