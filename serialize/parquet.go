package serialize

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/parquet-go/parquet-go"
)

// parquetSerializer encodes a slice of structs as a Parquet file, the
// columnar tabular backend.
type parquetSerializer struct{}

// Parquet returns the columnar tabular backend.
func Parquet() Serializer {
	return &parquetSerializer{}
}

func (s *parquetSerializer) Serialize(path string, v any) error {
	rows, rowType, err := tabularValue("parquet", v)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return &SerializationError{Backend: "parquet", Type: fmt.Sprintf("%T", v), Cause: err}
	}

	schema := parquet.SchemaOf(reflect.New(rowType).Interface())
	w := parquet.NewWriter(f, schema)
	for i := 0; i < rows.Len(); i++ {
		if err := w.Write(rows.Index(i).Interface()); err != nil {
			f.Close()
			return &SerializationError{Backend: "parquet", Type: fmt.Sprintf("%T", v), Cause: err}
		}
	}
	if err := w.Close(); err != nil {
		f.Close()
		return &SerializationError{Backend: "parquet", Type: fmt.Sprintf("%T", v), Cause: err}
	}
	if err := f.Close(); err != nil {
		return &SerializationError{Backend: "parquet", Type: fmt.Sprintf("%T", v), Cause: err}
	}
	return nil
}

func (s *parquetSerializer) Deserialize(path string, v any) error {
	slice, rowType, err := tabularTarget("parquet", v)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return &SerializationError{Backend: "parquet", Type: fmt.Sprintf("%T", v), Cause: err}
	}
	defer f.Close()

	r := parquet.NewReader(f, parquet.SchemaOf(reflect.New(rowType).Interface()))
	defer r.Close()

	out := reflect.MakeSlice(slice.Type(), 0, int(r.NumRows()))
	for {
		row := reflect.New(rowType)
		if err := r.Read(row.Interface()); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return &SerializationError{Backend: "parquet", Type: fmt.Sprintf("%T", v), Cause: err}
		}
		out = reflect.Append(out, row.Elem())
	}
	slice.Set(out)
	return nil
}

func (s *parquetSerializer) Extension() string { return "parquet" }

var _ Serializer = (*parquetSerializer)(nil)
