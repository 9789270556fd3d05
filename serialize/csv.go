package serialize

import (
	"encoding/csv"
	"fmt"
	"os"
	"reflect"
	"strconv"
)

// csvSerializer encodes a slice of flat structs as CSV with a header row.
// Column order follows struct field order; only exported scalar fields are
// supported.
type csvSerializer struct {
	comma rune
}

// CSVOption configures the CSV backend.
type CSVOption func(*csvSerializer)

// CSVComma sets the field delimiter. The default is ','.
func CSVComma(r rune) CSVOption {
	return func(s *csvSerializer) { s.comma = r }
}

// CSV returns the tabular CSV backend.
func CSV(opts ...CSVOption) Serializer {
	s := &csvSerializer{comma: ','}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *csvSerializer) Serialize(path string, v any) error {
	rows, rowType, err := tabularValue("csv", v)
	if err != nil {
		return err
	}
	header, fields, err := csvColumns(rowType)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return &SerializationError{Backend: "csv", Type: fmt.Sprintf("%T", v), Cause: err}
	}
	w := csv.NewWriter(f)
	w.Comma = s.comma

	if err := w.Write(header); err != nil {
		f.Close()
		return &SerializationError{Backend: "csv", Type: fmt.Sprintf("%T", v), Cause: err}
	}
	record := make([]string, len(fields))
	for i := 0; i < rows.Len(); i++ {
		row := rows.Index(i)
		for j, idx := range fields {
			record[j] = formatScalar(row.Field(idx))
		}
		if err := w.Write(record); err != nil {
			f.Close()
			return &SerializationError{Backend: "csv", Type: fmt.Sprintf("%T", v), Cause: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return &SerializationError{Backend: "csv", Type: fmt.Sprintf("%T", v), Cause: err}
	}
	if err := f.Close(); err != nil {
		return &SerializationError{Backend: "csv", Type: fmt.Sprintf("%T", v), Cause: err}
	}
	return nil
}

func (s *csvSerializer) Deserialize(path string, v any) error {
	slice, rowType, err := tabularTarget("csv", v)
	if err != nil {
		return err
	}
	header, fields, err := csvColumns(rowType)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return &SerializationError{Backend: "csv", Type: fmt.Sprintf("%T", v), Cause: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = s.comma
	records, err := r.ReadAll()
	if err != nil {
		return &SerializationError{Backend: "csv", Type: fmt.Sprintf("%T", v), Cause: err}
	}
	if len(records) == 0 {
		slice.Set(reflect.MakeSlice(slice.Type(), 0, 0))
		return nil
	}

	// Map file columns to struct fields by header name so column order in
	// the file does not matter.
	index := make(map[string]int, len(fields))
	for i, name := range header {
		index[name] = fields[i]
	}

	out := reflect.MakeSlice(slice.Type(), 0, len(records)-1)
	for _, record := range records[1:] {
		row := reflect.New(rowType).Elem()
		for j, cell := range record {
			if j >= len(records[0]) {
				break
			}
			idx, ok := index[records[0][j]]
			if !ok {
				continue
			}
			if err := parseScalar(cell, row.Field(idx)); err != nil {
				return &SerializationError{Backend: "csv", Type: rowType.String(), Cause: err}
			}
		}
		out = reflect.Append(out, row)
	}
	slice.Set(out)
	return nil
}

func (s *csvSerializer) Extension() string { return "csv" }

// csvColumns returns the header names and field indices of rowType's
// exported scalar fields. A non-scalar exported field makes the row type
// unsuitable for CSV.
func csvColumns(rowType reflect.Type) ([]string, []int, error) {
	var header []string
	var fields []int
	for i := 0; i < rowType.NumField(); i++ {
		f := rowType.Field(i)
		if !f.IsExported() {
			continue
		}
		switch f.Type.Kind() {
		case reflect.Bool, reflect.String,
			reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			header = append(header, f.Name)
			fields = append(fields, i)
		default:
			return nil, nil, &SerializationError{
				Backend: "csv",
				Type:    rowType.String(),
				Cause:   fmt.Errorf("field %s (%s): %w", f.Name, f.Type, ErrNotTabular),
			}
		}
	}
	if len(fields) == 0 {
		return nil, nil, &SerializationError{Backend: "csv", Type: rowType.String(), Cause: ErrNotTabular}
	}
	return header, fields, nil
}

func formatScalar(v reflect.Value) string {
	switch v.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	default:
		return v.String()
	}
}

func parseScalar(s string, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetFloat(f)
	default:
		v.SetString(s)
	}
	return nil
}

var _ Serializer = (*csvSerializer)(nil)
