// Package serialize persists checkpoint values to files and reads them back.
//
// Every backend implements Serializer: write a value to a path, read a value
// back into a pointer target, and report the file extension it produces. The
// default backend is MessagePack, which round-trips arbitrary Go values; the
// CSV and Parquet backends require tabular values (a slice of flat structs)
// and refuse anything else rather than writing a corrupt file.
package serialize
