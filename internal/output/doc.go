// Package output renders filtered values and documents.
//
// The package is organized around four concerns:
//
//   - Encoding (encoder.go): A reflection based JSON encoder for Go values
//     that consults a [filter.Predicate] for every struct field and matches
//     encoding/json byte for byte when no filter is configured.
//
//   - Formatting (format.go): Order-preserving JSON and YAML rendering of
//     decoded documents.
//
//   - Registry (registry.go): Named, pluggable formatters.
//
//   - Writers (writer.go): Output destinations via the [Writer] interface,
//     with [StdoutWriter] and [FileWriter] implementations.
package output
