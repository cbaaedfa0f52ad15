// Package propfilter provides a public Go API for filtering the properties
// written during JSON serialization.
//
// A Filter holds include and exclude lists of "TypeName.PropertyName"
// specifiers; "TypeName.*" matches every property of a type. Matching is
// case-insensitive, exclusion always wins, and a filter with both lists
// empty changes nothing.
//
// Basic usage:
//
//	f := propfilter.NewFilter().AddInclude("Movie.*", "Director.*")
//	data, err := propfilter.Marshal(movie, f)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(string(data))
//
// Untyped JSON or YAML documents are filtered with a schema that names the
// type of every object:
//
//	schema, err := propfilter.LoadSchema("schema.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	out, err := propfilter.FilterDocument(ctx, os.Stdin, schema, f,
//	    propfilter.WithFormat("yaml"),
//	)
package propfilter

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/hupe1980/propfilter/internal/document"
	"github.com/hupe1980/propfilter/internal/filter"
	"github.com/hupe1980/propfilter/internal/logging"
	"github.com/hupe1980/propfilter/internal/output"
)

// Filter decides per property whether it is serialized.
type Filter = filter.PropertyFilter

// Predicate is the per-property decision consulted by the encoder.
type Predicate = filter.Predicate

// Decision is a filter result together with its explanation.
type Decision = filter.Decision

// Schema assigns types to the objects of untyped documents.
type Schema = document.Schema

// NewFilter returns a filter with empty include and exclude lists.
func NewFilter() *Filter {
	return filter.New()
}

// ShouldSerialize reports whether property of declaringType is serialized
// under the given include and exclude lists.
func ShouldSerialize(declaringType, property string, include, exclude []string) bool {
	return filter.ShouldSerialize(declaringType, property, include, exclude)
}

// Option configures encoding and document filtering.
// Use the With* functions to create Options.
type Option func(*options)

type options struct {
	indent     string
	escapeHTML bool
	logger     *slog.Logger
	root       string
	format     string
}

// WithIndent indents nested output by indent per level.
func WithIndent(indent string) Option { return func(o *options) { o.indent = indent } }

// WithEscapeHTML toggles escaping of <, > and & in JSON strings (default on).
func WithEscapeHTML(on bool) Option { return func(o *options) { o.escapeHTML = on } }

// WithLogger sets the logger used for debug output. Defaults to discarding.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithRoot sets the type of top-level documents, overriding the schema's root.
func WithRoot(typeName string) Option { return func(o *options) { o.root = typeName } }

// WithFormat sets the document output format: "json", "yaml" or "auto"
// (the default), which keeps the input's format.
func WithFormat(format string) Option { return func(o *options) { o.format = format } }

func applyOptions(opts []Option) *options {
	o := &options{
		escapeHTML: true,
		logger:     logging.Discard(),
		format:     "auto",
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Marshal returns the JSON encoding of v with the properties rejected by f
// omitted. With a nil or empty f the result equals encoding/json's.
func Marshal(v interface{}, f Predicate, opts ...Option) ([]byte, error) {
	return newEncoder(f, applyOptions(opts)).Marshal(v)
}

// MarshalIndent is like Marshal but indents nested output.
func MarshalIndent(v interface{}, f Predicate, indent string, opts ...Option) ([]byte, error) {
	return Marshal(v, f, append(opts, WithIndent(indent))...)
}

// Encode writes the filtered JSON encoding of v to w followed by a newline.
func Encode(w io.Writer, v interface{}, f Predicate, opts ...Option) error {
	return newEncoder(f, applyOptions(opts)).Encode(w, v)
}

func newEncoder(f Predicate, o *options) *output.Encoder {
	return output.NewEncoder(f,
		output.WithIndent(o.indent),
		output.WithEscapeHTML(o.escapeHTML),
		output.WithEncoderLogger(o.logger),
	)
}

// LoadSchema reads and validates a schema file.
func LoadSchema(path string) (*Schema, error) {
	s, err := document.LoadSchema(path)
	if err != nil {
		return nil, err
	}

	return validated(s)
}

// ParseSchema parses and validates a JSON or YAML schema.
func ParseSchema(data []byte) (*Schema, error) {
	s, err := document.ParseSchema(data)
	if err != nil {
		return nil, err
	}

	return validated(s)
}

func validated(s *Schema) (*Schema, error) {
	if result := s.Validate(); result.HasErrors() {
		return nil, fmt.Errorf("invalid schema: %w", &result.Errors()[0])
	}

	return s, nil
}

// FilterDocument reads every JSON or YAML document from r, filters it
// against schema and returns the rendered result. A nil schema returns the
// documents unfiltered.
func FilterDocument(ctx context.Context, r io.Reader, schema *Schema, f Predicate, opts ...Option) ([]byte, error) {
	o := applyOptions(opts)

	docs, err := document.Decode(r)
	if err != nil {
		return nil, err
	}

	procOpts := []document.ProcessorOption{
		document.WithRoot(o.root),
		document.WithLogger(o.logger),
	}

	if schema != nil {
		procOpts = append(procOpts, document.WithSchema(schema))
	}

	filtered, err := document.NewProcessor(f, procOpts...).FilterAll(ctx, docs)
	if err != nil {
		return nil, err
	}

	format := o.format
	if format == "" || format == "auto" {
		format = output.DetectFormat(docs)
	}

	fn, err := output.DefaultRegistry().Format(format)
	if err != nil {
		return nil, err
	}

	return fn(filtered, output.FormatOptions{Indent: o.indent})
}
