package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/propfilter/internal/filter"
)

// ErrNoRootType is returned when a schema is configured but neither the
// processor nor the schema names the root type.
var ErrNoRootType = errors.New("no root type: set --root or the schema's root")

// Processor decodes document streams and filters each document against a
// schema.
type Processor struct {
	pred   filter.Predicate
	schema *Schema
	root   string
	logger *slog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithSchema sets the schema used to attribute keys to declaring types.
func WithSchema(s *Schema) ProcessorOption {
	return func(p *Processor) {
		p.schema = s
	}
}

// WithRoot overrides the schema's root type.
func WithRoot(typeName string) ProcessorOption {
	return func(p *Processor) {
		p.root = typeName
	}
}

// WithLogger sets the processor's logger.
func WithLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// NewProcessor creates a Processor applying pred.
func NewProcessor(pred filter.Predicate, opts ...ProcessorOption) *Processor {
	p := &Processor{
		pred:   pred,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// RootType returns the type applied to top-level documents.
func (p *Processor) RootType() string {
	if p.root != "" {
		return p.root
	}

	if p.schema != nil {
		return p.schema.Root
	}

	return ""
}

// Process decodes all documents from r and filters them.
func (p *Processor) Process(ctx context.Context, r io.Reader) ([]*yaml.Node, error) {
	docs, err := Decode(r)
	if err != nil {
		return nil, err
	}

	return p.FilterAll(ctx, docs)
}

// FilterAll filters already decoded documents. Without a schema documents
// are returned unchanged, since no declaring types are known.
func (p *Processor) FilterAll(ctx context.Context, docs []*yaml.Node) ([]*yaml.Node, error) {
	if p.schema == nil || filter.IsEmpty(p.pred) {
		p.logger.Debug("documents pass through unfiltered",
			slog.Bool("schema", p.schema != nil),
			slog.Int("documents", len(docs)),
		)

		return docs, nil
	}

	root := p.RootType()
	if root == "" {
		return nil, ErrNoRootType
	}

	if !p.schema.HasType(root) {
		return nil, fmt.Errorf("root type %q is not defined in the schema", root)
	}

	out := make([]*yaml.Node, 0, len(docs))

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("filtering document %d: %w", i+1, err)
		}

		filtered, err := Filter(doc, root, p.schema, p.pred)
		if err != nil {
			return nil, fmt.Errorf("filtering document %d: %w", i+1, err)
		}

		out = append(out, filtered)
	}

	p.logger.Debug("filtered documents",
		slog.String("root", root),
		slog.Int("documents", len(out)),
	)

	return out, nil
}
