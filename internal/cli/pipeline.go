package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/propfilter/internal/config"
	"github.com/hupe1980/propfilter/internal/document"
	"github.com/hupe1980/propfilter/internal/filter"
	"github.com/hupe1980/propfilter/internal/logging"
	"github.com/hupe1980/propfilter/internal/output"
)

// pipeline holds what every document command needs: the property filter,
// the optional schema and the output formats. It is built once per run.
type pipeline struct {
	cfg     *config.Config
	filter  *filter.PropertyFilter
	schema  *document.Schema
	formats *output.Registry
}

// pipelineResult holds the documents of one input before and after
// filtering together with the format they are rendered in.
type pipelineResult struct {
	Input    string
	Raw      []*yaml.Node
	Filtered []*yaml.Node
	Format   string
}

// newPipeline builds a pipeline from the config stored in ctx.
func newPipeline(ctx context.Context) (*pipeline, error) {
	return newPipelineFromConfig(ctx, config.FromContext(ctx))
}

// newPipelineFromConfig builds the property filter from cfg and loads and
// validates the schema, if one is configured.
func newPipelineFromConfig(ctx context.Context, cfg *config.Config) (*pipeline, error) {
	logger := logging.FromContext(ctx)

	f, err := cfg.PropertyFilter()
	if err != nil {
		return nil, &ExitError{Code: 2, Err: fmt.Errorf("building property filter: %w", err)}
	}

	for _, issue := range f.Lint() {
		logger.Warn("specifier never matches",
			slog.String("list", issue.List),
			slog.String("specifier", issue.Specifier),
			slog.String("error", issue.Err.Error()),
		)
	}

	p := &pipeline{
		cfg:     cfg,
		filter:  f,
		formats: output.DefaultRegistry(),
	}

	if cfg.Schema == "" {
		return p, nil
	}

	s, err := document.LoadSchema(cfg.Schema)
	if err != nil {
		return nil, &ExitError{Code: 1, Err: err}
	}

	if result := s.Validate(); result.HasErrors() {
		return nil, &ExitError{
			Code: 7,
			Err:  fmt.Errorf("invalid schema %s:\n%s", cfg.Schema, document.FormatValidationResult(result)),
		}
	}

	logger.Debug("schema loaded",
		slog.String("path", cfg.Schema),
		slog.Int("types", len(s.Types)),
	)

	p.schema = s

	return p, nil
}

// run decodes and filters a single input. "-" reads from stdin.
func (p *pipeline) run(ctx context.Context, input string, stdin io.Reader) (*pipelineResult, error) {
	logger := logging.ForInput(ctx, input)

	raw, err := p.decode(input, stdin)
	if err != nil {
		return nil, &ExitError{Code: 1, Err: err}
	}

	opts := []document.ProcessorOption{
		document.WithRoot(p.cfg.Root),
		document.WithLogger(logger),
	}

	if p.schema != nil {
		opts = append(opts, document.WithSchema(p.schema))
	}

	filtered, err := document.NewProcessor(p.filter, opts...).FilterAll(ctx, raw)
	if err != nil {
		if errors.Is(err, document.ErrNoRootType) {
			return nil, &ExitError{Code: 2, Err: err}
		}

		return nil, &ExitError{Code: 1, Err: fmt.Errorf("filtering %s: %w", displayName(input), err)}
	}

	format := p.cfg.Format
	if format == config.FormatAuto {
		format = output.DetectFormat(raw)
	}

	logger.Debug("input filtered",
		slog.Int("documents", len(filtered)),
		slog.String("format", format),
	)

	return &pipelineResult{
		Input:    input,
		Raw:      raw,
		Filtered: filtered,
		Format:   format,
	}, nil
}

// render formats docs in the given format with the configured indent.
func (p *pipeline) render(format string, docs []*yaml.Node) ([]byte, error) {
	fn, err := p.formats.Format(format)
	if err != nil {
		return nil, &ExitError{Code: 2, Err: err}
	}

	data, err := fn(docs, output.FormatOptions{Indent: p.cfg.Indent})
	if err != nil {
		return nil, &ExitError{Code: 1, Err: fmt.Errorf("formatting output: %w", err)}
	}

	return data, nil
}

func (p *pipeline) decode(input string, stdin io.Reader) ([]*yaml.Node, error) {
	r := stdin

	if input != "-" {
		f, err := os.Open(input) //nolint:gosec // user-supplied input path
		if err != nil {
			return nil, fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()

		r = f
	}

	docs, err := document.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", displayName(input), err)
	}

	return docs, nil
}

// displayName returns the name used for input in messages.
func displayName(input string) string {
	if input == "-" {
		return "stdin"
	}

	return input
}

// colorEnabled reports whether colored output is wanted: not disabled by
// --no-color and writing to a terminal.
func colorEnabled(cfg *config.Config) bool {
	return !cfg.NoColor && !color.NoColor
}
