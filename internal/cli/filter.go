package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/propfilter/internal/config"
	"github.com/hupe1980/propfilter/internal/logging"
	"github.com/hupe1980/propfilter/internal/output"
)

type filterOptions struct {
	output string
}

func newFilterCommand() *cobra.Command {
	opts := &filterOptions{}

	cmd := &cobra.Command{
		Use:   "filter [file...]",
		Short: "Filter the properties of JSON or YAML documents",
		Long: `Filter reads JSON or YAML documents, removes the properties
rejected by --fields and --exclude-fields, and writes the result.

Documents are read from standard input when no file (or "-") is
given. A file may hold several documents: a YAML stream separated
by "---" or concatenated JSON values such as JSON Lines.

The schema given with --schema assigns a type to every object, so
"Movie.Title" only matches the Title key of Movie objects. Without
a schema no types are known and documents pass through unchanged.

With several files, -o names a directory that receives one output
file per input. Files are filtered in parallel (--concurrency).`,
		Example: `  propfilter filter --schema schema.yaml --fields 'Movie.*' movie.json
  cat movies.yaml | propfilter filter --schema schema.yaml --exclude-fields Person.Age
  propfilter filter --profile public -o out/ a.json b.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(cmd.Context(), cmd, args, opts)
		},
	}

	registerPipelineFlags(cmd)

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output file, or directory for several inputs (default: stdout)")
	f.Int("concurrency", 0, "number of files filtered in parallel (default: number of CPUs)")

	return cmd
}

func runFilter(ctx context.Context, cmd *cobra.Command, args []string, opts *filterOptions) error {
	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	p, err := newPipeline(ctx)
	if err != nil {
		return err
	}

	if p.schema == nil && !p.filter.Empty() {
		logger.Warn("no schema configured; documents pass through unfiltered")
	}

	inputs := args
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}

	if err := checkStdinInputs(inputs); err != nil {
		return err
	}

	targets, err := outputTargets(inputs, opts.output, cfg.Format)
	if err != nil {
		return err
	}

	limit := cfg.Concurrency
	if limit == 0 {
		limit = runtime.NumCPU()
	}

	rendered := make([][]byte, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, input := range inputs {
		g.Go(func() error {
			res, err := p.run(gctx, input, cmd.InOrStdin())
			if err != nil {
				return err
			}

			data, err := p.render(res.Format, res.Filtered)
			if err != nil {
				return err
			}

			rendered[i] = data

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if targets == nil {
		w := output.NewWriter(opts.output, cmd.OutOrStdout(), output.WithLogger(logger))

		for _, data := range rendered {
			if err := w.Write(data); err != nil {
				return &ExitError{Code: 1, Err: err}
			}
		}

		return nil
	}

	for i, target := range targets {
		if err := output.NewFileWriter(target, output.WithLogger(logger)).Write(rendered[i]); err != nil {
			return &ExitError{Code: 1, Err: err}
		}

		logger.Info("output written", slog.String("input", inputs[i]), slog.String("path", target))
	}

	return nil
}

// outputTargets maps each input to a file below dir when several inputs
// are written to a directory. It returns nil when all output goes to a
// single destination. A fixed format replaces the input's extension.
// checkStdinInputs rejects more than one "-" argument, since stdin can only
// be consumed once.
func checkStdinInputs(inputs []string) error {
	n := 0

	for _, input := range inputs {
		if input == "-" {
			n++
		}
	}

	if n > 1 {
		return &ExitError{Code: 2, Err: fmt.Errorf("stdin (-) may be given as input only once")}
	}

	return nil
}

func outputTargets(inputs []string, dir, format string) ([]string, error) {
	if len(inputs) < 2 || dir == "" || dir == "-" {
		return nil, nil
	}

	targets := make([]string, len(inputs))
	seen := make(map[string]string, len(inputs))

	for i, input := range inputs {
		if input == "-" {
			return nil, &ExitError{Code: 2, Err: fmt.Errorf("stdin cannot be combined with other inputs when writing to a directory")}
		}

		name := filepath.Base(input)
		if format != config.FormatAuto {
			name = strings.TrimSuffix(name, filepath.Ext(name)) + "." + format
		}

		if prev, ok := seen[name]; ok {
			return nil, &ExitError{Code: 2, Err: fmt.Errorf("inputs %s and %s both map to output %s", prev, input, name)}
		}

		seen[name] = input
		targets[i] = filepath.Join(dir, name)
	}

	return targets, nil
}
