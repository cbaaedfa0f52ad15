package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/propfilter/internal/config"
	"github.com/hupe1980/propfilter/internal/document"
	"github.com/hupe1980/propfilter/internal/logging"
	"github.com/hupe1980/propfilter/internal/output"
	"github.com/hupe1980/propfilter/internal/watch"
)

type watchOptions struct {
	output   string
	debounce time.Duration
}

func newWatchCommand() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Watch a file and re-filter it on every change",
		Long: `Watch filters a JSON or YAML file into --output and repeats
that whenever the input, the schema or the config file changes.
The config is reloaded on each run, so edits to profiles or
specifiers take effect immediately.

File changes are debounced to avoid rapid re-runs. Each run reports
the number of documents and property paths written and which paths
appeared or disappeared since the previous run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), cmd, args[0], opts)
		},
	}

	registerPipelineFlags(cmd)

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output file path (required)")
	f.DurationVar(&opts.debounce, "debounce", 300*time.Millisecond, "debounce interval for file changes")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, input string, opts *watchOptions) error {
	if opts.output == "" || opts.output == "-" {
		return &ExitError{Code: 2, Err: fmt.Errorf("--output (-o) is required for watch mode")}
	}

	if input == "-" {
		return &ExitError{Code: 2, Err: fmt.Errorf("watch needs an input file, not stdin")}
	}

	if filepath.Clean(input) == filepath.Clean(opts.output) {
		return &ExitError{Code: 2, Err: fmt.Errorf("--output must differ from the watched input")}
	}

	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)
	cfgFile := config.ConfigFileFromContext(ctx)

	files := []string{input}
	if cfg.Schema != "" {
		files = append(files, cfg.Schema)
	}

	if cfg.ConfigFile != "" {
		files = append(files, cfg.ConfigFile)
	}

	runFn := func(fnCtx context.Context) (*watch.RunResult, error) {
		runCfg, err := config.Load(cmd, cfgFile)
		if err != nil {
			return nil, fmt.Errorf("reloading config: %w", err)
		}

		p, err := newPipelineFromConfig(fnCtx, runCfg)
		if err != nil {
			return nil, err
		}

		res, err := p.run(fnCtx, input, nil)
		if err != nil {
			return nil, err
		}

		data, err := p.render(res.Format, res.Filtered)
		if err != nil {
			return nil, err
		}

		if err := output.NewFileWriter(opts.output, output.WithLogger(logger)).Write(data); err != nil {
			return nil, err
		}

		return &watch.RunResult{
			Documents:  len(res.Filtered),
			Properties: document.Paths(res.Filtered),
			OutputPath: opts.output,
		}, nil
	}

	watchOpts := watch.DefaultOptions()
	watchOpts.Files = files
	watchOpts.Debounce = opts.debounce
	watchOpts.Logger = logger
	watchOpts.Out = cmd.ErrOrStderr()

	return watch.Run(ctx, watchOpts, runFn)
}
