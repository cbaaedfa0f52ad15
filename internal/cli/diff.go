package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/propfilter/internal/config"
	"github.com/hupe1980/propfilter/internal/diff"
)

type diffOptions struct {
	context  int
	exitCode bool
}

func newDiffCommand() *cobra.Command {
	opts := &diffOptions{}

	cmd := &cobra.Command{
		Use:   "diff <file>",
		Short: "Show which properties filtering removes from a file",
		Long: `Diff filters a JSON or YAML file and prints a unified diff
between the unfiltered and the filtered output. Both sides are
rendered with the same format and indentation, so only removed
properties show up.

Exit codes:
  0  Success (or no differences with --exit-code)
  1  Error, or differences found with --exit-code
  2  Invalid arguments`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd.Context(), cmd, args[0], opts)
		},
	}

	registerPipelineFlags(cmd)

	f := cmd.Flags()
	f.IntVar(&opts.context, "context", 3, "lines of context around each change")
	f.BoolVar(&opts.exitCode, "exit-code", false, "exit with code 1 when filtering removes anything")

	return cmd
}

func runDiff(ctx context.Context, cmd *cobra.Command, input string, opts *diffOptions) error {
	p, err := newPipeline(ctx)
	if err != nil {
		return err
	}

	res, err := p.run(ctx, input, cmd.InOrStdin())
	if err != nil {
		return err
	}

	before, err := p.render(res.Format, res.Raw)
	if err != nil {
		return err
	}

	after, err := p.render(res.Format, res.Filtered)
	if err != nil {
		return err
	}

	diffOpts := diff.DefaultOptions()
	diffOpts.OldLabel = displayName(input)
	diffOpts.NewLabel = displayName(input) + " (filtered)"
	diffOpts.Context = opts.context

	result, err := diff.Compute(string(before), string(after), diffOpts)
	if err != nil {
		return &ExitError{Code: 1, Err: fmt.Errorf("computing diff: %w", err)}
	}

	colorize := colorEnabled(config.FromContext(ctx))
	w := cmd.OutOrStdout()

	diff.Write(w, result, colorize)

	if !result.HasDifferences {
		return nil
	}

	_, _ = fmt.Fprintln(w)
	diff.WriteSummary(w, result, colorize)

	if opts.exitCode {
		return &ExitError{Code: 1, Err: fmt.Errorf("filtering removed %d line(s)", result.Removed)}
	}

	return nil
}
