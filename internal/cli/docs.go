package cli

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/propfilter/internal/docs"
	"github.com/hupe1980/propfilter/internal/logging"
	"github.com/hupe1980/propfilter/internal/output"
)

func newDocsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Generate a property reference for a schema",
		Long: `Docs renders every type of the schema with its own and promoted
properties, the type that declares each property and whether the
configured filter serializes it.

Supported formats are markdown, html and asciidoc.`,
		Example: `  propfilter docs --schema schema.yaml --exclude-fields Person.Age
  propfilter docs --schema schema.yaml --doc-format html -o reference.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDocs(cmd.Context(), cmd)
		},
	}

	registerFilterFlags(cmd)
	registerSchemaFlags(cmd)

	f := cmd.Flags()
	f.String("doc-format", "markdown", "documentation format: markdown, html, asciidoc")
	f.String("title", "", "document title (default: \"<Root> Property Reference\")")
	f.Bool("include-examples", false, "append an example document with the serialized properties")
	f.StringP("output", "o", "", "output file (default: stdout)")

	return cmd
}

func runDocs(ctx context.Context, cmd *cobra.Command) error {
	logger := logging.FromContext(ctx)

	formatName, _ := cmd.Flags().GetString("doc-format")
	title, _ := cmd.Flags().GetString("title")
	examples, _ := cmd.Flags().GetBool("include-examples")
	outputPath, _ := cmd.Flags().GetString("output")

	formatter, err := docs.NewFormatter(formatName)
	if err != nil {
		return &ExitError{Code: 2, Err: err}
	}

	p, err := newPipeline(ctx)
	if err != nil {
		return err
	}

	if p.schema == nil {
		return &ExitError{Code: 2, Err: fmt.Errorf("--schema is required for docs")}
	}

	model, err := docs.Build(p.schema, p.filter)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	if p.cfg.Root != "" {
		model.Root = p.cfg.Root
	}

	model.Title = title
	model.IncludeExamples = examples

	var buf bytes.Buffer
	if err := formatter.Format(&buf, model); err != nil {
		return &ExitError{Code: 1, Err: fmt.Errorf("rendering docs: %w", err)}
	}

	w := output.NewWriter(outputPath, cmd.OutOrStdout(), output.WithLogger(logger))
	if err := w.Write(buf.Bytes()); err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	logger.Debug("docs generated",
		slog.String("format", formatName),
		slog.Int("types", len(model.Types)),
	)

	return nil
}
