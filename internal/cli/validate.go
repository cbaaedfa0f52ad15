package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/propfilter/internal/config"
	"github.com/hupe1980/propfilter/internal/document"
)

type validateOptions struct {
	strict bool
}

func newValidateCommand() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the schema and the property specifiers",
		Long: `Validate checks the schema given with --schema for an
unsupported version, a missing root type, references to undefined
types and embed cycles.

The configured include and exclude specifiers are checked as well:
malformed entries, unknown types or properties, and properties that
are declared by an embedded type are reported as warnings, because
such specifiers never match anything.

Returns exit code 7 on validation failure (or on warnings with
--strict).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd.Context(), cmd, opts)
		},
	}

	registerFilterFlags(cmd)
	registerSchemaFlags(cmd)

	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail on warnings in addition to errors")

	return cmd
}

func runValidate(ctx context.Context, cmd *cobra.Command, opts *validateOptions) error {
	cfg := config.FromContext(ctx)

	f, err := cfg.PropertyFilter()
	if err != nil {
		return &ExitError{Code: 2, Err: fmt.Errorf("building property filter: %w", err)}
	}

	result := &document.ValidationResult{}

	if cfg.Schema == "" {
		for _, issue := range f.Lint() {
			result.Findings = append(result.Findings, document.ValidationFinding{
				Severity: document.SeverityWarning,
				Field:    issue.List,
				Message:  fmt.Sprintf("%q: %v", issue.Specifier, issue.Err),
			})
		}
	} else {
		s, err := document.LoadSchema(cfg.Schema)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Schema error: %v\n", err)
			return &ExitError{Code: 7, Err: err}
		}

		if cfg.Root != "" {
			s.Root = cfg.Root
		}

		result.Findings = append(result.Findings, s.Validate().Findings...)
		result.Findings = append(result.Findings, s.Lint(f).Findings...)
	}

	_, _ = fmt.Fprint(cmd.ErrOrStderr(), document.FormatValidationResult(result))

	if result.HasErrors() {
		return &ExitError{Code: 7, Err: fmt.Errorf("validation failed with %d error(s)", len(result.Errors()))}
	}

	if opts.strict && result.HasWarnings() {
		return &ExitError{Code: 7, Err: fmt.Errorf("validation failed with %d warning(s) (strict mode)", len(result.Warnings()))}
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Validation passed.")

	return nil
}
