package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hupe1980/propfilter/internal/config"
	"github.com/hupe1980/propfilter/internal/filter"
)

func newExplainCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain <Type.Property>...",
		Short: "Explain whether properties are serialized",
		Long: `Explain evaluates the configured include and exclude lists for
each "Type.Property" pair and prints the decision together with
the specifier that produced it.

With --schema, a property is attributed to the type that declares
it: when Movie embeds Entity, "Movie.Id" is decided as "Entity.Id".`,
		Example: `  propfilter explain --fields 'Movie.*' --exclude-fields Movie.Year Movie.Title Movie.Year`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(cmd.Context(), cmd, args)
		},
	}

	registerFilterFlags(cmd)
	cmd.Flags().String("schema", "", "type schema used to resolve declaring types")

	return cmd
}

func runExplain(ctx context.Context, cmd *cobra.Command, args []string) error {
	p, err := newPipeline(ctx)
	if err != nil {
		return err
	}

	keep, drop := color.New(color.FgGreen), color.New(color.FgRed)

	if colorEnabled(config.FromContext(ctx)) {
		keep.EnableColor()
		drop.EnableColor()
	} else {
		keep.DisableColor()
		drop.DisableColor()
	}

	w := cmd.OutOrStdout()

	for _, arg := range args {
		spec, err := filter.ParseSpecifier(arg)
		if err != nil {
			return &ExitError{Code: 2, Err: err}
		}

		if spec.IsWildcard() {
			return &ExitError{Code: 2, Err: fmt.Errorf("specifier %q: explain needs a property name, not a wildcard", arg)}
		}

		declaringType := spec.TypeName
		if p.schema != nil {
			declaringType = p.schema.DeclaringType(spec.TypeName, spec.Property)
		}

		d := p.filter.Explain(declaringType, spec.Property)

		verdict := keep.Sprint("serialize")
		if !d.Serialize {
			verdict = drop.Sprint("omit")
		}

		subject := arg
		if declaringType != spec.TypeName {
			subject = fmt.Sprintf("%s (declared by %s)", arg, declaringType)
		}

		_, _ = fmt.Fprintf(w, "%s: %s, %s\n", subject, verdict, d.Reason)
	}

	return nil
}
