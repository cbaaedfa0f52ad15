package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/propfilter/internal/document"
	"github.com/hupe1980/propfilter/internal/version"
)

// versionOutput is the JSON shape of the version command.
type versionOutput struct {
	version.Info
	SchemaVersions string `json:"schemaVersions"`
}

func newVersionCommand() *cobra.Command {
	var jsonOutput, short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Display the version, git commit, build date, Go version and platform,
followed by the schema versions this build accepts.`,
		Args: cobra.NoArgs,
		// Override parent PersistentPreRunE; version needs no config.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.GetInfo()
			w := cmd.OutOrStdout()

			switch {
			case short:
				_, err := fmt.Fprintln(w, info.Version)

				return err
			case jsonOutput:
				out := versionOutput{Info: info, SchemaVersions: document.SupportedSchemaVersions}

				data, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return fmt.Errorf("marshaling version info: %w", err)
				}

				_, err = fmt.Fprintln(w, string(data))

				return err
			}

			_, err := fmt.Fprintf(w, "%s\nschema versions: %s\n", info.String(), document.SupportedSchemaVersions)

			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output version info as JSON")
	cmd.Flags().BoolVar(&short, "short", false, "print only the version number")
	cmd.MarkFlagsMutuallyExclusive("json", "short")

	return cmd
}
