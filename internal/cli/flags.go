package cli

import (
	"github.com/spf13/cobra"
)

// registerFilterFlags adds the property filter flags to a cobra command.
// The values are read back through the config layer, so they can also come
// from PROPFILTER_* variables or the config file.
func registerFilterFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSlice("fields", nil, `include specifiers ("Type.Property" or "Type.*")`)
	f.StringSlice("exclude-fields", nil, "exclude specifiers; exclusion wins over inclusion")
	f.String("profile", "", "apply a named profile from the config file")

	_ = cmd.RegisterFlagCompletionFunc("fields", completeSpecifiers)
	_ = cmd.RegisterFlagCompletionFunc("exclude-fields", completeSpecifiers)
	_ = cmd.RegisterFlagCompletionFunc("profile", completeProfiles)
}

// registerSchemaFlags adds the document schema flags to a cobra command.
func registerSchemaFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("schema", "", "type schema file for JSON/YAML documents")
	f.String("root", "", "type of top-level documents (default: the schema's root)")

	_ = cmd.RegisterFlagCompletionFunc("root", completeSchemaTypes)
}

// registerFormatFlags adds the output formatting flags to a cobra command.
func registerFormatFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("format", "auto", "output format: auto, json, yaml")
	f.String("indent", "", "indentation per level (JSON is compact when empty)")

	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(
		[]string{"auto", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp))
}

// registerPipelineFlags registers all flags needed to filter documents.
func registerPipelineFlags(cmd *cobra.Command) {
	registerFilterFlags(cmd)
	registerSchemaFlags(cmd)
	registerFormatFlags(cmd)
}
