package cli

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/hupe1980/propfilter/internal/config"
	"github.com/hupe1980/propfilter/internal/document"
	"github.com/hupe1980/propfilter/internal/filter"
)

func newCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion <shell>",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for propfilter.

To load completions:

Bash:
  $ source <(propfilter completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ propfilter completion bash > /etc/bash_completion.d/propfilter

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ propfilter completion zsh > "${fpath[1]}/_propfilter"

Fish:
  $ propfilter completion fish > ~/.config/fish/completions/propfilter.fish

PowerShell:
  PS> propfilter completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> propfilter completion powershell > propfilter.ps1
  # and source this file from your PowerShell profile.
`,
		// Override parent PersistentPreRunE; completion needs no config.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Args:              cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs:         []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}

			return nil
		},
	}

	return cmd
}

// loadCompletionConfig resolves the configuration for a command being
// completed. PersistentPreRunE does not run during completion.
func loadCompletionConfig(cmd *cobra.Command) (*config.Config, bool) {
	cfgFile, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(cmd, cfgFile)
	if err != nil {
		return nil, false
	}

	return cfg, true
}

// completeProfiles offers the profile names defined in the config file.
func completeProfiles(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	cfg, ok := loadCompletionConfig(cmd)
	if !ok {
		return nil, cobra.ShellCompDirectiveError
	}

	profiles, err := cfg.Profiles()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	return filter.ProfileNames(profiles), cobra.ShellCompDirectiveNoFileComp
}

// completionSchema loads the schema named by --schema or the config file.
func completionSchema(cmd *cobra.Command) (*document.Schema, bool) {
	cfg, ok := loadCompletionConfig(cmd)
	if !ok || cfg.Schema == "" {
		return nil, false
	}

	s, err := document.LoadSchema(cfg.Schema)
	if err != nil {
		return nil, false
	}

	return s, true
}

// completeSchemaTypes offers the type names defined in the schema.
func completeSchemaTypes(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	s, ok := completionSchema(cmd)
	if !ok {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	return s.TypeNames(), cobra.ShellCompDirectiveNoFileComp
}

// completeSpecifiers offers "Type.*" and "Type.Property" for every type and
// every property it declares itself, since specifiers match the declaring
// type.
func completeSpecifiers(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	s, ok := completionSchema(cmd)
	if !ok {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var specs []string

	for _, name := range s.TypeNames() {
		specs = append(specs, name+".*")

		props := make([]string, 0, len(s.Types[name].Properties))
		for prop := range s.Types[name].Properties {
			props = append(props, name+"."+prop)
		}

		sort.Strings(props)
		specs = append(specs, props...)
	}

	return specs, cobra.ShellCompDirectiveNoFileComp
}
