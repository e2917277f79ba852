// Package configcmder provides the config command for managing persistent
// aish configuration stored in the .aish/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent aish configuration.

Configuration is stored as config.toml in the .aish/ directory and provides
default values for command flags. CLI flags and AISH_* environment variables
always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  api.endpoint, api.key, api.user, api.timeout,
  stream.framing, stream.cancel_keys, stream.exclusions,
  prompt.language, prompt.explain

Use subcommands to get, set, or list configuration values:
  aish config set <key> <value>    Set a configuration value
  aish config get <key>            Get a configuration value
  aish config list                 List all configuration values

Examples:
  aish config set api.key app-xxxxxxxx
  aish config set prompt.language fr
  aish config get api.endpoint
  aish config list`

const configShortDesc string = "Manage persistent aish configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

// completeKeys completes the first argument with the known config keys.
func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return validKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}
