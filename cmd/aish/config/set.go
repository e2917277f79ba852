package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/aish/pkg/cliui"
	"github.com/papercomputeco/aish/pkg/config"
)

const setLongDesc string = `Set a configuration value.

Sets the given key to the provided value in the config.toml file
stored in the .aish/ directory. Keys use dotted notation matching
the TOML section structure.

Valid keys:
  api.endpoint, api.key, api.user, api.timeout,
  stream.framing, stream.cancel_keys, stream.exclusions,
  prompt.language, prompt.explain

Examples:
  aish config set api.endpoint http://localhost/v1
  aish config set api.timeout 2m
  aish config set stream.cancel_keys q,escape
  aish config set stream.exclusions 'Note:,/^\s*#.*$/'
  aish config set prompt.explain false`

const setShortDesc string = "Set a configuration value"

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: setShortDesc,
		Long:  setLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runSet(cmd.OutOrStdout(), args[0], args[1], configDir)
		},
		ValidArgsFunction: completeKeys,
	}

	return cmd
}

func runSet(w io.Writer, key, value, configDir string) error {
	if !config.IsValidConfigKey(key) {
		return unknownKey(key)
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	printTarget(w, cfger)

	if err := cfger.SetConfigValue(key, value); err != nil {
		return err
	}

	fmt.Fprintf(w, "  %s Set %s = %s\n\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(key),
		display(key, value),
	)
	return nil
}
