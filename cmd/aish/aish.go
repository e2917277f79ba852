// Package aishcmder
package aishcmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/aish/cmd/aish/ask"
	configcmder "github.com/papercomputeco/aish/cmd/aish/config"
	explaincmder "github.com/papercomputeco/aish/cmd/aish/explain"
	initcmder "github.com/papercomputeco/aish/cmd/aish/init"
	revisecmder "github.com/papercomputeco/aish/cmd/aish/revise"
	versioncmder "github.com/papercomputeco/aish/cmd/aish/version"
	"github.com/papercomputeco/aish/pkg/cliui"
	"github.com/papercomputeco/aish/pkg/session"
)

const aishLongDesc string = `aish turns plain words into shell commands.

Answers are streamed from a completion API as they are generated. Press q or
Esc to stop a stream early.

Get started using:
  aish init --key <api key>     Create a local config
  aish "what you want to do"    Ask for a shell command
  aish explain <script>         Explain a script
  aish revise <script> -p ...   Change a script`

const aishShortDesc string = "aish - AI shell assistant"

func NewAishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "aish [request...]",
		Short:         aishShortDesc,
		Long:          aishLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cliui.ConfigureColor(cmd.ErrOrStderr())
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolP(session.FlagDebug, "d", false, "Enable debug logging")
	cmd.PersistentFlags().String(session.FlagConfigDir, "", "Override path to the .aish/ config directory")
	cmd.PersistentFlags().String(session.FlagLogFile, "", "Append JSON debug logs to this file")
	cmd.PersistentFlags().String(session.FlagRecord, "", "Write the raw event stream to this file")

	// "aish <request>" is "aish ask <request>"
	askcmder.Configure(cmd)

	// Add subcommands
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(explaincmder.NewExplainCmd())
	cmd.AddCommand(revisecmder.NewReviseCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
