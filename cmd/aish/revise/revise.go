// Package revisecmder provides the revise command.
package revisecmder

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/aish/pkg/prompt"
	"github.com/papercomputeco/aish/pkg/session"
)

const reviseLongDesc string = `Revise a shell script.

Sends the script together with the requested change and streams back the
revised script. Only the code is written to stdout. Flags must come
before the script.

Examples:
  aish revise --prompt "only show hidden files" ls -la
  aish revise -p "use rsync instead of cp" "$(cat backup.sh)" > backup.sh.new`

const reviseShortDesc string = "Revise a shell script"

const flagPrompt = "prompt"

type reviseCommander struct {
	change string
}

func NewReviseCmd() *cobra.Command {
	cmder := &reviseCommander{}

	cmd := &cobra.Command{
		Use:   "revise --prompt <change> <script...>",
		Short: reviseShortDesc,
		Long:  reviseLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args)
		},
	}

	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringVarP(&cmder.change, flagPrompt, "p", "", "The change to make to the script (required)")
	_ = cmd.MarkFlagRequired(flagPrompt)
	session.AddFlags(cmd)

	return cmd
}

func (c *reviseCommander) run(cmd *cobra.Command, args []string) error {
	script := strings.TrimSpace(strings.Join(args, " "))
	if script == "" {
		return errors.New("no script given")
	}
	if strings.TrimSpace(c.change) == "" {
		return errors.New("--prompt must not be empty")
	}

	s, err := session.Open(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := s.Stream(ctx, "", prompt.Revision(s.Env, script, c.change), prompt.ShellCodeExclusions(), s.Out)
	if err != nil {
		return err
	}
	if !res.Cancelled() && strings.TrimSpace(res.Text) == "" {
		return errors.New("no script was generated")
	}
	return nil
}
