// Package explaincmder provides the explain command.
package explaincmder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/aish/pkg/cliui"
	"github.com/papercomputeco/aish/pkg/prompt"
	"github.com/papercomputeco/aish/pkg/session"
)

const explainLongDesc string = `Explain a shell script.

The script is taken from the arguments, or read from stdin when no
arguments are given. The explanation is streamed in the configured
prompt.language as it arrives.

With --markdown the answer is collected first and rendered as markdown.
Flags must come before the script; everything after the first script
word is part of the script.

Examples:
  aish explain find . -name '*.log' -mtime +7 -delete
  cat deploy.sh | aish explain --markdown`

const explainShortDesc string = "Explain a shell script"

const flagMarkdown = "markdown"

type explainCommander struct {
	markdown bool
}

func NewExplainCmd() *cobra.Command {
	cmder := &explainCommander{}

	cmd := &cobra.Command{
		Use:   "explain [script...]",
		Short: explainShortDesc,
		Long:  explainLongDesc,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args)
		},
	}

	// Flags end at the first script word so options inside the script are kept.
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().BoolVarP(&cmder.markdown, flagMarkdown, "m", false, "Render the explanation as markdown once it is complete")
	session.AddFlags(cmd)

	return cmd
}

func (c *explainCommander) run(cmd *cobra.Command, args []string) error {
	s, err := session.Open(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	script, err := readScript(s, args)
	if err != nil {
		return err
	}
	query := prompt.Explanation(s.Env, script)

	if !c.markdown {
		_, err := s.Stream(ctx, "", query, prompt.ExplanationExclusions(), s.Out)
		return err
	}

	var buf bytes.Buffer
	err = cliui.Step(s.ErrOut, "Explaining script", func() error {
		res, err := s.Stream(ctx, "", query, prompt.ExplanationExclusions(), &buf)
		if err == nil && res.Cancelled() {
			return errors.New("cancelled")
		}
		return err
	})
	if err != nil {
		return err
	}

	rendered, err := cliui.RenderMarkdown(buf.String())
	if err != nil {
		s.Logger.Debug("rendering markdown", "error", err)
	}
	fmt.Fprint(s.Out, rendered)
	return nil
}

// readScript joins args, falling back to all of stdin.
func readScript(s *session.Session, args []string) (string, error) {
	script := strings.TrimSpace(strings.Join(args, " "))
	if script != "" {
		return script, nil
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(s.In); err != nil {
		return "", fmt.Errorf("reading script: %w", err)
	}
	if script = strings.TrimSpace(buf.String()); script == "" {
		return "", errors.New("no script given")
	}
	return script, nil
}
