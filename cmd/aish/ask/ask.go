// Package askcmder provides the ask command: describe a task in plain words,
// get a shell script back, read its explanation and decide what to do with it.
package askcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/aish/pkg/cliui"
	"github.com/papercomputeco/aish/pkg/prompt"
	"github.com/papercomputeco/aish/pkg/session"
)

const askLongDesc string = `Ask for a shell command.

Describe what you want in plain words. aish streams back a script for your
shell and operating system, then explains what it does. Press q or Esc at
any time to stop the stream.

When the answer is complete you can run the script, ask for a revision, or
cancel. With --print only the script is written to stdout and nothing is
asked or run, which makes aish usable in pipelines.

Examples:
  aish ask "list the 10 largest files under this directory"
  aish "find every TODO in go files"
  aish ask --print "compress logs older than a week" > cleanup.sh`

const askShortDesc string = "Ask for a shell command"

const (
	flagNoExplain = "no-explain"
	flagPrint     = "print"
)

const (
	choiceRun    = "run"
	choiceRevise = "revise"
	choiceCancel = "cancel"
)

var choices = []cliui.Choice{
	{Key: choiceRun, Label: "Run it"},
	{Key: choiceRevise, Label: "Revise it"},
	{Key: choiceCancel, Label: "Cancel"},
}

type askCommander struct {
	noExplain bool
	printOnly bool
}

func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [request...]",
		Short: askShortDesc,
		Long:  askLongDesc,
	}
	Configure(cmd)
	return cmd
}

// Configure makes cmd behave as the ask command. The root command uses it so
// that "aish <request>" works without a subcommand.
func Configure(cmd *cobra.Command) {
	cmder := &askCommander{}

	cmd.Args = cobra.ArbitraryArgs
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return cmder.run(cmd, args)
	}

	// The request is free text, so flags are only read before its first word.
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().BoolVar(&cmder.noExplain, flagNoExplain, false, "Skip the explanation of the generated script")
	cmd.Flags().BoolVar(&cmder.printOnly, flagPrint, false, "Print the script to stdout and exit")
	session.AddFlags(cmd)
}

func (c *askCommander) run(cmd *cobra.Command, args []string) error {
	s, err := session.Open(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	request := strings.TrimSpace(strings.Join(args, " "))
	if request == "" {
		request, err = cliui.Ask(s.In, s.ErrOut, "What would you like your shell command to be?")
		if errors.Is(err, io.EOF) || (err == nil && request == "") {
			return errors.New("no request given")
		}
		if err != nil {
			return fmt.Errorf("reading request: %w", err)
		}
	}

	title := "Script"
	if c.printOnly {
		title = ""
	}
	res, err := s.Stream(ctx, title, prompt.Full(s.Env, request), prompt.ShellCodeExclusions(), s.Out)
	if err != nil {
		return err
	}
	if res.Cancelled() {
		return nil
	}

	script := strings.TrimSpace(res.Text)
	if script == "" {
		return errors.New("no script was generated")
	}
	if c.printOnly {
		return nil
	}

	return c.loop(ctx, s, script)
}

// loop explains script and offers to run, revise or drop it until the user
// picks a terminal action.
func (c *askCommander) loop(ctx context.Context, s *session.Session, script string) error {
	for {
		if c.explain(s) {
			res, err := s.Stream(ctx, "Explanation", prompt.Explanation(s.Env, script), prompt.ExplanationExclusions(), s.ErrOut)
			if err != nil {
				return err
			}
			if res.Cancelled() {
				s.Logger.Debug("explanation cancelled")
			}
		}

		choice, err := cliui.Choose(s.In, s.ErrOut, "What next?", choices)
		if errors.Is(err, io.EOF) {
			choice = choiceCancel
		} else if err != nil {
			return fmt.Errorf("reading choice: %w", err)
		}

		switch choice {
		case choiceRun:
			return execute(ctx, s, script)

		case choiceRevise:
			change, err := cliui.Ask(s.In, s.ErrOut, "What should change?")
			if errors.Is(err, io.EOF) || (err == nil && change == "") {
				fmt.Fprintf(s.ErrOut, "  %s\n", cliui.DimStyle.Render("Nothing to revise."))
				continue
			}
			if err != nil {
				return fmt.Errorf("reading revision: %w", err)
			}

			res, err := s.Stream(ctx, "Revised script", prompt.Revision(s.Env, script, change), prompt.ShellCodeExclusions(), s.Out)
			if err != nil {
				return err
			}
			if revised := strings.TrimSpace(res.Text); !res.Cancelled() && revised != "" {
				script = revised
			}

		default:
			fmt.Fprintf(s.ErrOut, "  %s\n", cliui.DimStyle.Render("Nothing was run."))
			return nil
		}
	}
}

func (c *askCommander) explain(s *session.Session) bool {
	return !c.noExplain && s.Config.Prompt.ExplainEnabled()
}

// execute runs script with the detected shell, attached to the terminal.
func execute(ctx context.Context, s *session.Session, script string) error {
	name, args := shellCommand(s.Env.Shell, script)
	s.Logger.Debug("running script", "shell", name)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = s.Out
	cmd.Stderr = s.ErrOut

	fmt.Fprintln(s.ErrOut)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running script: %w", err)
	}
	return nil
}

func shellCommand(shell, script string) (string, []string) {
	switch shell {
	case "powershell":
		return "powershell", []string{"-NoProfile", "-Command", script}
	case "cmd":
		return "cmd", []string{"/C", script}
	case "":
		return "sh", []string{"-c", script}
	default:
		return shell, []string{"-c", script}
	}
}
