// Package session assembles everything a streaming aish command needs from
// its flags and configuration: the effective config, a logger, the completion
// client and a runner bound to the terminal.
package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/aish/pkg/cliui"
	"github.com/papercomputeco/aish/pkg/completion"
	"github.com/papercomputeco/aish/pkg/config"
	"github.com/papercomputeco/aish/pkg/keypress"
	"github.com/papercomputeco/aish/pkg/logger"
	"github.com/papercomputeco/aish/pkg/prompt"
	"github.com/papercomputeco/aish/pkg/runner"
	"github.com/papercomputeco/aish/pkg/sse"
	"github.com/papercomputeco/aish/pkg/strip"
)

// Persistent flag names defined on the root command.
const (
	FlagDebug     = "debug"
	FlagConfigDir = "config-dir"
	FlagLogFile   = "log-file"
	FlagRecord    = "record"
)

// AddFlags registers the shared stream flags on cmd. Their values are read
// back through viper in Open.
func AddFlags(cmd *cobra.Command) {
	for _, key := range config.StreamFlagKeys {
		config.AddStringFlag(cmd, config.StreamFlags, key, new(string))
	}
}

// Session is the per-invocation state of a streaming command.
type Session struct {
	Config *config.Config
	Env    prompt.Env
	Logger *slog.Logger
	Runner *runner.Runner

	// Extra holds the stream.exclusions patterns applied on top of every
	// command's own exclusions.
	Extra strip.Exclusions

	In     *bufio.Reader
	Out    io.Writer
	ErrOut io.Writer

	closers []io.Closer
}

// Open resolves configuration for cmd (flags > env > config.toml > defaults)
// and builds the session. Close must be called when the command is done.
func Open(cmd *cobra.Command) (*Session, error) {
	configDir, _ := cmd.Flags().GetString(FlagConfigDir)
	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, err
	}
	config.BindRegisteredFlags(v, cmd, config.StreamFlags, config.StreamFlagKeys)
	cfg := config.FromViper(v)

	s := &Session{
		Config: cfg,
		Env:    prompt.DetectEnv(cfg.Prompt.Language),
		In:     bufio.NewReader(cmd.InOrStdin()),
		Out:    cmd.OutOrStdout(),
		ErrOut: cmd.ErrOrStderr(),
	}

	if err := s.openLogger(cmd); err != nil {
		return nil, err
	}

	framing, err := sse.ParseFraming(cfg.Stream.Framing)
	if err != nil {
		s.Close()
		return nil, err
	}
	timeout, err := config.ParseTimeout(cfg.API.Timeout)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("parsing api.timeout: %w", err)
	}
	keys, err := keypress.ParseKeys(cfg.Stream.CancelKeys)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Extra = s.parseExclusions(cfg.Stream.Exclusions)

	client, err := completion.NewClient(completion.Config{
		Endpoint: cfg.API.Endpoint,
		Key:      cfg.API.Key,
		User:     cfg.API.User,
		Logger:   s.Logger,
	})
	if err != nil {
		s.Close()
		return nil, err
	}

	rcfg := runner.Config{
		Framing: framing,
		Timeout: timeout,
		Keys:    append(keys, keypress.KeyCtrlC),
		Logger:  s.Logger,
	}

	// Only an interactive stdin can carry key presses; a piped one holds
	// input for the follow-up prompts.
	if in := cmd.InOrStdin(); cliui.IsTerminal(in) {
		rcfg.Input = in
	}

	if path, _ := cmd.Flags().GetString(FlagRecord); path != "" {
		f, err := os.Create(path)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("creating record file: %w", err)
		}
		s.closers = append(s.closers, f)
		rcfg.Record = f
	}

	s.Runner = runner.New(client, rcfg)

	s.Logger.Debug("session opened",
		"endpoint", cfg.API.Endpoint,
		"framing", string(framing),
		"timeout", timeout.String(),
		"shell", s.Env.Shell,
		"os", s.Env.OS,
		"exclusions", s.Extra.String(),
	)
	return s, nil
}

func (s *Session) openLogger(cmd *cobra.Command) error {
	debug, _ := cmd.Flags().GetBool(FlagDebug)
	s.Logger = logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(true),
		logger.WithWriter(s.ErrOut),
	)

	path, _ := cmd.Flags().GetString(FlagLogFile)
	if path == "" {
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	s.closers = append(s.closers, f)

	s.Logger = logger.Multi(
		s.Logger,
		logger.New(logger.WithDebug(true), logger.WithJSON(true), logger.WithWriter(f)),
	)
	return nil
}

// parseExclusions keeps the configured patterns that can match. Invalid
// regexps are reported and skipped.
func (s *Session) parseExclusions(texts []string) strip.Exclusions {
	var out strip.Exclusions
	for _, p := range strip.ParseAll(texts) {
		switch {
		case !p.Valid():
			s.Logger.Warn("ignoring invalid exclusion", "pattern", p.String())
		case p.IsEmpty():
		default:
			out = append(out, p)
		}
	}
	return out
}

// Close releases files opened for the session.
func (s *Session) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	s.closers = nil
	return errors.Join(errs...)
}
