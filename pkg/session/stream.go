package session

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/papercomputeco/aish/pkg/cliui"
	"github.com/papercomputeco/aish/pkg/runner"
	"github.com/papercomputeco/aish/pkg/strip"
	"github.com/papercomputeco/aish/pkg/utils"
)

// Stream sends query and writes the decoded answer to w as it arrives. A
// heading is printed to ErrOut first when title is set. Cancellation and
// fallback are reported on ErrOut; a timeout is returned as an error.
func (s *Session) Stream(ctx context.Context, title, query string, exclusions strip.Exclusions, w io.Writer) (runner.Result, error) {
	if title != "" {
		fmt.Fprintf(s.ErrOut, "\n  %s\n\n", cliui.NameStyle.Render(title))
	}

	s.Logger.Debug("streaming completion", "query", utils.Truncate(query, 120))

	res, err := s.Runner.Run(ctx, query, s.withExtra(exclusions), w)
	if res.Text != "" && !strings.HasSuffix(res.Text, "\n") {
		fmt.Fprintln(w)
	}

	switch {
	case res.TimedOut:
		return res, fmt.Errorf("streaming completion: timed out after %s", s.Config.API.Timeout)
	case err != nil:
		return res, fmt.Errorf("streaming completion: %w", err)
	case res.Cancelled():
		fmt.Fprintf(s.ErrOut, "\n  %s %s\n", cliui.FailMark, cliui.DimStyle.Render(cancelNote(res)))
	case res.Fallback:
		s.Logger.Warn("answer carried no code fence, showing it unfiltered")
	}

	s.Logger.Debug("stream finished",
		"reason", res.Reason.String(),
		"bytes", len(res.Text),
	)
	return res, nil
}

// withExtra appends the configured exclusions to base. The first entry of
// base stays the start marker; an empty base gets the empty literal, which
// starts the output at once.
func (s *Session) withExtra(base strip.Exclusions) strip.Exclusions {
	if len(s.Extra) == 0 {
		return base
	}
	e := make(strip.Exclusions, 0, len(base)+len(s.Extra)+1)
	if len(base) == 0 {
		e = append(e, strip.Literal(""))
	}
	e = append(e, base...)
	return append(e, s.Extra...)
}

func cancelNote(res runner.Result) string {
	if res.Pressed != "" {
		return fmt.Sprintf("Cancelled (%s)", res.Pressed)
	}
	return "Cancelled"
}
