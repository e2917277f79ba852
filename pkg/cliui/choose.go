package cliui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Choice is one answer offered by Choose.
type Choice struct {
	// Key is returned when the choice is picked. Its first letter selects it.
	Key   string
	Label string
}

// Ask prints question and returns the trimmed line typed in reply. io.EOF is
// returned when input ends before a line is read.
func Ask(in *bufio.Reader, out io.Writer, question string) (string, error) {
	fmt.Fprintf(out, "  %s ", KeyStyle.Render(question))

	line, err := in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Choose lists choices and reads a selection by number, key or key initial.
// An empty answer selects the first choice. Invalid answers are asked again.
func Choose(in *bufio.Reader, out io.Writer, question string, choices []Choice) (string, error) {
	if len(choices) == 0 {
		return "", errors.New("no choices")
	}

	fmt.Fprintf(out, "\n  %s\n", KeyStyle.Render(question))
	for i, c := range choices {
		fmt.Fprintf(out, "    %s %s\n", DimStyle.Render(fmt.Sprintf("%d)", i+1)), c.Label)
	}

	for {
		answer, err := Ask(in, out, ">")
		if err != nil {
			return "", err
		}
		if key, ok := pick(answer, choices); ok {
			return key, nil
		}
		fmt.Fprintf(out, "  %s %s\n", FailMark, DimStyle.Render("Please pick one of the listed options."))
	}
}

func pick(answer string, choices []Choice) (string, bool) {
	if answer == "" {
		return choices[0].Key, true
	}

	if n, err := strconv.Atoi(answer); err == nil {
		if n >= 1 && n <= len(choices) {
			return choices[n-1].Key, true
		}
		return "", false
	}

	answer = strings.ToLower(answer)
	for _, c := range choices {
		if answer == strings.ToLower(c.Key) {
			return c.Key, true
		}
	}
	for _, c := range choices {
		if strings.HasPrefix(strings.ToLower(c.Key), answer[:1]) {
			return c.Key, true
		}
	}
	return "", false
}
