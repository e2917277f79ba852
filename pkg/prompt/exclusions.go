package prompt

import (
	"github.com/papercomputeco/aish/pkg/strip"
)

// fenceOpen matches an opening markdown code fence with an optional info
// string, up to and including its newline.
const fenceOpen = "```[\\w+-]*\\n"

// ExplanationExclusions decodes free text: no start marker, nothing stripped.
func ExplanationExclusions() strip.Exclusions {
	return nil
}

// FenceExclusions waits for an opening code fence and emits everything after
// it verbatim, closing fence included.
func FenceExclusions() strip.Exclusions {
	return strip.Exclusions{strip.MustCompile(fenceOpen)}
}

// ShellCodeExclusions extracts a single line command from a fenced answer:
// output starts after the opening fence, and fences and newlines are removed
// from everything emitted.
func ShellCodeExclusions() strip.Exclusions {
	return strip.Exclusions{
		strip.MustCompile(fenceOpen),
		strip.Literal("```"),
		strip.Literal("\n"),
	}
}
