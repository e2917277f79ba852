// Package prompt builds the completion prompts used by aish and the exclusion
// presets used to decode their answers.
package prompt

import (
	"bytes"
	"strings"
	"text/template"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const explainInstructions = `Please provide a clear, concise description of the script, using minimal words. Outline the steps in a list format.`

const generationInstructions = `Only reply with the single line command surrounded by three backticks. It must be able to be directly run in the target shell. Do not include any other text.

Make sure the command runs on {{.OS}} operating system.`

const fullPromptTmpl = `Create a single line command that one can enter in a terminal and run, based on what is specified in the prompt.

The target shell is {{.Shell}}

` + generationInstructions + `

The prompt is: {{.Prompt}}`

const explanationPromptTmpl = explainInstructions + ` Please reply in {{.Language}}

The script: {{.Script}}`

const revisionPromptTmpl = `Update the following script based on what is asked in the following prompt.

The script: {{.Script}}

The prompt: {{.Prompt}}

` + generationInstructions

var (
	fullTmpl        = template.Must(template.New("full").Parse(fullPromptTmpl))
	explanationTmpl = template.Must(template.New("explanation").Parse(explanationPromptTmpl))
	revisionTmpl    = template.Must(template.New("revision").Parse(revisionPromptTmpl))
)

// Env describes the machine a generated command must run on.
type Env struct {
	Shell string
	OS    string

	// Language is a BCP 47 tag or a language name; explanations are
	// requested in it.
	Language string
}

// DetectEnv returns the Env of the running process with the given language.
func DetectEnv(lang string) Env {
	return Env{
		Shell:    DetectShell(),
		OS:       OSName(),
		Language: lang,
	}
}

type promptData struct {
	Env
	Prompt string
	Script string
}

// Full returns the prompt asking for a single line command doing what
// request describes.
func Full(env Env, request string) string {
	return render(fullTmpl, promptData{Env: env, Prompt: request})
}

// Explanation returns the prompt asking for a step by step description of
// script, written in env.Language.
func Explanation(env Env, script string) string {
	env.Language = LanguageName(env.Language)
	return render(explanationTmpl, promptData{Env: env, Script: script})
}

// Revision returns the prompt asking to update script as request describes.
func Revision(env Env, script, request string) string {
	return render(revisionTmpl, promptData{Env: env, Prompt: request, Script: script})
}

func render(t *template.Template, data promptData) string {
	var buf bytes.Buffer
	// Templates are fixed and data is plain strings: Execute cannot fail.
	_ = t.Execute(&buf, data)
	return strings.TrimSpace(buf.String())
}

// LanguageName returns the English name of a language tag ("fr" gives
// "French"). Anything that is not a known tag is returned unchanged, so
// plain names like "Klingon" pass through.
func LanguageName(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return "English"
	}

	t, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	if name := display.English.Tags().Name(t); name != "" {
		return name
	}
	return tag
}
