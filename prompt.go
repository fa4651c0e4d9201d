package ponder

import (
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
)

// DefaultPreamble is the template of the system preamble. It renders the
// registered tool descriptions in insertion order and the current date.
const DefaultPreamble = `You are a careful assistant that answers the user's question by reasoning step by step. Today's date is {{ .Date }}.

You may use the following tools to gather facts:
{{ range .Tools }}* {{ .Name }}: {{ .Description }}
{{ end }}
Use this exact format:

Question: the question to answer
Thought: reason about what to do next
Action: the tool to use, one of [{{ .Names }}]
Action Input: the input for the tool
Result: the tool output will appear here

Thought, Action, Action Input and Result can repeat as many times as
needed. Never write a Result line yourself. When you know the answer,
respond with:

Final Answer: the answer to the question

If the tools keep failing, give your best Final Answer and state your
uncertainty.`

type preambleData struct {
	Date  string
	Tools []ToolSpec
	Names string
}

// promptAssembler builds the textual context for each model call: a fixed
// system preamble plus the rendered transcript. It holds no mutable state,
// so identical inputs produce byte-identical output.
type promptAssembler struct {
	preamble string
	tools    []Tool
}

func newPromptAssembler(tmplSrc string, date string, tools []Tool) (*promptAssembler, error) {
	tmpl, err := template.New("preamble").Parse(tmplSrc)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse preamble template")
	}

	specs := make([]ToolSpec, 0, len(tools))
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		specs = append(specs, tool.Spec())
		names = append(names, tool.Spec().Name)
	}

	var sb strings.Builder
	data := preambleData{
		Date:  date,
		Tools: specs,
		Names: strings.Join(names, ", "),
	}
	if err := tmpl.Execute(&sb, data); err != nil {
		return nil, goerr.Wrap(err, "failed to render preamble template")
	}

	return &promptAssembler{preamble: sb.String(), tools: tools}, nil
}

// Preamble returns the rendered system preamble.
func (x *promptAssembler) Preamble() string {
	return x.preamble
}

// Prompt returns the per-iteration user prompt: the transcript so far,
// ending with a Thought cue for the next generation.
func (x *promptAssembler) Prompt(transcript *Transcript) string {
	return transcript.Render() + "Thought:"
}
