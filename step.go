package ponder

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// StepType is the tag of a parsed reasoning step.
type StepType int

const (
	StepThought StepType = iota
	StepAction
	StepFinalAnswer
)

// Step is the structured form of one model response: a thought, a tool
// invocation, or the final answer. A response that reasons and acts in one
// breath yields an Action step whose Thought field carries the reasoning.
type Step struct {
	Type StepType

	// Thought is the reasoning text preceding the Action or Final Answer
	// marker, or the whole response for a thought-only step.
	Thought string

	// Tool is the canonical (registered) tool name and Input its argument.
	// Set only for StepAction.
	Tool  string
	Input string

	// Answer is set only for StepFinalAnswer.
	Answer string
}

const (
	markerThought     = "thought:"
	markerAction      = "action:"
	markerActionInput = "action input:"
	markerFinalAnswer = "final answer:"
)

// markerText reports whether the line starts with the marker
// (case-insensitive, leading whitespace ignored) and returns the trimmed
// text after it.
func markerText(line, marker string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < len(marker) || !strings.EqualFold(trimmed[:len(marker)], marker) {
		return "", false
	}
	return strings.TrimSpace(trimmed[len(marker):]), true
}

// parseStep interprets one raw model response as exactly one Step. It is a
// pure function of the response text and the registered tool set.
func parseStep(raw string, tools map[string]Tool) (*Step, error) {
	lines := strings.Split(raw, "\n")

	// Final Answer takes precedence over any Action in the same response:
	// the model is signaling that it is done.
	for i, line := range lines {
		if text, ok := markerText(line, markerFinalAnswer); ok {
			rest := append([]string{text}, lines[i+1:]...)
			return &Step{
				Type:    StepFinalAnswer,
				Thought: collectThought(lines[:i]),
				Answer:  strings.TrimSpace(strings.Join(rest, "\n")),
			}, nil
		}
	}

	for i, line := range lines {
		name, ok := markerText(line, markerAction)
		if !ok {
			continue
		}

		tool, ok := tools[strings.ToLower(name)]
		if !ok {
			return nil, goerr.Wrap(ErrUnknownTool, "action names a tool that is not registered", goerr.V("tool_name", name))
		}

		input, err := actionInput(lines[i+1:])
		if err != nil {
			return nil, goerr.Wrap(err, "action for "+tool.Spec().Name+" has no usable input")
		}

		return &Step{
			Type:    StepAction,
			Thought: collectThought(lines[:i]),
			Tool:    tool.Spec().Name,
			Input:   input,
		}, nil
	}

	thought := collectThought(lines)
	if thought == "" {
		return nil, goerr.Wrap(ErrMalformedResponse, "response carries no recognizable step")
	}

	return &Step{Type: StepThought, Thought: thought}, nil
}

// actionInput finds the Action Input line following an Action marker. The
// argument is the remainder of that single line; models sometimes wrap it
// in double quotes, which are stripped.
func actionInput(lines []string) (string, error) {
	for _, line := range lines {
		if text, ok := markerText(line, markerActionInput); ok {
			text = strings.Trim(text, `"`)
			if text == "" {
				return "", goerr.Wrap(ErrMissingInput, "action input is empty")
			}
			return text, nil
		}

		// Another marker before any Action Input means the input is missing.
		if _, ok := markerText(line, markerThought); ok {
			break
		}
		if _, ok := markerText(line, markerAction); ok {
			break
		}
	}

	return "", goerr.Wrap(ErrMissingInput, "action has no action input line")
}

// collectThought gathers reasoning text from the lines before a marker,
// stripping Thought prefixes. Unprefixed free text counts as thought; the
// model is still reasoning.
func collectThought(lines []string) string {
	var parts []string
	for _, line := range lines {
		if text, ok := markerText(line, markerThought); ok {
			if text != "" {
				parts = append(parts, text)
			}
			continue
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, "\n")
}
