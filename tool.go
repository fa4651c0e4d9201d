package ponder

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// ToolSpec is the specification of a tool. Name and Description are
// rendered into the system preamble so the model knows what it may invoke.
type ToolSpec struct {
	// Name is the unique identifier for the tool. Matching against model
	// output is case-insensitive, so names must also be unique ignoring case.
	Name string

	// Description tells the model what the tool does and what shape of
	// input it expects.
	Description string
}

// Tool is the capability contract of the reasoning loop: a tool receives
// the raw Action Input string and returns observation text for the model.
// A returned error is reported to the model as a failed observation, not
// to the end user.
type Tool interface {
	Spec() ToolSpec
	Run(ctx context.Context, input string) (string, error)
}

// ToolSet is a group of tools resolved at session start, e.g. the tools
// exposed by one MCP server.
type ToolSet interface {
	Specs(ctx context.Context) ([]ToolSpec, error)
	Run(ctx context.Context, name string, input string) (string, error)
}

// ToolCall is one dispatch of a tool within a session.
type ToolCall struct {
	Name  string
	Input string
}

type toolWrapper struct {
	spec ToolSpec
	run  func(ctx context.Context, input string) (string, error)
}

func (x *toolWrapper) Spec() ToolSpec {
	return x.spec
}

func (x *toolWrapper) Run(ctx context.Context, input string) (string, error) {
	return x.run(ctx, input)
}

// buildToolMap flattens tools and tool sets into a lookup map keyed by
// lowercased name. The returned list preserves registration order, which
// keeps the rendered tool descriptions stable across runs.
func buildToolMap(ctx context.Context, tools []Tool, toolSets []ToolSet) (map[string]Tool, []Tool, error) {
	toolMap := map[string]Tool{}
	toolList := make([]Tool, 0, len(tools))

	for _, tool := range tools {
		key := strings.ToLower(tool.Spec().Name)
		if _, ok := toolMap[key]; ok {
			return nil, nil, goerr.Wrap(ErrToolNameConflict, "tool name conflict", goerr.V("tool_name", tool.Spec().Name))
		}
		toolMap[key] = tool
		toolList = append(toolList, tool)
	}

	for _, toolSet := range toolSets {
		specs, err := toolSet.Specs(ctx)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to get tool set specs")
		}

		for _, spec := range specs {
			key := strings.ToLower(spec.Name)
			if _, ok := toolMap[key]; ok {
				return nil, nil, goerr.Wrap(ErrToolNameConflict, "tool name conflict (tool set)", goerr.V("tool_name", spec.Name))
			}

			name := spec.Name
			wrapper := &toolWrapper{
				spec: spec,
				run: func(ctx context.Context, input string) (string, error) {
					return toolSet.Run(ctx, name, input)
				},
			}
			toolMap[key] = wrapper
			toolList = append(toolList, wrapper)
		}
	}

	return toolMap, toolList, nil
}
