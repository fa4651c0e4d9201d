package ponder

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

var (
	ParseStep          = parseStep
	BuildToolMap       = buildToolMap
	NewPromptAssembler = newPromptAssembler
	CollectThought     = collectThought

	CompileInputSchema   = compileInputSchema
	SingleStringProperty = singleStringProperty
)

type PromptAssembler = promptAssembler

func NewTranscriptForTest(question string) *Transcript {
	return newTranscript(question)
}

func (c *MCPClient) BuildArguments(tool mcp.Tool, input string) (map[string]any, error) {
	return c.buildArguments(tool, input)
}

func (c *MCPClient) SetToolForTest(tool mcp.Tool) error {
	schema, err := compileInputSchema(tool.InputSchema)
	if err != nil {
		return err
	}
	if c.tools == nil {
		c.tools = map[string]mcp.Tool{}
		c.schemas = map[string]*jsonschema.Schema{}
	}
	c.tools[tool.Name] = tool
	c.schemas[tool.Name] = schema
	return nil
}
