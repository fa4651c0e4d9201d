package ponder_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/ponder"
	"github.com/mark3labs/mcp-go/mcp"
)

func searchToolSchema() mcp.Tool {
	return mcp.Tool{
		Name:        "web_search",
		Description: "Search the web",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"query": map[string]any{"type": "string"},
			},
			Required: []string{"query"},
		},
	}
}

func TestSingleStringProperty(t *testing.T) {
	t.Run("one string property", func(t *testing.T) {
		name, ok := ponder.SingleStringProperty(searchToolSchema().InputSchema)
		gt.True(t, ok)
		gt.Equal(t, name, "query")
	})

	t.Run("two properties", func(t *testing.T) {
		schema := mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"query": map[string]any{"type": "string"},
				"limit": map[string]any{"type": "integer"},
			},
		}
		_, ok := ponder.SingleStringProperty(schema)
		gt.True(t, !ok)
	})

	t.Run("one non-string property", func(t *testing.T) {
		schema := mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"limit": map[string]any{"type": "integer"},
			},
		}
		_, ok := ponder.SingleStringProperty(schema)
		gt.True(t, !ok)
	})
}

func TestCompileInputSchema(t *testing.T) {
	schema, err := ponder.CompileInputSchema(searchToolSchema().InputSchema)
	gt.NoError(t, err)
	gt.True(t, schema != nil)
}

func TestBuildArguments(t *testing.T) {
	tool := searchToolSchema()
	client := &ponder.MCPClient{}
	gt.NoError(t, client.SetToolForTest(tool))

	t.Run("JSON object input", func(t *testing.T) {
		args, err := client.BuildArguments(tool, `{"query": "tofu"}`)
		gt.NoError(t, err)
		gt.Equal(t, args["query"], "tofu")
	})

	t.Run("bare string wraps into the single string property", func(t *testing.T) {
		args, err := client.BuildArguments(tool, "tofu recipes")
		gt.NoError(t, err)
		gt.Equal(t, args["query"], "tofu recipes")
	})

	t.Run("schema violation is rejected", func(t *testing.T) {
		_, err := client.BuildArguments(tool, `{"query": 42}`)
		gt.Error(t, err)
	})

	t.Run("bare string without a string property", func(t *testing.T) {
		intTool := mcp.Tool{
			Name: "take_int",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"count": map[string]any{"type": "integer"},
				},
			},
		}
		gt.NoError(t, client.SetToolForTest(intTool))

		_, err := client.BuildArguments(intTool, "not json")
		gt.Error(t, err)
		gt.True(t, errors.Is(err, ponder.ErrMissingInput))
	})
}
