package ponder

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// MCPClient exposes the tools of one MCP server as a ToolSet. The Action
// Input for an MCP tool is either a JSON object matching the server's
// input schema, or a bare string when the tool takes a single string
// parameter.
type MCPClient struct {
	// For local MCP server
	path    string
	args    []string
	envVars []string

	// For remote MCP server
	baseURL string
	headers map[string]string

	// Common client
	client     *client.Client
	initResult *mcp.InitializeResult
	tools      map[string]mcp.Tool
	schemas    map[string]*jsonschema.Schema

	initMutex sync.Mutex
}

var _ ToolSet = &MCPClient{}

// MCPonStdioOption is the option for the MCP client for local MCP executable server via stdio.
type MCPonStdioOption func(*MCPClient)

// WithEnvVars sets the environment variables for the MCP client. It appends the environment variables to the existing ones.
func WithEnvVars(envVars []string) MCPonStdioOption {
	return func(m *MCPClient) {
		m.envVars = append(m.envVars, envVars...)
	}
}

// NewMCPStdio creates an MCP client for a local executable server.
func NewMCPStdio(path string, args []string, options ...MCPonStdioOption) *MCPClient {
	c := &MCPClient{
		path: path,
		args: args,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// MCPonSSEOption is the option for the MCP client for remote MCP server via HTTP SSE.
type MCPonSSEOption func(*MCPClient)

// WithHeaders sets the headers for the MCP client. It replaces the existing headers setting.
func WithHeaders(headers map[string]string) MCPonSSEOption {
	return func(m *MCPClient) {
		m.headers = headers
	}
}

// NewMCPSSE creates an MCP client for a remote server via HTTP SSE.
func NewMCPSSE(baseURL string, options ...MCPonSSEOption) *MCPClient {
	c := &MCPClient{
		baseURL: baseURL,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *MCPClient) start(ctx context.Context) error {
	c.initMutex.Lock()
	defer c.initMutex.Unlock()

	if c.initResult != nil {
		return nil
	}

	var tp transport.Interface
	if c.path != "" {
		tp = transport.NewStdio(c.path, c.envVars, c.args...)
	}

	if c.baseURL != "" {
		sse, err := transport.NewSSE(c.baseURL, transport.WithHeaders(c.headers))
		if err != nil {
			return goerr.Wrap(err, "failed to create SSE transport")
		}
		tp = sse
	}

	if tp == nil {
		return goerr.New("no transport")
	}

	c.client = client.NewClient(tp)

	if err := c.client.Start(ctx); err != nil {
		return goerr.Wrap(err, "failed to start MCP client")
	}

	var initRequest mcp.InitializeRequest
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "ponder",
		Version: "0.0.1",
	}

	resp, err := c.client.Initialize(ctx, initRequest)
	if err != nil {
		return goerr.Wrap(err, "failed to initialize MCP client")
	}
	c.initResult = resp

	return c.loadTools(ctx)
}

func (c *MCPClient) loadTools(ctx context.Context) error {
	resp, err := c.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return goerr.Wrap(err, "failed to list tools")
	}

	c.tools = map[string]mcp.Tool{}
	c.schemas = map[string]*jsonschema.Schema{}

	for _, tool := range resp.Tools {
		c.tools[tool.Name] = tool

		schema, err := compileInputSchema(tool.InputSchema)
		if err != nil {
			return goerr.Wrap(err, "failed to compile tool input schema", goerr.V("tool", tool.Name))
		}
		c.schemas[tool.Name] = schema
	}

	return nil
}

// Specs returns the specifications of the server's tools.
func (c *MCPClient) Specs(ctx context.Context) ([]ToolSpec, error) {
	if err := c.start(ctx); err != nil {
		return nil, err
	}

	resp, err := c.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tools")
	}

	specs := make([]ToolSpec, 0, len(resp.Tools))
	for _, tool := range resp.Tools {
		specs = append(specs, ToolSpec{
			Name:        tool.Name,
			Description: tool.Description,
		})
	}

	return specs, nil
}

// Run invokes the named tool with the raw Action Input.
func (c *MCPClient) Run(ctx context.Context, name string, input string) (string, error) {
	if err := c.start(ctx); err != nil {
		return "", err
	}

	tool, ok := c.tools[name]
	if !ok {
		return "", goerr.Wrap(ErrUnknownTool, "tool is not provided by the MCP server", goerr.V("tool", name))
	}

	args, err := c.buildArguments(tool, input)
	if err != nil {
		return "", err
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	resp, err := c.client.CallTool(ctx, req)
	if err != nil {
		return "", goerr.Wrap(err, "failed to call tool")
	}

	return mcpContentToText(resp.Content), nil
}

// Close shuts down the underlying MCP connection.
func (c *MCPClient) Close() error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close MCP client")
	}
	return nil
}

// buildArguments converts the raw Action Input into the argument object
// declared by the tool's input schema and validates it against that
// schema before the call.
func (c *MCPClient) buildArguments(tool mcp.Tool, input string) (map[string]any, error) {
	var args map[string]any
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		// Not a JSON object. A tool with a single string parameter can take
		// the input verbatim.
		prop, ok := singleStringProperty(tool.InputSchema)
		if !ok {
			return nil, goerr.Wrap(ErrMissingInput, "tool requires a JSON object as action input", goerr.V("tool", tool.Name))
		}
		args = map[string]any{prop: input}
	}

	if schema, ok := c.schemas[tool.Name]; ok && schema != nil {
		// Round-trip so numbers and nested values take the JSON-generic form
		// the validator expects.
		raw, err := json.Marshal(args)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal tool arguments")
		}
		instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to decode tool arguments")
		}
		if err := schema.Validate(instance); err != nil {
			return nil, goerr.Wrap(err, "tool arguments do not match the input schema", goerr.V("tool", tool.Name))
		}
	}

	return args, nil
}

func compileInputSchema(inputSchema mcp.ToolInputSchema) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(inputSchema)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal input schema")
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode input schema")
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", doc); err != nil {
		return nil, goerr.Wrap(err, "failed to add schema resource")
	}

	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to compile schema")
	}

	return schema, nil
}

// singleStringProperty returns the property name when the schema declares
// exactly one parameter of type string.
func singleStringProperty(inputSchema mcp.ToolInputSchema) (string, bool) {
	if len(inputSchema.Properties) != 1 {
		return "", false
	}

	for name, property := range inputSchema.Properties {
		prop, ok := property.(map[string]any)
		if !ok {
			return "", false
		}
		if propType, ok := prop["type"].(string); ok && propType == "string" {
			return name, true
		}
	}

	return "", false
}

func mcpContentToText(contents []mcp.Content) string {
	var parts []string
	for _, c := range contents {
		if txt, ok := mcp.AsTextContent(c); ok {
			parts = append(parts, txt.Text)
		}
	}
	return strings.Join(parts, "\n")
}
