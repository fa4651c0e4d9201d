package claude

import (
	"context"
	"errors"
	"net"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/ponder"
)

// generationParameters represents the parameters for text generation.
type generationParameters struct {
	// Temperature controls randomness in the output.
	Temperature float64

	// MaxTokens limits the number of tokens to generate.
	MaxTokens int64
}

// Client is a client for the Claude API.
type Client struct {
	// client is the underlying Claude client.
	client *anthropic.Client

	// defaultModel is the model to use for chat completions.
	// It can be overridden using WithModel option.
	defaultModel string

	// generation parameters
	params generationParameters
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithModel sets the default model to use for chat completions.
func WithModel(modelName string) Option {
	return func(c *Client) {
		c.defaultModel = modelName
	}
}

// WithTemperature sets the temperature parameter for text generation.
// Range: 0.0 to 1.0. Default: 0.1
func WithTemperature(temp float64) Option {
	return func(c *Client) {
		c.params.Temperature = temp
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
// Default: 1024
func WithMaxTokens(maxTokens int64) Option {
	return func(c *Client) {
		c.params.MaxTokens = maxTokens
	}
}

// New creates a new client for the Claude API.
func New(ctx context.Context, apiKey string, options ...Option) (*Client, error) {
	client := &Client{
		defaultModel: anthropic.ModelClaude3_5SonnetLatest,
		params: generationParameters{
			Temperature: 0.1,
			MaxTokens:   1024,
		},
	}

	for _, option := range options {
		option(client)
	}

	newClient := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	client.client = &newClient

	return client, nil
}

// NewSession creates a new session for the Claude API.
func (c *Client) NewSession(ctx context.Context, options ...ponder.SessionOption) (ponder.Session, error) {
	cfg := ponder.NewSessionConfig(options...)

	var messages []anthropic.MessageParam
	if history := cfg.History(); history != nil {
		for _, ex := range history.Exchanges {
			messages = append(messages,
				anthropic.NewUserMessage(anthropic.NewTextBlock(ex.Question)),
				anthropic.NewAssistantMessage(anthropic.NewTextBlock(ex.Answer)),
			)
		}
	}

	session := &Session{
		client:       c.client,
		defaultModel: c.defaultModel,
		systemPrompt: cfg.SystemPrompt(),
		messages:     messages,
		params:       c.params,
	}

	return session, nil
}

// Session is a session for the Claude chat. Prior exchanges and the system
// preamble are fixed at session creation; each call appends the assembled
// reasoning prompt as the final user message.
type Session struct {
	client       *anthropic.Client
	defaultModel string
	systemPrompt string
	messages     []anthropic.MessageParam
	params       generationParameters
}

func (s *Session) GenerateContent(ctx context.Context, prompt string) (string, error) {
	messages := append(append([]anthropic.MessageParam(nil), s.messages...),
		anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)))

	params := anthropic.MessageNewParams{
		Model:       s.defaultModel,
		MaxTokens:   s.params.MaxTokens,
		Temperature: anthropic.Float(s.params.Temperature),
		Messages:    messages,
	}
	if s.systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: s.systemPrompt}}
	}

	resp, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create message", errorOptions(err)...)
	}

	var texts []string
	for _, content := range resp.Content {
		textBlock := content.AsResponseTextBlock()
		if textBlock.Type == "text" {
			texts = append(texts, textBlock.Text)
		}
	}

	if len(texts) == 0 {
		return "", goerr.New("empty response from model")
	}

	out := texts[0]
	for _, t := range texts[1:] {
		out += "\n" + t
	}
	return out, nil
}

// errorOptions tags network-level failures as transient so the session
// loop can do its single retry.
func errorOptions(err error) []goerr.Option {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return []goerr.Option{goerr.Tag(ponder.ErrTagTransient)}
	}
	return nil
}
