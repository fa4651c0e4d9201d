package gpt

import (
	"context"
	"errors"
	"net"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/ponder"
	"github.com/sashabaranov/go-openai"
)

// Client is a client for the GPT API.
type Client struct {
	client       *openai.Client
	defaultModel string
	temperature  float32
}

type Option func(*Client)

func WithDefaultModel(modelName string) Option {
	return func(c *Client) {
		c.defaultModel = modelName
	}
}

// WithTemperature sets the sampling temperature. Default is 0.1: the
// reasoning format asks for precision, not creativity.
func WithTemperature(temperature float32) Option {
	return func(c *Client) {
		c.temperature = temperature
	}
}

// New creates a new client for the GPT API.
func New(ctx context.Context, apiKey string, options ...Option) (*Client, error) {
	client := &Client{
		defaultModel: openai.GPT4o,
		temperature:  0.1,
	}

	for _, option := range options {
		option(client)
	}

	client.client = openai.NewClient(apiKey)

	return client, nil
}

// NewSession creates a new session for the GPT API.
func (c *Client) NewSession(ctx context.Context, options ...ponder.SessionOption) (ponder.Session, error) {
	cfg := ponder.NewSessionConfig(options...)

	messages := make([]openai.ChatCompletionMessage, 0)
	if cfg.SystemPrompt() != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: cfg.SystemPrompt(),
		})
	}

	if history := cfg.History(); history != nil {
		for _, ex := range history.Exchanges {
			messages = append(messages,
				openai.ChatCompletionMessage{
					Role:    openai.ChatMessageRoleUser,
					Content: ex.Question,
				},
				openai.ChatCompletionMessage{
					Role:    openai.ChatMessageRoleAssistant,
					Content: ex.Answer,
				},
			)
		}
	}

	session := &Session{
		client:       c.client,
		defaultModel: c.defaultModel,
		temperature:  c.temperature,
		messages:     messages,
	}

	return session, nil
}

// Session is a session for the GPT chat. The reasoning prompt is appended
// as the last user message on every call; the session itself stays
// unchanged between calls.
type Session struct {
	client       *openai.Client
	defaultModel string
	temperature  float32
	messages     []openai.ChatCompletionMessage
}

func (s *Session) GenerateContent(ctx context.Context, prompt string) (string, error) {
	messages := append(append([]openai.ChatCompletionMessage(nil), s.messages...), openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	req := openai.ChatCompletionRequest{
		Model:       s.defaultModel,
		Messages:    messages,
		Temperature: s.temperature,
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create chat completion", errorOptions(err)...)
	}

	if len(resp.Choices) == 0 {
		return "", goerr.New("empty response from model")
	}

	return resp.Choices[0].Message.Content, nil
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
