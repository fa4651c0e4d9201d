package gemini

import (
	"context"
	"errors"
	"net"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/ponder"
	"google.golang.org/api/option"
)

const DefaultModel = "gemini-1.5-flash"

// Client is a client for the Gemini API on Vertex AI.
type Client struct {
	client       *genai.Client
	defaultModel string
	temperature  float32

	// gcpOptions are additional options for Google Cloud Platform, e.g.
	// credentials. They can be set using WithGoogleCloudOptions.
	gcpOptions []option.ClientOption
}

// Option is a configuration option for the Gemini client.
type Option func(*Client)

// WithModel sets the model to use for text generation.
func WithModel(model string) Option {
	return func(c *Client) {
		c.defaultModel = model
	}
}

// WithTemperature sets the sampling temperature. Default is 0.1.
func WithTemperature(temperature float32) Option {
	return func(c *Client) {
		c.temperature = temperature
	}
}

// WithGoogleCloudOptions sets additional Google Cloud options.
func WithGoogleCloudOptions(opts ...option.ClientOption) Option {
	return func(c *Client) {
		c.gcpOptions = append(c.gcpOptions, opts...)
	}
}

// New creates a new client for the Gemini API on Vertex AI.
func New(ctx context.Context, projectID, location string, options ...Option) (*Client, error) {
	client := &Client{
		defaultModel: DefaultModel,
		temperature:  0.1,
	}

	for _, option := range options {
		option(client)
	}

	genaiClient, err := genai.NewClient(ctx, projectID, location, client.gcpOptions...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Vertex AI client")
	}
	client.client = genaiClient

	return client, nil
}

// Close releases the underlying Vertex AI connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// NewSession creates a new session for the Gemini API.
func (c *Client) NewSession(ctx context.Context, options ...ponder.SessionOption) (ponder.Session, error) {
	cfg := ponder.NewSessionConfig(options...)

	model := c.client.GenerativeModel(c.defaultModel)
	model.SetTemperature(c.temperature)
	if cfg.SystemPrompt() != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(cfg.SystemPrompt())},
		}
	}

	var history []*genai.Content
	if h := cfg.History(); h != nil {
		for _, ex := range h.Exchanges {
			history = append(history,
				&genai.Content{Role: "user", Parts: []genai.Part{genai.Text(ex.Question)}},
				&genai.Content{Role: "model", Parts: []genai.Part{genai.Text(ex.Answer)}},
			)
		}
	}

	return &Session{model: model, history: history}, nil
}

// Session is a session for the Gemini chat. A fresh chat is started per
// call with the fixed history, so repeated calls stay independent.
type Session struct {
	model   *genai.GenerativeModel
	history []*genai.Content
}

func (s *Session) GenerateContent(ctx context.Context, prompt string) (string, error) {
	chat := s.model.StartChat()
	chat.History = s.history

	resp, err := chat.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate content", errorOptions(err)...)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", goerr.New("empty response from model")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	if sb.Len() == 0 {
		return "", goerr.New("response has no text part")
	}

	return sb.String(), nil
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
