package ponder

import "context"

//go:generate go run github.com/matryer/moq@latest -pkg mock -out mock/mock.go . LLMClient Session

// LLMClient is a client for each LLM service.
type LLMClient interface {
	NewSession(ctx context.Context, options ...SessionOption) (Session, error)
}

// Session is one model conversation. GenerateContent receives the fully
// assembled reasoning prompt and returns the raw generated text. The
// session itself holds only the system preamble and prior exchanges; the
// reasoning transcript is re-sent in full on every call, so repeated calls
// with the same prompt are equivalent.
type Session interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// SessionConfig is the resolved configuration for a new session. LLM
// implementations obtain it via NewSessionConfig from the options passed
// to NewSession.
type SessionConfig struct {
	systemPrompt string
	history      *History
}

func (x SessionConfig) SystemPrompt() string {
	return x.systemPrompt
}

func (x SessionConfig) History() *History {
	return x.history
}

type SessionOption func(*SessionConfig)

// WithSessionSystemPrompt sets the system preamble for the session.
func WithSessionSystemPrompt(prompt string) SessionOption {
	return func(cfg *SessionConfig) {
		cfg.systemPrompt = prompt
	}
}

// WithSessionHistory sets prior question/answer exchanges for the session.
func WithSessionHistory(history *History) SessionOption {
	return func(cfg *SessionConfig) {
		cfg.history = history.Clone()
	}
}

// NewSessionConfig resolves session options. It is intended for LLMClient
// implementations.
func NewSessionConfig(options ...SessionOption) SessionConfig {
	var cfg SessionConfig
	for _, opt := range options {
		opt(&cfg)
	}
	return cfg
}
