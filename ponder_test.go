package ponder_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/ponder"
	"github.com/m-mizutani/ponder/mock"
	"github.com/m-mizutani/ponder/tools/calc"
)

// scriptedSession replays canned model responses in order and records the
// prompts it received.
type scriptedSession struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	prompts   []string
}

func (s *scriptedSession) GenerateContent(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := len(s.prompts)
	s.prompts = append(s.prompts, prompt)

	if idx < len(s.errs) && s.errs[idx] != nil {
		return "", s.errs[idx]
	}
	if idx < len(s.responses) {
		return s.responses[idx], nil
	}
	return "", errors.New("script exhausted")
}

func (s *scriptedSession) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

func newScriptedClient(ssn ponder.Session) *mock.LLMClientMock {
	return &mock.LLMClientMock{
		NewSessionFunc: func(ctx context.Context, options ...ponder.SessionOption) (ponder.Session, error) {
			return ssn, nil
		},
	}
}

func TestAskWithCalculate(t *testing.T) {
	ssn := &scriptedSession{responses: []string{
		"Thought: I need to compute 15% of 200.\nAction: Calculate\nAction Input: 200 * 0.15",
		"Thought: The result is 30.\nFinal Answer: 30",
	}}

	agent := ponder.New(newScriptedClient(ssn), ponder.WithTools(calc.New()))

	result, err := agent.Ask(t.Context(), "What is 15% of 200?")
	gt.NoError(t, err)
	gt.Equal(t, result.Answer, "30")

	prompts := ssn.Prompts()
	gt.Equal(t, len(prompts), 2)
	gt.S(t, prompts[0]).Contains("Question: What is 15% of 200?\n")
	gt.True(t, strings.HasSuffix(prompts[0], "Thought:"))

	// The tool observation enters the second prompt as a Result line.
	gt.S(t, prompts[1]).Contains("Action: Calculate\n")
	gt.S(t, prompts[1]).Contains("Action Input: 200 * 0.15\n")
	gt.S(t, prompts[1]).Contains("Result: 30\n")
}

func TestAskMisspelledTool(t *testing.T) {
	ssn := &scriptedSession{responses: []string{
		"Thought: let me look it up.\nAction: Serach\nAction Input: capital of France",
		"Final Answer: Paris",
	}}

	client := newScriptedClient(ssn)
	agent := ponder.New(client, ponder.WithTools(newTestTool("Search")))

	result, err := agent.Ask(t.Context(), "What is the capital of France?")
	gt.NoError(t, err)
	gt.Equal(t, result.Answer, "Paris")

	// The correction reaches the model within the same session.
	prompts := ssn.Prompts()
	gt.Equal(t, len(prompts), 2)
	gt.S(t, prompts[1]).Contains("named a tool that does not exist")
	gt.Equal(t, len(client.NewSessionCalls()), 1)
}

func TestAskParseRetryExceeded(t *testing.T) {
	ssn := &scriptedSession{responses: []string{"", "", ""}}
	agent := ponder.New(newScriptedClient(ssn), ponder.WithParseRetryLimit(1))

	_, err := agent.Ask(t.Context(), "anything")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, ponder.ErrParseRetryExceeded))
	gt.Equal(t, len(ssn.Prompts()), 2)
}

func TestAskLoopLimit(t *testing.T) {
	ssn := &scriptedSession{responses: []string{
		"Thought: still thinking.",
		"Thought: not done yet.",
	}}
	agent := ponder.New(newScriptedClient(ssn), ponder.WithLoopLimit(2))

	result, err := agent.Ask(t.Context(), "an unanswerable question")
	gt.NoError(t, err)
	gt.Equal(t, result.Answer, ponder.AnswerUnavailable)
	gt.Equal(t, len(ssn.Prompts()), 2)
}

func TestAskToolTimeout(t *testing.T) {
	slowTool := newTestTool("Search")
	slowTool.run = func(ctx context.Context, input string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}

	ssn := &scriptedSession{responses: []string{
		"Action: Search\nAction Input: something slow",
		"Final Answer: could not find out",
	}}

	var failedCalls []ponder.ToolCall
	agent := ponder.New(newScriptedClient(ssn),
		ponder.WithTools(slowTool),
		ponder.WithToolTimeout(10*time.Millisecond),
		ponder.WithErrCallback(func(ctx context.Context, err error, call ponder.ToolCall) error {
			failedCalls = append(failedCalls, call)
			return nil
		}),
	)

	result, err := agent.Ask(t.Context(), "slow question")
	gt.NoError(t, err)
	gt.Equal(t, result.Answer, "could not find out")

	prompts := ssn.Prompts()
	gt.S(t, prompts[1]).Contains("Result: tool timed out\n")
	gt.Equal(t, len(failedCalls), 1)
	gt.Equal(t, failedCalls[0].Name, "Search")
}

func TestAskToolFailureBecomesObservation(t *testing.T) {
	brokenTool := newTestTool("Search")
	brokenTool.run = func(ctx context.Context, input string) (string, error) {
		return "", goerr.Wrap(ponder.ErrToolUnavailable, "search backend down")
	}

	ssn := &scriptedSession{responses: []string{
		"Action: Search\nAction Input: anything",
		"Final Answer: I could not verify this.",
	}}

	agent := ponder.New(newScriptedClient(ssn), ponder.WithTools(brokenTool))

	result, err := agent.Ask(t.Context(), "a question")
	gt.NoError(t, err)
	gt.Equal(t, result.Answer, "I could not verify this.")
	gt.S(t, ssn.Prompts()[1]).Contains("Result: tool failed: ")
}

func TestAskErrCallbackAborts(t *testing.T) {
	brokenTool := newTestTool("Search")
	brokenTool.run = func(ctx context.Context, input string) (string, error) {
		return "", errors.New("boom")
	}

	ssn := &scriptedSession{responses: []string{
		"Action: Search\nAction Input: anything",
	}}

	abort := errors.New("abort session")
	agent := ponder.New(newScriptedClient(ssn),
		ponder.WithTools(brokenTool),
		ponder.WithErrCallback(func(ctx context.Context, err error, call ponder.ToolCall) error {
			return abort
		}),
	)

	_, err := agent.Ask(t.Context(), "a question")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, abort))
}

func TestAskTransientRetry(t *testing.T) {
	ssn := &scriptedSession{
		responses: []string{"", "Final Answer: ok"},
		errs:      []error{goerr.New("connection reset", goerr.Tag(ponder.ErrTagTransient))},
	}

	agent := ponder.New(newScriptedClient(ssn))

	result, err := agent.Ask(t.Context(), "a question")
	gt.NoError(t, err)
	gt.Equal(t, result.Answer, "ok")
	gt.Equal(t, len(ssn.Prompts()), 2)
}

func TestAskProviderErrorTerminates(t *testing.T) {
	ssn := &scriptedSession{
		responses: []string{""},
		errs:      []error{errors.New("invalid api key")},
	}

	agent := ponder.New(newScriptedClient(ssn))

	_, err := agent.Ask(t.Context(), "a question")
	gt.Error(t, err)
	gt.Equal(t, len(ssn.Prompts()), 1)
}

func TestAskCallbacks(t *testing.T) {
	echoTool := newTestTool("Search")
	echoTool.run = func(ctx context.Context, input string) (string, error) {
		return "found: " + input, nil
	}

	ssn := &scriptedSession{responses: []string{
		"Action: Search\nAction Input: tofu recipes",
		"Final Answer: done",
	}}

	var messages []string
	var calls []ponder.ToolCall
	agent := ponder.New(newScriptedClient(ssn),
		ponder.WithTools(echoTool),
		ponder.WithMsgCallback(func(ctx context.Context, msg string) error {
			messages = append(messages, msg)
			return nil
		}),
		ponder.WithToolCallback(func(ctx context.Context, call ponder.ToolCall) error {
			calls = append(calls, call)
			return nil
		}),
	)

	_, err := agent.Ask(t.Context(), "a question")
	gt.NoError(t, err)
	gt.Equal(t, len(messages), 2)
	gt.Equal(t, len(calls), 1)
	gt.Equal(t, calls[0], ponder.ToolCall{Name: "Search", Input: "tofu recipes"})
}

func TestAskPriorExchanges(t *testing.T) {
	var captured ponder.SessionConfig
	client := &mock.LLMClientMock{
		NewSessionFunc: func(ctx context.Context, options ...ponder.SessionOption) (ponder.Session, error) {
			captured = ponder.NewSessionConfig(options...)
			return &scriptedSession{responses: []string{"Final Answer: 1935"}}, nil
		},
	}

	agent := ponder.New(client)

	result, err := agent.Ask(t.Context(), "When was it published?",
		ponder.WithPriorExchanges(ponder.Exchange{
			Question: "Who wrote Snow Country?",
			Answer:   "Yasunari Kawabata",
		}),
	)
	gt.NoError(t, err)
	gt.Equal(t, result.Answer, "1935")

	gt.S(t, captured.SystemPrompt()).Contains("Use this exact format")
	history := captured.History()
	gt.Equal(t, len(history.Exchanges), 1)
	gt.Equal(t, history.Exchanges[0].Question, "Who wrote Snow Country?")
}

func TestAskResultTruncation(t *testing.T) {
	bigTool := newTestTool("GetWebPage")
	bigTool.run = func(ctx context.Context, input string) (string, error) {
		return strings.Repeat("a", 100), nil
	}

	ssn := &scriptedSession{responses: []string{
		"Action: GetWebPage\nAction Input: https://example.com",
		"Final Answer: done",
	}}

	agent := ponder.New(newScriptedClient(ssn),
		ponder.WithTools(bigTool),
		ponder.WithResultLimit(10),
	)

	_, err := agent.Ask(t.Context(), "a question")
	gt.NoError(t, err)
	gt.S(t, ssn.Prompts()[1]).Contains("Result: " + strings.Repeat("a", 10) + "\n[truncated]\n")
}

func TestAskToolNameConflict(t *testing.T) {
	agent := ponder.New(newScriptedClient(&scriptedSession{}),
		ponder.WithTools(newTestTool("Search"), newTestTool("search")),
	)

	_, err := agent.Ask(t.Context(), "a question")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, ponder.ErrToolNameConflict))
}
