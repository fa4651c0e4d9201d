// Package ponder answers user questions through a Thought/Action/Result
// reasoning loop: the model thinks in text, names a tool to invoke, and the
// loop feeds the tool's observation back until the model produces a final
// answer.
package ponder

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

const (
	DefaultLoopLimit       = 10
	DefaultParseRetryLimit = 3
	DefaultToolTimeout     = 30 * time.Second

	// DefaultResultLimit bounds one observation's size so a single web page
	// cannot flood the context window.
	DefaultResultLimit = 16 * 1024
)

// AnswerUnavailable is returned as the answer when the loop limit is
// reached without a final answer. It is a graceful degradation, not an
// error.
const AnswerUnavailable = "I was unable to determine an answer within the allowed number of reasoning steps."

// Agent is core structure of the package. It is safe for concurrent Ask
// calls: all fields are read-only after New.
type Agent struct {
	llm LLMClient

	loopLimit       int
	parseRetryLimit int
	toolTimeout     time.Duration
	resultLimit     int
	preamble        string
	date            string

	tools    []Tool
	toolSets []ToolSet

	msgCallback  MsgCallback
	toolCallback ToolCallback
	errCallback  ErrCallback

	logger *slog.Logger
}

// New creates a new ponder agent on the given LLM client.
func New(llmClient LLMClient, options ...Option) *Agent {
	x := &Agent{
		llm:             llmClient,
		loopLimit:       DefaultLoopLimit,
		parseRetryLimit: DefaultParseRetryLimit,
		toolTimeout:     DefaultToolTimeout,
		resultLimit:     DefaultResultLimit,
		preamble:        DefaultPreamble,
		date:            time.Now().Format("January 2, 2006"),
		msgCallback:     defaultMsgCallback,
		toolCallback:    defaultToolCallback,
		errCallback:     defaultErrCallback,
		logger:          slog.New(slog.DiscardHandler),
	}

	for _, opt := range options {
		opt(x)
	}

	return x
}

// Option is the type for the options of the ponder agent.
type Option func(*Agent)

// WithLoopLimit sets the maximum number of reasoning iterations per
// question (one model call plus its optional tool dispatch is one
// iteration).
func WithLoopLimit(loopLimit int) Option {
	return func(x *Agent) {
		x.loopLimit = loopLimit
	}
}

// WithParseRetryLimit sets how many consecutive malformed model responses
// are answered with a corrective instruction before the session fails.
func WithParseRetryLimit(retryLimit int) Option {
	return func(x *Agent) {
		x.parseRetryLimit = retryLimit
	}
}

// WithToolTimeout bounds each tool invocation. A timed out tool yields a
// "tool timed out" observation, not a session failure.
func WithToolTimeout(timeout time.Duration) Option {
	return func(x *Agent) {
		x.toolTimeout = timeout
	}
}

// WithResultLimit bounds the byte size of one observation before it enters
// the transcript. Oversized observations are truncated, never failed.
func WithResultLimit(limit int) Option {
	return func(x *Agent) {
		x.resultLimit = limit
	}
}

// WithPreamble replaces the system preamble template. The template
// receives .Date, .Tools and .Names (see DefaultPreamble).
func WithPreamble(tmplSrc string) Option {
	return func(x *Agent) {
		x.preamble = tmplSrc
	}
}

// WithCurrentDate fixes the date rendered into the preamble. Default is
// the date at New. Fixing it makes prompt assembly reproducible.
func WithCurrentDate(date string) Option {
	return func(x *Agent) {
		x.date = date
	}
}

// WithTools sets the tools for the ponder agent.
func WithTools(tools ...Tool) Option {
	return func(x *Agent) {
		x.tools = append(x.tools, tools...)
	}
}

// WithToolSets sets the tool sets for the ponder agent.
func WithToolSets(toolSets ...ToolSet) Option {
	return func(x *Agent) {
		x.toolSets = append(x.toolSets, toolSets...)
	}
}

// WithMsgCallback sets a callback for each raw model response. Returning
// an error aborts the session.
func WithMsgCallback(callback MsgCallback) Option {
	return func(x *Agent) {
		x.msgCallback = callback
	}
}

// WithToolCallback sets a callback invoked just before each tool dispatch.
// Returning an error aborts the session.
func WithToolCallback(callback ToolCallback) Option {
	return func(x *Agent) {
		x.toolCallback = callback
	}
}

// WithErrCallback sets a callback for tool failures. Returning an error
// aborts the session; returning nil lets the failure flow back to the
// model as an observation.
func WithErrCallback(callback ErrCallback) Option {
	return func(x *Agent) {
		x.errCallback = callback
	}
}

// WithLogger sets the logger for the ponder agent. Default is discard
// logger.
func WithLogger(logger *slog.Logger) Option {
	return func(x *Agent) {
		x.logger = logger
	}
}

// Result is the outcome of one Ask session.
type Result struct {
	Answer     string
	Transcript *Transcript
}

type askConfig struct {
	history *History
}

// AskOption is a per-question option for Ask.
type AskOption func(*askConfig)

// WithPriorExchanges supplies prior question/answer pairs from the
// conversation so the model can resolve follow-up questions.
func WithPriorExchanges(exchanges ...Exchange) AskOption {
	return func(cfg *askConfig) {
		cfg.history = &History{Exchanges: exchanges}
	}
}

// Ask answers one question. It seeds a transcript with the question, then
// alternates model calls and tool dispatches until the model produces a
// final answer, the loop limit is reached (graceful "no answer" result),
// or an unrecoverable provider or format failure occurs.
func (x *Agent) Ask(ctx context.Context, question string, options ...AskOption) (*Result, error) {
	var cfg askConfig
	for _, opt := range options {
		opt(&cfg)
	}

	logger := x.logger.With("ponder.session_id", uuid.New().String())
	ctx = ctxWithLogger(ctx, logger)
	logger.Info("start session", "question", question)

	toolMap, toolList, err := buildToolMap(ctx, x.tools, x.toolSets)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build tool map")
	}

	assembler, err := newPromptAssembler(x.preamble, x.date, toolList)
	if err != nil {
		return nil, err
	}

	sessionOptions := []SessionOption{WithSessionSystemPrompt(assembler.Preamble())}
	if cfg.history != nil {
		sessionOptions = append(sessionOptions, WithSessionHistory(cfg.history))
	}

	ssn, err := x.llm.NewSession(ctx, sessionOptions...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session")
	}

	transcript := newTranscript(question)
	parseRetries := 0

	for i := 0; i < x.loopLimit; i++ {
		logger.Debug("loop", "iteration", i)

		raw, err := generateWithRetry(ctx, ssn, assembler.Prompt(transcript))
		if err != nil {
			return nil, goerr.Wrap(err, "model generation failed")
		}

		if err := x.msgCallback(ctx, raw); err != nil {
			return nil, goerr.Wrap(err, "failed to call msgCallback")
		}

		step, err := parseStep(raw, toolMap)
		if err != nil {
			parseRetries++
			logger.Info("malformed model response", "error", err, "attempt", parseRetries)
			if parseRetries > x.parseRetryLimit {
				return nil, goerr.Wrap(ErrParseRetryExceeded, "model kept producing malformed responses", goerr.V("last", err.Error()))
			}
			transcript.append(SegmentCorrection, correctiveInstruction(err))
			continue
		}
		parseRetries = 0

		switch step.Type {
		case StepFinalAnswer:
			if step.Thought != "" {
				transcript.append(SegmentThought, step.Thought)
			}
			transcript.append(SegmentFinalAnswer, step.Answer)
			logger.Info("session answered", "answer", step.Answer)
			return &Result{Answer: step.Answer, Transcript: transcript}, nil

		case StepThought:
			transcript.append(SegmentThought, step.Thought)

		case StepAction:
			if step.Thought != "" {
				transcript.append(SegmentThought, step.Thought)
			}
			transcript.append(SegmentAction, step.Tool)
			transcript.append(SegmentActionInput, step.Input)

			call := ToolCall{Name: step.Tool, Input: step.Input}
			if err := x.toolCallback(ctx, call); err != nil {
				return nil, goerr.Wrap(err, "failed to call toolCallback")
			}

			observation, err := x.dispatch(ctx, toolMap[strings.ToLower(step.Tool)], call)
			if err != nil {
				return nil, err
			}
			transcript.append(SegmentResult, x.truncate(observation))
		}
	}

	logger.Info("loop limit reached without final answer", "loop_limit", x.loopLimit)
	return &Result{Answer: AnswerUnavailable, Transcript: transcript}, nil
}

// dispatch runs one tool under the per-tool timeout and turns its outcome
// into observation text. Tool failures are absorbed here; the returned
// error is non-nil only when the ErrCallback aborts the session.
func (x *Agent) dispatch(ctx context.Context, tool Tool, call ToolCall) (string, error) {
	logger := LoggerFromContext(ctx)

	toolCtx, cancel := context.WithTimeout(ctx, x.toolTimeout)
	defer cancel()

	output, err := tool.Run(toolCtx, call.Input)
	if err == nil {
		logger.Debug("tool succeeded", "tool", call.Name, "output_size", len(output))
		return output, nil
	}

	if cbErr := x.errCallback(ctx, err, call); cbErr != nil {
		return "", goerr.Wrap(cbErr, "failed to call errCallback")
	}

	logger.Info("tool failed", "tool", call.Name, "error", err)

	if errors.Is(err, context.DeadlineExceeded) {
		return "tool timed out", nil
	}
	return "tool failed: " + err.Error(), nil
}

func (x *Agent) truncate(observation string) string {
	if len(observation) <= x.resultLimit {
		return observation
	}
	return observation[:x.resultLimit] + "\n[truncated]"
}

// generateWithRetry calls the model once, plus one immediate retry when
// the failure is a transient network error. Anything else, including a
// timed out model call, terminates the session.
func generateWithRetry(ctx context.Context, ssn Session, prompt string) (string, error) {
	raw, err := ssn.GenerateContent(ctx, prompt)
	if err == nil {
		return raw, nil
	}
	if !isTransient(err) || ctx.Err() != nil {
		return "", err
	}

	LoggerFromContext(ctx).Info("transient model failure, retrying once", "error", err)
	return ssn.GenerateContent(ctx, prompt)
}

func isTransient(err error) bool {
	if goerr.HasTag(err, ErrTagTransient) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// correctiveInstruction tells the model what was wrong with its last
// response. It enters the transcript, not the user-facing output.
func correctiveInstruction(err error) string {
	switch {
	case errors.Is(err, ErrUnknownTool):
		return "Your last response named a tool that does not exist. Use only the tools listed in the instructions, or give a Final Answer."
	case errors.Is(err, ErrMissingInput):
		return "Your last response had an Action without a usable Action Input line. Repeat the Action with its Action Input, or give a Final Answer."
	default:
		return "Your last response was not in the expected format. Respond with Thought, Action and Action Input lines, or give a Final Answer."
	}
}
