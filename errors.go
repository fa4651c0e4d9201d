package ponder

import (
	"errors"

	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrToolNameConflict   = errors.New("tool name conflict")
	ErrLoopLimitExceeded  = errors.New("loop limit exceeded")
	ErrParseRetryExceeded = errors.New("parse retry limit exceeded")

	// Parse errors. Ask recovers from these with a corrective retry.
	ErrMalformedResponse = errors.New("malformed model response")
	ErrUnknownTool       = errors.New("unknown tool")
	ErrMissingInput      = errors.New("action input is missing")

	// Tool errors. These never propagate out of Ask; they are absorbed
	// into the transcript as observations for the model.
	ErrToolUnavailable   = errors.New("tool collaborator is unavailable")
	ErrToolUnreachable   = errors.New("tool target is unreachable")
	ErrToolUnsupported   = errors.New("unsupported content")
	ErrInvalidExpression = errors.New("invalid expression")
)

// ErrTagTransient marks a provider failure as a transient network error.
// Ask retries a tagged model call exactly once.
var ErrTagTransient = goerr.NewTag("transient")
