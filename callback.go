package ponder

import "context"

type (
	MsgCallback  func(ctx context.Context, msg string) error
	ToolCallback func(ctx context.Context, call ToolCall) error
	ErrCallback  func(ctx context.Context, err error, call ToolCall) error
)

func defaultMsgCallback(ctx context.Context, msg string) error {
	return nil
}

func defaultToolCallback(ctx context.Context, call ToolCall) error {
	return nil
}

func defaultErrCallback(ctx context.Context, err error, call ToolCall) error {
	return nil
}
