package logctx

import (
	"context"
	"log/slog"
)

// Handler decorates log records with request-scoped metadata carried on the
// context, so call sites log plain event names and still get correlated
// output.
type Handler struct {
	slog.Handler
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if msg, ok := ctx.Value(rpcMsg{}).(*RPCMessage); ok {
		r.AddAttrs(slog.Group("rpc",
			slog.String("method", msg.Method),
			slog.String("id", msg.ID),
			slog.String("type", msg.Type),
		))
	}

	return h.Handler.Handle(ctx, r)
}

type rpcMsg struct{}

// RPCMessage describes the JSON-RPC message being processed. ID is the
// stringified request id ("" when the message is a notification or could not
// be decoded).
type RPCMessage struct {
	Method string
	ID     string
	Type   string
}

func WithRPCMessage(ctx context.Context, msg *RPCMessage) context.Context {
	return context.WithValue(ctx, rpcMsg{}, msg)
}
