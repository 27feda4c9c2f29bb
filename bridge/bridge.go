package bridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/elnormous/contenttype"

	"github.com/ggoodman/mcp-stdio-bridge/internal/jsonrpc"
	"github.com/ggoodman/mcp-stdio-bridge/internal/logctx"
)

const mcpSessionIDHeader = "Mcp-Session-Id"

var jsonMediaType = contenttype.NewMediaType("application/json")

// Bridge is a single-connection stdio-to-HTTP transport shim. By default it
// reads from os.Stdin and writes to os.Stdout. It holds the current
// Mcp-Session-Id between calls; the loop is strictly sequential so the field
// needs no locking.
type Bridge struct {
	endpoint string
	timeout  time.Duration
	client   *http.Client
	in       io.Reader
	out      io.Writer
	log      *slog.Logger

	sessionID string
}

// New constructs a Bridge from validated configuration and applies options.
func New(cfg Config, opts ...Option) *Bridge {
	b := &Bridge{
		endpoint: cfg.Endpoint(),
		timeout:  cfg.Timeout(),
		in:       os.Stdin,
		out:      os.Stdout,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.client == nil {
		b.client = &http.Client{}
	}
	return b
}

// Run drives the read / forward / emit loop until the input stream is
// exhausted, which is the only clean exit. Every per-iteration failure is
// absorbed and surfaced upstream as a JSON-RPC error reply; none of them end
// the loop. It is safe to call at most once per Bridge.
func (b *Bridge) Run(ctx context.Context) error {
	b.log.InfoContext(ctx, "bridge.start")

	r := bufio.NewReader(b.in)
	for {
		line, err := r.ReadBytes('\n')
		if len(line) > 0 {
			b.log.DebugContext(ctx, "read.line", slog.Int("bytes", len(line)))
		}
		if msg := bytes.TrimSpace(line); len(msg) > 0 {
			b.forward(ctx, msg)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				b.log.InfoContext(ctx, "bridge.exit", slog.String("reason", "eof"))
				return nil
			}
			b.log.ErrorContext(ctx, "read.fail", slog.String("err", err.Error()))
			return fmt.Errorf("read input: %w", err)
		}
	}
}

// forward runs one iteration: probe the line for correlation metadata, POST
// the original bytes downstream, and emit exactly one reply (or none for an
// acknowledged notification).
func (b *Bridge) forward(ctx context.Context, line []byte) {
	id, method := jsonrpc.Peek(line)
	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{
		Method: method,
		ID:     id.String(),
		Type:   messageType(id, method),
	})

	b.log.DebugContext(ctx, "http.post.start", slog.Int("bytes", len(line)))

	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, b.endpoint, bytes.NewReader(line))
	if err != nil {
		b.log.ErrorContext(ctx, "call.fail", slog.String("err", err.Error()))
		b.emitError(ctx, id, err.Error())
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if b.sessionID != "" {
		req.Header.Set(mcpSessionIDHeader, b.sessionID)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		b.log.WarnContext(ctx, "call.fail", slog.String("err", err.Error()))
		b.emitError(ctx, id, classifyCallError(err))
		return
	}
	defer resp.Body.Close()

	// Capture the session token before looking at the body: servers may
	// issue or rotate one on any exchange, error responses included.
	if sid := resp.Header.Get(mcpSessionIDHeader); sid != "" && sid != b.sessionID {
		b.sessionID = sid
		b.log.DebugContext(ctx, "session.update", slog.String("session_id", sid))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		b.log.WarnContext(ctx, "call.fail", slog.String("err", err.Error()))
		b.emitError(ctx, id, classifyCallError(err))
		return
	}

	if resp.StatusCode >= 400 {
		b.log.WarnContext(ctx, "http.error", slog.Int("status", resp.StatusCode))
		b.emitError(ctx, id, fmt.Sprintf("HTTP %d: %s", resp.StatusCode, body))
		return
	}

	if len(body) == 0 {
		// Notifications are acknowledged with an empty 2xx; nothing goes
		// back upstream.
		b.log.DebugContext(ctx, "notification.ack", slog.Int("status", resp.StatusCode))
		return
	}

	if ct := contenttype.NewMediaType(resp.Header.Get("Content-Type")); !ct.Matches(jsonMediaType) {
		b.log.WarnContext(ctx, "content_type.unexpected",
			slog.String("content_type", resp.Header.Get("Content-Type")))
	}

	b.log.DebugContext(ctx, "http.post.ok",
		slog.Int("status", resp.StatusCode), slog.Int("bytes", len(body)))
	b.emit(ctx, body)
}

// messageType mirrors the JSON-RPC classification: a method with no id is a
// notification, a method with an id is a request, anything else is a
// response.
func messageType(id *jsonrpc.RequestID, method string) string {
	switch {
	case method != "" && id.IsNil():
		return "notification"
	case method != "":
		return "request"
	default:
		return "response"
	}
}

// classifyCallError maps a transport error onto the operator-facing message
// carried in the JSON-RPC error reply.
func classifyCallError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "Request timed out"
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return "Request timed out"
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return "Connection error: Is the MCP server running?"
	}
	return err.Error()
}

// emitError synthesizes a JSON-RPC error reply carrying whatever correlation
// id the iteration recovered (null when the line did not decode).
func (b *Bridge) emitError(ctx context.Context, id *jsonrpc.RequestID, message string) {
	res := jsonrpc.NewErrorResponse(id, jsonrpc.ErrorCodeServerError, message, nil)
	buf, err := json.Marshal(res)
	if err != nil {
		b.log.ErrorContext(ctx, "emit.marshal.fail", slog.String("err", err.Error()))
		return
	}
	b.emit(ctx, buf)
}

// emit writes one unit upstream, newline-terminated and flushed immediately
// so the caller never waits on buffering.
func (b *Bridge) emit(ctx context.Context, payload []byte) {
	if _, err := b.out.Write(append(payload, '\n')); err != nil {
		b.log.ErrorContext(ctx, "emit.fail", slog.String("err", err.Error()))
		return
	}
	if f, ok := b.out.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			b.log.ErrorContext(ctx, "emit.flush.fail", slog.String("err", err.Error()))
		}
	}
}
