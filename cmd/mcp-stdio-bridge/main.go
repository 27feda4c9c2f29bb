package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/ggoodman/mcp-stdio-bridge/bridge"
	"github.com/ggoodman/mcp-stdio-bridge/internal/jsonrpc"
	"github.com/ggoodman/mcp-stdio-bridge/internal/logctx"
)

func main() {
	cfg, err := bridge.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mcp-stdio-bridge: %v\n", err)
		os.Exit(1)
	}

	if cfg.APIKey == "" {
		// The upstream caller speaks JSON-RPC, so even this fatal startup
		// failure goes out as a well-formed error unit before the process
		// dies.
		res := jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeInvalidRequest,
			"MCP_API_KEY environment variable is required", nil)
		buf, _ := json.Marshal(res)
		fmt.Fprintln(os.Stdout, string(buf))
		os.Exit(1)
	}

	log, closeLog, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mcp-stdio-bridge: open log: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	log.Info("proxy.start",
		slog.String("endpoint", cfg.RedactedEndpoint()),
		slog.Int("timeout_s", cfg.TimeoutSeconds))

	b := bridge.New(cfg, bridge.WithLogger(log))
	if err := b.Run(context.Background()); err != nil {
		log.Error("proxy.fail", slog.String("err", err.Error()))
		os.Exit(1)
	}
	log.Info("proxy.exit")
}

// newLogger returns a discard logger unless debug logging is enabled, in
// which case records append to the configured log file. Each run carries a
// run_id attr so overlapping runs stay distinguishable in the shared file.
// The endpoint credential is never logged; only the redacted endpoint form
// ever reaches a record.
func newLogger(cfg bridge.Config) (*slog.Logger, func(), error) {
	if !cfg.Debug {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}

	f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}

	h := logctx.Handler{Handler: slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})}
	log := slog.New(h).With(slog.String("run_id", uuid.NewString()))
	return log, func() { _ = f.Close() }, nil
}
