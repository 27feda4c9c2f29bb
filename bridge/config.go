package bridge

import (
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
)

// Config carries the bridge's environment-sourced settings. Defaults are
// provided via struct tags. APIKey intentionally has no default and no
// required marker: the caller decides how to surface its absence (the
// command emits a JSON-RPC error unit before exiting).
type Config struct {
	APIKey         string `env:"MCP_API_KEY"`
	Host           string `env:"MCP_HOST,default=localhost"`
	Port           int    `env:"MCP_PORT,default=8080"`
	TimeoutSeconds int    `env:"MCP_TIMEOUT,default=30"`
	Debug          Truthy `env:"MCP_DEBUG,default=0"`
	LogFile        string `env:"MCP_LOG_FILE,default=/tmp/mcp-proxy.log"`
}

// LoadConfig populates a Config from the process environment using
// envdecode.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}
	return cfg, nil
}

// Timeout returns the per-request timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Endpoint returns the downstream URL with the credential embedded in the
// path. Never log this value; use RedactedEndpoint.
func (c Config) Endpoint() string {
	return fmt.Sprintf("http://%s:%d/mcp/%s", c.Host, c.Port, c.APIKey)
}

// RedactedEndpoint is the loggable form of Endpoint with the credential
// masked.
func (c Config) RedactedEndpoint() string {
	return fmt.Sprintf("http://%s:%d/mcp/***", c.Host, c.Port)
}

// Truthy decodes the loose boolean convention used in the proxy's
// environment: "1", "true" and "yes" (case-insensitive) enable, anything
// else disables.
type Truthy bool

// Decode implements envdecode.Decoder.
func (t *Truthy) Decode(repl string) error {
	switch strings.ToLower(strings.TrimSpace(repl)) {
	case "1", "true", "yes":
		*t = true
	default:
		*t = false
	}
	return nil
}
