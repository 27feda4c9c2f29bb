package main

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"
)

// TestMain re-execs the test binary as the real bridge when the marker
// variable is set, so startup behavior (stdout unit, exit code, untouched
// stdin) can be observed from outside the process.
func TestMain(m *testing.M) {
	if os.Getenv("MCP_BRIDGE_RUN_MAIN") == "1" {
		main()
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func envWithout(keys ...string) []string {
	var env []string
	for _, kv := range os.Environ() {
		drop := false
		for _, key := range keys {
			if strings.HasPrefix(kv, key+"=") {
				drop = true
				break
			}
		}
		if !drop {
			env = append(env, kv)
		}
	}
	return env
}

func TestMissingAPIKeyFailsBeforeReadingInput(t *testing.T) {
	cmd := exec.Command(os.Args[0])
	cmd.Env = append(envWithout("MCP_API_KEY", "MCP_DEBUG"), "MCP_BRIDGE_RUN_MAIN=1")

	// Give the process a pending input line on a pipe that never reaches
	// EOF. The startup failure must terminate the process without ever
	// consuming it.
	pr, pw, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer pr.Close()
	defer pw.Close()
	pending := `{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n"
	if _, err := pw.WriteString(pending); err != nil {
		t.Fatalf("write stdin: %v", err)
	}
	cmd.Stdin = pr

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case err = <-done:
	case <-time.After(10 * time.Second):
		_ = cmd.Process.Kill()
		t.Fatal("process did not exit; it may be blocked reading stdin")
	}

	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		t.Fatalf("expected a non-zero exit, got err=%v stderr=%q", err, stderr.String())
	}
	if code := exitErr.ExitCode(); code == 0 {
		t.Fatalf("exit code = %d, want non-zero", code)
	}

	lines := strings.Split(strings.TrimRight(stdout.String(), "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected exactly one output unit, got %#v", lines)
	}
	if !strings.Contains(lines[0], `"id":null`) {
		t.Errorf("error unit should carry a null id: %q", lines[0])
	}

	var unit struct {
		JSONRPC string `json:"jsonrpc"`
		ID      any    `json:"id"`
		Error   *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &unit); err != nil {
		t.Fatalf("decode error unit %q: %v", lines[0], err)
	}
	if unit.JSONRPC != "2.0" || unit.Error == nil {
		t.Fatalf("malformed error unit: %q", lines[0])
	}
	if unit.Error.Code != -32600 {
		t.Errorf("code = %d, want -32600", unit.Error.Code)
	}
	if !strings.Contains(unit.Error.Message, "MCP_API_KEY") {
		t.Errorf("message = %q, want it to name MCP_API_KEY", unit.Error.Message)
	}
	if unit.ID != nil {
		t.Errorf("id = %#v, want null", unit.ID)
	}

	// The pending line must still be sitting in the pipe.
	if err := pr.SetReadDeadline(time.Now().Add(time.Second)); err == nil {
		buf := make([]byte, len(pending))
		n, _ := pr.Read(buf)
		if string(buf[:n]) != pending {
			t.Errorf("stdin was consumed before exit: got back %q", string(buf[:n]))
		}
	}
}
