package executor

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestHostExecutorSuccess(t *testing.T) {
	e := NewHostExecutor(5*time.Second, false)

	success, output := e.Execute(context.Background(), "echo hello")
	if !success {
		t.Fatalf("expected success, output: %s", output)
	}
	if output != "hello" {
		t.Errorf("output = %q, want %q", output, "hello")
	}
}

func TestHostExecutorFailure(t *testing.T) {
	e := NewHostExecutor(5*time.Second, false)

	success, output := e.Execute(context.Background(), "echo broken >&2; exit 3")
	if success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(output, "broken") {
		t.Errorf("output = %q, want stderr captured", output)
	}
}

func TestHostExecutorCombinesStdoutAndStderr(t *testing.T) {
	e := NewHostExecutor(5*time.Second, false)

	success, output := e.Execute(context.Background(), "echo out; echo err >&2")
	if !success {
		t.Fatalf("expected success, output: %s", output)
	}
	if !strings.Contains(output, "out") || !strings.Contains(output, "err") {
		t.Errorf("output = %q, want both streams", output)
	}
}

func TestHostExecutorTimeout(t *testing.T) {
	e := NewHostExecutor(100*time.Millisecond, false)

	start := time.Now()
	success, output := e.Execute(context.Background(), "sleep 5")
	if success {
		t.Fatal("expected timeout to surface as failure")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("command was not killed promptly, took %v", elapsed)
	}
	if !strings.Contains(output, "timed out") {
		t.Errorf("output = %q, want timeout message", output)
	}
}

func TestNewHostExecutorDefaultTimeout(t *testing.T) {
	e := NewHostExecutor(0, false)
	if e.Timeout != 30*time.Second {
		t.Errorf("default timeout = %v, want 30s", e.Timeout)
	}
}
