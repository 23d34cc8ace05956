package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Executor runs a hook with a bounded lifetime.
type Executor struct {
	timeout time.Duration
}

// NewExecutor creates an Executor that kills hooks running longer than timeout.
func NewExecutor(timeout time.Duration) *Executor {
	return &Executor{timeout: timeout}
}

// Timeout returns the per-run limit.
func (e *Executor) Timeout() time.Duration {
	return e.timeout
}

// Execute writes the event as JSON to the hook's stdin and parses its stdout as a Response.
// The manifest config is attached to the event before sending.
func (e *Executor) Execute(ctx context.Context, h *Hook, ev Event) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, h.Executable)
	cmd.Dir = h.Path

	ev.Config = h.Manifest.Config
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("hook %s timed out after %s", h.Manifest.Name, e.timeout)
	}
	if err != nil {
		if s := stderr.String(); s != "" {
			return nil, fmt.Errorf("hook %s failed: %w, stderr: %s", h.Manifest.Name, err, s)
		}
		return nil, fmt.Errorf("hook %s failed: %w", h.Manifest.Name, err)
	}

	var resp Response
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("parse hook response: %w, stdout: %s", err, stdout.String())
	}
	return &resp, nil
}
