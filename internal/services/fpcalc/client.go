// Package fpcalc wraps the Chromaprint fpcalc command-line tool.
package fpcalc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"tonearm/internal/services"
)

// Result carries the acoustic fingerprint and the duration fpcalc measured.
type Result struct {
	Fingerprint string
	DurationSec float64
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client invokes fpcalc with a bounded timeout.
type Client struct {
	binary          string
	maxAudioSeconds int
	timeout         time.Duration
	exec            Executor
}

// New constructs an fpcalc client.
func New(binary string, maxAudioSeconds, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("fpcalc binary required")
	}
	client := &Client{
		binary:          binary,
		maxAudioSeconds: maxAudioSeconds,
		timeout:         time.Duration(timeoutSeconds) * time.Second,
		exec:            commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Fingerprint runs fpcalc against the file and parses its JSON output. A
// non-zero exit or garbled output is reported as an external-tool failure;
// callers treat that as "no fingerprint", never as a fatal error.
func (c *Client) Fingerprint(ctx context.Context, path string) (Result, error) {
	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := []string{"-json"}
	if c.maxAudioSeconds > 0 {
		args = append(args, "-length", strconv.Itoa(c.maxAudioSeconds))
	}
	args = append(args, path)

	output, err := c.exec.Run(runCtx, c.binary, args)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return Result{}, services.Wrap(services.ErrTimeout, "fingerprint", "fpcalc", path, err)
		}
		return Result{}, services.Wrap(services.ErrExternalTool, "fingerprint", "fpcalc", path, err)
	}

	var payload struct {
		Duration    float64 `json:"duration"`
		Fingerprint string  `json:"fingerprint"`
	}
	if err := json.Unmarshal(output, &payload); err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "fingerprint", "parse output", path, err)
	}
	if strings.TrimSpace(payload.Fingerprint) == "" {
		return Result{}, services.Wrap(services.ErrExternalTool, "fingerprint", "fpcalc", "empty fingerprint", nil)
	}

	return Result{Fingerprint: payload.Fingerprint, DurationSec: payload.Duration}, nil
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return nil, fmt.Errorf("%w: %s", err, detail)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}
