// Package flaccheck wraps the flac command-line decoder's integrity test
// mode (`flac -t`) for lossless-format verification.
package flaccheck

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"tonearm/internal/services"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) error
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

// Client invokes the flac test decoder with a bounded timeout.
type Client struct {
	binary  string
	timeout time.Duration
	exec    Executor
}

// New constructs a flac integrity checker.
func New(binary string, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("flac binary required")
	}
	client := &Client{
		binary:  binary,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		exec:    commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Verify decodes the whole stream without output. A failed decode means the
// stream is damaged; the caller records it as a decode-failure defect.
func (c *Client) Verify(ctx context.Context, path string) error {
	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	err := c.exec.Run(runCtx, c.binary, []string{"-t", "-s", path})
	if err == nil {
		return nil
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "analysis", "flac -t", path, err)
	}
	return services.Wrap(services.ErrExternalTool, "analysis", "flac -t", path, err)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return errors.New(detail)
		}
		return err
	}
	return nil
}
