package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const defaultCommandTimeout = 10 * time.Second

// Command delivers by running an external CLI, by default
// `openclaw sessions send --session agent:<id>:main --message <text>`.
type Command struct {
	argv     []string
	template string
	timeout  time.Duration
}

// NewCommand returns a command deliverer. argv is the program and its leading arguments.
func NewCommand(argv []string, sessionTemplate string, timeout time.Duration) (*Command, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, errors.New("delivery command is empty")
	}
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	return &Command{argv: argv, template: sessionTemplate, timeout: timeout}, nil
}

// Args returns the full argument list passed to the program for one delivery.
func (c *Command) Args(agentID, text string) []string {
	args := append([]string{}, c.argv[1:]...)
	return append(args, "--session", sessionKey(c.template, agentID), "--message", text)
}

// Deliver runs the command once. Text is passed as a single argv entry, never through a shell.
func (c *Command) Deliver(ctx context.Context, agentID, text string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.argv[0], c.Args(agentID, text)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%s: timed out after %s", c.argv[0], c.timeout)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", c.argv[0], err, msg)
		}
		return fmt.Errorf("%s: %w", c.argv[0], err)
	}
	return nil
}

// Close implements io.Closer.
func (c *Command) Close() error { return nil }
