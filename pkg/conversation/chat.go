package conversation

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/reel/internal/logging"
	"github.com/aretw0/reel/pkg/agent"
)

// Fallback is sent when the agent fails on an utterance.
const Fallback = "Ok"

// ChatOption configures Chat.
type ChatOption func(*chatConfig)

type chatConfig struct {
	logger *slog.Logger
	prompt string
	render func(string) string
}

// WithChatLogger sets the logger.
func WithChatLogger(l *slog.Logger) ChatOption {
	return func(c *chatConfig) {
		c.logger = l
	}
}

// WithPrompt sets the text written before each user line.
func WithPrompt(p string) ChatOption {
	return func(c *chatConfig) {
		c.prompt = p
	}
}

// WithRenderer formats system replies before they are written.
func WithRenderer(fn func(string) string) ChatOption {
	return func(c *chatConfig) {
		c.render = fn
	}
}

// Chat talks to a person over in and out until the dialogue terminates or
// input ends. A greeting starts a new dialogue; so does the first line.
// Agent failures are logged and answered with Fallback.
func Chat(ctx context.Context, a *agent.Agent, in io.Reader, out io.Writer, opts ...ChatOption) error {
	cfg := chatConfig{
		logger: logging.NewNop(),
		prompt: "> ",
		render: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	a.Initialize()
	started := false
	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := fmt.Fprint(out, cfg.prompt); err != nil {
			return err
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var reply string
		if !started || isGreeting(line) {
			reply = a.StartDialogue(ctx)
			started = true
		} else {
			var err error
			if reply, err = a.ContinueDialogue(ctx, line); err != nil {
				cfg.logger.Error("agent failed", "utterance", line, "err", err)
				reply = Fallback
			}
		}
		if _, err := fmt.Fprintln(out, cfg.render(reply)); err != nil {
			return err
		}
		if a.Terminated() {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	if !started {
		return nil
	}
	return a.EndDialogue(ctx)
}
