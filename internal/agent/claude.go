package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Claude wraps the local claude CLI in print mode. It uses the user's own
// claude login instead of an API key. The CLI has no function calling, so
// declared tools are described in the system prompt and never called.
type Claude struct {
	cliBin         string
	model          string
	logger         *zap.Logger
	commandContext func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewClaude creates a completer that calls the claude CLI. An empty cliBin
// means "claude" on PATH.
func NewClaude(cliBin, model string, logger *zap.Logger) *Claude {
	if cliBin == "" {
		cliBin = "claude"
	}
	return &Claude{
		cliBin:         cliBin,
		model:          model,
		logger:         logger,
		commandContext: exec.CommandContext,
	}
}

// ClaudeAvailable reports whether the claude binary can be found.
func ClaudeAvailable(cliBin string) bool {
	if cliBin == "" {
		cliBin = "claude"
	}
	_, err := exec.LookPath(cliBin)
	return err == nil
}

func (c *Claude) Name() string { return "claude-cli" }

func (c *Claude) Model() string {
	if c.model == "" {
		return "default"
	}
	return c.model
}

// cliResponse maps the JSON output of `claude -p --output-format json`.
type cliResponse struct {
	Type       string  `json:"type"`
	Subtype    string  `json:"subtype"`
	IsError    bool    `json:"is_error"`
	Result     string  `json:"result"`
	DurationMs int     `json:"duration_ms"`
	TotalCost  float64 `json:"total_cost_usd"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Complete flattens the conversation into one prompt and runs the CLI.
func (c *Claude) Complete(ctx context.Context, req Request) (*Reply, error) {
	args := []string{
		"-p", flatten(req.Messages),
		"--output-format", "json",
	}
	if model := resolveModel(c.model); model != "" {
		args = append(args, "--model", model)
	}
	if sys := c.systemPrompt(req); sys != "" {
		args = append(args, "--system-prompt", sys)
	}

	c.logger.Debug("executing claude CLI",
		zap.String("bin", c.cliBin),
		zap.String("model", c.model),
		zap.Int("messages", len(req.Messages)),
	)

	cmd := c.commandContext(ctx, c.cliBin, args...)
	// Unset CLAUDECODE to allow nested invocation.
	cmd.Env = filterEnv(os.Environ(), "CLAUDECODE")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := stderr.String()
		if errMsg == "" {
			errMsg = err.Error()
		}
		c.logger.Error("claude CLI failed", zap.Error(err), zap.String("stderr", errMsg))
		return nil, fmt.Errorf("claude CLI error: %s", strings.TrimSpace(errMsg))
	}

	var resp cliResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		c.logger.Error("failed to parse claude CLI output", zap.Error(err), zap.String("raw", stdout.String()))
		return nil, fmt.Errorf("parsing claude CLI output: %w", err)
	}
	if resp.IsError {
		return nil, fmt.Errorf("claude CLI returned error: %s", resp.Result)
	}

	c.logger.Debug("claude CLI call completed",
		zap.Int("tokensIn", resp.Usage.InputTokens),
		zap.Int("tokensOut", resp.Usage.OutputTokens),
		zap.Float64("costUSD", resp.TotalCost),
		zap.Int("durationMs", resp.DurationMs),
	)
	return &Reply{Text: resp.Result}, nil
}

func (c *Claude) systemPrompt(req Request) string {
	if len(req.Tools) == 0 {
		return req.SystemPrompt
	}
	var b strings.Builder
	b.WriteString(req.SystemPrompt)
	b.WriteString("\n\nThe following tools exist but cannot be called from this session; ")
	b.WriteString("tell the user which clerk command would run them instead:\n")
	for _, d := range req.Tools {
		fmt.Fprintf(&b, "- %s: %s\n", d.Action, d.Description)
	}
	return b.String()
}

// flatten renders a conversation as a single prompt. A lone user message is
// passed through unchanged.
func flatten(msgs []Message) string {
	if len(msgs) == 1 && msgs[0].Role == RoleUser && len(msgs[0].ToolResults) == 0 {
		return msgs[0].Text
	}
	var b strings.Builder
	for _, m := range msgs {
		if m.Text != "" {
			fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Text)
		}
		for _, tr := range m.ToolResults {
			fmt.Fprintf(&b, "[tool %s]\n%s\n\n", tr.Name, tr.Output)
		}
	}
	return strings.TrimSpace(b.String())
}

// resolveModel maps shortnames to claude CLI --model values.
func resolveModel(model string) string {
	switch model {
	case "claude-sonnet":
		return "sonnet"
	case "claude-haiku":
		return "haiku"
	case "claude-opus":
		return "opus"
	default:
		return model
	}
}

// filterEnv returns a copy of env with the given key removed.
func filterEnv(env []string, key string) []string {
	prefix := key + "="
	result := make([]string, 0, len(env))
	for _, e := range env {
		if !strings.HasPrefix(e, prefix) {
			result = append(result, e)
		}
	}
	return result
}
