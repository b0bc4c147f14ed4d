package agent

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/klubi/clerk/internal/actions"
)

func stubClaude(t *testing.T, script string, gotArgs *[]string) *Claude {
	t.Helper()
	c := NewClaude("", "claude-sonnet", zaptest.NewLogger(t))
	c.commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		if gotArgs != nil {
			*gotArgs = append([]string{name}, args...)
		}
		return exec.CommandContext(ctx, "sh", "-c", script)
	}
	return c
}

func TestClaude_Complete_Success(t *testing.T) {
	var args []string
	c := stubClaude(t, `echo '{"type":"result","is_error":false,"result":"four","usage":{"input_tokens":3,"output_tokens":1}}'`, &args)

	reply, err := c.Complete(context.Background(), Request{
		SystemPrompt: "be brief",
		Messages:     []Message{{Role: RoleUser, Text: "2+2?"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "four", reply.Text)
	assert.Empty(t, reply.ToolCalls)

	assert.Equal(t, []string{
		"claude", "-p", "2+2?", "--output-format", "json",
		"--model", "sonnet", "--system-prompt", "be brief",
	}, args)
}

func TestClaude_Complete_NonZeroExit(t *testing.T) {
	c := stubClaude(t, `echo 'not logged in' >&2; exit 1`, nil)

	_, err := c.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Text: "hi"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestClaude_Complete_IsError(t *testing.T) {
	c := stubClaude(t, `echo '{"is_error":true,"result":"rate limited"}'`, nil)

	_, err := c.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Text: "hi"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestClaude_Complete_BadJSON(t *testing.T) {
	c := stubClaude(t, `echo 'plain text'`, nil)

	_, err := c.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Text: "hi"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing claude CLI output")
}

func TestClaude_SystemPromptListsTools(t *testing.T) {
	c := NewClaude("", "", zaptest.NewLogger(t))
	d, ok := actions.Lookup(actions.ListFiles)
	require.True(t, ok)

	sys := c.systemPrompt(Request{SystemPrompt: "base", Tools: []actions.Declaration{d}})
	assert.Contains(t, sys, "base")
	assert.Contains(t, sys, "FILETOOL_LIST_FILES")
	assert.Equal(t, "default", c.Model())
}

func TestFlatten(t *testing.T) {
	assert.Equal(t, "hello", flatten([]Message{{Role: RoleUser, Text: "hello"}}))

	got := flatten([]Message{
		{Role: RoleUser, Text: "list"},
		{Role: RoleModel, Text: "calling"},
		{Role: RoleUser, ToolResults: []ToolResult{{Name: "FILETOOL_LIST_FILES", Output: "a.txt"}}},
	})
	assert.Equal(t, "[user]\nlist\n\n[model]\ncalling\n\n[tool FILETOOL_LIST_FILES]\na.txt", got)
}

func TestFilterEnv(t *testing.T) {
	env := []string{"PATH=/bin", "CLAUDECODE=1", "CLAUDECODE_X=2"}
	assert.Equal(t, []string{"PATH=/bin", "CLAUDECODE_X=2"}, filterEnv(env, "CLAUDECODE"))
}
