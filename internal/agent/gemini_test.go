package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/genai"

	"github.com/klubi/clerk/internal/actions"
)

type fakeGenai struct {
	resp *genai.GenerateContentResponse
	err  error

	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeGenai) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, config
	return f.resp, f.err
}

func candidate(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Role: "model", Parts: parts}}},
	}
}

func TestGemini_Complete_Text(t *testing.T) {
	fake := &fakeGenai{resp: candidate(
		&genai.Part{Text: "thinking...", Thought: true},
		&genai.Part{Text: "Hello "},
		&genai.Part{Text: "there"},
	)}
	g := NewGemini(fake, "", zaptest.NewLogger(t))

	reply, err := g.Complete(context.Background(), Request{
		SystemPrompt: "sys",
		Messages:     []Message{{Role: RoleUser, Text: "hi"}},
		MaxTokens:    256,
		Temperature:  0.2,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", reply.Text)

	assert.Equal(t, DefaultGeminiModel, fake.model)
	require.Len(t, fake.contents, 1)
	assert.Equal(t, "user", fake.contents[0].Role)
	assert.Equal(t, "sys", fake.config.SystemInstruction.Parts[0].Text)
	assert.Equal(t, int32(256), fake.config.MaxOutputTokens)
	require.NotNil(t, fake.config.Temperature)
	assert.InDelta(t, 0.2, *fake.config.Temperature, 0.0001)
	assert.Nil(t, fake.config.Tools)
}

func TestGemini_Complete_FunctionCall(t *testing.T) {
	fake := &fakeGenai{resp: candidate(&genai.Part{
		FunctionCall: &genai.FunctionCall{ID: "c1", Name: "FILETOOL_OPEN_FILE", Args: map[string]any{"file_path": "x"}},
	})}
	g := NewGemini(fake, "gemini-test", zaptest.NewLogger(t))

	reply, err := g.Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Text: "open x"}},
		Tools:    actions.Catalogue(),
	})
	require.NoError(t, err)
	require.Len(t, reply.ToolCalls, 1)
	assert.Equal(t, ToolCall{ID: "c1", Name: "FILETOOL_OPEN_FILE", Args: map[string]any{"file_path": "x"}}, reply.ToolCalls[0])

	require.Len(t, fake.config.Tools, 1)
	fds := fake.config.Tools[0].FunctionDeclarations
	assert.Len(t, fds, len(actions.Catalogue()))
	assert.Nil(t, fake.config.ToolConfig)
}

func TestGemini_Complete_Errors(t *testing.T) {
	g := NewGemini(&fakeGenai{err: errors.New("quota")}, "", zaptest.NewLogger(t))
	_, err := g.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Text: "hi"}}})
	assert.ErrorContains(t, err, "quota")

	g = NewGemini(&fakeGenai{resp: &genai.GenerateContentResponse{}}, "", zaptest.NewLogger(t))
	_, err = g.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Text: "hi"}}})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestToConfig_NoToolCalls(t *testing.T) {
	cfg := toConfig(Request{Tools: actions.Catalogue()[:1], NoToolCalls: true})
	require.NotNil(t, cfg.ToolConfig)
	assert.Equal(t, genai.FunctionCallingConfigModeNone, cfg.ToolConfig.FunctionCallingConfig.Mode)
}

func TestToContents_ToolRound(t *testing.T) {
	contents := toContents([]Message{
		{Role: RoleUser, Text: "list"},
		{Role: RoleModel, ToolCalls: []ToolCall{{ID: "1", Name: "FILETOOL_LIST_FILES"}}},
		{Role: RoleUser, ToolResults: []ToolResult{{ID: "1", Name: "FILETOOL_LIST_FILES", Output: "a.txt"}}},
		{Role: RoleModel},
	})
	require.Len(t, contents, 3)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "FILETOOL_LIST_FILES", contents[1].Parts[0].FunctionCall.Name)
	assert.Equal(t, map[string]any{"output": "a.txt"}, contents[2].Parts[0].FunctionResponse.Response)
}

func TestToTools_Schema(t *testing.T) {
	d, ok := actions.Lookup(actions.CreateFile)
	require.True(t, ok)

	tools := toTools([]actions.Declaration{d})
	fd := tools[0].FunctionDeclarations[0]
	assert.Equal(t, "FILETOOL_CREATE_FILE", fd.Name)
	assert.Equal(t, genai.TypeObject, fd.Parameters.Type)
	assert.Equal(t, []string{"path"}, fd.Parameters.Required)
	assert.Equal(t, genai.TypeBoolean, fd.Parameters.Properties["is_directory"].Type)
}
