package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/klubi/clerk/internal/actions"
	"github.com/klubi/clerk/pkg/apis/v1alpha1"
)

// SystemPrompt frames every natural-language request.
const SystemPrompt = `You are a helpful CLI agent that can perform file operations and web searches.
You have access to tools for:
- Listing files and directories
- Reading file contents
- Creating and editing files
- Finding files by pattern
- Web search using SerpAPI

When a user asks you to do something, use the appropriate tool when one fits.
Be concise and helpful in your responses. Report what you did and what you found.`

// MaxToolOutput caps how much of a tool result is sent back to the model.
const MaxToolOutput = 2000

// Options tunes completions.
type Options struct {
	MaxTokens   int
	Temperature float32
}

// Agent answers free text with a language model that may call tool-provider
// actions. One round of tool calls is executed per request.
type Agent struct {
	completer Completer
	provider  actions.Provider
	opts      Options
	logger    *zap.Logger
}

// New creates an Agent. completer and provider may be nil; Run then reports
// the missing collaborator as a failure.
func New(completer Completer, provider actions.Provider, opts Options, logger *zap.Logger) *Agent {
	return &Agent{completer: completer, provider: provider, opts: opts, logger: logger}
}

// Completer returns the configured language model, or nil.
func (a *Agent) Completer() Completer { return a.completer }

// Run sends text to the model, executes any tool calls it makes, and returns
// the model's final answer. It never returns an error.
func (a *Agent) Run(ctx context.Context, text string) v1alpha1.Result {
	if a.completer == nil {
		return v1alpha1.Fail(v1alpha1.FailureCollaboratorUnavailable,
			"no language model configured: set GEMINI_API_KEY or install the claude CLI")
	}

	tools := a.declarations()
	req := Request{
		SystemPrompt: SystemPrompt,
		Messages:     []Message{{Role: RoleUser, Text: text}},
		Tools:        tools,
		MaxTokens:    a.opts.MaxTokens,
		Temperature:  a.opts.Temperature,
	}

	reply, err := a.completer.Complete(ctx, req)
	if err != nil {
		return a.failure(err, len(tools))
	}
	if len(reply.ToolCalls) == 0 {
		return v1alpha1.SucceedReply(&v1alpha1.Completion{Text: reply.Text, Model: a.completer.Model()})
	}

	records, results := a.runTools(ctx, reply.ToolCalls)

	req.Messages = append(req.Messages,
		Message{Role: RoleModel, Text: reply.Text, ToolCalls: reply.ToolCalls},
		Message{Role: RoleUser, ToolResults: results},
	)
	req.NoToolCalls = true

	final, err := a.completer.Complete(ctx, req)
	if err != nil {
		return a.failure(err, len(tools))
	}

	answer := final.Text
	if strings.TrimSpace(answer) == "" {
		answer = summarize(records)
	}
	return v1alpha1.SucceedReply(&v1alpha1.Completion{
		Text:      answer,
		Model:     a.completer.Model(),
		ToolCalls: records,
	})
}

func (a *Agent) declarations() []actions.Declaration {
	if a.provider == nil {
		return nil
	}
	var out []actions.Declaration
	for _, act := range a.provider.Actions() {
		if d, ok := actions.Lookup(act); ok {
			out = append(out, d)
		}
	}
	return out
}

func (a *Agent) runTools(ctx context.Context, calls []ToolCall) ([]v1alpha1.ToolCallRecord, []ToolResult) {
	records := make([]v1alpha1.ToolCallRecord, 0, len(calls))
	results := make([]ToolResult, 0, len(calls))

	for _, call := range calls {
		act := actions.Parse(call.Name)
		rec := v1alpha1.ToolCallRecord{Name: call.Name, Args: call.Args}

		switch {
		case act == actions.Unknown || a.provider == nil || !actions.Supports(a.provider, act):
			rec.Output = "Unknown action: " + call.Name
			a.logger.Warn("model called unknown action", zap.String("name", call.Name))
		default:
			rec.Known = true
			out, err := a.provider.Execute(ctx, act, call.Args)
			if err != nil {
				rec.Output = fmt.Sprintf("Error executing %s: %v", act, err)
				a.logger.Warn("tool call failed", zap.String("action", string(act)), zap.Error(err))
			} else {
				rec.Output = Truncate(encode(out), MaxToolOutput)
				a.logger.Debug("tool call succeeded", zap.String("action", string(act)))
			}
		}

		records = append(records, rec)
		results = append(results, ToolResult{ID: call.ID, Name: call.Name, Output: rec.Output})
	}
	return records, results
}

func (a *Agent) failure(err error, tools int) v1alpha1.Result {
	a.logger.Error("language model call failed",
		zap.String("completer", a.completer.Name()),
		zap.Error(err),
	)
	return v1alpha1.FailWithDetails(v1alpha1.FailureCollaboratorUnavailable,
		fmt.Sprintf("language model request failed: %v", err),
		map[string]string{
			"completer":      a.completer.Name(),
			"model":          a.completer.Model(),
			"availableTools": strconv.Itoa(tools),
		})
}

func encode(v map[string]any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func summarize(records []v1alpha1.ToolCallRecord) string {
	var b strings.Builder
	for _, r := range records {
		fmt.Fprintf(&b, "%s: %s\n", r.Name, r.Output)
	}
	return strings.TrimSpace(b.String())
}

// Truncate shortens s to at most n bytes on a rune boundary and appends a
// notice when anything was cut.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n... (output truncated)"
}
