// Package agent answers free-form requests with a language model that can
// call tool-provider actions.
package agent

import (
	"context"

	"github.com/klubi/clerk/internal/actions"
)

// Role is the author of a Message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ToolCall is a function call requested by the model.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolResult answers a ToolCall.
type ToolResult struct {
	ID     string
	Name   string
	Output string
}

// Message is one turn of a conversation.
type Message struct {
	Role        Role
	Text        string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// Request is a single completion request.
type Request struct {
	SystemPrompt string
	Messages     []Message
	Tools        []actions.Declaration
	// NoToolCalls asks the model to answer in text even when tools are
	// declared.
	NoToolCalls bool
	MaxTokens   int
	Temperature float32
}

// Reply is the model's answer.
type Reply struct {
	Text      string
	ToolCalls []ToolCall
}

// Completer is a language model backend.
type Completer interface {
	Name() string
	Model() string
	Complete(ctx context.Context, req Request) (*Reply, error)
}
