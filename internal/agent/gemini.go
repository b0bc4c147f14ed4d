package agent

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/klubi/clerk/internal/actions"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// ErrEmptyResponse is returned when the model answers with no candidates.
var ErrEmptyResponse = errors.New("empty response from model")

// GeminiClient is the part of the genai SDK the Gemini completer uses.
type GeminiClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type sdkClient struct {
	client *genai.Client
}

func (c *sdkClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return c.client.Models.GenerateContent(ctx, model, contents, config)
}

// NewGeminiClient connects to the Gemini API with an API key.
func NewGeminiClient(ctx context.Context, apiKey string) (GeminiClient, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &sdkClient{client: c}, nil
}

// Gemini completes requests with Google Gemini, using native function
// calling for tools.
type Gemini struct {
	client GeminiClient
	model  string
	logger *zap.Logger
}

// NewGemini wraps client. An empty model selects DefaultGeminiModel.
func NewGemini(client GeminiClient, model string, logger *zap.Logger) *Gemini {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{client: client, model: model, logger: logger}
}

func (g *Gemini) Name() string  { return "gemini" }
func (g *Gemini) Model() string { return g.model }

// Complete sends req to Gemini.
func (g *Gemini) Complete(ctx context.Context, req Request) (*Reply, error) {
	g.logger.Debug("calling gemini",
		zap.String("model", g.model),
		zap.Int("messages", len(req.Messages)),
		zap.Int("tools", len(req.Tools)),
	)

	resp, err := g.client.GenerateContent(ctx, g.model, toContents(req.Messages), toConfig(req))
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return fromResponse(resp)
}

func toConfig(req Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature > 0 {
		temp := req.Temperature
		cfg.Temperature = &temp
	}
	if len(req.Tools) > 0 {
		cfg.Tools = toTools(req.Tools)
		if req.NoToolCalls {
			cfg.ToolConfig = &genai.ToolConfig{
				FunctionCallingConfig: &genai.FunctionCallingConfig{
					Mode: genai.FunctionCallingConfigModeNone,
				},
			}
		}
	}
	return cfg
}

func toContents(msgs []Message) []*genai.Content {
	var out []*genai.Content
	for _, m := range msgs {
		var parts []*genai.Part
		if m.Text != "" {
			parts = append(parts, &genai.Part{Text: m.Text})
		}
		for _, tc := range m.ToolCalls {
			parts = append(parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Name, Args: tc.Args},
			})
		}
		for _, tr := range m.ToolResults {
			parts = append(parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       tr.ID,
					Name:     tr.Name,
					Response: map[string]any{"output": tr.Output},
				},
			})
		}
		if len(parts) == 0 {
			continue
		}
		out = append(out, &genai.Content{Role: string(m.Role), Parts: parts})
	}
	return out
}

func toTools(decls []actions.Declaration) []*genai.Tool {
	fds := make([]*genai.FunctionDeclaration, 0, len(decls))
	for _, d := range decls {
		schema := &genai.Schema{
			Type:       genai.TypeObject,
			Properties: make(map[string]*genai.Schema, len(d.Params)),
		}
		for _, p := range d.Params {
			schema.Properties[p.Name] = &genai.Schema{Type: schemaType(p.Type), Description: p.Description}
			if p.Required {
				schema.Required = append(schema.Required, p.Name)
			}
		}
		fds = append(fds, &genai.FunctionDeclaration{
			Name:        string(d.Action),
			Description: d.Description,
			Parameters:  schema,
		})
	}
	return []*genai.Tool{{FunctionDeclarations: fds}}
}

func schemaType(t string) genai.Type {
	switch t {
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

func fromResponse(resp *genai.GenerateContentResponse) (*Reply, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrEmptyResponse
	}
	reply := &Reply{}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		if part.Text != "" {
			reply.Text += part.Text
		}
		if fc := part.FunctionCall; fc != nil {
			reply.ToolCalls = append(reply.ToolCalls, ToolCall{ID: fc.ID, Name: fc.Name, Args: fc.Args})
		}
	}
	return reply, nil
}
