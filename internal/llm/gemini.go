package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"codesmith/internal/logging"
)

// GeminiClient uses the Google GenAI SDK. Tool definitions are not forwarded;
// roles served by Gemini answer from the prompt alone.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates a GenAI backed client.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

// Chat sends the history through Models.GenerateContent.
func (g *GeminiClient) Chat(ctx context.Context, req Request) (*Response, error) {
	logging.APIDebug("[Gemini] Chat: model=%s messages=%d", req.Model, len(req.Messages))

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleAssistant:
			if m.Content != "" {
				contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
			}
		case RoleSystem:
			// carried by SystemInstruction
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if strings.TrimSpace(req.System) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		logging.APIError("[Gemini] Chat failed: %v", err)
		return nil, classify("gemini", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" && len(resp.Candidates) == 0 {
		return nil, ErrEmptyResponse
	}

	out := &Response{Text: text}
	if len(resp.Candidates) > 0 {
		out.FinishReason = string(resp.Candidates[0].FinishReason)
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = Usage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
			TotalTokens:  int(u.TotalTokenCount),
		}
	}
	return out, nil
}
