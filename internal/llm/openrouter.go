package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"codesmith/internal/logging"
)

// OpenRouterConfig holds configuration for the OpenRouter client.
type OpenRouterConfig struct {
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	SiteURL  string // Optional: site URL for OpenRouter rankings
	SiteName string // Optional: app name for OpenRouter rankings

	// Retries on 429 and transport failures, with exponential backoff
	// starting at RetryBackoff.
	MaxRetries   int
	RetryBackoff time.Duration
}

// DefaultOpenRouterConfig returns sensible defaults.
func DefaultOpenRouterConfig(apiKey string) OpenRouterConfig {
	return OpenRouterConfig{
		APIKey:       apiKey,
		BaseURL:      "https://openrouter.ai/api/v1",
		Timeout:      120 * time.Second,
		SiteName:     "codesmith",
		MaxRetries:   3,
		RetryBackoff: time.Second,
	}
}

// OpenRouterClient talks to any OpenAI-compatible /chat/completions endpoint,
// OpenRouter by default.
type OpenRouterClient struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	siteURL      string
	siteName     string
	maxRetries   int
	retryBackoff time.Duration
}

// NewOpenRouterClient creates a new OpenRouter client.
func NewOpenRouterClient(config OpenRouterConfig) *OpenRouterClient {
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = time.Second
	}
	return &OpenRouterClient{
		apiKey:       config.APIKey,
		baseURL:      strings.TrimRight(config.BaseURL, "/"),
		siteURL:      config.SiteURL,
		siteName:     config.SiteName,
		maxRetries:   config.MaxRetries,
		retryBackoff: config.RetryBackoff,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Wire types for the OpenAI-compatible API.
type (
	openAIRequest struct {
		Model       string          `json:"model"`
		Messages    []openAIMessage `json:"messages"`
		MaxTokens   int             `json:"max_tokens,omitempty"`
		Temperature float64         `json:"temperature,omitempty"`
		Tools       []openAITool    `json:"tools,omitempty"`
		ToolChoice  string          `json:"tool_choice,omitempty"`
	}

	openAIMessage struct {
		Role       string           `json:"role"`
		Content    string           `json:"content"`
		ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
		ToolCallID string           `json:"tool_call_id,omitempty"`
	}

	openAITool struct {
		Type     string         `json:"type"`
		Function openAIFunction `json:"function"`
	}

	openAIFunction struct {
		Name        string                 `json:"name"`
		Description string                 `json:"description,omitempty"`
		Parameters  map[string]interface{} `json:"parameters,omitempty"`
	}

	openAIToolCall struct {
		ID       string `json:"id"`
		Type     string `json:"type"`
		Function struct {
			Name      string `json:"name"`
			Arguments string `json:"arguments"`
		} `json:"function"`
	}

	openAIResponse struct {
		Choices []struct {
			Message struct {
				Role      string           `json:"role"`
				Content   string           `json:"content"`
				ToolCalls []openAIToolCall `json:"tool_calls"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
		Error *struct {
			Message string      `json:"message"`
			Code    interface{} `json:"code"`
		} `json:"error"`
	}
)

// Chat sends the request and returns the first choice.
func (c *OpenRouterClient) Chat(ctx context.Context, req Request) (*Response, error) {
	if c.apiKey == "" {
		logging.APIError("[OpenRouter] Chat: API key not configured")
		return nil, ErrNoAPIKey
	}

	// Auto-apply timeout if context has no deadline
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.httpClient.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	startTime := time.Now()
	body := buildOpenAIRequest(req)
	logging.APIDebug("[OpenRouter] Chat: model=%s messages=%d tools=%d", req.Model, len(body.Messages), len(body.Tools))

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.retryBackoff * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("openrouter: %w (last error: %v)", ctx.Err(), lastErr)
			}
		}

		resp, err := c.do(ctx, jsonData)
		if err == nil {
			logging.API("[OpenRouter] Chat: model=%s completed in %v response_len=%d tool_calls=%d",
				req.Model, time.Since(startTime), len(resp.Text), len(resp.ToolCalls))
			return resp, nil
		}
		if !retryable(err) || ctx.Err() != nil {
			logging.APIError("[OpenRouter] Chat: %v", err)
			return nil, err
		}
		lastErr = err
		logging.APIWarn("[OpenRouter] Chat: attempt %d failed: %v", attempt+1, err)
	}

	logging.APIError("[OpenRouter] Chat: max retries exceeded after %v: %v", time.Since(startTime), lastErr)
	return nil, fmt.Errorf("openrouter: max retries exceeded: %w", lastErr)
}

type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func retryable(err error) bool {
	_, ok := err.(*retryableError)
	return ok
}

func (c *OpenRouterClient) do(ctx context.Context, jsonData []byte) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	// OpenRouter-specific headers
	if c.siteURL != "" {
		httpReq.Header.Set("HTTP-Referer", c.siteURL)
	}
	if c.siteName != "" {
		httpReq.Header.Set("X-Title", c.siteName)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &retryableError{fmt.Errorf("request failed: %w", err)}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	resp.Body.Close()
	if err != nil {
		return nil, &retryableError{fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &retryableError{fmt.Errorf("%w (429): %s", ErrRateLimited, strings.TrimSpace(string(data)))}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var orResp openAIResponse
	if err := json.Unmarshal(data, &orResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if orResp.Error != nil {
		return nil, classify("openrouter", fmt.Errorf("API error: %s (code %v)", orResp.Error.Message, orResp.Error.Code))
	}
	if len(orResp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	choice := orResp.Choices[0]
	return &Response{
		Text:         strings.TrimSpace(choice.Message.Content),
		ToolCalls:    mapToolCallsToInternal(choice.Message.ToolCalls),
		FinishReason: choice.FinishReason,
		Usage: Usage{
			InputTokens:  orResp.Usage.PromptTokens,
			OutputTokens: orResp.Usage.CompletionTokens,
			TotalTokens:  orResp.Usage.TotalTokens,
		},
	}, nil
}

func buildOpenAIRequest(req Request) openAIRequest {
	messages := make([]openAIMessage, 0, len(req.Messages)+1)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, openAIMessage{Role: RoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		om := openAIMessage{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID}
		for _, tc := range m.ToolCalls {
			args, _ := json.Marshal(tc.Input)
			call := openAIToolCall{ID: tc.ID, Type: "function"}
			call.Function.Name = tc.Name
			call.Function.Arguments = string(args)
			om.ToolCalls = append(om.ToolCalls, call)
		}
		messages = append(messages, om)
	}

	body := openAIRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if len(req.Tools) > 0 {
		body.Tools = mapToolDefinitionsToOpenAI(req.Tools)
		body.ToolChoice = "auto"
	}
	return body
}

func mapToolDefinitionsToOpenAI(tools []ToolDefinition) []openAITool {
	result := make([]openAITool, len(tools))
	for i, t := range tools {
		result[i] = openAITool{
			Type: "function",
			Function: openAIFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		}
	}
	return result
}

func mapToolCallsToInternal(calls []openAIToolCall) []ToolCall {
	result := make([]ToolCall, 0, len(calls))
	for _, c := range calls {
		if c.Type != "" && c.Type != "function" {
			continue
		}
		result = append(result, ToolCall{
			ID:    c.ID,
			Name:  c.Function.Name,
			Input: decodeArguments(c.Function.Name, c.Function.Arguments),
		})
	}
	return result
}

// decodeArguments parses tool arguments, repairing sloppy JSON. Unusable
// arguments decode to an empty map so the tool can report what is missing.
func decodeArguments(tool, raw string) map[string]interface{} {
	args := map[string]interface{}{}
	if strings.TrimSpace(raw) == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err == nil {
		return args
	}
	repaired, err := jsonrepair.JSONRepair(raw)
	if err == nil {
		fixed := map[string]interface{}{}
		if json.Unmarshal([]byte(repaired), &fixed) == nil {
			return fixed
		}
	}
	logging.APIWarn("unusable arguments for tool %s: %q", tool, raw)
	return map[string]interface{}{}
}
