package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg == nil {
		t.Fatal("NewRegistry returned nil")
	}
	if reg.Count() != 0 {
		t.Errorf("new registry should be empty, got %d tools", reg.Count())
	}
}

func TestRegisterAndGet(t *testing.T) {
	reg := NewRegistry()

	tool := &Tool{
		Name:        "test_tool",
		Description: "A test tool",
		Category:    CategoryGeneral,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return "success", nil
		},
		Schema: ToolSchema{
			Required: []string{},
		},
	}

	if err := reg.Register(tool); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got := reg.Get("test_tool")
	if got == nil {
		t.Fatal("Get returned nil for registered tool")
	}
	if got.Name != "test_tool" {
		t.Errorf("got name %q, want %q", got.Name, "test_tool")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	reg := NewRegistry()

	tool := &Tool{
		Name:     "dupe",
		Category: CategoryGeneral,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return "", nil
		},
	}

	if err := reg.Register(tool); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	err := reg.Register(tool)
	if err == nil {
		t.Fatal("expected error for duplicate registration")
	}
}

func TestRegisterValidation(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name    string
		tool    *Tool
		wantErr error
	}{
		{
			name:    "empty name",
			tool:    &Tool{Name: "", Execute: func(ctx context.Context, args map[string]any) (string, error) { return "", nil }},
			wantErr: ErrToolNameEmpty,
		},
		{
			name:    "nil execute",
			tool:    &Tool{Name: "test", Execute: nil},
			wantErr: ErrToolExecuteNil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.Register(tt.tool)
			if err == nil {
				t.Errorf("expected error %v, got nil", tt.wantErr)
			}
		})
	}
}

func TestGetByCategory(t *testing.T) {
	reg := NewRegistry()

	tools := []*Tool{
		{Name: "research1", Category: CategoryResearch, Priority: 80, Execute: func(ctx context.Context, args map[string]any) (string, error) { return "", nil }},
		{Name: "research2", Category: CategoryResearch, Priority: 60, Execute: func(ctx context.Context, args map[string]any) (string, error) { return "", nil }},
		{Name: "general1", Category: CategoryGeneral, Priority: 50, Execute: func(ctx context.Context, args map[string]any) (string, error) { return "", nil }},
	}

	for _, tool := range tools {
		reg.MustRegister(tool)
	}

	research := reg.GetByCategory(CategoryResearch)
	if len(research) != 2 {
		t.Errorf("expected 2 research tools, got %d", len(research))
	}

	// Should be sorted by priority (highest first)
	if research[0].Name != "research1" {
		t.Errorf("expected research1 first (priority 80), got %s", research[0].Name)
	}
}

func TestExecute(t *testing.T) {
	reg := NewRegistry()

	tool := &Tool{
		Name:     "echo",
		Category: CategoryGeneral,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			msg, _ := args["message"].(string)
			return "Echo: " + msg, nil
		},
		Schema: ToolSchema{
			Required:   []string{"message"},
			Properties: map[string]Property{"message": {Type: "string"}},
		},
	}

	reg.MustRegister(tool)

	// Test successful execution
	result, err := reg.Execute(context.Background(), "echo", map[string]any{"message": "hello"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Result != "Echo: hello" {
		t.Errorf("got result %q, want %q", result.Result, "Echo: hello")
	}
	if !result.IsSuccess() {
		t.Error("expected IsSuccess to be true")
	}

	// Test missing required arg
	_, err = reg.Execute(context.Background(), "echo", map[string]any{})
	if err == nil {
		t.Error("expected error for missing required arg")
	}

	// Test tool not found
	_, err = reg.Execute(context.Background(), "nonexistent", map[string]any{})
	if err == nil {
		t.Error("expected error for nonexistent tool")
	}
}

func TestExecuteValidatesStringArgs(t *testing.T) {
	reg := NewRegistry()
	calls := 0
	reg.MustRegister(&Tool{
		Name: "lookup",
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			calls++
			return "ok", nil
		},
		Schema: ToolSchema{
			Required: []string{"term"},
			Properties: map[string]Property{
				"term": {Type: "string"},
				"note": {Type: "string"},
			},
		},
	})

	tests := []struct {
		name string
		args map[string]any
		want error
	}{
		{"wrong type", map[string]any{"term": 3}, ErrInvalidArgType},
		{"blank required", map[string]any{"term": " \t"}, ErrBlankArgument},
		{"blank optional", map[string]any{"term": "go", "note": ""}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := reg.Execute(context.Background(), "lookup", tt.args)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got error %v, want %v", err, tt.want)
			}
			if tt.want != nil && res.IsSuccess() {
				t.Error("expected failed result")
			}
		})
	}
	if calls != 1 {
		t.Errorf("tool ran %d times, want 1", calls)
	}
}

func TestDefinitions(t *testing.T) {
	reg := NewRegistry()
	noop := func(ctx context.Context, args map[string]any) (string, error) { return "", nil }

	reg.MustRegister(&Tool{
		Name:        "web_search",
		Description: "Search the web",
		Category:    CategoryResearch,
		Execute:     noop,
		Schema: ToolSchema{
			Required: []string{"query"},
			Properties: map[string]Property{
				"query": {Type: "string", Description: "The search query"},
				"tags":  {Type: "array", Description: "Filters", Items: &PropertyItems{Type: "string"}},
			},
		},
	})
	reg.MustRegister(&Tool{Name: "other", Category: CategoryGeneral, Execute: noop})

	defs := reg.Definitions([]string{"missing", "web_search"})
	if len(defs) != 1 {
		t.Fatalf("expected 1 definition, got %d", len(defs))
	}
	if defs[0].Name != "web_search" || defs[0].Description != "Search the web" {
		t.Errorf("unexpected definition: %+v", defs[0])
	}

	schema := defs[0].InputSchema
	if schema["type"] != "object" {
		t.Errorf("schema type = %v, want object", schema["type"])
	}
	required, _ := schema["required"].([]string)
	if len(required) != 1 || required[0] != "query" {
		t.Errorf("required = %v, want [query]", schema["required"])
	}
	props, _ := schema["properties"].(map[string]any)
	tags, _ := props["tags"].(map[string]any)
	if items, _ := tags["items"].(map[string]any); items["type"] != "string" {
		t.Errorf("array items not rendered: %v", tags)
	}

	if got := reg.Definitions(nil); got != nil {
		t.Errorf("expected nil definitions for no names, got %v", got)
	}
}

func TestResultContent(t *testing.T) {
	ok := &ToolResult{ToolName: "x", Result: "done"}
	if ok.Content() != "done" {
		t.Errorf("Content() = %q, want done", ok.Content())
	}

	reg := NewRegistry()
	res, err := reg.Execute(context.Background(), "nope", nil)
	if !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
	if res.IsSuccess() || !strings.HasPrefix(res.Content(), "Error: tool not found") {
		t.Errorf("unexpected failure content %q", res.Content())
	}
}
