package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for configuration when --config is not given.
const DefaultPath = ".smith/config.yaml"

// Config holds all codesmith configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM transport
	LLM LLMConfig `yaml:"llm"`

	// Model id per role kind
	Models ModelsConfig `yaml:"models"`

	// Role system prompts
	Prompts PromptsConfig `yaml:"prompts"`

	// Retry caps and thresholds for the pipelines
	Strategy StrategyConfig `yaml:"strategy"`

	// Test execution
	Verifier VerifierConfig `yaml:"verifier"`

	// web_search tool
	Search SearchConfig `yaml:"search"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the chat transport.
type LLMConfig struct {
	Provider          string  `yaml:"provider"` // openrouter, openai, gemini
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	Timeout           string  `yaml:"timeout"`
	Temperature       float64 `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens         int     `yaml:"max_tokens" validate:"gte=0"`
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gte=0"`
	MaxRetries        int     `yaml:"max_retries" validate:"gte=0,lte=10"`
	SiteURL           string  `yaml:"site_url"`
	SiteName          string  `yaml:"site_name"`
}

// ModelsConfig maps a role kind to a model id.
type ModelsConfig struct {
	Coding    string `yaml:"coding" validate:"required"`
	Reasoning string `yaml:"reasoning" validate:"required"`
	General   string `yaml:"general" validate:"required"`
}

// PromptsConfig locates the per-role prompt files.
type PromptsConfig struct {
	Dir string `yaml:"dir"`
}

// VerifierConfig configures test execution.
type VerifierConfig struct {
	CaseTimeout    string   `yaml:"case_timeout"`
	AllowedImports []string `yaml:"allowed_imports"`
}

// SearchConfig configures the web_search tool.
type SearchConfig struct {
	Enabled    bool   `yaml:"enabled"`
	MaxResults int    `yaml:"max_results" validate:"gte=1,lte=20"`
	Timeout    string `yaml:"timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "codesmith",
		Version: "0.3.0",

		LLM: LLMConfig{
			Provider:          "openrouter",
			BaseURL:           "https://openrouter.ai/api/v1",
			Timeout:           "120s",
			Temperature:       0.7,
			MaxTokens:         4096,
			RequestsPerSecond: 10,
			MaxRetries:        3,
			SiteName:          "codesmith",
		},

		Models: ModelsConfig{
			Coding:    "nvidia/llama-3.3-nemotron-super-49b-v1:free",
			Reasoning: "nvidia/llama-3.3-nemotron-super-49b-v1:free",
			General:   "meta-llama/llama-3.3-8b-instruct:free",
		},

		Prompts: PromptsConfig{
			Dir: "prompts",
		},

		Strategy: DefaultStrategyConfig(),

		Verifier: VerifierConfig{
			CaseTimeout: "5s",
			AllowedImports: []string{
				"fmt", "strings", "strconv", "sort", "slices", "maps",
				"math", "math/big", "math/bits", "unicode", "unicode/utf8",
				"bytes", "errors", "regexp", "container/heap", "container/list",
				"encoding/json", "time",
			},
		},

		Search: SearchConfig{
			Enabled:    false,
			MaxResults: 5,
			Timeout:    "30s",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Dir:    ".smith/logs",
		},
	}
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if p := os.Getenv("SMITH_PROVIDER"); p != "" {
		c.LLM.Provider = p
	}

	// API key for the active provider
	switch c.LLM.Provider {
	case "openai":
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			c.LLM.APIKey = key
		}
	case "gemini":
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			c.LLM.APIKey = key
		}
	default:
		if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
			c.LLM.APIKey = key
		}
	}

	if url := os.Getenv("SMITH_BASE_URL"); url != "" {
		c.LLM.BaseURL = url
	}
	if dir := os.Getenv("SMITH_PROMPTS_DIR"); dir != "" {
		c.Prompts.Dir = dir
	}

	if m := os.Getenv("SMITH_MODEL_CODING"); m != "" {
		c.Models.Coding = m
	}
	if m := os.Getenv("SMITH_MODEL_REASONING"); m != "" {
		c.Models.Reasoning = m
	}
	if m := os.Getenv("SMITH_MODEL_GENERAL"); m != "" {
		c.Models.General = m
	}
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	return parseDuration(c.LLM.Timeout, 120*time.Second)
}

// GetCaseTimeout returns the per-test-case execution timeout.
func (c *Config) GetCaseTimeout() time.Duration {
	return parseDuration(c.Verifier.CaseTimeout, 5*time.Second)
}

// GetSearchTimeout returns the web search HTTP timeout.
func (c *Config) GetSearchTimeout() time.Duration {
	return parseDuration(c.Search.Timeout, 30*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{"openrouter", "openai", "gemini"}

// apiKeyEnv names the environment variable holding each provider's key.
var apiKeyEnv = map[string]string{
	"openrouter": "OPENROUTER_API_KEY",
	"openai":     "OPENAI_API_KEY",
	"gemini":     "GEMINI_API_KEY",
}

var configValidate = validator.New()

// Validate validates the configuration.
func (c *Config) Validate() error {
	validProvider := false
	for _, p := range ValidProviders {
		if c.LLM.Provider == p {
			validProvider = true
			break
		}
	}
	if !validProvider {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}

	if c.LLM.APIKey == "" {
		return fmt.Errorf("%s not set in environment or config", apiKeyEnv[c.LLM.Provider])
	}

	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}
