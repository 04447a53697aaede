package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides_LLM(t *testing.T) {
	t.Run("OPENROUTER_API_KEY fills default provider", func(t *testing.T) {
		t.Setenv("SMITH_PROVIDER", "")
		t.Setenv("OPENROUTER_API_KEY", "or-key")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "or-key", cfg.LLM.APIKey)
		assert.Equal(t, "openrouter", cfg.LLM.Provider)
	})

	t.Run("SMITH_PROVIDER selects the matching key", func(t *testing.T) {
		t.Setenv("SMITH_PROVIDER", "gemini")
		t.Setenv("OPENROUTER_API_KEY", "or-key")
		t.Setenv("GEMINI_API_KEY", "gem-key")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "gemini", cfg.LLM.Provider)
		assert.Equal(t, "gem-key", cfg.LLM.APIKey)
	})

	t.Run("OPENAI_API_KEY is ignored for openrouter", func(t *testing.T) {
		t.Setenv("SMITH_PROVIDER", "")
		t.Setenv("OPENROUTER_API_KEY", "")
		t.Setenv("OPENAI_API_KEY", "oa-key")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Empty(t, cfg.LLM.APIKey)
		require.Error(t, cfg.Validate())
		assert.Contains(t, cfg.Validate().Error(), "OPENROUTER_API_KEY")
	})
}

func TestEnvOverrides_ModelsAndPaths(t *testing.T) {
	t.Setenv("SMITH_MODEL_CODING", "coder-x")
	t.Setenv("SMITH_MODEL_REASONING", "thinker-y")
	t.Setenv("SMITH_MODEL_GENERAL", "")
	t.Setenv("SMITH_PROMPTS_DIR", "/tmp/prompts")
	t.Setenv("SMITH_BASE_URL", "http://localhost:11434/v1")

	cfg := DefaultConfig()
	general := cfg.Models.General
	cfg.applyEnvOverrides()

	assert.Equal(t, "coder-x", cfg.Models.Coding)
	assert.Equal(t, "thinker-y", cfg.Models.Reasoning)
	assert.Equal(t, general, cfg.Models.General)
	assert.Equal(t, "/tmp/prompts", cfg.Prompts.Dir)
	assert.Equal(t, "http://localhost:11434/v1", cfg.LLM.BaseURL)
}
