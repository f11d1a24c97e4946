package provider

import (
	"context"
	"net/http"
	"testing"

	"github.com/howard-nolan/studyproxy/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	cfgs := map[string]config.ProviderConfig{
		"openai":    {APIKeyEnv: []string{"OPENAI_API_KEY", "OPENAI_KEY"}, Model: "gpt-4o-mini"},
		"google":    {APIKeyEnv: []string{"GEMINI_API_KEY"}, BaseURL: "http://localhost", Model: "gemini"},
		"anthropic": {APIKey: "explicit", BaseURL: "http://localhost", Model: "claude"},
	}
	lookup := mapLookup(map[string]string{"OPENAI_KEY": "sk-fallback"})

	reg, err := NewRegistry(context.Background(), cfgs, lookup, http.DefaultClient)
	require.NoError(t, err)
	require.Len(t, reg, 3)

	assert.IsType(t, &OpenAIProvider{}, reg["openai"])
	assert.IsType(t, &AnthropicProvider{}, reg["anthropic"])
	assert.IsType(t, &MissingProvider{}, reg["google"])

	assert.NoError(t, reg["openai"].Ready())
	assert.ErrorIs(t, reg["google"].Ready(), ErrNotConfigured)
}

func TestNewRegistry_UnknownProvider(t *testing.T) {
	cfgs := map[string]config.ProviderConfig{"mystery": {APIKey: "k"}}

	_, err := NewRegistry(context.Background(), cfgs, mapLookup(nil), http.DefaultClient)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider in config: "mystery"`)
}
