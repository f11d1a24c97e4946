package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"github.com/howard-nolan/studyproxy/internal/config"
)

// factory builds one provider from its resolved key and config block.
type factory func(ctx context.Context, apiKey string, cfg config.ProviderConfig, client *http.Client) (Provider, error)

// constructors maps provider names (from config) to the function that
// creates them. Adding a provider is one entry here.
var constructors = map[string]factory{
	"openai": func(_ context.Context, apiKey string, cfg config.ProviderConfig, client *http.Client) (Provider, error) {
		return NewOpenAIProvider(apiKey, cfg.BaseURL, cfg.Model, client), nil
	},
	"google": func(_ context.Context, apiKey string, cfg config.ProviderConfig, client *http.Client) (Provider, error) {
		return NewGoogleProvider(apiKey, cfg.BaseURL, cfg.Model, client), nil
	},
	"genai": func(ctx context.Context, apiKey string, cfg config.ProviderConfig, client *http.Client) (Provider, error) {
		return NewGenAIProvider(ctx, apiKey, cfg.BaseURL, cfg.Model, client)
	},
	"anthropic": func(_ context.Context, apiKey string, cfg config.ProviderConfig, client *http.Client) (Provider, error) {
		return NewAnthropicProvider(apiKey, cfg.BaseURL, cfg.Model, client), nil
	},
}

// NewRegistry builds every configured provider once, at startup. A provider
// whose credential cannot be resolved is registered as Missing so the server
// still boots and its endpoints answer with a configuration error.
func NewRegistry(ctx context.Context, cfgs map[string]config.ProviderConfig, lookup LookupFunc, client *http.Client) (map[string]Provider, error) {
	registry := make(map[string]Provider, len(cfgs))

	// Sorted for stable startup logs.
	names := make([]string, 0, len(cfgs))
	for name := range cfgs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cfg := cfgs[name]

		build, ok := constructors[name]
		if !ok {
			return nil, fmt.Errorf("unknown provider in config: %q", name)
		}

		apiKey, ok := ResolveAPIKey(cfg.APIKey, cfg.APIKeyEnv, lookup)
		if !ok {
			slog.Warn("no credential for provider, endpoints using it will fail",
				"provider", name,
				"env", cfg.APIKeyEnv)
			registry[name] = Missing(name)
			continue
		}

		p, err := build(ctx, apiKey, cfg, client)
		if err != nil {
			return nil, fmt.Errorf("building provider %q: %w", name, err)
		}
		registry[name] = p
		slog.Info("registered provider", "provider", name, "model", cfg.Model)
	}

	return registry, nil
}
