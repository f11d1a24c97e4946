// Package config handles loading and validating studyproxy configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix is the prefix for environment variables that override config
// values, e.g. STUDYPROXY_SERVER_PORT -> server.port.
const envPrefix = "STUDYPROXY_"

// Config is the top-level configuration for the studyproxy service.
type Config struct {
	Server    ServerConfig              `koanf:"server"`
	Providers map[string]ProviderConfig `koanf:"providers"`
	Endpoints EndpointConfig            `koanf:"endpoints"`
	Backend   BackendConfig             `koanf:"backend"`
	Bypass    BypassConfig              `koanf:"bypass"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	WorkflowTimeout time.Duration `koanf:"workflow_timeout"`
	LogLevel        string        `koanf:"log_level"`
}

// ProviderConfig holds the settings for a single LLM provider.
//
// APIKey wins when it is set (after ${VAR} expansion). Otherwise the
// variables in APIKeyEnv are tried in order and the first non-empty one is
// used.
type ProviderConfig struct {
	APIKey    string   `koanf:"api_key"`
	APIKeyEnv []string `koanf:"api_key_env"`
	BaseURL   string   `koanf:"base_url"`
	Model     string   `koanf:"model"`
}

// EndpointConfig names the provider that backs each /api endpoint. Values
// are keys of Config.Providers.
type EndpointConfig struct {
	Ask            string `koanf:"ask"`
	AskGemini      string `koanf:"ask_gemini"`
	Study          string `koanf:"study"`
	Review         string `koanf:"review"`
	ReviewWorkflow string `koanf:"review_workflow"`
}

// BackendConfig points at the hosted auth/database service.
type BackendConfig struct {
	DatabaseURL string `koanf:"database_url"`
	JWTSecret   string `koanf:"jwt_secret"`
	JWTAudience string `koanf:"jwt_audience"`
}

// BypassConfig holds the reserved questions that skip the upstream call and
// the fixed answer returned for them. Matching is exact after trimming.
type BypassConfig struct {
	Phrases []string `koanf:"phrases"`
	Answer  string   `koanf:"answer"`
}

// defaults are applied before the YAML file, so anything the file or the
// environment sets wins.
var defaults = map[string]any{
	"server.port":             8080,
	"server.read_timeout":     "10s",
	"server.write_timeout":    "75s",
	"server.workflow_timeout": "60s",
	"server.log_level":        "info",

	"providers.openai.api_key_env": []string{"OPENAI_API_KEY", "OPENAI_KEY"},
	"providers.openai.base_url":    "https://api.openai.com/v1/",
	"providers.openai.model":       "gpt-4o-mini",

	"providers.google.api_key_env": []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "GOOGLE_GENERATIVE_AI_API_KEY"},
	"providers.google.base_url":    "https://generativelanguage.googleapis.com/v1beta",
	"providers.google.model":       "gemini-2.0-flash",

	"providers.genai.api_key_env": []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "GOOGLE_GENERATIVE_AI_API_KEY"},
	"providers.genai.model":       "gemini-2.0-flash",

	"endpoints.ask":             "openai",
	"endpoints.ask_gemini":      "google",
	"endpoints.study":           "genai",
	"endpoints.review":          "openai",
	"endpoints.review_workflow": "openai",

	"backend.database_url": "${SUPABASE_DB_URL}",
	"backend.jwt_secret":   "${SUPABASE_JWT_SECRET}",
	"backend.jwt_audience": "authenticated",
}

// Load reads configuration from a YAML file, layers environment variable
// overrides on top, and returns a fully populated Config. A missing file is
// not an error: defaults plus environment are enough to boot.
func Load(path string) (*Config, error) {
	// Load .env file into the process environment (ignored if not present).
	_ = godotenv.Load()

	k := koanf.New(".")

	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("setting default %s: %w", key, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("loading config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// STUDYPROXY_SERVER_PORT -> server.port
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	for name, p := range cfg.Providers {
		p.APIKey = expand(p.APIKey)
		cfg.Providers[name] = p
	}
	cfg.Backend.DatabaseURL = expand(cfg.Backend.DatabaseURL)
	cfg.Backend.JWTSecret = expand(cfg.Backend.JWTSecret)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envAliases maps env var suffixes whose koanf keys contain underscores.
// The generic rule turns every "_" into a ".", which would split them.
var envAliases = map[string]string{
	"server_read_timeout":       "server.read_timeout",
	"server_write_timeout":      "server.write_timeout",
	"server_workflow_timeout":   "server.workflow_timeout",
	"server_log_level":          "server.log_level",
	"endpoints_ask_gemini":      "endpoints.ask_gemini",
	"endpoints_review_workflow": "endpoints.review_workflow",
	"backend_database_url":      "backend.database_url",
	"backend_jwt_secret":        "backend.jwt_secret",
	"backend_jwt_audience":      "backend.jwt_audience",
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	if alias, ok := envAliases[key]; ok {
		return alias
	}
	return strings.ReplaceAll(key, "_", ".")
}

// expand resolves a whole-value ${VAR_NAME} placeholder. Anything else is
// returned as-is.
func expand(v string) string {
	if strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}") {
		return os.Getenv(v[2 : len(v)-1])
	}
	return v
}

// validate catches wiring mistakes that would otherwise surface as 500s on
// every request: an endpoint bound to a provider that has no config block.
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}

	bindings := map[string]string{
		"ask":             c.Endpoints.Ask,
		"ask_gemini":      c.Endpoints.AskGemini,
		"study":           c.Endpoints.Study,
		"review":          c.Endpoints.Review,
		"review_workflow": c.Endpoints.ReviewWorkflow,
	}
	for endpoint, name := range bindings {
		if _, ok := c.Providers[name]; !ok {
			return fmt.Errorf("endpoints.%s refers to unknown provider %q", endpoint, name)
		}
	}

	return nil
}
