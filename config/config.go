// Package config loads engine settings from the environment. A local .env
// file is honored when present, so examples and development setups work
// without exporting anything. Setup-time validation fails loudly; nothing
// here is recovered from at runtime.
package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/joho/godotenv"

	"github.com/mafiarena/mafiarena/actor"
	"github.com/mafiarena/mafiarena/model"
	"github.com/mafiarena/mafiarena/model/anthropic"
	"github.com/mafiarena/mafiarena/model/openai"
)

// Settings are the environment-provided engine defaults.
type Settings struct {
	AnthropicAPIKey string
	OpenAIAPIKey    string

	// DefaultAnthropicModel and DefaultOpenAIModel are used when a player
	// config names a provider but no model.
	DefaultAnthropicModel string
	DefaultOpenAIModel    string

	DecisionTimeout time.Duration
	MaxRetries      int

	// DatabasePath enables the sqlite store when non-empty.
	DatabasePath string

	LogLevel  string
	LogFormat string
}

// Load reads settings from the environment, after loading a .env file if one
// exists in the working directory.
func Load() (*Settings, error) {
	// Missing .env is fine; explicit environment always wins.
	_ = godotenv.Load()

	s := &Settings{
		AnthropicAPIKey:       os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
		DefaultAnthropicModel: envOr("MAFIARENA_ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		DefaultOpenAIModel:    envOr("MAFIARENA_OPENAI_MODEL", "gpt-4o"),
		DecisionTimeout:       45 * time.Second,
		MaxRetries:            2,
		DatabasePath:          os.Getenv("MAFIARENA_DB_PATH"),
		LogLevel:              envOr("MAFIARENA_LOG_LEVEL", "info"),
		LogFormat:             envOr("MAFIARENA_LOG_FORMAT", "json"),
	}

	if v := os.Getenv("MAFIARENA_DECISION_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("config: MAFIARENA_DECISION_TIMEOUT: %w", err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("config: MAFIARENA_DECISION_TIMEOUT must be positive, got %s", d)
		}
		s.DecisionTimeout = d
	}

	if v := os.Getenv("MAFIARENA_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: MAFIARENA_MAX_RETRIES: %w", err)
		}
		if n < 0 {
			return nil, fmt.Errorf("config: MAFIARENA_MAX_RETRIES must not be negative, got %d", n)
		}
		s.MaxRetries = n
	}

	return s, nil
}

// ModelResolver builds the provider dispatch used by the actor gateway and
// the reflection pipeline. Models are constructed once per provider/name
// pair and cached; "mock" resolves to a shared MockModel for dry runs.
func (s *Settings) ModelResolver() actor.ModelResolver {
	var mu sync.Mutex
	cache := map[string]model.Model{}

	return func(provider, name string) (model.Model, error) {
		mu.Lock()
		defer mu.Unlock()

		key := provider + "/" + name
		if m, ok := cache[key]; ok {
			return m, nil
		}

		var m model.Model
		switch provider {
		case "anthropic":
			if s.AnthropicAPIKey == "" {
				return nil, fmt.Errorf("config: ANTHROPIC_API_KEY is not set")
			}
			id := s.DefaultAnthropicModel
			if name != "" {
				id = name
			}
			m = anthropic.NewModel(func(o *anthropic.Options) {
				o.APIKey = s.AnthropicAPIKey
				o.Model = anthropicsdk.Model(id)
			})
		case "openai":
			if s.OpenAIAPIKey == "" {
				return nil, fmt.Errorf("config: OPENAI_API_KEY is not set")
			}
			id := s.DefaultOpenAIModel
			if name != "" {
				id = name
			}
			m = openai.NewModel(func(o *openai.Options) {
				o.APIKey = s.OpenAIAPIKey
				o.Model = id
			})
		case "mock":
			m = model.NewMockModel(name)
		default:
			return nil, fmt.Errorf("config: unknown model provider %q", provider)
		}

		cache[key] = m
		return m, nil
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
