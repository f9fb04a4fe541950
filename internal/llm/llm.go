// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm wraps the hosted language model behind a single-call interface.
// Every pipeline step makes at most one Complete call per invocation.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/research-writer/pkg/types"
)

// ErrEmptyCompletion is returned when the model answers with no text.
var ErrEmptyCompletion = errors.New("model returned empty content")

// Prompt is one system + user exchange sent to the model.
type Prompt struct {
	System string
	User   string

	// JSON asks the provider for a single JSON object when it supports a
	// structured response mode.
	JSON bool
}

// Model abstracts the chat-model API so tests can supply a fake.
type Model interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// Func adapts a plain function to the Model interface.
type Func func(ctx context.Context, prompt Prompt) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, prompt Prompt) (string, error) {
	return f(ctx, prompt)
}

const (
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	ollamaBaseURL = "http://localhost:11434/v1/"

	defaultMaxTokens = 4096
)

var defaultModels = map[types.Provider]string{
	types.ProviderGemini:    "gemini-2.0-flash-exp",
	types.ProviderOpenAI:    "gpt-4o-mini",
	types.ProviderAnthropic: "claude-sonnet-4-5-20250929",
	types.ProviderOllama:    "llama3.1",
}

// WithDefaults fills the provider, model, base URL, and token limit when
// they are unset. An empty provider means gemini.
func WithDefaults(cfg types.AIConfig) types.AIConfig {
	if cfg.Provider == "" {
		cfg.Provider = types.ProviderGemini
	}
	cfg.Provider = types.Provider(strings.ToLower(string(cfg.Provider)))
	if cfg.Model == "" {
		cfg.Model = defaultModels[cfg.Provider]
	}
	if cfg.BaseURL == "" {
		switch cfg.Provider {
		case types.ProviderGemini:
			cfg.BaseURL = geminiBaseURL
		case types.ProviderOllama:
			cfg.BaseURL = ollamaBaseURL
		}
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	return cfg
}

// Resolve builds the Model for cfg after applying defaults. Every provider
// except ollama requires an API key.
func Resolve(cfg types.AIConfig) (Model, error) {
	cfg = WithDefaults(cfg)

	switch cfg.Provider {
	case types.ProviderGemini, types.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s provider requires an API key", cfg.Provider)
		}
		return NewOpenAIModel(cfg), nil
	case types.ProviderOllama:
		if cfg.APIKey == "" {
			cfg.APIKey = "ollama"
		}
		return NewOpenAIModel(cfg), nil
	case types.ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s provider requires an API key", cfg.Provider)
		}
		return NewAnthropicModel(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q: use gemini, openai, anthropic, or ollama", cfg.Provider)
	}
}

// Label returns "provider:model" for progress output and run records.
func Label(cfg types.AIConfig) string {
	cfg = WithDefaults(cfg)
	return string(cfg.Provider) + ":" + cfg.Model
}
