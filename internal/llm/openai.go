// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/pdiddy/research-writer/pkg/types"
)

// OpenAIModel calls an OpenAI-compatible chat completions endpoint. It
// serves OpenAI itself, Gemini through Google's compatibility layer, and
// local Ollama servers.
type OpenAIModel struct {
	client    openai.Client
	model     string
	maxTokens int
}

// NewOpenAIModel builds a client from cfg. Extra request options are
// appended after the ones derived from cfg.
func NewOpenAIModel(cfg types.AIConfig, opts ...option.RequestOption) *OpenAIModel {
	base := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		base = append(base, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIModel{
		client:    openai.NewClient(append(base, opts...)...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// Complete sends the prompt as a system + user exchange at temperature 0.
func (m *OpenAIModel) Complete(ctx context.Context, prompt Prompt) (string, error) {
	var msgs []openai.ChatCompletionMessageParamUnion
	if prompt.System != "" {
		msgs = append(msgs, openai.SystemMessage(prompt.System))
	}
	msgs = append(msgs, openai.UserMessage(prompt.User))

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(m.model),
		Messages:    msgs,
		Temperature: openai.Float(0),
	}
	// Gemini and Ollama read max_tokens, not max_completion_tokens.
	if m.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(m.maxTokens))
	}
	if prompt.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("calling %s: %w", m.model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("calling %s: %w", m.model, ErrEmptyCompletion)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("calling %s: %w", m.model, ErrEmptyCompletion)
	}
	return content, nil
}
