// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/pdiddy/research-writer/pkg/types"
)

// jsonInstruction is appended to the system prompt when structured output
// is requested; the Messages API has no JSON response mode.
const jsonInstruction = "Respond with a single JSON object and no other text."

// AnthropicModel calls the Claude Messages API.
type AnthropicModel struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicModel builds a client from cfg. Extra request options are
// appended after the ones derived from cfg.
func NewAnthropicModel(cfg types.AIConfig, opts ...option.RequestOption) *AnthropicModel {
	base := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		base = append(base, option.WithBaseURL(cfg.BaseURL))
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &AnthropicModel{
		client:    anthropic.NewClient(append(base, opts...)...),
		model:     cfg.Model,
		maxTokens: int64(maxTokens),
	}
}

// Complete sends the prompt at temperature 0 and joins the text blocks of the reply.
func (m *AnthropicModel) Complete(ctx context.Context, prompt Prompt) (string, error) {
	system := prompt.System
	if prompt.JSON {
		system = strings.TrimSpace(system + "\n" + jsonInstruction)
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(m.model),
		MaxTokens:   m.maxTokens,
		Temperature: anthropic.Float(0),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.User)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("calling %s: %w", m.model, err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type != "text" {
			continue
		}
		b.WriteString(block.Text)
	}
	content := strings.TrimSpace(b.String())
	if content == "" {
		return "", fmt.Errorf("calling %s: %w", m.model, ErrEmptyCompletion)
	}
	return content, nil
}
