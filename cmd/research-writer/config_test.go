// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-writer/internal/history"
	"github.com/pdiddy/research-writer/internal/secrets"
	"github.com/pdiddy/research-writer/pkg/types"
)

func TestPipelineConfigDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set(keyHistoryDir, "/tmp/h")

	cfg, err := pipelineConfig(v)
	require.NoError(t, err)
	assert.Equal(t, types.ProviderGemini, cfg.AI.Provider)
	assert.Equal(t, "gemini-2.0-flash-exp", cfg.AI.Model)
	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.Equal(t, 30*time.Second, cfg.Search.Timeout)
	assert.Equal(t, "/tmp/h", cfg.History.Dir)
	assert.Empty(t, cfg.Export.Formats)
}

func TestPipelineConfigValues(t *testing.T) {
	v := viper.New()
	v.Set(keyProvider, "Anthropic")
	v.Set(keyResearchDelay, "2s")
	v.Set(keyMaxIterations, 3)
	v.Set(keyFormats, "markdown,html")
	v.Set(keyPDFBackend, "pandoc")
	v.Set(keyMaxRounds, 4)

	cfg, err := pipelineConfig(v)
	require.NoError(t, err)
	assert.Equal(t, types.ProviderAnthropic, cfg.AI.Provider)
	assert.Equal(t, 2*time.Second, cfg.Research.Delay)
	assert.Equal(t, 3, cfg.Research.MaxIterations)
	assert.Equal(t, []types.OutputFormat{types.FormatMarkdown, types.FormatHTML}, cfg.Export.Formats)
	assert.Equal(t, types.PDFBackendPandoc, cfg.Export.PDFBackend)
	assert.Equal(t, 4, cfg.MaxRounds)
}

func TestPipelineConfigRejectsBadValues(t *testing.T) {
	v := viper.New()
	v.Set(keyPDFBackend, "latex")
	_, err := pipelineConfig(v)
	assert.ErrorContains(t, err, "unknown PDF backend")

	v = viper.New()
	v.Set(keyFormats, []string{"docx"})
	_, err = pipelineConfig(v)
	assert.ErrorContains(t, err, "unknown output format")
}

func stubPrompt(t *testing.T, key string, err error) *[]string {
	t.Helper()
	var asked []string
	orig := secretPrompt
	secretPrompt = func(label string) (string, error) {
		asked = append(asked, label)
		return key, err
	}
	t.Cleanup(func() { secretPrompt = orig })
	return &asked
}

func TestResolveKeys(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("BRAVE_API_KEY", "")

	t.Run("explicit key wins", func(t *testing.T) {
		asked := stubPrompt(t, "typed", nil)
		cfg := types.PipelineConfig{AI: types.AIConfig{Provider: types.ProviderGemini, APIKey: "flag"}}
		require.NoError(t, resolveKeys(&cfg, map[string]string{secrets.GoogleAPIKey: "file"}))
		assert.Equal(t, "flag", cfg.AI.APIKey)
		assert.Empty(t, *asked)
	})

	t.Run("environment before secrets file", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "env")
		stubPrompt(t, "typed", nil)
		cfg := types.PipelineConfig{AI: types.AIConfig{Provider: types.ProviderOpenAI}}
		require.NoError(t, resolveKeys(&cfg, map[string]string{secrets.OpenAIAPIKey: "file"}))
		assert.Equal(t, "env", cfg.AI.APIKey)
	})

	t.Run("secrets file", func(t *testing.T) {
		stubPrompt(t, "typed", nil)
		cfg := types.PipelineConfig{AI: types.AIConfig{Provider: types.ProviderAnthropic}}
		loaded := map[string]string{secrets.AnthropicAPIKey: "file", secrets.BraveAPIKey: "brave"}
		require.NoError(t, resolveKeys(&cfg, loaded))
		assert.Equal(t, "file", cfg.AI.APIKey)
		assert.Equal(t, "brave", cfg.Search.BraveAPIKey)
	})

	t.Run("prompt as last resort", func(t *testing.T) {
		asked := stubPrompt(t, "typed", nil)
		cfg := types.PipelineConfig{AI: types.AIConfig{Provider: types.ProviderGemini}}
		require.NoError(t, resolveKeys(&cfg, nil))
		assert.Equal(t, "typed", cfg.AI.APIKey)
		assert.Equal(t, []string{"GOOGLE_API_KEY"}, *asked)
	})

	t.Run("prompt failure", func(t *testing.T) {
		stubPrompt(t, "", errors.New("not a terminal"))
		cfg := types.PipelineConfig{AI: types.AIConfig{Provider: types.ProviderGemini}}
		assert.Error(t, resolveKeys(&cfg, nil))
	})

	t.Run("ollama needs no key", func(t *testing.T) {
		asked := stubPrompt(t, "typed", nil)
		cfg := types.PipelineConfig{AI: types.AIConfig{Provider: types.ProviderOllama}}
		require.NoError(t, resolveKeys(&cfg, nil))
		assert.Empty(t, cfg.AI.APIKey)
		assert.Empty(t, *asked)
	})
}

func TestWriteSummaries(t *testing.T) {
	var buf bytes.Buffer
	writeSummaries(&buf, nil)
	assert.Equal(t, "No runs found.\n", buf.String())

	buf.Reset()
	writeSummaries(&buf, []history.Summary{
		{ID: 7, Topic: "A very long topic name that will certainly be truncated here", Rounds: 2, Approved: true, Model: "gemini:x"},
	})
	assert.Contains(t, buf.String(), "A very long topic name that will cert...")
	assert.Contains(t, buf.String(), "yes")
	assert.Contains(t, buf.String(), "1 runs")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 40))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))

	got := truncate("Überblick über nebenläufige Programmierung in Go für Einsteiger", 40)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 40, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
}
