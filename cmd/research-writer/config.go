// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/pdiddy/research-writer/internal/export"
	"github.com/pdiddy/research-writer/internal/llm"
	"github.com/pdiddy/research-writer/internal/secrets"
	"github.com/pdiddy/research-writer/pkg/types"
)

// Config keys. Each is settable from research-writer.yaml, from
// RESEARCH_WRITER_<KEY> (dots as underscores), or from the bound flag.
const (
	keyProvider      = "ai.provider"
	keyModel         = "ai.model"
	keyBaseURL       = "ai.base_url"
	keyAPIKey        = "ai.api_key"
	keyMaxTokens     = "ai.max_tokens"
	keyResearchDelay = "research.delay"
	keyMaxIterations = "research.max_iterations"
	keyWriterDelay   = "writer.delay"
	keyConcurrency   = "writer.concurrency"
	keyBraveKey      = "search.brave_api_key"
	keySearchResults = "search.max_results"
	keySearchTimeout = "search.timeout"
	keyUserAgent     = "search.user_agent"
	keyOutputDir     = "export.output_dir"
	keyFormats       = "export.formats"
	keyPDFBackend    = "export.pdf_backend"
	keyPandocImage   = "export.pandoc_image"
	keySaveProject   = "export.save_project"
	keyHistoryDir    = "history.dir"
	keyHistoryLimit  = "history.max_results"
	keyMaxRounds     = "max_rounds"
)

// pipelineConfig assembles the typed configuration from v. API keys are
// resolved separately by resolveKeys.
func pipelineConfig(v *viper.Viper) (types.PipelineConfig, error) {
	formats, err := export.ParseFormats(v.GetStringSlice(keyFormats))
	if err != nil {
		return types.PipelineConfig{}, err
	}

	backend, err := parsePDFBackend(v.GetString(keyPDFBackend))
	if err != nil {
		return types.PipelineConfig{}, err
	}

	historyDir := v.GetString(keyHistoryDir)
	if historyDir == "" {
		historyDir = defaultHistoryDir()
	}

	return types.PipelineConfig{
		AI: llm.WithDefaults(types.AIConfig{
			Provider:  types.Provider(v.GetString(keyProvider)),
			Model:     v.GetString(keyModel),
			APIKey:    v.GetString(keyAPIKey),
			BaseURL:   v.GetString(keyBaseURL),
			MaxTokens: v.GetInt(keyMaxTokens),
		}),
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   v.GetDuration(keySearchTimeout),
				UserAgent: v.GetString(keyUserAgent),
			},
			MaxResults:  v.GetInt(keySearchResults),
			BraveAPIKey: v.GetString(keyBraveKey),
		},
		Research: types.ResearchConfig{
			MaxIterations: v.GetInt(keyMaxIterations),
			Delay:         v.GetDuration(keyResearchDelay),
		},
		Writer: types.WriterConfig{
			Concurrency: v.GetInt(keyConcurrency),
			Delay:       v.GetDuration(keyWriterDelay),
		},
		Export: types.ExportConfig{
			OutputDir:   v.GetString(keyOutputDir),
			Formats:     formats,
			PDFBackend:  backend,
			PandocImage: v.GetString(keyPandocImage),
			SaveProject: v.GetBool(keySaveProject),
		},
		History: types.HistoryConfig{
			Dir:        historyDir,
			MaxResults: v.GetInt(keyHistoryLimit),
		},
		MaxRounds: v.GetInt(keyMaxRounds),
	}, nil
}

func parsePDFBackend(name string) (types.PDFBackend, error) {
	backend := types.PDFBackend(strings.ToLower(strings.TrimSpace(name)))
	switch backend {
	case "", types.PDFBackendFPDF, types.PDFBackendPandoc:
		return backend, nil
	}
	return "", fmt.Errorf("unknown PDF backend %q: use fpdf or pandoc", name)
}

// setDefaults registers defaults for keys that have no flag.
func setDefaults(v *viper.Viper) {
	v.SetDefault(keySearchResults, 5)
	v.SetDefault(keySearchTimeout, 30*time.Second)
	v.SetDefault(keyUserAgent, "research-writer/"+version)
	v.SetDefault(keyPandocImage, export.DefaultPandocImage)
	v.SetDefault(keyHistoryLimit, 20)
}

func defaultHistoryDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".research-writer"
	}
	return filepath.Join(home, ".config", "research-writer")
}

// providerKeyFile names the .secrets/ file holding the key for p.
func providerKeyFile(p types.Provider) string {
	switch p {
	case types.ProviderOpenAI:
		return secrets.OpenAIAPIKey
	case types.ProviderAnthropic:
		return secrets.AnthropicAPIKey
	case types.ProviderGemini:
		return secrets.GoogleAPIKey
	}
	return ""
}

// secretPrompt reads a key without echo. It is a variable so tests can
// replace it.
var secretPrompt = func(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("%s is not set and stdin is not a terminal", label)
	}
	fmt.Fprintf(os.Stderr, "%s not found in environment variables.\nPlease enter your %s: ", label, label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", label, err)
	}
	return strings.TrimSpace(string(b)), nil
}

// resolveKeys fills the model and search keys. The model key comes from the
// flag or config, then the provider's environment variable, then .secrets/,
// then a hidden prompt. Ollama needs none.
func resolveKeys(cfg *types.PipelineConfig, loaded map[string]string) error {
	if cfg.Search.BraveAPIKey == "" {
		cfg.Search.BraveAPIKey = secrets.Lookup(loaded, secrets.BraveAPIKey)
	}

	if cfg.AI.APIKey != "" || cfg.AI.Provider == types.ProviderOllama {
		return nil
	}
	file := providerKeyFile(cfg.AI.Provider)
	if file == "" {
		return nil
	}
	if key := secrets.Lookup(loaded, file); key != "" {
		cfg.AI.APIKey = key
		return nil
	}
	key, err := secretPrompt(secrets.EnvName(file))
	if err != nil {
		return err
	}
	cfg.AI.APIKey = key
	return nil
}
