// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research-writer pipeline:
// sections, run state, archived run records, and per-stage configuration.
package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-writer/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// Provider identifies the hosted model API.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderOllama    Provider = "ollama"
)

// AIConfig holds settings for the language model client.
type AIConfig struct {
	// Provider selects the backend: gemini, openai, anthropic, or ollama.
	Provider Provider `json:"provider" yaml:"provider"`

	// Model is the model identifier (e.g. "gemini-2.0-flash-exp").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the model API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the provider endpoint (OpenAI-compatible gateways, local servers).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxTokens bounds each completion (Anthropic requires it; default 4096).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`
}

// SearchConfig holds settings for the web search executor.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the number of results folded into the notes per query (default 5).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// BraveAPIKey enables the Brave Search backend ahead of DuckDuckGo.
	BraveAPIKey string `json:"brave_api_key,omitempty" yaml:"brave_api_key,omitempty"`
}

// ResearchConfig holds settings for the research loop.
type ResearchConfig struct {
	// MaxIterations is the search ceiling for one research pass (default 5).
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`

	// Delay is the blocking pause before each orchestrator and search step,
	// used to stay under the model's requests-per-minute limit (default 15s).
	Delay time.Duration `json:"delay" yaml:"delay"`
}

// WriterConfig holds settings for the parallel section writer.
type WriterConfig struct {
	// Concurrency limits simultaneous section writers. Zero means one per section.
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// Delay is the blocking pause before each section's model call (default 15s).
	Delay time.Duration `json:"delay" yaml:"delay"`
}

// OutputFormat selects an export file type.
type OutputFormat string

const (
	FormatMarkdown OutputFormat = "markdown"
	FormatPDF      OutputFormat = "pdf"
	FormatHTML     OutputFormat = "html"
	FormatManifest OutputFormat = "yaml"
)

// PDFBackend selects how PDFs are rendered.
type PDFBackend string

const (
	PDFBackendFPDF   PDFBackend = "fpdf"
	PDFBackendPandoc PDFBackend = "pandoc"
)

// ExportConfig holds settings for writing the approved report.
type ExportConfig struct {
	// OutputDir is the directory for report files (default ".").
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Formats lists the files to write (default markdown and pdf).
	Formats []OutputFormat `json:"formats" yaml:"formats"`

	// PDFBackend is fpdf (in-process) or pandoc (container).
	PDFBackend PDFBackend `json:"pdf_backend" yaml:"pdf_backend"`

	// PandocImage is the container image used by the pandoc backend.
	PandocImage string `json:"pandoc_image" yaml:"pandoc_image"`

	// SaveProject also writes outline.yaml and numbered section files.
	SaveProject bool `json:"save_project" yaml:"save_project"`
}

// HistoryConfig holds settings for the run archive.
type HistoryConfig struct {
	// Dir contains history.db. Empty disables archiving.
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default number of runs listed (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	AI       AIConfig       `json:"ai" yaml:"ai"`
	Search   SearchConfig   `json:"search" yaml:"search"`
	Research ResearchConfig `json:"research" yaml:"research"`
	Writer   WriterConfig   `json:"writer" yaml:"writer"`
	Export   ExportConfig   `json:"export" yaml:"export"`
	History  HistoryConfig  `json:"history" yaml:"history"`

	// MaxRounds caps approval retries. Zero means unlimited.
	MaxRounds int `json:"max_rounds" yaml:"max_rounds"`
}
