// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout bounds every single HTTP call. A timeout is reported as a
	// transport error.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// RegistryConfig holds settings for the ClinicalTrials.gov client.
type RegistryConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the API root, e.g. "https://clinicaltrials.gov/api/v2".
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// MaxStudies caps the number of records retrieved per search term.
	MaxStudies int `json:"max_studies" yaml:"max_studies" mapstructure:"max_studies"`

	// RateLimitDelay is awaited between consecutive page fetches and
	// between consecutive search terms.
	RateLimitDelay time.Duration `json:"rate_limit_delay" yaml:"rate_limit_delay" mapstructure:"rate_limit_delay"`

	// ApplyFilters restricts queries to interventional, industry-sponsored
	// trials and enables the completion-date cutoff.
	ApplyFilters bool `json:"apply_filters" yaml:"apply_filters" mapstructure:"apply_filters"`

	// YearsBack sets the completion-date cutoff (now - YearsBack*365 days).
	// Zero disables the cutoff.
	YearsBack int `json:"years_back" yaml:"years_back" mapstructure:"years_back"`
}

// LLMProvider selects the text-generation backend.
type LLMProvider string

const (
	ProviderOllama    LLMProvider = "ollama"
	ProviderAnthropic LLMProvider = "anthropic"
)

// LLMConfig holds settings for LLM-assisted name normalization.
type LLMConfig struct {
	Enabled  bool          `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Provider LLMProvider   `json:"provider" yaml:"provider" mapstructure:"provider"`
	Model    string        `json:"model" yaml:"model" mapstructure:"model"`
	BaseURL  string        `json:"base_url" yaml:"base_url" mapstructure:"base_url"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	APIKey   string        `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxNames is the exclusive upper bound on the number of raw names sent
	// to the model. Larger inputs use the rule-based deduplicator.
	MaxNames int `json:"max_names" yaml:"max_names" mapstructure:"max_names"`
}

// InputConfig locates the disease column in the input spreadsheet.
type InputConfig struct {
	// Column is a spreadsheet column letter such as "O" or "AA".
	Column string `json:"column" yaml:"column" mapstructure:"column"`

	// StartRow is the 1-based first data row. The header is the row above.
	StartRow int `json:"start_row" yaml:"start_row" mapstructure:"start_row"`
}

// OutputFormat names one artifact the run writes.
type OutputFormat string

const (
	OutputJSON     OutputFormat = "json"
	OutputYAML     OutputFormat = "yaml"
	OutputSQLite   OutputFormat = "sqlite"
	OutputCSV      OutputFormat = "csv"
	OutputMarkdown OutputFormat = "markdown"
	OutputHTML     OutputFormat = "html"
	OutputPDF      OutputFormat = "pdf"
)

var knownOutputFormats = map[OutputFormat]bool{
	OutputJSON: true, OutputYAML: true, OutputSQLite: true, OutputCSV: true,
	OutputMarkdown: true, OutputHTML: true, OutputPDF: true,
}

// OutputConfig controls where and how artifacts are written.
type OutputConfig struct {
	Dir      string         `json:"dir" yaml:"dir" mapstructure:"dir"`
	Basename string         `json:"basename" yaml:"basename" mapstructure:"basename"`
	Formats  []OutputFormat `json:"formats" yaml:"formats" mapstructure:"formats"`

	// ChromePath points at a Chromium binary for PDF output. Empty means
	// probe the usual install locations.
	ChromePath string `json:"chrome_path,omitempty" yaml:"chrome_path,omitempty" mapstructure:"chrome_path"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
	File   string `json:"file" yaml:"file" mapstructure:"file"`
}

// MetricsConfig controls the Prometheus textfile artifact.
type MetricsConfig struct {
	File string `json:"file" yaml:"file" mapstructure:"file"`
}

// Config groups all settings for a run.
type Config struct {
	Registry RegistryConfig `json:"registry" yaml:"registry" mapstructure:"registry"`
	LLM      LLMConfig      `json:"llm" yaml:"llm" mapstructure:"llm"`
	Input    InputConfig    `json:"input" yaml:"input" mapstructure:"input"`
	Output   OutputConfig   `json:"output" yaml:"output" mapstructure:"output"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging" mapstructure:"logging"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
}

// Validate reports the first configuration value that would make a run
// fail. It is called before any network activity.
func (c Config) Validate() error {
	if c.Registry.BaseURL == "" {
		return fmt.Errorf("registry.base_url is required")
	}
	if c.Registry.MaxStudies <= 0 {
		return fmt.Errorf("registry.max_studies must be positive, got %d", c.Registry.MaxStudies)
	}
	if c.Registry.YearsBack < 0 {
		return fmt.Errorf("registry.years_back must not be negative, got %d", c.Registry.YearsBack)
	}
	if c.Registry.Timeout <= 0 {
		return fmt.Errorf("registry.timeout must be positive")
	}
	if c.LLM.Enabled {
		switch c.LLM.Provider {
		case ProviderOllama, ProviderAnthropic:
		default:
			return fmt.Errorf("unsupported llm.provider %q: use ollama or anthropic", c.LLM.Provider)
		}
	}
	for _, f := range c.Output.Formats {
		if !knownOutputFormats[f] {
			return fmt.Errorf("unsupported output format %q", f)
		}
	}
	return nil
}

// Wants reports whether format f is among the configured outputs.
func (o OutputConfig) Wants(f OutputFormat) bool {
	for _, have := range o.Formats {
		if have == f {
			return true
		}
	}
	return false
}
