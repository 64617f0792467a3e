// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/trialscope/internal/secrets"
	"github.com/pdiddy/trialscope/pkg/types"
)

const secretsDir = ".secrets"

func setDefaults() {
	viper.SetDefault("registry.base_url", "https://clinicaltrials.gov/api/v2")
	viper.SetDefault("registry.max_studies", 100)
	viper.SetDefault("registry.rate_limit_delay", time.Second)
	viper.SetDefault("registry.timeout", 30*time.Second)
	viper.SetDefault("registry.apply_filters", true)
	viper.SetDefault("registry.years_back", 10)
	viper.SetDefault("registry.user_agent", "trialscope/"+version)

	viper.SetDefault("llm.enabled", true)
	viper.SetDefault("llm.provider", string(types.ProviderOllama))
	viper.SetDefault("llm.model", "qwen3:14b")
	viper.SetDefault("llm.base_url", "http://localhost:11434")
	viper.SetDefault("llm.timeout", 300*time.Second)
	viper.SetDefault("llm.max_names", 50)

	viper.SetDefault("input.column", "O")
	viper.SetDefault("input.start_row", 2)

	viper.SetDefault("output.dir", "output")
	viper.SetDefault("output.basename", "clinical_trials")
	viper.SetDefault("output.formats", []string{"json", "sqlite", "csv", "markdown", "html"})

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
}

// loadConfig decodes the merged configuration, fills credentials from the
// secrets directory and the conventional ANTHROPIC_API_KEY variable, and
// validates the result.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}

	s, err := secrets.Load(secretsDir, logger)
	if err != nil {
		return cfg, err
	}
	s.Apply(&cfg)
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.LLM.Provider == types.ProviderAnthropic && cfg.LLM.Model == "qwen3:14b" {
		// The Ollama default model means nothing to Anthropic.
		cfg.LLM.Model = ""
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
