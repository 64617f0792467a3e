// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/pdiddy/trialscope/pkg/types"
)

const (
	defaultAnthropicModel = "claude-sonnet-4-20250514"
	maxReplyTokens        = 4096
)

// messager is the slice of the Anthropic client the generator needs.
type messager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicGenerator calls the Anthropic Messages API.
type AnthropicGenerator struct {
	messages messager
	model    string
}

// NewAnthropicGenerator builds a generator for model authenticated with
// apiKey. An empty model selects a default Claude model.
func NewAnthropicGenerator(apiKey, model string, client *http.Client) *AnthropicGenerator {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if client != nil {
		opts = append(opts, option.WithHTTPClient(client))
	}
	c := anthropic.NewClient(opts...)
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicGenerator{messages: &c.Messages, model: model}
}

// Generate sends the prompt pair at temperature zero and returns the
// concatenated text blocks of the reply.
func (g *AnthropicGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	resp, err := g.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(g.model),
		MaxTokens:   maxReplyTokens,
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}

// NewGenerator returns the Generator selected by cfg.Provider, with
// cfg.Timeout bounding each call.
func NewGenerator(cfg types.LLMConfig) (Generator, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	switch cfg.Provider {
	case types.ProviderOllama, "":
		return &OllamaGenerator{Client: client, BaseURL: cfg.BaseURL, Model: cfg.Model}, nil
	case types.ProviderAnthropic:
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, fmt.Errorf("llm.api_key (or ANTHROPIC_API_KEY) is required for the anthropic provider")
		}
		return NewAnthropicGenerator(cfg.APIKey, cfg.Model, client), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
