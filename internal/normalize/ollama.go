// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"context"
	"net/http"
	"strings"

	"github.com/pdiddy/trialscope/internal/httputil"
)

// ollamaBase is the default local Ollama server.
var ollamaBase = "http://localhost:11434"

// OllamaGenerator calls a local Ollama server's /api/generate endpoint
// without streaming.
type OllamaGenerator struct {
	Client  *http.Client
	BaseURL string
	Model   string
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// Generate sends the prompt pair and returns the model's reply.
func (g *OllamaGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	base := g.BaseURL
	if base == "" {
		base = ollamaBase
	}
	body := ollamaRequest{Model: g.Model, Prompt: prompt, System: system}

	req, err := httputil.NewJSONRequest(ctx, http.MethodPost, strings.TrimRight(base, "/")+"/api/generate", body, "")
	if err != nil {
		return "", err
	}

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	var out ollamaResponse
	if err := httputil.DoJSON(client, req, "Ollama", &out); err != nil {
		return "", err
	}
	return out.Response, nil
}
