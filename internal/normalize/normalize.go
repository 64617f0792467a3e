// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize turns raw disease names into registry search terms with
// the help of a text-generation model. The model is asked for a
// tab-separated table of original and improved names; whatever it returns
// is parsed line by line and anything unusable is skipped. When the model
// fails or yields nothing usable, the rule-based deduplicator takes over.
package normalize

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pdiddy/trialscope/internal/metrics"
	"github.com/pdiddy/trialscope/internal/terms"
	"github.com/pdiddy/trialscope/pkg/types"
)

// Generator sends one system/user prompt pair to a text-generation model
// and returns its raw text reply. Implementations exist for Ollama and the
// Anthropic Messages API; tests supply a stub.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Normalizer maps raw names to search terms through a Generator.
type Normalizer struct {
	Generator Generator
	Log       *slog.Logger
	Metrics   *metrics.Recorder
}

// Normalize returns the search terms for names. It never fails: a
// generator error or a reply with no usable table line falls back to
// terms.Deduplicate over the pre-filtered names, with an empty mapping and
// UsedLLM false.
func (n *Normalizer) Normalize(ctx context.Context, names []string) types.Normalization {
	log := n.logger()

	unique := Prefilter(names)
	log.Info("pre-filtered names", "input", len(names), "unique", len(unique))
	if len(unique) == 0 {
		return types.Normalization{Terms: []string{}, Mapping: []types.TermMapping{}}
	}
	if n.Generator == nil {
		return n.fallback(unique)
	}

	prompt, err := buildPrompt(unique)
	if err != nil {
		log.Warn("falling back to rule-based deduplication", "error", err)
		return n.fallback(unique)
	}

	reply, err := n.Generator.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		log.Warn("text generation failed, falling back to rule-based deduplication", "error", err)
		return n.fallback(unique)
	}

	mapping := ParseTable(reply)
	if len(mapping) == 0 {
		log.Warn("no usable lines in model reply, falling back to rule-based deduplication", "reply_bytes", len(reply))
		return n.fallback(unique)
	}

	searchTerms := uniqueOptimized(mapping)
	n.Metrics.Normalized("llm")
	log.Info("normalized names with model", "names", len(unique), "mappings", len(mapping), "terms", len(searchTerms))
	return types.Normalization{
		Terms:   searchTerms,
		Mapping: mapping,
		UsedLLM: true,
	}
}

func (n *Normalizer) fallback(names []string) types.Normalization {
	unique, groups := terms.Deduplicate(names)
	n.Metrics.Normalized("fallback")
	n.logger().Info("deduplicated names", "names", len(names), "terms", len(unique), "merged", groups.Merged())
	return types.Normalization{
		Terms:   unique,
		Mapping: []types.TermMapping{},
		Groups:  groups.Map(),
	}
}

func (n *Normalizer) logger() *slog.Logger {
	if n.Log != nil {
		return n.Log
	}
	return slog.New(slog.DiscardHandler)
}

// Prefilter trims names, drops blanks, and keeps only the first of names
// that are equal once upper-cased.
func Prefilter(names []string) []string {
	upper := cases.Upper(language.Und)
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := upper.String(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}

// ParseTable reads a tab-separated original/optimized table out of free
// model text. Blank lines and lines starting with '#', '-' or '|' are
// skipped, as is any line without two non-empty tab-separated fields.
// Fields past the second are ignored.
func ParseTable(text string) []types.TermMapping {
	var out []types.TermMapping
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") || strings.HasPrefix(line, "|") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		original := strings.TrimSpace(fields[0])
		optimized := strings.TrimSpace(fields[1])
		if original == "" || optimized == "" {
			continue
		}
		out = append(out, types.TermMapping{Original: original, Optimized: optimized})
	}
	return out
}

func uniqueOptimized(mapping []types.TermMapping) []string {
	seen := make(map[string]bool, len(mapping))
	out := make([]string, 0, len(mapping))
	for _, m := range mapping {
		if seen[m.Optimized] {
			continue
		}
		seen[m.Optimized] = true
		out = append(out, m.Optimized)
	}
	return out
}
