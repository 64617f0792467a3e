// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/trialscope/internal/input"
	"github.com/pdiddy/trialscope/internal/metrics"
	"github.com/pdiddy/trialscope/internal/normalize"
	"github.com/pdiddy/trialscope/internal/pipeline"
	"github.com/pdiddy/trialscope/internal/registry"
	"github.com/pdiddy/trialscope/internal/report"
	"github.com/pdiddy/trialscope/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run <input-file>",
	Short: "Query ClinicalTrials.gov for every disease in a spreadsheet column",
	Long: `Run reads disease names from one column of a CSV or TSV export, builds
search terms, queries ClinicalTrials.gov for each term and writes the
configured artifacts to the output directory.

Failed terms are listed and skipped; the run still writes its outputs.
Interrupting the run stops after the current term and writes what was
collected so far.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.String("column", "", "spreadsheet column holding disease names (e.g. O)")
	f.Int("start-row", 0, "first data row, 1-based; the header is the row above")
	f.Int("max-studies", 0, "maximum trials per disease")
	f.Bool("filters", true, "restrict to interventional, industry-sponsored trials")
	f.Int("years-back", 0, "completion date cutoff in years (0 disables)")
	f.Duration("delay", 0, "pause between registry requests")
	f.Bool("llm", true, "normalize names with a language model when the list is short")
	f.String("provider", "", "language model provider: ollama or anthropic")
	f.String("model", "", "language model name")
	f.String("output-dir", "", "directory for artifacts")
	f.StringSlice("format", nil, "artifacts to write: json, yaml, sqlite, csv, markdown, html, pdf")
	f.String("metrics-file", "", "write Prometheus metrics to this textfile")

	bind := map[string]string{
		"input.column":              "column",
		"input.start_row":           "start-row",
		"registry.max_studies":      "max-studies",
		"registry.apply_filters":    "filters",
		"registry.years_back":       "years-back",
		"registry.rate_limit_delay": "delay",
		"llm.enabled":               "llm",
		"llm.provider":              "provider",
		"llm.model":                 "model",
		"output.dir":                "output-dir",
		"output.formats":            "format",
		"metrics.file":              "metrics-file",
	}
	for key, flag := range bind {
		viper.BindPFlag(key, f.Lookup(flag))
	}

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	col, err := input.ReadColumn(args[0], cfg.Input.Column, cfg.Input.StartRow)
	if err != nil {
		return err
	}
	logger.Info("read input", "file", args[0], "column", cfg.Input.Column, "header", col.Header, "names", len(col.Values))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	m := metrics.New()
	runner, err := newRunner(cfg, m)
	if err != nil {
		return err
	}
	runner.Options.SourceFile = args[0]
	runner.Options.ColumnHeader = col.Header

	res, runErr := runner.Run(ctx, col.Values)
	if res == nil {
		return runErr
	}

	// Artifacts are written even when the run was interrupted.
	written, err := writeArtifacts(context.WithoutCancel(ctx), cfg.Output, res)
	for _, p := range written {
		fmt.Fprintf(os.Stderr, "wrote:   %s\n", p)
	}
	if cfg.Metrics.File != "" {
		if mErr := m.WriteTextfile(cfg.Metrics.File); mErr != nil {
			logger.Error("writing metrics failed", "error", mErr)
		}
	}

	fmt.Fprintln(os.Stdout)
	report.WriteSummary(os.Stdout, res)

	return errors.Join(runErr, err)
}

// newRunner wires the registry client and, when enabled, the name
// normalizer into a pipeline runner.
func newRunner(cfg types.Config, m *metrics.Recorder) (*pipeline.Runner, error) {
	client := registry.NewClient(cfg.Registry, logger, m)

	var norm pipeline.NameNormalizer
	if cfg.LLM.Enabled {
		gen, err := normalize.NewGenerator(cfg.LLM)
		if err != nil {
			return nil, err
		}
		norm = &normalize.Normalizer{Generator: gen, Log: logger, Metrics: m}
	}

	runner := pipeline.New(client, norm, pipeline.Options{
		MaxStudies:   cfg.Registry.MaxStudies,
		ApplyFilters: cfg.Registry.ApplyFilters,
		YearsBack:    cfg.Registry.YearsBack,
		UseLLM:       cfg.LLM.Enabled,
		MaxLLMNames:  cfg.LLM.MaxNames,
		TermDelay:    cfg.Registry.RateLimitDelay,
	}, logger, m)
	runner.Progress = os.Stderr
	return runner, nil
}
