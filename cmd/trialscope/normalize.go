// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pdiddy/trialscope/internal/input"
	"github.com/pdiddy/trialscope/internal/normalize"
	"github.com/pdiddy/trialscope/internal/terms"
	"github.com/pdiddy/trialscope/pkg/types"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <input-file>",
	Short: "Show the search terms a run would query, without querying",
	Long: `Normalize reads the disease column and prints the search terms built from
it. With the language model enabled the original-to-term mapping is shown;
otherwise the rule-based groups are listed.`,
	Args: cobra.ExactArgs(1),
	RunE: runNormalize,
}

func init() {
	normalizeCmd.Flags().Bool("json", false, "print the normalization as JSON")
	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	col, err := input.ReadColumn(args[0], cfg.Input.Column, cfg.Input.StartRow)
	if err != nil {
		return err
	}

	var norm types.Normalization
	if cfg.LLM.Enabled && len(col.Values) < cfg.LLM.MaxNames {
		gen, err := normalize.NewGenerator(cfg.LLM)
		if err != nil {
			return err
		}
		n := &normalize.Normalizer{Generator: gen, Log: logger}
		norm = n.Normalize(cmd.Context(), col.Values)
	} else {
		unique, groups := terms.Deduplicate(col.Values)
		norm = types.Normalization{Terms: unique, Mapping: []types.TermMapping{}, Groups: groups.Map()}
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(norm)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	if norm.UsedLLM {
		t.AppendHeader(table.Row{"Original", "Search Term"})
		for _, m := range norm.Mapping {
			t.AppendRow(table.Row{m.Original, m.Optimized})
		}
	} else {
		t.AppendHeader(table.Row{"Search Term", "Merged Names"})
		for _, term := range norm.Terms {
			t.AppendRow(table.Row{term, len(norm.Groups[term])})
		}
	}
	t.AppendFooter(table.Row{"Terms", len(norm.Terms)})
	t.Render()
	return nil
}
