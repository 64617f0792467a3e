// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/trialscope/internal/export"
	"github.com/pdiddy/trialscope/internal/report"
	"github.com/pdiddy/trialscope/pkg/types"
)

var reportCmd = &cobra.Command{
	Use:   "report <run-file>",
	Short: "Re-render artifacts from a saved run file",
	Long: `Report loads a run saved as JSON or YAML and writes the configured
artifacts again without querying the registry. Use --format to pick which
ones, for example --format pdf after installing Chromium.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringSlice("format", []string{"markdown", "html"}, "artifacts to write")
	reportCmd.Flags().String("output-dir", "", "directory for artifacts (default: output.dir)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	res, err := export.ReadRunFile(args[0])
	if err != nil {
		return err
	}

	out := cfg.Output
	formats, _ := cmd.Flags().GetStringSlice("format")
	out.Formats = nil
	for _, f := range formats {
		out.Formats = append(out.Formats, types.OutputFormat(f))
	}
	if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
		out.Dir = dir
	}
	if err := (types.Config{Registry: cfg.Registry, Output: out}).Validate(); err != nil {
		return err
	}

	written, err := writeArtifacts(cmd.Context(), out, res)
	for _, p := range written {
		fmt.Fprintf(os.Stderr, "wrote:   %s\n", p)
	}
	report.WriteSummary(os.Stdout, res)
	return err
}
