// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/trialscope/internal/export"
	"github.com/pdiddy/trialscope/internal/report"
	"github.com/pdiddy/trialscope/pkg/types"
)

const reportTitle = "Clinical Trials Analysis Report"

// writeArtifacts writes every configured output for res and returns the
// paths written. Run files and sheets carry the run timestamp in their
// name; the SQLite database is shared across runs. An artifact that fails
// is logged and the rest are still attempted; the first error is returned.
func writeArtifacts(ctx context.Context, out types.OutputConfig, res *types.RunResult) ([]string, error) {
	if err := os.MkdirAll(out.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	stem := filepath.Join(out.Dir, out.Basename+"_"+res.Metadata.Timestamp.Format("20060102_150405"))

	var written []string
	var errs []error
	record := func(path string, err error) {
		if err != nil {
			logger.Error("writing artifact failed", "path", path, "error", err)
			errs = append(errs, err)
			return
		}
		written = append(written, path)
	}

	if out.Wants(types.OutputJSON) {
		p := stem + ".json"
		record(p, export.WriteRunFile(p, res))
	}
	if out.Wants(types.OutputYAML) {
		p := stem + ".yaml"
		record(p, export.WriteRunFile(p, res))
	}
	if out.Wants(types.OutputSQLite) {
		p := filepath.Join(out.Dir, out.Basename+".db")
		record(p, export.WriteSQLite(ctx, p, res))
	}
	if out.Wants(types.OutputCSV) {
		p := stem + "_summary.csv"
		record(p, writeFile(p, func(w io.Writer) error { return export.WriteSummarySheet(w, res) }))
		p = stem + "_trials.csv"
		record(p, writeFile(p, func(w io.Writer) error { return export.WriteTrialSheet(w, res) }))
	}

	wantHTML := out.Wants(types.OutputHTML) || out.Wants(types.OutputPDF)
	if !out.Wants(types.OutputMarkdown) && !wantHTML {
		return written, errors.Join(errs...)
	}

	md := report.Markdown(res)
	if out.Wants(types.OutputMarkdown) {
		p := stem + "_report.md"
		record(p, os.WriteFile(p, []byte(md), 0o644))
	}
	if wantHTML {
		doc, err := report.HTML(reportTitle, md)
		if err != nil {
			errs = append(errs, err)
			return written, errors.Join(errs...)
		}
		if out.Wants(types.OutputHTML) {
			p := stem + "_report.html"
			record(p, os.WriteFile(p, []byte(doc), 0o644))
		}
		if out.Wants(types.OutputPDF) {
			p := stem + "_report.pdf"
			r := report.NewPDFRenderer(out.ChromePath)
			if !r.Available() {
				logger.Warn("skipping pdf report: no chromium found", "hint", "set output.chrome_path")
			} else {
				record(p, r.WritePDF(ctx, p, doc))
			}
		}
	}
	return written, errors.Join(errs...)
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
