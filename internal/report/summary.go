// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/pdiddy/trialscope/pkg/types"
)

// WriteSummary prints the end-of-run overview and the per-disease table.
func WriteSummary(w io.Writer, res *types.RunResult) {
	m := res.Metadata
	s := res.SummaryStatistics

	overview := table.NewWriter()
	overview.SetOutputMirror(w)
	overview.SetStyle(table.StyleLight)
	overview.SetTitle("Run " + m.RunID)
	overview.AppendRows([]table.Row{
		{"Diseases extracted", m.TotalDiseasesExtracted},
		{"Search terms", m.TotalDiseasesDeduplicated},
		{"Diseases with trials", m.TotalDiseasesWithTrials},
		{"Failed queries", len(res.FailedQueries)},
		{"Total trials", s.TotalTrials},
		{"Completed", fmt.Sprintf("%d (%.1f%%)", s.CompletedTrials, s.CompletionRate)},
		{"With results", fmt.Sprintf("%d (%.1f%%)", s.TrialsWithResults, s.ResultsRate)},
		{"Avg duration (months)", fmt.Sprintf("%.1f", s.AverageDurationMonths)},
	})
	overview.Render()

	summaries := res.DiseaseSummaries()
	if len(summaries) == 0 {
		return
	}
	fmt.Fprintln(w)
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Disease", "Trials", "Completed", "Ongoing", "With Results", "Avg Months"})
	for _, d := range summaries {
		t.AppendRow(table.Row{d.Disease, d.TotalTrials, d.Completed, d.Ongoing, d.WithResults, fmt.Sprintf("%.1f", d.AvgDurationMonths)})
	}
	t.AppendFooter(table.Row{"Total", s.TotalTrials, s.CompletedTrials, s.OngoingTrials, s.TrialsWithResults, ""})
	t.Render()
}
