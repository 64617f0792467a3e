// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/pdiddy/trialscope/pkg/types"
)

// WriteSummarySheet writes one CSV row per disease with trials.
func WriteSummarySheet(w io.Writer, res *types.RunResult) error {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Disease", "Total Trials", "Completed", "Ongoing", "With Results", "Avg Duration (months)"})
	for _, s := range res.DiseaseSummaries() {
		t.AppendRow(table.Row{s.Disease, s.TotalTrials, s.Completed, s.Ongoing, s.WithResults, s.AvgDurationMonths})
	}
	return writeCSV(w, t)
}

// WriteTrialSheet writes one CSV row per trial, grouped by disease in
// query order.
func WriteTrialSheet(w io.Writer, res *types.RunResult) error {
	t := table.NewWriter()
	t.AppendHeader(table.Row{
		"Disease", "NCT ID", "Title", "Status", "Start Date", "Completion Date",
		"Duration (months)", "Duration Status", "Phase", "Enrollment",
		"Primary Outcome", "Secondary Outcomes", "Has Results", "Sponsor", "URL",
	})

	order, trials := res.TrialsByDisease()
	for _, d := range order {
		for _, tr := range trials[d] {
			t.AppendRow(table.Row{
				d,
				tr.NCTID,
				tr.BriefTitle,
				tr.OverallStatus,
				tr.Dates.StartDate,
				tr.Dates.CompletionDate,
				formatMonths(tr.Duration.Months),
				string(tr.Duration.Status),
				strings.Join(tr.Phases, ", "),
				tr.Enrollment.Count,
				primaryOutcome(tr),
				fmt.Sprintf("%d secondary outcomes", len(tr.SecondaryOutcomes)),
				yesNo(tr.HasResults),
				tr.Sponsor.Name,
				tr.URL,
			})
		}
	}
	return writeCSV(w, t)
}

func writeCSV(w io.Writer, t table.Writer) error {
	if _, err := io.WriteString(w, t.RenderCSV()+"\n"); err != nil {
		return fmt.Errorf("writing sheet: %w", err)
	}
	return nil
}

func formatMonths(m *float64) string {
	if m == nil {
		return ""
	}
	return fmt.Sprintf("%g", *m)
}

func primaryOutcome(t types.TrialSummary) string {
	if len(t.PrimaryOutcomes) == 0 {
		return ""
	}
	return t.PrimaryOutcomes[0].Measure
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
