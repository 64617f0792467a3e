// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders a run as a Markdown analysis report, converts it
// to sanitized HTML and prints it to PDF through headless Chromium. It also
// prints the short terminal summary shown at the end of a run.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/pdiddy/trialscope/pkg/types"
)

const (
	topTrialsPerDisease = 5
	maxTitleLen         = 80
)

// Markdown renders the full analysis report for res.
func Markdown(res *types.RunResult) string {
	var b strings.Builder
	writeHeader(&b, res)
	writeExecutiveSummary(&b, res)
	writeOverallStatistics(&b, res)
	writeNormalization(&b, res)
	writeDiseaseSections(&b, res)
	writeFindings(&b, res)
	return b.String()
}

func writeHeader(b *strings.Builder, res *types.RunResult) {
	m := res.Metadata
	b.WriteString("# Clinical Trials Analysis Report\n\n")
	fmt.Fprintf(b, "**Generated:** %s\n\n", m.Timestamp.Format("2006-01-02 15:04:05"))
	if m.SourceFile != "" {
		src := m.SourceFile
		if m.ColumnHeader != "" {
			src += " (column " + m.ColumnHeader + ")"
		}
		fmt.Fprintf(b, "**Source Data:** %s\n\n", src)
	}
	fmt.Fprintf(b, "**Run ID:** %s\n\n", m.RunID)

	filters := "none"
	if m.FiltersApplied {
		filters = "interventional, industry-sponsored"
		if m.YearsBack > 0 {
			filters += fmt.Sprintf(", completed within %d years", m.YearsBack)
		}
	}
	fmt.Fprintf(b, "**Query:** up to %d trials per disease, sorted by %s; filters: %s\n\n",
		m.MaxTrialsPerDisease, m.SortedBy, filters)
	b.WriteString("---\n\n")
}

func writeExecutiveSummary(b *strings.Builder, res *types.RunResult) {
	s := res.SummaryStatistics
	b.WriteString("## Executive Summary\n\n")
	fmt.Fprintf(b, "This report analyzes **%d** clinical trials across **%d** diseases.\n\n",
		s.TotalTrials, s.DiseasesStudied)
	fmt.Fprintf(b, "- **Total Trials:** %d\n", s.TotalTrials)
	fmt.Fprintf(b, "- **Completed Trials:** %d (%.1f%%)\n", s.CompletedTrials, s.CompletionRate)
	fmt.Fprintf(b, "- **Trials with Results:** %d (%.1f%%)\n", s.TrialsWithResults, s.ResultsRate)
	fmt.Fprintf(b, "- **Ongoing Trials:** %d\n", s.OngoingTrials)
	fmt.Fprintf(b, "- **Diseases Queried:** %d (%d failed)\n\n", len(res.Metadata.DiseasesQueried), len(res.FailedQueries))
	b.WriteString("---\n\n")
}

func writeOverallStatistics(b *strings.Builder, res *types.RunResult) {
	s := res.SummaryStatistics
	b.WriteString("## Overall Statistics\n\n")

	if summaries := res.DiseaseSummaries(); len(summaries) > 0 {
		b.WriteString("### Trials per Disease\n\n")
		t := newMarkdownTable()
		t.AppendHeader(table.Row{"Disease", "Total", "Completed", "Ongoing", "With Results", "Avg Duration (months)"})
		for _, d := range summaries {
			t.AppendRow(table.Row{d.Disease, d.TotalTrials, d.Completed, d.Ongoing, d.WithResults, fmt.Sprintf("%.1f", d.AvgDurationMonths)})
		}
		writeTable(b, t)
	}

	if len(s.StatusDistribution) > 0 {
		b.WriteString("### Trial Status Distribution\n\n")
		writeTable(b, distributionTable("Status", s.StatusDistribution))
	}
	if len(s.PhaseDistribution) > 0 {
		b.WriteString("### Phase Distribution\n\n")
		writeTable(b, distributionTable("Phase", s.PhaseDistribution))
	}

	if d := durationStats(allTrials(res)); d.n > 0 {
		b.WriteString("### Trial Duration Statistics\n\n")
		fmt.Fprintf(b, "- **Average Duration:** %.1f months\n", d.mean)
		fmt.Fprintf(b, "- **Median Duration:** %.1f months\n", d.median)
		fmt.Fprintf(b, "- **Min Duration:** %.1f months\n", d.min)
		fmt.Fprintf(b, "- **Max Duration:** %.1f months\n\n", d.max)
	}
	b.WriteString("---\n\n")
}

func writeNormalization(b *strings.Builder, res *types.RunResult) {
	n := res.Normalization
	if len(n.Mapping) == 0 && len(res.FailedQueries) == 0 {
		return
	}
	b.WriteString("## Search Terms\n\n")
	if len(n.Mapping) > 0 {
		b.WriteString("Disease names were normalized into registry search terms:\n\n")
		t := newMarkdownTable()
		t.AppendHeader(table.Row{"Original", "Search Term"})
		for _, m := range n.Mapping {
			t.AppendRow(table.Row{m.Original, m.Optimized})
		}
		writeTable(b, t)
	}
	if len(res.FailedQueries) > 0 {
		b.WriteString("The following searches failed and are not included:\n\n")
		for _, f := range res.FailedQueries {
			fmt.Fprintf(b, "- %s\n", f)
		}
		b.WriteString("\n")
	}
	b.WriteString("---\n\n")
}

func writeDiseaseSections(b *strings.Builder, res *types.RunResult) {
	order, trials := res.TrialsByDisease()
	if len(order) == 0 {
		return
	}
	b.WriteString("## Disease-Specific Analysis\n\n")

	sorted := append([]string(nil), order...)
	sort.Strings(sorted)
	for _, disease := range sorted {
		ts := trials[disease]
		fmt.Fprintf(b, "### %s\n\n", disease)
		fmt.Fprintf(b, "**Total Trials:** %d\n\n", len(ts))

		var completed, withResults int
		status := map[string]int{}
		phases := map[string]int{}
		for _, t := range ts {
			if t.IsComplete {
				completed++
			}
			if t.HasResults {
				withResults++
			}
			status[statusLabel(t.OverallStatus)]++
			for _, p := range t.Phases {
				phases[p]++
			}
		}
		fmt.Fprintf(b, "- Completed: %d\n", completed)
		fmt.Fprintf(b, "- Ongoing: %d\n", len(ts)-completed)
		fmt.Fprintf(b, "- With Results: %d\n\n", withResults)

		if d := durationStats(ts); d.n > 0 {
			fmt.Fprintf(b, "**Average Trial Duration:** %.1f months\n\n", d.mean)
		}

		b.WriteString("**Status Distribution:**\n\n")
		writeTable(b, distributionTable("Status", status))
		if len(phases) > 0 {
			b.WriteString("**Phase Distribution:**\n\n")
			writeTable(b, distributionTable("Phase", phases))
		}

		if top := topByEnrollment(ts, topTrialsPerDisease); len(top) > 0 {
			fmt.Fprintf(b, "**Top %d Trials by Enrollment:**\n\n", topTrialsPerDisease)
			for _, t := range top {
				fmt.Fprintf(b, "- **[%s](%s)** (%s participants)\n", t.NCTID, t.URL, groupThousands(t.Enrollment.Count))
				fmt.Fprintf(b, "  - Status: %s\n", t.OverallStatus)
				fmt.Fprintf(b, "  - Title: %s\n", truncate(t.BriefTitle, maxTitleLen))
			}
			b.WriteString("\n")
		}
		b.WriteString("---\n\n")
	}
}

func writeFindings(b *strings.Builder, res *types.RunResult) {
	s := res.SummaryStatistics
	b.WriteString("## Key Findings\n\n")
	if s.TotalTrials == 0 {
		b.WriteString("No trials matched the queried diseases.\n\n")
	} else {
		fmt.Fprintf(b, "1. **Completion Rate:** %.1f%% of trials have been completed\n", s.CompletionRate)
		fmt.Fprintf(b, "2. **Results Availability:** %.1f%% of trials have published results\n", s.ResultsRate)
		if disease, n := mostStudied(res); n > 0 {
			fmt.Fprintf(b, "3. **Most Studied Disease:** %s (%d trials)\n", disease, n)
		}
		b.WriteString("\n")
	}
	b.WriteString("---\n\n")
	fmt.Fprintf(b, "*Report generated on %s*\n", res.Metadata.Timestamp.Format("2006-01-02 at 15:04:05"))
}

func newMarkdownTable() table.Writer {
	t := table.NewWriter()
	t.Style().Format.Header = text.FormatDefault
	return t
}

func writeTable(b *strings.Builder, t table.Writer) {
	b.WriteString(t.RenderMarkdown())
	b.WriteString("\n\n")
}

// distributionTable lists counts in descending order, ties by label.
func distributionTable(label string, counts map[string]int) table.Writer {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	t := newMarkdownTable()
	t.AppendHeader(table.Row{label, "Trials"})
	for _, k := range keys {
		t.AppendRow(table.Row{k, counts[k]})
	}
	return t
}

type durationSummary struct {
	n                      int
	mean, median, min, max float64
}

// durationStats summarizes the positive month durations of trials.
func durationStats(trials []types.TrialSummary) durationSummary {
	var months []float64
	for _, t := range trials {
		if t.Duration.Months != nil && *t.Duration.Months > 0 {
			months = append(months, *t.Duration.Months)
		}
	}
	if len(months) == 0 {
		return durationSummary{}
	}
	sort.Float64s(months)

	var sum float64
	for _, m := range months {
		sum += m
	}
	d := durationSummary{
		n:    len(months),
		mean: sum / float64(len(months)),
		min:  months[0],
		max:  months[len(months)-1],
	}
	mid := len(months) / 2
	if len(months)%2 == 1 {
		d.median = months[mid]
	} else {
		d.median = (months[mid-1] + months[mid]) / 2
	}
	return d
}

func topByEnrollment(trials []types.TrialSummary, n int) []types.TrialSummary {
	var enrolled []types.TrialSummary
	for _, t := range trials {
		if t.Enrollment.Count > 0 {
			enrolled = append(enrolled, t)
		}
	}
	sort.SliceStable(enrolled, func(i, j int) bool {
		return enrolled[i].Enrollment.Count > enrolled[j].Enrollment.Count
	})
	if len(enrolled) > n {
		enrolled = enrolled[:n]
	}
	return enrolled
}

func mostStudied(res *types.RunResult) (string, int) {
	best, bestN := "", 0
	order, trials := res.TrialsByDisease()
	for _, d := range order {
		if len(trials[d]) > bestN {
			best, bestN = d, len(trials[d])
		}
	}
	return best, bestN
}

func allTrials(res *types.RunResult) []types.TrialSummary {
	order, trials := res.TrialsByDisease()
	var out []types.TrialSummary
	for _, d := range order {
		out = append(out, trials[d]...)
	}
	return out
}

func statusLabel(s string) string {
	if s == "" {
		return "UNKNOWN"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// groupThousands formats n with comma thousands separators.
func groupThousands(n int) string {
	s := fmt.Sprintf("%d", n)
	if n < 0 {
		return "-" + groupThousands(-n)
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}
