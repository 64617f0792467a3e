// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/trialscope/pkg/types"
)

func months(v float64) *float64 { return &v }

func sampleRun() *types.RunResult {
	return &types.RunResult{
		Metadata: types.RunMetadata{
			RunID:                     "run-1",
			Timestamp:                 time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
			SourceFile:                "diseases.csv",
			ColumnHeader:              "Disease",
			TotalDiseasesExtracted:    3,
			TotalDiseasesDeduplicated: 3,
			TotalDiseasesWithTrials:   2,
			TotalTrials:               4,
			MaxTrialsPerDisease:       100,
			SortedBy:                  "LastUpdatePostDate (descending)",
			FiltersApplied:            true,
			YearsBack:                 10,
			DiseasesQueried:           []string{"Psoriasis", "Asthma", "COPD"},
		},
		Normalization: types.Normalization{
			Terms:   []string{"Psoriasis", "Asthma", "COPD"},
			Mapping: []types.TermMapping{{Original: "plaque psoriasis", Optimized: "Psoriasis"}},
			UsedLLM: true,
		},
		ResultsByDisease: map[string]*types.QueryResult{
			"Asthma": {Disease: "Asthma", Studies: []types.TrialSummary{
				{NCTID: "NCT01", BriefTitle: strings.Repeat("x", 100), OverallStatus: "COMPLETED", IsComplete: true, HasResults: true,
					Phases: []string{"PHASE3"}, Enrollment: types.Enrollment{Count: 12000}, URL: "https://clinicaltrials.gov/study/NCT01",
					Duration: types.Duration{Months: months(10)}},
				{NCTID: "NCT02", BriefTitle: "Small study", OverallStatus: "RECRUITING",
					Phases: []string{"PHASE2"}, Enrollment: types.Enrollment{Count: 40}, URL: "https://clinicaltrials.gov/study/NCT02",
					Duration: types.Duration{Months: months(30)}},
				{NCTID: "NCT03", BriefTitle: "No enrollment", OverallStatus: ""},
			}},
			"Psoriasis": {Disease: "Psoriasis", Studies: []types.TrialSummary{
				{NCTID: "NCT04", BriefTitle: "<script>alert(1)</script>", OverallStatus: "COMPLETED", IsComplete: true,
					Enrollment: types.Enrollment{Count: 300}, URL: "https://clinicaltrials.gov/study/NCT04",
					Duration: types.Duration{Months: months(20)}},
			}},
		},
		FailedQueries: []string{"COPD"},
		SummaryStatistics: types.SummaryStatistics{
			TotalTrials:           4,
			CompletedTrials:       2,
			OngoingTrials:         2,
			TrialsWithResults:     1,
			CompletionRate:        50,
			ResultsRate:           25,
			AverageDurationMonths: 20,
			StatusDistribution:    map[string]int{"COMPLETED": 2, "RECRUITING": 1, "UNKNOWN": 1},
			PhaseDistribution:     map[string]int{"PHASE3": 1, "PHASE2": 1},
			DiseasesStudied:       2,
		},
	}
}

func TestMarkdownSections(t *testing.T) {
	md := Markdown(sampleRun())

	for _, want := range []string{
		"# Clinical Trials Analysis Report",
		"**Generated:** 2026-03-01 09:30:00",
		"**Source Data:** diseases.csv (column Disease)",
		"## Executive Summary",
		"**Completed Trials:** 2 (50.0%)",
		"## Overall Statistics",
		"- **Median Duration:** 20.0 months",
		"- **Min Duration:** 10.0 months",
		"- **Max Duration:** 30.0 months",
		"## Search Terms",
		"plaque psoriasis",
		"- COPD",
		"## Disease-Specific Analysis",
		"### Asthma",
		"**[NCT01](https://clinicaltrials.gov/study/NCT01)** (12,000 participants)",
		"  - Title: " + strings.Repeat("x", 80) + "...",
		"## Key Findings",
		"**Most Studied Disease:** Asthma (3 trials)",
		"*Report generated on 2026-03-01 at 09:30:00*",
	} {
		assert.Contains(t, md, want)
	}

	// Disease sections are alphabetical; the trial without enrollment is
	// left out of the top list.
	assert.Less(t, strings.Index(md, "### Asthma"), strings.Index(md, "### Psoriasis"))
	assert.NotContains(t, md, "[NCT03]")
	assert.Less(t, strings.Index(md, "[NCT01]"), strings.Index(md, "[NCT02]"))
}

func TestMarkdownEmptyRun(t *testing.T) {
	res := &types.RunResult{Metadata: types.RunMetadata{RunID: "empty"}}
	md := Markdown(res)
	assert.Contains(t, md, "No trials matched the queried diseases.")
	assert.NotContains(t, md, "## Disease-Specific Analysis")
	assert.NotContains(t, md, "## Search Terms")
}

func TestDistributionTableOrder(t *testing.T) {
	out := distributionTable("Status", map[string]int{"B": 1, "A": 1, "C": 5}).RenderMarkdown()
	c, a, b := strings.Index(out, "C"), strings.Index(out, "| A"), strings.Index(out, "| B")
	assert.Less(t, c, a)
	assert.Less(t, a, b)
}

func TestDurationStats(t *testing.T) {
	trials := []types.TrialSummary{
		{Duration: types.Duration{Months: months(4)}},
		{Duration: types.Duration{Months: months(0)}},
		{Duration: types.Duration{}},
		{Duration: types.Duration{Months: months(2)}},
	}
	d := durationStats(trials)
	assert.Equal(t, 2, d.n)
	assert.Equal(t, 3.0, d.mean)
	assert.Equal(t, 3.0, d.median)
	assert.Equal(t, 2.0, d.min)
	assert.Equal(t, 4.0, d.max)

	assert.Zero(t, durationStats(nil).n)
}

func TestGroupThousands(t *testing.T) {
	cases := map[int]string{0: "0", 999: "999", 1000: "1,000", 1234567: "1,234,567", -4500: "-4,500"}
	for in, want := range cases {
		assert.Equal(t, want, groupThousands(in))
	}
}

func TestHTMLSanitizes(t *testing.T) {
	doc, err := HTML("Clinical Trials Analysis Report", Markdown(sampleRun()))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(doc, "<!doctype html>"))
	assert.Contains(t, doc, "<title>Clinical Trials Analysis Report</title>")
	assert.Contains(t, doc, "<table>")
	assert.Contains(t, doc, `href="https://clinicaltrials.gov/study/NCT01"`)
	assert.NotContains(t, doc, "<script>")
}

func TestPDFRendererWithoutChrome(t *testing.T) {
	r := &PDFRenderer{}
	assert.False(t, r.Available())
	_, err := r.Render(context.Background(), "<html></html>")
	assert.ErrorIs(t, err, ErrNoChrome)
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	WriteSummary(&buf, sampleRun())
	out := buf.String()

	assert.Contains(t, strings.ToLower(out), "run-1")
	assert.Contains(t, out, "50.0%")
	assert.Contains(t, out, "Asthma")
	assert.Contains(t, out, "Psoriasis")
	assert.NotContains(t, out, "COPD")
}
