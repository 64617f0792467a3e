// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"math"
	"time"
)

// TermMapping pairs a raw disease name with the search term the language
// model proposed for it.
type TermMapping struct {
	Original  string `json:"original" yaml:"original"`
	Optimized string `json:"optimized" yaml:"optimized"`
}

// Normalization is the outcome of turning raw names into search terms.
// Mapping is empty and UsedLLM false when the rule-based deduplicator
// produced the terms; Groups is then set.
type Normalization struct {
	Terms   []string            `json:"terms" yaml:"terms"`
	Mapping []TermMapping       `json:"mapping" yaml:"mapping"`
	Groups  map[string][]string `json:"groups,omitempty" yaml:"groups,omitempty"`
	UsedLLM bool                `json:"used_llm" yaml:"used_llm"`
}

// SummaryStatistics aggregates trial counts across all diseases.
type SummaryStatistics struct {
	TotalTrials           int            `json:"total_trials" yaml:"total_trials"`
	CompletedTrials       int            `json:"completed_trials" yaml:"completed_trials"`
	OngoingTrials         int            `json:"ongoing_trials" yaml:"ongoing_trials"`
	TrialsWithResults     int            `json:"trials_with_results" yaml:"trials_with_results"`
	CompletionRate        float64        `json:"completion_rate" yaml:"completion_rate"`
	ResultsRate           float64        `json:"results_rate" yaml:"results_rate"`
	AverageDurationMonths float64        `json:"average_duration_months" yaml:"average_duration_months"`
	StatusDistribution    map[string]int `json:"status_distribution" yaml:"status_distribution"`
	PhaseDistribution     map[string]int `json:"phase_distribution" yaml:"phase_distribution"`
	DiseasesStudied       int            `json:"diseases_studied" yaml:"diseases_studied"`
}

// RunMetadata describes one pipeline run.
type RunMetadata struct {
	RunID                     string    `json:"run_id" yaml:"run_id"`
	Timestamp                 time.Time `json:"timestamp" yaml:"timestamp"`
	SourceFile                string    `json:"source_file,omitempty" yaml:"source_file,omitempty"`
	ColumnHeader              string    `json:"column_header,omitempty" yaml:"column_header,omitempty"`
	TotalDiseasesExtracted    int       `json:"total_diseases_extracted" yaml:"total_diseases_extracted"`
	TotalDiseasesDeduplicated int       `json:"total_diseases_deduplicated" yaml:"total_diseases_deduplicated"`
	TotalDiseasesWithTrials   int       `json:"total_diseases_with_trials" yaml:"total_diseases_with_trials"`
	TotalTrials               int       `json:"total_trials" yaml:"total_trials"`
	MaxTrialsPerDisease       int       `json:"max_trials_per_disease" yaml:"max_trials_per_disease"`
	SortedBy                  string    `json:"sorted_by" yaml:"sorted_by"`
	FiltersApplied            bool      `json:"filters_applied" yaml:"filters_applied"`
	YearsBack                 int       `json:"years_back" yaml:"years_back"`
	UsedLLM                   bool      `json:"used_llm" yaml:"used_llm"`
	DiseasesQueried           []string  `json:"diseases_queried" yaml:"diseases_queried"`
}

// RunResult is the aggregate output of a pipeline run. ResultsByDisease
// holds an entry for every search term whose query succeeded, including
// terms that matched no trials.
type RunResult struct {
	Metadata          RunMetadata             `json:"metadata" yaml:"metadata"`
	RawNames          []string                `json:"raw_names" yaml:"raw_names"`
	Normalization     Normalization           `json:"normalization" yaml:"normalization"`
	ResultsByDisease  map[string]*QueryResult `json:"results_by_disease" yaml:"results_by_disease"`
	FailedQueries     []string                `json:"failed_queries" yaml:"failed_queries"`
	SummaryStatistics SummaryStatistics       `json:"summary_statistics" yaml:"summary_statistics"`
}

// TrialsByDisease returns the trial lists of diseases that have at least
// one trial, in query order.
func (r *RunResult) TrialsByDisease() ([]string, map[string][]TrialSummary) {
	var order []string
	out := make(map[string][]TrialSummary)
	for _, d := range r.Metadata.DiseasesQueried {
		qr, ok := r.ResultsByDisease[d]
		if !ok || len(qr.Studies) == 0 {
			continue
		}
		order = append(order, d)
		out[d] = qr.Studies
	}
	return order, out
}

// DiseaseSummary is the per-disease line of the summary sheet and report.
type DiseaseSummary struct {
	Disease           string  `json:"disease" yaml:"disease"`
	TotalTrials       int     `json:"total_trials" yaml:"total_trials"`
	Completed         int     `json:"completed" yaml:"completed"`
	Ongoing           int     `json:"ongoing" yaml:"ongoing"`
	WithResults       int     `json:"with_results" yaml:"with_results"`
	AvgDurationMonths float64 `json:"avg_duration_months" yaml:"avg_duration_months"`
}

// DiseaseSummaries returns one summary per disease with trials, in query
// order. AvgDurationMonths is rounded to one decimal and covers only trials
// with a known month count.
func (r *RunResult) DiseaseSummaries() []DiseaseSummary {
	order, trials := r.TrialsByDisease()
	out := make([]DiseaseSummary, 0, len(order))
	for _, d := range order {
		s := DiseaseSummary{Disease: d, TotalTrials: len(trials[d])}
		var sum float64
		var n int
		for _, t := range trials[d] {
			if t.IsComplete {
				s.Completed++
			}
			if t.HasResults {
				s.WithResults++
			}
			if t.Duration.Months != nil {
				sum += *t.Duration.Months
				n++
			}
		}
		s.Ongoing = s.TotalTrials - s.Completed
		if n > 0 {
			s.AvgDurationMonths = math.Round(sum/float64(n)*10) / 10
		}
		out = append(out, s)
	}
	return out
}
