// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the trialscope pipeline:
// trial summaries projected from registry records, per-disease query
// results, name normalization mappings, and the aggregate run result.
package types

// DurationStatus describes how a trial duration was derived.
type DurationStatus string

const (
	DurationUnknown         DurationStatus = "unknown"
	DurationActual          DurationStatus = "actual"
	DurationExpected        DurationStatus = "expected"
	DurationOngoing         DurationStatus = "ongoing"
	DurationCompletedNoDate DurationStatus = "completed_no_date"
)

// Duration is the derived length of a trial. Numeric fields are nil when
// they could not be computed.
type Duration struct {
	Months *float64       `json:"months" yaml:"months"`
	Days   *int           `json:"days" yaml:"days"`
	Years  *float64       `json:"years" yaml:"years"`
	Status DurationStatus `json:"status" yaml:"status"`
}

// TrialDates holds the raw registry date strings and their
// ACTUAL/ESTIMATED qualifiers.
type TrialDates struct {
	StartDate                 string `json:"start_date" yaml:"start_date"`
	StartDateType             string `json:"start_date_type" yaml:"start_date_type"`
	PrimaryCompletionDate     string `json:"primary_completion_date" yaml:"primary_completion_date"`
	PrimaryCompletionDateType string `json:"primary_completion_date_type" yaml:"primary_completion_date_type"`
	CompletionDate            string `json:"completion_date" yaml:"completion_date"`
	CompletionDateType        string `json:"completion_date_type" yaml:"completion_date_type"`
}

// Enrollment is the planned or actual participant count.
type Enrollment struct {
	Count int    `json:"count" yaml:"count"`
	Type  string `json:"type" yaml:"type"`
}

// Outcome is a primary or secondary outcome measure declared by the trial.
type Outcome struct {
	Measure     string `json:"measure" yaml:"measure"`
	Description string `json:"description" yaml:"description"`
	TimeFrame   string `json:"time_frame" yaml:"time_frame"`
}

// Descriptions carries the free-text summaries of a trial.
type Descriptions struct {
	BriefSummary        string `json:"brief_summary" yaml:"brief_summary"`
	DetailedDescription string `json:"detailed_description" yaml:"detailed_description"`
}

// Sponsor identifies the lead sponsor and its class (e.g. INDUSTRY).
type Sponsor struct {
	Name  string `json:"name" yaml:"name"`
	Class string `json:"class" yaml:"class"`
}

// OutcomeMeasure is a reported result measure from the results section.
type OutcomeMeasure struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	TimeFrame   string `json:"time_frame" yaml:"time_frame"`
}

// TrialResults digests the results section of a trial that posted results.
type TrialResults struct {
	HasOutcomeData   bool             `json:"has_outcome_data" yaml:"has_outcome_data"`
	OutcomeMeasures  []OutcomeMeasure `json:"outcome_measures" yaml:"outcome_measures"`
	HasAdverseEvents bool             `json:"has_adverse_events" yaml:"has_adverse_events"`
	ResultsSummary   string           `json:"results_summary" yaml:"results_summary"`
}

// TrialSummary is the normalized projection of one registry record.
type TrialSummary struct {
	NCTID             string        `json:"nct_id" yaml:"nct_id"`
	BriefTitle        string        `json:"brief_title" yaml:"brief_title"`
	OfficialTitle     string        `json:"official_title" yaml:"official_title"`
	OverallStatus     string        `json:"overall_status" yaml:"overall_status"`
	IsComplete        bool          `json:"is_complete" yaml:"is_complete"`
	HasResults        bool          `json:"has_results" yaml:"has_results"`
	Conditions        []string      `json:"conditions" yaml:"conditions"`
	Phases            []string      `json:"phases" yaml:"phases"`
	StudyType         string        `json:"study_type" yaml:"study_type"`
	Dates             TrialDates    `json:"dates" yaml:"dates"`
	Duration          Duration      `json:"duration" yaml:"duration"`
	Enrollment        Enrollment    `json:"enrollment" yaml:"enrollment"`
	PrimaryOutcomes   []Outcome     `json:"primary_outcomes" yaml:"primary_outcomes"`
	SecondaryOutcomes []Outcome     `json:"secondary_outcomes" yaml:"secondary_outcomes"`
	Descriptions      Descriptions  `json:"descriptions" yaml:"descriptions"`
	Sponsor           Sponsor       `json:"sponsor" yaml:"sponsor"`
	URL               string        `json:"url" yaml:"url"`
	Results           *TrialResults `json:"results,omitempty" yaml:"results,omitempty"`
}

// QueryResult is the outcome of querying the registry for one search term.
// Error is non-empty when the first page could not be fetched; in that case
// Studies is empty.
type QueryResult struct {
	Disease        string            `json:"disease" yaml:"disease"`
	Studies        []TrialSummary    `json:"studies" yaml:"studies"`
	RawRecords     []map[string]any  `json:"-" yaml:"-"`
	RawAPIResponse map[string]any    `json:"raw_api_response" yaml:"raw_api_response"`
	QueryParams    map[string]string `json:"query_params" yaml:"query_params"`
	TotalCount     int               `json:"total_count" yaml:"total_count"`
	Pages          int               `json:"pages" yaml:"pages"`
	Error          string            `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the query aborted before any page was retrieved.
func (r QueryResult) Failed() bool {
	return r.Error != ""
}
