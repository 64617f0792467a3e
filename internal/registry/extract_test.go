// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/trialscope/pkg/types"
)

var fixedNow = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2020-07-15", time.Date(2020, 7, 15, 0, 0, 0, 0, time.UTC), false},
		{"2020-07", time.Date(2020, 7, 1, 0, 0, 0, 0, time.UTC), false},
		{"2020", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"July 2020", time.Time{}, true},
		{"", time.Time{}, true},
		{"2020/07/15", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeDuration(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	i := func(v int) *int { return &v }

	tests := []struct {
		name       string
		start      string
		completion string
		complete   bool
		want       types.Duration
		wantErr    bool
	}{
		{
			name:       "actual",
			start:      "2020-01-01",
			completion: "2020-07-01",
			complete:   true,
			want:       types.Duration{Days: i(182), Months: f(6), Years: f(0.5), Status: types.DurationActual},
		},
		{
			name:       "expected",
			start:      "2023-01",
			completion: "2025-01",
			want:       types.Duration{Days: i(731), Months: f(24), Years: f(2), Status: types.DurationExpected},
		},
		{
			name:  "no start",
			want:  types.Duration{Status: types.DurationUnknown},
			start: "",
		},
		{
			name:     "completed without date",
			start:    "2019-05-01",
			complete: true,
			want:     types.Duration{Status: types.DurationCompletedNoDate},
		},
		{
			name:  "ongoing measured to now",
			start: "2024-01-01",
			want:  types.Duration{Days: i(152), Months: f(5), Years: f(0.4), Status: types.DurationOngoing},
		},
		{
			name:    "bad start",
			start:   "soon",
			want:    types.Duration{Status: types.DurationUnknown},
			wantErr: true,
		},
		{
			name:       "bad completion",
			start:      "2020-01-01",
			completion: "later",
			complete:   true,
			want:       types.Duration{Status: types.DurationUnknown},
			wantErr:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeDuration(tt.start, tt.completion, tt.complete, fixedNow)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsComplete(t *testing.T) {
	for _, s := range []string{"COMPLETED", "TERMINATED", "WITHDRAWN", "SUSPENDED"} {
		assert.True(t, IsComplete(s), s)
	}
	for _, s := range []string{"RECRUITING", "ACTIVE_NOT_RECRUITING", "completed", ""} {
		assert.False(t, IsComplete(s), s)
	}
}

const fullStudy = `{
  "protocolSection": {
    "identificationModule": {"nctId": "NCT01234567", "briefTitle": "Brief", "officialTitle": "Official"},
    "statusModule": {
      "overallStatus": "COMPLETED",
      "startDateStruct": {"date": "2020-01-01", "type": "ACTUAL"},
      "primaryCompletionDateStruct": {"date": "2020-06", "type": "ACTUAL"},
      "completionDateStruct": {"date": "2020-07-01", "type": "ACTUAL"}
    },
    "conditionsModule": {"conditions": ["Asthma", "COPD"]},
    "designModule": {
      "studyType": "INTERVENTIONAL",
      "phases": ["PHASE2", "PHASE3"],
      "enrollmentInfo": {"count": 240, "type": "ACTUAL"}
    },
    "outcomesModule": {
      "primaryOutcomes": [{"measure": "FEV1", "description": "lung function", "timeFrame": "12 weeks"}],
      "secondaryOutcomes": [{"measure": "Exacerbations"}]
    },
    "descriptionModule": {"briefSummary": "summary", "detailedDescription": "details"},
    "sponsorCollaboratorsModule": {"leadSponsor": {"name": "Acme Pharma", "class": "INDUSTRY"}}
  },
  "resultsSection": {
    "outcomeMeasuresModule": {"outcomeMeasures": [
      {"title": "m1"}, {"title": "m2"}, {"title": "m3"}, {"title": "m4"}, {"title": "m5"}, {"title": "m6"}
    ]},
    "adverseEventsModule": {"frequencyThreshold": "5"}
  }
}`

func TestExtractTrial_Full(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(fullStudy), &rec))

	got := ExtractTrial(rec, fixedNow, nil)

	assert.Equal(t, "NCT01234567", got.NCTID)
	assert.Equal(t, "Brief", got.BriefTitle)
	assert.Equal(t, "Official", got.OfficialTitle)
	assert.Equal(t, "COMPLETED", got.OverallStatus)
	assert.True(t, got.IsComplete)
	assert.True(t, got.HasResults)
	assert.Equal(t, []string{"Asthma", "COPD"}, got.Conditions)
	assert.Equal(t, []string{"PHASE2", "PHASE3"}, got.Phases)
	assert.Equal(t, "INTERVENTIONAL", got.StudyType)
	assert.Equal(t, "2020-06", got.Dates.PrimaryCompletionDate)
	assert.Equal(t, "ACTUAL", got.Dates.CompletionDateType)
	assert.Equal(t, types.Enrollment{Count: 240, Type: "ACTUAL"}, got.Enrollment)
	assert.Equal(t, []types.Outcome{{Measure: "FEV1", Description: "lung function", TimeFrame: "12 weeks"}}, got.PrimaryOutcomes)
	assert.Equal(t, "Exacerbations", got.SecondaryOutcomes[0].Measure)
	assert.Equal(t, "details", got.Descriptions.DetailedDescription)
	assert.Equal(t, types.Sponsor{Name: "Acme Pharma", Class: "INDUSTRY"}, got.Sponsor)
	assert.Equal(t, "https://clinicaltrials.gov/study/NCT01234567", got.URL)

	assert.Equal(t, types.DurationActual, got.Duration.Status)
	require.NotNil(t, got.Duration.Days)
	assert.Equal(t, 182, *got.Duration.Days)

	require.NotNil(t, got.Results)
	assert.True(t, got.Results.HasOutcomeData)
	assert.Len(t, got.Results.OutcomeMeasures, 5)
	assert.Equal(t, "m5", got.Results.OutcomeMeasures[4].Title)
	assert.True(t, got.Results.HasAdverseEvents)
	assert.Equal(t, "6 outcome measures reported", got.Results.ResultsSummary)
}

func TestExtractTrial_EmptyRecord(t *testing.T) {
	got := ExtractTrial(Record{}, fixedNow, nil)

	assert.Empty(t, got.NCTID)
	assert.False(t, got.IsComplete)
	assert.False(t, got.HasResults)
	assert.Nil(t, got.Results)
	assert.NotNil(t, got.Conditions)
	assert.Empty(t, got.Conditions)
	assert.Zero(t, got.Enrollment.Count)
	assert.Equal(t, types.DurationUnknown, got.Duration.Status)
	assert.Equal(t, "https://clinicaltrials.gov/study/", got.URL)
}

func TestExtractTrial_MistypedFields(t *testing.T) {
	rec := Record{
		"protocolSection": map[string]any{
			"identificationModule": "not an object",
			"conditionsModule":     map[string]any{"conditions": []any{"Asthma", 7, nil}},
			"designModule":         map[string]any{"enrollmentInfo": map[string]any{"count": "many"}},
		},
		"resultsSection": []any{},
	}

	got := ExtractTrial(rec, fixedNow, nil)
	assert.Empty(t, got.NCTID)
	assert.Equal(t, []string{"Asthma"}, got.Conditions)
	assert.Zero(t, got.Enrollment.Count)
	assert.False(t, got.HasResults)
}

func TestRecordAccessors(t *testing.T) {
	rec := Record{
		"a": map[string]any{
			"b": map[string]any{"s": "x", "n": float64(42), "list": []any{"p", "q"}},
		},
	}
	assert.Equal(t, "x", rec.String("a", "b", "s"))
	assert.Equal(t, 42, rec.Int("a", "b", "n"))
	assert.Equal(t, []string{"p", "q"}, rec.Strings("a", "b", "list"))
	assert.Equal(t, "x", rec.Map("a").Map("b").String("s"))
	assert.Empty(t, rec.String("a", "missing", "s"))
	assert.Zero(t, rec.Int("a", "b", "s"))
	assert.True(t, rec.Map("a", "b", "s").Empty())
	assert.Nil(t, rec.Get("a", "b", "s", "deeper"))
}
