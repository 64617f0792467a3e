// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pdiddy/trialscope/pkg/types"
)

// studyURLBase prefixes an NCT identifier to form the public study page.
const studyURLBase = "https://clinicaltrials.gov/study/"

// maxResultMeasures bounds the outcome measures kept in a results digest.
const maxResultMeasures = 5

// completeStatuses are the overall statuses of a trial that has stopped
// enrolling for good.
var completeStatuses = map[string]bool{
	"COMPLETED":  true,
	"TERMINATED": true,
	"WITHDRAWN":  true,
	"SUSPENDED":  true,
}

// IsComplete reports whether status is a terminal overall status.
func IsComplete(status string) bool {
	return completeStatuses[status]
}

// ExtractTrial projects a raw registry record into a TrialSummary. Missing
// fields read as zero values; a date that cannot be parsed leaves the
// duration unknown and is logged as a warning.
func ExtractTrial(rec Record, now time.Time, log *slog.Logger) types.TrialSummary {
	protocol := rec.Map("protocolSection")
	ident := protocol.Map("identificationModule")
	status := protocol.Map("statusModule")
	design := protocol.Map("designModule")
	outcomes := protocol.Map("outcomesModule")
	desc := protocol.Map("descriptionModule")
	lead := protocol.Map("sponsorCollaboratorsModule", "leadSponsor")
	results := rec.Map("resultsSection")

	nctID := ident.String("nctId")
	overall := status.String("overallStatus")

	t := types.TrialSummary{
		NCTID:         nctID,
		BriefTitle:    ident.String("briefTitle"),
		OfficialTitle: ident.String("officialTitle"),
		OverallStatus: overall,
		IsComplete:    IsComplete(overall),
		HasResults:    !results.Empty(),
		Conditions:    protocol.Strings("conditionsModule", "conditions"),
		Phases:        design.Strings("phases"),
		StudyType:     design.String("studyType"),
		Dates: types.TrialDates{
			StartDate:                 status.String("startDateStruct", "date"),
			StartDateType:             status.String("startDateStruct", "type"),
			PrimaryCompletionDate:     status.String("primaryCompletionDateStruct", "date"),
			PrimaryCompletionDateType: status.String("primaryCompletionDateStruct", "type"),
			CompletionDate:            status.String("completionDateStruct", "date"),
			CompletionDateType:        status.String("completionDateStruct", "type"),
		},
		Enrollment: types.Enrollment{
			Count: design.Int("enrollmentInfo", "count"),
			Type:  design.String("enrollmentInfo", "type"),
		},
		PrimaryOutcomes:   extractOutcomes(outcomes.Records("primaryOutcomes")),
		SecondaryOutcomes: extractOutcomes(outcomes.Records("secondaryOutcomes")),
		Descriptions: types.Descriptions{
			BriefSummary:        desc.String("briefSummary"),
			DetailedDescription: desc.String("detailedDescription"),
		},
		Sponsor: types.Sponsor{
			Name:  lead.String("name"),
			Class: lead.String("class"),
		},
		URL: studyURLBase + nctID,
	}

	d, err := ComputeDuration(t.Dates.StartDate, t.Dates.CompletionDate, t.IsComplete, now)
	if err != nil && log != nil {
		log.Warn("could not parse trial dates",
			"nct_id", nctID,
			"start", t.Dates.StartDate,
			"completion", t.Dates.CompletionDate,
			"error", err)
	}
	t.Duration = d

	if t.HasResults {
		t.Results = extractResults(results)
	}
	return t
}

func extractOutcomes(recs []Record) []types.Outcome {
	out := make([]types.Outcome, 0, len(recs))
	for _, o := range recs {
		out = append(out, types.Outcome{
			Measure:     o.String("measure"),
			Description: o.String("description"),
			TimeFrame:   o.String("timeFrame"),
		})
	}
	return out
}

func extractResults(section Record) *types.TrialResults {
	measures := section.Records("outcomeMeasuresModule", "outcomeMeasures")
	kept := measures
	if len(kept) > maxResultMeasures {
		kept = kept[:maxResultMeasures]
	}

	digest := make([]types.OutcomeMeasure, 0, len(kept))
	for _, m := range kept {
		digest = append(digest, types.OutcomeMeasure{
			Title:       m.String("title"),
			Description: m.String("description"),
			TimeFrame:   m.String("timeFrame"),
		})
	}

	return &types.TrialResults{
		HasOutcomeData:   len(measures) > 0,
		OutcomeMeasures:  digest,
		HasAdverseEvents: !section.Map("adverseEventsModule").Empty(),
		ResultsSummary:   fmt.Sprintf("%d outcome measures reported", len(measures)),
	}
}
