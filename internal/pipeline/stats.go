// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import "github.com/pdiddy/trialscope/pkg/types"

// unknownStatus labels trials that carry no overall status.
const unknownStatus = "UNKNOWN"

// ComputeStatistics aggregates trial counts over every successful query.
// Rates are percentages; the average duration covers only trials whose
// month count is known. DiseasesStudied counts terms with at least one
// trial.
func ComputeStatistics(results map[string]*types.QueryResult) types.SummaryStatistics {
	s := types.SummaryStatistics{
		StatusDistribution: map[string]int{},
		PhaseDistribution:  map[string]int{},
	}

	var monthsSum float64
	var monthsN int
	for _, qr := range results {
		if qr == nil || len(qr.Studies) == 0 {
			continue
		}
		s.DiseasesStudied++
		for _, t := range qr.Studies {
			s.TotalTrials++
			if t.IsComplete {
				s.CompletedTrials++
			}
			if t.HasResults {
				s.TrialsWithResults++
			}
			if t.Duration.Months != nil {
				monthsSum += *t.Duration.Months
				monthsN++
			}
			status := t.OverallStatus
			if status == "" {
				status = unknownStatus
			}
			s.StatusDistribution[status]++
			for _, p := range t.Phases {
				s.PhaseDistribution[p]++
			}
		}
	}

	s.OngoingTrials = s.TotalTrials - s.CompletedTrials
	if s.TotalTrials > 0 {
		s.CompletionRate = 100 * float64(s.CompletedTrials) / float64(s.TotalTrials)
		s.ResultsRate = 100 * float64(s.TrialsWithResults) / float64(s.TotalTrials)
	}
	if monthsN > 0 {
		s.AverageDurationMonths = monthsSum / float64(monthsN)
	}
	return s
}
