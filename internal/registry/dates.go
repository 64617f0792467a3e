// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"fmt"
	"math"
	"time"

	"github.com/pdiddy/trialscope/pkg/types"
)

// dateLayouts are the registry date shapes, tried in order.
var dateLayouts = []string{"2006-01-02", "2006-01", "2006"}

const (
	daysPerMonth = 30.44
	daysPerYear  = 365.25
)

// ParseDate parses a registry date in YYYY-MM-DD, YYYY-MM, or YYYY form.
// Partial dates resolve to the first day of the month or year.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// wallClock reinterprets now's local wall-clock reading as UTC so it
// compares directly with dates from ParseDate.
func wallClock(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(),
		now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), time.UTC)
}

// ComputeDuration derives a trial's length from its start and completion
// dates. With no completion date an incomplete trial is measured up to now.
// A date that fails to parse yields an unknown duration and the parse error;
// callers treat the error as a warning.
func ComputeDuration(start, completion string, isComplete bool, now time.Time) (types.Duration, error) {
	d := types.Duration{Status: types.DurationUnknown}
	if start == "" {
		return d, nil
	}

	from, err := ParseDate(start)
	if err != nil {
		return d, fmt.Errorf("start date: %w", err)
	}

	switch {
	case completion != "":
		to, err := ParseDate(completion)
		if err != nil {
			return d, fmt.Errorf("completion date: %w", err)
		}
		setSpan(&d, from, to)
		d.Status = types.DurationExpected
		if isComplete {
			d.Status = types.DurationActual
		}
	case isComplete:
		d.Status = types.DurationCompletedNoDate
	default:
		setSpan(&d, from, wallClock(now))
		d.Status = types.DurationOngoing
	}
	return d, nil
}

func setSpan(d *types.Duration, from, to time.Time) {
	days := int(math.Floor(to.Sub(from).Hours() / 24))
	months := math.RoundToEven(float64(days) / daysPerMonth)
	years := math.RoundToEven(float64(days)/daysPerYear*10) / 10
	d.Days = &days
	d.Months = &months
	d.Years = &years
}

// CompletionCutoff returns the date before which a completed trial is too
// old to keep: now minus yearsBack 365-day years.
func CompletionCutoff(now time.Time, yearsBack int) time.Time {
	return wallClock(now).AddDate(0, 0, -365*yearsBack)
}
