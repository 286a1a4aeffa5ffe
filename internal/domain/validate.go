package domain

import (
	"fmt"
	"strings"
	"time"
)

var (
	criticalCanonical = []Column{ColMinTemp, ColMaxTemp, ColDailyRain}
	criticalForecast  = []Column{ColMinTemperature, ColMaxTemperature, ColTotalPrecipitation}
)

// CheckCompatibility reports every reason hist and fc cannot be merged under policy.
// It never fails: ok is true when violations is empty. transition is informational
// and does not change the checks.
func CheckCompatibility(hist, fc Series, transition *time.Time, policy OverlapPolicy) (bool, []string) {
	var violations []string

	histDated, fcDated := hist.HasDate(), fc.HasDate()
	if !histDated {
		violations = append(violations, "historical series missing 'date' column")
	}
	if !fcDated {
		violations = append(violations, "forecast series missing 'date' column")
	}

	if policy == OverlapError && histDated && fcDated {
		histMax, okH := hist.MaxDate()
		fcMin, okF := fc.MinDate()
		if okH && okF {
			gap := daysBetween(histMax, fcMin) - 1
			switch {
			case gap > 1:
				violations = append(violations, fmt.Sprintf(
					"date gap detected: historical ends %s, forecast starts %s, gap: %d days",
					histMax.Format(DateLayout), fcMin.Format(DateLayout), gap))
			case gap < 0:
				violations = append(violations, fmt.Sprintf(
					"date overlap detected: %d days overlap; set overlap policy to %q or %q",
					-gap, PreferHistorical, PreferForecast))
			}
		}
	}

	if missing := missingColumns(hist, criticalCanonical); len(missing) > 0 {
		violations = append(violations, fmt.Sprintf(
			"historical series missing critical columns: %s", joinColumns(missing)))
	}
	if len(missingColumns(fc, criticalForecast)) > 0 && len(missingColumns(fc, criticalCanonical)) > 0 {
		violations = append(violations, fmt.Sprintf(
			"forecast series missing critical columns: expected either forecast format [%s] or historical format [%s]",
			joinColumns(criticalForecast), joinColumns(criticalCanonical)))
	}

	return len(violations) == 0, violations
}

// CheckDateContinuity reports whether b starts no more than maxGapDays after a ends.
// Overlapping series are continuous. Empty or undated series are not.
func CheckDateContinuity(a, b Series, maxGapDays int) (bool, string) {
	aMax, okA := a.MaxDate()
	bMin, okB := b.MinDate()
	if !okA || !okB {
		return false, "both series need a date column and at least one row"
	}
	gap := daysBetween(aMax, bMin) - 1
	if gap > maxGapDays {
		return false, fmt.Sprintf("gap of %d days between %s and %s exceeds %d",
			gap, aMax.Format(DateLayout), bMin.Format(DateLayout), maxGapDays)
	}
	return true, ""
}

// daysBetween counts whole days from one date to another. It works on Unix seconds
// because time.Duration saturates at about 292 years.
func daysBetween(from, to time.Time) int {
	return int((NormalizeDate(to).Unix() - NormalizeDate(from).Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

func missingColumns(s Series, want []Column) []Column {
	var out []Column
	for _, c := range want {
		if !s.HasColumn(c) {
			out = append(out, c)
		}
	}
	return out
}

func joinColumns(cols []Column) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.String()
	}
	return strings.Join(names, ", ")
}
