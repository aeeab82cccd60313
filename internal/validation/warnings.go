package validation

import (
	"fmt"
	"time"

	"github.com/couchcryptid/tide-chart-service/internal/domain"
)

const (
	// boundaryProximity flags levels this close to the valid bounds, in
	// the level unit. Readings hugging the gauge limits usually mean the
	// sensor is saturating rather than the tide genuinely peaking there.
	boundaryProximity = 20.0

	// maxSampleGap is the largest acceptable spacing between consecutive
	// samples before the series is considered too sparse to chart
	// faithfully.
	maxSampleGap = 6 * time.Hour
)

// GenerateWarnings inspects structurally-valid samples for soft quality
// issues. It is pure, returns nil for an empty slice, and runs three
// independent scans whose findings are concatenated in scan order:
// boundary proximity, time-sequence monotonicity, data density. Strict
// mode doubles the boundary proximity threshold so saturation is flagged
// earlier.
func GenerateWarnings(samples []domain.RawSample, strict bool) []Warning {
	if len(samples) == 0 {
		return nil
	}

	proximity := boundaryProximity
	if strict {
		proximity *= 2
	}

	var warnings []Warning
	warnings = append(warnings, boundaryWarnings(samples, proximity)...)
	warnings = append(warnings, sequenceWarnings(samples)...)
	warnings = append(warnings, densityWarnings(samples)...)
	return warnings
}

func boundaryWarnings(samples []domain.RawSample, proximity float64) []Warning {
	var warnings []Warning
	for i, s := range samples {
		switch {
		case domain.MaxTideLevel-s.Level <= proximity && s.Level <= domain.MaxTideLevel:
			warnings = append(warnings, Warning{
				Code:       WarnNearUpperBound,
				Message:    fmt.Sprintf("sample %d level %g %s is within %g of the upper bound %g", i, s.Level, domain.LevelUnit, proximity, domain.MaxTideLevel),
				Field:      "level",
				Index:      i,
				Suggestion: "verify the gauge's measurement precision near its upper limit",
			})
		case s.Level-domain.MinTideLevel <= proximity && s.Level >= domain.MinTideLevel:
			warnings = append(warnings, Warning{
				Code:       WarnNearLowerBound,
				Message:    fmt.Sprintf("sample %d level %g %s is within %g of the lower bound %g", i, s.Level, domain.LevelUnit, proximity, domain.MinTideLevel),
				Field:      "level",
				Index:      i,
				Suggestion: "verify the gauge's measurement precision near its lower limit",
			})
		}
	}
	return warnings
}

func sequenceWarnings(samples []domain.RawSample) []Warning {
	var warnings []Warning
	for i := 1; i < len(samples); i++ {
		prev, errPrev := domain.ParseSampleTime(samples[i-1].Time)
		cur, errCur := domain.ParseSampleTime(samples[i].Time)
		if errPrev != nil || errCur != nil {
			continue
		}
		if cur.Before(prev) {
			warnings = append(warnings, Warning{
				Code:       WarnOutOfSequence,
				Message:    fmt.Sprintf("sample %d timestamp %q is earlier than sample %d timestamp %q", i, samples[i].Time, i-1, samples[i-1].Time),
				Field:      "time",
				Index:      i,
				Suggestion: "re-sort the series by timestamp before charting",
			})
		}
	}
	return warnings
}

func densityWarnings(samples []domain.RawSample) []Warning {
	var warnings []Warning
	for i := 1; i < len(samples); i++ {
		prev, errPrev := domain.ParseSampleTime(samples[i-1].Time)
		cur, errCur := domain.ParseSampleTime(samples[i].Time)
		if errPrev != nil || errCur != nil {
			continue
		}
		if gap := cur.Sub(prev); gap > maxSampleGap {
			warnings = append(warnings, Warning{
				Code:       WarnSparseSeries,
				Message:    fmt.Sprintf("gap of %.1f hours between samples %d and %d exceeds %.0f hours", gap.Hours(), i-1, i, maxSampleGap.Hours()),
				Field:      "time",
				Index:      i,
				Suggestion: "review the station's acquisition frequency",
			})
		}
	}
	return warnings
}
