package domain

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Tide level bounds in centimeters relative to the station datum. Readings
// outside this window are physically implausible for the supported gauges
// and are rejected rather than charted.
const (
	MinTideLevel = -500.0
	MaxTideLevel = 500.0

	// LevelUnit is the unit every reading is normalized to.
	LevelUnit = "cm"

	// MaxLevelDecimals is the finest precision a gauge reports. Strict
	// validation rejects levels with more decimal places because they
	// indicate unconverted or corrupted upstream data.
	MaxLevelDecimals = 2
)

var (
	// isoTimestampRe is the cheap shape-only check used in performance
	// mode: date, "T", time, optional seconds/fraction, optional zone.
	isoTimestampRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}(:\d{2}(\.\d+)?)?(Z|[+-]\d{2}:?\d{2})?$`)

	// timestampLayouts are tried in order for calendar-correct parsing.
	// Zone-less layouts are interpreted as UTC.
	timestampLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
	}
)

// FieldValidator checks individual sample fields. The validation engine is
// written against this interface so strict and lenient rule sets can be
// swapped without touching orchestration.
type FieldValidator interface {
	ValidateTimeFormat(timestamp string) bool
	ValidateTideRange(level float64) bool
}

// TideFieldValidator is the default rule set: calendar-correct ISO-8601
// timestamps and levels within the plausible tide window.
type TideFieldValidator struct{}

// NewFieldValidator returns the default tide field validator.
func NewFieldValidator() *TideFieldValidator {
	return &TideFieldValidator{}
}

// ValidateTimeFormat reports whether the timestamp parses as a real
// calendar instant. "2025-02-30T06:00:00Z" fails here even though it
// matches the ISO shape.
func (v *TideFieldValidator) ValidateTimeFormat(timestamp string) bool {
	_, err := ParseSampleTime(timestamp)
	return err == nil
}

// ValidateTideRange reports whether the level is finite and inside the
// plausible tide window.
func (v *TideFieldValidator) ValidateTideRange(level float64) bool {
	if math.IsNaN(level) || math.IsInf(level, 0) {
		return false
	}
	return level >= MinTideLevel && level <= MaxTideLevel
}

// ParseSampleTime parses a sample timestamp, trying full RFC 3339 first
// and falling back to zone-less layouts interpreted as UTC.
func ParseSampleTime(timestamp string) (time.Time, error) {
	s := strings.TrimSpace(timestamp)
	var firstErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// HasTimestampShape is the regex-only timestamp check used in performance
// mode. It accepts impossible dates like February 30th; callers trade that
// away for skipping the calendar parse.
func HasTimestampShape(timestamp string) bool {
	return isoTimestampRe.MatchString(strings.TrimSpace(timestamp))
}

// HasExplicitZone reports whether the timestamp carries a UTC marker or a
// numeric offset. Strict validation requires one so series from different
// collectors cannot be silently mixed across zones.
func HasExplicitZone(timestamp string) bool {
	s := strings.TrimSpace(timestamp)
	if strings.HasSuffix(s, "Z") {
		return true
	}
	// An offset sign after the "T" separator; the date's own hyphens
	// must not count.
	sep := strings.IndexByte(s, 'T')
	if sep < 0 {
		return false
	}
	rest := s[sep+1:]
	return strings.ContainsAny(rest, "+-")
}

// DecimalPlaces counts the digits after the decimal point in the shortest
// round-trip representation of the level. Shortest formatting matches what
// the gauge reported rather than binary representation noise.
func DecimalPlaces(level float64) int {
	s := strconv.FormatFloat(level, 'f', -1, 64)
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return 0
	}
	return len(s) - dot - 1
}
