package domain

import (
	"fmt"
	"math"
)

// Transformer converts raw samples into chart-ready readings. The
// validation engine only ever calls Transform on an already-filtered valid
// subset; ValidateAndTransform is the standalone entry point for callers
// that skip the engine.
type Transformer interface {
	Transform(samples []RawSample) []TideReading
	ValidateAndTransform(samples []RawSample) ([]TideReading, error)
}

// ReadingTransformer is the default Transformer: parse the timestamp,
// round the level to the gauge's reporting precision, and stamp the unit.
type ReadingTransformer struct {
	validator FieldValidator
}

// NewTransformer creates a ReadingTransformer backed by the given field
// validator. Pass nil to use the default rule set.
func NewTransformer(validator FieldValidator) *ReadingTransformer {
	if validator == nil {
		validator = NewFieldValidator()
	}
	return &ReadingTransformer{validator: validator}
}

// Transform converts samples to readings, skipping any entry whose
// timestamp no longer parses. It never fails: the caller has already
// validated the input, so a skip here only covers rule-set drift between
// validator and transformer.
func (t *ReadingTransformer) Transform(samples []RawSample) []TideReading {
	readings := make([]TideReading, 0, len(samples))
	for _, s := range samples {
		ts, err := ParseSampleTime(s.Time)
		if err != nil {
			continue
		}
		readings = append(readings, TideReading{
			Time:  ts,
			Level: roundToPrecision(s.Level),
			Unit:  LevelUnit,
		})
	}
	return readings
}

// ValidateAndTransform converts samples to readings, failing on the first
// sample that does not satisfy the field validator.
func (t *ReadingTransformer) ValidateAndTransform(samples []RawSample) ([]TideReading, error) {
	readings := make([]TideReading, 0, len(samples))
	for i, s := range samples {
		if !t.validator.ValidateTimeFormat(s.Time) {
			return nil, fmt.Errorf("sample %d: invalid timestamp %q", i, s.Time)
		}
		if !t.validator.ValidateTideRange(s.Level) {
			return nil, fmt.Errorf("sample %d: level %g out of range", i, s.Level)
		}
		ts, err := ParseSampleTime(s.Time)
		if err != nil {
			return nil, fmt.Errorf("sample %d: parse timestamp: %w", i, err)
		}
		readings = append(readings, TideReading{
			Time:  ts,
			Level: roundToPrecision(s.Level),
			Unit:  LevelUnit,
		})
	}
	return readings, nil
}

// roundToPrecision rounds a level to the gauge reporting precision so
// downstream payloads do not carry float artifacts like 123.40000000000001.
func roundToPrecision(level float64) float64 {
	shift := math.Pow(10, MaxLevelDecimals)
	return math.Round(level*shift) / shift
}
