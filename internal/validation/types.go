package validation

import (
	"time"

	"github.com/couchcryptid/tide-chart-service/internal/domain"
)

// Severity ranks a validation finding. Critical findings abort processing,
// error findings remove individual samples from the chart, warnings are
// advisory only.
type Severity int

const (
	SeverityCritical Severity = iota
	SeverityError
	SeverityWarning
)

// String returns the wire form of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the severity as its wire string.
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// FailureCode identifies what went wrong with a sample or a whole series.
// Each code has a fixed severity assigned by the categorizer.
type FailureCode string

const (
	FailureStructure          FailureCode = "structure_error"
	FailureEmptyData          FailureCode = "empty_data"
	FailureInvalidTimeFormat  FailureCode = "invalid_time_format"
	FailureTideOutOfRange     FailureCode = "tide_out_of_range"
	FailureDuplicateTimestamp FailureCode = "duplicate_timestamp"
	FailurePrecisionExceeded  FailureCode = "precision_exceeded"
	FailureTimezoneMissing    FailureCode = "timezone_missing"
	FailureDataQuality        FailureCode = "data_quality"
	FailureProcessingTimeout  FailureCode = "processing_timeout"
)

// NoIndex marks a failure that refers to the whole series rather than a
// single sample.
const NoIndex = -1

// Failure is a raw validation finding before categorization: a code plus
// a strongly-typed payload identifying the offending sample and value.
type Failure struct {
	Code  FailureCode
	Index int
	Field string
	Value string
}

// Error is a categorized validation failure with severity and a
// human-readable message.
type Error struct {
	Code     FailureCode       `json:"code"`
	Severity Severity          `json:"severity"`
	Message  string            `json:"message"`
	Field    string            `json:"field,omitempty"`
	Index    int               `json:"index"`
	Context  map[string]string `json:"context,omitempty"`
}

// WarningCode identifies a soft-quality finding on otherwise-valid samples.
type WarningCode string

const (
	WarnNearUpperBound WarningCode = "near_upper_bound"
	WarnNearLowerBound WarningCode = "near_lower_bound"
	WarnOutOfSequence  WarningCode = "out_of_sequence"
	WarnSparseSeries   WarningCode = "sparse_series"
)

// Warning is a soft-quality finding. Warnings never remove a sample from
// the valid set.
type Warning struct {
	Code       WarningCode `json:"code"`
	Message    string      `json:"message"`
	Field      string      `json:"field,omitempty"`
	Index      int         `json:"index"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// Summary holds the per-run record counts and elapsed processing time.
// It is recomputed on every run and never mutated afterwards.
type Summary struct {
	TotalRecords   int           `json:"totalRecords"`
	ValidRecords   int           `json:"validRecords"`
	ErrorRecords   int           `json:"errorRecords"`
	WarningRecords int           `json:"warningRecords"`
	ProcessingTime time.Duration `json:"-"`

	// ProcessingTimeMs mirrors ProcessingTime for JSON consumers.
	ProcessingTimeMs int64 `json:"processingTimeMs"`
}

// Result is the single source of truth handed downstream after a
// validation run. Data is nil when no sample survived transformation.
type Result struct {
	IsValid  bool                 `json:"isValid"`
	Errors   []Error              `json:"errors"`
	Warnings []Warning            `json:"warnings"`
	Data     []domain.TideReading `json:"data,omitempty"`
	Summary  Summary              `json:"summary"`
}
