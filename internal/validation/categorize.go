package validation

import (
	"fmt"
	"sort"

	"github.com/couchcryptid/tide-chart-service/internal/domain"
)

// severityFor maps each failure code to its fixed severity. Codes absent
// from this table are treated as structural errors so a failure is never
// silently dropped.
var severityFor = map[FailureCode]Severity{
	FailureStructure:          SeverityCritical,
	FailureEmptyData:          SeverityCritical,
	FailureInvalidTimeFormat:  SeverityError,
	FailureTideOutOfRange:     SeverityError,
	FailureDuplicateTimestamp: SeverityError,
	FailurePrecisionExceeded:  SeverityError,
	FailureTimezoneMissing:    SeverityError,
	FailureDataQuality:        SeverityWarning,
	FailureProcessingTimeout:  SeverityWarning,
}

// Categorize maps raw failures into categorized errors with severity and a
// synthesized message, stable-sorted worst-first. It is pure and never
// drops a failure: unknown codes become generic structural entries at
// error severity.
func Categorize(failures []Failure) []Error {
	errs := make([]Error, 0, len(failures))
	for _, f := range failures {
		errs = append(errs, categorizeOne(f))
	}
	sort.SliceStable(errs, func(i, j int) bool {
		return errs[i].Severity < errs[j].Severity
	})
	return errs
}

func categorizeOne(f Failure) Error {
	code := f.Code
	severity, known := severityFor[code]
	if !known {
		code = FailureStructure
		severity = SeverityError
	}

	e := Error{
		Code:     code,
		Severity: severity,
		Message:  messageFor(f, known),
		Field:    f.Field,
		Index:    f.Index,
	}
	if f.Value != "" {
		e.Context = map[string]string{"value": f.Value}
	}
	if !known {
		if e.Context == nil {
			e.Context = map[string]string{}
		}
		e.Context["original_code"] = string(f.Code)
	}
	return e
}

func messageFor(f Failure, known bool) string {
	if !known {
		return fmt.Sprintf("unrecognized validation failure %q at sample %d", f.Code, f.Index)
	}

	switch f.Code {
	case FailureStructure:
		if f.Value != "" {
			return "sample data is structurally invalid: " + f.Value
		}
		return "sample data is structurally invalid"
	case FailureEmptyData:
		return "no samples to validate"
	case FailureInvalidTimeFormat:
		return fmt.Sprintf("sample %d has an unparsable timestamp %q", f.Index, f.Value)
	case FailureTideOutOfRange:
		return fmt.Sprintf("sample %d level %s %s is outside the plausible range [%g, %g]",
			f.Index, f.Value, domain.LevelUnit, domain.MinTideLevel, domain.MaxTideLevel)
	case FailureDuplicateTimestamp:
		return fmt.Sprintf("sample %d repeats timestamp %q", f.Index, f.Value)
	case FailurePrecisionExceeded:
		return fmt.Sprintf("sample %d level %s carries more than %d decimal places",
			f.Index, f.Value, domain.MaxLevelDecimals)
	case FailureTimezoneMissing:
		return fmt.Sprintf("sample %d timestamp %q has no explicit timezone", f.Index, f.Value)
	case FailureDataQuality:
		if f.Value != "" {
			return "data quality finding: " + f.Value
		}
		return "data quality finding"
	case FailureProcessingTimeout:
		if f.Value != "" {
			return "validation timed out: " + f.Value
		}
		return "validation timed out"
	default:
		return fmt.Sprintf("validation failure %q at sample %d", f.Code, f.Index)
	}
}
