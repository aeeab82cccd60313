package validation

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/tide-chart-service/internal/domain"
)

// timeoutCheckStride is how many samples are validated between cooperative
// deadline checks. The check at entry catches callers that arrive already
// expired; the in-loop checks keep very large series from overrunning a
// deadline by an unbounded amount.
const timeoutCheckStride = 256

// Options toggles the optional behaviors of a validation run. The zero
// value gives the defaults: warnings on, strict off, performance off, no
// record cap.
type Options struct {
	// DisableWarnings skips the soft-quality scans.
	DisableWarnings bool

	// StrictMode adds precision and explicit-timezone checks on top of
	// the normal per-sample rules.
	StrictMode bool

	// PerformanceMode replaces the calendar-correct timestamp parse with
	// a regex shape check and skips the soft-quality scans.
	PerformanceMode bool

	// MaxRecords truncates the input to the first N samples when
	// positive. Truncation itself is not an error.
	MaxRecords int
}

// Engine orchestrates structural checks, per-sample checks via the
// injected field validator, duplicate and timeout handling, failure
// categorization, warning generation, and transformation.
type Engine struct {
	fields    domain.FieldValidator
	transform domain.Transformer
}

// NewEngine creates an Engine. Nil collaborators fall back to the default
// tide rule set and transformer.
func NewEngine(fields domain.FieldValidator, transform domain.Transformer) *Engine {
	if fields == nil {
		fields = domain.NewFieldValidator()
	}
	if transform == nil {
		transform = domain.NewTransformer(fields)
	}
	return &Engine{fields: fields, transform: transform}
}

// ValidateComprehensively runs the full pipeline over a sample series:
// structural checks, duplicate scan, per-sample checks, categorization,
// transformation of the valid subset, and soft-quality warnings.
//
// Failure semantics: a critical finding yields no data and no warnings; an
// error-level finding yields the transformed valid subset alongside the
// errors; warnings alone leave IsValid true with the full data set.
func (e *Engine) ValidateComprehensively(ctx context.Context, samples []domain.RawSample, opts Options) Result {
	start := domain.Now()

	// An already-expired deadline at entry means nothing was processed;
	// surfaced critical-style rather than as an advisory finding.
	if ctx.Err() != nil {
		return criticalResult(Error{
			Code:     FailureProcessingTimeout,
			Severity: SeverityCritical,
			Message:  "validation aborted before processing: " + ctx.Err().Error(),
			Index:    NoIndex,
		}, 0, start)
	}

	if samples == nil {
		return criticalResult(Categorize([]Failure{{Code: FailureStructure, Index: NoIndex, Value: "sample series is missing"}})[0], 0, start)
	}
	if opts.MaxRecords > 0 && len(samples) > opts.MaxRecords {
		samples = samples[:opts.MaxRecords]
	}
	if len(samples) == 0 {
		return criticalResult(Categorize([]Failure{{Code: FailureEmptyData, Index: NoIndex}})[0], 0, start)
	}

	// A repeated raw timestamp means the series was assembled wrong
	// upstream; per-sample validation of the rest is not attempted.
	if dup, at := findDuplicate(samples); at != NoIndex {
		errs := Categorize([]Failure{{Code: FailureDuplicateTimestamp, Index: at, Field: "time", Value: dup}})
		valid := make([]domain.RawSample, 0, len(samples)-1)
		valid = append(valid, samples[:at]...)
		valid = append(valid, samples[at+1:]...)
		data, ok := e.safeTransform(valid)
		if !ok {
			return criticalResult(transformFailure(), len(samples), start)
		}
		return Result{
			IsValid: false,
			Errors:  errs,
			Data:    data,
			Summary: newSummary(len(samples), len(valid), errs, nil, start),
		}
	}

	failures := e.checkSamples(ctx, samples, opts)
	errs := Categorize(failures)

	for _, err := range errs {
		if err.Severity == SeverityCritical {
			return criticalResult(err, len(samples), start)
		}
	}

	valid := excludeErrorSamples(samples, errs)

	var data []domain.TideReading
	if len(valid) > 0 {
		var ok bool
		data, ok = e.safeTransform(valid)
		if !ok {
			return criticalResult(transformFailure(), len(samples), start)
		}
	}

	var warnings []Warning
	if !opts.PerformanceMode && !opts.DisableWarnings {
		warnings = GenerateWarnings(valid, opts.StrictMode)
	}

	return Result{
		IsValid:  len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
		Data:     data,
		Summary:  newSummary(len(samples), len(valid), errs, warnings, start),
	}
}

// ValidateBasic runs only the structural, duplicate, and per-sample checks
// with default options: no warnings, no transformation, no summary.
func (e *Engine) ValidateBasic(samples []domain.RawSample) (bool, []Error) {
	if samples == nil {
		errs := Categorize([]Failure{{Code: FailureStructure, Index: NoIndex, Value: "sample series is missing"}})
		return false, errs
	}
	if len(samples) == 0 {
		errs := Categorize([]Failure{{Code: FailureEmptyData, Index: NoIndex}})
		return false, errs
	}
	if dup, at := findDuplicate(samples); at != NoIndex {
		errs := Categorize([]Failure{{Code: FailureDuplicateTimestamp, Index: at, Field: "time", Value: dup}})
		return false, errs
	}
	errs := Categorize(e.checkSamples(context.Background(), samples, Options{}))
	return len(errs) == 0, errs
}

// ValidateInStages is an alias of the comprehensive path kept for callers
// that phase their options in separately.
func (e *Engine) ValidateInStages(ctx context.Context, samples []domain.RawSample, opts Options) Result {
	return e.ValidateComprehensively(ctx, samples, opts)
}

// checkSamples applies the per-sample strategy selected by the options and
// returns the raw failures. It checkpoints the context deadline every
// timeoutCheckStride samples; on expiry the remaining samples are left
// unchecked and an advisory timeout failure is recorded.
func (e *Engine) checkSamples(ctx context.Context, samples []domain.RawSample, opts Options) []Failure {
	var failures []Failure
	for i, s := range samples {
		if i > 0 && i%timeoutCheckStride == 0 && ctx.Err() != nil {
			failures = append(failures, Failure{
				Code:  FailureProcessingTimeout,
				Index: i,
				Value: fmt.Sprintf("checked %d of %d samples", i, len(samples)),
			})
			break
		}

		if opts.PerformanceMode {
			if !domain.HasTimestampShape(s.Time) {
				failures = append(failures, Failure{Code: FailureInvalidTimeFormat, Index: i, Field: "time", Value: s.Time})
				// Shape failure short-circuits the numeric check; this
				// mode trades completeness of findings for speed.
				continue
			}
			if !e.fields.ValidateTideRange(s.Level) {
				failures = append(failures, Failure{Code: FailureTideOutOfRange, Index: i, Field: "level", Value: formatLevel(s.Level)})
			}
			continue
		}

		if !e.fields.ValidateTimeFormat(s.Time) {
			failures = append(failures, Failure{Code: FailureInvalidTimeFormat, Index: i, Field: "time", Value: s.Time})
		}
		if !e.fields.ValidateTideRange(s.Level) {
			failures = append(failures, Failure{Code: FailureTideOutOfRange, Index: i, Field: "level", Value: formatLevel(s.Level)})
		}

		if opts.StrictMode {
			if domain.DecimalPlaces(s.Level) > domain.MaxLevelDecimals {
				failures = append(failures, Failure{Code: FailurePrecisionExceeded, Index: i, Field: "level", Value: formatLevel(s.Level)})
			}
			if !domain.HasExplicitZone(s.Time) {
				failures = append(failures, Failure{Code: FailureTimezoneMissing, Index: i, Field: "time", Value: s.Time})
			}
		}
	}
	return failures
}

// safeTransform runs the injected transformer, converting a panic into a
// failed transform so collaborator bugs never leak past the engine.
func (e *Engine) safeTransform(valid []domain.RawSample) (data []domain.TideReading, ok bool) {
	defer func() {
		if recover() != nil {
			data, ok = nil, false
		}
	}()
	return e.transform.Transform(valid), true
}

// findDuplicate returns the first repeated raw timestamp and the index of
// its second occurrence, or ("", NoIndex) when all timestamps are unique.
func findDuplicate(samples []domain.RawSample) (string, int) {
	seen := make(map[string]struct{}, len(samples))
	for i, s := range samples {
		if _, dup := seen[s.Time]; dup {
			return s.Time, i
		}
		seen[s.Time] = struct{}{}
	}
	return "", NoIndex
}

// excludeErrorSamples returns the samples whose index is not referenced by
// any categorized error. Warnings never remove a sample.
func excludeErrorSamples(samples []domain.RawSample, errs []Error) []domain.RawSample {
	if len(errs) == 0 {
		return samples
	}
	bad := make(map[int]struct{}, len(errs))
	for _, e := range errs {
		if e.Index >= 0 && e.Severity <= SeverityError {
			bad[e.Index] = struct{}{}
		}
	}
	valid := make([]domain.RawSample, 0, len(samples))
	for i, s := range samples {
		if _, skip := bad[i]; !skip {
			valid = append(valid, s)
		}
	}
	return valid
}

func criticalResult(err Error, total int, start time.Time) Result {
	return Result{
		IsValid: false,
		Errors:  []Error{err},
		Summary: newSummary(total, 0, []Error{err}, nil, start),
	}
}

func transformFailure() Error {
	return Error{
		Code:     FailureStructure,
		Severity: SeverityCritical,
		Message:  "transforming the valid samples failed",
		Index:    NoIndex,
	}
}

func newSummary(total, valid int, errs []Error, warnings []Warning, start time.Time) Summary {
	elapsed := domain.Now().Sub(start)
	return Summary{
		TotalRecords:     total,
		ValidRecords:     valid,
		ErrorRecords:     countIndexed(errs),
		WarningRecords:   countWarned(warnings),
		ProcessingTime:   elapsed,
		ProcessingTimeMs: elapsed.Milliseconds(),
	}
}

// countIndexed counts the distinct sample indices referenced by
// sample-removing errors. Warning-severity entries point at samples that
// stay in the valid set, so counting them would double-book the sample.
func countIndexed(errs []Error) int {
	seen := make(map[int]struct{}, len(errs))
	for _, e := range errs {
		if e.Index >= 0 && e.Severity <= SeverityError {
			seen[e.Index] = struct{}{}
		}
	}
	return len(seen)
}

// countWarned counts the distinct sample indices referenced by warnings.
func countWarned(warnings []Warning) int {
	seen := make(map[int]struct{}, len(warnings))
	for _, w := range warnings {
		if w.Index >= 0 {
			seen[w.Index] = struct{}{}
		}
	}
	return len(seen)
}

func formatLevel(level float64) string {
	return fmt.Sprintf("%g", level)
}
