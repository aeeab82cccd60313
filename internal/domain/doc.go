// Package domain models tide-gauge sample data for the chart service.
//
// # Data Source
//
// Tide samples originate from coastal station gauges. The upstream
// collector polls each station, normalizes readings to centimeters
// relative to the station datum, and publishes one ChartRequest per
// station/series to the Kafka source topic.
//
// # Sample Conventions
//
// Timestamp format:
//
//	ISO-8601, ideally full RFC 3339: "2025-01-29T06:00:00Z".
//	Zone-less forms ("2025-01-29T06:00") are accepted in the default rule
//	set and interpreted as UTC; strict validation requires an explicit
//	"Z" or numeric offset so series from different collectors cannot be
//	silently mixed across zones.
//
// Level encoding:
//
//	Centimeters relative to the station datum, negative below datum.
//	The plausible window is [MinTideLevel, MaxTideLevel]; anything
//	outside is treated as a gauge fault, not an extreme tide. Gauges
//	report at most two decimal places; finer precision in strict mode
//	indicates unconverted or corrupted upstream data.
//
// # Validation Rule Sets
//
// [FieldValidator] is the injection point for per-field rules. The default
// [TideFieldValidator] does calendar-correct timestamp parsing plus the
// range check; performance-sensitive callers use the regex shape check
// [HasTimestampShape] instead of a full parse, accepting impossible dates
// like February 30th in exchange.
//
// # Transformation
//
// [ReadingTransformer] converts validated samples into [TideReading]
// values: parsed UTC time, level rounded to reporting precision, unit
// stamped. The non-failing Transform is what the validation engine calls
// on the filtered valid subset; ValidateAndTransform is for callers that
// bypass the engine and want a hard failure on the first bad sample.
package domain
