// Package fallback decides how much of a tide chart can still be rendered
// after validation and produces the localized, user-facing messaging for
// whatever was lost. It is defensive by contract: malformed input yields a
// safe tabular fallback, never a panic or an empty screen.
package fallback

import (
	"encoding/json"
	"fmt"

	"golang.org/x/text/language"

	"github.com/couchcryptid/tide-chart-service/internal/validation"
)

// FallbackType is the degraded rendering mode chosen when some fraction of
// the input data is invalid.
type FallbackType string

const (
	// FallbackNone renders the full chart as if the data were fully valid.
	FallbackNone FallbackType = "none"
	// FallbackPartialChart renders the valid subset with a notice.
	FallbackPartialChart FallbackType = "partial-chart"
	// FallbackSimpleChart renders a reduced-fidelity chart.
	FallbackSimpleChart FallbackType = "simple-chart"
	// FallbackTable abandons charting for a tabular dump.
	FallbackTable FallbackType = "table"
)

// Validity-percentage thresholds selecting the fallback mode.
const (
	fullRenderPercent   = 80.0
	partialChartPercent = 50.0
	simpleChartPercent  = 20.0
)

// errorFloodThreshold is the error count above which individual counting
// stops being useful messaging.
const errorFloodThreshold = 1000

// maxMessageRunes caps any user-facing message; longer text is truncated
// with an ellipsis.
const maxMessageRunes = 200

// DisplayInfo is one user-facing banner entry plus the chosen fallback.
type DisplayInfo struct {
	Level        validation.Severity `json:"level"`
	Title        string              `json:"title"`
	Message      string              `json:"message"`
	Suggestion   string              `json:"suggestion,omitempty"`
	FallbackType FallbackType        `json:"fallbackType"`
	DebugInfo    string              `json:"debugInfo,omitempty"`
}

// Options tunes message production.
type Options struct {
	// Locale requests a message set; unsupported locales fall back to
	// English.
	Locale string

	// Debug attaches a JSON count summary to each entry.
	Debug bool
}

// Handler turns validation results into display entries. Construct once
// and share; it is stateless after construction.
type Handler struct {
	catalogs map[string]catalog
	matcher  language.Matcher
}

// NewHandler loads the bundled locale catalogs.
func NewHandler() (*Handler, error) {
	catalogs, err := loadCatalogs()
	if err != nil {
		return nil, err
	}
	return &Handler{
		catalogs: catalogs,
		matcher:  language.NewMatcher(supportedLocales),
	}, nil
}

// ProcessError maps a validation result to zero or more display entries,
// ordered worst-first, each carrying the chosen fallback type. It never
// panics: nil or malformed input yields a single critical data-read entry
// with the tabular fallback.
func (h *Handler) ProcessError(result *validation.Result, opts Options) (infos []DisplayInfo) {
	c := h.resolveCatalog(opts.Locale)

	defer func() {
		if recover() != nil {
			infos = []DisplayInfo{h.dataReadEntry(c, "", opts)}
		}
	}()

	if result == nil {
		return []DisplayInfo{h.dataReadEntry(c, "", opts)}
	}

	debug := ""
	if opts.Debug {
		debug = debugSummary(result)
	}

	// A critical finding short-circuits: nothing else in the same result
	// is separately reported.
	for _, e := range result.Errors {
		if e.Severity == validation.SeverityCritical {
			entry := h.dataReadEntry(c, e.Message, opts)
			entry.DebugInfo = debug
			return []DisplayInfo{entry}
		}
	}

	if len(result.Errors) > 0 {
		return []DisplayInfo{{
			Level:        validation.SeverityError,
			Title:        c.Titles.Error,
			Message:      truncate(errorMessage(c, result.Errors)),
			Suggestion:   c.Suggestions.Error,
			FallbackType: fallbackFor(validityPercent(result)),
			DebugInfo:    debug,
		}}
	}

	if len(result.Warnings) > 0 {
		return []DisplayInfo{{
			Level:        validation.SeverityWarning,
			Title:        c.Titles.Warning,
			Message:      truncate(fmt.Sprintf(c.Messages.WarningsPresent, len(result.Warnings))),
			Suggestion:   c.Suggestions.Warning,
			FallbackType: FallbackSimpleChart,
			DebugInfo:    debug,
		}}
	}

	return nil
}

func (h *Handler) dataReadEntry(c catalog, detail string, opts Options) DisplayInfo {
	msg := c.Messages.DataReadFailed
	if detail != "" {
		msg = msg + " (" + detail + ")"
	}
	return DisplayInfo{
		Level:        validation.SeverityCritical,
		Title:        c.Titles.Critical,
		Message:      truncate(msg),
		Suggestion:   c.Suggestions.Critical,
		FallbackType: FallbackTable,
	}
}

func errorMessage(c catalog, errs []validation.Error) string {
	switch {
	case len(errs) == 1:
		return fmt.Sprintf(c.Messages.ErrorOne, errs[0].Message)
	case len(errs) > errorFloodThreshold:
		return c.Messages.ErrorFlood
	default:
		return fmt.Sprintf(c.Messages.ErrorCount, len(errs))
	}
}

// validityPercent computes how much of the input survived validation. The
// summary ratio is authoritative; counting the transformed data against
// the valid-plus-error total is the fallback for results whose summary was
// never populated.
func validityPercent(result *validation.Result) float64 {
	if result.Summary.TotalRecords > 0 {
		return float64(result.Summary.ValidRecords) / float64(result.Summary.TotalRecords) * 100
	}

	errored := make(map[int]struct{}, len(result.Errors))
	for _, e := range result.Errors {
		if e.Index >= 0 {
			errored[e.Index] = struct{}{}
		}
	}
	denom := len(result.Data) + len(errored)
	if denom == 0 {
		return 0
	}
	return float64(len(result.Data)) / float64(denom) * 100
}

func fallbackFor(percent float64) FallbackType {
	switch {
	case percent >= fullRenderPercent:
		return FallbackNone
	case percent >= partialChartPercent:
		return FallbackPartialChart
	case percent >= simpleChartPercent:
		return FallbackSimpleChart
	default:
		return FallbackTable
	}
}

// debugSummary is a best-effort JSON summary of the result's counts. Only
// flat integers are marshaled, so it cannot fail on cyclic or exotic
// error payloads; a marshal error degrades to an empty string.
func debugSummary(result *validation.Result) string {
	payload := struct {
		Errors           int   `json:"errors"`
		Warnings         int   `json:"warnings"`
		ValidRecords     int   `json:"validRecords"`
		TotalRecords     int   `json:"totalRecords"`
		ProcessingTimeMs int64 `json:"processingTimeMs"`
	}{
		Errors:           len(result.Errors),
		Warnings:         len(result.Warnings),
		ValidRecords:     result.Summary.ValidRecords,
		TotalRecords:     result.Summary.TotalRecords,
		ProcessingTimeMs: result.Summary.ProcessingTimeMs,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(data)
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxMessageRunes {
		return s
	}
	return string(runes[:maxMessageRunes-1]) + "…"
}
