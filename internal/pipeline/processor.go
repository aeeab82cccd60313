package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/tide-chart-service/internal/domain"
	"github.com/couchcryptid/tide-chart-service/internal/fallback"
	"github.com/couchcryptid/tide-chart-service/internal/observability"
	"github.com/couchcryptid/tide-chart-service/internal/scale"
	"github.com/couchcryptid/tide-chart-service/internal/validation"
)

// ChartPayload is the chart-ready output for one station series: the
// validation outcome, the user-facing display entries, the chosen
// fallback mode, and the axis scale for the surviving data.
type ChartPayload struct {
	StationID    string                 `json:"station_id"`
	IsValid      bool                   `json:"is_valid"`
	Summary      validation.Summary     `json:"summary"`
	Errors       []validation.Error     `json:"errors,omitempty"`
	Warnings     []validation.Warning   `json:"warnings,omitempty"`
	Display      []fallback.DisplayInfo `json:"display,omitempty"`
	FallbackType fallback.FallbackType  `json:"fallback_type"`
	Scale        scale.Scale            `json:"scale"`
	Readings     []domain.TideReading   `json:"readings,omitempty"`
	ProcessedAt  time.Time              `json:"processed_at"`
}

// ChartProcessor implements SeriesProcessor: validate the series, choose
// the degraded rendering mode, and compute the axis scale for whatever
// survived.
type ChartProcessor struct {
	engine     *validation.Engine
	handler    *fallback.Handler
	calculator *scale.Calculator
	opts       validation.Options
	timeout    time.Duration
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewChartProcessor wires the three pipeline stages together. A zero
// timeout disables the per-series deadline.
func NewChartProcessor(engine *validation.Engine, handler *fallback.Handler, calculator *scale.Calculator,
	opts validation.Options, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *ChartProcessor {
	return &ChartProcessor{
		engine:     engine,
		handler:    handler,
		calculator: calculator,
		opts:       opts,
		timeout:    timeout,
		metrics:    metrics,
		logger:     logger,
	}
}

// Process deserializes one chart request and runs it through
// validate → fallback → scale, producing a sink-ready payload event.
func (p *ChartProcessor) Process(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	var req domain.ChartRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return domain.OutputEvent{}, fmt.Errorf("parse chart request: %w", err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	result := p.engine.ValidateComprehensively(ctx, req.Samples, p.opts)
	display := p.handler.ProcessError(&result, fallback.Options{Locale: req.Locale})

	levels := make([]float64, len(result.Data))
	for i, r := range result.Data {
		levels[i] = r.Level
	}
	axis := p.calculator.CalculateScale(levels, scale.Options{})

	payload := ChartPayload{
		StationID:    req.StationID,
		IsValid:      result.IsValid,
		Summary:      result.Summary,
		Errors:       result.Errors,
		Warnings:     result.Warnings,
		Display:      display,
		FallbackType: fallbackType(display),
		Scale:        axis,
		Readings:     result.Data,
		ProcessedAt:  domain.Now(),
	}

	p.recordMetrics(&result, payload.FallbackType)

	data, err := json.Marshal(payload)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("serialize chart payload: %w", err)
	}

	return domain.OutputEvent{
		Key:   []byte(req.StationID),
		Value: data,
		Headers: map[string]string{
			"fallback_type": string(payload.FallbackType),
			"processed_at":  payload.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}

// fallbackType reads the chosen mode off the worst display entry; no
// entries means a full render.
func fallbackType(display []fallback.DisplayInfo) fallback.FallbackType {
	if len(display) == 0 {
		return fallback.FallbackNone
	}
	return display[0].FallbackType
}

func (p *ChartProcessor) recordMetrics(result *validation.Result, ft fallback.FallbackType) {
	p.metrics.SamplesValidated.Add(float64(result.Summary.TotalRecords))
	p.metrics.FallbackSelected.WithLabelValues(string(ft)).Inc()

	outcome := "valid"
	switch {
	case hasCritical(result.Errors):
		outcome = "critical"
	case len(result.Errors) > 0:
		outcome = "errors"
	}
	p.metrics.ValidationOutcomes.WithLabelValues(outcome).Inc()

	hits, misses := p.calculator.CacheStats()
	p.metrics.ScaleCacheHits.Set(float64(hits))
	p.metrics.ScaleCacheMisses.Set(float64(misses))
}

func hasCritical(errs []validation.Error) bool {
	for _, e := range errs {
		if e.Severity == validation.SeverityCritical {
			return true
		}
	}
	return false
}
