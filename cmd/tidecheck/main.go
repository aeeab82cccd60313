// Command tidecheck runs a tide sample file through the full chart
// pipeline (validation, fallback selection, axis scaling) and prints a
// phased report. It exits non-zero when the series fails validation, so it
// slots into collector CI to gate fixture updates.
//
// Usage:
//
//	tidecheck --input data/mock/shinagawa_240426.json
//	tidecheck --input series.json --strict --locale ja
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/tide-chart-service/internal/domain"
	"github.com/couchcryptid/tide-chart-service/internal/fallback"
	"github.com/couchcryptid/tide-chart-service/internal/scale"
	"github.com/couchcryptid/tide-chart-service/internal/validation"
)

type flags struct {
	input       string
	strict      bool
	performance bool
	locale      string
	maxRecords  int
	detailed    bool
	debug       bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:          "tidecheck",
		Short:        "Validate a tide sample series and preview its chart scale",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, f)
		},
	}

	cmd.Flags().StringVarP(&f.input, "input", "i", "", "path to a chart request or sample array JSON file")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "enable precision and timezone checks")
	cmd.Flags().BoolVar(&f.performance, "performance", false, "shape-only timestamp checks, no warnings")
	cmd.Flags().StringVar(&f.locale, "locale", "en", "locale for user-facing messages")
	cmd.Flags().IntVar(&f.maxRecords, "max-records", 0, "truncate the series to the first N samples")
	cmd.Flags().BoolVar(&f.detailed, "detailed", false, "print scale margins and quality score")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "attach debug summaries to display entries")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func run(cmd *cobra.Command, f flags) error {
	if f.strict && f.performance {
		return fmt.Errorf("--strict and --performance are mutually exclusive")
	}

	req, err := loadRequest(f.input)
	if err != nil {
		return err
	}

	fields := domain.NewFieldValidator()
	engine := validation.NewEngine(fields, domain.NewTransformer(fields))
	handler, err := fallback.NewHandler()
	if err != nil {
		return fmt.Errorf("load locale catalogs: %w", err)
	}
	calculator := scale.NewCalculator(0)

	result := engine.ValidateComprehensively(context.Background(), req.Samples, validation.Options{
		StrictMode:      f.strict,
		PerformanceMode: f.performance,
		MaxRecords:      f.maxRecords,
	})

	display := handler.ProcessError(&result, fallback.Options{Locale: f.locale, Debug: f.debug})

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== Tide Series Check ===")
	if req.StationID != "" {
		fmt.Fprintf(out, "Station: %s\n", req.StationID)
	}
	fmt.Fprintln(out)

	printSummary(out, result)
	printFindings(out, result)
	printDisplay(out, display)
	printScale(out, calculator, result, f.detailed)

	if !result.IsValid {
		cmd.SilenceErrors = true
		return fmt.Errorf("series failed validation")
	}
	fmt.Fprintln(out, "\nSeries is valid.")
	return nil
}

// loadRequest reads either a full chart request object or a bare sample
// array.
func loadRequest(path string) (domain.ChartRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ChartRequest{}, err
	}

	var req domain.ChartRequest
	if err := json.Unmarshal(data, &req); err == nil && req.Samples != nil {
		return req, nil
	}

	var samples []domain.RawSample
	if err := json.Unmarshal(data, &samples); err != nil {
		return domain.ChartRequest{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return domain.ChartRequest{Samples: samples}, nil
}

func printSummary(out io.Writer, result validation.Result) {
	s := result.Summary
	fmt.Fprintf(out, "Records: %d total, %d valid, %d with errors, %d with warnings (%d ms)\n",
		s.TotalRecords, s.ValidRecords, s.ErrorRecords, s.WarningRecords, s.ProcessingTimeMs)
}

func printFindings(out io.Writer, result validation.Result) {
	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "\n--- Errors (%d) ---\n", len(result.Errors))
		for i, e := range result.Errors {
			fmt.Fprintf(out, "  [%d] %s %s\n", i+1, e.Severity, e.Message)
		}
	}
	if len(result.Warnings) > 0 {
		fmt.Fprintf(out, "\n--- Warnings (%d) ---\n", len(result.Warnings))
		for i, w := range result.Warnings {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, w.Message)
			if w.Suggestion != "" {
				fmt.Fprintf(out, "      suggestion: %s\n", w.Suggestion)
			}
		}
	}
}

func printDisplay(out io.Writer, display []fallback.DisplayInfo) {
	if len(display) == 0 {
		return
	}
	fmt.Fprintln(out, "\n--- Display ---")
	for _, d := range display {
		fmt.Fprintf(out, "  %s: %s\n", d.Title, d.Message)
		if d.Suggestion != "" {
			fmt.Fprintf(out, "  suggestion: %s\n", d.Suggestion)
		}
		fmt.Fprintf(out, "  fallback: %s\n", d.FallbackType)
		if d.DebugInfo != "" {
			fmt.Fprintf(out, "  debug: %s\n", d.DebugInfo)
		}
	}
}

func printScale(out io.Writer, calculator *scale.Calculator, result validation.Result, detailed bool) {
	levels := make([]float64, len(result.Data))
	for i, r := range result.Data {
		levels[i] = r.Level
	}

	fmt.Fprintln(out, "\n--- Scale ---")
	if detailed {
		d := calculator.CalculateDetailedScale(levels, scale.Options{})
		fmt.Fprintf(out, "  range: [%g, %g] %s, interval %g, %d ticks\n", d.Min, d.Max, d.Unit, d.Interval, len(d.Ticks))
		fmt.Fprintf(out, "  data: [%g, %g], span %g\n", d.DataMin, d.DataMax, d.Span)
		fmt.Fprintf(out, "  margins: %g below, %g above\n", d.LowerMargin, d.UpperMargin)
		fmt.Fprintf(out, "  quality: %.2f\n", d.Quality)
		return
	}
	s := calculator.CalculateScale(levels, scale.Options{})
	fmt.Fprintf(out, "  range: [%g, %g] %s, interval %g, %d ticks\n", s.Min, s.Max, s.Unit, s.Interval, len(s.Ticks))
}
