// Command genmock generates mock tide series fixtures for the test suites
// and for tidecheck demos. It synthesizes a semidiurnal tide curve per
// station and can inject known defect patterns so fixtures exercise every
// validation path the pipeline has.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -stations shinagawa,toba
//	go run ./cmd/genmock -out data/mock -stations shinagawa -defects bad-time,out-of-range,duplicate
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/tide-chart-service/internal/domain"
)

var baseDate = time.Date(2024, time.April, 26, 0, 0, 0, 0, time.UTC)

// Synthetic curve parameters: a principal lunar semidiurnal constituent
// with a small diurnal component, amplitudes in cm.
const (
	semidiurnalAmplitude = 180.0
	diurnalAmplitude     = 40.0
	semidiurnalPeriod    = 12.42 // hours
	diurnalPeriod        = 24.84
	sampleStep           = 30 * time.Minute
	samplesPerDay        = 48
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "", "output directory for fixture JSON files")
	stations := flag.String("stations", "shinagawa", "comma-separated station IDs")
	defects := flag.String("defects", "", "comma-separated defects to inject: bad-time, out-of-range, duplicate, gap, backwards")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	defectSet := parseDefects(*defects)

	for i, station := range splitList(*stations) {
		req := domain.ChartRequest{
			StationID: station,
			Samples:   synthesizeSeries(i, defectSet),
		}

		path := filepath.Join(*outDir, fmt.Sprintf("%s_%s.json", station, baseDate.Format("060102")))
		if err := writeJSON(path, req); err != nil {
			return err
		}
		fmt.Printf("wrote %s (%d samples)\n", path, len(req.Samples))
	}

	return nil
}

// synthesizeSeries produces one day of samples for a station. The phase
// offset keeps stations from producing identical curves.
func synthesizeSeries(phaseOffset int, defects map[string]bool) []domain.RawSample {
	samples := make([]domain.RawSample, 0, samplesPerDay)
	phase := float64(phaseOffset) * 1.3

	for i := 0; i < samplesPerDay; i++ {
		t := baseDate.Add(time.Duration(i) * sampleStep)
		hours := t.Sub(baseDate).Hours()

		level := semidiurnalAmplitude*math.Sin(2*math.Pi*hours/semidiurnalPeriod+phase) +
			diurnalAmplitude*math.Sin(2*math.Pi*hours/diurnalPeriod+phase/2)

		samples = append(samples, domain.RawSample{
			Time:  t.Format(time.RFC3339),
			Level: math.Round(level*100) / 100,
		})
	}

	return injectDefects(samples, defects)
}

func injectDefects(samples []domain.RawSample, defects map[string]bool) []domain.RawSample {
	if defects["bad-time"] && len(samples) > 3 {
		samples[3].Time = "2024-02-30T12:00:00Z" // impossible date
	}
	if defects["out-of-range"] && len(samples) > 7 {
		samples[7].Level = domain.MaxTideLevel + 100
	}
	if defects["duplicate"] && len(samples) > 11 {
		samples[11].Time = samples[10].Time
	}
	if defects["gap"] && len(samples) > 30 {
		// Drop a stretch to open a gap wider than the density limit.
		samples = append(samples[:20], samples[36:]...)
	}
	if defects["backwards"] && len(samples) > 15 {
		samples[14], samples[15] = samples[15], samples[14]
	}
	return samples
}

func parseDefects(raw string) map[string]bool {
	set := make(map[string]bool)
	for _, d := range splitList(raw) {
		set[d] = true
	}
	return set
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
