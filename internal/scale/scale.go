// Package scale computes chart axis scales for tide-level series: display
// bounds, a tick interval chosen from a ranked preference list, and the
// resulting tick values. Results are memoized in a bounded instance-owned
// cache keyed by the input levels and options.
package scale

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/tide-chart-service/internal/domain"
)

const (
	// marginMultiplier inflates the data span when projecting tick
	// counts so the interval chosen still fits after margins are added.
	marginMultiplier = 1.2

	// zeroInclusionBand forces the axis to include zero whenever the
	// series mean sits within this distance of datum. Tide charts read
	// wrong without the datum line unless the data is far from it.
	zeroInclusionBand = 150.0

	// Single-distinct-value fallback: a symmetric window with a fixed
	// half-width floor and interval, since no span exists to derive one.
	singleValueHalfWidth = 50.0
	singleValueInterval  = 25.0

	// tickRounding snaps generated ticks to this many decimal places so
	// repeated float addition cannot drift the axis labels.
	tickRounding = 6

	defaultCacheCapacity = 50
)

// preferredIntervals is the ranked list of tick intervals, finest first,
// in the level unit.
var preferredIntervals = []float64{5, 10, 20, 25, 50, 100, 200, 250, 500, 1000}

// Scale is a computed vertical axis: Min == Ticks[0], Max == Ticks[last],
// and consecutive ticks differ by exactly Interval.
type Scale struct {
	Min      float64   `json:"min"`
	Max      float64   `json:"max"`
	Interval float64   `json:"interval"`
	Ticks    []float64 `json:"ticks"`
	Unit     string    `json:"unit"`
}

// DetailedScale augments a Scale with the raw data range, the margins
// actually applied, and a [0,1] quality score.
type DetailedScale struct {
	Scale
	DataMin     float64 `json:"dataMin"`
	DataMax     float64 `json:"dataMax"`
	Span        float64 `json:"span"`
	LowerMargin float64 `json:"lowerMargin"`
	UpperMargin float64 `json:"upperMargin"`
	Quality     float64 `json:"quality"`
}

// Options tunes scale computation. The zero value gives the defaults.
type Options struct {
	// MinTicks and MaxTicks bound the projected tick count when ranking
	// intervals. Defaults: 4 and 12.
	MinTicks int
	MaxTicks int

	// TargetTicks is the ideal tick count used by the interval fallback
	// and the quality score. Default: 7.
	TargetTicks int

	// MarginRatio is the fraction of the data span added as padding on
	// each side before snapping. Default: 0.1.
	MarginRatio float64

	// ForceZero makes the axis include the datum line regardless of
	// where the data sits.
	ForceZero bool
}

func (o Options) withDefaults() Options {
	if o.MinTicks <= 0 {
		o.MinTicks = 4
	}
	if o.MaxTicks <= 0 {
		o.MaxTicks = 12
	}
	if o.TargetTicks <= 0 {
		o.TargetTicks = 7
	}
	if o.MarginRatio <= 0 {
		o.MarginRatio = 0.1
	}
	return o
}

// Calculator computes axis scales with a bounded memo cache. Each
// Calculator owns its cache; share one instance to share memoization.
// All methods are safe for concurrent use.
type Calculator struct {
	cache *fifoCache
}

// NewCalculator creates a Calculator whose cache holds up to capacity
// results, evicting oldest-inserted-first. Non-positive capacity uses the
// default.
func NewCalculator(capacity int) *Calculator {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	return &Calculator{cache: newFIFOCache(capacity)}
}

// DefaultScale is the fixed axis returned when no finite levels exist.
func DefaultScale() Scale {
	return Scale{
		Min:      -200,
		Max:      200,
		Interval: 100,
		Ticks:    []float64{-200, -100, 0, 100, 200},
		Unit:     domain.LevelUnit,
	}
}

// CalculateScale computes the axis scale for the given levels. Identical
// levels and options return a cached result; callers always receive an
// independent copy, so mutating a returned scale cannot corrupt the cache.
func (c *Calculator) CalculateScale(levels []float64, opts Options) Scale {
	opts = opts.withDefaults()
	key := cacheKey(levels, opts)
	if s, ok := c.cache.get(key); ok {
		return cloneScale(s)
	}
	s := computeScale(levels, opts)
	c.cache.put(key, s)
	return cloneScale(s)
}

// CalculateDetailedScale computes the axis scale plus the data range, the
// margins actually applied, and a quality score combining tick-count
// closeness to target with how much of the display span the data fills.
func (c *Calculator) CalculateDetailedScale(levels []float64, opts Options) DetailedScale {
	opts = opts.withDefaults()
	s := c.CalculateScale(levels, opts)

	sanitized := finiteLevels(levels)
	if len(sanitized) == 0 {
		return DetailedScale{Scale: s}
	}

	dataMin, dataMax := minMax(sanitized)
	span := dataMax - dataMin
	displaySpan := s.Max - s.Min

	tickScore := 1 - math.Abs(float64(len(s.Ticks)-opts.TargetTicks))/float64(opts.TargetTicks)
	tickScore = clamp01(tickScore)
	coverage := 0.0
	if displaySpan > 0 {
		coverage = clamp01(span / displaySpan)
	}

	return DetailedScale{
		Scale:       s,
		DataMin:     dataMin,
		DataMax:     dataMax,
		Span:        span,
		LowerMargin: dataMin - s.Min,
		UpperMargin: s.Max - dataMax,
		Quality:     0.6*tickScore + 0.4*coverage,
	}
}

// CacheStats reports memo cache hits and misses since construction.
func (c *Calculator) CacheStats() (hits, misses uint64) {
	return c.cache.stats()
}

func computeScale(levels []float64, opts Options) Scale {
	sanitized := finiteLevels(levels)
	if len(sanitized) == 0 {
		return DefaultScale()
	}

	dataMin, dataMax := minMax(sanitized)
	span := dataMax - dataMin

	if span == 0 {
		return singleValueScale(dataMin)
	}

	interval := chooseInterval(span, opts)

	margin := span * opts.MarginRatio
	lo := dataMin - margin
	hi := dataMax + margin

	if includeZero(sanitized, lo, hi, opts) {
		lo = math.Min(lo, 0)
		hi = math.Max(hi, 0)
	}

	min := math.Floor(lo/interval) * interval
	max := math.Ceil(hi/interval) * interval
	if max <= min {
		max = min + interval
	}

	return Scale{
		Min:      roundTick(min),
		Max:      roundTick(min + float64(tickSteps(min, max, interval))*interval),
		Interval: interval,
		Ticks:    generateTicks(min, max, interval),
		Unit:     domain.LevelUnit,
	}
}

// singleValueScale handles a series with one distinct level: a symmetric
// window around the value with a fixed half-width and interval.
func singleValueScale(v float64) Scale {
	min := v - singleValueHalfWidth
	max := v + singleValueHalfWidth
	return Scale{
		Min:      roundTick(min),
		Max:      roundTick(max),
		Interval: singleValueInterval,
		Ticks:    generateTicks(min, max, singleValueInterval),
		Unit:     domain.LevelUnit,
	}
}

// chooseInterval picks the first preferred interval whose projected tick
// count falls inside [MinTicks, MaxTicks], or failing that the preferred
// interval closest to the span-derived ideal.
func chooseInterval(span float64, opts Options) float64 {
	projected := span * marginMultiplier
	for _, interval := range preferredIntervals {
		count := int(math.Ceil(projected / interval))
		if count >= opts.MinTicks && count <= opts.MaxTicks {
			return interval
		}
	}

	ideal := projected / float64(opts.TargetTicks)
	best := preferredIntervals[0]
	for _, interval := range preferredIntervals[1:] {
		if math.Abs(interval-ideal) < math.Abs(best-ideal) {
			best = interval
		}
	}
	return best
}

// includeZero decides whether the axis must contain the datum line: always
// when the series mean sits near datum, when the padded bounds already
// straddle it, or when the caller forces it.
func includeZero(levels []float64, lo, hi float64, opts Options) bool {
	if opts.ForceZero {
		return true
	}
	if lo < 0 && hi > 0 {
		return true
	}
	var sum float64
	for _, v := range levels {
		sum += v
	}
	mean := sum / float64(len(levels))
	return math.Abs(mean) <= zeroInclusionBand
}

func generateTicks(min, max, interval float64) []float64 {
	steps := tickSteps(min, max, interval)
	ticks := make([]float64, steps+1)
	for i := 0; i <= steps; i++ {
		ticks[i] = roundTick(min + float64(i)*interval)
	}
	return ticks
}

func tickSteps(min, max, interval float64) int {
	return int(math.Round((max - min) / interval))
}

// roundTick snaps a tick value to a fixed number of decimals so repeated
// float addition cannot drift the labels.
func roundTick(v float64) float64 {
	shift := math.Pow(10, tickRounding)
	return math.Round(v*shift) / shift
}

func finiteLevels(levels []float64) []float64 {
	out := make([]float64, 0, len(levels))
	for _, v := range levels {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func minMax(levels []float64) (min, max float64) {
	min, max = levels[0], levels[0]
	for _, v := range levels[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func cloneScale(s Scale) Scale {
	out := s
	out.Ticks = append([]float64(nil), s.Ticks...)
	return out
}

// cacheKey builds a deterministic key from the rounded levels and the
// serialized options. Rounding to the reporting precision keeps float
// noise from fragmenting the cache.
func cacheKey(levels []float64, opts Options) string {
	var b strings.Builder
	b.Grow(len(levels)*8 + 32)
	for i, v := range levels {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(roundLevel(v), 'f', -1, 64))
	}
	b.WriteByte('|')
	fmt.Fprintf(&b, "%d:%d:%d:%g:%t", opts.MinTicks, opts.MaxTicks, opts.TargetTicks, opts.MarginRatio, opts.ForceZero)
	return b.String()
}

func roundLevel(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	shift := math.Pow(10, domain.MaxLevelDecimals)
	return math.Round(v*shift) / shift
}
