package scale

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/tide-chart-service/internal/domain"
)

func TestCalculateScale(t *testing.T) {
	calc := NewCalculator(0)

	t.Run("typical mixed-tide series", func(t *testing.T) {
		s := calc.CalculateScale([]float64{-150, 230, -80, 190}, Options{})

		assert.Equal(t, -200.0, s.Min)
		assert.Equal(t, 300.0, s.Max)
		assert.Equal(t, 50.0, s.Interval)
		assert.Equal(t, domain.LevelUnit, s.Unit)
		require.Len(t, s.Ticks, 11)
		assert.Equal(t, s.Min, s.Ticks[0])
		assert.Equal(t, s.Max, s.Ticks[len(s.Ticks)-1])
		assert.Contains(t, s.Ticks, 0.0)
	})

	t.Run("empty input falls back to the default axis", func(t *testing.T) {
		s := calc.CalculateScale(nil, Options{})
		assert.Equal(t, DefaultScale(), s)
	})

	t.Run("non-finite levels are ignored", func(t *testing.T) {
		s := calc.CalculateScale([]float64{math.NaN(), math.Inf(1), math.Inf(-1)}, Options{})
		assert.Equal(t, DefaultScale(), s)
	})

	t.Run("single distinct value gets a symmetric window", func(t *testing.T) {
		s := calc.CalculateScale([]float64{100, 100, 100}, Options{})

		assert.Equal(t, 50.0, s.Min)
		assert.Equal(t, 150.0, s.Max)
		assert.Equal(t, 25.0, s.Interval)
		assert.Equal(t, []float64{50, 75, 100, 125, 150}, s.Ticks)
	})

	t.Run("axis always brackets the data", func(t *testing.T) {
		for _, levels := range [][]float64{
			{-499, 499},
			{0.01, 0.02},
			{-3.5, 120.25, 88},
			{450, 455, 460},
		} {
			s := calc.CalculateScale(levels, Options{})
			lo, hi := minMax(levels)
			assert.LessOrEqual(t, s.Min, lo)
			assert.GreaterOrEqual(t, s.Max, hi)
		}
	})

	t.Run("ticks are uniform from min to max", func(t *testing.T) {
		s := calc.CalculateScale([]float64{-123.45, 67.89, 210.01}, Options{})

		require.NotEmpty(t, s.Ticks)
		assert.Equal(t, s.Min, s.Ticks[0])
		assert.Equal(t, s.Max, s.Ticks[len(s.Ticks)-1])
		for i := 1; i < len(s.Ticks); i++ {
			assert.InDelta(t, s.Interval, s.Ticks[i]-s.Ticks[i-1], 1e-6)
		}
	})

	t.Run("series near datum includes zero", func(t *testing.T) {
		s := calc.CalculateScale([]float64{50, 60}, Options{})

		assert.Equal(t, 0.0, s.Min)
		assert.Contains(t, s.Ticks, 0.0)
	})

	t.Run("series far from datum omits zero", func(t *testing.T) {
		s := calc.CalculateScale([]float64{300, 400}, Options{})

		assert.Greater(t, s.Min, 0.0)
		assert.NotContains(t, s.Ticks, 0.0)
	})

	t.Run("force zero overrides the distance rule", func(t *testing.T) {
		s := calc.CalculateScale([]float64{300, 400}, Options{ForceZero: true})

		assert.Equal(t, 0.0, s.Min)
		assert.Contains(t, s.Ticks, 0.0)
	})

	t.Run("mutating a returned scale does not corrupt the cache", func(t *testing.T) {
		local := NewCalculator(0)
		levels := []float64{-150, 230, -80, 190}

		first := local.CalculateScale(levels, Options{})
		first.Ticks[0] = 99999

		second := local.CalculateScale(levels, Options{})
		assert.Equal(t, -200.0, second.Ticks[0])
	})

	t.Run("identical inputs hit the cache", func(t *testing.T) {
		local := NewCalculator(0)
		levels := []float64{-10, 20, 30}

		local.CalculateScale(levels, Options{})
		local.CalculateScale(levels, Options{})

		hits, misses := local.CacheStats()
		assert.Equal(t, uint64(1), hits)
		assert.Equal(t, uint64(1), misses)
	})

	t.Run("levels differing below reporting precision share a cache entry", func(t *testing.T) {
		local := NewCalculator(0)

		local.CalculateScale([]float64{100.001, 200}, Options{})
		local.CalculateScale([]float64{100.0009, 200}, Options{})

		hits, _ := local.CacheStats()
		assert.Equal(t, uint64(1), hits)
	})

	t.Run("different options miss the cache", func(t *testing.T) {
		local := NewCalculator(0)
		levels := []float64{-10, 20, 30}

		local.CalculateScale(levels, Options{})
		local.CalculateScale(levels, Options{ForceZero: true})

		hits, misses := local.CacheStats()
		assert.Zero(t, hits)
		assert.Equal(t, uint64(2), misses)
	})
}

func TestCalculateDetailedScale(t *testing.T) {
	calc := NewCalculator(0)

	t.Run("reports data range and margins", func(t *testing.T) {
		d := calc.CalculateDetailedScale([]float64{-150, 230, -80, 190}, Options{})

		assert.Equal(t, -150.0, d.DataMin)
		assert.Equal(t, 230.0, d.DataMax)
		assert.Equal(t, 380.0, d.Span)
		assert.Equal(t, 50.0, d.LowerMargin)
		assert.Equal(t, 70.0, d.UpperMargin)
	})

	t.Run("quality blends tick closeness and coverage", func(t *testing.T) {
		d := calc.CalculateDetailedScale([]float64{-150, 230, -80, 190}, Options{})

		// 11 ticks against a target of 7, data filling 380 of 500.
		tickScore := 1 - math.Abs(11-7)/7.0
		coverage := 380.0 / 500.0
		assert.InDelta(t, 0.6*tickScore+0.4*coverage, d.Quality, 1e-9)
		assert.GreaterOrEqual(t, d.Quality, 0.0)
		assert.LessOrEqual(t, d.Quality, 1.0)
	})

	t.Run("empty input carries the default axis with zero detail", func(t *testing.T) {
		d := calc.CalculateDetailedScale(nil, Options{})

		assert.Equal(t, DefaultScale(), d.Scale)
		assert.Zero(t, d.Span)
		assert.Zero(t, d.Quality)
	})
}

func TestChooseInterval(t *testing.T) {
	opts := Options{}.withDefaults()

	t.Run("picks the finest interval within the tick bounds", func(t *testing.T) {
		assert.Equal(t, 50.0, chooseInterval(380, opts))
		assert.Equal(t, 10.0, chooseInterval(100, opts))
	})

	t.Run("falls back to the closest preferred interval", func(t *testing.T) {
		// A tiny span projects fewer than MinTicks for every interval.
		assert.Equal(t, 5.0, chooseInterval(10, opts))
	})
}
