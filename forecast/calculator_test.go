// forecast/calculator_test.go
package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func flatSamples(n int, qty float64, start time.Time) []Sample {
	samples := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		samples = append(samples, Sample{Date: start.AddDate(0, 0, i), Quantity: qty})
	}
	return samples
}

func TestAverageUsage(t *testing.T) {
	assert.Equal(t, 0.0, AverageUsage(nil))
	assert.Equal(t, 0.0, AverageUsage([]Sample{}))

	samples := []Sample{
		{Date: day(2025, time.March, 1), Quantity: 2},
		{Date: day(2025, time.March, 2), Quantity: 4},
		{Date: day(2025, time.March, 3), Quantity: 6},
	}
	assert.InDelta(t, 4.0, AverageUsage(samples), 1e-9)
}

func TestSeasonalityFactor(t *testing.T) {
	samples := []Sample{
		{Date: day(2025, time.January, 10), Quantity: 2},
		{Date: day(2025, time.February, 10), Quantity: 2},
		{Date: day(2025, time.March, 10), Quantity: 8},
	}
	// Overall mean 4, March mean 8 => March is a heavy month.
	assert.InDelta(t, 2.0, SeasonalityFactor(samples, day(2026, time.March, 1)), 1e-9)
	// January mean 2 => light month.
	assert.InDelta(t, 0.5, SeasonalityFactor(samples, day(2026, time.January, 1)), 1e-9)
	// No samples in that month: default multiplier.
	assert.Equal(t, 1.0, SeasonalityFactor(samples, day(2026, time.July, 1)))
	// Zero overall mean: default multiplier, no division by zero.
	zeros := []Sample{{Date: day(2025, time.March, 1), Quantity: 0}}
	assert.Equal(t, 1.0, SeasonalityFactor(zeros, day(2026, time.March, 1)))
	assert.Equal(t, 1.0, SeasonalityFactor(nil, day(2026, time.March, 1)))
}

func TestGrowthFactor(t *testing.T) {
	// Too few samples: no growth signal.
	assert.Equal(t, 1.0, GrowthFactor(flatSamples(29, 5, day(2025, time.January, 1))))

	// Flat series: no growth.
	assert.InDelta(t, 1.0, GrowthFactor(flatSamples(30, 5, day(2025, time.January, 1))), 1e-9)

	// Second half double the first: factor 2, regardless of input order.
	start := day(2025, time.January, 1)
	var samples []Sample
	for i := 0; i < 15; i++ {
		samples = append(samples, Sample{Date: start.AddDate(0, 0, i), Quantity: 2})
	}
	for i := 15; i < 30; i++ {
		samples = append(samples, Sample{Date: start.AddDate(0, 0, i), Quantity: 4})
	}
	assert.InDelta(t, 2.0, GrowthFactor(samples), 1e-9)

	shuffled := []Sample{samples[20], samples[3], samples[17], samples[0]}
	shuffled = append(shuffled, samples[4:17]...)
	shuffled = append(shuffled, samples[17:]...)
	// Still >= 30 entries and sorted internally before splitting.
	if len(shuffled) >= MinGrowthSamples {
		assert.True(t, GrowthFactor(shuffled) > 1.0)
	}

	// Zero first-half mean: default, no division by zero.
	var coldStart []Sample
	for i := 0; i < 15; i++ {
		coldStart = append(coldStart, Sample{Date: start.AddDate(0, 0, i), Quantity: 0})
	}
	for i := 15; i < 30; i++ {
		coldStart = append(coldStart, Sample{Date: start.AddDate(0, 0, i), Quantity: 4})
	}
	assert.Equal(t, 1.0, GrowthFactor(coldStart))
}

func TestProjectedQuantity(t *testing.T) {
	// 2/day over 30 days with 10 on hand: order 50.
	assert.Equal(t, 50.0, ProjectedQuantity(2, 1, 1, 30, 10))
	// Stock covers demand: nothing to order, never negative.
	assert.Equal(t, 0.0, ProjectedQuantity(1, 1, 1, 10, 100))
	// Fractional demand rounds up.
	assert.Equal(t, 3.0, ProjectedQuantity(0.07, 1, 1, 30, 0))
	// Multipliers applied before the shortfall: 2*1.5*2*10 = 60, minus 10.
	assert.Equal(t, 50.0, ProjectedQuantity(2, 1.5, 2, 10, 10))
}

func TestCoefficientOfVariation(t *testing.T) {
	assert.Equal(t, 0.0, CoefficientOfVariation(nil))
	assert.Equal(t, 0.0, CoefficientOfVariation(flatSamples(10, 0, day(2025, time.January, 1))))
	// Constant series: zero variation.
	assert.InDelta(t, 0.0, CoefficientOfVariation(flatSamples(10, 5, day(2025, time.January, 1))), 1e-9)

	samples := []Sample{
		{Date: day(2025, time.January, 1), Quantity: 2},
		{Date: day(2025, time.January, 2), Quantity: 6},
	}
	// mean 4, stddev 2 => cv 0.5
	assert.InDelta(t, 0.5, CoefficientOfVariation(samples), 1e-9)
}

func TestConfidenceBounds(t *testing.T) {
	cases := []struct {
		name    string
		count   int
		cv      float64
		horizon int
	}{
		{"zero samples", 0, 0, 30},
		{"zero samples far horizon", 0, 0, 365},
		{"huge variation", 10, 50, 30},
		{"saturated data", 1000, 0, 0},
		{"negative-ish horizon", 60, 0.2, 0},
		{"typical", 45, 0.8, 60},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Confidence(tc.count, tc.cv, tc.horizon)
			assert.False(t, math.IsNaN(c))
			assert.GreaterOrEqual(t, c, 0.0)
			assert.LessOrEqual(t, c, 1.0)
		})
	}
}

func TestConfidenceBlend(t *testing.T) {
	// Full data, perfectly consistent, immediate horizon: maximal score.
	assert.InDelta(t, 1.0, Confidence(60, 0, 0), 1e-9)
	// 30 samples, cv 1.0, 90-day horizon:
	// 0.4*0.5 + 0.4*0.5 + 0.2*0.5 = 0.5
	assert.InDelta(t, 0.5, Confidence(30, 1.0, 90), 1e-9)
	// Horizon factor floors at zero beyond the falloff.
	assert.InDelta(t, 0.8, Confidence(60, 0, 400), 1e-9)
}
