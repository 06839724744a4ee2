// forecast/calculator.go

// Package forecast holds the pure projection math of the replenishment
// agent: seasonality/growth decomposition over a resource's usage history
// and the confidence score attached to each projection.
package forecast

import (
	"math"
	"sort"
	"time"
)

// Default calculator parameters.
const (
	DefaultWindowDays = 90  // trailing usage window fed into the calculator
	MinGrowthSamples  = 30  // below this the growth factor defaults to 1.0
	fullDataSamples   = 60  // sample count at which the data-volume factor saturates
	horizonFalloff    = 180 // days at which the horizon factor reaches zero
)

// DefaultHorizons are the forward offsets, in days, evaluated per resource.
var DefaultHorizons = []int{30, 60, 90}

// Sample is one point of a resource's usage time series.
type Sample struct {
	Date     time.Time
	Quantity float64
}

// AverageUsage returns the arithmetic mean quantity of the samples, or 0 for
// an empty series.
func AverageUsage(samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s.Quantity
	}
	return sum / float64(len(samples))
}

// SeasonalityFactor compares mean usage in the forecast date's calendar month
// against the overall mean. Defaults to 1.0 when the history has no samples
// in that month or the overall mean is zero.
func SeasonalityFactor(samples []Sample, forecastDate time.Time) float64 {
	overall := AverageUsage(samples)
	if overall == 0 {
		return 1.0
	}

	month := forecastDate.Month()
	var sum float64
	var n int
	for _, s := range samples {
		if s.Date.Month() == month {
			sum += s.Quantity
			n++
		}
	}
	if n == 0 {
		return 1.0
	}
	return (sum / float64(n)) / overall
}

// GrowthFactor divides the mean of the second half of the chronologically
// sorted samples by the mean of the first half. Defaults to 1.0 with fewer
// than MinGrowthSamples samples or a zero first-half mean.
func GrowthFactor(samples []Sample) float64 {
	if len(samples) < MinGrowthSamples {
		return 1.0
	}

	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	mid := len(sorted) / 2
	firstMean := AverageUsage(sorted[:mid])
	secondMean := AverageUsage(sorted[mid:])
	if firstMean == 0 {
		return 1.0
	}
	return secondMean / firstMean
}

// ProjectedQuantity converts daily average usage, seasonal and growth
// multipliers and a horizon into the shortfall to order: projected demand
// over the horizon minus what is already on hand, never negative, rounded up
// to a whole unit.
func ProjectedQuantity(avgDailyUsage, seasonality, growth float64, horizonDays int, currentQuantity float64) float64 {
	demand := avgDailyUsage * seasonality * growth * float64(horizonDays)
	return math.Ceil(math.Max(0, demand-currentQuantity))
}

// CoefficientOfVariation returns stddev/mean of the sample quantities, or 0
// when the series is empty or its mean is zero.
func CoefficientOfVariation(samples []Sample) float64 {
	mean := AverageUsage(samples)
	if mean == 0 || len(samples) == 0 {
		return 0
	}
	var sumSq float64
	for _, s := range samples {
		d := s.Quantity - mean
		sumSq += d * d
	}
	stddev := math.Sqrt(sumSq / float64(len(samples)))
	return stddev / mean
}

// Confidence blends three factors into a [0,1] reliability score: 40% data
// volume, 40% usage consistency, 20% horizon length. Degenerate inputs
// (zero samples, huge variation, far horizons) bottom out at the clamp
// rather than producing NaN.
func Confidence(sampleCount int, coefficientOfVariation float64, horizonDays int) float64 {
	dataFactor := math.Min(1, float64(sampleCount)/fullDataSamples)
	consistencyFactor := math.Max(0, 1-coefficientOfVariation/2)
	horizonFactor := math.Max(0, 1-float64(horizonDays)/horizonFalloff)

	score := 0.4*dataFactor + 0.4*consistencyFactor + 0.2*horizonFactor
	return math.Max(0, math.Min(1, score))
}
