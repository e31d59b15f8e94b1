package services

import (
	"math"

	"github.com/rbarroso/conjuntura-go/internal/models"
)

const (
	// trendThresholdPct is the monthly change (in percent) beyond which a
	// series is classified as moving rather than stable.
	trendThresholdPct = 1.0
	// volatilityWindow is the number of trailing points used for the
	// volatility estimate.
	volatilityWindow = 12
	// shortTermWindow is the sub-window size for the short-term trend.
	shortTermWindow = 3
)

// ChangePct computes the percent change from reference to current. A zero
// reference yields 0, never NaN or Inf.
func ChangePct(current, reference float64) float64 {
	if reference == 0 {
		return 0
	}
	return (current - reference) / reference * 100
}

// ClassifyTrend maps a monthly change percentage to a qualitative trend.
// Exactly +/-1.0 still counts as stable.
func ClassifyTrend(changePct float64) models.Trend {
	switch {
	case changePct > trendThresholdPct:
		return models.TrendUp
	case changePct < -trendThresholdPct:
		return models.TrendDown
	default:
		return models.TrendStable
	}
}

// Snapshot derives the full metric set from an ordered-by-date series of
// values. The snapshot is computed fresh on every call and never persisted.
func Snapshot(kind models.IndicatorKind, values []float64) models.DerivedSnapshot {
	snap := models.DerivedSnapshot{
		Indicator:    kind,
		Trend:        models.TrendStable,
		InvertedGood: models.InvertedGood(kind),
		Points:       len(values),
	}
	if len(values) == 0 {
		return snap
	}

	latest := values[len(values)-1]
	previous := latest
	if len(values) > 1 {
		previous = values[len(values)-2]
	}

	snap.LatestValue = latest
	snap.PreviousValue = previous
	snap.FirstValueWindow = values[0]
	snap.MonthlyChangePct = ChangePct(latest, previous)
	snap.WindowChangePct = ChangePct(latest, values[0])
	snap.Trend = ClassifyTrend(snap.MonthlyChangePct)
	snap.Volatility = Volatility(values)
	snap.ShortTermTrendPct = ShortTermTrend(values)
	return snap
}

// Volatility is the population standard deviation over the trailing window
// (all available points when fewer than the window size).
func Volatility(values []float64) float64 {
	tail := lastN(values, volatilityWindow)
	if len(tail) == 0 {
		return 0
	}
	m := mean(tail)
	var sumSquares float64
	for _, v := range tail {
		diff := v - m
		sumSquares += diff * diff
	}
	return math.Sqrt(sumSquares / float64(len(tail)))
}

// ShortTermTrend compares the average of the last three points against the
// average of the three before those, as a percent change. Each sub-window's
// divisor is floored at 1 so an empty window never divides by zero.
func ShortTermTrend(values []float64) float64 {
	last := lastN(values, shortTermWindow)
	prev := window(values, 2*shortTermWindow, shortTermWindow)

	recentAvg := sum(last) / math.Max(float64(len(last)), 1)
	prevAvg := sum(prev) / math.Max(float64(len(prev)), 1)
	return ChangePct(recentAvg, prevAvg)
}

// Pearson computes the correlation coefficient between two series over the
// overlapping suffix of length min(len(x), len(y)) — the most recent points
// of each, not date-matched. Returns 0 when fewer than two points overlap or
// either series has no variance; the result is clamped to [-1, 1].
func Pearson(x, y []float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n < 2 {
		return 0
	}
	x = x[len(x)-n:]
	y = y[len(y)-n:]

	meanX := mean(x)
	meanY := mean(y)

	var numerator, denomX, denomY float64
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		numerator += dx * dy
		denomX += dx * dx
		denomY += dy * dy
	}

	denom := math.Sqrt(denomX * denomY)
	if denom == 0 {
		return 0
	}

	corr := numerator / denom
	if corr > 1 {
		return 1
	}
	if corr < -1 {
		return -1
	}
	return corr
}

// CorrelationMatrix computes the full symmetric pairwise matrix across the
// supplied series, self-correlation included.
func CorrelationMatrix(series map[models.IndicatorKind][]float64) map[models.IndicatorKind]map[models.IndicatorKind]float64 {
	matrix := make(map[models.IndicatorKind]map[models.IndicatorKind]float64, len(series))
	for a, valuesA := range series {
		row := make(map[models.IndicatorKind]float64, len(series))
		for b, valuesB := range series {
			row[b] = Pearson(valuesA, valuesB)
		}
		matrix[a] = row
	}
	return matrix
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return sum(values) / float64(len(values))
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

func lastN(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

// window returns values[len-fromEnd : len-toEnd], clipped to bounds.
func window(values []float64, fromEnd, toEnd int) []float64 {
	start := len(values) - fromEnd
	end := len(values) - toEnd
	if start < 0 {
		start = 0
	}
	if end < start {
		end = start
	}
	return values[start:end]
}
