package metrics

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

const (
	// ewmaAlpha blends the regression extrapolation with the latest observed
	// availability; higher values trust the trend more.
	ewmaAlpha = 0.7
)

// TrendPoint is one availability sample in a venue's recent history,
// typically a stored snapshot.
type TrendPoint struct {
	TS           time.Time
	Availability float64
}

// Forecast extrapolates a venue's availability `horizon` past `now` from its
// recent trend: a least-squares line over the points, EWMA-blended with the
// latest value, adjusted for the campus daily rhythm and clamped to [0, 1].
// Returns false when fewer than two points are supplied.
func Forecast(points []TrendPoint, now time.Time, horizon time.Duration) (float64, bool) {
	if len(points) < 2 {
		return 0, false
	}

	sorted := make([]TrendPoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TS.Before(sorted[j].TS) })

	origin := sorted[0].TS
	latest := sorted[len(sorted)-1]

	xs := make([]float64, len(sorted))
	ys := make([]float64, len(sorted))
	for i, pt := range sorted {
		xs[i] = pt.TS.Sub(origin).Minutes()
		ys[i] = pt.Availability
	}

	target := now.Add(horizon)

	var predicted float64
	if latest.TS.Equal(origin) {
		// All samples share one timestamp; no slope to fit.
		predicted = latest.Availability
	} else {
		alpha, beta := stat.LinearRegression(xs, ys, nil, false)
		predicted = beta*target.Sub(origin).Minutes() + alpha
	}

	blended := ewma(predicted, latest.Availability, ewmaAlpha)
	return clamp01(blended * busyHourFactor(target.UTC().Hour())), true
}

func ewma(predicted, current, alpha float64) float64 {
	return alpha*predicted + (1-alpha)*current
}

// busyHourFactor adjusts forecast availability for the campus daily rhythm:
// study spaces empty out in the early morning and fill up during the evening
// crunch.
func busyHourFactor(hour int) float64 {
	switch {
	case hour >= 7 && hour <= 9:
		return 1.15
	case hour >= 19 && hour <= 23:
		return 0.85
	default:
		return 1.0
	}
}

// Confidence maps a sample count to a [0, 1] confidence score; twenty reports
// in the window count as fully confident.
func Confidence(sampleCount int) float64 {
	return math.Min(1.0, float64(sampleCount)/20.0)
}
