package metrics

import (
	"math"
	"testing"
	"time"
)

func trendPoints(start time.Time, stepMinutes int, values ...float64) []TrendPoint {
	pts := make([]TrendPoint, len(values))
	for i, v := range values {
		pts[i] = TrendPoint{TS: start.Add(time.Duration(i*stepMinutes) * time.Minute), Availability: v}
	}
	return pts
}

func TestEWMA(t *testing.T) {
	tests := []struct {
		name      string
		predicted float64
		current   float64
		alpha     float64
		want      float64
	}{
		{"alpha=1.0 returns predicted", 0.8, 0.3, 1.0, 0.8},
		{"alpha=0.0 returns current", 0.8, 0.3, 0.0, 0.3},
		{"alpha=0.5 returns midpoint", 0.8, 0.2, 0.5, 0.5},
		{"default alpha=0.7", 1.0, 0.0, 0.7, 0.7},
		{"equal values unchanged", 0.5, 0.5, 0.7, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ewma(tt.predicted, tt.current, tt.alpha)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("ewma(%v, %v, %v) = %v, want %v", tt.predicted, tt.current, tt.alpha, got, tt.want)
			}
		})
	}
}

func TestBusyHourFactor(t *testing.T) {
	tests := []struct {
		hour int
		want float64
	}{
		{7, 1.15}, // early morning, spaces empty
		{8, 1.15},
		{9, 1.15},
		{10, 1.0},
		{14, 1.0},
		{18, 1.0},
		{19, 0.85}, // evening crunch
		{21, 0.85},
		{23, 0.85},
		{0, 1.0},
		{3, 1.0},
	}
	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			if got := busyHourFactor(tt.hour); got != tt.want {
				t.Errorf("busyHourFactor(%d) = %v, want %v", tt.hour, got, tt.want)
			}
		})
	}
}

func TestConfidence(t *testing.T) {
	if got := Confidence(0); got != 0.0 {
		t.Errorf("Confidence(0) = %v, want 0.0", got)
	}
	if got := Confidence(10); math.Abs(got-0.5) > 0.001 {
		t.Errorf("Confidence(10) = %v, want 0.5", got)
	}
	if got := Confidence(20); got != 1.0 {
		t.Errorf("Confidence(20) = %v, want 1.0", got)
	}
	if got := Confidence(500); got != 1.0 {
		t.Errorf("Confidence(500) = %v, should cap at 1.0", got)
	}
}

func TestForecast(t *testing.T) {
	// Noon UTC keeps busyHourFactor at 1.0 for the trend tests.
	start := time.Date(2025, 3, 10, 11, 30, 0, 0, time.UTC)
	now := start.Add(25 * time.Minute)

	t.Run("fewer than two points", func(t *testing.T) {
		if _, ok := Forecast(nil, now, 30*time.Minute); ok {
			t.Error("expected ok=false for empty history")
		}
		if _, ok := Forecast(trendPoints(start, 5, 0.5), now, 30*time.Minute); ok {
			t.Error("expected ok=false for single point")
		}
	})

	t.Run("emptying venue forecasts higher availability", func(t *testing.T) {
		pts := trendPoints(start, 5, 0.2, 0.3, 0.35, 0.4, 0.45, 0.5)
		got, ok := Forecast(pts, now, 30*time.Minute)
		if !ok {
			t.Fatal("expected ok=true")
		}
		if got <= 0.5 {
			t.Errorf("forecast %v should exceed current 0.5 for a rising trend", got)
		}
	})

	t.Run("filling venue forecasts lower availability", func(t *testing.T) {
		pts := trendPoints(start, 5, 0.8, 0.7, 0.65, 0.6, 0.55, 0.5)
		got, ok := Forecast(pts, now, 30*time.Minute)
		if !ok {
			t.Fatal("expected ok=true")
		}
		if got >= 0.5 {
			t.Errorf("forecast %v should be below current 0.5 for a falling trend", got)
		}
	})

	t.Run("flat trend stays put", func(t *testing.T) {
		pts := trendPoints(start, 5, 0.6, 0.6, 0.6, 0.6, 0.6, 0.6)
		got, ok := Forecast(pts, now, 30*time.Minute)
		if !ok {
			t.Fatal("expected ok=true")
		}
		if math.Abs(got-0.6) > 0.001 {
			t.Errorf("forecast %v, want ~0.6 for a flat trend", got)
		}
	})

	t.Run("steep trend clamps to one", func(t *testing.T) {
		pts := trendPoints(start, 5, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0)
		got, ok := Forecast(pts, now, 60*time.Minute)
		if !ok {
			t.Fatal("expected ok=true")
		}
		if got < 0.0 || got > 1.0 {
			t.Errorf("forecast %v, want clamped to [0, 1]", got)
		}
	})

	t.Run("identical timestamps fall back to latest value", func(t *testing.T) {
		pts := []TrendPoint{
			{TS: start, Availability: 0.4},
			{TS: start, Availability: 0.4},
		}
		got, ok := Forecast(pts, now, 30*time.Minute)
		if !ok {
			t.Fatal("expected ok=true")
		}
		if math.Abs(got-0.4) > 0.001 {
			t.Errorf("forecast %v, want 0.4", got)
		}
	})

	t.Run("evening crunch lowers the forecast", func(t *testing.T) {
		evening := time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)
		pts := trendPoints(evening.Add(-25*time.Minute), 5, 0.6, 0.6, 0.6, 0.6, 0.6, 0.6)
		got, ok := Forecast(pts, evening, 30*time.Minute)
		if !ok {
			t.Fatal("expected ok=true")
		}
		want := 0.6 * 0.85
		if math.Abs(got-want) > 0.001 {
			t.Errorf("forecast %v, want %v during evening crunch", got, want)
		}
	})
}
