package metrics

import (
	"math"
	"testing"
	"time"
)

var testNow = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func obsAt(age time.Duration, occupancy, noise int) Observation {
	return Observation{VenueID: 1, Occupancy: occupancy, Noise: noise, ObservedAt: testNow.Add(-age)}
}

func TestComputeEmpty(t *testing.T) {
	got := DefaultParams().Compute(nil, testNow)

	if got.Availability != 0.5 {
		t.Errorf("Availability = %v, want 0.5 neutral default", got.Availability)
	}
	if got.AvgOccupancy != nil {
		t.Errorf("AvgOccupancy = %v, want nil", *got.AvgOccupancy)
	}
	if got.AvgNoise != nil {
		t.Errorf("AvgNoise = %v, want nil", *got.AvgNoise)
	}
	if got.RecentCount != 0 {
		t.Errorf("RecentCount = %d, want 0", got.RecentCount)
	}
	if got.LastUpdated != nil {
		t.Errorf("LastUpdated = %v, want nil", *got.LastUpdated)
	}
}

func TestComputeSingleObservation(t *testing.T) {
	t.Run("empty venue at age zero is fully available", func(t *testing.T) {
		got := DefaultParams().Compute([]Observation{obsAt(0, 0, 0)}, testNow)
		if got.Availability != 1.0 {
			t.Errorf("Availability = %v, want exactly 1.0", got.Availability)
		}
	})

	t.Run("packed venue at age zero is fully unavailable", func(t *testing.T) {
		got := DefaultParams().Compute([]Observation{obsAt(0, 5, 5)}, testNow)
		if got.Availability != 0.0 {
			t.Errorf("Availability = %v, want exactly 0.0", got.Availability)
		}
	})

	t.Run("weight cancels out of the average", func(t *testing.T) {
		// A lone stale observation still reports its own levels exactly.
		got := DefaultParams().Compute([]Observation{obsAt(90 * time.Minute, 3, 2)}, testNow)
		if got.AvgOccupancy == nil || math.Abs(*got.AvgOccupancy-3.0) > 1e-9 {
			t.Errorf("AvgOccupancy = %v, want 3.0", got.AvgOccupancy)
		}
		if got.AvgNoise == nil || math.Abs(*got.AvgNoise-2.0) > 1e-9 {
			t.Errorf("AvgNoise = %v, want 2.0", got.AvgNoise)
		}
	})
}

func TestComputeHalfLifeWeighting(t *testing.T) {
	// Two observations, one fresh and one exactly one half-life old:
	// weights 1.0 and 0.5, so avg_occupancy = (2*1.0 + 4*0.5) / 1.5.
	obs := []Observation{
		obsAt(0, 2, 1),
		obsAt(30*time.Minute, 4, 3),
	}
	got := DefaultParams().Compute(obs, testNow)

	wantOcc := 4.0 / 1.5
	if got.AvgOccupancy == nil || math.Abs(*got.AvgOccupancy-wantOcc) > 1e-6 {
		t.Errorf("AvgOccupancy = %v, want %v", got.AvgOccupancy, wantOcc)
	}

	wantNoise := (1.0 + 3.0*0.5) / 1.5
	if got.AvgNoise == nil || math.Abs(*got.AvgNoise-wantNoise) > 1e-6 {
		t.Errorf("AvgNoise = %v, want %v", got.AvgNoise, wantNoise)
	}

	wantAvail := 1.0 - wantOcc/5.0
	if math.Abs(got.Availability-wantAvail) > 1e-6 {
		t.Errorf("Availability = %v, want %v", got.Availability, wantAvail)
	}
}

func TestComputeDecayDominance(t *testing.T) {
	// A fresh "packed" report blended with an "empty" report ten half-lives
	// old must stay close to packed: the stale report carries ~0.1% weight.
	obs := []Observation{
		obsAt(0, 5, 0),
		obsAt(300*time.Minute, 0, 0),
	}
	got := DefaultParams().Compute(obs, testNow)

	if got.AvgOccupancy == nil || math.Abs(*got.AvgOccupancy-5.0) > 0.1 {
		t.Errorf("AvgOccupancy = %v, want within 0.1 of 5.0", got.AvgOccupancy)
	}
	if got.Availability > 0.05 {
		t.Errorf("Availability = %v, want near 0.0", got.Availability)
	}
}

func TestComputeBounds(t *testing.T) {
	tests := []struct {
		name string
		obs  []Observation
	}{
		{"mixed ages", []Observation{obsAt(0, 1, 4), obsAt(10*time.Minute, 5, 0), obsAt(119*time.Minute, 3, 3)}},
		{"all fresh", []Observation{obsAt(0, 0, 0), obsAt(0, 5, 5), obsAt(0, 2, 3)}},
		{"all stale", []Observation{obsAt(2*time.Hour, 4, 1), obsAt(2*time.Hour, 1, 5)}},
		{"single", []Observation{obsAt(45*time.Minute, 2, 2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultParams().Compute(tt.obs, testNow)
			if got.Availability < 0.0 || got.Availability > 1.0 {
				t.Errorf("Availability = %v, want in [0, 1]", got.Availability)
			}
			if got.AvgOccupancy == nil || *got.AvgOccupancy < 0.0 || *got.AvgOccupancy > 5.0 {
				t.Errorf("AvgOccupancy = %v, want in [0, 5]", got.AvgOccupancy)
			}
			if got.AvgNoise == nil || *got.AvgNoise < 0.0 || *got.AvgNoise > 5.0 {
				t.Errorf("AvgNoise = %v, want in [0, 5]", got.AvgNoise)
			}
		})
	}
}

func TestComputeFutureObservation(t *testing.T) {
	// Clock skew between reporters and the server must not produce weights
	// above 1: a report stamped in the future behaves like a fresh one.
	obs := []Observation{
		obsAt(-5*time.Minute, 0, 0),
		obsAt(30*time.Minute, 4, 2),
	}
	got := DefaultParams().Compute(obs, testNow)

	// Weights 1.0 and 0.5: avg occupancy (0 + 4*0.5) / 1.5.
	want := 2.0 / 1.5
	if got.AvgOccupancy == nil || math.Abs(*got.AvgOccupancy-want) > 1e-6 {
		t.Errorf("AvgOccupancy = %v, want %v", got.AvgOccupancy, want)
	}
}

func TestComputeClampsOutOfRangeLevels(t *testing.T) {
	obs := []Observation{
		{VenueID: 1, Occupancy: 9, Noise: -3, ObservedAt: testNow},
	}
	got := DefaultParams().Compute(obs, testNow)

	if got.AvgOccupancy == nil || *got.AvgOccupancy != 5.0 {
		t.Errorf("AvgOccupancy = %v, want clamped to 5.0", got.AvgOccupancy)
	}
	if got.AvgNoise == nil || *got.AvgNoise != 0.0 {
		t.Errorf("AvgNoise = %v, want clamped to 0.0", got.AvgNoise)
	}
	if got.Availability != 0.0 {
		t.Errorf("Availability = %v, want 0.0 for clamped packed report", got.Availability)
	}
}

func TestComputeRecentCount(t *testing.T) {
	// The 90-minute-old report is inside the 2h lookback, so it shapes the
	// averages, but it must not be counted as recent under the 1h window.
	obs := []Observation{
		obsAt(5*time.Minute, 2, 2),
		obsAt(59*time.Minute, 3, 3),
		obsAt(90*time.Minute, 5, 5),
	}
	got := DefaultParams().Compute(obs, testNow)

	if got.RecentCount != 2 {
		t.Errorf("RecentCount = %d, want 2", got.RecentCount)
	}
	if got.AvgOccupancy == nil || *got.AvgOccupancy <= 2.0 {
		t.Errorf("AvgOccupancy = %v, stale report should still pull the average up", got.AvgOccupancy)
	}
}

func TestComputeLastUpdated(t *testing.T) {
	newest := testNow.Add(-2 * time.Minute)
	tests := []struct {
		name string
		obs  []Observation
	}{
		{"newest first", []Observation{
			{VenueID: 1, Occupancy: 1, Noise: 1, ObservedAt: newest},
			obsAt(30*time.Minute, 2, 2),
			obsAt(time.Hour, 3, 3),
		}},
		{"newest last", []Observation{
			obsAt(time.Hour, 3, 3),
			obsAt(30*time.Minute, 2, 2),
			{VenueID: 1, Occupancy: 1, Noise: 1, ObservedAt: newest},
		}},
		{"newest middle", []Observation{
			obsAt(30*time.Minute, 2, 2),
			{VenueID: 1, Occupancy: 1, Noise: 1, ObservedAt: newest},
			obsAt(time.Hour, 3, 3),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultParams().Compute(tt.obs, testNow)
			if got.LastUpdated == nil || !got.LastUpdated.Equal(newest) {
				t.Errorf("LastUpdated = %v, want %v", got.LastUpdated, newest)
			}
		})
	}
}

func TestComputeCustomHalfLife(t *testing.T) {
	// With a 10-minute half-life a 10-minute-old report weighs 0.5.
	p := Params{HalfLife: 10 * time.Minute}
	obs := []Observation{
		obsAt(0, 2, 0),
		obsAt(10*time.Minute, 4, 0),
	}
	got := p.Compute(obs, testNow)

	want := 4.0 / 1.5
	if got.AvgOccupancy == nil || math.Abs(*got.AvgOccupancy-want) > 1e-6 {
		t.Errorf("AvgOccupancy = %v, want %v", got.AvgOccupancy, want)
	}
}

func TestParamsDefaults(t *testing.T) {
	p := Params{}.withDefaults()
	if p.HalfLife != DefaultHalfLife {
		t.Errorf("HalfLife = %v, want %v", p.HalfLife, DefaultHalfLife)
	}
	if p.Lookback != DefaultLookback {
		t.Errorf("Lookback = %v, want %v", p.Lookback, DefaultLookback)
	}
	if p.RecentWindow != DefaultRecentWindow {
		t.Errorf("RecentWindow = %v, want %v", p.RecentWindow, DefaultRecentWindow)
	}

	// Zero-value Params must behave like DefaultParams.
	obs := []Observation{obsAt(0, 4, 1)}
	a := Params{}.Compute(obs, testNow)
	b := DefaultParams().Compute(obs, testNow)
	if a.Availability != b.Availability {
		t.Errorf("zero Params availability %v != default Params %v", a.Availability, b.Availability)
	}
}

func TestComputeByVenue(t *testing.T) {
	obs := []Observation{
		{VenueID: 1, Occupancy: 0, Noise: 0, ObservedAt: testNow},
		{VenueID: 2, Occupancy: 5, Noise: 4, ObservedAt: testNow},
		{VenueID: 2, Occupancy: 5, Noise: 4, ObservedAt: testNow.Add(-10 * time.Minute)},
	}
	results := DefaultParams().ComputeByVenue(obs, testNow)

	if len(results) != 2 {
		t.Fatalf("got %d venues, want 2", len(results))
	}
	if r := results[1]; r.Availability != 1.0 || r.RecentCount != 1 {
		t.Errorf("venue 1 = %+v, want availability 1.0 recent 1", r)
	}
	if r := results[2]; r.Availability != 0.0 || r.RecentCount != 2 {
		t.Errorf("venue 2 = %+v, want availability 0.0 recent 2", r)
	}
	if _, ok := results[99]; ok {
		t.Error("venue 99 should be absent from results")
	}
}
