// Package metrics computes venue availability signals from timestamped
// crowd reports using exponential recency weighting.
package metrics

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

const (
	// LevelMax is the top of the occupancy/noise report scale (0=empty/silent).
	LevelMax = 5

	DefaultHalfLife     = 30 * time.Minute
	DefaultLookback     = 2 * time.Hour
	DefaultRecentWindow = time.Hour

	// neutralAvailability is returned when there is no data to aggregate:
	// absence of reports means "unknown", not "empty" or "full".
	neutralAvailability = 0.5
)

// Observation is a single occupancy/noise report for a venue, either a user
// rating or a calibrated sensor reading. Occupancy and Noise are on the 0-5
// scale and are expected to be range-checked by the producer.
type Observation struct {
	VenueID    int64
	Occupancy  int
	Noise      int
	ObservedAt time.Time
}

// Result is the aggregated signal for one venue. AvgOccupancy, AvgNoise and
// LastUpdated are nil when the venue had no observations.
type Result struct {
	Availability float64    `json:"availability"`
	AvgOccupancy *float64   `json:"avg_occupancy"`
	AvgNoise     *float64   `json:"avg_noise"`
	RecentCount  int        `json:"recent_count"`
	LastUpdated  *time.Time `json:"last_updated"`
}

// Params holds the aggregation time constants. The zero value is usable and
// behaves like DefaultParams.
type Params struct {
	// HalfLife is the age at which an observation's weight drops to one half.
	HalfLife time.Duration
	// Lookback is the window the caller is expected to restrict observations
	// to before handing them to Compute. Compute itself does not filter.
	Lookback time.Duration
	// RecentWindow bounds the plain (unweighted) RecentCount.
	RecentWindow time.Duration
}

func DefaultParams() Params {
	return Params{
		HalfLife:     DefaultHalfLife,
		Lookback:     DefaultLookback,
		RecentWindow: DefaultRecentWindow,
	}
}

func (p Params) withDefaults() Params {
	if p.HalfLife <= 0 {
		p.HalfLife = DefaultHalfLife
	}
	if p.Lookback <= 0 {
		p.Lookback = DefaultLookback
	}
	if p.RecentWindow <= 0 {
		p.RecentWindow = DefaultRecentWindow
	}
	return p
}

// Compute folds observations into a Result using exponential decay weights
// relative to now: weight = exp(-age/tau) with tau = HalfLife/ln2, so a report
// one half-life old counts exactly half as much as a fresh one. Observations
// stamped in the future are treated as age zero. The input order does not
// matter and the slice is not modified.
//
// An empty input yields the neutral default rather than an error; with at
// least one observation the total weight is strictly positive, so no division
// by zero can occur.
func (p Params) Compute(obs []Observation, now time.Time) Result {
	p = p.withDefaults()

	if len(obs) == 0 {
		return Result{Availability: neutralAvailability}
	}

	tau := p.HalfLife.Seconds() / math.Ln2

	weights := make([]float64, 0, len(obs))
	avails := make([]float64, 0, len(obs))
	occupancies := make([]float64, 0, len(obs))
	noises := make([]float64, 0, len(obs))

	var last time.Time
	recent := 0

	for _, o := range obs {
		age := now.Sub(o.ObservedAt).Seconds()
		if age < 0 {
			age = 0
		}

		occ := clampLevel(float64(o.Occupancy))
		noi := clampLevel(float64(o.Noise))

		weights = append(weights, math.Exp(-age/tau))
		avails = append(avails, 1.0-occ/LevelMax)
		occupancies = append(occupancies, occ)
		noises = append(noises, noi)

		if o.ObservedAt.After(last) {
			last = o.ObservedAt
		}
		if now.Sub(o.ObservedAt) <= p.RecentWindow {
			recent++
		}
	}

	avgOccupancy := stat.Mean(occupancies, weights)
	avgNoise := stat.Mean(noises, weights)

	return Result{
		Availability: clamp01(stat.Mean(avails, weights)),
		AvgOccupancy: &avgOccupancy,
		AvgNoise:     &avgNoise,
		RecentCount:  recent,
		LastUpdated:  &last,
	}
}

// ComputeByVenue groups a mixed-venue observation stream and folds each group
// with Compute. Venues with no observations are simply absent from the map;
// callers wanting the neutral default for them should call Compute(nil, now).
func (p Params) ComputeByVenue(obs []Observation, now time.Time) map[int64]Result {
	groups := make(map[int64][]Observation)
	for _, o := range obs {
		groups[o.VenueID] = append(groups[o.VenueID], o)
	}

	results := make(map[int64]Result, len(groups))
	for venueID, group := range groups {
		results[venueID] = p.Compute(group, now)
	}
	return results
}

func clampLevel(v float64) float64 {
	return math.Max(0, math.Min(LevelMax, v))
}

func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}
