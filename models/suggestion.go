package models

import "time"

// Suggestion is a "try this instead" pointer produced by the suggester when
// a venue runs low on seats: the best nearby venue with meaningfully better
// availability at the time of the cycle.
type Suggestion struct {
	TS               time.Time `gorm:"column:ts;primaryKey" json:"ts"`
	VenueID          int64     `gorm:"column:venue_id;primaryKey" json:"venue_id"`
	AltVenueID       int64     `gorm:"column:alt_venue_id;primaryKey" json:"alt_venue_id"`
	Reason           string    `gorm:"column:reason" json:"reason"`
	DistanceM        float64   `gorm:"column:distance_m" json:"distance_m"`
	AvailabilityGain float64   `gorm:"column:availability_gain" json:"availability_gain"`
}

func (Suggestion) TableName() string { return "venue_suggestions" }
