package models

import "time"

// Snapshot is one aggregation cycle's availability record for a venue,
// written by the aggregator service and served as venue history.
type Snapshot struct {
	TS                   time.Time `gorm:"column:ts;primaryKey" json:"ts"`
	VenueID              int64     `gorm:"column:venue_id;primaryKey" json:"venue_id"`
	Availability         float64   `gorm:"column:availability" json:"availability"`
	AvgOccupancy         *float64  `gorm:"column:avg_occupancy" json:"avg_occupancy"`
	AvgNoise             *float64  `gorm:"column:avg_noise" json:"avg_noise"`
	SampleCount          int       `gorm:"column:sample_count" json:"sample_count"`
	Confidence           *float64  `gorm:"column:confidence" json:"confidence"`
	ForecastAvailability *float64  `gorm:"column:forecast_availability" json:"forecast_availability"`
	HorizonMin           int       `gorm:"column:horizon_min" json:"horizon_min"`
	ModelVersion         string    `gorm:"column:model_version" json:"model_version"`
}

func (Snapshot) TableName() string { return "availability_snapshots" }
