package models

import "time"

const (
	RatingSourceUser   = "user"
	RatingSourceSensor = "sensor"
)

// Rating is an anonymous crowd/noise report on the 0-5 scale, the observation
// stream the availability aggregation runs over.
type Rating struct {
	ID        int64     `gorm:"column:id;primaryKey" json:"id"`
	VenueID   int64     `gorm:"column:venue_id;index:ratings_venue_time_idx,priority:1" json:"venue_id"`
	Occupancy int       `gorm:"column:occupancy;check:ratings_occupancy_range,occupancy BETWEEN 0 AND 5" json:"occupancy"`
	Noise     int       `gorm:"column:noise;check:ratings_noise_range,noise BETWEEN 0 AND 5" json:"noise"`
	Source    string    `gorm:"column:source;default:user" json:"source"`
	CreatedAt time.Time `gorm:"column:created_at;index:ratings_venue_time_idx,priority:2" json:"created_at"`
}

func (Rating) TableName() string { return "ratings" }
