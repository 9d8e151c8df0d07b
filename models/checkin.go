package models

import "time"

// CheckIn is a presence record: who is sitting where right now. A user has at
// most one row with a NULL checkout_at at any time.
type CheckIn struct {
	ID         int64      `gorm:"column:id;primaryKey" json:"id"`
	NetID      string     `gorm:"column:netid;index" json:"netid"`
	VenueID    int64      `gorm:"column:venue_id;index" json:"venue_id"`
	CheckinAt  time.Time  `gorm:"column:checkin_at" json:"checkin_at"`
	LastSeenAt time.Time  `gorm:"column:last_seen_at" json:"last_seen_at"`
	CheckoutAt *time.Time `gorm:"column:checkout_at" json:"checkout_at"`
}

func (CheckIn) TableName() string { return "checkins" }
