package models

import "time"

type Venue struct {
	ID            int64             `gorm:"column:id;primaryKey" json:"id"`
	Name          string            `gorm:"column:name;uniqueIndex:venues_name_uidx" json:"name"`
	Category      string            `gorm:"column:category;index" json:"category"`
	Lat           float64           `gorm:"column:lat" json:"lat"`
	Lng           float64           `gorm:"column:lng" json:"lng"`
	Description   *string           `gorm:"column:description" json:"description,omitempty"`
	Capacity      *int              `gorm:"column:capacity" json:"capacity"`
	Amenities     []string          `gorm:"column:amenities;type:jsonb;serializer:json" json:"amenities,omitempty"`
	Accessibility []string          `gorm:"column:accessibility;type:jsonb;serializer:json" json:"accessibility,omitempty"`
	OpeningHours  map[string]string `gorm:"column:opening_hours;type:jsonb;serializer:json" json:"opening_hours,omitempty"`
	ImageURL      *string           `gorm:"column:image_url" json:"image_url,omitempty"`
	Verified      bool              `gorm:"column:verified" json:"verified"`
	CreatedAt     time.Time         `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"column:updated_at" json:"updated_at"`
}

func (Venue) TableName() string { return "venues" }
