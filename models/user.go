package models

import "time"

// User is a CAS-authenticated campus account. Rows are created lazily on
// first login; the NetID comes from the CAS serviceValidate response.
type User struct {
	ID                int64     `gorm:"column:id;primaryKey" json:"id"`
	NetID             string    `gorm:"column:netid;uniqueIndex" json:"netid"`
	DisplayName       *string   `gorm:"column:display_name" json:"display_name,omitempty"`
	AnonymizeCheckins bool      `gorm:"column:anonymize_checkins;default:true" json:"anonymize_checkins"`
	CreatedAt         time.Time `gorm:"column:created_at" json:"created_at"`
	LastActiveAt      time.Time `gorm:"column:last_active_at" json:"last_active_at"`
}

func (User) TableName() string { return "users" }
