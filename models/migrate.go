package models

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate creates the schema plus the indexes AutoMigrate cannot express:
// the PostGIS geography index used by proximity queries and the partial
// unique index that enforces one open check-in per user.
func Migrate(db *gorm.DB) error {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS postgis").Error; err != nil {
		return fmt.Errorf("create postgis extension: %w", err)
	}

	if err := db.AutoMigrate(&Venue{}, &User{}, &CheckIn{}, &Rating{}, &Snapshot{}, &Suggestion{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	if err := db.Exec(
		`CREATE INDEX IF NOT EXISTS venues_geo_idx ON venues
		 USING GIST ((ST_SetSRID(ST_MakePoint(lng, lat), 4326)::geography))`,
	).Error; err != nil {
		return fmt.Errorf("create venues geo index: %w", err)
	}

	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS checkins_active_netid_uidx
		 ON checkins (netid) WHERE checkout_at IS NULL`,
	).Error; err != nil {
		return fmt.Errorf("create active checkin index: %w", err)
	}

	return nil
}
