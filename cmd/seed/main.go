package main

import (
	"log"

	"studyspace-api/config"
	"studyspace-api/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

// seedVenues is the initial campus venue list. The seeder is a no-op once
// any venues exist, so edits here only affect fresh databases.
var seedVenues = []models.Venue{
	{
		Name:          "Bass Library",
		Category:      "library",
		Lat:           41.3109,
		Lng:           -72.9287,
		Description:   strPtr("Main undergraduate library with flexible study spaces"),
		Capacity:      intPtr(400),
		Amenities:     []string{"WiFi", "Power outlets", "Printing", "Group study rooms"},
		Accessibility: []string{"Wheelchair accessible", "Elevator"},
		OpeningHours: map[string]string{
			"mon": "08:30-02:00",
			"tue": "08:30-02:00",
			"wed": "08:30-02:00",
			"thu": "08:30-02:00",
			"fri": "08:30-22:00",
			"sat": "10:00-22:00",
			"sun": "10:00-02:00",
		},
		ImageURL: strPtr("/static/venues/bass_library.jpg"),
		Verified: true,
	},
	{
		Name:          "Sterling Memorial Library",
		Category:      "library",
		Lat:           41.3102,
		Lng:           -72.9276,
		Description:   strPtr("Gothic cathedral-style library, quiet study atmosphere"),
		Capacity:      intPtr(500),
		Amenities:     []string{"WiFi", "Power outlets", "Silent study areas", "Research collections"},
		Accessibility: []string{"Wheelchair accessible", "Elevator"},
		OpeningHours: map[string]string{
			"mon": "08:30-00:00",
			"tue": "08:30-00:00",
			"wed": "08:30-00:00",
			"thu": "08:30-00:00",
			"fri": "08:30-17:00",
			"sat": "10:00-17:00",
			"sun": "12:00-00:00",
		},
		ImageURL: strPtr("/static/venues/sterling_memorial_library.jpg"),
		Verified: true,
	},
	{
		Name:          "Marx Science and Social Science Library",
		Category:      "library",
		Lat:           41.3083,
		Lng:           -72.9166,
		Description:   strPtr("Science library with collaborative workspaces"),
		Capacity:      intPtr(200),
		Amenities:     []string{"WiFi", "Power outlets", "Group study spaces", "Whiteboards"},
		Accessibility: []string{"Wheelchair accessible", "Elevator"},
		OpeningHours: map[string]string{
			"mon": "08:30-22:00",
			"tue": "08:30-22:00",
			"wed": "08:30-22:00",
			"thu": "08:30-22:00",
			"fri": "08:30-17:00",
			"sat": "10:00-17:00",
			"sun": "12:00-22:00",
		},
		ImageURL: strPtr("/static/venues/marx_library.jpg"),
		Verified: true,
	},
	{
		Name:          "Divinity School Library",
		Category:      "library",
		Lat:           41.3134,
		Lng:           -72.9282,
		Description:   strPtr("Quiet reading room with historical collections"),
		Capacity:      intPtr(120),
		Amenities:     []string{"WiFi", "Power outlets", "Silent study", "Reading rooms"},
		Accessibility: []string{"Wheelchair accessible"},
		OpeningHours: map[string]string{
			"mon": "08:30-22:00",
			"tue": "08:30-22:00",
			"wed": "08:30-22:00",
			"thu": "08:30-22:00",
			"fri": "08:30-17:00",
			"sat": "10:00-17:00",
			"sun": "12:00-22:00",
		},
		ImageURL: strPtr("/static/venues/divinity_school_library.jpg"),
		Verified: true,
	},
	{
		Name:          "Beinecke Plaza",
		Category:      "outdoor",
		Lat:           41.31161,
		Lng:           -72.92722,
		Description:   strPtr("Central outdoor study and gathering space"),
		Capacity:      intPtr(999),
		Amenities:     []string{"Outdoor seating"},
		Accessibility: []string{"Wheelchair accessible"},
		ImageURL:      strPtr("/static/venues/beinecke_plaza.jpg"),
		Verified:      true,
	},
	{
		Name:          "CEID (Becton Center)",
		Category:      "study",
		Lat:           41.3144,
		Lng:           -72.92528,
		Description:   strPtr("Engineering makerspace and collaborative study area"),
		Capacity:      intPtr(180),
		Amenities:     []string{"WiFi", "Power outlets", "Study tables"},
		Accessibility: []string{"Wheelchair accessible"},
		ImageURL:      strPtr("/static/venues/ceid_becton_center.jpg"),
		Verified:      true,
	},
	{
		Name:          "Good Life Center",
		Category:      "study",
		Lat:           41.3121,
		Lng:           -72.9289,
		Description:   strPtr("Wellness-centered quiet study and relaxation space"),
		Capacity:      intPtr(50),
		Amenities:     []string{"WiFi", "Power outlets"},
		Accessibility: []string{"Wheelchair accessible"},
		ImageURL:      strPtr("/static/venues/goodlife_center.jpg"),
		Verified:      true,
	},
	{
		Name:          "Haas Library",
		Category:      "library",
		Lat:           41.3141,
		Lng:           -72.9385,
		Description:   strPtr("Art and architecture library"),
		Capacity:      intPtr(150),
		Amenities:     []string{"WiFi", "Study tables"},
		Accessibility: []string{"Wheelchair accessible"},
		ImageURL:      strPtr("/static/venues/haas_library.jpg"),
		Verified:      true,
	},
	{
		Name:          "Humanities Quadrangle",
		Category:      "study",
		Lat:           41.3112,
		Lng:           -72.9257,
		Description:   strPtr("Indoor and outdoor humanities study spaces"),
		Capacity:      intPtr(200),
		Amenities:     []string{"WiFi", "Power outlets"},
		Accessibility: []string{"Wheelchair accessible"},
		ImageURL:      strPtr("/static/venues/humanities_quadrangle.jpg"),
		Verified:      true,
	},
	{
		Name:          "Linsly-Chittenden Hall",
		Category:      "study",
		Lat:           41.3097,
		Lng:           -72.9263,
		Description:   strPtr("Popular humanities academic building with study nooks"),
		Capacity:      intPtr(120),
		Amenities:     []string{"WiFi"},
		Accessibility: []string{"Wheelchair accessible"},
		ImageURL:      strPtr("/static/venues/linsly_chittenden_hall.jpeg"),
		Verified:      true,
	},
	{
		Name:          "TSAI City",
		Category:      "study",
		Lat:           41.3088,
		Lng:           -72.9269,
		Description:   strPtr("Innovation hub with open seating"),
		Capacity:      intPtr(100),
		Amenities:     []string{"WiFi", "Power outlets"},
		Accessibility: []string{"Wheelchair accessible"},
		ImageURL:      strPtr("/static/venues/TSAI_city.jpg"),
		Verified:      true,
	},
	{
		Name:          "Law School Courtyard",
		Category:      "outdoor",
		Lat:           41.3127,
		Lng:           -72.9294,
		Description:   strPtr("Outdoor courtyard with tables and seating"),
		Capacity:      intPtr(150),
		Amenities:     []string{"Outdoor seating"},
		Accessibility: []string{"Wheelchair accessible"},
		ImageURL:      strPtr("/static/venues/law_school_courtyard.jpg"),
		Verified:      true,
	},
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.GetDSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := models.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	var count int64
	if err := db.Model(&models.Venue{}).Count(&count).Error; err != nil {
		log.Fatalf("Failed to count venues: %v", err)
	}
	if count > 0 {
		log.Printf("database already has %d venues, skipping seed", count)
		return
	}

	for i := range seedVenues {
		if err := db.Create(&seedVenues[i]).Error; err != nil {
			log.Fatalf("Failed to seed %s: %v", seedVenues[i].Name, err)
		}
		log.Printf("seeded %s (%s)", seedVenues[i].Name, seedVenues[i].Category)
	}
	log.Printf("seeded %d venues", len(seedVenues))
}
