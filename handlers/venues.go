package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"studyspace-api/metrics"
	"studyspace-api/models"
	"studyspace-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// venueGeog builds a geography point from the lat/lng columns. The same
// expression backs the GIST index, so ST_DWithin stays index-assisted.
const venueGeog = "ST_SetSRID(ST_MakePoint(lng, lat), 4326)::geography"

// forecastHistory bounds how far back the trend input reaches.
const forecastHistory = 3 * time.Hour

// suggestionMaxAge is how long a stored alternative-venue suggestion stays
// servable before it describes availability nobody should act on.
const suggestionMaxAge = 15 * time.Minute

type VenuesHandler struct {
	db     *gorm.DB
	cache  *services.CacheService
	params metrics.Params
}

func NewVenuesHandler(db *gorm.DB, cache *services.CacheService, params metrics.Params) *VenuesHandler {
	return &VenuesHandler{db: db, cache: cache, params: params}
}

// VenueSummary is a venue plus its current aggregated signal.
type VenueSummary struct {
	models.Venue
	Availability float64    `json:"availability"`
	AvgOccupancy *float64   `json:"avg_occupancy"`
	AvgNoise     *float64   `json:"avg_noise"`
	RecentCount  int        `json:"recent_count"`
	LastUpdated  *time.Time `json:"last_updated"`
}

type VenueStatus struct {
	VenueID      int64      `json:"venue_id"`
	VenueName    string     `json:"venue_name"`
	Availability float64    `json:"availability"`
	AvgOccupancy *float64   `json:"avg_occupancy"`
	AvgNoise     *float64   `json:"avg_noise"`
	RecentCount  int        `json:"recent_count"`
	ActiveCount  int        `json:"active_count"`
	LastUpdated  *time.Time `json:"last_updated"`
}

type VenueForecast struct {
	VenueID      int64     `json:"venue_id"`
	HorizonMin   int       `json:"horizon_min"`
	Availability *float64  `json:"availability"`
	Confidence   float64   `json:"confidence"`
	GeneratedAt  time.Time `json:"generated_at"`
}

type NearbyVenue struct {
	models.Venue
	DistanceM float64 `json:"distance_m"`
}

// loadObservations pulls the rating stream for the aggregation lookback
// window. A nil venueID means all venues.
func (h *VenuesHandler) loadObservations(venueID *int64, now time.Time) ([]metrics.Observation, error) {
	query := h.db.Model(&models.Rating{}).Where("created_at >= ?", now.Add(-h.params.Lookback))
	if venueID != nil {
		query = query.Where("venue_id = ?", *venueID)
	}

	var rows []models.Rating
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	obs := make([]metrics.Observation, 0, len(rows))
	for _, r := range rows {
		obs = append(obs, metrics.Observation{
			VenueID:    r.VenueID,
			Occupancy:  r.Occupancy,
			Noise:      r.Noise,
			ObservedAt: r.CreatedAt,
		})
	}
	return obs, nil
}

// activeCounts groups open check-ins seen within the window by venue.
func (h *VenuesHandler) activeCounts(now time.Time, window time.Duration) (map[int64]int, error) {
	var rows []struct {
		VenueID int64 `gorm:"column:venue_id"`
		Cnt     int   `gorm:"column:cnt"`
	}
	err := h.db.Model(&models.CheckIn{}).
		Select("venue_id, COUNT(*) AS cnt").
		Where("checkout_at IS NULL AND last_seen_at >= ?", now.Add(-window)).
		Group("venue_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[int64]int, len(rows))
	for _, r := range rows {
		counts[r.VenueID] = r.Cnt
	}
	return counts, nil
}

func (h *VenuesHandler) summarize(venues []models.Venue, byVenue map[int64]metrics.Result, now time.Time) []VenueSummary {
	out := make([]VenueSummary, 0, len(venues))
	for _, v := range venues {
		m, ok := byVenue[v.ID]
		if !ok {
			// No observations in window: neutral default, not zero.
			m = h.params.Compute(nil, now)
		}
		out = append(out, VenueSummary{
			Venue:        v,
			Availability: m.Availability,
			AvgOccupancy: m.AvgOccupancy,
			AvgNoise:     m.AvgNoise,
			RecentCount:  m.RecentCount,
			LastUpdated:  m.LastUpdated,
		})
	}
	return out
}

func (h *VenuesHandler) List(c *gin.Context) {
	const cacheKey = "venues:all"

	var cached struct {
		Data []VenueSummary `json:"data"`
	}
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && cached.Data != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	var venues []models.Venue
	if err := h.db.Order("name").Find(&venues).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	now := time.Now().UTC()
	obs, err := h.loadObservations(nil, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	resp := gin.H{"data": h.summarize(venues, h.params.ComputeByVenue(obs, now), now)}
	go h.cache.Set(context.Background(), cacheKey, resp, 15*time.Second)

	c.JSON(http.StatusOK, resp)
}

func (h *VenuesHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid venue id"})
		return
	}

	var venue models.Venue
	if err := h.db.First(&venue, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "venue not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	c.JSON(http.StatusOK, venue)
}

func (h *VenuesHandler) Status(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid venue id"})
		return
	}

	var venue models.Venue
	if err := h.db.First(&venue, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "venue not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	now := time.Now().UTC()
	obs, err := h.loadObservations(&id, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}
	m := h.params.Compute(obs, now)

	var active int64
	err = h.db.Model(&models.CheckIn{}).
		Where("venue_id = ? AND checkout_at IS NULL AND last_seen_at >= ?", id, now.Add(-h.params.Lookback)).
		Count(&active).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	c.JSON(http.StatusOK, VenueStatus{
		VenueID:      id,
		VenueName:    venue.Name,
		Availability: m.Availability,
		AvgOccupancy: m.AvgOccupancy,
		AvgNoise:     m.AvgNoise,
		RecentCount:  m.RecentCount,
		ActiveCount:  int(active),
		LastUpdated:  m.LastUpdated,
	})
}

func (h *VenuesHandler) History(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid venue id"})
		return
	}

	p := ParsePagination(c)

	beforeStr := ""
	if p.Before != nil {
		beforeStr = p.Before.Format(time.RFC3339Nano)
	}
	cacheKey := fmt.Sprintf("history:%d:%d:%s", id, p.Limit, beforeStr)

	var cached CursorResponse
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && cached.Data != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	query := h.db.Model(&models.Snapshot{}).
		Where("venue_id = ?", id).
		Order("ts DESC").
		Limit(p.Limit + 1)
	if p.Before != nil {
		query = query.Where("ts < ?", *p.Before)
	}

	var rows []models.Snapshot
	if err := query.Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	hasMore := len(rows) > p.Limit
	if hasMore {
		rows = rows[:p.Limit]
	}

	var nextCursor string
	if hasMore && len(rows) > 0 {
		nextCursor = rows[len(rows)-1].TS.Format(time.RFC3339Nano)
	}

	resp := CursorResponse{Data: rows, NextCursor: nextCursor, HasMore: hasMore}
	go h.cache.Set(context.Background(), cacheKey, resp, 30*time.Second)

	c.JSON(http.StatusOK, resp)
}

func (h *VenuesHandler) Forecast(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid venue id"})
		return
	}

	horizonStr := c.DefaultQuery("horizon", "30")
	horizon, err := strconv.Atoi(horizonStr)
	if err != nil || horizon <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid horizon parameter, must be a positive integer"})
		return
	}

	var exists int64
	if err := h.db.Model(&models.Venue{}).Where("id = ?", id).Count(&exists).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}
	if exists == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "venue not found"})
		return
	}

	now := time.Now().UTC()
	var snaps []models.Snapshot
	err = h.db.Model(&models.Snapshot{}).
		Where("venue_id = ? AND ts >= ?", id, now.Add(-forecastHistory)).
		Order("ts ASC").
		Find(&snaps).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	points := make([]metrics.TrendPoint, 0, len(snaps))
	for _, s := range snaps {
		points = append(points, metrics.TrendPoint{TS: s.TS, Availability: s.Availability})
	}

	out := VenueForecast{
		VenueID:     id,
		HorizonMin:  horizon,
		Confidence:  metrics.Confidence(len(points)),
		GeneratedAt: now,
	}
	if predicted, ok := metrics.Forecast(points, now, time.Duration(horizon)*time.Minute); ok {
		out.Availability = &predicted
	}

	c.JSON(http.StatusOK, out)
}

// Alternatives returns the most recent nearby-venue suggestion recorded for a
// crowded venue. An empty list means the venue had seats at the last pass.
func (h *VenuesHandler) Alternatives(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid venue id"})
		return
	}

	var exists int64
	if err := h.db.Model(&models.Venue{}).Where("id = ?", id).Count(&exists).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}
	if exists == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "venue not found"})
		return
	}

	cutoff := time.Now().UTC().Add(-suggestionMaxAge)
	var suggestions []models.Suggestion
	err := h.db.
		Where("venue_id = ? AND ts >= ?", id, cutoff).
		Order("ts DESC").
		Limit(1).
		Find(&suggestions).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": suggestions})
}

type venueDistance struct {
	ID        int64   `gorm:"column:id"`
	DistanceM float64 `gorm:"column:distance_m"`
}

func (h *VenuesHandler) Nearby(c *gin.Context) {
	lat, okLat := parseCoord(c, "lat")
	lng, okLng := parseCoord(c, "lng")
	if !okLat || !okLng {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng query parameters are required"})
		return
	}

	radius := 1000.0
	if radiusStr := c.Query("radius_m"); radiusStr != "" {
		r, err := strconv.ParseFloat(radiusStr, 64)
		if err != nil || r <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid radius_m parameter"})
			return
		}
		radius = r
	}

	limit := 20
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= MaxLimit {
			limit = l
		}
	}

	var rows []venueDistance
	err := h.db.Raw(fmt.Sprintf(
		`SELECT id, ST_Distance(%s, ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography) AS distance_m
		 FROM venues
		 WHERE ST_DWithin(%s, ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography, ?)
		 ORDER BY distance_m
		 LIMIT ?`, venueGeog, venueGeog),
		lng, lat, lng, lat, radius, limit,
	).Scan(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "spatial query failed"})
		return
	}

	out, err := h.attachDistances(rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (h *VenuesHandler) Nearest(c *gin.Context) {
	lat, okLat := parseCoord(c, "lat")
	lng, okLng := parseCoord(c, "lng")
	if !okLat || !okLng {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng query parameters are required"})
		return
	}

	var rows []venueDistance
	err := h.db.Raw(fmt.Sprintf(
		`SELECT id, ST_Distance(%s, ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography) AS distance_m
		 FROM venues
		 ORDER BY distance_m
		 LIMIT 1`, venueGeog),
		lng, lat,
	).Scan(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "spatial query failed"})
		return
	}
	if len(rows) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no venues"})
		return
	}

	out, err := h.attachDistances(rows)
	if err != nil || len(out) == 0 {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	c.JSON(http.StatusOK, out[0])
}

// attachDistances resolves distance rows into full venue records, keeping
// the nearest-first ordering.
func (h *VenuesHandler) attachDistances(rows []venueDistance) ([]NearbyVenue, error) {
	if len(rows) == 0 {
		return []NearbyVenue{}, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}

	var venues []models.Venue
	if err := h.db.Where("id IN ?", ids).Find(&venues).Error; err != nil {
		return nil, err
	}

	byID := make(map[int64]models.Venue, len(venues))
	for _, v := range venues {
		byID[v.ID] = v
	}

	out := make([]NearbyVenue, 0, len(rows))
	for _, r := range rows {
		if v, ok := byID[r.ID]; ok {
			out = append(out, NearbyVenue{Venue: v, DistanceM: r.DistanceM})
		}
	}
	return out, nil
}

func (h *VenuesHandler) GeoJSON(c *gin.Context) {
	var venues []models.Venue
	if err := h.db.Order("id").Find(&venues).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	now := time.Now().UTC()
	obs, err := h.loadObservations(nil, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}
	byVenue := h.params.ComputeByVenue(obs, now)

	features := make([]gin.H, 0, len(venues))
	for _, v := range venues {
		m, ok := byVenue[v.ID]
		if !ok {
			m = h.params.Compute(nil, now)
		}
		features = append(features, gin.H{
			"type":     "Feature",
			"geometry": gin.H{"type": "Point", "coordinates": []float64{v.Lng, v.Lat}},
			"properties": gin.H{
				"id":            v.ID,
				"name":          v.Name,
				"category":      v.Category,
				"capacity":      v.Capacity,
				"availability":  m.Availability,
				"avg_occupancy": m.AvgOccupancy,
				"avg_noise":     m.AvgNoise,
			},
		})
	}

	c.JSON(http.StatusOK, gin.H{"type": "FeatureCollection", "features": features})
}

type VenueOccupancy struct {
	VenueSummary
	ActiveCount int `json:"active_count"`
}

func (h *VenuesHandler) WithOccupancy(c *gin.Context) {
	window, ok := parseWindow(c, int(h.params.Lookback.Minutes()))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid window parameter, must be minutes"})
		return
	}

	var venues []models.Venue
	if err := h.db.Order("name").Find(&venues).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	now := time.Now().UTC()
	obs, err := h.loadObservations(nil, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}
	active, err := h.activeCounts(now, window)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	summaries := h.summarize(venues, h.params.ComputeByVenue(obs, now), now)
	out := make([]VenueOccupancy, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, VenueOccupancy{VenueSummary: s, ActiveCount: active[s.ID]})
	}

	c.JSON(http.StatusOK, gin.H{"data": out})
}

type CreateVenueRequest struct {
	Name          string            `json:"name" binding:"required"`
	Category      string            `json:"category" binding:"required"`
	Lat           *float64          `json:"lat" binding:"required"`
	Lng           *float64          `json:"lng" binding:"required"`
	Description   *string           `json:"description"`
	Capacity      *int              `json:"capacity"`
	Amenities     []string          `json:"amenities"`
	Accessibility []string          `json:"accessibility"`
	OpeningHours  map[string]string `json:"opening_hours"`
	ImageURL      *string           `json:"image_url"`
	Verified      bool              `json:"verified"`
}

func (h *VenuesHandler) Create(c *gin.Context) {
	var req CreateVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	venue := models.Venue{
		Name:          req.Name,
		Category:      req.Category,
		Lat:           *req.Lat,
		Lng:           *req.Lng,
		Description:   req.Description,
		Capacity:      req.Capacity,
		Amenities:     req.Amenities,
		Accessibility: req.Accessibility,
		OpeningHours:  req.OpeningHours,
		ImageURL:      req.ImageURL,
		Verified:      req.Verified,
	}
	if err := h.db.Create(&venue).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "venue name already exists"})
		return
	}

	go h.cache.Delete(context.Background(), "venues:all")
	c.JSON(http.StatusCreated, venue)
}

type UpdateVenueRequest struct {
	Name          *string            `json:"name"`
	Category      *string            `json:"category"`
	Lat           *float64           `json:"lat"`
	Lng           *float64           `json:"lng"`
	Description   *string            `json:"description"`
	Capacity      *int               `json:"capacity"`
	Amenities     *[]string          `json:"amenities"`
	Accessibility *[]string          `json:"accessibility"`
	OpeningHours  *map[string]string `json:"opening_hours"`
	ImageURL      *string            `json:"image_url"`
	Verified      *bool              `json:"verified"`
}

func (h *VenuesHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid venue id"})
		return
	}

	var req UpdateVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var venue models.Venue
	if err := h.db.First(&venue, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "venue not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	if req.Name != nil {
		venue.Name = *req.Name
	}
	if req.Category != nil {
		venue.Category = *req.Category
	}
	if req.Lat != nil {
		venue.Lat = *req.Lat
	}
	if req.Lng != nil {
		venue.Lng = *req.Lng
	}
	if req.Description != nil {
		venue.Description = req.Description
	}
	if req.Capacity != nil {
		venue.Capacity = req.Capacity
	}
	if req.Amenities != nil {
		venue.Amenities = *req.Amenities
	}
	if req.Accessibility != nil {
		venue.Accessibility = *req.Accessibility
	}
	if req.OpeningHours != nil {
		venue.OpeningHours = *req.OpeningHours
	}
	if req.ImageURL != nil {
		venue.ImageURL = req.ImageURL
	}
	if req.Verified != nil {
		venue.Verified = *req.Verified
	}

	if err := h.db.Save(&venue).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update venue"})
		return
	}

	go h.cache.Delete(context.Background(), "venues:all")
	c.JSON(http.StatusOK, venue)
}
