package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"studyspace-api/models"
	"studyspace-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CheckinsHandler struct {
	db    *gorm.DB
	cache *services.CacheService
}

func NewCheckinsHandler(db *gorm.DB, cache *services.CacheService) *CheckinsHandler {
	return &CheckinsHandler{db: db, cache: cache}
}

type CheckinRequest struct {
	VenueID int64 `json:"venue_id" binding:"required"`
}

// Create opens a presence check-in. Any check-in still open for the user is
// closed first, so the partial unique index on open rows never trips.
func (h *CheckinsHandler) Create(c *gin.Context) {
	netid := c.GetString("netid")

	var req CheckinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var venue models.Venue
	if err := h.db.First(&venue, req.VenueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "venue not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	now := time.Now().UTC()
	err := h.db.Model(&models.CheckIn{}).
		Where("netid = ? AND checkout_at IS NULL", netid).
		Update("checkout_at", now).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to close previous check-in"})
		return
	}

	checkin := models.CheckIn{
		NetID:      netid,
		VenueID:    req.VenueID,
		CheckinAt:  now,
		LastSeenAt: now,
	}
	if err := h.db.Create(&checkin).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create check-in"})
		return
	}

	go h.cache.Publish(context.Background(), LiveChannel, gin.H{
		"type":     "checkin",
		"venue_id": req.VenueID,
	})

	c.JSON(http.StatusCreated, checkin)
}

// Heartbeat bumps last_seen_at on the user's open check-in.
func (h *CheckinsHandler) Heartbeat(c *gin.Context) {
	netid := c.GetString("netid")

	var row struct {
		VenueID    int64     `gorm:"column:venue_id"`
		LastSeenAt time.Time `gorm:"column:last_seen_at"`
	}
	res := h.db.Raw(
		`UPDATE checkins SET last_seen_at = now()
		 WHERE netid = ? AND checkout_at IS NULL
		 RETURNING venue_id, last_seen_at`, netid,
	).Scan(&row)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusOK, gin.H{"active": false, "venue_id": -1})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"active":       true,
		"venue_id":     row.VenueID,
		"last_seen_at": row.LastSeenAt,
	})
}

// Checkout closes the user's open check-in.
func (h *CheckinsHandler) Checkout(c *gin.Context) {
	netid := c.GetString("netid")

	var row struct {
		VenueID    int64     `gorm:"column:venue_id"`
		CheckoutAt time.Time `gorm:"column:checkout_at"`
	}
	res := h.db.Raw(
		`UPDATE checkins SET checkout_at = now()
		 WHERE netid = ? AND checkout_at IS NULL
		 RETURNING venue_id, checkout_at`, netid,
	).Scan(&row)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusOK, gin.H{"active": false, "venue_id": -1})
		return
	}

	go h.cache.Publish(context.Background(), LiveChannel, gin.H{
		"type":     "checkout",
		"venue_id": row.VenueID,
	})

	c.JSON(http.StatusOK, gin.H{
		"active":      false,
		"venue_id":    row.VenueID,
		"checkout_at": row.CheckoutAt,
	})
}

// Counts returns open check-ins seen within the window, grouped by venue.
func (h *CheckinsHandler) Counts(c *gin.Context) {
	window, ok := parseWindow(c, 120)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid window parameter, must be minutes"})
		return
	}

	var rows []struct {
		VenueID int64 `gorm:"column:venue_id" json:"venue_id"`
		Count   int   `gorm:"column:cnt" json:"count"`
	}
	err := h.db.Model(&models.CheckIn{}).
		Select("venue_id, COUNT(*) AS cnt").
		Where("checkout_at IS NULL AND last_seen_at >= ?", time.Now().UTC().Add(-window)).
		Group("venue_id").
		Order("venue_id").
		Scan(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	c.JSON(http.StatusOK, rows)
}
