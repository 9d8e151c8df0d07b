package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"studyspace-api/models"
	"studyspace-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RatingsHandler struct {
	db    *gorm.DB
	cache *services.CacheService
}

func NewRatingsHandler(db *gorm.DB, cache *services.CacheService) *RatingsHandler {
	return &RatingsHandler{db: db, cache: cache}
}

// Occupancy and Noise are pointers so a literal 0 (empty / silent) still
// satisfies the required binding.
type RatingRequest struct {
	VenueID   int64 `json:"venue_id" binding:"required"`
	Occupancy *int  `json:"occupancy" binding:"required,min=0,max=5"`
	Noise     *int  `json:"noise" binding:"required,min=0,max=5"`
}

func (h *RatingsHandler) Create(c *gin.Context) {
	var req RatingRequest
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

	rating := models.Rating{
		VenueID:   req.VenueID,
		Occupancy: *req.Occupancy,
		Noise:     *req.Noise,
		Source:    models.RatingSourceUser,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.db.Create(&rating).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create rating"})
		return
	}

	// New report changes every venue summary, so drop the list cache and
	// nudge live listeners.
	go func() {
		ctx := context.Background()
		h.cache.Delete(ctx, "venues:all")
		h.cache.Publish(ctx, LiveChannel, gin.H{
			"type":     "rating",
			"venue_id": rating.VenueID,
		})
	}()

	c.JSON(http.StatusCreated, gin.H{"id": rating.ID})
}

func (h *RatingsHandler) ListForVenue(c *gin.Context) {
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
	cacheKey := fmt.Sprintf("ratings:%d:%d:%s", id, p.Limit, beforeStr)

	var cached CursorResponse
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && cached.Data != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	query := h.db.Model(&models.Rating{}).
		Where("venue_id = ?", id).
		Order("created_at DESC").
		Limit(p.Limit + 1)
	if p.Before != nil {
		query = query.Where("created_at < ?", *p.Before)
	}

	var rows []models.Rating
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
		nextCursor = rows[len(rows)-1].CreatedAt.Format(time.RFC3339Nano)
	}

	resp := CursorResponse{Data: rows, NextCursor: nextCursor, HasMore: hasMore}
	go h.cache.Set(context.Background(), cacheKey, resp, 5*time.Second)

	c.JSON(http.StatusOK, resp)
}
