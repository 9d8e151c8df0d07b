package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

type PaginationParams struct {
	Limit  int
	Before *time.Time
}

type CursorResponse struct {
	Data       interface{} `json:"data"`
	NextCursor string      `json:"next_cursor,omitempty"`
	HasMore    bool        `json:"has_more"`
}

func ParsePagination(c *gin.Context) PaginationParams {
	p := PaginationParams{Limit: DefaultLimit}

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			p.Limit = l
		}
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}

	if beforeStr := c.Query("before"); beforeStr != "" {
		if t, err := time.Parse(time.RFC3339Nano, beforeStr); err == nil {
			p.Before = &t
		}
	}

	return p
}

// parseWindow reads the ?window= parameter as minutes. Returns false when
// the value is present but not a non-negative integer.
func parseWindow(c *gin.Context, fallbackMin int) (time.Duration, bool) {
	windowStr := c.Query("window")
	if windowStr == "" {
		return time.Duration(fallbackMin) * time.Minute, true
	}
	minutes, err := strconv.Atoi(windowStr)
	if err != nil || minutes < 0 {
		return 0, false
	}
	return time.Duration(minutes) * time.Minute, true
}

// parseCoord reads a required float query parameter (lat, lng).
func parseCoord(c *gin.Context, name string) (float64, bool) {
	v, err := strconv.ParseFloat(c.Query(name), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseID reads the :id path parameter.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
