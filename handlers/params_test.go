package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testContext(query string) *gin.Context {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/test"+query, nil)
	return c
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantLimit int
	}{
		{"defaults", "", DefaultLimit},
		{"custom limit", "?limit=25", 25},
		{"limit capped at max", "?limit=9999", MaxLimit},
		{"zero limit falls back", "?limit=0", DefaultLimit},
		{"negative limit falls back", "?limit=-5", DefaultLimit},
		{"garbage limit falls back", "?limit=abc", DefaultLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParsePagination(testContext(tt.query))
			if p.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", p.Limit, tt.wantLimit)
			}
			if p.Before != nil {
				t.Errorf("Before = %v, want nil", p.Before)
			}
		})
	}

	t.Run("before cursor parsed", func(t *testing.T) {
		p := ParsePagination(testContext("?before=2025-03-01T12:00:00.000000001Z"))
		if p.Before == nil {
			t.Fatal("Before = nil, want parsed time")
		}
		want := time.Date(2025, 3, 1, 12, 0, 0, 1, time.UTC)
		if !p.Before.Equal(want) {
			t.Errorf("Before = %v, want %v", p.Before, want)
		}
	})

	t.Run("invalid before ignored", func(t *testing.T) {
		p := ParsePagination(testContext("?before=yesterday"))
		if p.Before != nil {
			t.Errorf("Before = %v, want nil", p.Before)
		}
	})
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		want   time.Duration
		wantOK bool
	}{
		{"absent uses fallback", "", 120 * time.Minute, true},
		{"custom minutes", "?window=60", 60 * time.Minute, true},
		{"zero window allowed", "?window=0", 0, true},
		{"large window allowed", "?window=1440", 1440 * time.Minute, true},
		{"garbage rejected", "?window=invalid", 0, false},
		{"negative rejected", "?window=-10", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseWindow(testContext(tt.query), 120)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("window = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseCoord(t *testing.T) {
	t.Run("valid coordinate", func(t *testing.T) {
		got, ok := parseCoord(testContext("?lat=41.3109"), "lat")
		if !ok {
			t.Fatal("ok = false, want true")
		}
		if got != 41.3109 {
			t.Errorf("lat = %v, want 41.3109", got)
		}
	})

	t.Run("negative coordinate", func(t *testing.T) {
		got, ok := parseCoord(testContext("?lng=-72.9287"), "lng")
		if !ok {
			t.Fatal("ok = false, want true")
		}
		if got != -72.9287 {
			t.Errorf("lng = %v, want -72.9287", got)
		}
	})

	t.Run("missing parameter", func(t *testing.T) {
		if _, ok := parseCoord(testContext(""), "lat"); ok {
			t.Error("ok = true for missing parameter, want false")
		}
	})

	t.Run("garbage rejected", func(t *testing.T) {
		if _, ok := parseCoord(testContext("?lat=north"), "lat"); ok {
			t.Error("ok = true for garbage, want false")
		}
	})
}

func TestParseID(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		want   int64
		wantOK bool
	}{
		{"valid id", "7", 7, true},
		{"large id", "9223372036854775807", 9223372036854775807, true},
		{"zero rejected", "0", 0, false},
		{"negative rejected", "-3", 0, false},
		{"garbage rejected", "abc", 0, false},
		{"empty rejected", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testContext("")
			c.Params = gin.Params{{Key: "id", Value: tt.id}}
			got, ok := parseID(c)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("id = %d, want %d", got, tt.want)
			}
		})
	}
}
