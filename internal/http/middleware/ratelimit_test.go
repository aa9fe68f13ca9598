package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimiter_Allow(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)
	base := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return base }

	if !limiter.Allow("a") || !limiter.Allow("a") {
		t.Fatal("burst should allow two requests")
	}
	if limiter.Allow("a") {
		t.Fatal("third request in the window should be rejected")
	}
	if !limiter.Allow("b") {
		t.Fatal("other clients have their own bucket")
	}

	limiter.now = func() time.Time { return base.Add(31 * time.Second) }
	if !limiter.Allow("a") {
		t.Fatal("bucket should refill over the window")
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	limiter := NewRateLimiter(1, time.Second)
	base := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return base }
	limiter.Allow("a")

	limiter.now = func() time.Time { return base.Add(time.Second) }
	limiter.Allow("b")

	limiter.now = func() time.Time { return base.Add(3500 * time.Millisecond) }
	limiter.Cleanup()

	if _, ok := limiter.visitors["a"]; ok {
		t.Error("idle visitor a should be forgotten")
	}
	if _, ok := limiter.visitors["b"]; !ok {
		t.Error("recent visitor b should be kept")
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewRateLimiter(1, time.Hour).Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}
}
