package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"taskboard/backend/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// fixedWindow counts requests in consecutive windows of equal length. The
// count resets when a new window starts; it never refills mid-window.
type fixedWindow struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	start  time.Time
	count  int
	now    func() time.Time
}

func newFixedWindow(max int, window time.Duration, now func() time.Time) *fixedWindow {
	return &fixedWindow{max: max, window: window, start: now(), now: now}
}

// allow reports whether one more request fits in the current window. When it
// does not, it also returns the time left until the window resets.
func (w *fixedWindow) allow() (bool, time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if elapsed := now.Sub(w.start); elapsed >= w.window {
		w.start = w.start.Add(elapsed - elapsed%w.window)
		w.count = 0
	}
	if w.count >= w.max {
		return false, w.start.Add(w.window).Sub(now)
	}
	w.count++
	return true, 0
}

// RateLimit applies one process-wide limit to every request: at most max
// requests per fixed window.
func RateLimit(max int, window time.Duration) gin.HandlerFunc {
	return rateLimit(newFixedWindow(max, window, time.Now))
}

func rateLimit(w *fixedWindow) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retryAfter := w.allow()
		if !ok {
			reject(c, retryAfter)
			return
		}
		c.Next()
	}
}

func reject(c *gin.Context, retryAfter time.Duration) {
	metrics.RateLimitedRequests.Inc()
	c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests, please try again later."})
}
