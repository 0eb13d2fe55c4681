package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"assettracker/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// ── Per-IP token bucket ──────────────────────────────────────────────────────

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter hands out one token bucket per client IP and forgets IPs that
// have been idle for longer than idleTTL.
type ipLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	every   rate.Limit
	burst   int
	idleTTL time.Duration
}

func newIPLimiter(limit int, window time.Duration) *ipLimiter {
	if limit < 1 {
		limit = 1
	}
	return &ipLimiter{
		entries: make(map[string]*limiterEntry),
		every:   rate.Every(window / time.Duration(limit)),
		burst:   limit,
		idleTTL: window * 5,
	}
}

func (l *ipLimiter) get(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.every, l.burst)}
		l.entries[ip] = e
	}
	e.lastSeen = now
	return e.limiter
}

func (l *ipLimiter) purge(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	purged := 0
	for ip, e := range l.entries {
		if now.Sub(e.lastSeen) > l.idleTTL {
			delete(l.entries, ip)
			purged++
		}
	}
	return purged
}

func (l *ipLimiter) purgeLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for now := range ticker.C {
		if n := l.purge(now); n > 0 {
			log.Debug().Int("entries_purged", n).Msg("rate limiter purged")
		}
	}
}

func (l *ipLimiter) middleware(msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		r := l.get(c.ClientIP(), time.Now()).Reserve()
		if delay := r.Delay(); delay > 0 {
			// Give the token back; a rejected request must not push the
			// client's next slot further out.
			r.Cancel()
			c.Header("Retry-After", retryAfterSeconds(delay))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(msg))
			return
		}
		c.Next()
	}
}

func retryAfterSeconds(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// ── General API rate limiter ─────────────────────────────────────────────────

// RateLimiter allows limit requests per window per client IP, with bursts
// up to limit.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	l := newIPLimiter(limit, window)
	go l.purgeLoop(5 * time.Minute)
	return l.middleware("too many requests, try again shortly")
}

// ── Upload rate limiter ──────────────────────────────────────────────────────

// UploadRateLimiter caps CSV uploads per IP per minute. Each upload holds a
// DB connection per row, so this is much tighter than the API limit.
func UploadRateLimiter(perMinute int) gin.HandlerFunc {
	l := newIPLimiter(perMinute, time.Minute)
	go l.purgeLoop(5 * time.Minute)
	return l.middleware("too many uploads, try again in a minute")
}
