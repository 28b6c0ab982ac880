package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	apperrors "github.com/rooftop/solar-rewards-go/internal/errors"
	"github.com/rooftop/solar-rewards-go/internal/httputil"
)

const (
	maxEntries      = 10000
	cleanupInterval = time.Minute
	entryTTL        = 10 * time.Minute
)

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// IPRateLimiter keeps one token bucket per client address.
type IPRateLimiter struct {
	mu          sync.Mutex
	store       map[string]*limiterEntry
	every       time.Duration
	burst       int
	lastCleanup time.Time
	now         func() time.Time
}

// NewIPRateLimiter allows burst requests per address, refilling one every
// window/burst.
func NewIPRateLimiter(burst int, window time.Duration) *IPRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &IPRateLimiter{
		store:       make(map[string]*limiterEntry),
		every:       window / time.Duration(burst),
		burst:       burst,
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

func (rl *IPRateLimiter) cleanup(now time.Time) {
	if now.Sub(rl.lastCleanup) < cleanupInterval && len(rl.store) <= maxEntries {
		return
	}
	rl.lastCleanup = now

	for key, entry := range rl.store {
		if now.Sub(entry.lastAccess) > entryTTL {
			delete(rl.store, key)
		}
	}

	if len(rl.store) > maxEntries {
		drop := len(rl.store) / 5
		for key := range rl.store {
			if drop == 0 {
				break
			}
			delete(rl.store, key)
			drop--
		}
	}
}

// Allow reports whether ip may proceed and, if not, how long until it may.
func (rl *IPRateLimiter) Allow(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.cleanup(now)

	entry, ok := rl.store[ip]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Every(rl.every), rl.burst)}
		rl.store[ip] = entry
	}
	entry.lastAccess = now

	reservation := entry.limiter.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, delay
	}
	return true, 0
}

type IPRateLimitMiddleware struct {
	limiter *IPRateLimiter
	prefix  string
}

func NewIPRateLimitMiddleware(limiter *IPRateLimiter, prefix string) *IPRateLimitMiddleware {
	return &IPRateLimitMiddleware{limiter: limiter, prefix: prefix}
}

func (m *IPRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		allowed, wait := m.limiter.Allow(m.prefix + ":" + ip)
		if !allowed {
			log.Warn().Str("ip", ip).Str("scope", m.prefix).Msg("rate limit exceeded")
			secondsLeft := int(wait.Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(secondsLeft))
			httputil.WriteError(w, apperrors.RateLimited())
			return
		}

		next.ServeHTTP(w, r)
	})
}
