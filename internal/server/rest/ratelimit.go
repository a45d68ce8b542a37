package rest

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

const (
	loginRequestsPerMinute = 10
	loginBurst             = 5
	// maxTrackedIPs bounds the limiter map; it is reset when full.
	maxTrackedIPs = 10000
)

// loginLimiter throttles login requests per client IP. It complements the
// per-username lockout, which a caller can dodge by cycling usernames.
type loginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newLoginLimiter(perMinute, burst int) *loginLimiter {
	return &loginLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
	}
}

func (l *loginLimiter) allow(ip string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[ip]
	if !ok {
		if len(l.limiters) >= maxTrackedIPs {
			l.limiters = make(map[string]*rate.Limiter)
		}
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

func (s *Server) loginRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(s.clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, codeRateLimited, "Too many login attempts. Please slow down.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
