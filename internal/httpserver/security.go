package httpserver

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/httputil"
)

// SecurityHeaders adds standard security headers to every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		next.ServeHTTP(w, r)
	})
}

// Simple in-memory token bucket limiter keyed by client IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
}

type visitor struct {
	lastSeen time.Time
	tokens   float64
}

const (
	rateRefillPerSec = 10
	rateBurst        = 30
)

var limiter = &rateLimiter{
	visitors: make(map[string]*visitor),
}

// pruneVisitors drops entries idle long enough to be fully refilled anyway.
func (rl *rateLimiter) pruneVisitors() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := time.Now()
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > 3*time.Minute {
			delete(rl.visitors, ip)
		}
	}
}

func init() {
	go func() {
		for {
			time.Sleep(1 * time.Minute)
			limiter.pruneVisitors()
		}
	}()
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware allows rateRefillPerSec requests per second with a
// burst of rateBurst per client IP.
func RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		limiter.mu.Lock()
		v, exists := limiter.visitors[ip]
		if !exists {
			v = &visitor{tokens: rateBurst, lastSeen: time.Now()}
			limiter.visitors[ip] = v
		}

		now := time.Now()
		elapsed := now.Sub(v.lastSeen).Seconds()
		v.lastSeen = now

		v.tokens += elapsed * rateRefillPerSec
		if v.tokens > rateBurst {
			v.tokens = rateBurst
		}

		if v.tokens < 1 {
			limiter.mu.Unlock()
			httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.ErrorResponse{Error: "rate limit exceeded"})
			return
		}

		v.tokens -= 1
		limiter.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}
