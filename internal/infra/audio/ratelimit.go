package audio

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter allows at most rate requests per client IP in each fixed window.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*window
	rate      int
	window    time.Duration
	now       func() time.Time
	lastSweep time.Time
}

type window struct {
	used    int
	started time.Time
}

func NewRateLimiter(rate int, per time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*window),
		rate:    rate,
		window:  per,
		now:     time.Now,
	}
}

// Allow reports whether a request from ip fits in its current window.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	w, ok := rl.buckets[ip]
	if !ok || now.Sub(w.started) >= rl.window {
		w = &window{started: now}
		rl.buckets[ip] = w
	}

	if w.used >= rl.rate {
		return false
	}
	w.used++
	return true
}

// sweep drops expired windows at most once per window length.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.window {
		return
	}
	for ip, w := range rl.buckets {
		if now.Sub(w.started) >= rl.window {
			delete(rl.buckets, ip)
		}
	}
	rl.lastSweep = now
}

func (rl *RateLimiter) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", retryAfter(rl.window))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfter(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
