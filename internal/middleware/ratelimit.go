package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// IPRateLimiter keeps one token bucket per client IP. Buckets of IPs that go
// quiet are dropped by Sweep; a returning IP starts with a full bucket.
type IPRateLimiter struct {
	mu  sync.Mutex
	ips map[string]*visitor
	r   rate.Limit
	b   int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter allows r requests per second per IP with bursts of b.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips: make(map[string]*visitor),
		r:   r,
		b:   b,
	}
}

// Limiter returns the bucket for ip, creating it on first sight, and marks ip
// as seen now.
func (i *IPRateLimiter) Limiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()
	v, ok := i.ips[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(i.r, i.b)}
		i.ips[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Len reports how many IPs currently hold a bucket.
func (i *IPRateLimiter) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.ips)
}

// Sweep forgets every IP last seen before cutoff and reports how many went.
func (i *IPRateLimiter) Sweep(cutoff time.Time) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	n := 0
	for ip, v := range i.ips {
		if v.lastSeen.Before(cutoff) {
			delete(i.ips, ip)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval, dropping IPs idle for longer than
// idle, until ctx is done.
func (i *IPRateLimiter) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			i.Sweep(now.Add(-idle))
		}
	}
}

// Allow spends one token from ip's bucket.
func (i *IPRateLimiter) Allow(ip string) bool {
	return i.Limiter(ip).Allow()
}

// RateLimit answers 429 once a client IP runs out of tokens. It should run
// after chi's RealIP so proxied clients are told apart.
func RateLimit(limiter *IPRateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !limiter.Allow(ip) {
				logger.Warn("rate limit exceeded", slog.String("ip", ip), slog.String("path", r.URL.Path))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr. RealIP leaves a bare address, the
// stdlib server leaves host:port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
