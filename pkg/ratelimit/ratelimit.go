// Package ratelimit throttles login attempts per client IP.
//
// Each IP gets a fixed window: the first attempt opens it, attempts inside
// it are counted, and once maxAttempts is exceeded further attempts are
// refused until the window elapses. A successful login clears the IP.
// Buckets live in memory and a background loop drops expired ones.
package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

type bucket struct {
	count       int
	windowStart time.Time
}

// LoginRateLimiter limits login attempts per IP.
type LoginRateLimiter struct {
	mu          sync.Mutex
	buckets     map[string]*bucket
	maxAttempts int
	window      time.Duration
	clock       clock.Clock
	stop        chan struct{}
	stopOnce    sync.Once
}

// NewLoginRateLimiter allows maxAttempts per window and starts the cleanup
// loop. Call Close to stop it.
func NewLoginRateLimiter(maxAttempts int, window time.Duration, clk clock.Clock) *LoginRateLimiter {
	rl := &LoginRateLimiter{
		buckets:     make(map[string]*bucket),
		maxAttempts: maxAttempts,
		window:      window,
		clock:       clk,
		stop:        make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow records an attempt from ip and reports whether it may proceed.
func (rl *LoginRateLimiter) Allow(ip string) bool {
	now := rl.clock.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[ip]
	if !ok || now.Sub(b.windowStart) > rl.window {
		rl.buckets[ip] = &bucket{count: 1, windowStart: now}
		return true
	}

	b.count++
	return b.count <= rl.maxAttempts
}

// Reset forgets ip, typically after a successful login.
func (rl *LoginRateLimiter) Reset(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.buckets, ip)
}

// RetryAfterSeconds is the Retry-After value for a refused ip.
func (rl *LoginRateLimiter) RetryAfterSeconds(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[ip]
	if !ok {
		return 0
	}

	remaining := rl.window - rl.clock.Since(b.windowStart)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds()) + 1
}

// Close stops the cleanup loop.
func (rl *LoginRateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *LoginRateLimiter) cleanupLoop() {
	ticker := rl.clock.Ticker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stop:
			return
		}
	}
}

func (rl *LoginRateLimiter) cleanup() {
	now := rl.clock.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, b := range rl.buckets {
		if now.Sub(b.windowStart) > rl.window {
			delete(rl.buckets, ip)
		}
	}
}

// IPExtractor resolves the client address of a request.
//
// X-Forwarded-For and X-Real-IP are set by whoever sent the request, so a
// caller talking to the server directly could rotate them to dodge the
// login limiter. They are only read when the TCP peer is one of the trusted
// proxies, and X-Forwarded-For is walked from the right, skipping trusted
// hops, so the first untrusted address wins. A nil or empty IPExtractor
// always uses the peer address.
type IPExtractor struct {
	trusted []netip.Prefix
}

// NewIPExtractor trusts proxies inside the given prefixes.
func NewIPExtractor(trusted []netip.Prefix) *IPExtractor {
	return &IPExtractor{trusted: trusted}
}

// ClientIP returns the address the limiter should count r against.
func (e *IPExtractor) ClientIP(r *http.Request) string {
	peer := remoteHost(r.RemoteAddr)
	if e == nil || !e.isTrusted(peer) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if !e.isTrusted(hop) || i == 0 {
				return hop
			}
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return peer
}

func (e *IPExtractor) isTrusted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range e.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// FormatRetryMessage renders a wait time for humans.
func FormatRetryMessage(seconds int) string {
	if seconds >= 60 {
		return fmt.Sprintf("%d minute(s)", seconds/60)
	}
	return fmt.Sprintf("%d second(s)", seconds)
}
