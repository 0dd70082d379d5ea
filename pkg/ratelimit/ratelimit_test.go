package ratelimit

import (
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
)

func TestLoginRateLimiter(t *testing.T) {
	clk := clock.NewMock()
	rl := NewLoginRateLimiter(2, time.Minute, clk)
	defer rl.Close()

	require.True(t, rl.Allow("1.1.1.1"))
	require.True(t, rl.Allow("1.1.1.1"))
	require.False(t, rl.Allow("1.1.1.1"))
	require.True(t, rl.Allow("2.2.2.2"), "other IPs are unaffected")
	require.Equal(t, 61, rl.RetryAfterSeconds("1.1.1.1"))

	clk.Add(time.Minute + time.Second)
	require.True(t, rl.Allow("1.1.1.1"), "window elapsed")

	require.True(t, rl.Allow("1.1.1.1"))
	rl.Reset("1.1.1.1")
	require.True(t, rl.Allow("1.1.1.1"))
}

func TestIPExtractor_ClientIP(t *testing.T) {
	proxies := NewIPExtractor([]netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("::1/128"),
	})

	tests := []struct {
		name      string
		extractor *IPExtractor
		remote    string
		xff       string
		realIP    string
		want      string
	}{
		{name: "peer only", extractor: proxies, remote: "203.0.113.5:5555", want: "203.0.113.5"},
		{name: "untrusted peer ignores forwarded headers", extractor: proxies, remote: "203.0.113.5:5555", xff: "198.51.100.1", realIP: "198.51.100.2", want: "203.0.113.5"},
		{name: "nil extractor ignores forwarded headers", remote: "10.0.0.1:5555", xff: "198.51.100.1", want: "10.0.0.1"},
		{name: "trusted peer uses forwarded client", extractor: proxies, remote: "10.0.0.1:5555", xff: "198.51.100.1", want: "198.51.100.1"},
		{name: "spoofed left entries are skipped", extractor: proxies, remote: "10.0.0.1:5555", xff: "1.2.3.4, 198.51.100.1, 10.0.0.7", want: "198.51.100.1"},
		{name: "all hops trusted", extractor: proxies, remote: "10.0.0.1:5555", xff: "10.0.0.9, 10.0.0.7", want: "10.0.0.9"},
		{name: "x-real-ip from trusted peer", extractor: proxies, remote: "[::1]:5555", realIP: "198.51.100.2", want: "198.51.100.2"},
		{name: "bare remote addr", extractor: proxies, remote: "203.0.113.5", want: "203.0.113.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/auth/login", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			require.Equal(t, tt.want, tt.extractor.ClientIP(r))
		})
	}
}

func TestFormatRetryMessage(t *testing.T) {
	require.Equal(t, "45 second(s)", FormatRetryMessage(45))
	require.Equal(t, "2 minute(s)", FormatRetryMessage(120))
}
