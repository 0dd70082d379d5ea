package middleware

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/akinalp/tenantgate/pkg/metrics"
	"github.com/akinalp/tenantgate/pkg/ratelimit"
	"github.com/akinalp/tenantgate/tenant"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func (w *statusWriter) code() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// Logging writes one access log line per request and feeds the request
// metrics. Routes are labelled by their mux pattern so path parameters do
// not explode label cardinality; m may be nil. The logged client address
// comes from ips, so forwarded headers only count behind trusted proxies.
func Logging(log *zap.Logger, m *metrics.Metrics, ips *ratelimit.IPExtractor) func(http.Handler) http.Handler {
	log = log.Named("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}

			next.ServeHTTP(sw, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			status := sw.code()
			elapsed := time.Since(start)

			if m != nil {
				m.Requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
				m.Latency.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
			}

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Duration("duration", elapsed),
				zap.String("ip", ips.ClientIP(r)),
			}
			if id := r.Header.Get(tenant.Header); id != "" {
				fields = append(fields, zap.String("tenant", id))
			}

			switch {
			case status >= http.StatusInternalServerError:
				log.Error("request", fields...)
			case status >= http.StatusBadRequest:
				log.Warn("request", fields...)
			default:
				log.Info("request", fields...)
			}
		})
	}
}
