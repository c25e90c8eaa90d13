package http

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MKhiriev/go-natours/internal/apperror"
	"github.com/MKhiriev/go-natours/internal/logger"
	"github.com/MKhiriev/go-natours/internal/pipeline"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

// limiterErrorLogInterval bounds how often a failing limiter backend is
// reported; while it is down every /api request would log otherwise.
const limiterErrorLogInterval = 30 * time.Second

const apiPrefix = "/api"

// realIP rewrites RemoteAddr from X-Forwarded-For / X-Real-IP. It is only
// installed when the server runs behind a trusted proxy.
func (h *Handler) realIP() pipeline.Filter {
	return pipeline.FromMiddleware("real-ip", middleware.RealIP)
}

// rateLimit counts requests under /api per client address. Going over the
// limit fails the request with 429 regardless of what it asked for.
//
// A limiter backend failure is logged and the request is let through.
func (h *Handler) rateLimit() pipeline.Filter {
	limiterDown := &rate.Sometimes{First: 1, Interval: limiterErrorLogInterval}

	return pipeline.Named("rate-limit", func(x *pipeline.Exchange) (pipeline.Outcome, error) {
		r := x.Request
		if !hasPathPrefix(r.URL.Path, apiPrefix) {
			return pipeline.Continue, nil
		}

		decision, err := h.limiter.Allow(r.Context(), clientKey(r))
		if err != nil {
			limiterDown.Do(func() {
				logger.FromRequest(r).Err(err).Msg("rate limiter unavailable")
			})
			return pipeline.Continue, nil
		}

		header := x.Writer.Header()
		reset := strconv.Itoa(int(math.Ceil(decision.ResetAfter.Seconds())))
		header.Set("RateLimit-Limit", strconv.Itoa(decision.Limit))
		header.Set("RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		header.Set("RateLimit-Reset", reset)

		if !decision.Allowed {
			header.Set("Retry-After", reset)
			return pipeline.Handled, apperror.New(msgTooManyRequests, http.StatusTooManyRequests)
		}
		return pipeline.Continue, nil
	})
}

// clientKey is the client address without its port.
func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// hasPathPrefix reports whether p equals prefix or continues it at a
// segment boundary.
func hasPathPrefix(p, prefix string) bool {
	if prefix == "/" {
		return strings.HasPrefix(p, "/")
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}
