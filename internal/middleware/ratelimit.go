package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/passgen/passgen/internal/metrics"
	"github.com/passgen/passgen/internal/ratelimit"
	"github.com/passgen/passgen/pkg/logger"
)

// RateLimitConfig holds configuration for the rate limit middleware.
type RateLimitConfig struct {
	TrustProxy     bool           // Trust X-Forwarded-For / X-Real-IP
	APIKeyHeader   string         // Header carrying an API key, e.g. "X-API-Key"
	TrustedProxies []string       // Proxy IPs allowed to set forwarding headers
	Log            *logger.Logger // Optional; limiter errors are logged here
}

// RateLimitResponse is the JSON response for rate limited requests.
type RateLimitResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	RetryAfter int    `json:"retry_after"`
}

// RateLimit returns a middleware that rejects requests over the limit with 429.
// Limiter errors fail open.
func RateLimit(limiter ratelimit.Limiter, cfg RateLimitConfig) Middleware {
	trusted := toSet(cfg.TrustedProxies)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identifier := rateLimitIdentifier(r, cfg, trusted)

			result, err := limiter.Allow(r.Context(), identifier)
			if err != nil {
				if cfg.Log != nil {
					cfg.Log.Warn("rate limiter unavailable, allowing request",
						"error", err.Error(),
						"request_id", GetRequestID(r.Context()),
					)
				}
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, result)

			if !result.Allowed {
				metrics.RecordRateLimited()
				writeRateLimitResponse(w, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitIdentifier prefers the API key when configured and present,
// otherwise the client IP.
func rateLimitIdentifier(r *http.Request, cfg RateLimitConfig, trusted map[string]bool) string {
	if cfg.APIKeyHeader != "" {
		if apiKey := r.Header.Get(cfg.APIKeyHeader); apiKey != "" {
			return "api:" + apiKey
		}
	}

	ip := GetClientIP(r.Context())
	if ip == "" {
		ip = clientIP(r, cfg.TrustProxy, trusted)
	}
	return "ip:" + ip
}

func setRateLimitHeaders(w http.ResponseWriter, result *ratelimit.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

	if result.ResetAfter > 0 {
		resetTime := time.Now().Add(result.ResetAfter).Unix()
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime, 10))
	}

	if !result.Allowed && result.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retrySeconds(result.RetryAfter)))
	}
}

func writeRateLimitResponse(w http.ResponseWriter, result *ratelimit.Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	_ = json.NewEncoder(w).Encode(RateLimitResponse{
		Error:      "rate limit exceeded",
		Code:       "RATE_LIMIT_EXCEEDED",
		RetryAfter: retrySeconds(result.RetryAfter),
	})
}

// retrySeconds rounds d to whole seconds, never below one.
func retrySeconds(d time.Duration) int {
	s := int(d.Seconds())
	if s < 1 {
		s = 1
	}
	return s
}
