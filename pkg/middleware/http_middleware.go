package middleware

import (
	"net/http"
	"time"

	"gocatalog_crawler/pkg/logger"
)

// Logging writes one debug line per outbound request with its status and duration.
// Query strings are dropped since they carry the API user id.
func Logging(log logger.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(r)
			fields := []logger.Field{
				logger.String("method", r.Method),
				logger.String("host", r.URL.Host),
				logger.String("path", r.URL.Path),
				logger.Duration("duration", time.Since(start)),
			}
			if err != nil {
				log.Debug("Outbound request failed", append(fields, logger.Err(err))...)
				return nil, err
			}
			log.Debug("Outbound request", append(fields, logger.Int("status", resp.StatusCode))...)
			return resp, nil
		})
	}
}

// UserAgent sets the header on requests that do not carry one.
func UserAgent(ua string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if ua != "" && r.Header.Get("User-Agent") == "" {
				r = r.Clone(r.Context())
				r.Header.Set("User-Agent", ua)
			}
			return next.RoundTrip(r)
		})
	}
}
