package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zensushi/zen/pkg/logger"
)

// HeaderCorrelationID carries the request correlation id in both directions.
const HeaderCorrelationID = "X-Correlation-ID"

const maxCorrelationIDLength = 128

// quietPaths are polled by probes and scrapers; their successful requests
// are logged at debug level.
var quietPaths = []string{"/health/", "/metrics"}

func correlationID(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(HeaderCorrelationID))
	if id == "" || len(id) > maxCorrelationIDLength {
		return uuid.NewString()
	}
	return id
}

func accessLogLevel(path string, status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	}
	for _, p := range quietPaths {
		if strings.HasPrefix(path, p) {
			return slog.LevelDebug
		}
	}
	return slog.LevelInfo
}

// RequestLogging assigns the request a correlation id, reusing a sane
// inbound X-Correlation-ID, echoes it on the response and writes one access
// log line per request once the handler returns.
func RequestLogging(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := correlationID(r)
			ctx := logger.WithCorrelationID(r.Context(), id)
			w.Header().Set(HeaderCorrelationID, id)

			rw := newStatusRecorder(w)
			next.ServeHTTP(rw, r.WithContext(ctx))

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("route", routePattern(r)),
				slog.Int("status", rw.statusCode),
				slog.Duration("duration", time.Since(start)),
				slog.Int("bytes", rw.bytes),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.UserAgent()),
				slog.String("correlation_id", id),
			}
			if sessionID := r.Header.Get(HeaderSessionID); sessionID != "" {
				attrs = append(attrs, slog.String("session_id", sessionID))
			}
			l.LogAttrs(ctx, accessLogLevel(r.URL.Path, rw.statusCode), "http request", attrs...)
		})
	}
}
