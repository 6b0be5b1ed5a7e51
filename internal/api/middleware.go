package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/molkiya/spectra/pkg/logger"
)

// RequestIDHeader is read from callers and echoed on every response, so a
// client can quote it when reporting a failed session call
const RequestIDHeader = "X-Request-ID"

// RequestIDKey is the context key under which handlers find the request ID
type RequestIDKey struct{}

// RequestIDMiddleware reuses the caller's X-Request-ID or mints a uuid, stores
// it on the context for handler logs and sets it on the response
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), RequestIDKey{}, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoggingMiddleware logs one line per request once the handler returns. The
// socket route passes through here too: chi's wrapped writer keeps
// http.Hijacker so the upgrade works, and its line is written when the socket
// closes. The handshake bypasses WriteHeader, so that line reports status 0.
func LoggingMiddleware(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info("HTTP request",
				logger.F("method", r.Method),
				logger.F("path", r.URL.Path),
				logger.Int("status", ww.Status()),
				logger.Int("duration_ms", int(time.Since(start).Milliseconds())),
				logger.F("request_id", GetRequestID(r.Context())),
			)
		})
	}
}

// GetRequestID returns the ID set by RequestIDMiddleware, or "" outside it
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey{}).(string); ok {
		return id
	}
	return ""
}
