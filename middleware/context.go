package middleware

import (
	"context"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for an explicitly set request ID
	RequestIDKey contextKey = "request_id"

	// RequestIDHeader carries the request ID back to the caller
	RequestIDHeader = "X-Request-ID"
)

// GetRequestIDFromContext retrieves the request ID from context. IDs set
// with WithRequestID take precedence over the one assigned by chi.
func GetRequestIDFromContext(ctx context.Context) string {
	if val, ok := ctx.Value(RequestIDKey).(string); ok && val != "" {
		return val
	}
	return chimiddleware.GetReqID(ctx)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// ExposeRequestID echoes the request ID in the response headers. It must
// run after chi's RequestID middleware.
func ExposeRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := GetRequestIDFromContext(r.Context()); id != "" {
			w.Header().Set(RequestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	})
}
