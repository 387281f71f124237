package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = "X-Request-ID"

// maxRequestIDLength bounds client-supplied request IDs.
const maxRequestIDLength = 128

// RequestIDContextKey is a context key for storing request IDs.
type RequestIDContextKey struct{}

// RequestID returns the request ID stored in ctx by RequestIDGeneration.
func RequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(RequestIDContextKey{}).(string)
	return id, ok && id != ""
}

// getRequestID reads request ID from X-Request-ID header or context, generates if missing
// or unusable.
func getRequestID(r *http.Request) string {
	if id := r.Header.Get(HeaderRequestID); validRequestID(id) {
		return id
	}
	if id, ok := RequestID(r.Context()); ok {
		return id
	}
	return uuid.New().String()
}

// validRequestID accepts non-empty printable ASCII up to maxRequestIDLength.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// RequestIDGeneration reads request ID from client header or context, generates if missing,
// and stores it in request context for downstream handlers.
func RequestIDGeneration(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := getRequestID(r)

		// Store in request context for downstream middlewares
		ctx := context.WithValue(r.Context(), RequestIDContextKey{}, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDPropagation sets the X-Request-ID response header for client correlation
// and adds the ID to the request log.
func RequestIDPropagation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestID, ok := RequestID(r.Context()); ok {
			// Set early to ensure it's present during recovery scenarios
			w.Header().Set(HeaderRequestID, requestID)

			SetLogAttrs(r.Context(), slog.String("request_id", requestID))
		}

		next.ServeHTTP(w, r)
	})
}
