package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/httplog/v3"
)

// Logging logs HTTP requests with method, path, status, and duration. Successful health
// probes are not logged.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return httplog.RequestLogger(logger, &httplog.Options{
		Schema: httplog.SchemaECS.Concise(true),

		Skip: func(req *http.Request, respStatus int) bool {
			return strings.HasPrefix(req.URL.Path, "/health/") && respStatus < http.StatusBadRequest
		},

		// Prompts and API keys travel in bodies and headers; log neither.
		LogRequestHeaders:  []string{"Content-Type", "Origin", "User-Agent"},
		LogResponseHeaders: []string{},
		LogRequestBody:     nil,
		LogResponseBody:    nil,

		RecoverPanics: false, // use dedicated middleware, panics are logged regardless
	})
}

// SetLogAttrs sets attributes on the request log.
func SetLogAttrs(ctx context.Context, attrs ...slog.Attr) {
	httplog.SetAttrs(ctx, attrs...)
}
