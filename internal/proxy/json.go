package proxy

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/okhsunrog/llm-relay/internal/openaiadapter"
)

// writeJSON writes a JSON response with the given status code.
// Logs encoding failures internally using the provided context.
func writeJSON(ctx context.Context, w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	// Headers and status are written before encoding to avoid buffering.
	// If encoding fails, the client may receive a partial response.
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.ErrorContext(ctx, "failed to encode JSON response", "error", err)
	}
}

// writeJSONOpenAIError writes an OpenAI-compatible error response with the status code
// derived from its error type.
func writeJSONOpenAIError(ctx context.Context, w http.ResponseWriter, errResp *openaiadapter.ChatCompletionErrorResponse) {
	writeJSON(ctx, w, errResp, errResp.StatusCode())
}

// anthropicError is the Anthropic error envelope: {"type":"error","error":{...}}
type anthropicError struct {
	Type  string               `json:"type"`
	Error anthropicErrorDetail `json:"error"`
}

type anthropicErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// writeJSONAnthropicError writes an Anthropic-compatible error response.
func writeJSONAnthropicError(ctx context.Context, w http.ResponseWriter, status int, errType, message string) {
	writeJSON(ctx, w, anthropicError{
		Type:  "error",
		Error: anthropicErrorDetail{Type: errType, Message: message},
	}, status)
}
