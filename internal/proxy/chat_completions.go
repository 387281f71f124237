package proxy

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/okhsunrog/llm-relay/internal/openaiadapter"
)

// CreateChatCompletionsHandler handles OpenAI-compatible chat completion requests.
type CreateChatCompletionsHandler struct {
	Adapter   openaiadapter.ChatCompletionAdapter
	Transport http.RoundTripper
}

// Compile-time check to ensure CreateChatCompletionsHandler implements http.Handler
var _ http.Handler = (*CreateChatCompletionsHandler)(nil)

// ServeHTTP implements http.Handler. Responses are always buffered.
func (h *CreateChatCompletionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req openaiadapter.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			slog.WarnContext(ctx, "request exceeds size limit", "limit_bytes", maxBytesErr.Limit)
			writeJSONOpenAIError(ctx, w, openaiadapter.NewErrorResponse(
				openaiadapter.ErrorTypeInvalidRequest,
				http.StatusText(http.StatusRequestEntityTooLarge),
			))
			return
		}
		slog.ErrorContext(ctx, "failed to decode request", "error", err)
		writeJSONOpenAIError(ctx, w, openaiadapter.NewErrorResponse(
			openaiadapter.ErrorTypeInvalidRequest,
			http.StatusText(http.StatusBadRequest),
		))
		return
	}

	if ctx.Err() != nil {
		return
	}

	response, err := h.Adapter.ProcessRequest(ctx, req, h.Transport)
	if err != nil {
		slog.ErrorContext(ctx, "request failed", "error", err)

		var errResp *openaiadapter.ChatCompletionErrorResponse
		if errors.As(err, &errResp) {
			writeJSONOpenAIError(ctx, w, errResp)
			return
		}

		writeJSONOpenAIError(ctx, w, openaiadapter.NewErrorResponse(
			openaiadapter.ErrorTypeAPI,
			http.StatusText(http.StatusInternalServerError),
		))
		return
	}

	writeJSON(ctx, w, response, http.StatusOK)
}
