package anthropicclaude

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/okhsunrog/llm-relay/internal/openaiadapter"
)

// toChatCompletionError converts any error into OpenAI-compatible error format.
// Non-Anthropic errors (network, timeouts) are wrapped as generic server_error.
func toChatCompletionError(err error) *openaiadapter.ChatCompletionErrorResponse {
	if err == nil {
		return nil
	}

	var errResp *openaiadapter.ChatCompletionErrorResponse
	if errors.As(err, &errResp) {
		return errResp
	}

	// Note: Anthropic error responses don't include 'code' or 'param' fields,
	// so these are always empty in the OpenAI-compatible response.
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		if parsed, parseErr := parseErrorResponseJSON(apiErr.RawJSON()); parseErr == nil {
			return openaiadapter.NewErrorResponse(mapAnthropicErrorType(parsed.Error.Type), parsed.Error.Message)
		}
		// JSON parse failed, fallback to generic error wrapping
		return openaiadapter.NewErrorResponse(openaiadapter.ErrorTypeAPI, apiErr.Error())
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return openaiadapter.NewErrorResponse(openaiadapter.ErrorTypeServer, "upstream request timed out")
	}

	return openaiadapter.NewErrorResponse(openaiadapter.ErrorTypeServer, err.Error())
}

// parseErrorResponseJSON parses Anthropic error JSON into structured ErrorResponse.
func parseErrorResponseJSON(jsonStr string) (*anthropic.ErrorResponse, error) {
	var errorResp anthropic.ErrorResponse
	if err := json.Unmarshal([]byte(jsonStr), &errorResp); err != nil {
		return nil, fmt.Errorf("failed to parse Anthropic error JSON: %w", err)
	}
	return &errorResp, nil
}

// mapAnthropicErrorType translates Anthropic error taxonomy to OpenAI-compatible error types.
func mapAnthropicErrorType(anthropicType string) string {
	switch anthropicType {
	case "invalid_request_error", "not_found_error", "request_too_large":
		return openaiadapter.ErrorTypeInvalidRequest
	case "authentication_error":
		return openaiadapter.ErrorTypeAuthentication
	case "permission_error":
		return openaiadapter.ErrorTypePermissionDenied
	case "rate_limit_error":
		return openaiadapter.ErrorTypeRateLimit
	case "billing_error":
		return openaiadapter.ErrorTypeInsufficientQuota
	case "overloaded_error", "timeout_error":
		return openaiadapter.ErrorTypeServer
	default:
		// Unknown error types default to api_error for safe handling
		return openaiadapter.ErrorTypeAPI
	}
}
