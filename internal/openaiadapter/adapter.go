package openaiadapter

import (
	"context"
	"net/http"

	"github.com/okhsunrog/llm-relay/internal/llm/types"
)

// Adapter defines the contract for transforming client requests to provider API calls.
//
// Type parameters allow the interface to express transformation contracts for different
// request/response shapes while maintaining compile-time type safety.
//
// Type parameters:
//   - TRequest:  Client-specific request structure
//   - TResponse: Client-specific response structure
type Adapter[TRequest, TResponse any] interface {
	// ProcessRequest transforms the client request, calls the provider API, and returns
	// the transformed response. Implementations should remain stateless per request.
	ProcessRequest(ctx context.Context, clientReq TRequest, transport http.RoundTripper) (*TResponse, error)
}

// Type aliases for OpenAI-compatible chat completion operations.
// ChatCompletionAdapter is the concrete adapter interface for this operation.
type (
	ChatCompletionRequest  = types.InboundChatRequest
	ChatCompletionResponse = types.ChatResponse

	ChatCompletionAdapter = Adapter[ChatCompletionRequest, ChatCompletionResponse]
)
