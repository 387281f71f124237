package anthropicclaude

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/okhsunrog/llm-relay/internal/llm/convert"
	"github.com/okhsunrog/llm-relay/internal/llm/types"
	"github.com/okhsunrog/llm-relay/internal/openaiadapter"
)

// toChatCompletionResponse decodes an Anthropic Messages response body and converts it to
// an OpenAI chat completion. Missing response and tool call IDs are generated.
func toChatCompletionResponse(body []byte, created time.Time) (*openaiadapter.ChatCompletionResponse, error) {
	var msg types.MessagesResponse
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("decode anthropic response: %w", err)
	}

	resp := convert.AnthropicResponseToOpenAIAt(msg, created)
	if resp.ID == "" {
		resp.ID = newResponseID()
	}
	for i := range resp.Choices {
		fillToolCallIDs(resp.Choices[i].Message.ToolCalls)
	}
	return &resp, nil
}

// newResponseID generates an OpenAI-compatible response ID (chatcmpl-<token>).
// Used as fallback when Anthropic doesn't provide an ID in the response.
func newResponseID() string {
	b := make([]byte, 24) // 24 bytes yields 32 URL-safe base64 characters
	_, err := rand.Read(b)
	if err != nil {
		panic(err)
	}
	// Use RawURLEncoding to avoid '+', '/' and trailing '='
	token := base64.RawURLEncoding.EncodeToString(b)
	return "chatcmpl-" + token
}
