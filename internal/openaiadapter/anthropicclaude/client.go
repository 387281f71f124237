package anthropicclaude

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// newClient creates a new Anthropic client with the provided transport.
// The transport chain needs to handle authentication.
func newClient(transport http.RoundTripper, baseURL string, timeout time.Duration) (*anthropic.Client, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport cannot be nil")
	}

	httpClient := &http.Client{
		Transport: transport,
	}

	opts := []option.RequestOption{
		option.WithHTTPClient(httpClient),
		option.WithRequestTimeout(timeout),
		// Upstream failures are returned to the proxy client, which decides whether to retry.
		option.WithMaxRetries(0),
		// Credentials come from the transport; drop any picked up from the environment.
		option.WithHeaderDel("x-api-key"),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(baseURL, "/")+"/"))
	}

	client := anthropic.NewClient(opts...)
	return &client, nil
}
