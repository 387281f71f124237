// Package client sends chat requests to an Anthropic or OpenAI-compatible upstream.
//
// Callers always speak the structured format: Chat takes [types.Message] values and
// returns a [types.MessagesResponse] regardless of provider. For OpenAI-compatible
// upstreams the request is converted to the flat format and the response converted back.
//
//	c, err := client.New(client.AnthropicConfig(apiKey, "claude-sonnet-4-5"))
//	resp, err := c.Complete(ctx, nil, "Hello", types.AdaptiveThinking{Effort: types.EffortLow})
//	fmt.Println(resp.Text())
//
// Failures are reported as *[Error]; use errors.Is with the Err* sentinels to branch on
// the failure kind. Requests are never retried.
package client
