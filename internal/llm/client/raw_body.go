package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

type rawBodyKey struct{}

// rawBody receives a copy of the upstream response body.
type rawBody struct {
	data []byte
}

// withRawBody asks rawBodyTransport to copy the response of requests made with ctx into sink.
func withRawBody(ctx context.Context, sink *rawBody) context.Context {
	return context.WithValue(ctx, rawBodyKey{}, sink)
}

// rawBodyTransport buffers response bodies for requests that carry a rawBody sink, so fields
// the SDK response types do not model can still be read.
type rawBodyTransport struct {
	base http.RoundTripper
}

func (t rawBodyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	sink, ok := req.Context().Value(rawBodyKey{}).(*rawBody)
	if !ok || resp.Body == nil {
		return resp, nil
	}

	data, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	sink.data = data
	resp.Body = io.NopCloser(bytes.NewReader(data))
	return resp, nil
}
