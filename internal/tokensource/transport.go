package tokensource

import (
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// OAuthBeta is the anthropic-beta flag that enables bearer authentication on the Messages API.
const OAuthBeta = "oauth-2025-04-20"

const (
	headerAPIKey        = "X-Api-Key"
	headerAuthorization = "Authorization"
	headerBeta          = "Anthropic-Beta"
)

// NewTokenSource returns a token source for a long-lived access token.
func NewTokenSource(accessToken string) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
}

// NewTransport returns a transport that authenticates requests with bearer tokens from ts.
// Any x-api-key header is removed and the OAuth beta flag is added.
// A nil base uses http.DefaultTransport.
func NewTransport(ts oauth2.TokenSource, base http.RoundTripper) http.RoundTripper {
	return &oauth2.Transport{
		Source: ts,
		Base: headerTransport(base, func(h http.Header) {
			h.Del(headerAPIKey)
			h.Set(headerBeta, appendBeta(h.Get(headerBeta), OAuthBeta))
		}),
	}
}

// NewAPIKeyTransport returns a transport that authenticates requests with an x-api-key header.
// A nil base uses http.DefaultTransport.
func NewAPIKeyTransport(apiKey string, base http.RoundTripper) http.RoundTripper {
	return headerTransport(base, func(h http.Header) {
		h.Del(headerAuthorization)
		h.Set(headerAPIKey, apiKey)
	})
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// headerTransport rewrites headers on a clone of each request before handing it to base.
func headerTransport(base http.RoundTripper, rewrite func(http.Header)) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return roundTripFunc(func(req *http.Request) (*http.Response, error) {
		clone := req.Clone(req.Context())
		rewrite(clone.Header)
		return base.RoundTrip(clone)
	})
}

// appendBeta adds flag to a comma-separated anthropic-beta value unless already present.
func appendBeta(current, flag string) string {
	if current == "" {
		return flag
	}
	for _, f := range strings.Split(current, ",") {
		if strings.TrimSpace(f) == flag {
			return current
		}
	}
	return current + "," + flag
}
