// Package tokensource provides the authenticating transports used for Anthropic upstreams.
//
// Two credential modes are supported:
//   - API keys are sent in the x-api-key header (NewAPIKeyTransport)
//   - OAuth access tokens are sent as bearer tokens together with the OAuth beta flag
//     (NewTransport)
//
// # Token Sources
//
// NewTokenSource wraps a long-lived access token, for example one issued by
// `claude setup-token`:
//
//	ts := tokensource.NewTokenSource(accessToken)
//	transport := tokensource.NewTransport(ts, http.DefaultTransport)
//
// Any oauth2.TokenSource works with NewTransport, including refreshing sources from
// an oauth2.Config.
package tokensource
