package client

import (
	"fmt"
)

// Kind classifies client failures.
type Kind uint8

const (
	// KindClient means the client could not be constructed.
	KindClient Kind = iota + 1
	// KindRequest means the request did not complete (network, timeout, cancellation).
	KindRequest
	// KindAPI means the upstream answered with a non-success status.
	KindAPI
	// KindParseResponse means the upstream body could not be decoded.
	KindParseResponse
	// KindEmptyResponse means the upstream answered with an empty body.
	KindEmptyResponse
	// KindConversion means the upstream response could not be converted to the structured format.
	KindConversion
)

func (k Kind) String() string {
	switch k {
	case KindClient:
		return "client"
	case KindRequest:
		return "request"
	case KindAPI:
		return "api"
	case KindParseResponse:
		return "parse_response"
	case KindEmptyResponse:
		return "empty_response"
	case KindConversion:
		return "conversion"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrClient        = &Error{Kind: KindClient}
	ErrRequest       = &Error{Kind: KindRequest}
	ErrAPI           = &Error{Kind: KindAPI}
	ErrParseResponse = &Error{Kind: KindParseResponse}
	ErrEmptyResponse = &Error{Kind: KindEmptyResponse}
	ErrConversion    = &Error{Kind: KindConversion}
)

// Error is returned by every Client operation.
type Error struct {
	Kind Kind

	// Status and Body are set for KindAPI.
	Status int
	Body   string

	Err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindClient:
		return fmt.Sprintf("HTTP client error: %v", e.Err)
	case KindRequest:
		return fmt.Sprintf("request failed: %v", e.Err)
	case KindAPI:
		return fmt.Sprintf("API error (%d): %s", e.Status, e.Body)
	case KindParseResponse:
		return fmt.Sprintf("failed to parse response: %v", e.Err)
	case KindEmptyResponse:
		return "empty response from API"
	case KindConversion:
		return fmt.Sprintf("conversion error: %v", e.Err)
	default:
		return fmt.Sprintf("llm client error: %v", e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func apiError(status int, body string) *Error {
	return &Error{Kind: KindAPI, Status: status, Body: body}
}
