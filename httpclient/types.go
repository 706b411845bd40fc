package httpclient

import (
	"context"
	"net/http"
)

// Transport sends a single HTTP round trip.
//
// Implementations return an error only when no response was received
// (network failure, breaker rejection, rate limiting). Any received response,
// whatever its status, is returned as a RawResponse.
type Transport interface {
	Send(ctx context.Context, req *OutboundRequest) (*RawResponse, error)
}

// TransportFunc is an adapter to allow ordinary functions as transports.
type TransportFunc func(ctx context.Context, req *OutboundRequest) (*RawResponse, error)

// Send calls f(ctx, req).
func (f TransportFunc) Send(ctx context.Context, req *OutboundRequest) (*RawResponse, error) {
	return f(ctx, req)
}

// OutboundRequest is a fully resolved request: the URL already carries the
// base URL, substituted path parameters and (for GET) the query string.
type OutboundRequest struct {
	Method string
	URL    string
	Header http.Header

	// Body is nil for GET requests.
	Body []byte
}

// RawResponse is what a Transport received from the wire.
type RawResponse struct {
	StatusCode int
	StatusText string
	Header     http.Header
	Body       []byte
}

// TokenStore holds the current access and refresh tokens.
//
// An empty string means the token is absent. The executor reads through the
// store on every call and writes only after a successful refresh.
type TokenStore interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	SetTokens(ctx context.Context, accessToken, refreshToken string) error
}

// Logger is a fire-and-forget diagnostic sink.
//
// The executor never inspects what a Logger does; panics raised by a Logger
// are recovered and discarded.
type Logger interface {
	Log(tag string, payload any)
	Error(err error)
}

// noopStore is used when no TokenStore is configured: every token is absent.
type noopStore struct{}

func (noopStore) AccessToken(context.Context) (string, error)  { return "", nil }
func (noopStore) RefreshToken(context.Context) (string, error) { return "", nil }
func (noopStore) SetTokens(context.Context, string, string) error {
	return nil
}
