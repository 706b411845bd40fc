package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// errTransport marks a dispatch that received no response.
	errTransport = errors.New("httpclient: transport failure")

	errNoResponse = errors.New("httpclient: transport returned no response")
)

// Executor sends RequestSpecs with bearer authentication and recovers from a
// single token expiry per call.
//
// An Executor holds no per-request state and is safe for concurrent use.
// Tokens are read from and written to the configured TokenStore on every call.
//
// Example:
//
//	executor := httpclient.New(
//	    httpclient.WithBaseURL("https://api.example.com"),
//	    httpclient.WithTokenStore(tokenstore.NewMemory("access", "refresh")),
//	)
//
//	resp, err := httpclient.Execute[Order](ctx, executor,
//	    httpclient.Post("/orders").WithParam("sku", "X1"),
//	)
type Executor struct {
	cfg       *internalConfig
	transport Transport
	store     TokenStore
	logger    Logger
	refreshes refreshCoalescer
}

// New creates an Executor.
//
// Without WithTransport, requests go through an HTTPTransport built from the
// same options. Without WithTokenStore, every token is absent.
func New(opts ...Option) *Executor {
	cfg := newConfig(opts...)

	transport := cfg.Transport
	if transport == nil {
		transport = newHTTPTransport(cfg)
	}

	store := cfg.TokenStore
	if store == nil {
		store = noopStore{}
	}

	return &Executor{
		cfg:       cfg,
		transport: transport,
		store:     store,
		logger:    cfg.log,
	}
}

// Transport returns the transport requests are dispatched through.
func (e *Executor) Transport() Transport {
	return e.transport
}

// Do executes spec and leaves the JSON payload undecoded.
func (e *Executor) Do(ctx context.Context, spec RequestSpec) (*Response[json.RawMessage], error) {
	return Execute[json.RawMessage](ctx, e, spec)
}

// Execute sends spec and returns the normalized response, decoding a JSON
// body into T.
//
// A 401 on a request that is not tokenless triggers exactly one refresh
// cycle: the refresh token is exchanged at the refresh endpoint, the new
// tokens are stored, and the original request is sent once more. The result
// of that retry is returned as-is, even when it is another 401. If the
// refresh fails, nothing is stored and the result is 401 "Unauthorized".
//
// Transport faults and bodies declared as JSON that are not JSON never surface
// as errors; they are returned as a 500 "Internal Server Error" response. A
// JSON body that does not fit T keeps the received status with Data nil. The error is non-nil only when spec
// is invalid or an interceptor fails.
func Execute[T any](ctx context.Context, e *Executor, spec RequestSpec) (*Response[T], error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	ctx, c := e.begin(ctx, spec)
	defer c.span.End()

	token := e.accessToken(ctx, c, spec)
	refreshed := false

	for {
		raw, err := e.roundTrip(ctx, c, spec, token)
		switch {
		case errors.Is(err, errTransport):
			return finish(ctx, e, c, transportFailure[T](), true), nil
		case err != nil:
			c.span.RecordError(err)
			c.span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		if raw.StatusCode == http.StatusUnauthorized && !spec.tokenless && !refreshed {
			refreshed = true

			newToken, err := e.refresh(ctx, c)
			if err != nil {
				e.logger.Error(err)
				return finish(ctx, e, c, unauthorized[T](), false), nil
			}

			token = newToken
			c.span.AddEvent("request.retry")
			e.cfg.Metrics.recordRetry(ctx, c.attrs)
			continue
		}

		resp, err := normalize[T](raw)
		if err != nil {
			c.span.RecordError(err)
			e.logger.Error(fmt.Errorf("httpclient: decode response: %w", err))
		}
		return finish(ctx, e, c, resp, errors.Is(err, errMalformedBody)), nil
	}
}

// call carries the diagnostics of one Execute invocation.
type call struct {
	id    string
	span  trace.Span
	attrs []attribute.KeyValue
}

func (e *Executor) begin(ctx context.Context, spec RequestSpec) (context.Context, *call) {
	c := &call{
		id:    uuid.NewString(),
		attrs: append(e.cfg.baseAttributes(), attribute.String("http.request.method", spec.method)),
	}

	ctx, c.span = e.cfg.Tracer.Start(ctx, "authclient.Execute",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(c.attrs...),
		trace.WithAttributes(
			attribute.String("url.template", spec.url),
			attribute.Bool("authclient.tokenless", spec.tokenless),
			attribute.String("authclient.correlation_id", c.id),
		),
	)
	return ctx, c
}

// finish records the terminal outcome of a call. failed marks a response
// that was normalized from a transport or decoding fault.
func finish[T any](ctx context.Context, e *Executor, c *call, resp *Response[T], failed bool) *Response[T] {
	outcome := outcomeFailure
	switch {
	case failed:
		outcome = outcomeTransportFailure
	case resp.IsSuccess():
		outcome = outcomeSuccess
	case resp.IsTokenExpired():
		outcome = outcomeTokenExpired
	}

	c.span.SetAttributes(
		attribute.Int("http.response.status_code", resp.Status()),
		attribute.String("authclient.outcome", outcome),
	)
	if !resp.IsSuccess() {
		c.span.SetStatus(codes.Error, resp.StatusText())
	}

	e.cfg.Metrics.recordOutcome(ctx, outcome, c.attrs)
	return resp
}

// accessToken reads the current access token. Read errors are logged and the
// token is treated as absent.
func (e *Executor) accessToken(ctx context.Context, c *call, spec RequestSpec) string {
	if spec.tokenless {
		return ""
	}

	token, err := e.store.AccessToken(ctx)
	if err != nil {
		c.span.RecordError(err)
		e.logger.Error(fmt.Errorf("httpclient: read access token: %w", err))
		return ""
	}
	return token
}

// roundTrip builds the request, runs the interceptors and dispatches it.
//
// Errors that happen before dispatch are returned as they are. A failed
// dispatch is returned wrapped in errTransport.
func (e *Executor) roundTrip(
	ctx context.Context,
	c *call,
	spec RequestSpec,
	accessToken string,
) (*RawResponse, error) {
	req, err := buildRequest(e.cfg.BaseURL, spec, accessToken)
	if err != nil {
		return nil, err
	}

	if err := runInterceptors(spec.interceptors); err != nil {
		return nil, err
	}

	return e.send(ctx, c, req, TagRequest, TagResponse)
}

// send dispatches req through the transport and logs both sides.
func (e *Executor) send(
	ctx context.Context,
	c *call,
	req *OutboundRequest,
	requestTag, responseTag string,
) (*RawResponse, error) {
	e.logger.Log(requestTag, e.requestPayload(c, req, requestTag == TagRefreshRequest))

	start := time.Now()
	raw, err := e.transport.Send(ctx, req)
	elapsed := time.Since(start)
	if err == nil && raw == nil {
		err = errNoResponse
	}

	if err != nil {
		e.logger.Log(responseTag, map[string]any{
			"correlation_id": c.id,
			"error":          err.Error(),
			"duration_ms":    elapsed.Milliseconds(),
		})
		e.logger.Error(err)
		c.span.RecordError(err)
		return nil, fmt.Errorf("%w: %w", errTransport, err)
	}

	e.logger.Log(responseTag, map[string]any{
		"correlation_id": c.id,
		"status":         raw.StatusCode,
		"status_text":    raw.StatusText,
		"duration_ms":    elapsed.Milliseconds(),
	})
	return raw, nil
}

func (e *Executor) requestPayload(c *call, req *OutboundRequest, refresh bool) map[string]any {
	target := req.URL
	if refresh {
		// The refresh token may travel in the query string.
		target = withoutQuery(target)
	}

	payload := map[string]any{
		"correlation_id": c.id,
		"method":         req.Method,
		"url":            target,
	}
	if e.cfg.Debug && !refresh {
		payload["curl"] = generateCurlCommand(req)
	}
	return payload
}
