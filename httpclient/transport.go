package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Error types for the error.type attribute, following OTel semconv.
const (
	ErrorTypeTimeout     = "timeout"
	ErrorTypeCancelled   = "cancelled"
	ErrorTypeDNSError    = "dns_error"
	ErrorTypeTLSError    = "tls_error"
	ErrorTypeConnRefused = "connection_refused"
	ErrorTypeBreakerOpen = "breaker_open"
	ErrorTypeRateLimited = "rate_limited"
	ErrorTypeOther       = "_OTHER"
)

// Compile-time interface checks.
var (
	_ Transport         = (*HTTPTransport)(nil)
	_ http.RoundTripper = (*otelTransport)(nil)
)

// HTTPTransport is the default Transport, built on net/http.
//
// Each round trip passes through, outermost first:
//   - OpenTelemetry tracing and metrics
//   - an optional circuit breaker (WithBreakerConfig)
//   - an optional rate limiter (WithRateLimit)
//   - a pooled http.Transport (or WithRoundTripper)
//
// Example:
//
//	transport := httpclient.NewHTTPTransport(
//	    httpclient.WithConfig(httpclient.LowLatencyConfig()),
//	    httpclient.WithServiceName("orders-client"),
//	)
//	executor := httpclient.New(httpclient.WithTransport(transport))
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates an instrumented HTTPTransport.
func NewHTTPTransport(opts ...Option) *HTTPTransport {
	return newHTTPTransport(newConfig(opts...))
}

func newHTTPTransport(cfg *internalConfig) *HTTPTransport {
	base := cfg.buildTransport()

	limited := newRateLimitTransport(base, cfg.RateLimit)
	withBreaker := newCircuitBreakerTransport(limited, cfg)
	instrumented := newOtelTransport(withBreaker, cfg)

	return &HTTPTransport{
		client: &http.Client{
			Transport: instrumented,
			Timeout:   cfg.httpConfig.Timeout,
		},
	}
}

// HTTP returns the underlying *http.Client.
func (t *HTTPTransport) HTTP() *http.Client {
	return t.client
}

// Send performs one round trip and reads the full response body.
func (t *HTTPTransport) Send(ctx context.Context, req *OutboundRequest) (*RawResponse, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: build request: %w", err)
	}
	httpReq.Header = req.Header.Clone()
	if httpReq.Header == nil {
		httpReq.Header = make(http.Header)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read response body: %w", err)
	}

	return &RawResponse{
		StatusCode: resp.StatusCode,
		StatusText: statusText(resp),
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// statusText extracts the reason phrase from "404 Not Found".
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// otelTransport wraps an http.RoundTripper with OpenTelemetry instrumentation.
type otelTransport struct {
	base       http.RoundTripper
	cfg        *internalConfig
	propagator propagation.TextMapPropagator
}

// newOtelTransport creates a new instrumented transport.
func newOtelTransport(base http.RoundTripper, cfg *internalConfig) *otelTransport {
	return &otelTransport{
		base: base,
		cfg:  cfg,
		propagator: propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	}
}

// RoundTrip implements http.RoundTripper with tracing and metrics.
func (t *otelTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	ctx, span := t.cfg.Tracer.Start(req.Context(), "HTTP "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(t.requestAttributes(req)...),
	)
	defer span.End()

	nt := &networkTrace{}
	defer nt.addEvents(span)

	// RoundTrippers must not modify the caller's request.
	req = req.Clone(withNetworkTrace(ctx, nt))
	t.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

	baseAttrs := t.cfg.baseAttributes()
	t.cfg.Metrics.recordActiveRequestStart(ctx, baseAttrs)
	defer t.cfg.Metrics.recordActiveRequestEnd(ctx, baseAttrs)

	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		errorType := classifyError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("error.type", errorType))
		t.cfg.Metrics.recordError(ctx, errorType, baseAttrs)
		t.cfg.Metrics.recordRequestDuration(ctx, duration, t.metricsAttributes(req, nil, errorType))
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", resp.StatusCode))
		span.SetAttributes(attribute.String("error.type", strconv.Itoa(resp.StatusCode)))
	}

	t.cfg.Metrics.recordRequestDuration(ctx, duration, t.metricsAttributes(req, resp, ""))

	return resp, nil
}

// Unwrap returns the wrapped RoundTripper.
func (t *otelTransport) Unwrap() http.RoundTripper {
	return t.base
}

// requestAttributes returns span attributes for the request.
func (t *otelTransport) requestAttributes(req *http.Request) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 6)
	attrs = append(attrs, t.cfg.baseAttributes()...)
	attrs = append(attrs, attribute.String("http.request.method", req.Method))

	if req.URL != nil {
		// The query string may carry user parameters; keep it off spans.
		attrs = append(attrs,
			attribute.String("url.scheme", req.URL.Scheme),
			attribute.String("url.path", req.URL.Path),
		)
		attrs = append(attrs, serverAttributes(req)...)
	}

	if req.ContentLength > 0 {
		attrs = append(attrs, attribute.Int64("http.request.body.size", req.ContentLength))
	}

	return attrs
}

// metricsAttributes returns low-cardinality attributes for metrics.
func (t *otelTransport) metricsAttributes(
	req *http.Request,
	resp *http.Response,
	errorType string,
) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 5)
	attrs = append(attrs, t.cfg.baseAttributes()...)
	attrs = append(attrs, attribute.String("http.request.method", req.Method))
	attrs = append(attrs, serverAttributes(req)...)

	if resp != nil {
		attrs = append(attrs, attribute.Int("http.response.status_code", resp.StatusCode))
		if resp.StatusCode >= 400 {
			errorType = strconv.Itoa(resp.StatusCode)
		}
	}
	if errorType != "" {
		attrs = append(attrs, attribute.String("error.type", errorType))
	}

	return attrs
}

// serverAttributes returns server.address and server.port.
func serverAttributes(req *http.Request) []attribute.KeyValue {
	if req.URL == nil {
		return nil
	}

	var attrs []attribute.KeyValue
	if host := req.URL.Hostname(); host != "" {
		attrs = append(attrs, attribute.String("server.address", host))
	}

	if port := req.URL.Port(); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			attrs = append(attrs, attribute.Int("server.port", p))
		}
		return attrs
	}

	switch req.URL.Scheme {
	case "http":
		attrs = append(attrs, attribute.Int("server.port", 80))
	case "https":
		attrs = append(attrs, attribute.Int("server.port", 443))
	}
	return attrs
}

// classifyError maps a round trip error to an error.type value.
func classifyError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, context.Canceled):
		return ErrorTypeCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeTimeout
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return ErrorTypeBreakerOpen
	case errors.Is(err, ErrRateLimited):
		return ErrorTypeRateLimited
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorTypeTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrorTypeDNSError
	}

	var tlsRecordErr tls.RecordHeaderError
	if errors.As(err, &tlsRecordErr) {
		return ErrorTypeTLSError
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return ErrorTypeConnRefused
	}

	return ErrorTypeOther
}
