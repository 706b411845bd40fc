package httpclient

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Request outcomes recorded on authclient.requests.
const (
	outcomeSuccess          = "success"
	outcomeFailure          = "failure"
	outcomeTokenExpired     = "token_expired"
	outcomeTransportFailure = "transport_failure"
)

// metrics holds the metric instruments for the executor and its transport.
type metrics struct {
	// === Executor Metrics ===

	// requests counts terminal Execute outcomes by outcome.
	requests metric.Int64Counter

	// refreshAttempts counts refresh calls issued to the refresh endpoint.
	refreshAttempts metric.Int64Counter

	// refreshFailures counts refresh cycles that ended in 401, by reason.
	refreshFailures metric.Int64Counter

	// retries counts requests re-sent after a successful refresh.
	retries metric.Int64Counter

	// === Transport Metrics ===

	// requestDuration measures single round trips in seconds.
	requestDuration metric.Float64Histogram

	// requestErrors counts round trips that produced no response, by error type.
	requestErrors metric.Int64Counter

	// activeRequests tracks in-flight round trips.
	activeRequests metric.Int64UpDownCounter

	// breakerRequests counts circuit breaker decisions by result.
	breakerRequests metric.Int64Counter

	// breakerState reports the current breaker state (0 closed, 1 half-open, 2 open).
	breakerState metric.Int64Gauge
}

// newMetrics creates and registers metric instruments.
func newMetrics(meter metric.Meter) (*metrics, error) {
	m := &metrics{}
	var err error

	m.requests, err = meter.Int64Counter(
		"authclient.requests",
		metric.WithDescription("Terminal outcomes of authenticated requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.refreshAttempts, err = meter.Int64Counter(
		"authclient.refresh.attempts",
		metric.WithDescription("Calls made to the token refresh endpoint"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return nil, err
	}

	m.refreshFailures, err = meter.Int64Counter(
		"authclient.refresh.failures",
		metric.WithDescription("Token refresh cycles that failed"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return nil, err
	}

	m.retries, err = meter.Int64Counter(
		"authclient.retries",
		metric.WithDescription("Requests retried after a successful token refresh"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	// Request duration histogram with OTel semconv recommended buckets
	m.requestDuration, err = meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Duration of HTTP client requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 7.5, 10,
		),
	)
	if err != nil {
		return nil, err
	}

	m.requestErrors, err = meter.Int64Counter(
		"http.client.request.errors",
		metric.WithDescription("HTTP client requests that received no response"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.activeRequests, err = meter.Int64UpDownCounter(
		"http.client.active_requests",
		metric.WithDescription("Number of in-flight HTTP client requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.breakerRequests, err = meter.Int64Counter(
		"http.client.breaker.requests",
		metric.WithDescription("Circuit breaker decisions"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.breakerState, err = meter.Int64Gauge(
		"http.client.breaker.state",
		metric.WithDescription("Circuit breaker state (0 closed, 1 half-open, 2 open)"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// recordOutcome records the terminal outcome of an Execute call.
func (m *metrics) recordOutcome(ctx context.Context, outcome string, attrs []attribute.KeyValue) {
	if m == nil || m.requests == nil {
		return
	}
	all := append(append([]attribute.KeyValue(nil), attrs...), attribute.String("outcome", outcome))
	m.requests.Add(ctx, 1, metric.WithAttributes(all...))
}

// recordRefreshAttempt records a call to the refresh endpoint.
func (m *metrics) recordRefreshAttempt(ctx context.Context, attrs []attribute.KeyValue) {
	if m == nil || m.refreshAttempts == nil {
		return
	}
	m.refreshAttempts.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// recordRefreshFailure records a failed refresh cycle.
func (m *metrics) recordRefreshFailure(ctx context.Context, reason string, attrs []attribute.KeyValue) {
	if m == nil || m.refreshFailures == nil {
		return
	}
	all := append(append([]attribute.KeyValue(nil), attrs...), attribute.String("reason", reason))
	m.refreshFailures.Add(ctx, 1, metric.WithAttributes(all...))
}

// recordRetry records a retry after refresh.
func (m *metrics) recordRetry(ctx context.Context, attrs []attribute.KeyValue) {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// recordRequestDuration records the duration of an HTTP round trip.
func (m *metrics) recordRequestDuration(
	ctx context.Context,
	duration time.Duration,
	attrs []attribute.KeyValue,
) {
	if m == nil || m.requestDuration == nil {
		return
	}
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// recordError records a round trip that produced no response.
func (m *metrics) recordError(ctx context.Context, errorType string, attrs []attribute.KeyValue) {
	if m == nil || m.requestErrors == nil {
		return
	}
	all := append(append([]attribute.KeyValue(nil), attrs...), attribute.String("error.type", errorType))
	m.requestErrors.Add(ctx, 1, metric.WithAttributes(all...))
}

func (m *metrics) recordActiveRequestStart(ctx context.Context, attrs []attribute.KeyValue) {
	if m == nil || m.activeRequests == nil {
		return
	}
	m.activeRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *metrics) recordActiveRequestEnd(ctx context.Context, attrs []attribute.KeyValue) {
	if m == nil || m.activeRequests == nil {
		return
	}
	m.activeRequests.Add(ctx, -1, metric.WithAttributes(attrs...))
}

// recordBreakerRequest records a circuit breaker decision
// (success, failure or rejected).
func (m *metrics) recordBreakerRequest(ctx context.Context, name, result string) {
	if m == nil || m.breakerRequests == nil {
		return
	}
	m.breakerRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("breaker.name", name),
		attribute.String("result", result),
	))
}

// recordBreakerState records a circuit breaker state transition.
func (m *metrics) recordBreakerState(ctx context.Context, name string, state int64) {
	if m == nil || m.breakerState == nil {
		return
	}
	m.breakerState.Record(ctx, state, metric.WithAttributes(attribute.String("breaker.name", name)))
}
