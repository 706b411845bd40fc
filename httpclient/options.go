package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// scope is the instrumentation scope name for OpenTelemetry.
	scope = "github.com/kroma-labs/sentinel-auth/httpclient"

	// DefaultRefreshURL is the refresh endpoint used when none is configured.
	DefaultRefreshURL = "/auth/refresh"

	// DefaultRefreshParam is the parameter that carries the refresh token.
	DefaultRefreshParam = "refreshToken"

	// DefaultAccessTokenField is where the refresh response carries the new access token.
	DefaultAccessTokenField = "accessToken"

	// DefaultRefreshTokenField is where the refresh response carries the new refresh token.
	DefaultRefreshTokenField = "refreshToken"
)

// =============================================================================
// Config - HTTP Transport Configuration
// =============================================================================

// Config holds the HTTP transport tuning used by HTTPTransport.
// Use DefaultConfig() and modify specific fields as needed.
//
// The executor itself has no timeouts; a request is bounded only by the
// context passed to Execute and by these settings.
//
// Example:
//
//	cfg := httpclient.DefaultConfig()
//	cfg.Timeout = 5 * time.Second
//
//	executor := httpclient.New(
//	    httpclient.WithConfig(cfg),
//	    httpclient.WithBaseURL("https://api.example.com"),
//	)
type Config struct {
	// Timeout limits a single round trip including reading the body.
	// Zero means no timeout.
	//
	// Default: 15s
	Timeout time.Duration

	// MaxIdleConns controls the maximum number of idle (keep-alive)
	// connections across all hosts.
	//
	// Default: 100
	MaxIdleConns int

	// MaxIdleConnsPerHost controls the maximum idle connections per host.
	//
	// Default: 20
	MaxIdleConnsPerHost int

	// MaxConnsPerHost limits idle plus active connections per host.
	// Zero means unlimited.
	//
	// Default: 100
	MaxConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains pooled.
	//
	// Default: 90s
	IdleConnTimeout time.Duration

	// TLSHandshakeTimeout is the maximum time to wait for a TLS handshake.
	//
	// Default: 10s
	TLSHandshakeTimeout time.Duration

	// ResponseHeaderTimeout is the time to wait for response headers after
	// the request is written. Zero defers to Timeout.
	//
	// Default: 0
	ResponseHeaderTimeout time.Duration

	// DialTimeout is the maximum time to establish a TCP connection.
	//
	// Default: 5s
	DialTimeout time.Duration

	// KeepAlive is the TCP keep-alive probe interval.
	//
	// Default: 30s
	KeepAlive time.Duration

	// DisableKeepAlives forces a new connection per request.
	//
	// Default: false
	DisableKeepAlives bool
}

// DefaultConfig returns a balanced configuration suitable for most use cases.
func DefaultConfig() Config {
	return Config{
		Timeout:             15 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		MaxConnsPerHost:     100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialTimeout:         5 * time.Second,
		KeepAlive:           30 * time.Second,
	}
}

// LowLatencyConfig fails fast: shorter timeouts and a quick dial.
//
// Best for user-facing calls where a slow answer is as bad as none.
func LowLatencyConfig() Config {
	return Config{
		Timeout:               5 * time.Second,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   25,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       60 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 3 * time.Second,
		DialTimeout:           2 * time.Second,
		KeepAlive:             15 * time.Second,
	}
}

// ConservativeConfig keeps few connections around.
//
// Best for short-lived processes and sidecars with tight memory limits.
func ConservativeConfig() Config {
	return Config{
		Timeout:             10 * time.Second,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 5,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialTimeout:         5 * time.Second,
		KeepAlive:           30 * time.Second,
	}
}

// =============================================================================
// Internal Configuration
// =============================================================================

// internalConfig holds executor, transport and telemetry settings.
type internalConfig struct {
	// HTTP transport configuration
	httpConfig Config

	// BaseURL is prepended to every request URL that is not absolute.
	BaseURL string

	// ServiceName is added as "http.client.name" on spans and metrics.
	ServiceName string

	// === Refresh Endpoint ===

	// RefreshEndpoint is the spec used for the refresh call. It is always
	// sent tokenless.
	RefreshEndpoint RequestSpec

	// RefreshParam names the parameter carrying the refresh token.
	RefreshParam string

	// AccessTokenField and RefreshTokenField locate the new tokens in the
	// refresh response. Dotted paths address nested objects.
	AccessTokenField  string
	RefreshTokenField string

	// CoalesceRefresh shares one refresh call between concurrent requests
	// that present the same refresh token.
	CoalesceRefresh bool

	// === Collaborators ===

	TokenStore TokenStore
	Transport  Transport
	Logger     Logger
	Debug      bool

	// log is the resolved sink shared by the executor and the transport.
	log Logger

	// === HTTPTransport Settings ===

	// RoundTripper replaces the pooled http.Transport at the bottom of the
	// HTTPTransport chain.
	RoundTripper http.RoundTripper

	// TLSConfig specifies the TLS configuration of the pooled transport.
	TLSConfig *tls.Config

	// BreakerConfig enables the circuit breaker when non-nil.
	BreakerConfig *BreakerConfig

	// RateLimit enables client-side rate limiting when non-nil.
	RateLimit *RateLimitConfig

	// === OpenTelemetry ===

	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Metrics        *metrics
}

// newConfig creates a new internal config with defaults and applies options.
func newConfig(opts ...Option) *internalConfig {
	cfg := &internalConfig{
		httpConfig:        DefaultConfig(),
		RefreshEndpoint:   NewRequest(http.MethodPost, DefaultRefreshURL),
		RefreshParam:      DefaultRefreshParam,
		AccessTokenField:  DefaultAccessTokenField,
		RefreshTokenField: DefaultRefreshTokenField,
		TracerProvider:    otel.GetTracerProvider(),
		MeterProvider:     otel.GetMeterProvider(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	var sink Logger = nopLogger{}
	switch {
	case cfg.Logger != nil:
		sink = cfg.Logger
	case cfg.Debug:
		sink = newDebugLogger()
	}
	cfg.log = safeLogger{next: sink}

	cfg.Tracer = cfg.TracerProvider.Tracer(scope)
	cfg.Meter = cfg.MeterProvider.Meter(scope)

	// Metrics are optional; nil instruments are no-ops.
	cfg.Metrics, _ = newMetrics(cfg.Meter)

	return cfg
}

// buildTransport creates a pooled http.Transport from the configuration.
func (cfg *internalConfig) buildTransport() http.RoundTripper {
	if cfg.RoundTripper != nil {
		return cfg.RoundTripper
	}

	hc := cfg.httpConfig

	dialer := &net.Dialer{
		Timeout:   hc.DialTimeout,
		KeepAlive: hc.KeepAlive,
	}

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          hc.MaxIdleConns,
		MaxIdleConnsPerHost:   hc.MaxIdleConnsPerHost,
		MaxConnsPerHost:       hc.MaxConnsPerHost,
		IdleConnTimeout:       hc.IdleConnTimeout,
		TLSHandshakeTimeout:   hc.TLSHandshakeTimeout,
		ResponseHeaderTimeout: hc.ResponseHeaderTimeout,
		DisableKeepAlives:     hc.DisableKeepAlives,
		TLSClientConfig:       cfg.TLSConfig,
	}
}

// baseAttributes returns common attributes for all spans and metrics.
func (cfg *internalConfig) baseAttributes() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 1)
	if cfg.ServiceName != "" {
		attrs = append(attrs, attribute.String("http.client.name", cfg.ServiceName))
	}
	return attrs
}

// =============================================================================
// Options
// =============================================================================

// Option configures the executor and its HTTP transport.
type Option func(*internalConfig)

// WithConfig sets the HTTP transport configuration.
func WithConfig(c Config) Option {
	return func(cfg *internalConfig) {
		cfg.httpConfig = c
	}
}

// WithBaseURL sets the prefix prepended to every request URL.
//
// URLs that are already absolute (contain "://") are sent unchanged.
//
// Example:
//
//	executor := httpclient.New(
//	    httpclient.WithBaseURL("https://api.example.com/v1"),
//	)
func WithBaseURL(baseURL string) Option {
	return func(cfg *internalConfig) {
		cfg.BaseURL = baseURL
	}
}

// WithServiceName sets an identifier for this client in traces and metrics.
func WithServiceName(name string) Option {
	return func(cfg *internalConfig) {
		cfg.ServiceName = name
	}
}

// WithRefreshEndpoint sets the request used to exchange a refresh token.
//
// The spec is always sent without an Authorization header, and the refresh
// token is added as a parameter (see WithRefreshParam). Static parameters and
// headers on the spec are kept.
//
// Default: POST /auth/refresh
//
// Example:
//
//	executor := httpclient.New(
//	    httpclient.WithBaseURL("https://api.example.com"),
//	    httpclient.WithRefreshEndpoint(
//	        httpclient.Post("/oauth/token").WithParam("grant_type", "refresh_token"),
//	    ),
//	    httpclient.WithRefreshParam("refresh_token"),
//	    httpclient.WithRefreshFields("access_token", "refresh_token"),
//	)
func WithRefreshEndpoint(spec RequestSpec) Option {
	return func(cfg *internalConfig) {
		cfg.RefreshEndpoint = spec
	}
}

// WithRefreshParam sets the parameter name carrying the refresh token.
//
// Default: "refreshToken"
func WithRefreshParam(name string) Option {
	return func(cfg *internalConfig) {
		cfg.RefreshParam = name
	}
}

// WithRefreshFields sets where the refresh response carries the new tokens.
// Dotted paths such as "data.accessToken" address nested objects.
//
// Default: "accessToken", "refreshToken"
func WithRefreshFields(accessTokenField, refreshTokenField string) Option {
	return func(cfg *internalConfig) {
		cfg.AccessTokenField = accessTokenField
		cfg.RefreshTokenField = refreshTokenField
	}
}

// WithRefreshCoalescing makes concurrent requests that hit 401 with the same
// refresh token share a single refresh call.
//
// Useful when the server rotates refresh tokens and rejects reuse: without
// coalescing, the second concurrent refresh would present a token that the
// first one already consumed.
//
// Only calls in flight at the same time are merged. A caller whose refresh
// starts after the shared call returned re-reads the TokenStore first and
// retries with the stored tokens if the refresh token has already changed.
// Tokens rotated by another process are seen only through a shared store.
func WithRefreshCoalescing() Option {
	return func(cfg *internalConfig) {
		cfg.CoalesceRefresh = true
	}
}

// WithTokenStore sets where access and refresh tokens are read and written.
//
// Without a store every token is absent: requests go out unauthenticated and
// a 401 cannot be refreshed.
func WithTokenStore(store TokenStore) Option {
	return func(cfg *internalConfig) {
		cfg.TokenStore = store
	}
}

// WithTransport replaces the HTTP transport.
func WithTransport(t Transport) Option {
	return func(cfg *internalConfig) {
		cfg.Transport = t
	}
}

// WithRoundTripper replaces the pooled http.Transport underneath
// HTTPTransport. Tracing, breaker and rate limiting still wrap it.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(cfg *internalConfig) {
		cfg.RoundTripper = rt
	}
}

// WithTLSConfig sets a custom TLS configuration on the pooled transport.
func WithTLSConfig(tlsCfg *tls.Config) Option {
	return func(cfg *internalConfig) {
		cfg.TLSConfig = tlsCfg
	}
}

// WithLogger sets the diagnostic sink.
func WithLogger(l Logger) Option {
	return func(cfg *internalConfig) {
		cfg.Logger = l
	}
}

// WithDebug logs every request and response to stdout with zerolog,
// including a cURL command with credentials redacted. An explicit
// WithLogger takes precedence over the stdout logger.
func WithDebug(enabled bool) Option {
	return func(cfg *internalConfig) {
		cfg.Debug = enabled
	}
}

// WithTracerProvider sets a custom OpenTelemetry TracerProvider.
// If not called, the global provider from otel.GetTracerProvider() is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *internalConfig) {
		cfg.TracerProvider = tp
	}
}

// WithMeterProvider sets a custom OpenTelemetry MeterProvider.
// If not called, the global provider from otel.GetMeterProvider() is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(cfg *internalConfig) {
		cfg.MeterProvider = mp
	}
}

// WithBreakerConfig enables a circuit breaker in HTTPTransport.
//
// While the breaker is open requests fail without reaching the network and
// are normalized like any other transport failure.
func WithBreakerConfig(bc BreakerConfig) Option {
	return func(cfg *internalConfig) {
		cfg.BreakerConfig = &bc
	}
}

// WithRateLimit enables client-side rate limiting in HTTPTransport.
func WithRateLimit(rl RateLimitConfig) Option {
	return func(cfg *internalConfig) {
		cfg.RateLimit = &rl
	}
}
