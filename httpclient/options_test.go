package httpclient

import (
	"crypto/tls"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestConfigPresets(t *testing.T) {
	tests := []struct {
		name           string
		cfg            Config
		wantTimeout    time.Duration
		wantMaxIdle    int
		wantMaxPerHost int
		wantDial       time.Duration
	}{
		{
			name:           "given default config, then returns balanced settings",
			cfg:            DefaultConfig(),
			wantTimeout:    15 * time.Second,
			wantMaxIdle:    100,
			wantMaxPerHost: 20,
			wantDial:       5 * time.Second,
		},
		{
			name:           "given low latency config, then fails fast",
			cfg:            LowLatencyConfig(),
			wantTimeout:    5 * time.Second,
			wantMaxIdle:    50,
			wantMaxPerHost: 25,
			wantDial:       2 * time.Second,
		},
		{
			name:           "given conservative config, then keeps few connections",
			cfg:            ConservativeConfig(),
			wantTimeout:    10 * time.Second,
			wantMaxIdle:    20,
			wantMaxPerHost: 5,
			wantDial:       5 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantTimeout, tt.cfg.Timeout)
			assert.Equal(t, tt.wantMaxIdle, tt.cfg.MaxIdleConns)
			assert.Equal(t, tt.wantMaxPerHost, tt.cfg.MaxIdleConnsPerHost)
			assert.Equal(t, tt.wantDial, tt.cfg.DialTimeout)
			assert.False(t, tt.cfg.DisableKeepAlives)
		})
	}
}

func TestNewConfig(t *testing.T) {
	t.Run("given no options, then refresh defaults apply", func(t *testing.T) {
		cfg := newConfig()

		assert.Equal(t, http.MethodPost, cfg.RefreshEndpoint.Method())
		assert.Equal(t, DefaultRefreshURL, cfg.RefreshEndpoint.URL())
		assert.Equal(t, DefaultRefreshParam, cfg.RefreshParam)
		assert.Equal(t, DefaultAccessTokenField, cfg.AccessTokenField)
		assert.Equal(t, DefaultRefreshTokenField, cfg.RefreshTokenField)
		assert.False(t, cfg.CoalesceRefresh)
		assert.Nil(t, cfg.BreakerConfig)
		assert.Nil(t, cfg.RateLimit)
		assert.NotNil(t, cfg.Tracer)
		assert.NotNil(t, cfg.Meter)
		assert.NotNil(t, cfg.Metrics)
	})

	t.Run("given options, then they are applied", func(t *testing.T) {
		tp := sdktrace.NewTracerProvider()
		mp := noop.NewMeterProvider()
		store := newTestStore("a", "r")
		mock := NewMockTransport()
		logger := &recordingLogger{}
		tlsCfg := &tls.Config{MinVersion: tls.VersionTLS13}

		cfg := newConfig(
			WithConfig(LowLatencyConfig()),
			WithBaseURL("https://api.example.com"),
			WithServiceName("orders-api"),
			WithRefreshEndpoint(Put("/session")),
			WithRefreshParam("token"),
			WithRefreshFields("data.a", "data.r"),
			WithRefreshCoalescing(),
			WithTokenStore(store),
			WithTransport(mock),
			WithLogger(logger),
			WithDebug(true),
			WithTLSConfig(tlsCfg),
			WithTracerProvider(tp),
			WithMeterProvider(mp),
			WithBreakerConfig(DefaultBreakerConfig()),
			WithRateLimit(DefaultRateLimitConfig()),
		)

		assert.Equal(t, LowLatencyConfig(), cfg.httpConfig)
		assert.Equal(t, "https://api.example.com", cfg.BaseURL)
		assert.Equal(t, "orders-api", cfg.ServiceName)
		assert.Equal(t, http.MethodPut, cfg.RefreshEndpoint.Method())
		assert.Equal(t, "/session", cfg.RefreshEndpoint.URL())
		assert.Equal(t, "token", cfg.RefreshParam)
		assert.Equal(t, "data.a", cfg.AccessTokenField)
		assert.Equal(t, "data.r", cfg.RefreshTokenField)
		assert.True(t, cfg.CoalesceRefresh)
		assert.Same(t, store, cfg.TokenStore)
		assert.Same(t, mock, cfg.Transport)
		assert.Same(t, logger, cfg.Logger)
		assert.True(t, cfg.Debug)
		assert.Same(t, tlsCfg, cfg.TLSConfig)
		assert.Equal(t, tp, cfg.TracerProvider)
		assert.Equal(t, mp, cfg.MeterProvider)
		require.NotNil(t, cfg.BreakerConfig)
		require.NotNil(t, cfg.RateLimit)
		assert.InDelta(t, 100, cfg.RateLimit.RequestsPerSecond, 0)
	})
}

func TestBuildTransport(t *testing.T) {
	t.Run("given defaults, then builds pooled transport from config", func(t *testing.T) {
		tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}
		cfg := newConfig(WithConfig(ConservativeConfig()), WithTLSConfig(tlsCfg))

		rt, ok := cfg.buildTransport().(*http.Transport)
		require.True(t, ok)

		assert.Equal(t, 20, rt.MaxIdleConns)
		assert.Equal(t, 5, rt.MaxIdleConnsPerHost)
		assert.Equal(t, 20, rt.MaxConnsPerHost)
		assert.Equal(t, 30*time.Second, rt.IdleConnTimeout)
		assert.Same(t, tlsCfg, rt.TLSClientConfig)
		assert.NotNil(t, rt.Proxy)
	})

	t.Run("given custom round tripper, then it is used as is", func(t *testing.T) {
		custom := &http.Transport{}
		cfg := newConfig(WithRoundTripper(custom))

		assert.Same(t, custom, cfg.buildTransport())
	})
}

func TestBaseAttributes(t *testing.T) {
	tests := []struct {
		name        string
		serviceName string
		want        []attribute.KeyValue
	}{
		{
			name: "given no service name, then empty",
			want: []attribute.KeyValue{},
		},
		{
			name:        "given service name, then adds http.client.name",
			serviceName: "orders-api",
			want:        []attribute.KeyValue{attribute.String("http.client.name", "orders-api")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newConfig(WithServiceName(tt.serviceName))
			assert.Equal(t, tt.want, cfg.baseAttributes())
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Run("given no transport, then uses HTTPTransport", func(t *testing.T) {
		executor := New()

		_, ok := executor.Transport().(*HTTPTransport)
		assert.True(t, ok)
		assert.IsType(t, noopStore{}, executor.store)
		assert.Equal(t, safeLogger{next: nopLogger{}}, executor.logger)
	})

	t.Run("given debug without logger, then logs with zerolog", func(t *testing.T) {
		executor := New(WithDebug(true))

		sl, ok := executor.logger.(safeLogger)
		require.True(t, ok)
		assert.IsType(t, &ZerologLogger{}, sl.next)
	})

	t.Run("given debug and logger, then logger wins", func(t *testing.T) {
		logger := &recordingLogger{}
		executor := New(WithDebug(true), WithLogger(logger))

		sl, ok := executor.logger.(safeLogger)
		require.True(t, ok)
		assert.Same(t, logger, sl.next)
	})
}
