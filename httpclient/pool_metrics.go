package httpclient

import (
	"net/http"
	"time"
)

// Layer names reported in PoolStats.Layers, outermost first.
const (
	layerTelemetry      = "telemetry"
	layerCircuitBreaker = "circuit_breaker"
	layerRateLimit      = "rate_limit"
	layerPool           = "pool"
	layerCustom         = "custom"
)

// PoolStats describes how an HTTPTransport dispatches: the RoundTripper
// layers a request crosses and the connection pool at the bottom.
//
// Pool fields are zero when WithRoundTripper replaced the pooled transport.
//
//	stats := transport.PoolStats()
//	log.Info().Strs("layers", stats.Layers).Int("max_conns_per_host", stats.MaxConnsPerHost).Send()
type PoolStats struct {
	// Layers lists the round trip layers, e.g.
	// [telemetry circuit_breaker rate_limit pool].
	Layers []string

	// Timeout is the per-round-trip limit of the http.Client.
	Timeout time.Duration

	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
	IdleConnTimeout     time.Duration
	DisableKeepAlives   bool
}

// PoolStats inspects the transport chain built by NewHTTPTransport.
func (t *HTTPTransport) PoolStats() PoolStats {
	if t.client == nil || t.client.Transport == nil {
		return PoolStats{}
	}

	stats := PoolStats{Timeout: t.client.Timeout}

	pool := walkTransport(t.client.Transport, func(layer string) {
		stats.Layers = append(stats.Layers, layer)
	})
	if pool != nil {
		stats.MaxIdleConns = pool.MaxIdleConns
		stats.MaxIdleConnsPerHost = pool.MaxIdleConnsPerHost
		stats.MaxConnsPerHost = pool.MaxConnsPerHost
		stats.IdleConnTimeout = pool.IdleConnTimeout
		stats.DisableKeepAlives = pool.DisableKeepAlives
	}
	return stats
}

// walkTransport follows Unwrap down the chain, reporting each layer, and
// returns the pooled *http.Transport if the chain ends in one.
func walkTransport(rt http.RoundTripper, visit func(layer string)) *http.Transport {
	for rt != nil {
		switch layer := rt.(type) {
		case *http.Transport:
			visit(layerPool)
			return layer
		case *otelTransport:
			visit(layerTelemetry)
			rt = layer.Unwrap()
		case *circuitBreakerTransport:
			visit(layerCircuitBreaker)
			rt = layer.Unwrap()
		case *rateLimitTransport:
			visit(layerRateLimit)
			rt = layer.Unwrap()
		default:
			visit(layerCustom)
			return nil
		}
	}
	return nil
}
