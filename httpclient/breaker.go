package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
	gobreakerredis "github.com/sony/gobreaker/v2/redis"
)

// NewRedisBreakerStore creates a SharedDataStore backed by Redis so that
// several processes share one breaker state.
//
// Usage:
//
//	rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{"localhost:6379"}})
//	bc := httpclient.DefaultBreakerConfig()
//	bc.Store = httpclient.NewRedisBreakerStore(rdb)
func NewRedisBreakerStore(client redis.UniversalClient) gobreaker.SharedDataStore {
	return gobreakerredis.NewStoreFromClient(client)
}

// BreakerClassifier reports whether a round trip counts as a failure.
type BreakerClassifier func(resp *http.Response, err error) bool

// BreakerConfig configures the HTTPTransport circuit breaker.
//
// A 401 is never a breaker failure: token expiry is handled by the
// executor's refresh cycle.
type BreakerConfig struct {
	// MaxRequests is the number of probe requests allowed while half-open.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state after which
	// counts are cleared. Zero never clears.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// FailureThreshold is the minimum number of requests before the
	// failure ratio is considered.
	FailureThreshold uint32

	// FailureRatio trips the breaker when failures/requests reaches it.
	FailureRatio float64

	// ConsecutiveFailures trips the breaker after this many failures in
	// a row. Zero disables the rule.
	ConsecutiveFailures uint32

	// Store makes the breaker distributed when set.
	Store gobreaker.SharedDataStore

	// Classifier decides which round trips are failures.
	// Default: DefaultBreakerClassifier
	Classifier BreakerClassifier

	// OnStateChange is invoked on every state transition.
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultBreakerConfig returns a local breaker that trips after 5
// consecutive failures or a 50% failure ratio over at least 20 requests.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         1,
		Interval:            10 * time.Second,
		Timeout:             10 * time.Second,
		FailureThreshold:    20,
		FailureRatio:        0.5,
		ConsecutiveFailures: 5,
		Classifier:          DefaultBreakerClassifier,
	}
}

// DefaultBreakerClassifier counts 5xx responses and network errors.
func DefaultBreakerClassifier(resp *http.Response, err error) bool {
	if err != nil {
		return isNetworkError(err)
	}
	return resp != nil && resp.StatusCode >= 500
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT)
}

// circuitBreaker matches gobreaker.CircuitBreaker and DistributedCircuitBreaker.
type circuitBreaker interface {
	Execute(req func() (*http.Response, error)) (*http.Response, error)
}

// circuitBreakerTransport is a RoundTripper guarded by a circuit breaker.
type circuitBreakerTransport struct {
	breaker    circuitBreaker
	next       http.RoundTripper
	classifier BreakerClassifier
	cfg        *internalConfig
	name       string
}

// errSyntheticFailure signals a failed response (e.g. 503) to the breaker.
// It never leaves the transport.
var errSyntheticFailure = errors.New("synthetic failure")

// ErrSharedBreakerUnavailable is logged when the shared breaker state cannot
// be initialized and the transport falls back to a process-local breaker.
var ErrSharedBreakerUnavailable = errors.New("httpclient: shared circuit breaker unavailable, using local breaker")

// RoundTrip implements http.RoundTripper.
func (t *circuitBreakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	resp, err := t.breaker.Execute(func() (*http.Response, error) {
		resp, err := t.next.RoundTrip(req) //nolint:bodyclose // returned to caller
		if t.classifier(resp, err) {
			if err != nil {
				return resp, err
			}
			return resp, errSyntheticFailure
		}
		return resp, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			t.cfg.Metrics.recordBreakerRequest(ctx, t.name, "rejected")
			return nil, err
		}

		t.cfg.Metrics.recordBreakerRequest(ctx, t.name, "failure")
		if errors.Is(err, errSyntheticFailure) && resp != nil {
			return resp, nil
		}
		return nil, err
	}

	t.cfg.Metrics.recordBreakerRequest(ctx, t.name, "success")
	return resp, nil
}

// Unwrap returns the wrapped RoundTripper.
func (t *circuitBreakerTransport) Unwrap() http.RoundTripper {
	return t.next
}

// newCircuitBreakerTransport wraps next with a breaker when configured.
func newCircuitBreakerTransport(next http.RoundTripper, cfg *internalConfig) http.RoundTripper {
	if cfg.BreakerConfig == nil {
		return next
	}
	bc := *cfg.BreakerConfig
	if bc.Classifier == nil {
		bc.Classifier = DefaultBreakerClassifier
	}

	name := cfg.ServiceName
	if name == "" {
		name = "sentinel-auth"
	}

	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if bc.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= bc.ConsecutiveFailures {
				return true
			}
			if bc.FailureThreshold > 0 && counts.Requests < bc.FailureThreshold {
				return false
			}
			if bc.FailureRatio > 0 && counts.Requests > 0 {
				return float64(counts.TotalFailures)/float64(counts.Requests) >= bc.FailureRatio
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			cfg.Metrics.recordBreakerState(context.Background(), name, int64(to))
			if bc.OnStateChange != nil {
				bc.OnStateChange(name, from, to)
			}
		},
	}

	var cb circuitBreaker = gobreaker.NewCircuitBreaker[*http.Response](st)
	if bc.Store != nil {
		dcb, err := gobreaker.NewDistributedCircuitBreaker[*http.Response](bc.Store, st)
		if err != nil {
			// The local breaker still protects this process.
			cfg.log.Error(fmt.Errorf("%w: %q: %w", ErrSharedBreakerUnavailable, name, err))
		} else {
			cb = dcb
		}
	}

	return &circuitBreakerTransport{
		breaker:    cb,
		next:       next,
		classifier: bc.Classifier,
		cfg:        cfg,
		name:       name,
	}
}
