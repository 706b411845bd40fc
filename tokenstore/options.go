// Package tokenstore provides TokenStore implementations for httpclient.
//
// Three stores are available:
//
//   - Memory keeps tokens in process memory.
//   - Redis keeps them in Redis so several processes share one session.
//   - SQL keeps one row per subject in a relational table via sqlx.
//
// Every store treats an empty string as an absent token and writes both
// tokens together.
//
// Usage:
//
//	rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{"localhost:6379"}})
//	store, err := tokenstore.NewRedis(rdb, "user-42",
//	    tokenstore.WithTTL(24*time.Hour),
//	)
//	if err != nil {
//	    return err
//	}
//
//	executor := httpclient.New(httpclient.WithTokenStore(store))
package tokenstore

import (
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	// scope is the instrumentation scope name for OpenTelemetry.
	scope = "github.com/kroma-labs/sentinel-auth/tokenstore"

	// DefaultKeyPrefix prefixes Redis keys.
	DefaultKeyPrefix = "authclient:tokens"

	// DefaultTable is the SQL table holding tokens.
	DefaultTable = "auth_tokens"
)

var (
	// ErrNilClient is returned when a store is created without a client.
	ErrNilClient = errors.New("tokenstore: nil client")

	// ErrEmptySubject is returned when a store is created without a subject.
	ErrEmptySubject = errors.New("tokenstore: empty subject")
)

// Credentials is the pair of tokens owned by a store. An empty field means
// the token is absent.
type Credentials struct {
	AccessToken  string `db:"access_token"`
	RefreshToken string `db:"refresh_token"`
}

// config holds store settings.
type config struct {
	TracerProvider trace.TracerProvider
	Tracer         trace.Tracer

	// KeyPrefix prefixes Redis keys.
	KeyPrefix string

	// TTL expires Redis keys. Zero keeps them forever.
	TTL time.Duration

	// Table is the SQL table name.
	Table string

	// DBSystem is recorded as db.system on SQL spans.
	DBSystem string
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		TracerProvider: otel.GetTracerProvider(),
		KeyPrefix:      DefaultKeyPrefix,
		Table:          DefaultTable,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	cfg.Tracer = cfg.TracerProvider.Tracer(scope)
	return cfg
}

// Option configures a store.
type Option func(*config)

// WithTracerProvider sets a custom OpenTelemetry TracerProvider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *config) {
		cfg.TracerProvider = tp
	}
}

// WithKeyPrefix sets the Redis key prefix.
//
// Default: "authclient:tokens"
func WithKeyPrefix(prefix string) Option {
	return func(cfg *config) {
		cfg.KeyPrefix = prefix
	}
}

// WithTTL expires Redis keys after ttl. Every write resets the expiry.
func WithTTL(ttl time.Duration) Option {
	return func(cfg *config) {
		cfg.TTL = ttl
	}
}

// WithTable sets the SQL table name.
//
// Default: "auth_tokens"
func WithTable(table string) Option {
	return func(cfg *config) {
		cfg.Table = table
	}
}

// WithDBSystem identifies the database management system on spans
// (e.g. "postgresql", "sqlite").
func WithDBSystem(system string) Option {
	return func(cfg *config) {
		cfg.DBSystem = system
	}
}
