package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kroma-labs/sentinel-auth/httpclient"
)

var _ httpclient.TokenStore = (*Redis)(nil)

// Redis stores tokens under two keys:
//
//	{prefix}:{subject}:access
//	{prefix}:{subject}:refresh
//
// Both keys are written in one MULTI/EXEC transaction. A missing key is an
// absent token.
type Redis struct {
	client     redis.UniversalClient
	accessKey  string
	refreshKey string
	cfg        *config
}

// NewRedis creates a Redis store for subject (a user or session id).
//
// Example:
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	store, err := tokenstore.NewRedis(rdb, "user-42", tokenstore.WithTTL(time.Hour))
func NewRedis(client redis.UniversalClient, subject string, opts ...Option) (*Redis, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if subject == "" {
		return nil, ErrEmptySubject
	}

	cfg := newConfig(opts...)
	base := cfg.KeyPrefix + ":" + subject

	return &Redis{
		client:     client,
		accessKey:  base + ":access",
		refreshKey: base + ":refresh",
		cfg:        cfg,
	}, nil
}

// AccessToken implements httpclient.TokenStore.
func (r *Redis) AccessToken(ctx context.Context) (string, error) {
	return r.get(ctx, "tokenstore.redis.AccessToken", r.accessKey)
}

// RefreshToken implements httpclient.TokenStore.
func (r *Redis) RefreshToken(ctx context.Context) (string, error) {
	return r.get(ctx, "tokenstore.redis.RefreshToken", r.refreshKey)
}

// SetTokens implements httpclient.TokenStore.
func (r *Redis) SetTokens(ctx context.Context, accessToken, refreshToken string) error {
	ctx, span := r.start(ctx, "tokenstore.redis.SetTokens")
	defer span.End()

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.accessKey, accessToken, r.cfg.TTL)
		pipe.Set(ctx, r.refreshKey, refreshToken, r.cfg.TTL)
		return nil
	})
	if err != nil {
		recordError(span, err)
		return fmt.Errorf("tokenstore: redis set tokens: %w", err)
	}
	return nil
}

// Load returns both tokens with a single MGET.
func (r *Redis) Load(ctx context.Context) (Credentials, error) {
	ctx, span := r.start(ctx, "tokenstore.redis.Load")
	defer span.End()

	values, err := r.client.MGet(ctx, r.accessKey, r.refreshKey).Result()
	if err != nil {
		recordError(span, err)
		return Credentials{}, fmt.Errorf("tokenstore: redis load: %w", err)
	}

	var creds Credentials
	creds.AccessToken, _ = values[0].(string)
	creds.RefreshToken, _ = values[1].(string)
	return creds, nil
}

// Clear deletes both keys.
func (r *Redis) Clear(ctx context.Context) error {
	ctx, span := r.start(ctx, "tokenstore.redis.Clear")
	defer span.End()

	if err := r.client.Del(ctx, r.accessKey, r.refreshKey).Err(); err != nil {
		recordError(span, err)
		return fmt.Errorf("tokenstore: redis clear: %w", err)
	}
	return nil
}

func (r *Redis) get(ctx context.Context, spanName, key string) (string, error) {
	ctx, span := r.start(ctx, spanName)
	defer span.End()

	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		recordError(span, err)
		return "", fmt.Errorf("tokenstore: redis get: %w", err)
	}
	return val, nil
}

func (r *Redis) start(ctx context.Context, name string) (context.Context, trace.Span) {
	return r.cfg.Tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("db.system", "redis")),
	)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
