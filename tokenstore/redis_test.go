package tokenstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kroma-labs/sentinel-auth/tokenstore"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestNewRedis(t *testing.T) {
	t.Parallel()

	_, rdb := newRedis(t)

	tests := []struct {
		name    string
		client  redis.UniversalClient
		subject string
		wantErr error
	}{
		{
			name:    "given client and subject, then returns store",
			client:  rdb,
			subject: "user-42",
		},
		{
			name:    "given nil client, then returns ErrNilClient",
			client:  nil,
			subject: "user-42",
			wantErr: tokenstore.ErrNilClient,
		},
		{
			name:    "given empty subject, then returns ErrEmptySubject",
			client:  rdb,
			subject: "",
			wantErr: tokenstore.ErrEmptySubject,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := tokenstore.NewRedis(tt.client, tt.subject)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, store)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, store)
		})
	}
}

func TestRedis(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("given no keys, then tokens are absent", func(t *testing.T) {
		_, rdb := newRedis(t)
		store, err := tokenstore.NewRedis(rdb, "user-42")
		require.NoError(t, err)

		access, err := store.AccessToken(ctx)
		require.NoError(t, err)
		assert.Empty(t, access)

		creds, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, tokenstore.Credentials{}, creds)
	})

	t.Run("given SetTokens, then both keys are written under the prefix", func(t *testing.T) {
		mr, rdb := newRedis(t)
		store, err := tokenstore.NewRedis(rdb, "user-42", tokenstore.WithKeyPrefix("app"))
		require.NoError(t, err)

		require.NoError(t, store.SetTokens(ctx, "a2", "r2"))

		assert.True(t, mr.Exists("app:user-42:access"))
		got, err := mr.Get("app:user-42:refresh")
		require.NoError(t, err)
		assert.Equal(t, "r2", got)

		access, err := store.AccessToken(ctx)
		require.NoError(t, err)
		assert.Equal(t, "a2", access)

		refresh, err := store.RefreshToken(ctx)
		require.NoError(t, err)
		assert.Equal(t, "r2", refresh)
	})

	t.Run("given TTL, then keys expire", func(t *testing.T) {
		mr, rdb := newRedis(t)
		store, err := tokenstore.NewRedis(rdb, "user-42", tokenstore.WithTTL(time.Minute))
		require.NoError(t, err)

		require.NoError(t, store.SetTokens(ctx, "a", "r"))
		assert.Equal(t, time.Minute, mr.TTL(tokenstore.DefaultKeyPrefix+":user-42:access"))

		mr.FastForward(2 * time.Minute)

		creds, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, tokenstore.Credentials{}, creds)
	})

	t.Run("given Clear, then keys are deleted", func(t *testing.T) {
		mr, rdb := newRedis(t)
		store, err := tokenstore.NewRedis(rdb, "user-42")
		require.NoError(t, err)
		require.NoError(t, store.SetTokens(ctx, "a", "r"))

		require.NoError(t, store.Clear(ctx))

		assert.False(t, mr.Exists(tokenstore.DefaultKeyPrefix+":user-42:access"))
		assert.False(t, mr.Exists(tokenstore.DefaultKeyPrefix+":user-42:refresh"))
	})

	t.Run("given unreachable server, then returns error and records span", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
		defer rdb.Close()

		sr := tracetest.NewSpanRecorder()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

		store, err := tokenstore.NewRedis(rdb, "user-42", tokenstore.WithTracerProvider(tp))
		require.NoError(t, err)

		mr.Close()

		_, err = store.AccessToken(ctx)
		require.Error(t, err)

		err = store.SetTokens(ctx, "a", "r")
		require.Error(t, err)

		spans := sr.Ended()
		require.Len(t, spans, 2)
		assert.Equal(t, "tokenstore.redis.AccessToken", spans[0].Name())
		assert.NotEmpty(t, spans[0].Events())
	})
}
