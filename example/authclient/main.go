// Command authclient runs the executor against a local fake API: a valid
// token, an expired token that is refreshed transparently, and a rejected
// refresh.
package main

import (
	"context"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/kroma-labs/sentinel-auth/httpclient"
	"github.com/kroma-labs/sentinel-auth/internal/authtest"
	"github.com/kroma-labs/sentinel-auth/tokenstore"
)

type user struct {
	ID     string `json:"id"`
	Active string `json:"active"`
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	api := authtest.NewServer("access-0", "refresh-0")
	defer api.Close()

	dispatched := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "authclient_example_dispatches_total",
		Help: "Requests dispatched by the example executor.",
	})
	registry := prometheus.NewRegistry()
	registry.MustRegister(dispatched)

	store := tokenstore.NewMemory("access-0", "refresh-0")
	executor := httpclient.New(
		httpclient.WithBaseURL(api.URL),
		httpclient.WithServiceName("authclient-example"),
		httpclient.WithTokenStore(store),
		httpclient.WithLogger(httpclient.NewZerologLogger(log.Level(zerolog.DebugLevel))),
		httpclient.WithBreakerConfig(httpclient.DefaultBreakerConfig()),
	)

	getUser := httpclient.Get("/users/{id}").
		WithParam("id", 42).
		WithParam("active", true).
		WithInterceptors(httpclient.PrometheusInterceptor(dispatched))

	run := func(step string) {
		resp, err := httpclient.Execute[user](ctx, executor, getUser)
		if err != nil {
			log.Fatal().Err(err).Str("step", step).Msg("execute failed")
		}

		resp.
			OnSuccess(func(r *httpclient.Response[user]) {
				log.Info().Str("step", step).Str("id", r.Data().ID).Msg("user fetched")
			}).
			OnTokenExpired(func(*httpclient.Response[user]) {
				log.Warn().Str("step", step).Msg("session expired, sign in again")
			}).
			OnFailure(func(r *httpclient.Response[user]) {
				log.Error().Str("step", step).Int("status", r.Status()).Msg("request failed")
			})
	}

	run("valid token")

	api.Expire()
	run("expired token")

	creds, err := store.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load tokens")
	}
	log.Info().Str("access", creds.AccessToken).Msg("tokens rotated")

	api.Expire()
	api.FailRefresh(true)
	run("rejected refresh")

	families, err := registry.Gather()
	if err != nil {
		log.Fatal().Err(err).Msg("gather metrics")
	}
	var dispatches float64
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			dispatches += metric.GetCounter().GetValue()
		}
	}

	log.Info().
		Int("refresh_calls", api.RefreshCalls()).
		Float64("dispatches", dispatches).
		Msg("done")
}
