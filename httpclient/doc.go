// Package httpclient executes REST calls with bearer authentication and
// transparent recovery from token expiry.
//
// # Features
//
//   - Immutable, reusable request specs with {name} path placeholders
//   - GET parameters as query strings, other methods as JSON bodies
//   - One refresh-and-retry cycle per call on 401, failing closed
//   - Normalized responses: transport faults never escape as errors
//   - OpenTelemetry tracing and metrics, zerolog diagnostics
//   - Optional circuit breaker and client-side rate limiting
//
// # Quick Start
//
//	executor := httpclient.New(
//	    httpclient.WithBaseURL("https://api.example.com"),
//	    httpclient.WithServiceName("orders-client"),
//	    httpclient.WithTokenStore(tokenstore.NewMemory(access, refresh)),
//	)
//
//	// GET https://api.example.com/users/42?active=true
//	resp, err := httpclient.Execute[User](ctx, executor,
//	    httpclient.Get("/users/{id}").
//	        WithParam("id", 42).
//	        WithParam("active", true),
//	)
//	if err != nil {
//	    return err // invalid spec or failing interceptor
//	}
//
//	resp.OnSuccess(func(r *httpclient.Response[User]) {
//	    fmt.Println(r.Data().Name)
//	}).OnTokenExpired(func(*httpclient.Response[User]) {
//	    // The refresh token was rejected too; the user must log in again.
//	})
//
// # Token Refresh
//
// When a request that is not tokenless receives 401, the executor reads the
// refresh token from its TokenStore and sends it to the refresh endpoint
// (POST /auth/refresh by default). On success both tokens are stored and the
// original request is sent once more; whatever that retry returns is the
// result. On failure nothing is stored and the result is 401 "Unauthorized".
// A call never refreshes twice.
//
// The refresh endpoint and the response fields are configurable:
//
//	executor := httpclient.New(
//	    httpclient.WithRefreshEndpoint(httpclient.Post("/oauth/token").
//	        WithParam("grant_type", "refresh_token")),
//	    httpclient.WithRefreshParam("refresh_token"),
//	    httpclient.WithRefreshFields("data.access_token", "data.refresh_token"),
//	)
//
// Servers that rotate refresh tokens and reject reuse should enable
// WithRefreshCoalescing, so that concurrent calls share one refresh.
//
// # Configuration
//
// Options can also come from a file or the environment via viper:
//
//	settings, err := httpclient.LoadSettings(v)
//	executor := httpclient.New(settings.Options()...)
//
// # Observability
//
// Metrics:
//   - authclient.requests (counter, by outcome)
//   - authclient.refresh.attempts (counter)
//   - authclient.refresh.failures (counter, by reason)
//   - authclient.retries (counter)
//   - http.client.request.duration (histogram)
//
// Traces:
//   - authclient.Execute span per call, with token.refresh and
//     request.retry events
//   - HTTP {method} client span per round trip, with W3C propagation and
//     DNS, connect, TLS and first-byte timing events
//
// Logs go to the Logger set with WithLogger. WithDebug(true) writes them to
// stdout with zerolog, together with a cURL command for each request.
//
// # Testing
//
// MockTransport scripts responses without a network:
//
//	mock := httpclient.NewMockTransport().
//	    StubPath("/me", http.StatusOK, `{"name":"Ada"}`)
//	executor := httpclient.New(httpclient.WithMockTransport(mock))
package httpclient
