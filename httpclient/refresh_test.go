package httpclient

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kroma-labs/sentinel-auth/httpclient/mocks"
)

// expiringAPI answers 401 to the first token until every caller has been
// rejected, then serves requests made with the refreshed token.
type expiringAPI struct {
	rejected     sync.WaitGroup
	refreshCalls atomic.Int64
}

func newExpiringAPI(callers int) *expiringAPI {
	api := &expiringAPI{}
	api.rejected.Add(callers)
	return api
}

func (a *expiringAPI) Send(_ context.Context, req *OutboundRequest) (*RawResponse, error) {
	if requestPath(req) == DefaultRefreshURL {
		a.refreshCalls.Add(1)
		// Keep the exchange in flight long enough for every caller to join.
		time.Sleep(100 * time.Millisecond)
		return JSONResponse(http.StatusOK, refreshResponse).raw(), nil
	}

	if req.Header.Get("Authorization") == "Bearer a2" {
		return JSONResponse(http.StatusOK, `{}`).raw(), nil
	}

	a.rejected.Done()
	a.rejected.Wait()
	return JSONResponse(http.StatusUnauthorized, "").raw(), nil
}

func TestExecute_ConcurrentRefresh(t *testing.T) {
	const callers = 5

	tests := []struct {
		name        string
		opts        []Option
		wantRefresh int64
	}{
		{
			name:        "given coalescing, then concurrent expiries share one refresh",
			opts:        []Option{WithRefreshCoalescing()},
			wantRefresh: 1,
		},
		{
			name:        "given no coalescing, then every expiry refreshes on its own",
			wantRefresh: callers,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newExpiringAPI(callers)
			store := newTestStore("a1", "r1")
			executor := New(append([]Option{
				WithBaseURL(testBaseURL),
				WithTransport(api),
				WithTokenStore(store),
			}, tt.opts...)...)

			var wg sync.WaitGroup
			statuses := make([]int, callers)
			for i := range callers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					resp, err := Execute[map[string]any](context.Background(), executor, Get("/me"))
					if assert.NoError(t, err) {
						statuses[i] = resp.Status()
					}
				}()
			}
			wg.Wait()

			for _, status := range statuses {
				assert.Equal(t, http.StatusOK, status)
			}
			assert.Equal(t, tt.wantRefresh, api.refreshCalls.Load())

			access, refresh, _ := store.tokens()
			assert.Equal(t, "a2", access)
			assert.Equal(t, "r2", refresh)
		})
	}
}

func TestExecute_LateCoalescedRefresh(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		storedLater  string
		accessLater  string
		wantRefresh  int
		wantRetryTok string
	}{
		{
			name:         "given refresh token rotated after the 401, then retries with stored tokens",
			storedLater:  "r2",
			accessLater:  "a2",
			wantRefresh:  0,
			wantRetryTok: "Bearer a2",
		},
		{
			name:         "given refresh token unchanged, then exchanges it",
			storedLater:  "r1",
			wantRefresh:  1,
			wantRetryTok: "Bearer a2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			transport := NewMockTransport().
				StubFunc(func(req *OutboundRequest) bool {
					return req.Header.Get("Authorization") == "Bearer a2"
				}, http.StatusOK, `{}`).
				StubPath("/me", http.StatusUnauthorized, "").
				StubPath(DefaultRefreshURL, http.StatusOK, refreshResponse)

			store := mocks.NewTokenStore(t)
			store.EXPECT().AccessToken(mock.Anything).Return("a1", nil).Once()
			store.EXPECT().RefreshToken(mock.Anything).Return("r1", nil).Once()
			store.EXPECT().RefreshToken(mock.Anything).Return(tt.storedLater, nil).Once()
			if tt.accessLater != "" {
				store.EXPECT().AccessToken(mock.Anything).Return(tt.accessLater, nil).Once()
			}
			if tt.wantRefresh > 0 {
				store.EXPECT().SetTokens(mock.Anything, "a2", "r2").Return(nil).Once()
			}

			executor := newTestExecutor(transport, store, WithRefreshCoalescing())

			resp, err := Execute[map[string]any](context.Background(), executor, Get("/me"))
			require.NoError(t, err)

			assert.Equal(t, http.StatusOK, resp.Status())
			assert.Equal(t, tt.wantRefresh, transport.CountPath(DefaultRefreshURL))
			assert.Equal(t, tt.wantRetryTok, transport.LastRequest().Header.Get("Authorization"))
		})
	}
}

func TestLookupString(t *testing.T) {
	obj := map[string]any{
		"accessToken": "flat",
		"count":       3.0,
		"data": map[string]any{
			"token": map[string]any{"access": "nested"},
			"list":  []any{"x"},
		},
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "given top-level key, then returns value", path: "accessToken", want: "flat"},
		{name: "given dotted path, then walks nested objects", path: "data.token.access", want: "nested"},
		{name: "given missing key, then empty", path: "refreshToken", want: ""},
		{name: "given missing nested key, then empty", path: "data.token.refresh", want: ""},
		{name: "given non-string leaf, then empty", path: "count", want: ""},
		{name: "given path through non-object, then empty", path: "data.list.0", want: ""},
		{name: "given object leaf, then empty", path: "data.token", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lookupString(obj, tt.path))
		})
	}

	t.Run("given nil object, then empty", func(t *testing.T) {
		assert.Empty(t, lookupString(nil, "accessToken"))
	})
}

func TestWithoutQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "https://api.example.com/auth/refresh?refreshToken=secret", want: "https://api.example.com/auth/refresh"},
		{in: "/auth/refresh", want: "/auth/refresh"},
		{in: "/auth/refresh?", want: "/auth/refresh"},
	}

	for _, tt := range tests {
		t.Run("given "+tt.in+", then query is stripped", func(t *testing.T) {
			assert.Equal(t, tt.want, withoutQuery(tt.in))
		})
	}
}

func TestRefresh_RequestShape(t *testing.T) {
	tests := []struct {
		name     string
		endpoint RequestSpec
		wantURL  string
		wantBody string
	}{
		{
			name:     "given default endpoint, then posts the refresh token as JSON",
			endpoint: Post(DefaultRefreshURL),
			wantURL:  testBaseURL + DefaultRefreshURL,
			wantBody: `{"refreshToken":"r1"}`,
		},
		{
			name:     "given GET endpoint, then sends the refresh token as query",
			endpoint: Get("/token"),
			wantURL:  testBaseURL + "/token?refreshToken=r1",
		},
		{
			name:     "given endpoint with fixed params, then keeps them",
			endpoint: Put("/tenants/{tenant}/token").WithParam("tenant", "acme").WithParam("client", "cli"),
			wantURL:  testBaseURL + "/tenants/acme/token",
			wantBody: `{"client":"cli","refreshToken":"r1"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockTransport().
				StubPath("/me", http.StatusUnauthorized, "").
				StubResponse(http.StatusServiceUnavailable, "")
			executor := newTestExecutor(mock, newTestStore("a1", "r1"),
				WithRefreshEndpoint(tt.endpoint))

			_, err := Execute[map[string]any](context.Background(), executor, Get("/me"))
			require.NoError(t, err)

			requests := mock.Requests()
			require.Len(t, requests, 2)

			refresh := requests[1]
			assert.Equal(t, tt.endpoint.Method(), refresh.Method)
			assert.Equal(t, tt.wantURL, refresh.URL)
			assert.Empty(t, refresh.Header.Get("Authorization"))
			if tt.wantBody == "" {
				assert.Nil(t, refresh.Body)
			} else {
				assert.JSONEq(t, tt.wantBody, string(refresh.Body))
			}
		})
	}
}
