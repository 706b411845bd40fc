package httpclient

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponse_Flags(t *testing.T) {
	tests := []struct {
		name             string
		status           int
		wantSuccess      bool
		wantTokenExpired bool
	}{
		{"given 200, then success", http.StatusOK, true, false},
		{"given 201, then success", http.StatusCreated, true, false},
		{"given 204, then success", http.StatusNoContent, true, false},
		{"given 202, then neither flag", http.StatusAccepted, false, false},
		{"given 299, then neither flag", 299, false, false},
		{"given 400, then neither flag", http.StatusBadRequest, false, false},
		{"given 401, then token expired", http.StatusUnauthorized, false, true},
		{"given 403, then neither flag", http.StatusForbidden, false, false},
		{"given 500, then neither flag", http.StatusInternalServerError, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := newResponse[struct{}](tt.status, http.StatusText(tt.status), nil, nil)

			assert.Equal(t, tt.wantSuccess, resp.IsSuccess())
			assert.Equal(t, tt.wantTokenExpired, resp.IsTokenExpired())
			assert.False(t, resp.IsSuccess() && resp.IsTokenExpired())
		})
	}
}

func TestResponse_Hooks(t *testing.T) {
	type calls struct {
		success, failure, expired int
	}

	tests := []struct {
		name   string
		status int
		want   calls
	}{
		{"given success, then only OnSuccess fires", http.StatusOK, calls{success: 1}},
		{"given server error, then only OnFailure fires", http.StatusBadGateway, calls{failure: 1}},
		{"given 401, then only OnTokenExpired fires", http.StatusUnauthorized, calls{expired: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got calls
			resp := newResponse[string](tt.status, "", nil, nil)

			returned := resp.
				OnSuccess(func(*Response[string]) { got.success++ }).
				OnFailure(func(*Response[string]) { got.failure++ }).
				OnTokenExpired(func(*Response[string]) { got.expired++ })

			assert.Same(t, resp, returned)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("given nil callbacks, then hooks do not panic", func(t *testing.T) {
		resp := newResponse[string](http.StatusOK, "", nil, nil)
		assert.NotPanics(t, func() {
			resp.OnSuccess(nil).OnFailure(nil).OnTokenExpired(nil)
		})
	})
}

func TestResponse_FixedFailures(t *testing.T) {
	t.Run("given transport failure, then 500 with fixed text and no data", func(t *testing.T) {
		resp := transportFailure[map[string]any]()

		assert.Equal(t, http.StatusInternalServerError, resp.Status())
		assert.Equal(t, "Internal Server Error", resp.StatusText())
		assert.Nil(t, resp.Data())
		assert.Nil(t, resp.Header())
	})

	t.Run("given unauthorized, then 401 with fixed text and no data", func(t *testing.T) {
		resp := unauthorized[map[string]any]()

		assert.Equal(t, http.StatusUnauthorized, resp.Status())
		assert.Equal(t, "Unauthorized", resp.StatusText())
		assert.Nil(t, resp.Data())
		assert.True(t, resp.IsTokenExpired())
	})
}

func TestNormalize(t *testing.T) {
	type user struct {
		Name string `json:"name"`
	}

	jsonHeader := http.Header{"Content-Type": []string{"application/json; charset=utf-8"}}

	tests := []struct {
		name       string
		raw        *RawResponse
		wantStatus int
		wantText   string
		wantData   *user
		wantErr    assert.ErrorAssertionFunc
	}{
		{
			name: "given JSON body, then decodes data",
			raw: &RawResponse{
				StatusCode: http.StatusOK, StatusText: "OK",
				Header: jsonHeader, Body: []byte(`{"name":"Ada"}`),
			},
			wantStatus: http.StatusOK,
			wantText:   "OK",
			wantData:   &user{Name: "Ada"},
			wantErr:    assert.NoError,
		},
		{
			name: "given problem+json body, then decodes data",
			raw: &RawResponse{
				StatusCode: http.StatusBadRequest, StatusText: "Bad Request",
				Header: http.Header{"Content-Type": []string{"application/problem+json"}},
				Body:   []byte(`{"name":"bad"}`),
			},
			wantStatus: http.StatusBadRequest,
			wantText:   "Bad Request",
			wantData:   &user{Name: "bad"},
			wantErr:    assert.NoError,
		},
		{
			name: "given non-JSON body, then data is absent and status kept",
			raw: &RawResponse{
				StatusCode: http.StatusOK, StatusText: "OK",
				Header: http.Header{"Content-Type": []string{"text/html"}},
				Body:   []byte(`<html></html>`),
			},
			wantStatus: http.StatusOK,
			wantText:   "OK",
			wantErr:    assert.NoError,
		},
		{
			name: "given empty JSON body, then data is absent",
			raw: &RawResponse{
				StatusCode: http.StatusNoContent, StatusText: "No Content",
				Header: jsonHeader,
			},
			wantStatus: http.StatusNoContent,
			wantText:   "No Content",
			wantErr:    assert.NoError,
		},
		{
			name: "given JSON that does not fit T, then status kept and data absent",
			raw: &RawResponse{
				StatusCode: http.StatusForbidden, StatusText: "Forbidden",
				Header: jsonHeader, Body: []byte(`[{"name":"Ada"}]`),
			},
			wantStatus: http.StatusForbidden,
			wantText:   "Forbidden",
			wantErr:    assert.Error,
		},
		{
			name: "given malformed JSON body, then transport failure",
			raw: &RawResponse{
				StatusCode: http.StatusOK, StatusText: "OK",
				Header: jsonHeader, Body: []byte(`{"name":`),
			},
			wantStatus: http.StatusInternalServerError,
			wantText:   "Internal Server Error",
			wantErr:    assert.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := normalize[user](tt.raw)
			tt.wantErr(t, err)
			require.NotNil(t, resp)

			assert.Equal(t, tt.wantStatus, resp.Status())
			assert.Equal(t, tt.wantText, resp.StatusText())
			assert.Equal(t, tt.wantData, resp.Data())
		})
	}
}

func TestNormalize_ErrorKinds(t *testing.T) {
	type user struct {
		Name string `json:"name"`
	}
	jsonHeader := http.Header{"Content-Type": []string{"application/json"}}

	t.Run("given malformed body, then errMalformedBody", func(t *testing.T) {
		_, err := normalize[user](&RawResponse{StatusCode: http.StatusOK, Header: jsonHeader, Body: []byte(`{"name":`)})
		assert.ErrorIs(t, err, errMalformedBody)
	})

	t.Run("given type mismatch, then decode error without errMalformedBody", func(t *testing.T) {
		resp, err := normalize[user](&RawResponse{
			StatusCode: http.StatusOK, StatusText: "OK",
			Header: jsonHeader, Body: []byte(`{"name":5}`),
		})
		require.Error(t, err)
		assert.NotErrorIs(t, err, errMalformedBody)
		assert.Equal(t, http.StatusOK, resp.Status())
		assert.True(t, resp.IsSuccess())
		assert.Nil(t, resp.Data())
		assert.Equal(t, "application/json", resp.Header().Get("Content-Type"))
	})
}

func TestIsJSONContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"application/json", true},
		{"Application/JSON; charset=utf-8", true},
		{"application/vnd.api+json", true},
		{"text/plain", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run("given "+tt.contentType+", then detection matches", func(t *testing.T) {
			assert.Equal(t, tt.want, isJSONContentType(tt.contentType))
		})
	}
}
