package httpclient

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
)

// errMalformedBody marks a response declared as JSON whose body is not JSON.
var errMalformedBody = errors.New("httpclient: malformed JSON body")

const (
	statusTextTransportFailure = "Internal Server Error"
	statusTextUnauthorized     = "Unauthorized"
)

// Response is the normalized outcome of one Execute call.
//
// A Response is built once per terminal outcome and never changes afterwards.
// IsSuccess and IsTokenExpired are derived from the status code at
// construction and are mutually exclusive.
//
// Example:
//
//	resp, err := httpclient.Execute[User](ctx, executor, httpclient.Get("/me"))
//	if err != nil {
//	    return err
//	}
//
//	resp.OnSuccess(func(r *httpclient.Response[User]) {
//	    fmt.Println("hello", r.Data().Name)
//	}).OnTokenExpired(func(*httpclient.Response[User]) {
//	    redirectToLogin()
//	}).OnFailure(func(r *httpclient.Response[User]) {
//	    log.Printf("request failed: %d %s", r.Status(), r.StatusText())
//	})
type Response[T any] struct {
	status       int
	statusText   string
	data         *T
	header       http.Header
	success      bool
	tokenExpired bool
}

// newResponse is the only constructor of Response.
func newResponse[T any](status int, statusText string, data *T, header http.Header) *Response[T] {
	return &Response[T]{
		status:       status,
		statusText:   statusText,
		data:         data,
		header:       header,
		success:      isSuccessStatus(status),
		tokenExpired: status == http.StatusUnauthorized,
	}
}

// transportFailure is the response for a request that received no usable
// response.
func transportFailure[T any]() *Response[T] {
	return newResponse[T](http.StatusInternalServerError, statusTextTransportFailure, nil, nil)
}

// unauthorized is the response for a 401 that could not be recovered.
func unauthorized[T any]() *Response[T] {
	return newResponse[T](http.StatusUnauthorized, statusTextUnauthorized, nil, nil)
}

func isSuccessStatus(status int) bool {
	switch status {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return true
	default:
		return false
	}
}

// Status returns the HTTP status code.
func (r *Response[T]) Status() int { return r.status }

// StatusText returns the status message reported by the server, or the fixed
// message of a normalized failure.
func (r *Response[T]) StatusText() string { return r.statusText }

// Data returns the decoded payload, or nil when the body was absent or not JSON.
func (r *Response[T]) Data() *T { return r.data }

// Header returns a copy of the response headers. It is nil for normalized
// failures that never reached a server.
func (r *Response[T]) Header() http.Header { return r.header.Clone() }

// IsSuccess reports whether the status is 200, 201 or 204.
func (r *Response[T]) IsSuccess() bool { return r.success }

// IsTokenExpired reports whether the status is 401.
func (r *Response[T]) IsTokenExpired() bool { return r.tokenExpired }

// OnSuccess calls fn once if the response is a success.
func (r *Response[T]) OnSuccess(fn func(*Response[T])) *Response[T] {
	if r.success && fn != nil {
		fn(r)
	}
	return r
}

// OnFailure calls fn once if the response is neither a success nor a
// token expiry.
func (r *Response[T]) OnFailure(fn func(*Response[T])) *Response[T] {
	if !r.success && !r.tokenExpired && fn != nil {
		fn(r)
	}
	return r
}

// OnTokenExpired calls fn once if the response is a 401.
func (r *Response[T]) OnTokenExpired(fn func(*Response[T])) *Response[T] {
	if r.tokenExpired && fn != nil {
		fn(r)
	}
	return r
}

// normalize turns a raw transport response into a Response.
//
// Bodies are decoded only when the declared content type is JSON. A body
// that is not JSON at all is reported as a transport failure wrapping
// errMalformedBody. Well-formed JSON that does not fit T keeps the received
// status and headers, leaves Data absent and returns the decode error.
func normalize[T any](raw *RawResponse) (*Response[T], error) {
	if len(raw.Body) == 0 || !isJSONContentType(raw.Header.Get("Content-Type")) {
		return newResponse[T](raw.StatusCode, raw.StatusText, nil, raw.Header), nil
	}

	if !json.Valid(raw.Body) {
		return transportFailure[T](), errMalformedBody
	}

	var data T
	if err := json.Unmarshal(raw.Body, &data); err != nil {
		return newResponse[T](raw.StatusCode, raw.StatusText, nil, raw.Header),
			fmt.Errorf("httpclient: decode %d response: %w", raw.StatusCode, err)
	}
	return newResponse(raw.StatusCode, raw.StatusText, &data, raw.Header), nil
}

// isJSONContentType accepts application/json and any +json suffix type.
func isJSONContentType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	}
	mediaType = strings.ToLower(mediaType)
	return mediaType == contentTypeJSON || strings.HasSuffix(mediaType, "+json")
}
