package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
)

var (
	// ErrEmptyURL is returned when a RequestSpec has no URL template.
	ErrEmptyURL = errors.New("httpclient: request URL is empty")

	// ErrUnsupportedMethod is returned for methods other than
	// GET, POST, PUT, PATCH and DELETE.
	ErrUnsupportedMethod = errors.New("httpclient: unsupported request method")
)

// Param is a single named request parameter.
//
// Values are rendered with fmt.Sprint for path substitution and query
// strings, and encoded as JSON for request bodies. A nil Value is absent.
type Param struct {
	Key   string
	Value any
}

// RequestSpec describes one logical call before transport details are
// resolved.
//
// RequestSpec is an immutable value. Every With* method returns a new spec and
// leaves the receiver untouched, so a spec can be shared between goroutines and
// reused as a template:
//
//	getUser := httpclient.NewRequest(http.MethodGet, "/users/{id}")
//
//	resp, err := httpclient.Execute[User](ctx, executor,
//	    getUser.WithParam("id", 42).WithParam("active", true),
//	)
type RequestSpec struct {
	method       string
	url          string
	params       []Param
	headers      http.Header
	tokenless    bool
	interceptors []Interceptor
}

// NewRequest creates a spec for the given method and URL template.
//
// The URL may contain {name} placeholders which are filled from parameters
// of the same name.
func NewRequest(method, urlTemplate string) RequestSpec {
	return RequestSpec{method: method, url: urlTemplate}
}

// Get is shorthand for NewRequest(http.MethodGet, urlTemplate).
func Get(urlTemplate string) RequestSpec { return NewRequest(http.MethodGet, urlTemplate) }

// Post is shorthand for NewRequest(http.MethodPost, urlTemplate).
func Post(urlTemplate string) RequestSpec { return NewRequest(http.MethodPost, urlTemplate) }

// Put is shorthand for NewRequest(http.MethodPut, urlTemplate).
func Put(urlTemplate string) RequestSpec { return NewRequest(http.MethodPut, urlTemplate) }

// Patch is shorthand for NewRequest(http.MethodPatch, urlTemplate).
func Patch(urlTemplate string) RequestSpec { return NewRequest(http.MethodPatch, urlTemplate) }

// Delete is shorthand for NewRequest(http.MethodDelete, urlTemplate).
func Delete(urlTemplate string) RequestSpec { return NewRequest(http.MethodDelete, urlTemplate) }

// WithParam returns a copy of the spec with the parameter set.
//
// Setting an existing key replaces its value and keeps its original position.
func (s RequestSpec) WithParam(key string, value any) RequestSpec {
	params := make([]Param, len(s.params), len(s.params)+1)
	copy(params, s.params)

	for i := range params {
		if params[i].Key == key {
			params[i].Value = value
			s.params = params
			return s
		}
	}

	s.params = append(params, Param{Key: key, Value: value})
	return s
}

// WithParams returns a copy of the spec with all entries of m set.
//
// Map keys are applied in sorted order so that substitution order is
// deterministic.
func (s RequestSpec) WithParams(m map[string]any) RequestSpec {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		s = s.WithParam(k, m[k])
	}
	return s
}

// WithHeader returns a copy of the spec with the header set.
//
// Caller headers win over the default Content-Type.
func (s RequestSpec) WithHeader(key, value string) RequestSpec {
	h := s.headers.Clone()
	if h == nil {
		h = make(http.Header)
	}
	h.Set(key, value)
	s.headers = h
	return s
}

// WithHeaders returns a copy of the spec with all headers in m set.
func (s RequestSpec) WithHeaders(m map[string]string) RequestSpec {
	h := s.headers.Clone()
	if h == nil {
		h = make(http.Header, len(m))
	}
	for k, v := range m {
		h.Set(k, v)
	}
	s.headers = h
	return s
}

// Tokenless returns a copy of the spec that is sent without an Authorization
// header and never triggers a token refresh.
func (s RequestSpec) Tokenless() RequestSpec {
	s.tokenless = true
	return s
}

// WithInterceptors returns a copy of the spec with the interceptors appended.
//
// Interceptors run in registration order immediately before each dispatch.
func (s RequestSpec) WithInterceptors(interceptors ...Interceptor) RequestSpec {
	merged := make([]Interceptor, 0, len(s.interceptors)+len(interceptors))
	merged = append(merged, s.interceptors...)
	merged = append(merged, interceptors...)
	s.interceptors = merged
	return s
}

// Method returns the HTTP method.
func (s RequestSpec) Method() string { return s.method }

// URL returns the URL template.
func (s RequestSpec) URL() string { return s.url }

// IsTokenless reports whether the spec skips authentication.
func (s RequestSpec) IsTokenless() bool { return s.tokenless }

// Params returns a copy of the parameters in order.
func (s RequestSpec) Params() []Param {
	return append([]Param(nil), s.params...)
}

// Headers returns a copy of the extra headers.
func (s RequestSpec) Headers() http.Header {
	return s.headers.Clone()
}

// validate checks the preconditions of Execute.
func (s RequestSpec) validate() error {
	if s.url == "" {
		return ErrEmptyURL
	}
	switch s.method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedMethod, s.method)
	}
}
