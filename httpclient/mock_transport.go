package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"sync"
)

// Compile-time interface check.
var _ Transport = (*MockTransport)(nil)

// MockResponse is a scripted transport response.
type MockResponse struct {
	StatusCode int
	Body       string
	Header     http.Header
}

// JSONResponse returns a MockResponse with a JSON Content-Type.
func JSONResponse(statusCode int, body string) MockResponse {
	return MockResponse{
		StatusCode: statusCode,
		Body:       body,
		Header:     http.Header{"Content-Type": []string{contentTypeJSON}},
	}
}

// MockTransport is a scripted Transport for tests.
//
// Stubs are checked in registration order and the first match wins. Stubs
// created from a status and body declare a JSON Content-Type when the body is
// non-empty; use StubRaw for anything else.
//
// Example:
//
//	mock := httpclient.NewMockTransport().
//	    StubSequence("/orders",
//	        httpclient.JSONResponse(http.StatusUnauthorized, ""),
//	        httpclient.JSONResponse(http.StatusCreated, `{"id":"o-1"}`),
//	    ).
//	    StubPath("/auth/refresh", http.StatusOK, `{"accessToken":"a2","refreshToken":"r2"}`)
//
//	executor := httpclient.New(httpclient.WithMockTransport(mock))
type MockTransport struct {
	mu          sync.Mutex
	stubs       []*stub
	defaultResp *MockResponse
	defaultErr  error
	requests    []*OutboundRequest
	requestHook func(*OutboundRequest)
}

type stub struct {
	matcher   func(*OutboundRequest) bool
	responses []MockResponse
	next      int
	err       error
}

// respond returns the next scripted response; the last one repeats.
func (s *stub) respond() MockResponse {
	resp := s.responses[s.next]
	if s.next < len(s.responses)-1 {
		s.next++
	}
	return resp
}

// NewMockTransport creates a new MockTransport for testing.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// StubResponse stubs all unmatched requests to return the given response.
func (m *MockTransport) StubResponse(statusCode int, body string) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp := bodyResponse(statusCode, body)
	m.defaultResp = &resp
	return m
}

// StubError stubs all unmatched requests to fail with err.
func (m *MockTransport) StubError(err error) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultErr = err
	return m
}

// StubPath stubs requests matching the path to return the given response.
func (m *MockTransport) StubPath(path string, statusCode int, body string) *MockTransport {
	return m.StubFunc(pathMatcher(path), statusCode, body)
}

// StubPathError stubs requests matching the path to fail with err.
func (m *MockTransport) StubPathError(path string, err error) *MockTransport {
	return m.StubFuncError(pathMatcher(path), err)
}

// StubPathRegex stubs requests matching the path regex to return the given response.
func (m *MockTransport) StubPathRegex(pattern string, statusCode int, body string) *MockTransport {
	re := regexp.MustCompile(pattern)
	return m.StubFunc(func(req *OutboundRequest) bool {
		return re.MatchString(requestPath(req))
	}, statusCode, body)
}

// StubMethod stubs requests with the given method to return the given response.
func (m *MockTransport) StubMethod(method string, statusCode int, body string) *MockTransport {
	return m.StubFunc(func(req *OutboundRequest) bool {
		return req.Method == method
	}, statusCode, body)
}

// StubSequence stubs requests matching the path to return responses in
// order. Once exhausted, the last response repeats.
func (m *MockTransport) StubSequence(path string, responses ...MockResponse) *MockTransport {
	if len(responses) == 0 {
		return m
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs = append(m.stubs, &stub{
		matcher:   pathMatcher(path),
		responses: append([]MockResponse(nil), responses...),
	})
	return m
}

// StubFunc stubs requests matching the predicate to return the given response.
func (m *MockTransport) StubFunc(
	matcher func(*OutboundRequest) bool,
	statusCode int,
	body string,
) *MockTransport {
	return m.StubRaw(matcher, bodyResponse(statusCode, body))
}

// StubRaw stubs requests matching the predicate to return resp unchanged.
func (m *MockTransport) StubRaw(matcher func(*OutboundRequest) bool, resp MockResponse) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs = append(m.stubs, &stub{
		matcher:   matcher,
		responses: []MockResponse{resp},
	})
	return m
}

// StubFuncError stubs requests matching the predicate to fail with err.
func (m *MockTransport) StubFuncError(matcher func(*OutboundRequest) bool, err error) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs = append(m.stubs, &stub{
		matcher: matcher,
		err:     err,
	})
	return m
}

// OnRequest sets a hook that is called for each request.
// Useful for assertions or capturing request details.
func (m *MockTransport) OnRequest(fn func(*OutboundRequest)) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestHook = fn
	return m
}

// Send implements Transport.
func (m *MockTransport) Send(_ context.Context, req *OutboundRequest) (*RawResponse, error) {
	recorded := cloneRequest(req)

	m.mu.Lock()
	m.requests = append(m.requests, recorded)
	hook := m.requestHook
	m.mu.Unlock()

	if hook != nil {
		hook(recorded)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.stubs {
		if !s.matcher(req) {
			continue
		}
		if s.err != nil {
			return nil, s.err
		}
		return s.respond().raw(), nil
	}

	if m.defaultErr != nil {
		return nil, m.defaultErr
	}
	if m.defaultResp != nil {
		return m.defaultResp.raw(), nil
	}

	return nil, errors.New("no stub found for request: " + req.Method + " " + req.URL)
}

// Requests returns all requests made through this transport.
func (m *MockTransport) Requests() []*OutboundRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*OutboundRequest{}, m.requests...)
}

// RequestCount returns the number of requests made.
func (m *MockTransport) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// CountPath returns the number of requests made to path.
func (m *MockTransport) CountPath(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, req := range m.requests {
		if requestPath(req) == path {
			n++
		}
	}
	return n
}

// LastRequest returns the most recent request, or nil if none.
func (m *MockTransport) LastRequest() *OutboundRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

// Reset clears all recorded requests and stubs.
func (m *MockTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.stubs = nil
	m.defaultResp = nil
	m.defaultErr = nil
	m.requestHook = nil
}

// WithMockTransport sends every request through mock.
func WithMockTransport(mock *MockTransport) Option {
	return WithTransport(mock)
}

func bodyResponse(statusCode int, body string) MockResponse {
	if body == "" {
		return MockResponse{StatusCode: statusCode}
	}
	return JSONResponse(statusCode, body)
}

func (r MockResponse) raw() *RawResponse {
	var body []byte
	if r.Body != "" {
		body = []byte(r.Body)
	}
	return &RawResponse{
		StatusCode: r.StatusCode,
		StatusText: http.StatusText(r.StatusCode),
		Header:     r.Header.Clone(),
		Body:       body,
	}
}

func pathMatcher(path string) func(*OutboundRequest) bool {
	return func(req *OutboundRequest) bool {
		return requestPath(req) == path
	}
}

// requestPath returns the path component of the request URL.
func requestPath(req *OutboundRequest) string {
	u, err := url.Parse(req.URL)
	if err != nil {
		return req.URL
	}
	return u.Path
}

func cloneRequest(req *OutboundRequest) *OutboundRequest {
	clone := *req
	clone.Header = req.Header.Clone()
	if req.Body != nil {
		clone.Body = append([]byte(nil), req.Body...)
	}
	return &clone
}
