package httpclient

import (
	"errors"
	"fmt"
)

// ErrInterceptor wraps the error returned by a failing interceptor.
var ErrInterceptor = errors.New("httpclient: interceptor failed")

// Interceptor is an observation hook run immediately before a request is
// dispatched.
//
// Interceptors take no arguments and cannot alter the request. They run
// synchronously in registration order, once per dispatch, so a request that
// is retried after a token refresh runs its interceptors twice. Returning an
// error aborts the Execute call; the error is returned wrapped in
// ErrInterceptor. A panicking interceptor is not recovered.
//
// Common use cases:
//   - Counting outgoing requests
//   - Marking a timeline for latency measurements
//   - Test assertions on dispatch order
type Interceptor func() error

// runInterceptors runs interceptors in order and stops at the first error.
func runInterceptors(interceptors []Interceptor) error {
	for i, interceptor := range interceptors {
		if interceptor == nil {
			continue
		}
		if err := interceptor(); err != nil {
			return fmt.Errorf("%w: interceptor %d: %w", ErrInterceptor, i, err)
		}
	}
	return nil
}

// ObserveFunc adapts a function without a return value into an Interceptor.
func ObserveFunc(fn func()) Interceptor {
	return func() error {
		fn()
		return nil
	}
}
