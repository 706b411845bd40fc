package httpclient

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunInterceptors(t *testing.T) {
	t.Parallel()

	errQuota := errors.New("quota exceeded")

	tests := []struct {
		name      string
		build     func(calls *[]string) []Interceptor
		wantCalls []string
		wantErr   error
	}{
		{
			name:      "given no interceptors, then no error",
			build:     func(*[]string) []Interceptor { return nil },
			wantCalls: nil,
		},
		{
			name: "given interceptors, then they run in order",
			build: func(calls *[]string) []Interceptor {
				return []Interceptor{
					ObserveFunc(func() { *calls = append(*calls, "a") }),
					ObserveFunc(func() { *calls = append(*calls, "b") }),
					ObserveFunc(func() { *calls = append(*calls, "c") }),
				}
			},
			wantCalls: []string{"a", "b", "c"},
		},
		{
			name: "given nil interceptor, then it is skipped",
			build: func(calls *[]string) []Interceptor {
				return []Interceptor{
					nil,
					ObserveFunc(func() { *calls = append(*calls, "a") }),
				}
			},
			wantCalls: []string{"a"},
		},
		{
			name: "given failing interceptor, then the chain stops",
			build: func(calls *[]string) []Interceptor {
				return []Interceptor{
					ObserveFunc(func() { *calls = append(*calls, "a") }),
					func() error { return errQuota },
					ObserveFunc(func() { *calls = append(*calls, "c") }),
				}
			},
			wantCalls: []string{"a"},
			wantErr:   errQuota,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []string

			err := runInterceptors(tt.build(&calls))

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInterceptor)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), "interceptor 1")
		})
	}
}

func TestRunInterceptors_Panic(t *testing.T) {
	t.Parallel()

	interceptors := []Interceptor{ObserveFunc(func() { panic("boom") })}

	assert.PanicsWithValue(t, "boom", func() {
		_ = runInterceptors(interceptors)
	})
}
