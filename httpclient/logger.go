package httpclient

import (
	"os"

	"github.com/rs/zerolog"
)

// Log tags emitted by the executor.
const (
	TagRequest         = "request"
	TagResponse        = "response"
	TagRefreshRequest  = "refresh.request"
	TagRefreshResponse = "refresh.response"
	TagRefreshFailed   = "refresh.failed"
)

// ZerologLogger is a Logger backed by zerolog.
//
// Map payloads are flattened into structured fields; any other payload is
// written under the "payload" key.
type ZerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger wraps an existing zerolog logger.
//
// Example:
//
//	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
//	executor := httpclient.New(
//	    httpclient.WithLogger(httpclient.NewZerologLogger(logger)),
//	)
func NewZerologLogger(logger zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{logger: logger}
}

// newDebugLogger writes debug output to stdout.
func newDebugLogger() *ZerologLogger {
	return NewZerologLogger(zerolog.New(os.Stdout).With().Timestamp().Logger())
}

// Log writes payload at debug level.
func (l *ZerologLogger) Log(tag string, payload any) {
	event := l.logger.Debug().Str("tag", tag)
	switch p := payload.(type) {
	case map[string]any:
		event = event.Fields(p)
	case nil:
	default:
		event = event.Interface("payload", p)
	}
	event.Msg(tag)
}

// Error writes err at error level.
func (l *ZerologLogger) Error(err error) {
	l.logger.Error().Err(err).Msg("httpclient error")
}

// nopLogger discards everything.
type nopLogger struct{}

func (nopLogger) Log(string, any) {}
func (nopLogger) Error(error)     {}

// safeLogger shields the executor from a misbehaving Logger.
type safeLogger struct {
	next Logger
}

func (s safeLogger) Log(tag string, payload any) {
	defer func() { _ = recover() }()
	s.next.Log(tag, payload)
}

func (s safeLogger) Error(err error) {
	defer func() { _ = recover() }()
	s.next.Error(err)
}
