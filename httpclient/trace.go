package httpclient

import (
	"context"
	"crypto/tls"
	"net/http/httptrace"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// networkTrace collects connection timings for one round trip.
type networkTrace struct {
	mu sync.Mutex

	dnsStart, dnsDone         time.Time
	connectStart, connectDone time.Time
	tlsStart, tlsDone         time.Time
	gotConn                   time.Time
	wroteRequest              time.Time
	firstByte                 time.Time

	dnsAddrs    []string
	connReused  bool
	connIdle    bool
	connRemote  string
	tlsProtocol string
}

// withNetworkTrace attaches a ClientTrace that fills nt to ctx.
func withNetworkTrace(ctx context.Context, nt *networkTrace) context.Context {
	return httptrace.WithClientTrace(ctx, &httptrace.ClientTrace{
		DNSStart: func(httptrace.DNSStartInfo) {
			nt.mark(&nt.dnsStart)
		},
		DNSDone: func(info httptrace.DNSDoneInfo) {
			nt.mu.Lock()
			defer nt.mu.Unlock()
			nt.dnsDone = time.Now()
			for _, addr := range info.Addrs {
				nt.dnsAddrs = append(nt.dnsAddrs, addr.String())
			}
		},
		ConnectStart: func(_, _ string) {
			nt.mark(&nt.connectStart)
		},
		ConnectDone: func(_, _ string, _ error) {
			nt.mark(&nt.connectDone)
		},
		TLSHandshakeStart: func() {
			nt.mark(&nt.tlsStart)
		},
		TLSHandshakeDone: func(state tls.ConnectionState, _ error) {
			nt.mu.Lock()
			defer nt.mu.Unlock()
			nt.tlsDone = time.Now()
			nt.tlsProtocol = state.NegotiatedProtocol
		},
		GotConn: func(info httptrace.GotConnInfo) {
			nt.mu.Lock()
			defer nt.mu.Unlock()
			nt.gotConn = time.Now()
			nt.connReused = info.Reused
			nt.connIdle = info.WasIdle
			if info.Conn != nil && info.Conn.RemoteAddr() != nil {
				nt.connRemote = info.Conn.RemoteAddr().String()
			}
		},
		WroteRequest: func(httptrace.WroteRequestInfo) {
			nt.mark(&nt.wroteRequest)
		},
		GotFirstResponseByte: func() {
			nt.mark(&nt.firstByte)
		},
	})
}

func (nt *networkTrace) mark(t *time.Time) {
	nt.mu.Lock()
	*t = time.Now()
	nt.mu.Unlock()
}

// addEvents records the collected timings as span events.
func (nt *networkTrace) addEvents(span trace.Span) {
	nt.mu.Lock()
	defer nt.mu.Unlock()

	if !nt.dnsStart.IsZero() && !nt.dnsDone.IsZero() {
		span.AddEvent("dns.done", trace.WithTimestamp(nt.dnsDone),
			trace.WithAttributes(
				attribute.Int64("dns.duration_ms", nt.dnsDone.Sub(nt.dnsStart).Milliseconds()),
				attribute.StringSlice("dns.addresses", nt.dnsAddrs),
			))
	}

	if !nt.connectStart.IsZero() && !nt.connectDone.IsZero() {
		span.AddEvent("connect.done", trace.WithTimestamp(nt.connectDone),
			trace.WithAttributes(
				attribute.Int64("connect.duration_ms", nt.connectDone.Sub(nt.connectStart).Milliseconds()),
			))
	}

	if !nt.tlsStart.IsZero() && !nt.tlsDone.IsZero() {
		span.AddEvent("tls.done", trace.WithTimestamp(nt.tlsDone),
			trace.WithAttributes(
				attribute.Int64("tls.duration_ms", nt.tlsDone.Sub(nt.tlsStart).Milliseconds()),
				attribute.String("tls.protocol", nt.tlsProtocol),
			))
	}

	if !nt.gotConn.IsZero() {
		span.AddEvent("got_conn", trace.WithTimestamp(nt.gotConn),
			trace.WithAttributes(
				attribute.Bool("connection.reused", nt.connReused),
				attribute.Bool("connection.was_idle", nt.connIdle),
				attribute.String("network.peer.address", nt.connRemote),
			))
	}

	if !nt.firstByte.IsZero() {
		var ttfb int64
		if !nt.wroteRequest.IsZero() {
			ttfb = nt.firstByte.Sub(nt.wroteRequest).Milliseconds()
		}
		span.AddEvent("got_first_response_byte", trace.WithTimestamp(nt.firstByte),
			trace.WithAttributes(attribute.Int64("ttfb_ms", ttfb)))
	}
}
