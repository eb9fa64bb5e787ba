// Package transport builds the outbound HTTP transports used to reach the
// storefront API.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/http2"
)

// Fingerprint names accepted by New.
const (
	FingerprintDefault = ""
	FingerprintChrome  = "chrome"
)

// Options selects the outbound transport.
type Options struct {
	// Fingerprint picks the TLS client hello: "" uses Go's stack, "chrome"
	// presents a Chrome hello for storefronts behind JA3-filtering CDNs.
	Fingerprint string
	Timeout     time.Duration
	// Instrument wraps the transport with OpenTelemetry client spans.
	Instrument bool
}

// New returns the RoundTripper described by opts.
func New(opts Options) (http.RoundTripper, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	var rt http.RoundTripper
	switch opts.Fingerprint {
	case FingerprintDefault:
		base := http.DefaultTransport.(*http.Transport).Clone()
		base.TLSHandshakeTimeout = opts.Timeout
		rt = base
	case FingerprintChrome:
		rt = NewChromeTransport(opts.Timeout)
	default:
		return nil, fmt.Errorf("unsupported TLS fingerprint: %s", opts.Fingerprint)
	}

	if opts.Instrument {
		rt = otelhttp.NewTransport(rt)
	}
	return rt, nil
}

// NewChromeTransport creates an http.RoundTripper that presents Chrome's TLS
// fingerprint. ALPN picks h2 or http/1.1; h2 framing uses x/net/http2.
func NewChromeTransport(timeout time.Duration) http.RoundTripper {
	dialer := &net.Dialer{Timeout: timeout}

	return &chromeTransport{
		h2: &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialChromeTLS(ctx, dialer, network, addr)
			},
		},
		h1: &http.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialChromeTLS(ctx, dialer, network, addr)
			},
			ForceAttemptHTTP2: false,
		},
	}
}

type chromeTransport struct {
	h2 *http2.Transport
	h1 *http.Transport
}

// RoundTrip tries HTTP/2 and falls back to HTTP/1.1. Plain-http URLs go
// straight to the HTTP/1.1 transport.
func (t *chromeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return t.h1.RoundTrip(req)
	}
	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}
	if req.Body != nil && req.GetBody == nil {
		// body already consumed by the h2 attempt
		return nil, err
	}
	if req.GetBody != nil {
		body, berr := req.GetBody()
		if berr != nil {
			return nil, err
		}
		req = req.Clone(req.Context())
		req.Body = body
	}
	return t.h1.RoundTrip(req)
}

func dialChromeTLS(ctx context.Context, dialer *net.Dialer, network, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloChrome_Auto)
	if err := tlsConn.Handshake(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}
