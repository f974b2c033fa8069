package upstream

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/duynhne/user-admin/config"
)

// NewHTTPClient builds the client shared by every call to the users API.
// Idle connections are kept so the roster and detail calls reuse sockets.
// Each request gets a client span and carries the W3C trace headers.
func NewHTTPClient(cfg config.UpstreamConfig) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   cfg.Timeout,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(transport, otelhttp.WithSpanNameFormatter(spanName)),
	}
}

// spanName names client spans after the users API call, e.g. "upstream GET /users/1".
func spanName(_ string, r *http.Request) string {
	return "upstream " + r.Method + " " + r.URL.Path
}

// Connect creates the shared client and probes the users collection once.
// The client is returned even when the probe fails so callers can decide
// whether an unreachable upstream is fatal.
func Connect(ctx context.Context, cfg config.UpstreamConfig) (*http.Client, error) {
	client := NewHTTPClient(cfg)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.UsersURL(), nil)
	if err != nil {
		return client, fmt.Errorf("build probe request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return client, fmt.Errorf("probe users API: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return client, fmt.Errorf("probe users API: unexpected status %d", resp.StatusCode)
	}
	return client, nil
}
