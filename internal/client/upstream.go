// Package client provides the outbound HTTP client shared by all upstreams.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"design-proxy-go/internal/config"
	"design-proxy-go/internal/metrics"
	"design-proxy-go/internal/model"
)

// UpstreamClient executes resolved ProxyTargets against their upstreams.
// Responses are fully buffered: every proxied route relays a complete body,
// and buffering keeps the per-call timeout covering the body read.
type UpstreamClient struct {
	httpClient *http.Client
	// insecureClient skips TLS verification. Non-nil only when the
	// unsplash.insecure_skip_verify development flag is set.
	insecureClient *http.Client
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

// New creates an UpstreamClient with connection pooling. Per-call timeouts
// come from each ProxyTarget, so the http.Client itself has none.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func New(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *UpstreamClient {
	c := &UpstreamClient{
		httpClient: &http.Client{Transport: newTransport(cfg, nil)},
		logger:     logger.With("component", "upstream_client"),
		metrics:    m,
	}

	if cfg.Unsplash.InsecureSkipVerify {
		c.insecureClient = &http.Client{
			Transport: newTransport(cfg, &tls.Config{InsecureSkipVerify: true}), //nolint:gosec // explicit dev-mode flag
		}
	}

	return c
}

func newTransport(cfg *config.Config, tlsCfg *tls.Config) *http.Transport {
	return &http.Transport{
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		TLSClientConfig:     tlsCfg,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
}

// Do executes the target request and returns the buffered upstream response.
// Upstream HTTP error statuses (4xx/5xx) are returned as responses, not
// errors; only transport-level failures produce an error. The provided
// context bounds the call together with the target's timeout, so a client
// disconnect cancels the upstream request.
func (c *UpstreamClient) Do(ctx context.Context, t *model.ProxyTarget) (*model.UpstreamResponse, error) {
	c.logger.Debug("upstream request",
		"upstream", t.Upstream,
		"method", t.Method,
	)

	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	var body io.Reader
	if len(t.Body) > 0 {
		body = bytes.NewReader(t.Body)
	}

	req, err := http.NewRequestWithContext(ctx, t.Method, t.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	for key, vals := range t.Header {
		req.Header[key] = vals
	}

	hc := c.httpClient
	if t.Insecure && c.insecureClient != nil {
		hc = c.insecureClient
	}

	start := time.Now()
	resp, err := hc.Do(req)
	duration := time.Since(start).Seconds()

	if err != nil {
		if c.metrics != nil {
			c.metrics.UpstreamDuration.WithLabelValues(t.Upstream).Observe(duration)
		}
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}

	if c.metrics != nil {
		status := strconv.Itoa(resp.StatusCode)
		c.metrics.UpstreamDuration.WithLabelValues(t.Upstream).Observe(duration)
		c.metrics.UpstreamResponses.WithLabelValues(t.Upstream, status).Inc()
	}

	return &model.UpstreamResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}
