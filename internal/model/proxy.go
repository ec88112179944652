// Package model defines shared types for the proxy.
package model

import (
	"net/http"
	"time"
)

// Upstream names used as bounded log/metric labels.
const (
	UpstreamGemini   = "gemini"
	UpstreamUnsplash = "unsplash"
	UpstreamGiphy    = "giphy"
)

// ProxyTarget is a fully resolved outbound request: the per-route validators
// build one of these, the upstream client executes it.
type ProxyTarget struct {
	Upstream string // bounded label: gemini | unsplash | giphy
	Method   string
	URL      string
	Header   http.Header
	Body     []byte
	Timeout  time.Duration

	// Insecure disables TLS certificate verification for this call.
	// Only ever set for the image-search upstream, and only when the
	// development-mode config flag is on.
	Insecure bool
}

// UpstreamResponse is a fully buffered upstream response to be relayed back
// to the client.
type UpstreamResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ContentType returns the upstream Content-Type, defaulting to JSON when the
// upstream did not send one.
func (r *UpstreamResponse) ContentType() string {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/json"
}
