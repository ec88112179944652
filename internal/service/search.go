package service

import (
	"net/http"
	"net/url"
	"time"

	"design-proxy-go/internal/config"
	"design-proxy-go/internal/model"
)

// UnsplashService builds image-search requests. A non-empty query hits the
// search endpoint; an empty one lists popular photos. The access key is
// injected server-side as the client_id query parameter.
type UnsplashService struct {
	cfg     *config.Config
	timeout time.Duration
}

// NewUnsplashService creates an UnsplashService.
func NewUnsplashService(cfg *config.Config) *UnsplashService {
	return &UnsplashService{
		cfg:     cfg,
		timeout: time.Duration(cfg.Unsplash.TimeoutSeconds) * time.Second,
	}
}

// Build resolves the inbound query parameters into an outbound target.
func (s *UnsplashService) Build(params url.Values) *model.ProxyTarget {
	query := paramOr(params, "query", "")
	page := paramOr(params, "page", "1")
	perPage := paramOr(params, "per_page", "30")

	q := url.Values{}
	q.Set("page", page)
	q.Set("per_page", perPage)
	q.Set("client_id", s.cfg.Unsplash.AccessKey)

	var endpoint string
	if query != "" {
		endpoint = "/search/photos"
		q.Set("query", query)
	} else {
		endpoint = "/photos"
		q.Set("order_by", "popular")
	}

	return &model.ProxyTarget{
		Upstream: model.UpstreamUnsplash,
		Method:   http.MethodGet,
		URL:      s.cfg.Unsplash.BaseURL + endpoint + "?" + q.Encode(),
		Timeout:  s.timeout,
		Insecure: s.cfg.Unsplash.InsecureSkipVerify,
	}
}

// GiphyService builds GIF-search requests. A non-empty query hits the search
// endpoint; an empty one lists trending GIFs. The API key is injected
// server-side as the api_key query parameter.
type GiphyService struct {
	cfg     *config.Config
	timeout time.Duration
}

// NewGiphyService creates a GiphyService.
func NewGiphyService(cfg *config.Config) *GiphyService {
	return &GiphyService{
		cfg:     cfg,
		timeout: time.Duration(cfg.Giphy.TimeoutSeconds) * time.Second,
	}
}

// Build resolves the inbound query parameters into an outbound target.
func (s *GiphyService) Build(params url.Values) *model.ProxyTarget {
	query := paramOr(params, "query", "")
	offset := paramOr(params, "offset", "0")
	limit := paramOr(params, "limit", "30")

	q := url.Values{}
	q.Set("offset", offset)
	q.Set("limit", limit)
	q.Set("api_key", s.cfg.Giphy.APIKey)

	var endpoint string
	if query != "" {
		endpoint = "/v1/gifs/search"
		q.Set("q", query)
	} else {
		endpoint = "/v1/gifs/trending"
	}

	return &model.ProxyTarget{
		Upstream: model.UpstreamGiphy,
		Method:   http.MethodGet,
		URL:      s.cfg.Giphy.BaseURL + endpoint + "?" + q.Encode(),
		Timeout:  s.timeout,
	}
}

// paramOr returns the last value for key, or fallback when absent or empty.
func paramOr(params url.Values, key, fallback string) string {
	if vals := params[key]; len(vals) > 0 && vals[len(vals)-1] != "" {
		return vals[len(vals)-1]
	}
	return fallback
}
