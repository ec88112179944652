// Package service implements the per-route request validation and transform
// logic: each builder parses client input, injects server-held credentials
// and produces a resolved ProxyTarget for the upstream client.
package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"design-proxy-go/internal/config"
	"design-proxy-go/internal/model"
)

// describePrompt asks the model for search keywords only; the front-end
// feeds them straight into the image-search box.
const describePrompt = "Describe this image in 3-5 keywords, comma-separated. Output only the keywords, nothing else."

// dataURLPattern matches data:<mime-type>;base64,<payload>.
var dataURLPattern = regexp.MustCompile(`^data:([a-zA-Z0-9][a-zA-Z0-9.+-]*/[a-zA-Z0-9][a-zA-Z0-9.+-]*);base64,(.+)$`)

// Minimal Gemini generateContent request shapes for the describe route.
type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// GeminiService builds outbound requests for the content-generation,
// image-description and legacy passthrough routes.
type GeminiService struct {
	cfg           *config.Config
	allowedModels map[string]bool
	legacyBase    string // scheme://host of the base URL, no API version path
	timeout       time.Duration
	describeTO    time.Duration
}

// NewGeminiService creates a GeminiService.
func NewGeminiService(cfg *config.Config) (*GeminiService, error) {
	u, err := url.Parse(cfg.Gemini.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse gemini base_url: %w", err)
	}

	allowed := make(map[string]bool, len(cfg.Gemini.AllowedModels))
	for _, m := range cfg.Gemini.AllowedModels {
		allowed[m] = true
	}

	return &GeminiService{
		cfg:           cfg,
		allowedModels: allowed,
		legacyBase:    u.Scheme + "://" + u.Host,
		timeout:       time.Duration(cfg.Gemini.TimeoutSeconds) * time.Second,
		describeTO:    time.Duration(cfg.Gemini.DescribeTimeoutSeconds) * time.Second,
	}, nil
}

// Generate validates a generate-content request body and builds the outbound
// target. The optional "model" key is stripped from the body before
// forwarding; it must name a model in the allowlist.
func (s *GeminiService) Generate(body []byte) (*model.ProxyTarget, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		return nil, &RequestError{Status: http.StatusBadRequest, Message: "Invalid JSON body"}
	}

	if _, ok := payload["contents"]; !ok {
		return nil, &RequestError{Status: http.StatusBadRequest, Message: "Missing required fields"}
	}
	if _, ok := payload["generationConfig"]; !ok {
		return nil, &RequestError{Status: http.StatusBadRequest, Message: "Missing required fields"}
	}

	modelName := s.cfg.Gemini.GenerateModel
	if raw, ok := payload["model"]; ok {
		if err := json.Unmarshal(raw, &modelName); err != nil {
			return nil, &RequestError{Status: http.StatusBadRequest, Message: "Invalid JSON body"}
		}
		delete(payload, "model")
	}

	if !s.allowedModels[modelName] {
		return nil, &RequestError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("Model not allowed: %s", modelName),
		}
	}

	forward, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal forward body: %w", err)
	}

	return s.generateTarget(modelName, forward, s.timeout), nil
}

// Describe validates an image-description request and builds a keyword
// extraction call against the lightweight describe model.
func (s *GeminiService) Describe(body []byte) (*model.ProxyTarget, error) {
	var req struct {
		ImageData string `json:"imageData"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, &RequestError{Status: http.StatusBadRequest, Message: "Invalid JSON body"}
	}
	if req.ImageData == "" {
		return nil, &RequestError{Status: http.StatusBadRequest, Message: "Missing imageData"}
	}

	match := dataURLPattern.FindStringSubmatch(req.ImageData)
	if match == nil {
		return nil, &RequestError{Status: http.StatusBadRequest, Message: "Invalid image data URL"}
	}
	mimeType, data := match[1], match[2]

	forward, err := json.Marshal(generateContentRequest{
		Contents: []content{{
			Parts: []part{
				{Text: describePrompt},
				{InlineData: &inlineData{MimeType: mimeType, Data: data}},
			},
		}},
		GenerationConfig: generationConfig{
			Temperature:     0.2,
			MaxOutputTokens: 50,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal describe body: %w", err)
	}

	return s.generateTarget(s.cfg.Gemini.DescribeModel, forward, s.describeTO), nil
}

// Legacy builds a raw passthrough target: the path suffix after /api/gemini
// is appended to the upstream host as-is. No validation, no model allowlist.
// Kept only for backward compatibility with the pre-/api/generate front-end.
func (s *GeminiService) Legacy(suffix, rawQuery string, body []byte) *model.ProxyTarget {
	target := s.legacyBase + suffix
	if rawQuery != "" {
		target += "?" + rawQuery
	}

	return &model.ProxyTarget{
		Upstream: model.UpstreamGemini,
		Method:   http.MethodPost,
		URL:      target,
		Header:   jsonHeader(),
		Body:     body,
		Timeout:  s.timeout,
	}
}

func (s *GeminiService) generateTarget(modelName string, body []byte, timeout time.Duration) *model.ProxyTarget {
	q := url.Values{}
	q.Set("key", s.cfg.Gemini.APIKey)

	return &model.ProxyTarget{
		Upstream: model.UpstreamGemini,
		Method:   http.MethodPost,
		URL:      fmt.Sprintf("%s/models/%s:generateContent?%s", s.cfg.Gemini.BaseURL, modelName, q.Encode()),
		Header:   jsonHeader(),
		Body:     body,
		Timeout:  timeout,
	}
}

func jsonHeader() http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	return h
}
