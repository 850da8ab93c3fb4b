package person

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Vansh-Dwivedi/5wh-sub000/internal/observability"
)

// Brand palette for generated avatar placeholders.
const (
	avatarBackground = "1a1a2e"
	avatarColor      = "d4af37"
	avatarSize       = "256"
)

// ErrNoResults is returned when the image search succeeds but finds nothing.
var ErrNoResults = errors.New("image search returned no results")

// PhotoSearcher finds a portrait URL for a search query. Implemented by
// ImageSearchClient; the interface exists so tests can simulate provider
// failure.
type PhotoSearcher interface {
	SearchPortrait(ctx context.Context, query string) (string, error)
}

// ImageSearchClient queries an Unsplash-style image search API
// (GET /search/photos?query=&per_page=1&orientation=portrait) with a
// client-key bearer header. It may be unconfigured (empty key), in which case
// every call fails and the caller degrades to a generated avatar.
type ImageSearchClient struct {
	baseURL   string
	accessKey string
	client    *http.Client
}

// NewImageSearchClient creates an ImageSearchClient. An empty accessKey is
// allowed; calls will fail fast and photo resolution falls back to avatars.
func NewImageSearchClient(baseURL, accessKey string, timeout time.Duration) *ImageSearchClient {
	return &ImageSearchClient{
		baseURL:   baseURL,
		accessKey: accessKey,
		client:    &http.Client{Timeout: timeout},
	}
}

type imageSearchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
			Small   string `json:"small"`
		} `json:"urls"`
	} `json:"results"`
}

// SearchPortrait returns the first portrait result's image URL for query.
func (c *ImageSearchClient) SearchPortrait(ctx context.Context, query string) (string, error) {
	if c.accessKey == "" {
		return "", errors.New("image search not configured")
	}
	start := time.Now()

	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid image API URL: %w", err)
	}
	base = base.JoinPath("search", "photos")
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", "1")
	params.Set("orientation", "portrait")
	base.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)

	resp, err := c.client.Do(req)
	if err != nil {
		observability.ProviderCallsTotal.WithLabelValues("image", "error").Inc()
		return "", fmt.Errorf("image request failed: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		observability.ProviderCallsTotal.WithLabelValues("image", "error").Inc()
		observability.ProviderCallDuration.WithLabelValues("image", "error").Observe(duration)
		return "", fmt.Errorf("image provider: HTTP %d", resp.StatusCode)
	}
	observability.ProviderCallsTotal.WithLabelValues("image", "success").Inc()
	observability.ProviderCallDuration.WithLabelValues("image", "success").Observe(duration)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}

	var sr imageSearchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(sr.Results) == 0 {
		return "", ErrNoResults
	}
	if sr.Results[0].URLs.Regular != "" {
		return sr.Results[0].URLs.Regular, nil
	}
	if sr.Results[0].URLs.Small != "" {
		return sr.Results[0].URLs.Small, nil
	}
	return "", ErrNoResults
}

// AvatarURL builds a generated-avatar placeholder URL from a person's name.
// Pure URL construction with the brand palette; no network dependency.
func AvatarURL(baseURL, name string) string {
	params := url.Values{}
	params.Set("name", name)
	params.Set("size", avatarSize)
	params.Set("background", avatarBackground)
	params.Set("color", avatarColor)
	params.Set("bold", "true")
	return baseURL + "?" + params.Encode()
}
