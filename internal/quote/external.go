package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Vansh-Dwivedi/5wh-sub000/internal/models"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/observability"
)

// QuotableClient fetches random quotes from a quotable-style provider
// (GET /random?minLength=&maxLength=). It is the network fallback stage only.
type QuotableClient struct {
	baseURL   string
	minLength int
	maxLength int
	client    *http.Client
}

// NewQuotableClient creates a QuotableClient. minLength/maxLength bound the
// returned quote text so dashboard cards stay readable.
func NewQuotableClient(baseURL string, timeout time.Duration, minLength, maxLength int) *QuotableClient {
	if minLength <= 0 {
		minLength = 60
	}
	if maxLength <= 0 {
		maxLength = 200
	}
	return &QuotableClient{
		baseURL:   baseURL,
		minLength: minLength,
		maxLength: maxLength,
		client:    &http.Client{Timeout: timeout},
	}
}

type quotableResponse struct {
	ID      string   `json:"_id"`
	Content string   `json:"content"`
	Author  string   `json:"author"`
	Tags    []string `json:"tags"`
}

// FetchRandomQuote calls the provider and maps the response to a Quote.
func (c *QuotableClient) FetchRandomQuote(ctx context.Context) (models.Quote, error) {
	start := time.Now()

	base, err := url.Parse(c.baseURL)
	if err != nil {
		return models.Quote{}, fmt.Errorf("invalid quote API URL: %w", err)
	}
	base = base.JoinPath("random")
	params := url.Values{}
	params.Set("minLength", strconv.Itoa(c.minLength))
	params.Set("maxLength", strconv.Itoa(c.maxLength))
	base.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return models.Quote{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		observability.ProviderCallsTotal.WithLabelValues("quote", "error").Inc()
		return models.Quote{}, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		observability.ProviderCallsTotal.WithLabelValues("quote", "error").Inc()
		observability.ProviderCallDuration.WithLabelValues("quote", "error").Observe(duration)
		return models.Quote{}, fmt.Errorf("quote provider: HTTP %d", resp.StatusCode)
	}
	observability.ProviderCallsTotal.WithLabelValues("quote", "success").Inc()
	observability.ProviderCallDuration.WithLabelValues("quote", "success").Observe(duration)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Quote{}, fmt.Errorf("read response body: %w", err)
	}

	var qr quotableResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return models.Quote{}, fmt.Errorf("parse response: %w", err)
	}
	if qr.Content == "" {
		return models.Quote{}, fmt.Errorf("quote provider returned empty content")
	}

	category := "External"
	if len(qr.Tags) > 0 {
		category = qr.Tags[0]
	}
	id := qr.ID
	if id == "" {
		id = "external"
	}
	return models.Quote{
		ID:       "ext-" + id,
		Text:     qr.Content,
		Author:   qr.Author,
		Category: category,
	}, nil
}
