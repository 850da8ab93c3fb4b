// Package weather fetches and caches current conditions for the dashboard's
// city panel. The provider client carries retries with jittered backoff and a
// circuit breaker; per-city results are cached with a 30 minute TTL.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/Vansh-Dwivedi/5wh-sub000/internal/models"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/observability"
)

// Client fetches current conditions for a city name or "lat,lon" query.
type Client interface {
	CurrentConditions(ctx context.Context, query string) (models.WeatherReading, error)
}

var (
	ErrInvalidAPIKey    = errors.New("invalid API key")
	ErrLocationNotFound = errors.New("location not found")
	ErrUpstreamFailure  = errors.New("upstream failure")
	ErrRateLimited      = errors.New("rate limited")
)

// Unconfigured is the Client used when no provider key is set. Every call
// fails with ErrInvalidAPIKey, so dashboards render with an empty weather
// panel instead of the process refusing to start.
type Unconfigured struct{}

func (Unconfigured) CurrentConditions(context.Context, string) (models.WeatherReading, error) {
	return models.WeatherReading{}, fmt.Errorf("%w: no API key configured", ErrInvalidAPIKey)
}

// APIClient talks to a weatherapi.com-style current-conditions endpoint
// (GET current.json?key=&q=&aqi=no).
type APIClient struct {
	apiKey         string
	apiURL         string
	timeout        time.Duration
	client         *http.Client
	retryAttempts  int
	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration
	breaker        *gobreaker.CircuitBreaker
}

// NewAPIClient creates an APIClient with default retry settings.
func NewAPIClient(apiKey, apiURL string, timeout time.Duration) (*APIClient, error) {
	return NewAPIClientWithRetry(apiKey, apiURL, timeout, 3, 100*time.Millisecond, 2*time.Second)
}

// NewAPIClientWithRetry creates an APIClient with explicit retry behavior.
// The circuit breaker opens after repeated upstream failures so a dead
// provider degrades the dashboard quickly instead of waiting out retries per
// city.
func NewAPIClientWithRetry(apiKey, apiURL string, timeout time.Duration, retryAttempts int, retryBaseDelay, retryMaxDelay time.Duration) (*APIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "weather",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &APIClient{
		apiKey:         apiKey,
		apiURL:         apiURL,
		timeout:        timeout,
		retryAttempts:  retryAttempts,
		retryBaseDelay: retryBaseDelay,
		retryMaxDelay:  retryMaxDelay,
		breaker:        breaker,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type apiResponse struct {
	Location struct {
		Name    string `json:"name"`
		Region  string `json:"region"`
		Country string `json:"country"`
	} `json:"location"`
	Current struct {
		TempC     float64 `json:"temp_c"`
		Condition struct {
			Text string `json:"text"`
			Icon string `json:"icon"`
		} `json:"condition"`
		Humidity    int     `json:"humidity"`
		WindKph     float64 `json:"wind_kph"`
		WindDir     string  `json:"wind_dir"`
		FeelslikeC  float64 `json:"feelslike_c"`
		VisKm       float64 `json:"vis_km"`
		UV          float64 `json:"uv"`
		LastUpdated string  `json:"last_updated"`
	} `json:"current"`
}

// CurrentConditions fetches and normalizes conditions for query, retrying
// retryable failures with exponential backoff and jitter.
func (c *APIClient) CurrentConditions(ctx context.Context, query string) (models.WeatherReading, error) {
	var lastErr error

	for attempt := 0; attempt < c.retryAttempts; attempt++ {
		if attempt > 0 {
			observability.WeatherAPIRetriesTotal.Inc()
			delay := c.calculateBackoff(attempt)
			select {
			case <-ctx.Done():
				return models.WeatherReading{}, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := c.callAPI(ctx, query)
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !c.isRetryable(err) {
			return models.WeatherReading{}, err
		}
	}

	return models.WeatherReading{}, fmt.Errorf("exhausted retries: %w", lastErr)
}

func (c *APIClient) callAPI(ctx context.Context, query string) (models.WeatherReading, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(reqCtx, query)
	if err != nil {
		observability.ProviderCallsTotal.WithLabelValues("weather", "error").Inc()
		return models.WeatherReading{}, fmt.Errorf("build request: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if err := c.handleErrorResponse(resp); err != nil {
			return nil, err
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}
		return body, nil
	})

	duration := time.Since(start).Seconds()
	if err != nil {
		observability.ProviderCallsTotal.WithLabelValues("weather", "error").Inc()
		observability.ProviderCallDuration.WithLabelValues("weather", "error").Observe(duration)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return models.WeatherReading{}, fmt.Errorf("request timeout: %w", err)
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return models.WeatherReading{}, fmt.Errorf("%w: circuit open: %w", ErrUpstreamFailure, err)
		}
		return models.WeatherReading{}, err
	}
	observability.ProviderCallsTotal.WithLabelValues("weather", "success").Inc()
	observability.ProviderCallDuration.WithLabelValues("weather", "success").Observe(duration)

	var apiResp apiResponse
	if err := json.Unmarshal(result.([]byte), &apiResp); err != nil {
		return models.WeatherReading{}, fmt.Errorf("parse response: %w", err)
	}

	return c.mapResponse(apiResp, query), nil
}

func (c *APIClient) isRetryable(err error) bool {
	if err == nil {
		return false
	}
	// A tripped breaker fails fast; retrying would just hammer it.
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUpstreamFailure) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "context deadline exceeded") ||
		strings.Contains(errStr, "connection refused")
}

func (c *APIClient) calculateBackoff(attempt int) time.Duration {
	delay := float64(c.retryBaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(c.retryMaxDelay) {
		delay = float64(c.retryMaxDelay)
	}
	jitter := delay * 0.1 * rand.Float64()
	return time.Duration(delay + jitter)
}

func (c *APIClient) buildRequest(ctx context.Context, query string) (*http.Request, error) {
	baseURL, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", query)
	params.Set("aqi", "no")
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *APIClient) handleErrorResponse(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w", ErrInvalidAPIKey)
	case http.StatusBadRequest, http.StatusNotFound:
		return fmt.Errorf("%w", ErrLocationNotFound)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w", ErrRateLimited)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}
	return nil
}

// mapResponse normalizes the provider payload: whole-degree Celsius
// temperatures and lowercased condition text.
func (c *APIClient) mapResponse(apiResp apiResponse, query string) models.WeatherReading {
	name := apiResp.Location.Name
	if name == "" {
		name = query
	}
	return models.WeatherReading{
		Location:      name,
		Region:        apiResp.Location.Region,
		Country:       apiResp.Location.Country,
		Temperature:   int(math.Round(apiResp.Current.TempC)),
		Condition:     strings.ToLower(apiResp.Current.Condition.Text),
		Icon:          apiResp.Current.Condition.Icon,
		Humidity:      apiResp.Current.Humidity,
		WindSpeed:     apiResp.Current.WindKph,
		WindDirection: apiResp.Current.WindDir,
		FeelsLike:     int(math.Round(apiResp.Current.FeelslikeC)),
		Visibility:    apiResp.Current.VisKm,
		UVIndex:       apiResp.Current.UV,
		LastUpdated:   apiResp.Current.LastUpdated,
		FetchedAt:     time.Now(),
	}
}
