// Package geo resolves the visitor coordinate used for regional
// personalization. Resolution never fails: an unreachable or unconfigured
// provider yields a nil coordinate, which downstream selectors treat as the
// normal "no location" case rather than an error.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Vansh-Dwivedi/5wh-sub000/internal/clock"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/models"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/observability"
)

const (
	// Provider lookups give up after this long; a slow lookup degrades to nil.
	lookupTimeout = 10 * time.Second
	// A resolved coordinate is reused for this long before re-resolving.
	maxAge = 5 * time.Minute
)

// Resolver resolves and caches the service's public coordinate via an
// IP-geolocation HTTP provider.
type Resolver struct {
	providerURL string
	client      *http.Client
	clk         clock.Clock
	logger      *zap.Logger

	mu         sync.Mutex
	cached     *models.Coordinate
	resolvedAt time.Time
}

// NewResolver creates a Resolver. An empty providerURL disables lookups and
// every Resolve call returns nil.
func NewResolver(providerURL string, clk clock.Clock, logger *zap.Logger) *Resolver {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Resolver{
		providerURL: providerURL,
		client:      &http.Client{Timeout: lookupTimeout},
		clk:         clk,
		logger:      logger,
	}
}

type providerResponse struct {
	Status string  `json:"status"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

// Resolve returns the visitor coordinate or nil. It never returns an error:
// permission-style failures, timeouts, and provider errors all resolve to
// nil. Successful lookups are cached for five minutes.
func (r *Resolver) Resolve(ctx context.Context) *models.Coordinate {
	if r.providerURL == "" {
		return nil
	}

	r.mu.Lock()
	if r.cached != nil && r.clk.Now().Sub(r.resolvedAt) < maxAge {
		c := *r.cached
		r.mu.Unlock()
		return &c
	}
	r.mu.Unlock()

	coord, err := r.lookup(ctx)
	if err != nil {
		observability.GeoLookupsTotal.WithLabelValues("error").Inc()
		if r.logger != nil {
			r.logger.Debug("geo lookup failed, continuing without location", zap.Error(err))
		}
		return nil
	}
	observability.GeoLookupsTotal.WithLabelValues("success").Inc()

	r.mu.Lock()
	r.cached = coord
	r.resolvedAt = r.clk.Now()
	r.mu.Unlock()

	c := *coord
	return &c
}

func (r *Resolver) lookup(ctx context.Context) (*models.Coordinate, error) {
	reqCtx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, r.providerURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("geo provider: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var pr providerResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if pr.Status != "" && pr.Status != "success" {
		return nil, fmt.Errorf("geo provider status %q", pr.Status)
	}
	return &models.Coordinate{Latitude: pr.Lat, Longitude: pr.Lon}, nil
}
