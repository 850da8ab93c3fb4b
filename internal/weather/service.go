package weather

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Vansh-Dwivedi/5wh-sub000/internal/cache"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/models"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/observability"
)

// DefaultTTL is how long a per-city reading is served from cache.
const DefaultTTL = 30 * time.Minute

// ConditionType buckets free-text provider conditions for the UI.
type ConditionType string

const (
	ConditionSunny  ConditionType = "sunny"
	ConditionCloudy ConditionType = "cloudy"
	ConditionRainy  ConditionType = "rainy"
	ConditionSnowy  ConditionType = "snowy"
	ConditionStormy ConditionType = "stormy"
)

// cityPanel is the fixed dashboard panel: Punjab cities plus North-American
// diaspora cities. RegionalCities accepts a coordinate for future
// personalization but currently returns this panel unchanged; callers must
// not assume the argument has any effect.
var cityPanel = []string{
	"Ludhiana",
	"Amritsar",
	"Jalandhar",
	"Chandigarh",
	"Patiala",
	"Toronto",
	"Vancouver",
	"Surrey",
	"New York",
}

// Service retrieves per-city readings with a cache-aside strategy and fans
// out batch requests concurrently.
type Service struct {
	client Client
	cache  cache.Cache[models.WeatherReading]
	ttl    time.Duration
	logger *zap.Logger
}

// NewService creates a weather Service. A zero ttl uses DefaultTTL.
func NewService(client Client, c cache.Cache[models.WeatherReading], ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		client: client,
		cache:  c,
		ttl:    ttl,
		logger: logger,
	}
}

// CityWeather returns current conditions for a city name or "lat,lon" pair.
// A cached reading within the TTL is returned unchanged; on miss the provider
// is called and the normalized reading cached.
func (s *Service) CityWeather(ctx context.Context, query string) (models.WeatherReading, error) {
	key := normalizeQuery(query)

	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		observability.CacheErrorsTotal.WithLabelValues("get", "weather").Inc()
	} else if ok {
		observability.CacheHitsTotal.WithLabelValues("weather").Inc()
		return cached, nil
	}

	reading, err := s.client.CurrentConditions(ctx, key)
	if err != nil {
		return models.WeatherReading{}, fmt.Errorf("fetch weather for %s: %w", key, err)
	}

	if setErr := s.cache.Set(ctx, key, reading, s.ttl); setErr != nil {
		observability.CacheErrorsTotal.WithLabelValues("set", "weather").Inc()
		if s.logger != nil {
			s.logger.Warn("weather cache set failed", zap.String("city", key), zap.Error(setErr))
		}
	}
	return reading, nil
}

// MultiCityWeather fetches all cities concurrently. A failing city is dropped
// from the result rather than failing the batch; the call never returns an
// error and may return an empty slice. Result order follows the input for the
// cities that succeeded.
func (s *Service) MultiCityWeather(ctx context.Context, cities []string) []models.WeatherReading {
	results := make([]*models.WeatherReading, len(cities))
	var wg sync.WaitGroup
	for i, city := range cities {
		wg.Add(1)
		go func(i int, city string) {
			defer wg.Done()
			reading, err := s.CityWeather(ctx, city)
			if err != nil {
				if s.logger != nil {
					s.logger.Debug("city weather failed, dropping from panel", zap.String("city", city), zap.Error(err))
				}
				return
			}
			results[i] = &reading
		}(i, city)
	}
	wg.Wait()

	out := make([]models.WeatherReading, 0, len(cities))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// PanelWeather fetches the fixed city panel.
func (s *Service) PanelWeather(ctx context.Context, coord *models.Coordinate) []models.WeatherReading {
	return s.MultiCityWeather(ctx, RegionalCities(coord))
}

// RegionalCities returns the dashboard city list. The coordinate argument is
// accepted for future personalization; current policy is the constant panel.
func RegionalCities(_ *models.Coordinate) []string {
	out := make([]string, len(cityPanel))
	copy(out, cityPanel)
	return out
}

// ConditionTypeOf buckets free-text condition descriptions by substring,
// case-insensitive. Unmatched text defaults to sunny.
func ConditionTypeOf(condition string) ConditionType {
	c := strings.ToLower(condition)
	switch {
	case strings.Contains(c, "sunny") || strings.Contains(c, "clear"):
		return ConditionSunny
	case strings.Contains(c, "cloud") || strings.Contains(c, "overcast"):
		return ConditionCloudy
	case strings.Contains(c, "rain") || strings.Contains(c, "drizzle"):
		return ConditionRainy
	case strings.Contains(c, "snow") || strings.Contains(c, "blizzard"):
		return ConditionSnowy
	case strings.Contains(c, "thunder") || strings.Contains(c, "storm"):
		return ConditionStormy
	default:
		return ConditionSunny
	}
}

// normalizeQuery normalizes city strings so cache keys and provider requests
// are consistent regardless of input format.
func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}
