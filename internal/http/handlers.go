package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Vansh-Dwivedi/5wh-sub000/internal/dashboard"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/lifecycle"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/models"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/person"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/quote"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/traffic"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/validation"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/weather"
)

const (
	cityQueryMinLen  = 1
	cityQueryMaxLen  = 100
	searchTermMaxLen = 200
)

// HealthConfig holds the inputs for the health handler.
type HealthConfig struct {
	// WeatherKeyConfigured is false when the service runs without an upstream
	// weather key; dashboards still render, so health reports degraded rather
	// than failing.
	WeatherKeyConfigured bool
	ProviderErrorWindow  time.Duration
	ProviderErrorPct     int
	StartTime            time.Time
	// CachePing, when set, is called to check cache reachability. Used when backend is memcached.
	CachePing func() error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	orchestrator *dashboard.Orchestrator
	quotes       *quote.Service
	persons      *person.Service
	weather      *weather.Service
	healthConfig *HealthConfig
	logger       *zap.Logger
	validate     *validator.Validate

	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(
	orchestrator *dashboard.Orchestrator,
	quotes *quote.Service,
	persons *person.Service,
	weatherSvc *weather.Service,
	healthConfig *HealthConfig,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		quotes:       quotes,
		persons:      persons,
		weather:      weatherSvc,
		healthConfig: healthConfig,
		logger:       logger,
		validate:     validator.New(),
	}
}

// GetDashboard handles GET /api/dashboard. Without query parameters it serves
// the current snapshot; lat/lon/region parameters assemble a one-off
// personalized snapshot that is never stored.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	coord, err := parseCoordinate(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_COORDINATE", err.Error())
		return
	}
	regionHint := r.URL.Query().Get("region")

	if coord == nil && regionHint == "" {
		writeJSON(w, http.StatusOK, h.orchestrator.Snapshot())
		return
	}
	writeJSON(w, http.StatusOK, h.orchestrator.Personalized(r.Context(), coord, regionHint))
}

// GetQuote handles GET /api/dashboard/quote.
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	coord, err := parseCoordinate(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_COORDINATE", err.Error())
		return
	}
	eq, stage := h.quotes.DailyQuote(r.Context(), coord, r.URL.Query().Get("region"))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"quote": eq,
		"stage": stage,
	})
}

// SearchQuotes handles GET /api/dashboard/quotes/search?q=.
func (h *Handler) SearchQuotes(w http.ResponseWriter, r *http.Request) {
	term, err := validation.ValidateSearchTerm(r.URL.Query().Get("q"), searchTermMaxLen)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_SEARCH_TERM", err.Error())
		return
	}
	results := h.quotes.Search(term)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

// GetQuoteCategories handles GET /api/dashboard/quotes/categories.
func (h *Handler) GetQuoteCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories": h.quotes.Categories(),
	})
}

// ListQuotes handles GET /api/dashboard/quotes?category=.
func (h *Handler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		writeError(w, r, http.StatusBadRequest, "MISSING_CATEGORY", "category is required")
		return
	}
	results := h.quotes.ByCategory(category)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

// quoteRequest is the POST /api/dashboard/quotes body.
type quoteRequest struct {
	Text     string `json:"text" validate:"required,min=3,max=1000"`
	Author   string `json:"author" validate:"required,max=200"`
	Category string `json:"category" validate:"required,max=100"`
	Year     int    `json:"year" validate:"omitempty,gte=0"`
	Context  string `json:"context" validate:"max=500"`
	Region   string `json:"region" validate:"max=100"`
}

// PostQuote handles POST /api/dashboard/quotes. Custom quotes live for the
// process lifetime only.
func (h *Handler) PostQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_QUOTE", err.Error())
		return
	}
	added := h.quotes.AddCustomQuote(models.Quote{
		Text:     req.Text,
		Author:   req.Author,
		Category: req.Category,
		Year:     req.Year,
		Context:  req.Context,
	}, req.Region)
	writeJSON(w, http.StatusCreated, added)
}

// GetPerson handles GET /api/dashboard/person. The response always carries a
// non-empty image URL; person selection walks the same spare stages the
// dashboard refresh uses.
func (h *Handler) GetPerson(w http.ResponseWriter, r *http.Request) {
	coord, err := parseCoordinate(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_COORDINATE", err.Error())
		return
	}
	regionHint := r.URL.Query().Get("region")

	p, err := h.persons.PersonOfTheDay(r.Context(), coord, regionHint)
	if err != nil {
		p, err = h.persons.RegionalPerson(nil, "")
		if err == nil {
			p.Image = h.persons.FetchPhoto(r.Context(), p)
		}
	}
	if err != nil {
		p = h.persons.LastResortPerson()
	}
	writeJSON(w, http.StatusOK, p)
}

// ListPersons handles GET /api/dashboard/persons?region=.
func (h *Handler) ListPersons(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	if region == "" {
		writeError(w, r, http.StatusBadRequest, "MISSING_REGION", "region is required")
		return
	}
	results := h.persons.PersonsByRegion(region)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

// GetRegions handles GET /api/dashboard/regions.
func (h *Handler) GetRegions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"regions": h.persons.AvailableRegions(),
	})
}

// personRequest is the POST /api/dashboard/persons body.
type personRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=1000"`
	Achievement string `json:"achievement" validate:"max=1000"`
	BirthYear   int    `json:"birthYear" validate:"omitempty,gte=0"`
	Field       string `json:"field" validate:"max=100"`
	Region      string `json:"region" validate:"max=100"`
	Nationality string `json:"nationality" validate:"max=100"`
	PhotoQuery  string `json:"photoQuery" validate:"max=200"`
	WikiURL     string `json:"wikiUrl" validate:"omitempty,url"`
}

// PostPerson handles POST /api/dashboard/persons.
func (h *Handler) PostPerson(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_PERSON", err.Error())
		return
	}
	added := h.persons.AddCustomPerson(models.Person{
		Name:        req.Name,
		Title:       req.Title,
		Description: req.Description,
		Achievement: req.Achievement,
		BirthYear:   req.BirthYear,
		Field:       req.Field,
		Region:      req.Region,
		Nationality: req.Nationality,
		PhotoQuery:  req.PhotoQuery,
		WikiURL:     req.WikiURL,
	})
	writeJSON(w, http.StatusCreated, added)
}

// GetWeatherPanel handles GET /api/dashboard/weather. Partial upstream
// failures shrink the list rather than failing the request.
func (h *Handler) GetWeatherPanel(w http.ResponseWriter, r *http.Request) {
	coord, err := parseCoordinate(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_COORDINATE", err.Error())
		return
	}
	readings := h.weather.PanelWeather(r.Context(), coord)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cities": readings,
		"count":  len(readings),
	})
}

// GetCityWeather handles GET /api/dashboard/weather/{city}.
func (h *Handler) GetCityWeather(w http.ResponseWriter, r *http.Request) {
	city, err := validation.ValidateCity(mux.Vars(r)["city"], cityQueryMinLen, cityQueryMaxLen)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_CITY", err.Error())
		return
	}

	reading, err := h.weather.CityWeather(r.Context(), city)
	traffic.RecordOutcome("weather", err == nil)
	if err != nil {
		if errors.Is(err, weather.ErrLocationNotFound) {
			writeError(w, r, http.StatusNotFound, "CITY_NOT_FOUND", "no weather data for "+city)
			return
		}
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := make(map[string]string)
	if h.healthConfig != nil && !h.healthConfig.WeatherKeyConfigured {
		checks["weatherApi"] = "unconfigured"
	} else if result.reason == "provider_error_rate" {
		checks["weatherApi"] = "unhealthy"
	} else {
		checks["weatherApi"] = "healthy"
	}
	if h.healthConfig != nil && h.healthConfig.CachePing != nil {
		if h.healthConfig.CachePing() == nil {
			checks["cache"] = "healthy"
		} else {
			checks["cache"] = "unhealthy"
		}
	}
	resp := map[string]interface{}{
		"status":    result.status,
		"service":   "daily-dashboard-service",
		"version":   "dev",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if h.healthConfig != nil && !h.healthConfig.StartTime.IsZero() {
		resp["uptimeSeconds"] = int64(time.Since(h.healthConfig.StartTime).Seconds())
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(result.statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

// computeHealthStatus determines the current health status in priority order:
// shutting-down > weather provider error rate breach > degraded (no weather
// key) > healthy. A missing weather key keeps the service up since quote and
// person producers do not depend on it.
func (h *Handler) computeHealthStatus() healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if h.healthConfig == nil {
		return healthResult{"healthy", http.StatusOK, ""}
	}
	if h.healthConfig.ProviderErrorWindow > 0 && h.healthConfig.ProviderErrorPct > 0 {
		errs, total := traffic.ErrorRate("weather", h.healthConfig.ProviderErrorWindow)
		if total > 0 {
			pct := float64(errs) * 100 / float64(total)
			if pct >= float64(h.healthConfig.ProviderErrorPct) {
				return healthResult{"degraded", http.StatusServiceUnavailable, "provider_error_rate"}
			}
		}
	}
	if !h.healthConfig.WeatherKeyConfigured {
		return healthResult{"degraded", http.StatusOK, "weather_key_missing"}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// parseCoordinate reads optional lat/lon query parameters. Both absent yields
// (nil, nil); one absent or out-of-range values are an error.
func parseCoordinate(r *http.Request) (*models.Coordinate, error) {
	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")
	if latStr == "" && lonStr == "" {
		return nil, nil
	}
	if latStr == "" || lonStr == "" {
		return nil, errors.New("lat and lon must be provided together")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, errors.New("lat must be a number")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, errors.New("lon must be a number")
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, errors.New("coordinate out of range")
	}
	return &models.Coordinate{Latitude: lat, Longitude: lon}, nil
}

// writeJSON writes a JSON response with the specified HTTP status code.
// Sets Content-Type header to application/json and encodes the provided value.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code, message,
// and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID := ""
	if v := r.Context().Value("correlation_id"); v != nil {
		corrID = v.(string)
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}

// writeServiceError writes a 503 Service Unavailable error response for upstream failures.
// Logs the underlying error at DEBUG level if logger is available in request context.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "Unable to fetch weather data")
	if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
		logger.Debug("upstream error", zap.Error(err))
	}
}
