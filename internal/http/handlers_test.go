package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Vansh-Dwivedi/5wh-sub000/internal/cache"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/clock"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/dashboard"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/lifecycle"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/models"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/person"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/quote"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/traffic"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/weather"
)

type stubWeatherClient struct {
	reading models.WeatherReading
	err     error
}

func (c stubWeatherClient) CurrentConditions(_ context.Context, q string) (models.WeatherReading, error) {
	if c.err != nil {
		return models.WeatherReading{}, c.err
	}
	r := c.reading
	if r.Location == "" {
		r.Location = q
	}
	return r, nil
}

type stubResolver struct{ coord *models.Coordinate }

func (s stubResolver) Resolve(context.Context) *models.Coordinate { return s.coord }

func newTestHandler(t *testing.T, weatherClient weather.Client) *Handler {
	t.Helper()
	clk := clock.Fixed{T: time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)}
	logger := zap.NewNop()
	if weatherClient == nil {
		weatherClient = stubWeatherClient{reading: models.WeatherReading{Temperature: 21, Condition: "sunny"}}
	}

	qs := quote.NewService(clk, nil, "https://example.com", logger)
	ps := person.NewService(clk, nil, cache.NewInMemory[string](clk), 0, "https://ui-avatars.com/api/", logger)
	ws := weather.NewService(weatherClient, cache.NewInMemory[models.WeatherReading](clk), 0, logger)
	orch := dashboard.New(stubResolver{}, qs, ps, ws, clk, logger)
	orch.Refresh(context.Background(), nil, "", "test")

	return NewHandler(orch, qs, ps, ws, &HealthConfig{WeatherKeyConfigured: true, StartTime: time.Now()}, logger)
}

func newRouter(h *Handler) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", h.GetHealth).Methods("GET")
	api := router.PathPrefix("/api/dashboard").Subrouter()
	api.HandleFunc("", h.GetDashboard).Methods("GET")
	api.HandleFunc("/quote", h.GetQuote).Methods("GET")
	api.HandleFunc("/quotes/search", h.SearchQuotes).Methods("GET")
	api.HandleFunc("/quotes/categories", h.GetQuoteCategories).Methods("GET")
	api.HandleFunc("/quotes", h.ListQuotes).Methods("GET")
	api.HandleFunc("/quotes", h.PostQuote).Methods("POST")
	api.HandleFunc("/person", h.GetPerson).Methods("GET")
	api.HandleFunc("/persons", h.ListPersons).Methods("GET")
	api.HandleFunc("/persons", h.PostPerson).Methods("POST")
	api.HandleFunc("/regions", h.GetRegions).Methods("GET")
	api.HandleFunc("/weather", h.GetWeatherPanel).Methods("GET")
	api.HandleFunc("/weather/{city}", h.GetCityWeather).Methods("GET")
	return router
}

func doRequest(t *testing.T, h *Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	newRouter(h).ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, rec)
	errObj, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("response has no error envelope: %q", rec.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

func TestGetDashboard_ServesSnapshot(t *testing.T) {
	h := newTestHandler(t, nil)
	rec := doRequest(t, h, "GET", "/api/dashboard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	q, ok := body["quote"].(map[string]interface{})
	if !ok || q["text"] == "" {
		t.Errorf("snapshot quote missing: %v", body["quote"])
	}
	p, ok := body["person"].(map[string]interface{})
	if !ok {
		t.Fatalf("snapshot person missing")
	}
	if img, _ := p["image"].(string); img == "" {
		t.Error("snapshot person has empty image")
	}
	if _, ok := body["weather"].([]interface{}); !ok {
		t.Errorf("snapshot weather missing: %v", body["weather"])
	}
}

func TestGetDashboard_InvalidCoordinate(t *testing.T) {
	h := newTestHandler(t, nil)
	tests := []struct {
		name string
		path string
	}{
		{"non-numeric lat", "/api/dashboard?lat=abc&lon=75"},
		{"lon missing", "/api/dashboard?lat=31"},
		{"out of range", "/api/dashboard?lat=120&lon=75"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, h, "GET", tc.path, "")
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if code := errorCode(t, rec); code != "INVALID_COORDINATE" {
				t.Errorf("error code = %q, want INVALID_COORDINATE", code)
			}
		})
	}
}

func TestGetDashboard_PersonalizedRefresh(t *testing.T) {
	h := newTestHandler(t, nil)
	rec := doRequest(t, h, "GET", "/api/dashboard?lat=30.9&lon=75.8", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	loc, ok := body["location"].(map[string]interface{})
	if !ok {
		t.Fatalf("location missing from personalized snapshot: %q", rec.Body.String())
	}
	if loc["latitude"].(float64) != 30.9 {
		t.Errorf("latitude = %v, want 30.9", loc["latitude"])
	}

	// The personalized snapshot is one-off. A plain request afterwards still
	// serves the shared snapshot, which was assembled without a location.
	rec = doRequest(t, h, "GET", "/api/dashboard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if shared := decodeBody(t, rec); shared["location"] != nil {
		t.Errorf("shared snapshot location = %v after personalized request, want none", shared["location"])
	}
}

func TestGetQuote(t *testing.T) {
	h := newTestHandler(t, nil)
	rec := doRequest(t, h, "GET", "/api/dashboard/quote", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if stage, _ := body["stage"].(string); stage == "" {
		t.Error("stage missing from quote response")
	}
	q, ok := body["quote"].(map[string]interface{})
	if !ok || q["text"] == "" {
		t.Errorf("quote missing: %v", body)
	}
	meta, ok := q["metadata"].(map[string]interface{})
	if !ok || meta["wordCount"].(float64) <= 0 {
		t.Errorf("quote metadata missing: %v", q["metadata"])
	}
}

func TestSearchQuotes(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := doRequest(t, h, "GET", "/api/dashboard/quotes/search?q=the", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if _, ok := body["count"].(float64); !ok {
		t.Errorf("count missing: %v", body)
	}

	rec = doRequest(t, h, "GET", "/api/dashboard/quotes/search?q=", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty term: status = %d, want 400", rec.Code)
	}
	if code := errorCode(t, rec); code != "INVALID_SEARCH_TERM" {
		t.Errorf("error code = %q, want INVALID_SEARCH_TERM", code)
	}
}

func TestListQuotes(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := doRequest(t, h, "GET", "/api/dashboard/quotes", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing category: status = %d, want 400", rec.Code)
	}
	if code := errorCode(t, rec); code != "MISSING_CATEGORY" {
		t.Errorf("error code = %q, want MISSING_CATEGORY", code)
	}

	rec = doRequest(t, h, "GET", "/api/dashboard/quotes/categories", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("categories: status = %d, want 200", rec.Code)
	}
	cats, ok := decodeBody(t, rec)["categories"].([]interface{})
	if !ok || len(cats) == 0 {
		t.Fatal("no categories returned")
	}

	rec = doRequest(t, h, "GET", "/api/dashboard/quotes?category="+cats[0].(string), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("by category: status = %d, want 200", rec.Code)
	}
	if count := decodeBody(t, rec)["count"].(float64); count <= 0 {
		t.Errorf("count = %v, want > 0 for known category", count)
	}
}

func TestPostQuote(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := doRequest(t, h, "POST", "/api/dashboard/quotes",
		`{"text":"Well begun is half done.","author":"Aristotle","category":"philosophy"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %q)", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	id, _ := body["id"].(string)
	if !strings.HasPrefix(id, "custom-") {
		t.Errorf("id = %q, want custom- prefix", id)
	}

	rec = doRequest(t, h, "POST", "/api/dashboard/quotes", `{"author":"Nobody"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing text: status = %d, want 400", rec.Code)
	}
	if code := errorCode(t, rec); code != "INVALID_QUOTE" {
		t.Errorf("error code = %q, want INVALID_QUOTE", code)
	}

	rec = doRequest(t, h, "POST", "/api/dashboard/quotes", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json: status = %d, want 400", rec.Code)
	}
	if code := errorCode(t, rec); code != "INVALID_BODY" {
		t.Errorf("error code = %q, want INVALID_BODY", code)
	}
}

func TestGetPerson_AlwaysHasImage(t *testing.T) {
	h := newTestHandler(t, nil)
	rec := doRequest(t, h, "GET", "/api/dashboard/person", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if img, _ := body["image"].(string); img == "" {
		t.Errorf("person image empty: %v", body)
	}
	if name, _ := body["name"].(string); name == "" {
		t.Errorf("person name empty: %v", body)
	}
}

func TestListPersonsAndRegions(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := doRequest(t, h, "GET", "/api/dashboard/persons", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing region: status = %d, want 400", rec.Code)
	}
	if code := errorCode(t, rec); code != "MISSING_REGION" {
		t.Errorf("error code = %q, want MISSING_REGION", code)
	}

	rec = doRequest(t, h, "GET", "/api/dashboard/regions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("regions: status = %d, want 200", rec.Code)
	}
	regions, ok := decodeBody(t, rec)["regions"].([]interface{})
	if !ok || len(regions) == 0 {
		t.Fatal("no regions returned")
	}

	rec = doRequest(t, h, "GET", "/api/dashboard/persons?region="+regions[0].(string), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("by region: status = %d, want 200", rec.Code)
	}
	if count := decodeBody(t, rec)["count"].(float64); count <= 0 {
		t.Errorf("count = %v, want > 0 for known region", count)
	}
}

func TestPostPerson(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := doRequest(t, h, "POST", "/api/dashboard/persons",
		`{"name":"Ada Lovelace","title":"Mathematician","field":"mathematics","region":"Global"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %q)", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if name, _ := body["name"].(string); name != "Ada Lovelace" {
		t.Errorf("name = %q", name)
	}

	rec = doRequest(t, h, "POST", "/api/dashboard/persons", `{"title":"No Name"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing name: status = %d, want 400", rec.Code)
	}
	if code := errorCode(t, rec); code != "INVALID_PERSON" {
		t.Errorf("error code = %q, want INVALID_PERSON", code)
	}
}

func TestGetWeatherPanel(t *testing.T) {
	h := newTestHandler(t, nil)
	rec := doRequest(t, h, "GET", "/api/dashboard/weather", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if count := body["count"].(float64); count != 9 {
		t.Errorf("count = %v, want 9 panel cities", count)
	}
}

func TestGetCityWeather(t *testing.T) {
	traffic.Reset()
	t.Cleanup(traffic.Reset)

	t.Run("success", func(t *testing.T) {
		h := newTestHandler(t, nil)
		rec := doRequest(t, h, "GET", "/api/dashboard/weather/Ludhiana", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		body := decodeBody(t, rec)
		if body["location"] == "" {
			t.Errorf("location empty: %v", body)
		}
	})

	t.Run("invalid city", func(t *testing.T) {
		h := newTestHandler(t, nil)
		rec := doRequest(t, h, "GET", "/api/dashboard/weather/bad&city", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("not found", func(t *testing.T) {
		h := newTestHandler(t, stubWeatherClient{err: weather.ErrLocationNotFound})
		rec := doRequest(t, h, "GET", "/api/dashboard/weather/Nowhere", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
		if code := errorCode(t, rec); code != "CITY_NOT_FOUND" {
			t.Errorf("error code = %q, want CITY_NOT_FOUND", code)
		}
	})

	t.Run("upstream failure", func(t *testing.T) {
		h := newTestHandler(t, stubWeatherClient{err: weather.ErrUpstreamFailure})
		rec := doRequest(t, h, "GET", "/api/dashboard/weather/Toronto", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
		if code := errorCode(t, rec); code != "UPSTREAM_UNAVAILABLE" {
			t.Errorf("error code = %q, want UPSTREAM_UNAVAILABLE", code)
		}
	})
}

func TestGetHealth(t *testing.T) {
	traffic.Reset()
	t.Cleanup(func() {
		traffic.Reset()
		lifecycle.SetShuttingDown(false)
	})

	t.Run("healthy", func(t *testing.T) {
		h := newTestHandler(t, nil)
		rec := doRequest(t, h, "GET", "/health", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		body := decodeBody(t, rec)
		if body["status"] != "healthy" {
			t.Errorf("status = %v, want healthy", body["status"])
		}
		uptime, ok := body["uptimeSeconds"].(float64)
		if !ok || uptime < 0 {
			t.Errorf("uptimeSeconds = %v, want a non-negative number", body["uptimeSeconds"])
		}
	})

	t.Run("no weather key reports degraded but stays up", func(t *testing.T) {
		h := newTestHandler(t, nil)
		h.healthConfig.WeatherKeyConfigured = false
		rec := doRequest(t, h, "GET", "/health", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		body := decodeBody(t, rec)
		if body["status"] != "degraded" {
			t.Errorf("status = %v, want degraded", body["status"])
		}
		checks := body["checks"].(map[string]interface{})
		if checks["weatherApi"] != "unconfigured" {
			t.Errorf("weatherApi check = %v, want unconfigured", checks["weatherApi"])
		}
	})

	t.Run("provider error rate breach", func(t *testing.T) {
		h := newTestHandler(t, nil)
		h.healthConfig.ProviderErrorWindow = time.Minute
		h.healthConfig.ProviderErrorPct = 50
		for i := 0; i < 10; i++ {
			traffic.RecordOutcome("weather", false)
		}
		rec := doRequest(t, h, "GET", "/health", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
		body := decodeBody(t, rec)
		if body["status"] != "degraded" {
			t.Errorf("status = %v, want degraded", body["status"])
		}
		traffic.Reset()
	})

	t.Run("shutting down", func(t *testing.T) {
		h := newTestHandler(t, nil)
		lifecycle.SetShuttingDown(true)
		defer lifecycle.SetShuttingDown(false)
		rec := doRequest(t, h, "GET", "/health", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
		body := decodeBody(t, rec)
		if body["status"] != "shutting-down" {
			t.Errorf("status = %v, want shutting-down", body["status"])
		}
	})
}
