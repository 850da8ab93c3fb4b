// Package dashboard assembles the daily dashboard snapshot: quote of the
// day, person of the day, the weather city panel, and the visitor location.
// Producers run concurrently and degrade independently; a failure in one
// never blocks the others, and every refresh settles with a renderable
// snapshot.
package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/Vansh-Dwivedi/5wh-sub000/internal/clock"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/fallback"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/models"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/observability"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/traffic"
)

// LocationResolver yields the visitor coordinate or nil; it never fails.
type LocationResolver interface {
	Resolve(ctx context.Context) *models.Coordinate
}

// QuoteProvider serves the daily quote through its own fallback chain.
type QuoteProvider interface {
	DailyQuote(ctx context.Context, coord *models.Coordinate, regionHint string) (models.EnhancedQuote, string)
}

// PersonProvider serves the daily person. PersonOfTheDay may fail; the
// orchestrator then walks the spare stages down to LastResortPerson.
type PersonProvider interface {
	PersonOfTheDay(ctx context.Context, coord *models.Coordinate, regionHint string) (models.Person, error)
	RegionalPerson(coord *models.Coordinate, regionHint string) (models.Person, error)
	FetchPhoto(ctx context.Context, p models.Person) string
	LastResortPerson() models.Person
}

// WeatherProvider serves the city panel; partial failures shrink the slice.
type WeatherProvider interface {
	PanelWeather(ctx context.Context, coord *models.Coordinate) []models.WeatherReading
}

// Snapshot is the assembled dashboard state handed to the HTTP layer.
type Snapshot struct {
	Location    *models.Coordinate      `json:"location"`
	Quote       models.EnhancedQuote    `json:"quote"`
	QuoteStage  string                  `json:"quoteStage"`
	Person      models.Person           `json:"person"`
	PersonStage string                  `json:"personStage"`
	Weather     []models.WeatherReading `json:"weather"`
	ServerTime  time.Time               `json:"serverTime"`
	GeneratedAt time.Time               `json:"generatedAt"`
}

// Orchestrator owns the aggregated view state and is its sole mutator.
type Orchestrator struct {
	resolver LocationResolver
	quotes   QuoteProvider
	persons  PersonProvider
	weather  WeatherProvider
	clk      clock.Clock
	logger   *zap.Logger

	mu   sync.RWMutex
	snap Snapshot

	timeMu     sync.RWMutex
	serverTime time.Time

	scheduler *gocron.Scheduler
	tickStop  chan struct{}
	closeOnce sync.Once
}

// New creates an Orchestrator. All dependencies are required except logger.
func New(resolver LocationResolver, quotes QuoteProvider, persons PersonProvider, weather WeatherProvider, clk clock.Clock, logger *zap.Logger) *Orchestrator {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Orchestrator{
		resolver:   resolver,
		quotes:     quotes,
		persons:    persons,
		weather:    weather,
		clk:        clk,
		logger:     logger,
		serverTime: clk.Now(),
		tickStop:   make(chan struct{}),
	}
}

// Refresh assembles a fresh snapshot and stores it as the one served to
// visitors who carry no personalization. Location resolves first (or is
// taken from override), then the three producers fan out concurrently.
func (o *Orchestrator) Refresh(ctx context.Context, override *models.Coordinate, regionHint, trigger string) Snapshot {
	snap := o.build(ctx, override, regionHint, trigger)

	o.mu.Lock()
	o.snap = snap
	o.mu.Unlock()

	return snap
}

// Personalized assembles a snapshot for a single visitor's coordinate or
// region hint. The result is never stored, so one visitor's personalization
// cannot alter the snapshot every other visitor reads.
func (o *Orchestrator) Personalized(ctx context.Context, override *models.Coordinate, regionHint string) Snapshot {
	return o.build(ctx, override, regionHint, "request")
}

// build runs the init sequence. Any unexpected panic falls back to
// rebuilding every producer with a nil location; build always returns a
// renderable snapshot.
func (o *Orchestrator) build(ctx context.Context, override *models.Coordinate, regionHint, trigger string) Snapshot {
	start := time.Now()
	observability.DashboardRefreshTotal.WithLabelValues(trigger).Inc()

	snap, ok := o.tryRefresh(ctx, override, regionHint)
	if !ok {
		if o.logger != nil {
			o.logger.Error("dashboard init sequence failed, rebuilding with nil location")
		}
		snap = o.recoverSnapshot(ctx)
	}

	observability.DashboardRefreshDuration.Observe(time.Since(start).Seconds())
	return snap
}

// tryRefresh runs the normal init sequence; ok is false when it panicked.
func (o *Orchestrator) tryRefresh(ctx context.Context, override *models.Coordinate, regionHint string) (snap Snapshot, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if o.logger != nil {
				o.logger.Error("dashboard refresh panicked", zap.Any("panic", r))
			}
			ok = false
		}
	}()

	coord := override
	if coord == nil {
		coord = o.resolver.Resolve(ctx)
	}

	snap = o.assemble(ctx, coord, regionHint)
	return snap, true
}

// recoverSnapshot is the top-level recovery path: every producer reruns with
// a nil location, each behind its own fallback chain.
func (o *Orchestrator) recoverSnapshot(ctx context.Context) (snap Snapshot) {
	defer func() {
		// Producers carry their own last-resort stages, so this only fires
		// if one of them is broken outright.
		if r := recover(); r != nil {
			snap = Snapshot{
				Weather:     []models.WeatherReading{},
				ServerTime:  o.ServerTime(),
				GeneratedAt: o.clk.Now(),
			}
		}
	}()
	return o.assemble(ctx, nil, "")
}

// assemble fans the three producers out concurrently and joins them. Each
// producer settles on its own; none blocks another.
func (o *Orchestrator) assemble(ctx context.Context, coord *models.Coordinate, regionHint string) Snapshot {
	snap := Snapshot{
		Location:    coord,
		ServerTime:  o.ServerTime(),
		GeneratedAt: o.clk.Now(),
	}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		snap.Quote, snap.QuoteStage = o.quotes.DailyQuote(ctx, coord, regionHint)
	}()

	go func() {
		defer wg.Done()
		snap.Person, snap.PersonStage = o.dailyPerson(ctx, coord, regionHint)
	}()

	go func() {
		defer wg.Done()
		snap.Weather = o.panelWeather(ctx, coord)
	}()

	wg.Wait()
	return snap
}

// dailyPerson walks the person fallback chain: full selection with photo,
// selection without location plus direct photo fetch, then the hardcoded
// placeholder. Every exit carries a non-empty image.
func (o *Orchestrator) dailyPerson(ctx context.Context, coord *models.Coordinate, regionHint string) (models.Person, string) {
	p, stage, err := fallback.First(ctx,
		fallback.Step[models.Person]{Name: "daily", Run: func(ctx context.Context) (models.Person, error) {
			return o.persons.PersonOfTheDay(ctx, coord, regionHint)
		}},
		fallback.Step[models.Person]{Name: "regional", Run: func(ctx context.Context) (models.Person, error) {
			p, err := o.persons.RegionalPerson(nil, "")
			if err != nil {
				return models.Person{}, err
			}
			p.Image = o.persons.FetchPhoto(ctx, p)
			return p, nil
		}},
		fallback.Step[models.Person]{Name: "last-resort", Run: func(ctx context.Context) (models.Person, error) {
			return o.persons.LastResortPerson(), nil
		}},
	)
	if err != nil {
		p = o.persons.LastResortPerson()
		stage = "last-resort"
	}
	observability.RecordFallbackStage("person", stage)
	if stage != "daily" && o.logger != nil {
		o.logger.Info("person served via fallback", zap.String("stage", stage))
	}
	return p, stage
}

// panelWeather fetches the city panel, degrading to an empty slice if the
// provider misbehaves beyond its own per-city tolerance.
func (o *Orchestrator) panelWeather(ctx context.Context, coord *models.Coordinate) (readings []models.WeatherReading) {
	defer func() {
		if r := recover(); r != nil {
			if o.logger != nil {
				o.logger.Error("weather panel panicked", zap.Any("panic", r))
			}
			readings = []models.WeatherReading{}
		}
	}()
	readings = o.weather.PanelWeather(ctx, coord)
	if readings == nil {
		readings = []models.WeatherReading{}
	}
	traffic.RecordOutcome("weather", len(readings) > 0)
	return readings
}

// Snapshot returns the last assembled snapshot with the live server time.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.RLock()
	snap := o.snap
	o.mu.RUnlock()
	snap.ServerTime = o.ServerTime()
	return snap
}

// ServerTime returns the ticker-maintained wall-clock reading.
func (o *Orchestrator) ServerTime() time.Time {
	o.timeMu.RLock()
	defer o.timeMu.RUnlock()
	return o.serverTime
}

// Start launches the one-second server-time ticker and, when interval > 0, a
// periodic background refresh so the snapshot stays warm between requests.
// The ticker and the refresh job are unrelated state machines; the ticker
// keeps running regardless of fetch outcomes.
func (o *Orchestrator) Start(refreshInterval time.Duration) error {
	go o.runTicker()

	if refreshInterval > 0 {
		minutes := int(refreshInterval.Minutes())
		if minutes <= 0 {
			minutes = 1
		}
		o.scheduler = gocron.NewScheduler(time.UTC)
		_, err := o.scheduler.Every(minutes).Minutes().Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			o.Refresh(ctx, nil, "", "scheduled")
		})
		if err != nil {
			return err
		}
		o.scheduler.StartAsync()
	}
	return nil
}

func (o *Orchestrator) runTicker() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-o.tickStop:
			return
		case <-ticker.C:
			o.timeMu.Lock()
			o.serverTime = o.clk.Now()
			o.timeMu.Unlock()
		}
	}
}

// Close stops the ticker and the background refresh job. Safe to call more
// than once.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		close(o.tickStop)
		if o.scheduler != nil {
			o.scheduler.Stop()
		}
	})
}
