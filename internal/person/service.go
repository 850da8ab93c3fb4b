// Package person selects the person of the day from a curated regional
// corpus using the same day-based rotation as the quote selector, and
// resolves a portrait image with graceful degradation to a generated avatar.
// Every Person handed out has a non-empty Image.
package person

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Vansh-Dwivedi/5wh-sub000/internal/cache"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/clock"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/models"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/observability"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/region"
)

// ErrEmptyCorpus is returned when selection runs against an empty pool.
var ErrEmptyCorpus = errors.New("person corpus is empty")

// PhotoCacheTTL is the default for how long a resolved portrait URL is
// reused.
const PhotoCacheTTL = 24 * time.Hour

// Service owns the person corpus, photo resolution, and the photo cache.
type Service struct {
	mu       sync.RWMutex
	global   []models.Person
	regional map[region.Tag][]models.Person

	clk        clock.Clock
	searcher   PhotoSearcher // nil when no image provider configured
	photoCache cache.Cache[string]
	photoTTL   time.Duration
	avatarBase string
	logger     *zap.Logger
}

// NewService creates a person Service with the built-in corpus. photoCache
// holds resolved portrait URLs keyed by person ID for photoTTL (PhotoCacheTTL
// when non-positive); avatarBase is the generated-avatar provider endpoint.
func NewService(clk clock.Clock, searcher PhotoSearcher, photoCache cache.Cache[string], photoTTL time.Duration, avatarBase string, logger *zap.Logger) *Service {
	if clk == nil {
		clk = clock.Real{}
	}
	if photoCache == nil {
		photoCache = cache.NewInMemory[string](clk)
	}
	if photoTTL <= 0 {
		photoTTL = PhotoCacheTTL
	}
	return &Service{
		global:     globalPersons(),
		regional:   regionalPersons(),
		clk:        clk,
		searcher:   searcher,
		photoCache: photoCache,
		photoTTL:   photoTTL,
		avatarBase: avatarBase,
		logger:     logger,
	}
}

func (s *Service) pool(tag region.Tag) []models.Person {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg := s.regional[tag]
	out := make([]models.Person, 0, len(reg)+len(s.global))
	out = append(out, reg...)
	out = append(out, s.global...)
	return out
}

// RegionalPerson deterministically picks today's person: day-of-year mod pool
// size over the region-biased pool. Same algorithm and region classification
// as the quote selector, keyed to the person corpus.
func (s *Service) RegionalPerson(coord *models.Coordinate, regionHint string) (models.Person, error) {
	pool := s.pool(region.Classify(coord, regionHint))
	if len(pool) == 0 {
		return models.Person{}, ErrEmptyCorpus
	}
	day := clock.DayOfYear(s.clk.Now())
	return pool[day%len(pool)], nil
}

// FetchPhoto resolves a portrait URL for p. It never returns an error: photo
// cache is consulted first, then the image-search provider, and any failure
// or empty result degrades to a generated avatar from p's name.
func (s *Service) FetchPhoto(ctx context.Context, p models.Person) string {
	if cached, ok, err := s.photoCache.Get(ctx, p.ID); err == nil && ok {
		observability.CacheHitsTotal.WithLabelValues("photo").Inc()
		return cached
	} else if err != nil {
		observability.CacheErrorsTotal.WithLabelValues("get", "photo").Inc()
	}

	if s.searcher != nil {
		query := p.PhotoQuery
		if query == "" {
			query = p.Name
		}
		if url, err := s.searcher.SearchPortrait(ctx, query); err == nil && url != "" {
			if setErr := s.photoCache.Set(ctx, p.ID, url, s.photoTTL); setErr != nil {
				observability.CacheErrorsTotal.WithLabelValues("set", "photo").Inc()
			}
			return url
		} else if err != nil && s.logger != nil {
			s.logger.Debug("photo search failed, using avatar", zap.String("person", p.Name), zap.Error(err))
		}
	}

	return AvatarURL(s.avatarBase, p.Name)
}

// PersonOfTheDay selects today's person and attaches a resolved portrait.
// The returned Person always has a non-empty Image; only selection against an
// empty corpus can fail.
func (s *Service) PersonOfTheDay(ctx context.Context, coord *models.Coordinate, regionHint string) (models.Person, error) {
	p, err := s.RegionalPerson(coord, regionHint)
	if err != nil {
		return models.Person{}, err
	}
	p.Image = s.FetchPhoto(ctx, p)
	return p, nil
}

// LastResortPerson is the hardcoded placeholder used when even selection
// fails. Its avatar needs no network call, so this constructor cannot fail.
func (s *Service) LastResortPerson() models.Person {
	p := models.Person{
		ID:          "last-resort",
		Name:        "Daily Inspiration",
		Title:       "Motivational Figure",
		Description: "Celebrating the remarkable people who shape our world, one day at a time.",
		Field:       "Inspiration",
		Region:      "global",
	}
	p.Image = AvatarURL(s.avatarBase, p.Name)
	return p
}

// AddCustomPerson appends a person to the in-memory corpus for the session.
// A missing ID is assigned. Placement follows the entry's Region field.
func (s *Service) AddCustomPerson(p models.Person) models.Person {
	if p.ID == "" {
		p.ID = "custom-" + uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tag := region.Classify(nil, p.Region); tag != region.TagGlobal {
		if s.regional == nil {
			s.regional = make(map[region.Tag][]models.Person)
		}
		s.regional[tag] = append(s.regional[tag], p)
	} else {
		s.global = append(s.global, p)
	}
	return p
}

// AvailableRegions returns the sorted distinct region names in the corpus.
func (s *Service) AvailableRegions() []string {
	seen := make(map[string]struct{})
	for _, p := range s.all() {
		if p.Region != "" {
			seen[p.Region] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// PersonsByRegion returns corpus entries whose Region matches, case-insensitive.
func (s *Service) PersonsByRegion(name string) []models.Person {
	name = strings.ToLower(strings.TrimSpace(name))
	var out []models.Person
	for _, p := range s.all() {
		if strings.ToLower(p.Region) == name {
			out = append(out, p)
		}
	}
	return out
}

func (s *Service) all() []models.Person {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Person, 0, len(s.global))
	out = append(out, s.global...)
	for _, ps := range s.regional {
		out = append(out, ps...)
	}
	return out
}
