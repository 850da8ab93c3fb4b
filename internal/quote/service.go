// Package quote selects the quote of the day from a curated in-memory corpus
// using deterministic day-based rotation, optionally biased toward regional
// entries, with a layered fallback chain ending in a hardcoded system notice.
package quote

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Vansh-Dwivedi/5wh-sub000/internal/clock"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/fallback"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/models"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/observability"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/region"
)

// ErrEmptyCorpus is returned when selection runs against an empty pool.
var ErrEmptyCorpus = errors.New("quote corpus is empty")

// noticeQuote is the last-resort entry when every selection stage fails.
func noticeQuote() models.Quote {
	return models.Quote{
		ID:       "system-notice",
		Text:     "Service temporarily unavailable. Please check back soon.",
		Author:   "System",
		Category: "Notice",
	}
}

// readingWordsPerMinute is the rate used to derive reading time metadata.
const readingWordsPerMinute = 200

// Service owns the quote corpus and selection logic. Corpus mutation via
// AddCustomQuote is session-scoped; nothing is persisted.
type Service struct {
	mu       sync.RWMutex
	global   []models.Quote
	regional map[region.Tag][]models.Quote

	clk          clock.Clock
	external     ExternalProvider // nil when no quote provider configured
	shareBaseURL string
	logger       *zap.Logger
}

// ExternalProvider fetches a quote from the external quotable-text service.
// Used only as a network fallback stage.
type ExternalProvider interface {
	FetchRandomQuote(ctx context.Context) (models.Quote, error)
}

// NewService creates a quote Service with the built-in corpus.
func NewService(clk clock.Clock, external ExternalProvider, shareBaseURL string, logger *zap.Logger) *Service {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Service{
		global:       globalCorpus(),
		regional:     regionalCorpus(),
		clk:          clk,
		external:     external,
		shareBaseURL: strings.TrimRight(shareBaseURL, "/"),
		logger:       logger,
	}
}

// pool returns the candidate slice for a region classification: regional
// entries first, then the global corpus, so regional visitors see regional
// content biased toward the front without losing global entries.
func (s *Service) pool(tag region.Tag) []models.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg := s.regional[tag]
	out := make([]models.Quote, 0, len(reg)+len(s.global))
	out = append(out, reg...)
	out = append(out, s.global...)
	return out
}

// QuoteOfTheDay deterministically picks today's quote: index is day-of-year
// mod pool size, so every visitor sharing a region classification sees the
// same quote all day and the selection rotates day to day.
func (s *Service) QuoteOfTheDay(coord *models.Coordinate, regionHint string) (models.Quote, error) {
	pool := s.pool(region.Classify(coord, regionHint))
	if len(pool) == 0 {
		return models.Quote{}, ErrEmptyCorpus
	}
	day := clock.DayOfYear(s.clk.Now())
	return pool[day%len(pool)], nil
}

// RandomQuote returns a uniformly random quote from the full corpus.
func (s *Service) RandomQuote() (models.Quote, error) {
	pool := s.all()
	if len(pool) == 0 {
		return models.Quote{}, ErrEmptyCorpus
	}
	return pool[rand.Intn(len(pool))], nil
}

// EnhancedQuoteOfTheDay returns today's quote with derived metadata (word
// count, reading time, share URL). Metadata is computed on read, never stored.
func (s *Service) EnhancedQuoteOfTheDay(ctx context.Context, coord *models.Coordinate, regionHint string) (models.EnhancedQuote, error) {
	q, err := s.QuoteOfTheDay(coord, regionHint)
	if err != nil {
		return models.EnhancedQuote{}, err
	}
	return s.enhance(q), nil
}

func (s *Service) enhance(q models.Quote) models.EnhancedQuote {
	words := len(strings.Fields(q.Text))
	minutes := (words + readingWordsPerMinute - 1) / readingWordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return models.EnhancedQuote{
		Quote: q,
		Metadata: models.QuoteMetadata{
			WordCount:      words,
			ReadingTimeMin: minutes,
			ShareURL:       fmt.Sprintf("%s/quotes/%s", s.shareBaseURL, q.ID),
		},
	}
}

// FetchExternalQuote fetches a quote from the external provider. Only used as
// a late fallback stage; callers must tolerate failure.
func (s *Service) FetchExternalQuote(ctx context.Context) (models.Quote, error) {
	if s.external == nil {
		return models.Quote{}, errors.New("external quote provider not configured")
	}
	return s.external.FetchRandomQuote(ctx)
}

// DailyQuote runs the full fallback chain: enhanced selection, plain
// selection without location, random selection, external fetch, hardcoded
// system notice. The chain always settles; the returned stage names which
// step served the result.
func (s *Service) DailyQuote(ctx context.Context, coord *models.Coordinate, regionHint string) (models.EnhancedQuote, string) {
	eq, stage, err := fallback.First(ctx,
		fallback.Step[models.EnhancedQuote]{Name: "enhanced", Run: func(ctx context.Context) (models.EnhancedQuote, error) {
			return s.EnhancedQuoteOfTheDay(ctx, coord, regionHint)
		}},
		fallback.Step[models.EnhancedQuote]{Name: "daily", Run: func(ctx context.Context) (models.EnhancedQuote, error) {
			q, err := s.QuoteOfTheDay(nil, "")
			if err != nil {
				return models.EnhancedQuote{}, err
			}
			return models.EnhancedQuote{Quote: q}, nil
		}},
		fallback.Step[models.EnhancedQuote]{Name: "random", Run: func(ctx context.Context) (models.EnhancedQuote, error) {
			q, err := s.RandomQuote()
			if err != nil {
				return models.EnhancedQuote{}, err
			}
			return models.EnhancedQuote{Quote: q}, nil
		}},
		fallback.Step[models.EnhancedQuote]{Name: "external", Run: func(ctx context.Context) (models.EnhancedQuote, error) {
			q, err := s.FetchExternalQuote(ctx)
			if err != nil {
				return models.EnhancedQuote{}, err
			}
			return models.EnhancedQuote{Quote: q}, nil
		}},
		fallback.Step[models.EnhancedQuote]{Name: "notice", Run: func(ctx context.Context) (models.EnhancedQuote, error) {
			return models.EnhancedQuote{Quote: noticeQuote()}, nil
		}},
	)
	if err != nil {
		// Unreachable in practice: the notice stage cannot fail.
		eq = models.EnhancedQuote{Quote: noticeQuote()}
		stage = "notice"
	}
	observability.RecordFallbackStage("quote", stage)
	if stage != "enhanced" && s.logger != nil {
		s.logger.Info("quote served via fallback", zap.String("stage", stage))
	}
	return eq, stage
}

// Search returns quotes whose text or author contains term, case-insensitive.
func (s *Service) Search(term string) []models.Quote {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}
	var out []models.Quote
	for _, q := range s.all() {
		if strings.Contains(strings.ToLower(q.Text), term) || strings.Contains(strings.ToLower(q.Author), term) {
			out = append(out, q)
		}
	}
	return out
}

// ByCategory returns quotes in the given category, case-insensitive.
func (s *Service) ByCategory(category string) []models.Quote {
	category = strings.ToLower(strings.TrimSpace(category))
	var out []models.Quote
	for _, q := range s.all() {
		if strings.ToLower(q.Category) == category {
			out = append(out, q)
		}
	}
	return out
}

// Categories returns the sorted distinct categories across the corpus.
func (s *Service) Categories() []string {
	seen := make(map[string]struct{})
	for _, q := range s.all() {
		if q.Category != "" {
			seen[q.Category] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// AddCustomQuote appends a quote to the in-memory corpus for the session.
// A missing ID is assigned; regional placement follows the quote's category
// region hint via the hint string. Returns the stored quote.
func (s *Service) AddCustomQuote(q models.Quote, regionHint string) models.Quote {
	if q.ID == "" {
		q.ID = "custom-" + uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tag := region.Classify(nil, regionHint); tag != region.TagGlobal {
		if s.regional == nil {
			s.regional = make(map[region.Tag][]models.Quote)
		}
		s.regional[tag] = append(s.regional[tag], q)
	} else {
		s.global = append(s.global, q)
	}
	return q
}

func (s *Service) all() []models.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Quote, 0, len(s.global))
	out = append(out, s.global...)
	for _, qs := range s.regional {
		out = append(out, qs...)
	}
	return out
}
