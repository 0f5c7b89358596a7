// Package feed drives paginated news retrieval for reading clients: search,
// infinite scroll, client-side filters and favorites.
package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mkovalev/newsstand/internal/news"
)

// Pagination limits. A query session never requests beyond MaxResults
// articles regardless of what the upstream reports.
const (
	PageSize   = 10
	MaxResults = 100
)

// Page is one normalized page of results.
type Page struct {
	Articles     []news.Article
	TotalResults int
}

// Source fetches a normalized page for (query, page).
type Source interface {
	FetchPage(ctx context.Context, query string, page int) (Page, error)
}

// Filters restrict fetched pages client-side. They apply only to pages
// fetched after they are set, never retroactively to accumulated results.
type Filters struct {
	SourceName string
	DateFrom   time.Time
	DateTo     time.Time
}

// FilterPatch is a partial filter update; nil fields keep the current value.
type FilterPatch struct {
	SourceName *string
	DateFrom   *time.Time
	DateTo     *time.Time
}

func (f Filters) matches(a news.Article) bool {
	if f.SourceName != "" && a.SourceName != f.SourceName {
		return false
	}
	if !f.DateFrom.IsZero() && (a.PublishedAt.IsZero() || a.PublishedAt.Before(f.DateFrom)) {
		return false
	}
	if !f.DateTo.IsZero() && (a.PublishedAt.IsZero() || a.PublishedAt.After(f.DateTo)) {
		return false
	}
	return true
}

// Snapshot is a point-in-time copy of the orchestrator state for rendering.
type Snapshot struct {
	Articles     []news.Article
	Loading      bool
	HasMore      bool
	Err          string
	CurrentPage  int
	TotalResults int
}

// Orchestrator turns a (term, filters) pair into a growing, de-duplicated
// article list with ceiling enforcement and failure recovery. Every fetch is
// tagged with the generation current at dispatch; a response resolving under
// a stale generation is discarded, so a search issued while another fetch is
// in flight can never pollute the new result set.
type Orchestrator struct {
	source Source
	logger *zap.Logger

	mu           sync.Mutex
	term         string
	filters      Filters
	generation   uint64
	currentPage  int
	articles     []news.Article
	seen         map[string]struct{}
	rawCount     int
	totalResults int
	loading      bool
	hasMore      bool
	errMsg       string
}

// NewOrchestrator constructs an Orchestrator over source.
func NewOrchestrator(source Source, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		source:  source,
		logger:  logger,
		seen:    make(map[string]struct{}),
		hasMore: true,
	}
}

// Search replaces the term, clears the accumulated results and fetches the
// first page.
func (o *Orchestrator) Search(ctx context.Context, term string) error {
	o.mu.Lock()
	o.term = term
	o.resetLocked()
	o.mu.Unlock()
	return o.fetchPage(ctx, 1, true)
}

// SetFilters merges the patch into the current filters and refetches from
// page one, like a new search.
func (o *Orchestrator) SetFilters(ctx context.Context, patch FilterPatch) error {
	o.mu.Lock()
	if patch.SourceName != nil {
		o.filters.SourceName = *patch.SourceName
	}
	if patch.DateFrom != nil {
		o.filters.DateFrom = *patch.DateFrom
	}
	if patch.DateTo != nil {
		o.filters.DateTo = *patch.DateTo
	}
	o.resetLocked()
	o.mu.Unlock()
	return o.fetchPage(ctx, 1, true)
}

// LoadMore fetches the next page. It is a no-op while a fetch is in flight,
// when no more results remain, or at the result ceiling.
func (o *Orchestrator) LoadMore(ctx context.Context) error {
	o.mu.Lock()
	if o.loading || !o.hasMore || o.currentPage*PageSize >= MaxResults {
		o.mu.Unlock()
		return nil
	}
	page := o.currentPage + 1
	o.mu.Unlock()
	return o.fetchPage(ctx, page, false)
}

// Retry re-runs the current term as a fresh search.
func (o *Orchestrator) Retry(ctx context.Context) error {
	o.mu.Lock()
	term := o.term
	o.mu.Unlock()
	return o.Search(ctx, term)
}

// Loading reports whether a fetch is in flight.
func (o *Orchestrator) Loading() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.loading
}

// State returns a copy of the current orchestrator state.
func (o *Orchestrator) State() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	articles := make([]news.Article, len(o.articles))
	copy(articles, o.articles)
	return Snapshot{
		Articles:     articles,
		Loading:      o.loading,
		HasMore:      o.hasMore,
		Err:          o.errMsg,
		CurrentPage:  o.currentPage,
		TotalResults: o.totalResults,
	}
}

// resetLocked starts a new query session. Bumping the generation orphans any
// in-flight fetch.
func (o *Orchestrator) resetLocked() {
	o.generation++
	o.currentPage = 0
	o.articles = nil
	o.seen = make(map[string]struct{})
	o.rawCount = 0
	o.totalResults = 0
	o.hasMore = true
	o.errMsg = ""
}

func (o *Orchestrator) fetchPage(ctx context.Context, page int, isNew bool) error {
	o.mu.Lock()
	if (page-1)*PageSize >= MaxResults {
		o.hasMore = false
		o.mu.Unlock()
		return nil
	}
	if !isNew && o.loading {
		o.mu.Unlock()
		return nil
	}
	o.loading = true
	o.errMsg = ""
	gen := o.generation
	term := o.term
	filters := o.filters
	o.mu.Unlock()

	result, err := o.source.FetchPage(ctx, term, page)

	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.generation {
		o.logger.Debug("discarding stale page",
			zap.String("term", term),
			zap.Int("page", page),
		)
		return nil
	}
	o.loading = false

	if err != nil {
		o.errMsg = humanMessage(err)
		o.hasMore = false
		if isNew {
			o.articles = nil
			o.seen = make(map[string]struct{})
			o.rawCount = 0
		}
		return err
	}

	rawLen := len(result.Articles)
	o.rawCount += rawLen
	o.totalResults = result.TotalResults
	if isNew {
		o.articles = nil
		o.seen = make(map[string]struct{})
	}
	for _, a := range result.Articles {
		if !filters.matches(a) {
			continue
		}
		if _, dup := o.seen[a.ID]; dup {
			continue
		}
		o.seen[a.ID] = struct{}{}
		o.articles = append(o.articles, a)
	}

	limit := result.TotalResults
	if limit > MaxResults {
		limit = MaxResults
	}
	o.hasMore = rawLen == PageSize && o.rawCount < limit
	o.currentPage = page
	return nil
}

// humanMessage collapses the error taxonomy into user-facing text; raw
// errors never reach rendering code.
func humanMessage(err error) string {
	switch {
	case errors.Is(err, news.ErrRateLimited):
		return "Rate limit exceeded. Please try again later."
	case errors.Is(err, news.ErrUnauthorized):
		return "The news service is misconfigured. Contact the administrator."
	case errors.Is(err, news.ErrMalformed):
		return "Failed to load news. Please try again."
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, news.ErrUnavailable):
		return "Cannot reach the news service. Check your connection and retry."
	default:
		return "Failed to load news. Please try again."
	}
}
