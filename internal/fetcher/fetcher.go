package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kovalyov-valentin/news-aggregator/internal/metrics"
	"github.com/kovalyov-valentin/news-aggregator/internal/model"
	"github.com/kovalyov-valentin/news-aggregator/internal/source"
)

var (
	// ErrEmptyQuery is returned by Search when there is nothing to search for.
	ErrEmptyQuery = errors.New("search query is empty")
	// ErrNoSearch is returned by RefreshSearch before any search was made.
	ErrNoSearch = errors.New("no previous search to refresh")
)

type ArticleStorage interface {
	AddArticles(ctx context.Context, articles []model.Article) ([]model.Article, error)
	InsertArticles(ctx context.Context, articles []model.Article) error
	DeleteArticles(ctx context.Context, filter model.ArticleDeleteFilter) (int64, error)
}

type NewsClient interface {
	Fetch(ctx context.Context, url string) (*source.Response, error)
}

type Preferences interface {
	Country() string
	EnabledCategories(ctx context.Context) ([]model.Category, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, articles []model.Article) error
}

// Deps are the collaborators of a Fetcher. All of them are required except
// Metrics and Log.
type Deps struct {
	Articles    ArticleStorage
	Client      NewsClient
	URLs        *source.URLBuilder
	Normalizer  *source.Normalizer
	Preferences Preferences
	Dispatcher  Dispatcher
	Observers   *Observers
	Metrics     *metrics.Metrics
	Log         *zap.SugaredLogger
}

type Options struct {
	// AutoRefresh enables the background loop in Start.
	AutoRefresh     bool
	RefreshInterval time.Duration
	// Retention is how long articles are kept after publication. Zero keeps them forever.
	Retention time.Duration
	// Concurrency caps the number of feeds fetched at once. Zero means no limit.
	Concurrency int
	// Language is used for searches that do not name one.
	Language string
}

// Fetcher is the ingestion pipeline. Each feed is fetched, normalized and
// stored independently; a failing feed never affects the others.
type Fetcher struct {
	articles    ArticleStorage
	client      NewsClient
	urls        *source.URLBuilder
	normalizer  *source.Normalizer
	preferences Preferences
	dispatcher  Dispatcher
	observers   *Observers
	metrics     *metrics.Metrics
	log         *zap.SugaredLogger

	opts Options
	now  func() time.Time

	mu         sync.Mutex
	lastSearch string
}

func New(deps Deps, opts Options) *Fetcher {
	log := deps.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	observers := deps.Observers
	if observers == nil {
		observers = NewObservers()
	}
	normalizer := deps.Normalizer
	if normalizer == nil {
		normalizer = source.NewNormalizer(log)
	}

	return &Fetcher{
		articles:    deps.Articles,
		client:      deps.Client,
		urls:        deps.URLs,
		normalizer:  normalizer,
		preferences: deps.Preferences,
		dispatcher:  deps.Dispatcher,
		observers:   observers,
		metrics:     deps.Metrics,
		log:         log,
		opts:        opts,
		now:         time.Now,
	}
}

func (f *Fetcher) Attach(observer RefreshObserver) { f.observers.Attach(observer) }

func (f *Fetcher) Detach(observer RefreshObserver) { f.observers.Detach(observer) }

// Start refreshes in the background every RefreshInterval until ctx is done.
// It returns immediately when auto refresh is disabled.
func (f *Fetcher) Start(ctx context.Context) error {
	if !f.opts.AutoRefresh || f.opts.RefreshInterval <= 0 {
		f.log.Infow("auto refresh disabled")
		return nil
	}

	ticker := time.NewTicker(f.opts.RefreshInterval)
	defer ticker.Stop()

	f.backgroundRefresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			f.backgroundRefresh(ctx)
		}
	}
}

func (f *Fetcher) backgroundRefresh(ctx context.Context) {
	if err := f.Refresh(ctx, false); err != nil {
		f.log.Errorw("background refresh failed", "error", err)
	}
	if err := f.Prune(ctx); err != nil {
		f.log.Errorw("prune articles failed", "error", err)
	}
}

// Refresh fetches top headlines and every enabled personal category
// concurrently. It only fails when the preferences cannot be read; feed level
// errors are logged and counted.
func (f *Fetcher) Refresh(ctx context.Context, userTriggered bool) error {
	started := f.now()
	defer func() {
		f.metrics.ObserveRefresh(f.now().Sub(started).Seconds())
	}()

	categories, err := f.preferences.EnabledCategories(ctx)
	if err != nil {
		return fmt.Errorf("load enabled categories: %w", err)
	}
	country := f.preferences.Country()

	feeds := append([]model.Category{model.CategoryTopHeadlines}, categories...)

	var g errgroup.Group
	if f.opts.Concurrency > 0 {
		g.SetLimit(f.opts.Concurrency)
	}

	for _, category := range feeds {
		g.Go(func() error {
			f.refreshFeed(ctx, country, category, userTriggered)
			return nil
		})
	}

	return g.Wait()
}

func (f *Fetcher) refreshFeed(ctx context.Context, country string, category model.Category, userTriggered bool) {
	log := f.log.With("feed", category, "country", country)

	resp, ok := f.fetch(ctx, f.urls.TopHeadlines(country, category), category, log)
	if !ok || resp.Articles == nil {
		return
	}

	articles := f.normalizer.NormalizeAll(resp.Articles, &country, category)

	added, err := f.articles.AddArticles(ctx, articles)
	if err != nil {
		f.metrics.ObserveFeedFailure(category.String(), "storage")
		log.Errorw("store articles", "error", err)
		return
	}

	log.Debugw("feed refreshed", "received", len(articles), "added", len(added))
	if len(added) == 0 {
		return
	}
	f.metrics.ObserveInserted(category.String(), len(added))

	if err := f.dispatcher.Dispatch(ctx, added); err != nil {
		log.Errorw("dispatch notifications", "error", err)
	}

	f.observers.Notify(userTriggered)
}

// Search runs a new free-text search and remembers it for RefreshSearch.
func (f *Fetcher) Search(ctx context.Context, q source.SearchQuery) error {
	if q.Query == "" {
		return ErrEmptyQuery
	}
	if q.Language == "" {
		q.Language = f.opts.Language
	}

	url := f.urls.Everything(q)

	f.mu.Lock()
	f.lastSearch = url
	f.mu.Unlock()

	f.search(ctx, url)

	return nil
}

// RefreshSearch repeats the last search.
func (f *Fetcher) RefreshSearch(ctx context.Context) error {
	f.mu.Lock()
	url := f.lastSearch
	f.mu.Unlock()

	if url == "" {
		return ErrNoSearch
	}

	f.search(ctx, url)

	return nil
}

// search replaces the stored search results. The delete and the insert are
// separate writes, so a reader in between sees no search results.
func (f *Fetcher) search(ctx context.Context, url string) {
	log := f.log.With("feed", model.CategorySearch)

	resp, ok := f.fetch(ctx, url, model.CategorySearch, log)
	if !ok {
		return
	}

	if _, err := f.articles.DeleteArticles(ctx, model.ArticleDeleteFilter{Category: model.CategorySearch.Ptr()}); err != nil {
		f.metrics.ObserveFeedFailure(model.CategorySearch.String(), "storage")
		log.Errorw("clear previous search results", "error", err)
		return
	}

	if resp.Articles == nil {
		return
	}

	articles := f.normalizer.NormalizeAll(resp.Articles, nil, model.CategorySearch)
	if err := f.articles.InsertArticles(ctx, articles); err != nil {
		f.metrics.ObserveFeedFailure(model.CategorySearch.String(), "storage")
		log.Errorw("store search results", "error", err)
		return
	}
	f.metrics.ObserveInserted(model.CategorySearch.String(), len(articles))

	f.observers.Notify(true)
}

func (f *Fetcher) fetch(ctx context.Context, url string, category model.Category, log *zap.SugaredLogger) (*source.Response, bool) {
	resp, err := f.client.Fetch(ctx, url)
	switch {
	case errors.Is(err, source.ErrKeysExhausted):
		f.metrics.ObserveFeedFailure(category.String(), "keys_exhausted")
		log.Warnw("no data this cycle, api keys exhausted")
		return nil, false
	case err != nil:
		f.metrics.ObserveFeedFailure(category.String(), "transport")
		log.Errorw("fetch feed", "error", err)
		return nil, false
	}

	return resp, true
}

// Prune deletes articles published before the retention window.
func (f *Fetcher) Prune(ctx context.Context) error {
	if f.opts.Retention <= 0 {
		return nil
	}

	cutoff := model.TicksFromTime(f.now().Add(-f.opts.Retention))

	n, err := f.articles.DeleteArticles(ctx, model.ArticleDeleteFilter{OlderThan: &cutoff})
	if err != nil {
		return fmt.Errorf("delete old articles: %w", err)
	}
	if n > 0 {
		f.log.Infow("pruned old articles", "deleted", n)
	}

	return nil
}
