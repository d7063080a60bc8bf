package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/kovalyov-valentin/news-aggregator/internal/fetcher"
	"github.com/kovalyov-valentin/news-aggregator/internal/model"
	"github.com/kovalyov-valentin/news-aggregator/internal/source"
)

const searchResultsLimit = 100

type ArticleProvider interface {
	Articles(ctx context.Context, q model.ArticleQuery) ([]model.Article, error)
}

type Pipeline interface {
	Refresh(ctx context.Context, userTriggered bool) error
	Search(ctx context.Context, q source.SearchQuery) error
	RefreshSearch(ctx context.Context) error
}

type Handler struct {
	articles ArticleProvider
	pipeline Pipeline
	status   *StatusObserver
	metrics  http.Handler
	log      *zap.SugaredLogger
}

// New builds the API. metrics may be nil, then /metrics is not served.
func New(articles ArticleProvider, pipeline Pipeline, status *StatusObserver, metrics http.Handler, log *zap.SugaredLogger) *Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if status == nil {
		status = NewStatusObserver()
	}

	return &Handler{
		articles: articles,
		pipeline: pipeline,
		status:   status,
		metrics:  metrics,
		log:      log,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)

	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/articles", h.ListArticles)
		r.Post("/refresh", h.Refresh)
		r.Post("/search", h.Search)
		r.Post("/search/refresh", h.RefreshSearch)
		r.Get("/status", h.Status)
	})

	return r
}

// ListArticles serves GET /articles?country=&category=&limit=.
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	q, err := parseArticleQuery(r)
	if err != nil {
		h.render(w, r, ErrInvalidRequest(err))
		return
	}

	h.renderArticles(w, r, q)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.pipeline.Refresh(r.Context(), true); err != nil {
		h.log.Errorw("refresh", "error", err)
		h.render(w, r, ErrInternal(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	data := &SearchRequest{}
	if err := render.Bind(r, data); err != nil {
		h.render(w, r, ErrInvalidRequest(err))
		return
	}

	if err := h.pipeline.Search(r.Context(), data.query()); err != nil {
		if errors.Is(err, fetcher.ErrEmptyQuery) {
			h.render(w, r, ErrInvalidRequest(err))
			return
		}
		h.render(w, r, ErrInternal(err))
		return
	}

	h.renderArticles(w, r, searchResults())
}

func (h *Handler) RefreshSearch(w http.ResponseWriter, r *http.Request) {
	if err := h.pipeline.RefreshSearch(r.Context()); err != nil {
		if errors.Is(err, fetcher.ErrNoSearch) {
			h.render(w, r, ErrNoSearch)
			return
		}
		h.render(w, r, ErrInternal(err))
		return
	}

	h.renderArticles(w, r, searchResults())
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, h.status.Status())
}

func (h *Handler) renderArticles(w http.ResponseWriter, r *http.Request, q model.ArticleQuery) {
	articles, err := h.articles.Articles(r.Context(), q)
	if err != nil {
		h.log.Errorw("list articles", "error", err)
		h.render(w, r, ErrInternal(err))
		return
	}

	if err := render.RenderList(w, r, NewArticleListResponse(articles)); err != nil {
		h.render(w, r, ErrRender(err))
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, v render.Renderer) {
	if err := render.Render(w, r, v); err != nil {
		h.log.Errorw("render response", "error", err)
	}
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()

		next.ServeHTTP(ww, r)

		h.log.Infow("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(started),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func searchResults() model.ArticleQuery {
	return model.ArticleQuery{Category: model.CategorySearch.Ptr(), Limit: searchResultsLimit}
}

func parseArticleQuery(r *http.Request) (model.ArticleQuery, error) {
	var q model.ArticleQuery
	values := r.URL.Query()

	if country := values.Get("country"); country != "" {
		q.Country = lo.ToPtr(country)
	}

	if raw := values.Get("category"); raw != "" {
		category, err := model.ParseCategory(raw)
		if err != nil {
			return q, err
		}
		q.Category = category.Ptr()
	}

	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return q, fmt.Errorf("invalid limit %q", raw)
		}
		q.Limit = limit
	}

	return q, nil
}
