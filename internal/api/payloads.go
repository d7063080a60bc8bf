package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/samber/lo"

	"github.com/kovalyov-valentin/news-aggregator/internal/model"
	"github.com/kovalyov-valentin/news-aggregator/internal/source"
)

// ArticleResponse adds the decoded publish time to a stored article.
type ArticleResponse struct {
	model.Article

	Published *time.Time `json:"published,omitempty"`
}

func (a *ArticleResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	if a.PublishedAt != nil && *a.PublishedAt > 0 {
		a.Published = lo.ToPtr(model.TimeFromTicks(*a.PublishedAt))
	}
	return nil
}

func NewArticleListResponse(articles []model.Article) []render.Renderer {
	return lo.Map(articles, func(a model.Article, _ int) render.Renderer {
		return &ArticleResponse{Article: a}
	})
}

type SearchRequest struct {
	Query               string     `json:"query"`
	From                *time.Time `json:"from"`
	To                  *time.Time `json:"to"`
	SearchInTitle       bool       `json:"searchInTitle"`
	SearchInDescription bool       `json:"searchInDescription"`
	SearchInContent     bool       `json:"searchInContent"`
	Language            string     `json:"language"`
}

func (s *SearchRequest) Bind(_ *http.Request) error {
	if s.Query == "" {
		return errors.New("query is required")
	}
	if s.From != nil && s.To != nil && s.To.Before(*s.From) {
		return errors.New("to must not be before from")
	}
	return nil
}

func (s *SearchRequest) query() source.SearchQuery {
	return source.SearchQuery{
		Query:               s.Query,
		From:                s.From,
		To:                  s.To,
		SearchInTitle:       s.SearchInTitle,
		SearchInDescription: s.SearchInDescription,
		SearchInContent:     s.SearchInContent,
		Language:            s.Language,
	}
}
