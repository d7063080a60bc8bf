package source

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kovalyov-valentin/news-aggregator/internal/model"
)

const (
	DefaultBaseURL = "https://newsapi.org"

	topHeadlinesPath = "/v2/top-headlines"
	everythingPath   = "/v2/everything"

	// LanguageAll disables the language filter.
	LanguageAll = "all"
)

// SearchQuery describes one free-text search.
type SearchQuery struct {
	Query string
	// From and To are only sent when both are set.
	From                *time.Time
	To                  *time.Time
	SearchInTitle       bool
	SearchInDescription bool
	SearchInContent     bool
	Language            string
}

// URLBuilder composes request URLs for a news API base address.
type URLBuilder struct {
	base *url.URL
}

func NewURLBuilder(baseURL string) (*URLBuilder, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	parsed, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid news api base url %s: %w", baseURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid news api base url %s: scheme and host are required", baseURL)
	}

	return &URLBuilder{base: parsed}, nil
}

// TopHeadlines builds the headline feed URL. An empty or top-headlines category
// is left out of the query.
func (b *URLBuilder) TopHeadlines(country string, category model.Category) string {
	query := url.Values{}
	query.Set("country", country)
	if category != "" && category != model.CategoryTopHeadlines {
		query.Set("category", category.String())
	}

	return b.build(topHeadlinesPath, query)
}

// Everything builds the free-text search URL.
func (b *URLBuilder) Everything(q SearchQuery) string {
	query := url.Values{}
	query.Set("q", q.Query)

	if q.From != nil && q.To != nil {
		query.Set("from", formatInstant(*q.From))
		query.Set("to", formatInstant(*q.To))
	}

	if searchIn, ok := SearchIn(q.SearchInTitle, q.SearchInDescription, q.SearchInContent); ok {
		query.Set("searchIn", searchIn)
	}

	if q.Language != "" && q.Language != LanguageAll {
		query.Set("language", q.Language)
	}

	return b.build(everythingPath, query)
}

// SearchIn returns the searchIn parameter for the given flags. The parameter is
// omitted (ok == false) when all three flags or none of them are set.
func SearchIn(title, description, content bool) (string, bool) {
	var fields []string
	if title {
		fields = append(fields, "title")
	}
	if description {
		fields = append(fields, "description")
	}
	if content {
		fields = append(fields, "content")
	}

	if len(fields) == 0 || len(fields) == 3 {
		return "", false
	}

	return strings.Join(fields, ","), true
}

func (b *URLBuilder) build(path string, query url.Values) string {
	u := *b.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	// Encode sorts keys, so equal queries give equal URLs.
	u.RawQuery = query.Encode()

	return u.String()
}

func formatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
