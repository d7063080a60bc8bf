package source

import (
	"net/url"
	"testing"
	"time"

	"github.com/kovalyov-valentin/news-aggregator/internal/model"
)

func mustBuilder(t *testing.T, base string) *URLBuilder {
	t.Helper()

	b, err := NewURLBuilder(base)
	if err != nil {
		t.Fatalf("NewURLBuilder(%q) error = %v", base, err)
	}
	return b
}

func mustQuery(t *testing.T, raw string) url.Values {
	t.Helper()

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("url.Parse(%q) error = %v", raw, err)
	}
	return u.Query()
}

func TestTopHeadlines(t *testing.T) {
	t.Parallel()

	b := mustBuilder(t, "https://newsapi.org/")

	if got, want := b.TopHeadlines("gb", model.CategoryTopHeadlines), "https://newsapi.org/v2/top-headlines?country=gb"; got != want {
		t.Errorf("TopHeadlines() = %q, want %q", got, want)
	}
	if got, want := b.TopHeadlines("us", model.CategorySports), "https://newsapi.org/v2/top-headlines?category=sports&country=us"; got != want {
		t.Errorf("TopHeadlines() = %q, want %q", got, want)
	}
}

func TestEverything(t *testing.T) {
	t.Parallel()

	b := mustBuilder(t, "")
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 12, 0, 0, 0, time.FixedZone("CET", 3600))

	t.Run("full query", func(t *testing.T) {
		t.Parallel()

		q := mustQuery(t, b.Everything(SearchQuery{
			Query:         "bitcoin price",
			From:          &from,
			To:            &to,
			SearchInTitle: true,
			Language:      "en",
		}))

		if q.Get("q") != "bitcoin price" {
			t.Errorf("q = %q", q.Get("q"))
		}
		if q.Get("from") != "2024-01-01T00:00:00Z" || q.Get("to") != "2024-01-31T11:00:00Z" {
			t.Errorf("from/to = %q/%q", q.Get("from"), q.Get("to"))
		}
		if q.Get("searchIn") != "title" {
			t.Errorf("searchIn = %q, want title", q.Get("searchIn"))
		}
		if q.Get("language") != "en" {
			t.Errorf("language = %q, want en", q.Get("language"))
		}
	})

	t.Run("optional parts omitted", func(t *testing.T) {
		t.Parallel()

		q := mustQuery(t, b.Everything(SearchQuery{
			Query:    "golang",
			From:     &from,
			Language: LanguageAll,
		}))

		for _, key := range []string{"from", "to", "searchIn", "language"} {
			if q.Has(key) {
				t.Errorf("%s should be omitted, got %q", key, q.Get(key))
			}
		}
	})
}

func TestSearchIn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		title, description, content bool
		want                        string
		ok                          bool
	}{
		{false, false, false, "", false},
		{true, true, true, "", false},
		{true, false, false, "title", true},
		{false, true, true, "description,content", true},
		{true, false, true, "title,content", true},
	}

	for _, tt := range tests {
		got, ok := SearchIn(tt.title, tt.description, tt.content)
		if got != tt.want || ok != tt.ok {
			t.Errorf("SearchIn(%v, %v, %v) = %q, %v; want %q, %v",
				tt.title, tt.description, tt.content, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNewURLBuilder_Invalid(t *testing.T) {
	t.Parallel()

	for _, base := range []string{"newsapi.org", "://bad"} {
		if _, err := NewURLBuilder(base); err == nil {
			t.Errorf("NewURLBuilder(%q) error = nil, want error", base)
		}
	}
}
