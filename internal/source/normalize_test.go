package source

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap/zaptest"

	"github.com/kovalyov-valentin/news-aggregator/internal/model"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(zaptest.NewLogger(t).Sugar())

	raw := json.RawMessage(`{
		"source": {"id": null, "name": "Sky News"},
		"author": "Jane Doe",
		"title": "Headline",
		"description": null,
		"url": "https://example.com/a",
		"publishedAt": "2024-03-01T10:20:30Z"
	}`)

	a, err := n.Normalize(raw, lo.ToPtr("gb"), model.CategoryTechnology)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if a.SourceID == nil || *a.SourceID != "sky-news" {
		t.Errorf("SourceID = %v, want sky-news", a.SourceID)
	}
	if a.SourceName == nil || *a.SourceName != "Sky News" {
		t.Errorf("SourceName = %v, want Sky News", a.SourceName)
	}
	if a.Description != nil {
		t.Errorf("Description = %q, want nil", *a.Description)
	}
	if a.Content != nil || a.URLToImage != nil {
		t.Errorf("absent fields should be nil, got content=%v image=%v", a.Content, a.URLToImage)
	}

	want := model.TicksFromTime(time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC))
	if a.PublishedAt == nil || *a.PublishedAt != want {
		t.Errorf("PublishedAt = %v, want %d", a.PublishedAt, want)
	}
	if a.Country == nil || *a.Country != "gb" {
		t.Errorf("Country = %v, want gb", a.Country)
	}
	if a.Category == nil || *a.Category != model.CategoryTechnology {
		t.Errorf("Category = %v, want technology", a.Category)
	}
}

func TestNormalize_SourceID(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(nil)

	tests := []struct {
		name string
		raw  string
		want *string
	}{
		{name: "explicit id wins", raw: `{"source":{"id":"bbc-news","name":"BBC News"}}`, want: lo.ToPtr("bbc-news")},
		{name: "derived from name", raw: `{"source":{"name":"The Verge"}}`, want: lo.ToPtr("the-verge")},
		{name: "no source", raw: `{}`, want: nil},
		{name: "source not an object", raw: `{"source":"x"}`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a, err := n.Normalize(json.RawMessage(tt.raw), nil, model.CategoryGeneral)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if tt.want == nil {
				if a.SourceID != nil {
					t.Errorf("SourceID = %q, want nil", *a.SourceID)
				}
				return
			}
			if a.SourceID == nil || *a.SourceID != *tt.want {
				t.Errorf("SourceID = %v, want %s", a.SourceID, *tt.want)
			}
		})
	}
}

func TestNormalize_PublishedAt(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(nil)

	absent, err := n.Normalize(json.RawMessage(`{"title":"t"}`), nil, model.CategoryGeneral)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if absent.PublishedAt != nil {
		t.Errorf("absent PublishedAt = %d, want nil", *absent.PublishedAt)
	}

	bad, err := n.Normalize(json.RawMessage(`{"publishedAt":"yesterday"}`), nil, model.CategoryGeneral)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if bad.PublishedAt == nil || *bad.PublishedAt != UnparsedPublishedAt {
		t.Errorf("unparsable PublishedAt = %v, want %d", bad.PublishedAt, UnparsedPublishedAt)
	}

	frac, err := n.Normalize(json.RawMessage(`{"publishedAt":"2024-03-01T10:20:30.75+02:00"}`), nil, model.CategoryGeneral)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	want := model.TicksFromTime(time.Date(2024, 3, 1, 8, 20, 30, 0, time.UTC))
	if frac.PublishedAt == nil || *frac.PublishedAt != want {
		t.Errorf("fractional PublishedAt = %v, want %d", frac.PublishedAt, want)
	}
}

func TestNormalizeAll_SkipsNonObjects(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(zaptest.NewLogger(t).Sugar())

	raws := []json.RawMessage{
		json.RawMessage(`{"url":"https://a"}`),
		json.RawMessage(`"oops"`),
		json.RawMessage(`null`),
		json.RawMessage(`{"url":"https://b","author":42}`),
	}

	articles := n.NormalizeAll(raws, nil, model.CategorySearch)
	if len(articles) != 2 {
		t.Fatalf("articles = %d, want 2", len(articles))
	}
	if articles[1].Author == nil || *articles[1].Author != "42" {
		t.Errorf("numeric author = %v, want 42", articles[1].Author)
	}
	if articles[0].Country != nil {
		t.Errorf("search Country = %q, want nil", *articles[0].Country)
	}

	if _, err := n.Normalize(json.RawMessage(`[1]`), nil, model.CategoryGeneral); !errors.Is(err, ErrNotObject) {
		t.Errorf("Normalize(array) error = %v, want ErrNotObject", err)
	}
}

func TestSlugFromName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Sky News":     "sky-news",
		"BBC":          "bbc",
		"Al Jazeera E": "al-jazeera-e",
		"":             "",
	}

	for name, want := range tests {
		if got := SlugFromName(name); got != want {
			t.Errorf("SlugFromName(%q) = %q, want %q", name, got, want)
		}
	}
}
