package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/kovalyov-valentin/news-aggregator/internal/model"
)

// ErrNotObject is returned when an entry of the articles array is not a JSON object.
var ErrNotObject = errors.New("article entry is not a json object")

// UnparsedPublishedAt is stored when publishedAt is present but cannot be parsed.
// Absent or null timestamps stay nil.
const UnparsedPublishedAt int64 = 0

// Normalizer turns raw article JSON into model.Article records.
type Normalizer struct {
	log *zap.SugaredLogger
}

func NewNormalizer(log *zap.SugaredLogger) *Normalizer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &Normalizer{log: log}
}

// Normalize converts one raw article. Missing keys and JSON nulls become nil
// fields; no field is mandatory.
func (n *Normalizer) Normalize(raw json.RawMessage, country *string, category model.Category) (model.Article, error) {
	item, err := object(raw)
	if err != nil {
		return model.Article{}, err
	}

	// A source that is missing or not an object simply yields no source fields.
	src, _ := object(item["source"])

	sourceName := stringMember(src, "name")
	sourceID := stringMember(src, "id")
	if sourceID == nil && sourceName != nil {
		sourceID = lo.ToPtr(SlugFromName(*sourceName))
	}

	return model.Article{
		SourceID:    sourceID,
		SourceName:  sourceName,
		Author:      stringMember(item, "author"),
		Title:       stringMember(item, "title"),
		Description: stringMember(item, "description"),
		Content:     stringMember(item, "content"),
		URL:         stringMember(item, "url"),
		URLToImage:  stringMember(item, "urlToImage"),
		PublishedAt: n.publishedAt(stringMember(item, "publishedAt")),
		Country:     country,
		Category:    category.Ptr(),
	}, nil
}

// NormalizeAll converts every entry of an articles array. Entries that are not
// objects are logged and skipped.
func (n *Normalizer) NormalizeAll(raws []json.RawMessage, country *string, category model.Category) []model.Article {
	articles := make([]model.Article, 0, len(raws))
	for i, raw := range raws {
		article, err := n.Normalize(raw, country, category)
		if err != nil {
			n.log.Warnw("skipping article entry", "index", i, "category", category, "error", err)
			continue
		}
		articles = append(articles, article)
	}

	return articles
}

// SlugFromName derives a source id from its display name: "Sky News" -> "sky-news".
func SlugFromName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}

func (n *Normalizer) publishedAt(raw *string) *int64 {
	if raw == nil {
		return nil
	}

	ticks, err := ParseInstant(*raw)
	if err != nil {
		n.log.Warnw("cannot parse publishedAt, storing sentinel", "value", *raw, "error", err)
		return lo.ToPtr(UnparsedPublishedAt)
	}

	return &ticks
}

// ParseInstant parses an ISO-8601 instant and returns whole-second ticks since epoch.
func ParseInstant(raw string) (int64, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parse instant %q: %w", raw, err)
	}

	return model.TicksFromTime(t), nil
}

func object(raw json.RawMessage) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotObject
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotObject, err)
	}

	return m, nil
}

// stringMember reads a scalar member as a string. Strings are unquoted, numbers
// and booleans keep their literal text, null/absent/composite values give nil.
func stringMember(m map[string]json.RawMessage, key string) *string {
	raw, ok := m[key]
	if !ok {
		return nil
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}

	switch trimmed[0] {
	case 'n', '{', '[':
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil
		}
		return &s
	default:
		return lo.ToPtr(string(trimmed))
	}
}
