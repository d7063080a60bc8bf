package model

import "time"

// TicksPerSecond is the number of 100ns ticks in one second.
const TicksPerSecond int64 = 10_000_000

// Article is the canonical record produced from one news API article.
// Every field is optional; Category is always set on stored rows.
type Article struct {
	SourceID    *string `json:"sourceId"`
	SourceName  *string `json:"sourceName"`
	Author      *string `json:"author"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Content     *string `json:"content"`
	// URL together with Category forms the dedup key.
	URL        *string `json:"url"`
	URLToImage *string `json:"urlToImage"`
	// PublishedAt is in ticks since the Unix epoch, whole-second resolution.
	PublishedAt *int64 `json:"publishedAt"`
	// Country is nil for search results.
	Country  *string   `json:"country"`
	Category *Category `json:"category"`
}

// TicksFromTime converts t to ticks, dropping sub-second precision.
func TicksFromTime(t time.Time) int64 {
	return t.Unix() * TicksPerSecond
}

// TimeFromTicks converts ticks since epoch back to a UTC time.
func TimeFromTicks(ticks int64) time.Time {
	return time.Unix(ticks/TicksPerSecond, 0).UTC()
}

// DedupKey is the (url, category) pair used to decide whether an article is new.
type DedupKey struct {
	URL      string
	HasURL   bool
	Category Category
}

func (a Article) DedupKey() DedupKey {
	key := DedupKey{}
	if a.URL != nil {
		key.URL = *a.URL
		key.HasURL = true
	}
	if a.Category != nil {
		key.Category = *a.Category
	}

	return key
}

// ArticleQuery filters the read path. Nil fields match everything; Limit <= 0 means no limit.
type ArticleQuery struct {
	Country  *string
	Category *Category
	Limit    int
}

// ArticleDeleteFilter selects rows to delete. OlderThan is in ticks and matches
// rows published strictly before it. An empty filter matches every row.
type ArticleDeleteFilter struct {
	Country   *string
	Category  *Category
	OlderThan *int64
}
