package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"github.com/kovalyov-valentin/news-aggregator/internal/model"
)

const (
	existsArticleQuery = `SELECT EXISTS (SELECT 1 FROM articles WHERE url IS NOT DISTINCT FROM $1 AND category = $2)`

	insertArticleQuery = `INSERT INTO articles (
		source_id, source_name, author, title, description, url, url_to_image, published_at, content, country, category
	) VALUES (
		:source_id, :source_name, :author, :title, :description, :url, :url_to_image, :published_at, :content, :country, :category
	)`
)

var articleColumns = []string{
	"source_id",
	"source_name",
	"author",
	"title",
	"description",
	"url",
	"url_to_image",
	"published_at",
	"content",
	"country",
	"category",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ArticlePostgresStorage is the only durable owner of articles.
// Writes go through one lock so that the existence check and the insert of a
// (url, category) pair cannot interleave with another writer in this process.
type ArticlePostgresStorage struct {
	db *sqlx.DB
	mu sync.Mutex
}

func NewArticleStorage(db *sqlx.DB) *ArticlePostgresStorage {
	return &ArticlePostgresStorage{db: db}
}

// AddArticles inserts every article whose (url, category) pair is not stored yet
// and returns the ones actually inserted, in input order. A nil url matches a
// stored nil url. Duplicates inside the batch are also collapsed.
func (s *ArticlePostgresStorage) AddArticles(ctx context.Context, articles []model.Article) ([]model.Article, error) {
	if len(articles) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var added []model.Article
	for _, article := range articles {
		row := toDBArticle(article)

		var exists bool
		if err := tx.GetContext(ctx, &exists, existsArticleQuery, row.URL, row.Category); err != nil {
			return nil, fmt.Errorf("check article exists: %w", err)
		}
		if exists {
			continue
		}

		if _, err := tx.NamedExecContext(ctx, insertArticleQuery, row); err != nil {
			return nil, fmt.Errorf("insert article: %w", err)
		}
		added = append(added, article)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return added, nil
}

// InsertArticles stores every article without a dedup check.
func (s *ArticlePostgresStorage) InsertArticles(ctx context.Context, articles []model.Article) error {
	if len(articles) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, article := range articles {
		if _, err := tx.NamedExecContext(ctx, insertArticleQuery, toDBArticle(article)); err != nil {
			return fmt.Errorf("insert article: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// Articles returns matching rows, most recent first. Rows without a publish
// time come last.
func (s *ArticlePostgresStorage) Articles(ctx context.Context, q model.ArticleQuery) ([]model.Article, error) {
	builder := psql.Select(articleColumns...).From("articles")
	if q.Country != nil {
		builder = builder.Where(sq.Eq{"country": *q.Country})
	}
	if q.Category != nil {
		builder = builder.Where(sq.Eq{"category": q.Category.String()})
	}
	builder = builder.OrderBy("published_at DESC NULLS LAST")
	if q.Limit > 0 {
		builder = builder.Limit(uint64(q.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build articles query: %w", err)
	}

	var rows []dbArticle
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select articles: %w", err)
	}

	return lo.Map(rows, func(row dbArticle, _ int) model.Article {
		return row.toModel()
	}), nil
}

// DeleteArticles removes matching rows and returns how many were removed.
func (s *ArticlePostgresStorage) DeleteArticles(ctx context.Context, f model.ArticleDeleteFilter) (int64, error) {
	builder := psql.Delete("articles")
	if f.Country != nil {
		builder = builder.Where(sq.Eq{"country": *f.Country})
	}
	if f.Category != nil {
		builder = builder.Where(sq.Eq{"category": f.Category.String()})
	}
	if f.OlderThan != nil {
		builder = builder.Where(sq.Lt{"published_at": *f.OlderThan})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete query: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete articles: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	return n, nil
}

type dbArticle struct {
	SourceID    sql.NullString `db:"source_id"`
	SourceName  sql.NullString `db:"source_name"`
	Author      sql.NullString `db:"author"`
	Title       sql.NullString `db:"title"`
	Description sql.NullString `db:"description"`
	URL         sql.NullString `db:"url"`
	URLToImage  sql.NullString `db:"url_to_image"`
	PublishedAt sql.NullInt64  `db:"published_at"`
	Content     sql.NullString `db:"content"`
	Country     sql.NullString `db:"country"`
	Category    string         `db:"category"`
}

func toDBArticle(a model.Article) dbArticle {
	row := dbArticle{
		SourceID:    nullString(a.SourceID),
		SourceName:  nullString(a.SourceName),
		Author:      nullString(a.Author),
		Title:       nullString(a.Title),
		Description: nullString(a.Description),
		URL:         nullString(a.URL),
		URLToImage:  nullString(a.URLToImage),
		Content:     nullString(a.Content),
		Country:     nullString(a.Country),
	}
	if a.PublishedAt != nil {
		row.PublishedAt = sql.NullInt64{Int64: *a.PublishedAt, Valid: true}
	}
	if a.Category != nil {
		row.Category = a.Category.String()
	}

	return row
}

func (r dbArticle) toModel() model.Article {
	a := model.Article{
		SourceID:    stringPtr(r.SourceID),
		SourceName:  stringPtr(r.SourceName),
		Author:      stringPtr(r.Author),
		Title:       stringPtr(r.Title),
		Description: stringPtr(r.Description),
		URL:         stringPtr(r.URL),
		URLToImage:  stringPtr(r.URLToImage),
		Content:     stringPtr(r.Content),
		Country:     stringPtr(r.Country),
		Category:    model.Category(r.Category).Ptr(),
	}
	if r.PublishedAt.Valid {
		a.PublishedAt = lo.ToPtr(r.PublishedAt.Int64)
	}

	return a
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}

	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}

	return lo.ToPtr(s.String)
}
