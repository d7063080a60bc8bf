package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"github.com/kovalyov-valentin/news-aggregator/internal/model"
)

type SubscriptionPostgresStorage struct {
	db *sqlx.DB
}

func NewSubscriptionStorage(db *sqlx.DB) *SubscriptionPostgresStorage {
	return &SubscriptionPostgresStorage{db: db}
}

// Subscriptions returns the stored subscriptions ordered by category.
// Categories without a row are not included.
func (s *SubscriptionPostgresStorage) Subscriptions(ctx context.Context) ([]model.Subscription, error) {
	var rows []dbSubscription
	if err := s.db.SelectContext(
		ctx,
		&rows,
		`SELECT category, topic_enabled, notifications_enabled, updated_at FROM subscriptions ORDER BY category`,
	); err != nil {
		return nil, fmt.Errorf("select subscriptions: %w", err)
	}

	return lo.Map(rows, func(row dbSubscription, _ int) model.Subscription {
		return row.toModel()
	}), nil
}

// Subscription returns the subscription for c, falling back to the default one
// when nothing is stored.
func (s *SubscriptionPostgresStorage) Subscription(ctx context.Context, c model.Category) (model.Subscription, error) {
	var row dbSubscription
	err := s.db.GetContext(
		ctx,
		&row,
		`SELECT category, topic_enabled, notifications_enabled, updated_at FROM subscriptions WHERE category = $1`,
		c.String(),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultSubscription(c), nil
	}
	if err != nil {
		return model.Subscription{}, fmt.Errorf("get subscription %s: %w", c, err)
	}

	return row.toModel(), nil
}

// Upsert stores sub and returns it with the update time set by the database.
func (s *SubscriptionPostgresStorage) Upsert(ctx context.Context, sub model.Subscription) (model.Subscription, error) {
	var updatedAt time.Time
	row := s.db.QueryRowxContext(
		ctx,
		`INSERT INTO subscriptions (category, topic_enabled, notifications_enabled, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (category) DO UPDATE SET
			topic_enabled = EXCLUDED.topic_enabled,
			notifications_enabled = EXCLUDED.notifications_enabled,
			updated_at = EXCLUDED.updated_at
		RETURNING updated_at`,
		sub.Category.String(),
		sub.TopicEnabled,
		sub.NotificationsEnabled,
	)
	if err := row.Scan(&updatedAt); err != nil {
		return model.Subscription{}, fmt.Errorf("upsert subscription %s: %w", sub.Category, err)
	}

	sub.UpdatedAt = updatedAt.UTC()
	return sub, nil
}

// Delete resets c to its default subscription.
func (s *SubscriptionPostgresStorage) Delete(ctx context.Context, c model.Category) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE category = $1`, c.String()); err != nil {
		return fmt.Errorf("delete subscription %s: %w", c, err)
	}

	return nil
}

type dbSubscription struct {
	Category             string    `db:"category"`
	TopicEnabled         bool      `db:"topic_enabled"`
	NotificationsEnabled bool      `db:"notifications_enabled"`
	UpdatedAt            time.Time `db:"updated_at"`
}

func (r dbSubscription) toModel() model.Subscription {
	return model.Subscription{
		Category:             model.Category(r.Category),
		TopicEnabled:         r.TopicEnabled,
		NotificationsEnabled: r.NotificationsEnabled,
		UpdatedAt:            r.UpdatedAt.UTC(),
	}
}
