package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kovalyov-valentin/news-aggregator/internal/model"
)

func TestSubscription_DefaultsWhenMissing(t *testing.T) {
	db, mock := newMock(t)
	s := NewSubscriptionStorage(db)

	mock.ExpectQuery(`FROM subscriptions WHERE category = \$1`).
		WithArgs("sports").
		WillReturnRows(sqlmock.NewRows([]string{"category", "topic_enabled", "notifications_enabled", "updated_at"}))

	sub, err := s.Subscription(context.Background(), model.CategorySports)
	if err != nil {
		t.Fatalf("Subscription() error = %v", err)
	}
	if sub != model.DefaultSubscription(model.CategorySports) {
		t.Errorf("Subscription() = %+v, want default", sub)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSubscription_Stored(t *testing.T) {
	db, mock := newMock(t)
	s := NewSubscriptionStorage(db)

	updated := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM subscriptions WHERE category = \$1`).
		WithArgs("health").
		WillReturnRows(sqlmock.NewRows([]string{"category", "topic_enabled", "notifications_enabled", "updated_at"}).
			AddRow("health", true, false, updated))

	sub, err := s.Subscription(context.Background(), model.CategoryHealth)
	if err != nil {
		t.Fatalf("Subscription() error = %v", err)
	}
	if !sub.TopicEnabled || sub.NotificationsEnabled {
		t.Errorf("Subscription() = %+v, want topic on and notifications off", sub)
	}
	if !sub.UpdatedAt.Equal(updated) {
		t.Errorf("UpdatedAt = %v, want %v", sub.UpdatedAt, updated)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsert(t *testing.T) {
	db, mock := newMock(t)
	s := NewSubscriptionStorage(db)

	updated := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO subscriptions`).
		WithArgs("business", false, true).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(updated))

	sub, err := s.Upsert(context.Background(), model.Subscription{
		Category:             model.CategoryBusiness,
		TopicEnabled:         false,
		NotificationsEnabled: true,
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if !sub.UpdatedAt.Equal(updated) {
		t.Errorf("UpdatedAt = %v, want %v", sub.UpdatedAt, updated)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSubscriptions(t *testing.T) {
	db, mock := newMock(t)
	s := NewSubscriptionStorage(db)

	now := time.Now().UTC()
	mock.ExpectQuery(`FROM subscriptions ORDER BY category`).
		WillReturnRows(sqlmock.NewRows([]string{"category", "topic_enabled", "notifications_enabled", "updated_at"}).
			AddRow("business", false, false, now).
			AddRow("sports", true, true, now))

	subs, err := s.Subscriptions(context.Background())
	if err != nil {
		t.Fatalf("Subscriptions() error = %v", err)
	}
	if len(subs) != 2 || subs[0].Category != model.CategoryBusiness || subs[1].Category != model.CategorySports {
		t.Fatalf("Subscriptions() = %+v", subs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
