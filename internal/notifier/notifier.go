package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/kovalyov-valentin/news-aggregator/internal/metrics"
	"github.com/kovalyov-valentin/news-aggregator/internal/model"
)

type Kind string

const (
	KindArticle Kind = "article"
	// KindSummary closes the notifications of one category and carries no article.
	KindSummary Kind = "summary"
)

type Notification struct {
	ID       string         `json:"id"`
	Kind     Kind           `json:"kind"`
	Category model.Category `json:"category"`
	Channel  Channel        `json:"channel"`
	Article  *model.Article `json:"article,omitempty"`
	// Count is the number of article notifications a summary closes.
	Count     int       `json:"count,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Preferences interface {
	NotificationsEnabled() bool
	CategoryNotificationsEnabled(ctx context.Context, c model.Category) (bool, error)
}

// Sink delivers notifications somewhere: a chat, a topic, a log.
type Sink interface {
	Send(ctx context.Context, n Notification) error
}

// Dispatcher decides which new articles are announced and hands the
// resulting notifications to a sink.
type Dispatcher struct {
	preferences Preferences
	sink        Sink
	log         *zap.SugaredLogger
	metrics     *metrics.Metrics
	now         func() time.Time
}

func New(preferences Preferences, sink Sink, log *zap.SugaredLogger, m *metrics.Metrics) *Dispatcher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &Dispatcher{
		preferences: preferences,
		sink:        sink,
		log:         log,
		metrics:     m,
		now:         time.Now,
	}
}

// Dispatch plans notifications for articles and sends them in order. A failed
// send does not stop the remaining ones; all send errors are returned joined.
func (d *Dispatcher) Dispatch(ctx context.Context, articles []model.Article) error {
	notifications, err := d.Plan(ctx, articles)
	if err != nil {
		return err
	}

	var errs []error
	for _, n := range notifications {
		if err := d.sink.Send(ctx, n); err != nil {
			d.log.Errorw("send notification", "id", n.ID, "category", n.Category, "kind", n.Kind, "error", err)
			errs = append(errs, fmt.Errorf("send %s notification for %s: %w", n.Kind, n.Category, err))
			continue
		}
		d.metrics.ObserveNotification(n.Category.String(), string(n.Kind))
	}

	return errors.Join(errs...)
}

// Plan returns the notifications for articles without sending them.
//
// Nothing is planned when notifications are disabled globally. Otherwise the
// articles are grouped by category in order of first appearance and every
// category whose notifications are enabled yields one notification per article
// followed by one summary. Articles without a category are skipped.
func (d *Dispatcher) Plan(ctx context.Context, articles []model.Article) ([]Notification, error) {
	if !d.preferences.NotificationsEnabled() || len(articles) == 0 {
		return nil, nil
	}

	categorized := lo.Filter(articles, func(a model.Article, _ int) bool {
		return a.Category != nil
	})
	categories := lo.Uniq(lo.Map(categorized, func(a model.Article, _ int) model.Category {
		return *a.Category
	}))
	grouped := lo.GroupBy(categorized, func(a model.Article) model.Category {
		return *a.Category
	})

	var notifications []Notification
	for _, category := range categories {
		enabled, err := d.preferences.CategoryNotificationsEnabled(ctx, category)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", category, err)
		}
		if !enabled {
			continue
		}

		channel, err := ChannelFor(category)
		if err != nil {
			return nil, err
		}

		now := d.now()
		for _, article := range grouped[category] {
			notifications = append(notifications, Notification{
				ID:        uuid.NewString(),
				Kind:      KindArticle,
				Category:  category,
				Channel:   channel,
				Article:   lo.ToPtr(article),
				CreatedAt: now,
			})
		}

		notifications = append(notifications, Notification{
			ID:        uuid.NewString(),
			Kind:      KindSummary,
			Category:  category,
			Channel:   channel,
			Count:     len(grouped[category]),
			CreatedAt: now,
		})
	}

	return notifications, nil
}
