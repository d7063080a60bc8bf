package preferences

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/tomakado/containers/set"

	"github.com/kovalyov-valentin/news-aggregator/internal/model"
)

type SubscriptionProvider interface {
	Subscription(ctx context.Context, c model.Category) (model.Subscription, error)
}

// Preferences combines the static choices from the config file with the
// per-category subscriptions stored in the database.
type Preferences struct {
	country              string
	categories           []model.Category
	notificationsEnabled bool
	subscriptions        SubscriptionProvider
}

var notifiable = set.New(model.NotifiableCategories...)

func New(country string, categories []model.Category, notificationsEnabled bool, subs SubscriptionProvider) *Preferences {
	return &Preferences{
		country:              country,
		categories:           categories,
		notificationsEnabled: notificationsEnabled,
		subscriptions:        subs,
	}
}

// ParseCategories validates the configured personal categories, drops
// duplicates and returns them in canonical fetch order.
func ParseCategories(raw []string) ([]model.Category, error) {
	configured := make([]model.Category, 0, len(raw))
	for _, name := range raw {
		c, err := model.ParseCategory(name)
		if err != nil {
			return nil, err
		}
		if !c.IsPersonal() {
			return nil, fmt.Errorf("%w: %q is not a personal category", model.ErrUnsupportedCategory, name)
		}
		configured = append(configured, c)
	}

	wanted := set.New(configured...)

	return lo.Filter(model.PersonalCategories, func(c model.Category, _ int) bool {
		return wanted.Contains(c)
	}), nil
}

func (p *Preferences) Country() string {
	return p.country
}

// EnabledCategories returns the configured personal categories whose topic
// has not been switched off.
func (p *Preferences) EnabledCategories(ctx context.Context) ([]model.Category, error) {
	enabled := make([]model.Category, 0, len(p.categories))
	for _, c := range p.categories {
		sub, err := p.subscriptions.Subscription(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("load subscription: %w", err)
		}
		if sub.TopicEnabled {
			enabled = append(enabled, c)
		}
	}

	return enabled, nil
}

func (p *Preferences) NotificationsEnabled() bool {
	return p.notificationsEnabled
}

// CategoryNotificationsEnabled fails with model.ErrUnsupportedCategory for
// categories that have no notification channel, search included.
func (p *Preferences) CategoryNotificationsEnabled(ctx context.Context, c model.Category) (bool, error) {
	if !notifiable.Contains(c) {
		return false, fmt.Errorf("%w: no notification channel for %q", model.ErrUnsupportedCategory, c)
	}

	sub, err := p.subscriptions.Subscription(ctx, c)
	if err != nil {
		return false, fmt.Errorf("load subscription: %w", err)
	}

	return sub.NotificationsEnabled, nil
}
