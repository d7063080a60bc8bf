package notifier

import (
	"fmt"

	"github.com/kovalyov-valentin/news-aggregator/internal/model"
)

const (
	channelIDBase = "newsaggregator.notification.channel"
	groupIDBase   = "newsaggregator.notification.group"

	ChannelGroupTopHeadlines = "notification-group-top-headlines"
	ChannelGroupMyNews       = "notification-group-my-news"
)

// Channel is where the notifications of one category are delivered.
type Channel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Group is the channel group shown to the user: top headlines or my news.
	Group string `json:"group"`
	// GroupKey ties the article notifications of a category to its summary.
	GroupKey string `json:"group_key"`
}

// ChannelFor maps a category to its channel. Categories without a channel,
// search included, are a configuration error.
func ChannelFor(c model.Category) (Channel, error) {
	var name string

	switch c {
	case model.CategoryTopHeadlines:
		name = "Top Headlines"
	case model.CategoryGeneral:
		name = "General"
	case model.CategoryBusiness:
		name = "Business"
	case model.CategoryTechnology:
		name = "Technology"
	case model.CategoryScience:
		name = "Science"
	case model.CategoryHealth:
		name = "Health"
	case model.CategoryEntertainment:
		name = "Entertainment"
	case model.CategorySports:
		name = "Sports"
	default:
		return Channel{}, fmt.Errorf("%w: no notification channel for %q", model.ErrUnsupportedCategory, c)
	}

	group := ChannelGroupMyNews
	if c == model.CategoryTopHeadlines {
		group = ChannelGroupTopHeadlines
	}

	return Channel{
		ID:       channelIDBase + "." + c.String(),
		Name:     name,
		Group:    group,
		GroupKey: groupIDBase + "." + c.String(),
	}, nil
}
