package model

import "time"

// Subscription holds the user's choices for one category.
// A category without a stored subscription is treated as fully enabled.
type Subscription struct {
	Category Category
	// TopicEnabled controls whether a personal category is fetched at all.
	TopicEnabled bool
	// NotificationsEnabled controls whether new articles of the category are announced.
	NotificationsEnabled bool
	UpdatedAt            time.Time
}

// DefaultSubscription returns the subscription used when nothing is stored for c.
func DefaultSubscription(c Category) Subscription {
	return Subscription{
		Category:             c,
		TopicEnabled:         true,
		NotificationsEnabled: true,
	}
}
