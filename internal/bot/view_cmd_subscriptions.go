package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"

	"github.com/kovalyov-valentin/news-aggregator/internal/botkit"
	"github.com/kovalyov-valentin/news-aggregator/internal/botkit/markup"
	"github.com/kovalyov-valentin/news-aggregator/internal/model"
)

const subscribeUsage = `Usage: /subscribe {"category": "sports", "topic": true, "notify": false}`

type SubscriptionStorage interface {
	Subscriptions(ctx context.Context) ([]model.Subscription, error)
	Subscription(ctx context.Context, c model.Category) (model.Subscription, error)
	Upsert(ctx context.Context, sub model.Subscription) (model.Subscription, error)
}

func ViewCmdSubscribe(storage SubscriptionStorage) botkit.ViewFunc {
	type subscribeArgs struct {
		Category string `json:"category"`
		Topic    *bool  `json:"topic"`
		Notify   *bool  `json:"notify"`
	}

	return func(ctx context.Context, bot botkit.API, update tgbotapi.Update) error {
		args, err := botkit.ParseJSON[subscribeArgs](update.Message.CommandArguments())
		if err != nil {
			return botkit.Reply(bot, update, subscribeUsage)
		}

		category, err := model.ParseCategory(args.Category)
		if err != nil || category == model.CategorySearch {
			return botkit.Reply(bot, update, fmt.Sprintf("Unknown category %q.", args.Category))
		}

		sub, err := storage.Subscription(ctx, category)
		if err != nil {
			return err
		}

		if args.Topic != nil {
			if !category.IsPersonal() {
				return botkit.Reply(bot, update, "Top headlines are always fetched, only notifications can be changed.")
			}
			sub.TopicEnabled = *args.Topic
		}
		if args.Notify != nil {
			sub.NotificationsEnabled = *args.Notify
		}

		sub, err = storage.Upsert(ctx, sub)
		if err != nil {
			return err
		}

		return botkit.ReplyMarkdown(bot, update, formatSubscription(sub))
	}
}

func ViewCmdSubscriptions(storage SubscriptionStorage) botkit.ViewFunc {
	return func(ctx context.Context, bot botkit.API, update tgbotapi.Update) error {
		stored, err := storage.Subscriptions(ctx)
		if err != nil {
			return err
		}

		byCategory := lo.KeyBy(stored, func(s model.Subscription) model.Category {
			return s.Category
		})

		lines := lo.Map(model.NotifiableCategories, func(c model.Category, _ int) string {
			sub, ok := byCategory[c]
			if !ok {
				sub = model.DefaultSubscription(c)
			}
			return formatSubscription(sub)
		})

		return botkit.ReplyMarkdown(bot, update, strings.Join(lines, "\n"))
	}
}

func formatSubscription(sub model.Subscription) string {
	return fmt.Sprintf(
		"%s topic %s, notifications %s",
		markup.Bold(sub.Category.String()),
		onOff(sub.TopicEnabled),
		onOff(sub.NotificationsEnabled),
	)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
