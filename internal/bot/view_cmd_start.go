package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"

	"github.com/kovalyov-valentin/news-aggregator/internal/botkit"
	"github.com/kovalyov-valentin/news-aggregator/internal/model"
)

func ViewCmdStart() botkit.ViewFunc {
	categories := strings.Join(lo.Map(model.PersonalCategories, func(c model.Category, _ int) string {
		return c.String()
	}), ", ")

	text := strings.Join([]string{
		"News aggregator commands:",
		"",
		"/headlines [n] - latest top headlines",
		"/category <name> [n] - latest articles of a category (" + categories + ")",
		`/search {"query": "...", "from": "...", "to": "...", "in": ["title"], "language": "en"} - search articles`,
		"/subscriptions - current subscriptions",
		`/subscribe {"category": "...", "topic": true, "notify": false} - change a subscription (admins)`,
		"/refresh - refresh all feeds now (admins)",
	}, "\n")

	return func(_ context.Context, bot botkit.API, update tgbotapi.Update) error {
		return botkit.Reply(bot, update, text)
	}
}
