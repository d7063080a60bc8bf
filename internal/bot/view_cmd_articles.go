package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"

	"github.com/kovalyov-valentin/news-aggregator/internal/botkit"
	"github.com/kovalyov-valentin/news-aggregator/internal/botkit/markup"
	"github.com/kovalyov-valentin/news-aggregator/internal/model"
)

const (
	defaultListSize = 5
	maxListSize     = 20
)

var limitUsage = fmt.Sprintf("The number of articles must be between 1 and %d.", maxListSize)

type ArticleProvider interface {
	Articles(ctx context.Context, q model.ArticleQuery) ([]model.Article, error)
}

type CountryProvider interface {
	Country() string
}

func ViewCmdHeadlines(provider ArticleProvider, country CountryProvider) botkit.ViewFunc {
	return func(ctx context.Context, bot botkit.API, update tgbotapi.Update) error {
		limit, ok := parseLimit(strings.TrimSpace(update.Message.CommandArguments()))
		if !ok {
			return botkit.Reply(bot, update, limitUsage)
		}

		return replyArticles(ctx, bot, update, provider, model.ArticleQuery{
			Country:  lo.ToPtr(country.Country()),
			Category: model.CategoryTopHeadlines.Ptr(),
			Limit:    limit,
		})
	}
}

func ViewCmdCategory(provider ArticleProvider, country CountryProvider) botkit.ViewFunc {
	return func(ctx context.Context, bot botkit.API, update tgbotapi.Update) error {
		args := strings.Fields(update.Message.CommandArguments())
		if len(args) == 0 || len(args) > 2 {
			return botkit.Reply(bot, update, "Usage: /category <name> [n]")
		}

		category, err := model.ParseCategory(args[0])
		if err != nil || !category.IsPersonal() {
			return botkit.Reply(bot, update, fmt.Sprintf("Unknown category %q.", args[0]))
		}

		var rawLimit string
		if len(args) == 2 {
			rawLimit = args[1]
		}
		limit, ok := parseLimit(rawLimit)
		if !ok {
			return botkit.Reply(bot, update, limitUsage)
		}

		return replyArticles(ctx, bot, update, provider, model.ArticleQuery{
			Country:  lo.ToPtr(country.Country()),
			Category: category.Ptr(),
			Limit:    limit,
		})
	}
}

func replyArticles(ctx context.Context, bot botkit.API, update tgbotapi.Update, provider ArticleProvider, q model.ArticleQuery) error {
	articles, err := provider.Articles(ctx, q)
	if err != nil {
		return err
	}

	if len(articles) == 0 {
		return botkit.Reply(bot, update, "No articles yet.")
	}

	return botkit.ReplyMarkdown(bot, update, formatArticles(articles))
}

func parseLimit(raw string) (int, bool) {
	if raw == "" {
		return defaultListSize, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxListSize {
		return 0, false
	}

	return n, true
}

func formatArticles(articles []model.Article) string {
	return strings.Join(lo.Map(articles, func(a model.Article, _ int) string {
		return formatArticle(a)
	}), "\n\n")
}

func formatArticle(a model.Article) string {
	title := "Untitled"
	if a.Title != nil && *a.Title != "" {
		title = *a.Title
	}

	lines := []string{markup.Bold(title)}

	var meta []string
	if a.SourceName != nil {
		meta = append(meta, *a.SourceName)
	}
	if a.PublishedAt != nil && *a.PublishedAt > 0 {
		meta = append(meta, model.TimeFromTicks(*a.PublishedAt).Format("02 Jan 15:04 MST"))
	}
	if len(meta) > 0 {
		lines = append(lines, markup.Italic(strings.Join(meta, " · ")))
	}

	if a.URL != nil {
		lines = append(lines, markup.Link("Read more", *a.URL))
	}

	return strings.Join(lines, "\n")
}
