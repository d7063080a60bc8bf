package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kovalyov-valentin/news-aggregator/internal/botkit"
	"github.com/kovalyov-valentin/news-aggregator/internal/fetcher"
	"github.com/kovalyov-valentin/news-aggregator/internal/model"
	"github.com/kovalyov-valentin/news-aggregator/internal/source"
)

const (
	searchResultsSize = 10
	searchUsage       = `Usage: /search {"query": "bitcoin", "from": "2024-01-01T00:00:00Z", "to": "2024-01-31T00:00:00Z", "in": ["title", "description"], "language": "en"}`
)

type Searcher interface {
	Search(ctx context.Context, q source.SearchQuery) error
}

type searchArgs struct {
	Query    string     `json:"query"`
	From     *time.Time `json:"from"`
	To       *time.Time `json:"to"`
	In       []string   `json:"in"`
	Language string     `json:"language"`
}

func (a searchArgs) toQuery() (source.SearchQuery, error) {
	q := source.SearchQuery{
		Query:    a.Query,
		From:     a.From,
		To:       a.To,
		Language: a.Language,
	}

	for _, field := range a.In {
		switch field {
		case "title":
			q.SearchInTitle = true
		case "description":
			q.SearchInDescription = true
		case "content":
			q.SearchInContent = true
		default:
			return source.SearchQuery{}, fmt.Errorf("unknown search field %q", field)
		}
	}

	return q, nil
}

func ViewCmdSearch(searcher Searcher, provider ArticleProvider) botkit.ViewFunc {
	return func(ctx context.Context, bot botkit.API, update tgbotapi.Update) error {
		args, err := botkit.ParseJSON[searchArgs](update.Message.CommandArguments())
		if err != nil {
			return botkit.Reply(bot, update, searchUsage)
		}

		q, err := args.toQuery()
		if err != nil {
			return botkit.Reply(bot, update, searchUsage)
		}

		if err := searcher.Search(ctx, q); err != nil {
			if errors.Is(err, fetcher.ErrEmptyQuery) {
				return botkit.Reply(bot, update, searchUsage)
			}
			return err
		}

		return replyArticles(ctx, bot, update, provider, model.ArticleQuery{
			Category: model.CategorySearch.Ptr(),
			Limit:    searchResultsSize,
		})
	}
}
