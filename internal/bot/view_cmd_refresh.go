package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kovalyov-valentin/news-aggregator/internal/botkit"
)

type Refresher interface {
	Refresh(ctx context.Context, userTriggered bool) error
}

func ViewCmdRefresh(refresher Refresher) botkit.ViewFunc {
	return func(ctx context.Context, bot botkit.API, update tgbotapi.Update) error {
		if err := refresher.Refresh(ctx, true); err != nil {
			return err
		}

		return botkit.Reply(bot, update, "Feeds refreshed.")
	}
}
