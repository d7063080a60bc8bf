package middleware

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kovalyov-valentin/news-aggregator/internal/botkit"
)

// AdminOnly lets the command through only for administrators of channelID.
func AdminOnly(channelID int64, next botkit.ViewFunc) botkit.ViewFunc {
	return func(ctx context.Context, bot botkit.API, update tgbotapi.Update) error {
		admins, err := bot.GetChatAdministrators(
			tgbotapi.ChatAdministratorsConfig{
				ChatConfig: tgbotapi.ChatConfig{
					ChatID: channelID,
				},
			},
		)
		if err != nil {
			return fmt.Errorf("get chat administrators: %w", err)
		}

		if update.Message.From != nil {
			for _, admin := range admins {
				if admin.User != nil && admin.User.ID == update.Message.From.ID {
					return next(ctx, bot, update)
				}
			}
		}

		return botkit.Reply(bot, update, "You are not allowed to run this command.")
	}
}
