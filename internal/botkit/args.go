package botkit

import (
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ParseJSON decodes command arguments written as a JSON object.
func ParseJSON[T any](src string) (T, error) {
	var args T

	if err := json.Unmarshal([]byte(src), &args); err != nil {
		return args, fmt.Errorf("parse command arguments: %w", err)
	}

	return args, nil
}

// ReplyMarkdown answers the message of update with a MarkdownV2 text.
func ReplyMarkdown(bot API, update tgbotapi.Update, text string) error {
	reply := tgbotapi.NewMessage(update.Message.Chat.ID, text)
	reply.ParseMode = tgbotapi.ModeMarkdownV2
	reply.DisableWebPagePreview = true

	if _, err := bot.Send(reply); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}

	return nil
}

// Reply answers the message of update with plain text.
func Reply(bot API, update tgbotapi.Update, text string) error {
	if _, err := bot.Send(tgbotapi.NewMessage(update.Message.Chat.ID, text)); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}

	return nil
}
