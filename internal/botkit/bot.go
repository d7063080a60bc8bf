package botkit

import (
	"context"
	"runtime/debug"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const updateTimeout = 30 * time.Second

// API is the part of the Telegram client the views use.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetChatAdministrators(config tgbotapi.ChatAdministratorsConfig) ([]tgbotapi.ChatMember, error)
}

// ViewFunc reacts to one command.
type ViewFunc func(ctx context.Context, bot API, update tgbotapi.Update) error

type Bot struct {
	api      *tgbotapi.BotAPI
	cmdViews map[string]ViewFunc
	log      *zap.SugaredLogger
}

func New(api *tgbotapi.BotAPI, log *zap.SugaredLogger) *Bot {
	return &Bot{
		api:      api,
		cmdViews: make(map[string]ViewFunc),
		log:      log,
	}
}

func (b *Bot) RegisterCmdView(cmd string, view ViewFunc) {
	b.cmdViews[cmd] = view
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case update := <-updates:
			updateCtx, updateCancel := context.WithTimeout(ctx, updateTimeout)
			b.handleUpdate(updateCtx, b.api, update)
			updateCancel()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, api API, update tgbotapi.Update) {
	defer func() {
		if p := recover(); p != nil {
			b.log.Errorw("panic recovered", "panic", p, "stack", string(debug.Stack()))
		}
	}()

	if update.Message == nil || !update.Message.IsCommand() {
		return
	}

	cmd := update.Message.Command()

	view, ok := b.cmdViews[cmd]
	if !ok {
		return
	}

	if err := view(ctx, api, update); err != nil {
		b.log.Errorw("failed to handle update", "command", cmd, "error", err)

		if _, err := api.Send(tgbotapi.NewMessage(update.Message.Chat.ID, "internal error")); err != nil {
			b.log.Errorw("failed to send message", "error", err)
		}
	}
}
