package middleware

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kovalyov-valentin/news-aggregator/internal/botkit"
)

type fakeAPI struct {
	admins []tgbotapi.ChatMember
	sent   []string
	chatID int64
}

func (a *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		a.sent = append(a.sent, msg.Text)
	}
	return tgbotapi.Message{}, nil
}

func (a *fakeAPI) GetChatAdministrators(cfg tgbotapi.ChatAdministratorsConfig) ([]tgbotapi.ChatMember, error) {
	a.chatID = cfg.ChatID
	return a.admins, nil
}

func update(fromID int64) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text: "/refresh",
		Chat: &tgbotapi.Chat{ID: 1},
		From: &tgbotapi.User{ID: fromID},
	}}
}

func TestAdminOnly(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{admins: []tgbotapi.ChatMember{{User: &tgbotapi.User{ID: 100}}}}

	var called int
	view := AdminOnly(-1001, func(context.Context, botkit.API, tgbotapi.Update) error {
		called++
		return nil
	})

	if err := view(context.Background(), api, update(100)); err != nil {
		t.Fatalf("admin call error = %v", err)
	}
	if called != 1 {
		t.Errorf("admin call: next called %d times, want 1", called)
	}
	if api.chatID != -1001 {
		t.Errorf("administrators requested for chat %d, want -1001", api.chatID)
	}

	if err := view(context.Background(), api, update(200)); err != nil {
		t.Fatalf("non-admin call error = %v", err)
	}
	if called != 1 {
		t.Errorf("non-admin call reached next")
	}
	if len(api.sent) != 1 {
		t.Errorf("non-admin got %d replies, want 1", len(api.sent))
	}
}
