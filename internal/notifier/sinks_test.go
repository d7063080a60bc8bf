package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap/zaptest"

	"github.com/kovalyov-valentin/news-aggregator/internal/model"
)

type fakeSender struct {
	messages []tgbotapi.MessageConfig
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, errors.New("unexpected chattable")
	}
	s.messages = append(s.messages, msg)
	return tgbotapi.Message{}, nil
}

type fakeSummarizer struct {
	got string
}

func (s *fakeSummarizer) Summarize(_ context.Context, text string) (string, error) {
	s.got = text
	return "Short summary.", nil
}

func TestTelegramSink_Article(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	sink := NewTelegramSink(sender, 42, nil, zaptest.NewLogger(t).Sugar())

	channel, _ := ChannelFor(model.CategoryScience)
	err := sink.Send(context.Background(), Notification{
		Kind:     KindArticle,
		Category: model.CategoryScience,
		Channel:  channel,
		Article: &model.Article{
			Title:       lo.ToPtr("Mars rover finds water"),
			Description: lo.ToPtr("<p>NASA says <b>ice</b> was found.</p>"),
			SourceName:  lo.ToPtr("BBC News"),
			URL:         lo.ToPtr("https://example.com/mars"),
		},
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(sender.messages) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.messages))
	}

	msg := sender.messages[0]
	if msg.ChatID != 42 {
		t.Errorf("ChatID = %d, want 42", msg.ChatID)
	}
	if msg.ParseMode != tgbotapi.ModeMarkdownV2 {
		t.Errorf("ParseMode = %q", msg.ParseMode)
	}
	if !msg.DisableNotification {
		t.Error("article message should be silent")
	}
	for _, want := range []string{"*Mars rover finds water*", "NASA says ice was found\\.", "_BBC News_", "[Read more](https://example.com/mars)"} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("message %q does not contain %q", msg.Text, want)
		}
	}
}

func TestTelegramSink_SummarizesContent(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	summarizer := &fakeSummarizer{}
	sink := NewTelegramSink(sender, 1, summarizer, nil)

	err := sink.Send(context.Background(), Notification{
		Kind:     KindArticle,
		Category: model.CategoryGeneral,
		Article: &model.Article{
			Title:   lo.ToPtr("Headline"),
			Content: lo.ToPtr("Long body of the article [+2048 chars]"),
		},
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if summarizer.got != "Long body of the article" {
		t.Errorf("summarizer input = %q", summarizer.got)
	}
	if !strings.Contains(sender.messages[0].Text, "Short summary\\.") {
		t.Errorf("message %q does not contain the summary", sender.messages[0].Text)
	}
}

func TestTelegramSink_Summary(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	sink := NewTelegramSink(sender, 1, nil, nil)

	channel, _ := ChannelFor(model.CategoryTopHeadlines)
	if err := sink.Send(context.Background(), Notification{Kind: KindSummary, Channel: channel, Count: 3}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	msg := sender.messages[0]
	if msg.Text != "*Top Headlines* _3 new articles_" {
		t.Errorf("Text = %q", msg.Text)
	}
	if msg.DisableNotification {
		t.Error("summary message should alert")
	}
}

type fakeWriter struct {
	messages []kafka.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaSink(t *testing.T) {
	t.Parallel()

	writer := &fakeWriter{}
	sink := NewKafkaSink(writer)

	channel, _ := ChannelFor(model.CategoryBusiness)
	n := Notification{
		ID:        "id-1",
		Kind:      KindArticle,
		Category:  model.CategoryBusiness,
		Channel:   channel,
		Article:   &model.Article{Title: lo.ToPtr("Markets rally"), Category: model.CategoryBusiness.Ptr()},
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := sink.Send(context.Background(), n); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if len(writer.messages) != 1 {
		t.Fatalf("wrote %d messages, want 1", len(writer.messages))
	}
	msg := writer.messages[0]
	if string(msg.Key) != channel.GroupKey {
		t.Errorf("Key = %q, want %q", msg.Key, channel.GroupKey)
	}

	var decoded Notification
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded.ID != "id-1" || decoded.Article == nil || *decoded.Article.Title != "Markets rally" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestLogSink(t *testing.T) {
	t.Parallel()

	sink := NewLogSink(zaptest.NewLogger(t).Sugar())
	ctx := context.Background()

	if err := sink.Send(ctx, Notification{Kind: KindArticle, Article: &model.Article{}}); err != nil {
		t.Errorf("Send(article) error = %v", err)
	}
	if err := sink.Send(ctx, Notification{Kind: KindSummary, Count: 2}); err != nil {
		t.Errorf("Send(summary) error = %v", err)
	}
}
