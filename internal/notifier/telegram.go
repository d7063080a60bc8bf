package notifier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/kovalyov-valentin/news-aggregator/internal/botkit/markup"
	"github.com/kovalyov-valentin/news-aggregator/internal/model"
)

const maxExcerptRunes = 600

type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSink posts notifications to a channel. Article messages are sent
// silently; only the category summary triggers an alert.
type TelegramSink struct {
	bot        MessageSender
	channelID  int64
	summarizer Summarizer
	http       *http.Client
	log        *zap.SugaredLogger
}

func NewTelegramSink(bot MessageSender, channelID int64, summarizer Summarizer, log *zap.SugaredLogger) *TelegramSink {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &TelegramSink{
		bot:        bot,
		channelID:  channelID,
		summarizer: summarizer,
		http:       &http.Client{Timeout: 15 * time.Second},
		log:        log,
	}
}

func (s *TelegramSink) Send(ctx context.Context, n Notification) error {
	var (
		text   string
		silent bool
	)

	switch n.Kind {
	case KindSummary:
		text = summaryText(n)
	default:
		text = s.articleText(ctx, n.Article)
		silent = true
	}

	msg := tgbotapi.NewMessage(s.channelID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableNotification = silent
	msg.DisableWebPagePreview = n.Kind == KindSummary

	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	return nil
}

func summaryText(n Notification) string {
	noun := "articles"
	if n.Count == 1 {
		noun = "article"
	}

	return markup.Bold(n.Channel.Name) + " " + markup.Italic(fmt.Sprintf("%d new %s", n.Count, noun))
}

func (s *TelegramSink) articleText(ctx context.Context, a *model.Article) string {
	var b strings.Builder

	b.WriteString(markup.Bold(title(a)))

	if excerpt := s.excerpt(ctx, a); excerpt != "" {
		b.WriteString("\n\n")
		b.WriteString(markup.EscapeForMarkdown(excerpt))
	}

	if a != nil && a.SourceName != nil {
		b.WriteString("\n\n")
		b.WriteString(markup.Italic(*a.SourceName))
	}

	if a != nil && a.URL != nil {
		b.WriteString("\n")
		b.WriteString(markup.Link("Read more", *a.URL))
	}

	return b.String()
}

// excerpt builds the message body: the article description or content as plain
// text, the readable page text when both are empty, shortened by the
// summarizer when one is configured.
func (s *TelegramSink) excerpt(ctx context.Context, a *model.Article) string {
	if a == nil {
		return ""
	}

	text := plainText(deref(a.Description))
	if text == "" {
		text = plainText(deref(a.Content))
	}

	if text == "" && a.URL != nil && s.summarizer != nil {
		page, err := s.readablePage(ctx, *a.URL)
		if err != nil {
			s.log.Warnw("extract article page", "url", *a.URL, "error", err)
		}
		text = page
	}

	if s.summarizer != nil && text != "" {
		summary, err := s.summarizer.Summarize(ctx, text)
		if err != nil {
			s.log.Warnw("summarize article", "url", deref(a.URL), "error", err)
		}
		if summary != "" {
			return summary
		}
	}

	return truncate(text, maxExcerptRunes)
}

func (s *TelegramSink) readablePage(ctx context.Context, rawURL string) (string, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("get page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("get page: unexpected status %s", resp.Status)
	}

	doc, err := readability.FromReader(io.LimitReader(resp.Body, 4<<20), pageURL)
	if err != nil {
		return "", fmt.Errorf("parse readable page: %w", err)
	}

	return cleanText(doc.TextContent), nil
}

var (
	redundantNewLines = regexp.MustCompile(`\n{3,}`)
	// The news API cuts content and appends a marker like "[+1234 chars]".
	truncatedMarker = regexp.MustCompile(`\s*\[\+\d+ chars\]\s*$`)
)

func cleanText(text string) string {
	return strings.TrimSpace(redundantNewLines.ReplaceAllString(text, "\n"))
}

// plainText strips HTML markup from feed fields.
func plainText(raw string) string {
	raw = strings.TrimSpace(truncatedMarker.ReplaceAllString(raw, ""))
	if raw == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return cleanText(raw)
	}

	return cleanText(doc.Text())
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return strings.TrimSpace(string(runes[:n])) + "…"
}
