package notifier

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/kovalyov-valentin/news-aggregator/internal/model"
)

// LogSink writes notifications to the service log.
type LogSink struct {
	log *zap.SugaredLogger
}

func NewLogSink(log *zap.SugaredLogger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Send(_ context.Context, n Notification) error {
	fields := []any{"id", n.ID, "category", n.Category, "channel", n.Channel.ID, "group", n.Channel.GroupKey}

	if n.Kind == KindSummary {
		s.log.Infow("notification summary", append(fields, "count", n.Count)...)
		return nil
	}

	s.log.Infow("notification", append(fields, "title", deref(n.Article.Title), "url", deref(n.Article.URL))...)
	return nil
}

// Fanout sends every notification to all sinks. A failing sink does not keep
// the others from receiving it.
type Fanout []Sink

func (f Fanout) Send(ctx context.Context, n Notification) error {
	var errs []error
	for _, sink := range f {
		if err := sink.Send(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

func title(a *model.Article) string {
	if a == nil || a.Title == nil || *a.Title == "" {
		return "Untitled"
	}

	return *a.Title
}
