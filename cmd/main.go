package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kovalyov-valentin/news-aggregator/internal/api"
	"github.com/kovalyov-valentin/news-aggregator/internal/bot"
	"github.com/kovalyov-valentin/news-aggregator/internal/bot/middleware"
	"github.com/kovalyov-valentin/news-aggregator/internal/botkit"
	"github.com/kovalyov-valentin/news-aggregator/internal/config"
	"github.com/kovalyov-valentin/news-aggregator/internal/fetcher"
	"github.com/kovalyov-valentin/news-aggregator/internal/logging"
	"github.com/kovalyov-valentin/news-aggregator/internal/metrics"
	"github.com/kovalyov-valentin/news-aggregator/internal/notifier"
	"github.com/kovalyov-valentin/news-aggregator/internal/preferences"
	"github.com/kovalyov-valentin/news-aggregator/internal/source"
	"github.com/kovalyov-valentin/news-aggregator/internal/storage"
	"github.com/kovalyov-valentin/news-aggregator/internal/summary"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "news-aggregator: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Get()
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := sqlx.Connect("postgres", cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := storage.Migrate(ctx, db); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	categories, err := preferences.ParseCategories(cfg.Categories)
	if err != nil {
		return fmt.Errorf("parse categories: %w", err)
	}

	var (
		articleStorage      = storage.NewArticleStorage(db)
		subscriptionStorage = storage.NewSubscriptionStorage(db)
		prefs               = preferences.New(cfg.Country, categories, cfg.NotificationsEnabled, subscriptionStorage)
	)

	client, err := source.NewClient(cfg.NewsAPIKeys, cfg.NewsAPITimeout, log, m)
	if err != nil {
		return err
	}
	urls, err := source.NewURLBuilder(cfg.NewsAPIBaseURL)
	if err != nil {
		return err
	}

	var botAPI *tgbotapi.BotAPI
	if cfg.TelegramEnabled() {
		botAPI, err = tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			return fmt.Errorf("create telegram bot: %w", err)
		}
	}

	sinks, closeSinks := buildSinks(cfg, botAPI, log)
	defer closeSinks()

	dispatcher := notifier.New(prefs, sinks, log.Named("notifier"), m)

	pipeline := fetcher.New(fetcher.Deps{
		Articles:    articleStorage,
		Client:      client,
		URLs:        urls,
		Preferences: prefs,
		Dispatcher:  dispatcher,
		Metrics:     m,
		Log:         log.Named("fetcher"),
	}, fetcher.Options{
		AutoRefresh:     cfg.AutoRefreshEnabled,
		RefreshInterval: cfg.RefreshInterval,
		Retention:       cfg.ArticleRetention,
		Concurrency:     cfg.FetchConcurrency,
		Language:        cfg.Language,
	})

	status := api.NewStatusObserver()
	pipeline.Attach(status)

	handler := api.New(
		articleStorage,
		pipeline,
		status,
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		log.Named("api"),
	)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := pipeline.Start(gCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("fetcher: %w", err)
		}
		log.Infow("fetcher stopped")
		return nil
	})

	g.Go(func() error {
		log.Infow("http server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		return server.Shutdown(shutdownCtx)
	})

	if botAPI != nil {
		newsBot := newBot(botAPI, cfg.TelegramChannelID, articleStorage, subscriptionStorage, prefs, pipeline, log.Named("bot"))

		g.Go(func() error {
			if err := newsBot.Run(gCtx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("bot: %w", err)
			}
			log.Infow("bot stopped")
			return nil
		})
	}

	return g.Wait()
}

// buildSinks combines the configured notification sinks. The returned func
// releases the resources they hold.
func buildSinks(cfg config.Config, botAPI *tgbotapi.BotAPI, log *zap.SugaredLogger) (notifier.Fanout, func()) {
	var (
		sinks   notifier.Fanout
		closers []func() error
	)

	if cfg.SinkEnabled(config.SinkLog) {
		sinks = append(sinks, notifier.NewLogSink(log.Named("notifications")))
	}

	if cfg.SinkEnabled(config.SinkTelegram) && botAPI != nil {
		var summarizer notifier.Summarizer
		if cfg.OpenAIKey != "" {
			summarizer = summary.NewOpenAISummarizer(cfg.OpenAIKey, cfg.OpenAIPrompt, log)
		}
		sinks = append(sinks, notifier.NewTelegramSink(botAPI, cfg.TelegramChannelID, summarizer, log.Named("telegram")))
	}

	if cfg.SinkEnabled(config.SinkKafka) {
		sink := notifier.NewKafkaSink(notifier.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic))
		sinks = append(sinks, sink)
		closers = append(closers, sink.Close)
	}

	return sinks, func() {
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				log.Warnw("close notification sink", "error", err)
			}
		}
	}
}

func newBot(
	botAPI *tgbotapi.BotAPI,
	channelID int64,
	articles *storage.ArticlePostgresStorage,
	subscriptions *storage.SubscriptionPostgresStorage,
	prefs *preferences.Preferences,
	pipeline *fetcher.Fetcher,
	log *zap.SugaredLogger,
) *botkit.Bot {
	newsBot := botkit.New(botAPI, log)

	newsBot.RegisterCmdView("start", bot.ViewCmdStart())
	newsBot.RegisterCmdView("headlines", bot.ViewCmdHeadlines(articles, prefs))
	newsBot.RegisterCmdView("category", bot.ViewCmdCategory(articles, prefs))
	newsBot.RegisterCmdView("search", bot.ViewCmdSearch(pipeline, articles))
	newsBot.RegisterCmdView("subscriptions", bot.ViewCmdSubscriptions(subscriptions))

	// Commands that change state are limited to channel admins
	newsBot.RegisterCmdView("refresh", middleware.AdminOnly(channelID, bot.ViewCmdRefresh(pipeline)))
	newsBot.RegisterCmdView("subscribe", middleware.AdminOnly(channelID, bot.ViewCmdSubscribe(subscriptions)))

	return newsBot
}
