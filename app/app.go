// Package app builds every component of a briefing run from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"morningbrief/calendar"
	"morningbrief/config"
	"morningbrief/delivery"
	"morningbrief/events"
	"morningbrief/news"
	"morningbrief/orchestrator"
	"morningbrief/rssfeeds"
	"morningbrief/storage"
	"morningbrief/summarizer"
	"morningbrief/throttle"
	"morningbrief/types"
	"morningbrief/weather"
)

// App holds the wired components and whatever must be closed afterwards
type App struct {
	Config       *config.Config
	Orchestrator *orchestrator.Orchestrator
	Publisher    *events.Publisher
	// Archive is set when delivery archives to S3
	Archive      *storage.Archive

	closers []func() error
	logger  *slog.Logger
}

// Build wires the run from cfg. dryRun makes the file writer the only deliverer.
func Build(ctx context.Context, cfg *config.Config, dryRun bool, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, logger: logger}

	httpClient := &http.Client{}

	fetcher := rssfeeds.NewFetcher(rssfeeds.FetcherOptions{
		Client:     httpClient,
		UserAgent:  cfg.News.UserAgent,
		Timeout:    cfg.News.FeedTimeout,
		Workers:    cfg.News.FetchWorkers,
		MaxPerFeed: cfg.News.MaxPerFeed,
		Logger:     logger,
	})
	extractor := rssfeeds.NewExtractor(rssfeeds.ExtractorOptions{
		Client:    httpClient,
		UserAgent: cfg.News.UserAgent,
		Timeout:   cfg.News.PageTimeout,
		Workers:   cfg.News.ExtractWorkers,
		MinChars:  cfg.News.MinArticleChars,
		MaxChars:  cfg.News.MaxArticleChars,
		Logger:    logger,
	})

	gen, err := newGenerator(cfg, httpClient)
	if err != nil {
		return nil, err
	}
	sum := summarizer.New(gen, summarizer.Options{
		Sentences:     cfg.News.SummarySentences,
		MaxInputChars: cfg.Summarizer.MaxInputChars,
		Timeout:       cfg.Summarizer.Timeout,
		RetryBackoff:  cfg.Summarizer.RetryBackoff,
		Workers:       cfg.Summarizer.Workers,
		MaxTokens:     cfg.Summarizer.MaxTokens,
		Temperature:   cfg.Summarizer.Temperature,
		Limiter:       a.newLimiter(cfg),
		Logger:        logger,
	})

	pipeline := news.NewPipeline(fetcher, extractor, sum, cfg.News.RSSFeeds.Sources(), cfg.News.MaxArticles, logger)

	opts := orchestrator.Options{
		News:            pipeline,
		Deadline:        cfg.Server.RunDeadline,
		Logger:          logger,
		DryRunDeliverer: delivery.NewFileWriter(cfg.Delivery.OutputDir),
	}

	if cfg.WeatherEnabled() {
		wc := weather.NewClient(cfg.APIs.OpenWeatherKey, cfg.Location.City, cfg.Location.CountryCode, logger)
		wc.Units = cfg.Location.Units
		opts.Weather = wc
	} else {
		logger.Info("weather disabled", "reason", "missing apis.openweather_key or location.city")
	}

	if cfg.Calendar.Enabled {
		opts.Calendar = newCalendar(ctx, cfg, logger)
	}

	if dryRun {
		opts.Deliverer = opts.DryRunDeliverer
	} else {
		d, err := a.newDeliverer(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		opts.Deliverer = d
	}

	if cfg.Kafka.Enabled() {
		pub, err := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.RunsTopic, logger)
		if err != nil {
			logger.Warn("run events disabled", "error", err)
		} else {
			a.Publisher = pub
			opts.Events = pub
			a.closers = append(a.closers, pub.Close)
		}
	}

	a.Orchestrator = orchestrator.New(opts)
	return a, nil
}

// Close releases connections opened by Build
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newGenerator(cfg *config.Config, httpClient *http.Client) (summarizer.Generator, error) {
	switch cfg.Summarizer.Provider {
	case "cohere":
		return summarizer.NewCohereGenerator(cfg.APIs.CohereKey, cfg.Summarizer.Model, httpClient), nil
	case "openai":
		return summarizer.NewOpenAIGenerator(cfg.APIs.OpenAIKey, cfg.Summarizer.Model, cfg.Summarizer.Endpoint, httpClient), nil
	default:
		return nil, fmt.Errorf("unknown summarizer provider %q", cfg.Summarizer.Provider)
	}
}

// newLimiter shares the summarizer interval through Redis when configured
func (a *App) newLimiter(cfg *config.Config) throttle.Limiter {
	if cfg.Redis.Addr == "" {
		return throttle.NewInterval(cfg.Summarizer.MinInterval)
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	a.closers = append(a.closers, rdb.Close)
	a.logger.Info("summarizer throttle shared via redis", "addr", cfg.Redis.Addr, "key", cfg.Redis.ThrottleKey)
	return throttle.NewRedisLimiter(rdb, cfg.Redis.ThrottleKey, cfg.Summarizer.MinInterval, a.logger)
}

func (a *App) newDeliverer(ctx context.Context, cfg *config.Config) (delivery.Deliverer, error) {
	var ds []delivery.Deliverer
	switch cfg.Delivery.Mode {
	case config.DeliveryEmail:
		ds = append(ds, delivery.NewMailer(delivery.MailerConfig{
			Host:       cfg.Email.SMTPHost,
			Port:       cfg.Email.SMTPPort,
			Username:   cfg.Email.Username,
			Password:   cfg.Email.Password,
			From:       cfg.Email.FromAddress,
			To:         delivery.SplitAddresses(cfg.Email.Recipient),
			Subject:    cfg.Email.Subject,
			MaxRetries: cfg.Email.MaxRetries,
		}, a.logger))
	default:
		ds = append(ds, delivery.NewFileWriter(cfg.Delivery.OutputDir))
	}

	if cfg.Delivery.Archive {
		store, err := storage.NewS3(ctx, cfg.S3.Bucket, storage.S3Config{
			Region:       cfg.S3.Region,
			Profile:      cfg.S3.Profile,
			UsePathStyle: cfg.S3.UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init S3 client: %w", err)
		}
		a.Archive = storage.NewArchive(store, cfg.S3.Prefix)
		ds = append(ds, delivery.NewArchiver(a.Archive))
	}

	if len(ds) == 1 {
		return ds[0], nil
	}
	return delivery.NewMulti(a.logger, ds...), nil
}

// unavailableCalendar reports the same setup error on every run
type unavailableCalendar struct{ err error }

func (u unavailableCalendar) Today(context.Context, time.Time) ([]types.CalendarEvent, error) {
	return nil, u.err
}

func newCalendar(ctx context.Context, cfg *config.Config, logger *slog.Logger) orchestrator.CalendarSource {
	loc := time.Local
	if cfg.Calendar.Timezone != "" {
		l, err := time.LoadLocation(cfg.Calendar.Timezone)
		if err != nil {
			logger.Warn("unknown calendar timezone, using local", "timezone", cfg.Calendar.Timezone, "error", err)
		} else {
			loc = l
		}
	}

	session, err := calendar.NewSession(cfg.Calendar.CredentialsFile, cfg.Calendar.TokenFile)
	if err != nil {
		logger.Warn("calendar unavailable", "error", err)
		return unavailableCalendar{err: err}
	}
	client, err := calendar.NewClient(ctx, session, cfg.Calendar.CalendarID, loc, logger)
	if err != nil {
		logger.Warn("calendar unavailable", "error", err)
		return unavailableCalendar{err: err}
	}
	return client
}
