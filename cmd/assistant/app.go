package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"time"

	"go.uber.org/zap"

	"voice-assistant/internal/assistant"
	"voice-assistant/internal/config"
	"voice-assistant/internal/intent"
	"voice-assistant/internal/llm"
	"voice-assistant/internal/memory"
	"voice-assistant/internal/news"
	"voice-assistant/internal/observe"
	"voice-assistant/internal/scheduler"
	"voice-assistant/internal/storage"
	"voice-assistant/internal/weather"
)

const providerTimeout = 10 * time.Second

// app is everything the surfaces share.
type app struct {
	log       *zap.Logger
	recorder  storage.Recorder
	scheduler *scheduler.Scheduler
	pool      *assistant.Pool

	metricsAddr     string
	shutdownMetrics func(context.Context) error
}

func newApp(cfg *config.Config, log *zap.Logger) (*app, error) {
	a := &app{log: log, metricsAddr: cfg.MetricsAddr}

	metrics := observe.Nop()
	if cfg.MetricsAddr != "" {
		mp, shutdown, err := observe.InitProvider()
		if err != nil {
			return nil, fmt.Errorf("init metrics: %w", err)
		}
		if metrics, err = observe.NewMetrics(mp); err != nil {
			return nil, fmt.Errorf("init metrics: %w", err)
		}
		a.shutdownMetrics = shutdown
	}

	var table *intent.Table
	if cfg.IntentsFilePath != "" {
		t, err := intent.LoadTableFile(cfg.IntentsFilePath)
		if err != nil {
			return nil, err
		}
		table = t
	}

	llmClient, err := llm.New(cfg)
	if err != nil {
		return nil, err
	}

	repo, err := memory.NewFileRepository(cfg.MemoryFilePath)
	if err != nil {
		return nil, fmt.Errorf("init memory: %w", err)
	}
	store, err := memory.NewStore(repo)
	if err != nil {
		return nil, fmt.Errorf("init memory: %w", err)
	}

	if cfg.LogFilePath != "" {
		fr, err := storage.NewFileRecorder(cfg.LogFilePath)
		if err != nil {
			log.Warn("conversation log disabled", zap.String("path", cfg.LogFilePath), zap.Error(err))
		} else {
			a.recorder = fr
		}
	}

	feeds := maps.Clone(news.DefaultFeeds)
	if cfg.NewsFeedURL != "" {
		feeds[news.General] = cfg.NewsFeedURL
	}

	a.scheduler = scheduler.New(log.Named("scheduler"))
	f := &assistant.Factory{
		Table:       table,
		HomeCity:    cfg.HomeCity,
		WeatherCity: cfg.WeatherCity,
		News:        news.NewRSS(feeds, providerTimeout),
		LLM:         llmClient,
		Timers:      a.scheduler,
		Memory:      store,
		Log:         log,
		Metrics:     metrics,
	}
	if cfg.WeatherAPIKey != "" {
		f.Weather = weather.NewOpenWeatherMap(cfg.WeatherAPIKey, cfg.WeatherBaseURL, providerTimeout)
	} else {
		log.Info("weather skill disabled, WEATHER_API_KEY is empty")
	}
	if llmClient == nil {
		log.Info("ask skill disabled, LLM_PROVIDER is empty")
	}

	a.pool = assistant.NewPool(f, a.recorder, log.Named("pool"))
	return a, nil
}

// serveMetrics blocks until ctx is done. It is a no-op without an address.
func (a *app) serveMetrics(ctx context.Context) error {
	if a.metricsAddr == "" {
		return nil
	}
	srv := &http.Server{Addr: a.metricsAddr, Handler: observe.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	a.log.Info("metrics server started", zap.String("addr", a.metricsAddr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// runScheduler starts the scheduler and stops it when ctx is done.
func (a *app) runScheduler(ctx context.Context) error {
	if err := a.scheduler.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	a.scheduler.Stop()
	return nil
}

func (a *app) close() {
	a.pool.Close()
	if a.shutdownMetrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdownMetrics(ctx); err != nil {
			a.log.Warn("metrics shutdown", zap.Error(err))
		}
	}
}
