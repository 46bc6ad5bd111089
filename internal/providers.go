package internal

import (
	"net/http"
	"time"

	"github.com/haitaoz/parastats/internal/config"
	"github.com/haitaoz/parastats/internal/store"
	"github.com/haitaoz/parastats/internal/telegram"
	"github.com/haitaoz/parastats/pkg/paradex"
	"go.uber.org/zap"
)

const (
	telegramHTTPTimeout = 15 * time.Second
	defaultCachePath    = "logs/stats_cache.json"
)

// provideParadexClient provides Paradex API client
func provideParadexClient(conf *config.Config, logger *zap.Logger) *paradex.Client {
	client, err := paradex.NewClient(conf.Paradex.BaseURL, conf.Paradex.ProxyURL, logger)
	if err != nil {
		logger.Fatal("failed to init paradex client", zap.Error(err))
	}
	client.SetSeason(conf.Paradex.Season)
	client.SetPageSize(conf.Paradex.PageSize)

	logger.Info("Paradex client initialized",
		zap.String("base_url", conf.Paradex.BaseURL),
		zap.Bool("has_proxy", conf.Paradex.ProxyURL != ""))
	return client
}

// provideStatsCache provides the persistent stats cache
func provideStatsCache(conf *config.Config, logger *zap.Logger) *store.StatsCache {
	path := conf.Cache.Path
	if path == "" {
		path = defaultCachePath
	}
	cache := store.Load(path, logger)
	logger.Info("stats cache loaded",
		zap.String("path", path),
		zap.Int("accounts", len(cache.Keys())))
	return cache
}

// provideTelegram provides telegram instance
func provideTelegram(logger *zap.Logger, conf *config.Config) *telegram.Telegram {
	if !conf.Telegram.Enabled {
		return nil
	}

	httpClient := &http.Client{Timeout: telegramHTTPTimeout}

	tg, err := telegram.NewTelegram(logger, telegram.Settings{
		Token:  conf.Telegram.Token,
		Client: httpClient,
	})
	if err != nil {
		logger.Error("failed to init telegram", zap.Error(err))
		return nil
	}

	return tg
}
