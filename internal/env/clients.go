package environment

import (
	"context"
	"log/slog"

	"paywall-bot/internal/config"
	"paywall-bot/internal/infra/redis"
	"paywall-bot/internal/infra/sqlite3"
	"paywall-bot/internal/infra/telegram"
)

type Clients struct {
	SQLiteDB    *sqlite3.DB
	TelegramBot *telegram.Client
	Redis       *redis.Client // only with APPROVAL_GUARD=redis
}

func newClients(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Clients, error) {
	sqliteDB, err := provideSQLiteDB(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}

	telegramBot, err := provideTelegramBot(cfg, logger.With("component", "telegram"))
	if err != nil {
		_ = sqliteDB.Close()
		return nil, err
	}

	clients := &Clients{
		SQLiteDB:    sqliteDB,
		TelegramBot: telegramBot,
	}

	if cfg.Approval.Guard == config.GuardRedis {
		clients.Redis, err = redis.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			_ = sqliteDB.Close()
			return nil, err
		}
	}

	return clients, nil
}

func provideSQLiteDB(ctx context.Context, cfg config.SQLiteConfig) (*sqlite3.DB, error) {
	return sqlite3.New(ctx,
		sqlite3.WithPath(cfg.Path),
		sqlite3.WithPool(cfg.MaxOpenConns, cfg.MaxIdleConns),
		sqlite3.WithConnMaxLifetime(cfg.MaxLifetime),
	)
}

func provideTelegramBot(cfg config.Config, logger *slog.Logger) (*telegram.Client, error) {
	return telegram.NewClient(
		cfg.Telegram.BotToken,
		cfg.Telegram.RateLimit.RPS,
		cfg.Telegram.RateLimit.Burst,
		logger,
	)
}
