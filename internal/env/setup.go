package environment

import (
	"context"
	"fmt"
	"log/slog"

	"paywall-bot/internal/config"
	"paywall-bot/internal/workers"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type closer func()

type Env struct {
	Config   *config.Config
	Logger   *slog.Logger
	Servers  *Servers
	Clients  *Clients
	Services *Services
	Workers  *workers.Manager

	Closers []closer
}

func Setup(ctx context.Context) (*Env, error) {
	// Загружаем .env файл если он существует (игнорируем ошибки - файл может не существовать)
	_ = godotenv.Load()

	var cfg config.Config
	err := envconfig.Process(ctx, &cfg)
	if err != nil {
		return nil, fmt.Errorf("env processing: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var e Env

	logger, err := initLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("initLogger: %w", err)
	}

	clients, err := newClients(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("newClients: %w", err)
	}

	services, err := newServices(ctx, clients, &cfg, logger)
	if err != nil {
		closeClients(clients, logger)
		return nil, fmt.Errorf("newServices: %w", err)
	}

	e.Servers = newServers(ctx, cfg, logger, clients, services)
	e.Workers = newWorkers(cfg, clients, services, logger)
	e.Config = &cfg
	e.Logger = logger
	e.Clients = clients
	e.Services = services
	e.Closers = []closer{func() { closeClients(clients, logger) }}

	logger.Info("Environment ready",
		"db_path", cfg.DB.Path,
		"webhook_url", cfg.Webhook.WebhookURL(),
		"approval_guard", cfg.Approval.Guard,
		"revocation_enabled", cfg.Revocation.Enabled)

	return &e, nil
}

func closeClients(clients *Clients, logger *slog.Logger) {
	if clients.Redis != nil {
		if err := clients.Redis.Close(); err != nil {
			logger.Error("Failed to close redis", "error", err)
		}
	}
	if err := clients.SQLiteDB.Close(); err != nil {
		logger.Error("Failed to close sqlite", "error", err)
	}
}
