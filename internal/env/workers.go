package environment

import (
	"log/slog"

	"paywall-bot/internal/config"
	"paywall-bot/internal/workers"
	"paywall-bot/internal/workers/expiration"
)

func newWorkers(cfg config.Config, clients *Clients, services *Services, logger *slog.Logger) *workers.Manager {
	var list []workers.Worker

	if services.MemoryGuard != nil {
		list = append(list, services.MemoryGuard)
	}

	if cfg.Revocation.Enabled {
		list = append(list, expiration.NewWorker(
			services.Subscriptions,
			clients.TelegramBot,
			clients.TelegramBot,
			services.Localization,
			expiration.Config{
				ChannelID: cfg.Telegram.PrivateChannelID,
				Schedule:  cfg.Revocation.Schedule,
			},
			logger.With("worker", "expiration"),
		))
	} else {
		logger.Info("Revocation job is disabled, expired users stay in the channel until /revoke")
	}

	return workers.NewManager(logger, list...)
}
