package environment

import (
	"context"
	"log/slog"
	"net/http"

	"paywall-bot/internal/config"
)

type Servers struct {
	HTTP struct {
		Observability *http.Server
		API           *http.Server
	}
}

func newServers(ctx context.Context, cfg config.Config, logger *slog.Logger, clients *Clients, services *Services) *Servers {
	var servers Servers

	// Webhook ingress; диагностика живет на сервере observability
	servers.HTTP.API = &http.Server{
		Addr:              cfg.Webhook.ADDR(),
		Handler:           services.API.Engine(),
		ReadTimeout:       cfg.Webhook.ReadTimeout,
		ReadHeaderTimeout: cfg.Webhook.ReadTimeout,
		WriteTimeout:      cfg.Webhook.WriteTimeout,
	}
	servers.HTTP.Observability = initObservability(ctx, logger.WithGroup("http"), clients, services, cfg)

	return &servers
}
