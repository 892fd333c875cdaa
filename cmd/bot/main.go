package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	environment "paywall-bot/internal/env"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize environment
	env, err := environment.Setup(ctx)
	if err != nil {
		log.Fatalf("Failed to setup environment: %v", err)
	}

	logger := env.Logger
	logger.Info("Starting paywall-bot application")

	// Start observability server in background
	serve(logger, "observability", env.Servers.HTTP.Observability)
	// Webhook ingress и диагностика работают в обоих режимах
	serve(logger, "api", env.Servers.HTTP.API)

	// Устанавливаем команды для меню бота
	if err := env.Services.TelegramRouter.SetupBotCommands(env.Config.Telegram.DefaultLanguage); err != nil {
		logger.Error("Failed to setup bot commands", slog.Any("error", err))
		// Не возвращаем ошибку, т.к. это не критично
	}

	var updatesPoller *poller
	if webhookURL := env.Config.Webhook.WebhookURL(); webhookURL != "" {
		if env.Config.Webhook.AutoRegister {
			if err := env.Clients.TelegramBot.SetWebhook(webhookURL, env.Config.Webhook.SecretToken); err != nil {
				logger.Error("Failed to register webhook", slog.Any("error", err))
			} else {
				logger.Info("Webhook registered", slog.String("url", webhookURL))
			}
		} else {
			logger.Info("Webhook mode, open /set_webhook on the observability port once to register", slog.String("url", webhookURL))
		}
	} else {
		// Запускаем telegram клиент в режиме long polling
		if err := env.Clients.TelegramBot.Start(ctx); err != nil {
			logger.Error("Failed to start telegram polling", slog.Any("error", err))
			shutdown(env)
			os.Exit(1)
		}
		updatesPoller = newPoller(env.Services.TelegramRouter, logger.With("component", "poller"))
		updatesPoller.Start(ctx, env.Clients.TelegramBot.GetUpdates())
	}

	if err := env.Workers.Start(); err != nil {
		logger.Error("Failed to start workers", slog.Any("error", err))
		shutdown(env)
		os.Exit(1)
	}

	logger.Info("Bot started successfully. Press Ctrl+C to stop.")
	<-ctx.Done()

	logger.Info("Shutting down application...")

	if updatesPoller != nil {
		env.Clients.TelegramBot.Stop()
		if !updatesPoller.Wait(env.Config.ShutdownDuration) {
			logger.Warn("Timed out waiting for in-flight updates")
		}
	}
	shutdown(env)

	logger.Info("Application stopped")
}

func serve(logger *slog.Logger, name string, srv *http.Server) {
	if srv == nil {
		return
	}
	go func() {
		logger.Info("Starting HTTP server", slog.String("name", name), slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", slog.String("name", name), slog.Any("error", err))
		}
	}()
}

func shutdown(env *environment.Env) {
	logger := env.Logger

	// Create context with timeout for graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), env.Config.ShutdownDuration)
	defer cancel()

	// Сначала перестаем принимать webhook, чтобы не обрывать обработку
	for name, srv := range map[string]*http.Server{
		"api":           env.Servers.HTTP.API,
		"observability": env.Servers.HTTP.Observability,
	} {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server shutdown error", slog.String("name", name), slog.Any("error", err))
		}
	}

	env.Workers.Stop()

	// Close resources
	for _, closer := range env.Closers {
		closer()
	}
}
