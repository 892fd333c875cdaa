package api

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type (
	updateRouter interface {
		Route(ctx context.Context, update *tgbotapi.Update) error
	}

	webhookGateway interface {
		SetWebhook(url, secret string) error
		GetWebhookInfo() (tgbotapi.WebhookInfo, error)
		GetMe() (tgbotapi.User, error)
	}
)
