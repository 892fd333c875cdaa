package cmds

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// StatusCommand показывает пользователю срок его подписки
type StatusCommand struct {
	bot     botApi
	service statusService
	l10n    localizer
}

func NewStatusCommand(bot botApi, service statusService, l10n localizer) *StatusCommand {
	return &StatusCommand{
		bot:     bot,
		service: service,
		l10n:    l10n,
	}
}

func (c *StatusCommand) Execute(ctx context.Context, userID, chatID int64, lang string) error {
	sub, err := c.service.GetSubscription(ctx, userID)
	if err != nil {
		_, _ = c.bot.Send(tgbotapi.NewMessage(chatID, c.l10n.Get(lang, "error", nil)))
		return fmt.Errorf("get subscription: %w", err)
	}

	var text string
	switch {
	case sub == nil:
		text = c.l10n.Get(lang, "status.none", nil)
	case sub.IsExpired(c.service.Now()):
		text = c.l10n.Get(lang, "status.expired", map[string]interface{}{
			"expires_at": sub.ExpiresAt.Format(dateLayout),
		})
	default:
		text = c.l10n.Get(lang, "status.active", map[string]interface{}{
			"expires_at": sub.ExpiresAt.Format(dateLayout),
		})
	}

	_, err = c.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
