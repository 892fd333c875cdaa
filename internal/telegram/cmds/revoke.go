package cmds

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// RevokeCommand удаляет подписку и убирает пользователя из канала
type RevokeCommand struct {
	bot       botApi
	service   revokeService
	kicker    channelKicker
	channelID int64
	l10n      localizer
	logger    *slog.Logger
}

func NewRevokeCommand(
	bot botApi,
	service revokeService,
	kicker channelKicker,
	channelID int64,
	l10n localizer,
	logger *slog.Logger,
) *RevokeCommand {
	return &RevokeCommand{
		bot:       bot,
		service:   service,
		kicker:    kicker,
		channelID: channelID,
		l10n:      l10n,
		logger:    logger,
	}
}

func (c *RevokeCommand) Execute(ctx context.Context, chatID int64, args, lang string) error {
	fields := strings.Fields(args)
	if len(fields) != 1 {
		return c.reply(chatID, c.l10n.Get(lang, "revoke_cmd.usage", nil))
	}
	userID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || userID <= 0 {
		return c.reply(chatID, c.l10n.Get(lang, "revoke_cmd.usage", nil))
	}

	// Отсутствующая запись не ошибка
	if err := c.service.Revoke(ctx, userID); err != nil {
		_ = c.reply(chatID, c.l10n.Get(lang, "revoke_cmd.failed", map[string]interface{}{"error": err.Error()}))
		return fmt.Errorf("revoke subscription: %w", err)
	}

	params := map[string]interface{}{"user_id": userID}
	if err := c.kicker.KickMember(c.channelID, userID); err != nil {
		c.logger.Warn("Failed to remove user from channel", "error", err, "user_id", userID)
		params["error"] = err.Error()
		return c.reply(chatID, c.l10n.Get(lang, "revoke_cmd.kick_failed", params))
	}

	c.logger.Info("Subscription revoked", "user_id", userID)
	return c.reply(chatID, c.l10n.Get(lang, "revoke_cmd.done", params))
}

func (c *RevokeCommand) reply(chatID int64, text string) error {
	_, err := c.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
