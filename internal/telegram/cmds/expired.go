package cmds

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram rejects messages longer than 4096 characters.
const maxMessageLen = 4000

// ExpiredCommand выводит админу список истекших подписок
type ExpiredCommand struct {
	bot     botApi
	service expiredService
	l10n    localizer
}

func NewExpiredCommand(bot botApi, service expiredService, l10n localizer) *ExpiredCommand {
	return &ExpiredCommand{
		bot:     bot,
		service: service,
		l10n:    l10n,
	}
}

func (c *ExpiredCommand) Execute(ctx context.Context, chatID int64, lang string) error {
	expired, err := c.service.ListExpiredSubscriptions(ctx, c.service.Now())
	if err != nil {
		_, _ = c.bot.Send(tgbotapi.NewMessage(chatID, c.l10n.Get(lang, "expired_cmd.error", nil)))
		return fmt.Errorf("list expired subscriptions: %w", err)
	}

	if len(expired) == 0 {
		_, err = c.bot.Send(tgbotapi.NewMessage(chatID, c.l10n.Get(lang, "expired_cmd.none", nil)))
		return err
	}

	lines := make([]string, 0, len(expired)+2)
	lines = append(lines, c.l10n.Get(lang, "expired_cmd.header", map[string]interface{}{"count": len(expired)}))
	for _, sub := range expired {
		lines = append(lines, c.l10n.Get(lang, "expired_cmd.row", map[string]interface{}{
			"user_id":    sub.UserID,
			"expires_at": sub.ExpiresAt.Format(dateLayout),
		}))
	}
	lines = append(lines, c.l10n.Get(lang, "expired_cmd.footer", nil))

	for _, chunk := range chunkLines(lines, maxMessageLen) {
		if _, err := c.bot.Send(tgbotapi.NewMessage(chatID, chunk)); err != nil {
			return err
		}
	}
	return nil
}

// chunkLines joins lines into messages no longer than limit.
func chunkLines(lines []string, limit int) []string {
	var (
		chunks []string
		b      strings.Builder
	)
	for _, line := range lines {
		if b.Len() > 0 && b.Len()+1+len(line) > limit {
			chunks = append(chunks, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	if b.Len() > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}
