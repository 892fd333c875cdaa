package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

const webhookPath = "/webhook"

// WebhookURL возвращает полный адрес webhook или пустую строку в режиме polling
func (w WebhookConfig) WebhookURL() string {
	if w.PublicURL == "" {
		return ""
	}
	return strings.TrimRight(w.PublicURL, "/") + webhookPath
}

// Validate checks values envconfig cannot express with tags alone.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.BotToken) == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if c.Telegram.PrivateChannelID == 0 {
		return fmt.Errorf("TELEGRAM_PRIVATE_CHANNEL_ID is required")
	}
	if c.Approval.DefaultDays <= 0 {
		return fmt.Errorf("APPROVAL_DEFAULT_DAYS must be positive, got %d", c.Approval.DefaultDays)
	}
	if c.Approval.MaxDays < c.Approval.DefaultDays {
		return fmt.Errorf("APPROVAL_MAX_DAYS (%d) is less than APPROVAL_DEFAULT_DAYS (%d)", c.Approval.MaxDays, c.Approval.DefaultDays)
	}

	switch c.Approval.Guard {
	case GuardMemory, GuardRedis, GuardOff:
	default:
		return fmt.Errorf("unknown APPROVAL_GUARD %q", c.Approval.Guard)
	}
	// при нулевом TTL память забывает решение сразу и защита не работает
	if c.Approval.Guard != GuardOff && c.Approval.GuardTTL <= 0 {
		return fmt.Errorf("APPROVAL_GUARD_TTL must be positive, got %s", c.Approval.GuardTTL)
	}

	if c.Revocation.Enabled {
		if _, err := cron.ParseStandard(c.Revocation.Schedule); err != nil {
			return fmt.Errorf("invalid REVOCATION_SCHEDULE %q: %w", c.Revocation.Schedule, err)
		}
	}

	if c.Webhook.DeliveryLogSize < 0 {
		return fmt.Errorf("WEBHOOK_DELIVERY_LOG_SIZE must not be negative")
	}

	return nil
}

const (
	GuardMemory = "memory"
	GuardRedis  = "redis"
	GuardOff    = "off"
)
