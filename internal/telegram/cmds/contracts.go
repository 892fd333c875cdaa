package cmds

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"paywall-bot/internal/stories/subs"
)

const dateLayout = "2006-01-02 15:04 MST"

type (
	botApi interface {
		Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	}

	localizer interface {
		Get(lang, key string, params map[string]interface{}) string
	}

	statusService interface {
		GetSubscription(ctx context.Context, userID int64) (*subs.Subscription, error)
		Now() time.Time
	}

	expiredService interface {
		ListExpiredSubscriptions(ctx context.Context, asOf time.Time) ([]*subs.Subscription, error)
		Now() time.Time
	}

	revokeService interface {
		Revoke(ctx context.Context, userID int64) error
	}

	channelKicker interface {
		KickMember(chatID, userID int64) error
	}
)
