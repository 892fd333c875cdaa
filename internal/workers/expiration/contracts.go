package expiration

import (
	"context"
	"time"

	"paywall-bot/internal/stories/subs"
)

type (
	// subscriptionService is the Expiry Scanner plus revocation of records
	subscriptionService interface {
		ListExpired(ctx context.Context, asOf time.Time) ([]int64, error)
		GetSubscription(ctx context.Context, userID int64) (*subs.Subscription, error)
		RevokeExpired(ctx context.Context, userID int64, asOf time.Time) (bool, error)
		Now() time.Time
	}

	channelKicker interface {
		KickMember(chatID, userID int64) error
	}

	notifier interface {
		SendMessage(chatID int64, text string) error
	}

	localizer interface {
		Get(lang, key string, params map[string]interface{}) string
	}
)
