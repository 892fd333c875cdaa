package approval

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"paywall-bot/internal/stories/subs"
)

type (
	botApi interface {
		Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
		Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	}

	subscriptionService interface {
		Grant(ctx context.Context, userID int64, days int) (*subs.Subscription, error)
	}

	adminChecker interface {
		IsAdmin(telegramID int64) bool
		AdminIDs() []int64
	}

	// decisionGuard makes a decision one-shot: only the first Claim of a key
	// returns true.
	decisionGuard interface {
		Claim(ctx context.Context, key string) (bool, error)
		Release(ctx context.Context, key string) error
	}

	localizer interface {
		Get(lang, key string, params map[string]interface{}) string
	}
)
