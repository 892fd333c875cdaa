package environment

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"paywall-bot/internal/api"
	"paywall-bot/internal/config"
	"paywall-bot/internal/decisions"
	"paywall-bot/internal/localization"
	"paywall-bot/internal/storage"
	"paywall-bot/internal/stories/subs"
	"paywall-bot/internal/telegram"
	"paywall-bot/internal/telegram/cmds"
	"paywall-bot/internal/telegram/flows/approval"
)

type decisionGuard interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type Services struct {
	Subscriptions  *subs.Service
	Localization   *localization.Service
	Approval       *approval.Handler
	TelegramRouter *telegram.Router
	API            *api.Handler
	Deliveries     *api.DeliveryLog

	// MemoryGuard is set only with APPROVAL_GUARD=memory, it needs a cleanup worker
	MemoryGuard *decisions.MemoryGuard
}

func newServices(_ context.Context, clients *Clients, cfg *config.Config, logger *slog.Logger) (*Services, error) {
	var s Services

	// Инициализируем telegram сервисы
	if clients.TelegramBot == nil {
		return nil, errors.New("telegram bot не инициализирован")
	}

	// Создаем storage и сервис подписок
	storageImpl := storage.New(clients.SQLiteDB.DB)
	s.Subscriptions = subs.NewService(storageImpl, time.Now)

	l10n, err := localization.NewService(cfg.Telegram.DefaultLanguage)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create localization service")
	}
	s.Localization = l10n

	adminChecker := telegram.NewAdminChecker(&cfg.Telegram)
	if len(adminChecker.AdminIDs()) == 0 {
		logger.Warn("TELEGRAM_ADMIN_IDS is empty, payment proofs will not be forwarded")
	}

	var guard decisionGuard
	switch cfg.Approval.Guard {
	case config.GuardMemory:
		s.MemoryGuard = decisions.NewMemoryGuard(cfg.Approval.GuardTTL)
		guard = s.MemoryGuard
	case config.GuardRedis:
		guard = decisions.NewRedisGuard(clients.Redis.Client, cfg.Approval.GuardTTL)
	case config.GuardOff:
		logger.Warn("One-shot decision guard is off, approve/decline buttons can be replayed")
	}

	// Создаем approvalHandler - наш клиент уже реализует botApi интерфейс
	s.Approval = approval.NewHandler(
		clients.TelegramBot,
		s.Subscriptions,
		adminChecker,
		guard,
		l10n,
		approval.Config{
			ChannelID:   cfg.Telegram.PrivateChannelID,
			DefaultDays: cfg.Approval.DefaultDays,
			MaxDays:     cfg.Approval.MaxDays,
		},
		logger.With("flow", "approval"),
	)

	statusCommand := cmds.NewStatusCommand(clients.TelegramBot, s.Subscriptions, l10n)
	expiredCommand := cmds.NewExpiredCommand(clients.TelegramBot, s.Subscriptions, l10n)
	revokeCommand := cmds.NewRevokeCommand(
		clients.TelegramBot,
		s.Subscriptions,
		clients.TelegramBot,
		cfg.Telegram.PrivateChannelID,
		l10n,
		logger.With("command", "revoke"),
	)

	// Создаем роутер
	s.TelegramRouter = telegram.NewRouter(
		clients.TelegramBot,
		adminChecker,
		l10n,
		s.Approval,
		statusCommand,
		expiredCommand,
		revokeCommand,
		logger.With("component", "router"),
	)

	s.Deliveries = api.NewDeliveryLog(cfg.Webhook.DeliveryLogSize)
	s.API = api.NewHandler(
		s.TelegramRouter,
		clients.TelegramBot,
		s.Deliveries,
		cfg.Webhook.WebhookURL(),
		cfg.Webhook.SecretToken,
		logger.With("component", "api"),
	)

	return &s, nil
}
