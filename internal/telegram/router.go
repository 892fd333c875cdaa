package telegram

import (
	"context"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"paywall-bot/internal/telegram/flows/approval"
)

const tracerName = "paywall-bot/internal/telegram"

type Router struct {
	bot          botApi
	adminChecker adminChecker
	l10n         localizer
	logger       *slog.Logger
	tracer       trace.Tracer

	locks       *userLocks
	commandsSet sync.Map

	// Handlers
	approvalHandler approvalHandler
	statusCommand   statusCommand
	expiredCommand  expiredCommand
	revokeCommand   revokeCommand
}

type botApi interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type adminChecker interface {
	IsAdmin(telegramID int64) bool
}

type localizer interface {
	Get(lang, key string, params map[string]interface{}) string
}

type approvalHandler interface {
	Submit(ctx context.Context, s approval.Submission) (*approval.FanOutReport, error)
	Decide(ctx context.Context, d approval.Decision) (approval.Outcome, error)
	DirectApprove(ctx context.Context, a approval.DirectApproval) (approval.Outcome, error)
}

type statusCommand interface {
	Execute(ctx context.Context, userID, chatID int64, lang string) error
}

type expiredCommand interface {
	Execute(ctx context.Context, chatID int64, lang string) error
}

type revokeCommand interface {
	Execute(ctx context.Context, chatID int64, args, lang string) error
}

// NewRouter создает новый роутер с зависимостями
func NewRouter(
	bot botApi,
	adminChecker adminChecker,
	l10n localizer,
	approvalHandler approvalHandler,
	statusCommand statusCommand,
	expiredCommand expiredCommand,
	revokeCommand revokeCommand,
	logger *slog.Logger,
) *Router {
	return &Router{
		bot:             bot,
		adminChecker:    adminChecker,
		l10n:            l10n,
		logger:          logger,
		tracer:          otel.Tracer(tracerName),
		locks:           newUserLocks(),
		approvalHandler: approvalHandler,
		statusCommand:   statusCommand,
		expiredCommand:  expiredCommand,
		revokeCommand:   revokeCommand,
	}
}

// Route обрабатывает один апдейт до конца. Апдейты одного пользователя
// обрабатываются строго по очереди.
func (r *Router) Route(ctx context.Context, update *tgbotapi.Update) (err error) {
	telegramID := extractUserID(update)
	if telegramID == 0 {
		return nil // Некорректный или неподдерживаемый update
	}

	ctx, span := r.tracer.Start(ctx, "telegram.Route", trace.WithAttributes(
		attribute.String("update.kind", updateKind(update)),
		attribute.Int64("user.id", telegramID),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	unlock := r.locks.Lock(telegramID)
	defer unlock()

	isAdmin := r.adminChecker.IsAdmin(telegramID)
	lang := extractLanguage(update)

	if update.Message != nil {
		r.setupCommands(update.Message.Chat.ID, telegramID, isAdmin, lang)
	}

	switch {
	case update.CallbackQuery != nil:
		return r.handleCallback(ctx, update.CallbackQuery, lang)
	case update.Message.IsCommand():
		return r.handleCommand(ctx, update.Message, isAdmin, lang)
	case len(update.Message.Photo) > 0:
		return r.handleSubmission(ctx, update.Message, lang)
	default:
		return r.sendHelp(update.Message.Chat.ID, isAdmin, lang)
	}
}

func (r *Router) handleCommand(ctx context.Context, msg *tgbotapi.Message, isAdmin bool, lang string) error {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		return r.send(chatID, r.l10n.Get(lang, "welcome", nil))
	case "status":
		return r.statusCommand.Execute(ctx, msg.From.ID, chatID, lang)
	case "approve":
		// Права проверяются в самом флоу
		outcome, err := r.approvalHandler.DirectApprove(ctx, approval.DirectApproval{
			ActorID:      msg.From.ID,
			ChatID:       chatID,
			Args:         msg.CommandArguments(),
			LanguageCode: lang,
		})
		r.logRejection(outcome, msg.From.ID)
		return err
	case "expired":
		if !isAdmin {
			return r.send(chatID, r.l10n.Get(lang, "unauthorized", nil))
		}
		return r.expiredCommand.Execute(ctx, chatID, lang)
	case "revoke":
		if !isAdmin {
			return r.send(chatID, r.l10n.Get(lang, "unauthorized", nil))
		}
		return r.revokeCommand.Execute(ctx, chatID, msg.CommandArguments(), lang)
	default:
		return r.sendHelp(chatID, isAdmin, lang)
	}
}

func (r *Router) handleSubmission(ctx context.Context, msg *tgbotapi.Message, lang string) error {
	// Последний размер самый большой
	photo := msg.Photo[len(msg.Photo)-1]

	_, err := r.approvalHandler.Submit(ctx, approval.Submission{
		UserID:       msg.From.ID,
		ChatID:       msg.Chat.ID,
		FullName:     fullName(msg.From),
		Username:     msg.From.UserName,
		LanguageCode: lang,
		PhotoFileID:  photo.FileID,
	})
	return err
}

func (r *Router) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery, lang string) error {
	if !approval.IsToken(query.Data) {
		// Неизвестная кнопка, просто гасим спиннер
		_, err := r.bot.Request(tgbotapi.NewCallback(query.ID, ""))
		return err
	}

	var ref approval.MessageRef
	if query.Message != nil {
		ref = approval.MessageRef{
			ChatID:    query.Message.Chat.ID,
			MessageID: query.Message.MessageID,
			HasPhoto:  len(query.Message.Photo) > 0,
		}
	}

	outcome, err := r.approvalHandler.Decide(ctx, approval.Decision{
		ActorID:      query.From.ID,
		CallbackID:   query.ID,
		Data:         query.Data,
		Message:      ref,
		LanguageCode: lang,
	})
	r.logRejection(outcome, query.From.ID)
	return err
}

func (r *Router) logRejection(outcome approval.Outcome, actorID int64) {
	if reason := outcome.Rejection(); reason != nil {
		r.logger.Debug("Approval rejected", "actor_id", actorID, "outcome", outcome, "reason", reason)
	}
}

func (r *Router) sendHelp(chatID int64, isAdmin bool, lang string) error {
	text := r.l10n.Get(lang, "help", nil)
	if isAdmin {
		text += r.l10n.Get(lang, "help_admin", nil)
	}
	return r.send(chatID, text)
}

func (r *Router) send(chatID int64, text string) error {
	_, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// SetupBotCommands устанавливает команды для меню бота
func (r *Router) SetupBotCommands(lang string) error {
	setCommandsConfig := tgbotapi.NewSetMyCommands(r.userCommands(lang)...)
	_, err := r.bot.Request(setCommandsConfig)
	return err
}

// setupCommands ставит меню команд в чате один раз за время жизни процесса
func (r *Router) setupCommands(chatID, telegramID int64, isAdmin bool, lang string) {
	if !isAdmin {
		return
	}
	if _, loaded := r.commandsSet.LoadOrStore(telegramID, struct{}{}); loaded {
		return
	}

	commands := append(r.userCommands(lang),
		tgbotapi.BotCommand{Command: "approve", Description: r.l10n.Get(lang, "commands.approve", nil)},
		tgbotapi.BotCommand{Command: "expired", Description: r.l10n.Get(lang, "commands.expired", nil)},
		tgbotapi.BotCommand{Command: "revoke", Description: r.l10n.Get(lang, "commands.revoke", nil)},
	)

	scope := tgbotapi.NewBotCommandScopeChat(chatID)
	setCommandsConfig := tgbotapi.SetMyCommandsConfig{
		Commands: commands,
		Scope:    &scope,
	}

	// Игнорируем ошибку, чтобы не блокировать основной поток
	if _, err := r.bot.Request(setCommandsConfig); err != nil {
		r.logger.Warn("Failed to set admin commands", "error", err, "chat_id", chatID)
	}
}

func (r *Router) userCommands(lang string) []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "start", Description: r.l10n.Get(lang, "commands.start", nil)},
		{Command: "status", Description: r.l10n.Get(lang, "commands.status", nil)},
		{Command: "help", Description: r.l10n.Get(lang, "commands.help", nil)},
	}
}

func extractUserID(update *tgbotapi.Update) int64 {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.ID
	}
	if update.CallbackQuery != nil && update.CallbackQuery.From != nil {
		return update.CallbackQuery.From.ID
	}
	return 0
}

func extractLanguage(update *tgbotapi.Update) string {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.LanguageCode
	}
	if update.CallbackQuery != nil && update.CallbackQuery.From != nil {
		return update.CallbackQuery.From.LanguageCode
	}
	return ""
}

func updateKind(update *tgbotapi.Update) string {
	switch {
	case update.CallbackQuery != nil:
		return "callback"
	case update.Message != nil && update.Message.IsCommand():
		return "command"
	case update.Message != nil && len(update.Message.Photo) > 0:
		return "photo"
	case update.Message != nil:
		return "message"
	default:
		return "other"
	}
}

func fullName(u *tgbotapi.User) string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
