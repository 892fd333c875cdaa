package approval

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

const (
	sourceCallback = "callback"
	sourceCommand  = "command"
)

type Config struct {
	ChannelID   int64
	DefaultDays int
	MaxDays     int
}

// Handler drives a payment proof from submission to a terminal decision.
type Handler struct {
	bot                 botApi
	subscriptionService subscriptionService
	admins              adminChecker
	guard               decisionGuard
	l10n                localizer
	cfg                 Config
	now                 func() time.Time
	logger              *slog.Logger
}

// NewHandler creates the approval handler. A nil guard disables one-shot
// decisions: tokens can then be replayed.
func NewHandler(
	bot botApi,
	ss subscriptionService,
	admins adminChecker,
	guard decisionGuard,
	l10n localizer,
	cfg Config,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		bot:                 bot,
		subscriptionService: ss,
		admins:              admins,
		guard:               guard,
		l10n:                l10n,
		cfg:                 cfg,
		now:                 time.Now,
		logger:              logger,
	}
}

// Submit forwards a payment proof with approve/decline buttons to every admin.
// A failed delivery to one admin does not stop the others. The user is
// acknowledged regardless of delivery results.
func (h *Handler) Submit(ctx context.Context, s Submission) (*FanOutReport, error) {
	submissionsTotal.Inc()

	report := &FanOutReport{RequestID: NewRequestID()}
	approve := Token{Action: ActionApprove, UserID: s.UserID, RequestID: report.RequestID}
	decline := Token{Action: ActionDecline, UserID: s.UserID, RequestID: report.RequestID}

	username := h.l10n.Get("", "submission.no_username", nil)
	if s.Username != "" {
		username = "@" + s.Username
	}
	caption := h.l10n.Get("", "submission.caption", map[string]interface{}{
		"full_name": s.FullName,
		"username":  username,
		"user_id":   s.UserID,
	})

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(h.l10n.Get("", "buttons.approve", nil), approve.String()),
			tgbotapi.NewInlineKeyboardButtonData(h.l10n.Get("", "buttons.decline", nil), decline.String()),
		),
	)

	adminIDs := h.admins.AdminIDs()
	if len(adminIDs) == 0 {
		h.logger.Warn("No admins configured, payment proof is not forwarded", "user_id", s.UserID)
	}

	for _, adminID := range adminIDs {
		photo := tgbotapi.NewPhoto(adminID, tgbotapi.FileID(s.PhotoFileID))
		photo.Caption = caption
		photo.ReplyMarkup = keyboard

		delivery := Delivery{AdminID: adminID}
		sent, err := h.bot.Send(photo)
		if err != nil {
			delivery.Err = &GatewayError{Op: "forward_proof", Err: err}
			adminDeliveriesTotal.WithLabelValues("failed").Inc()
			h.logger.Error("Failed to forward payment proof to admin",
				"error", err, "admin_id", adminID, "user_id", s.UserID)
		} else {
			delivery.MessageID = sent.MessageID
			adminDeliveriesTotal.WithLabelValues("delivered").Inc()
		}
		report.Deliveries = append(report.Deliveries, delivery)
	}

	h.logger.Info("Payment proof submitted",
		"user_id", s.UserID,
		"request_id", report.RequestID,
		"delivered", len(report.Delivered()),
		"failed", len(report.Failed()))

	ack := tgbotapi.NewMessage(s.ChatID, h.l10n.Get(s.LanguageCode, "submission.forwarded", nil))
	if _, err := h.bot.Send(ack); err != nil {
		return report, &GatewayError{Op: "acknowledge_submission", Err: err}
	}

	return report, nil
}

// Decide applies an admin decision from an inline button. The returned error
// is set only for infrastructure failures; business rejections are reported
// through the Outcome.
func (h *Handler) Decide(ctx context.Context, d Decision) (outcome Outcome, err error) {
	lang := d.LanguageCode
	answer := ""
	alert := false

	defer func() {
		decisionsTotal.WithLabelValues(string(outcome)).Inc()
		h.answerCallback(d.CallbackID, answer, alert)
	}()

	if !h.admins.IsAdmin(d.ActorID) {
		h.logger.Warn("Decision from non-admin rejected", "actor_id", d.ActorID, "data", d.Data)
		answer, alert = h.l10n.Get(lang, "unauthorized", nil), true
		return OutcomeUnauthorized, nil
	}

	token, err := ParseToken(d.Data)
	if err != nil {
		h.logger.Warn("Invalid decision token", "error", err, "actor_id", d.ActorID)
		answer, alert = h.l10n.Get(lang, "decision.invalid", nil), true
		return OutcomeInvalid, nil
	}

	if h.guard != nil {
		claimed, err := h.guard.Claim(ctx, token.Key())
		if err != nil {
			answer, alert = h.l10n.Get(lang, "error", nil), true
			return OutcomeFailed, errors.Wrap(err, "claim decision")
		}
		if !claimed {
			h.logger.Info("Decision replay ignored",
				"actor_id", d.ActorID, "user_id", token.UserID, "action", token.Action)
			answer, alert = h.l10n.Get(lang, "decision.already_decided", nil), true
			return OutcomeAlreadyDecided, nil
		}
	}

	params := map[string]interface{}{"user_id": token.UserID}

	if token.Action == ActionDecline {
		text := h.l10n.Get(lang, "decision.declined", params)
		answer = text
		h.logger.Info("Payment declined", "actor_id", d.ActorID, "user_id", token.UserID, "outcome", OutcomeDeclined)
		if err := h.editOutcome(d.Message, text); err != nil {
			return OutcomeDeclined, err
		}
		return OutcomeDeclined, nil
	}

	if err := h.grantAndInvite(ctx, token.UserID, h.cfg.DefaultDays, sourceCallback, "notify.approved"); err != nil {
		var storeErr *StoreError
		if h.guard != nil && errors.As(err, &storeErr) {
			// nothing was granted, let an admin try again
			if relErr := h.guard.Release(ctx, token.Key()); relErr != nil {
				h.logger.Error("Failed to release decision", "error", relErr, "user_id", token.UserID)
			}
		}

		h.logger.Error("Approval failed", "error", err, "actor_id", d.ActorID, "user_id", token.UserID)
		text := h.l10n.Get(lang, "decision.failed", map[string]interface{}{"error": err.Error()})
		answer, alert = text, true
		if editErr := h.editOutcome(d.Message, text); editErr != nil {
			h.logger.Error("Failed to show approval failure", "error", editErr, "actor_id", d.ActorID)
		}
		return OutcomeFailed, err
	}

	text := h.l10n.Get(lang, "decision.approved", params)
	answer = text
	h.logger.Info("Payment approved", "actor_id", d.ActorID, "user_id", token.UserID, "outcome", OutcomeApproved)
	if err := h.editOutcome(d.Message, text); err != nil {
		return OutcomeApproved, err
	}
	return OutcomeApproved, nil
}

// DirectApprove handles "/approve <user_id> [days]". It has the same side
// effects as an approve decision without a submitted proof.
func (h *Handler) DirectApprove(ctx context.Context, a DirectApproval) (outcome Outcome, err error) {
	lang := a.LanguageCode
	defer func() {
		decisionsTotal.WithLabelValues(string(outcome)).Inc()
	}()

	if !h.admins.IsAdmin(a.ActorID) {
		h.logger.Warn("Direct approve from non-admin rejected", "actor_id", a.ActorID)
		return OutcomeUnauthorized, h.reply(a.ChatID, h.l10n.Get(lang, "unauthorized", nil))
	}

	userID, days, err := ParseDirectApproval(a.Args, h.cfg.DefaultDays, h.cfg.MaxDays)
	if err != nil {
		h.logger.Info("Invalid approve command", "error", err, "actor_id", a.ActorID)
		key := "approve_cmd.usage"
		if errors.Is(err, errDaysRange) {
			key = "approve_cmd.days_range"
		}
		return OutcomeInvalid, h.reply(a.ChatID, h.l10n.Get(lang, key, map[string]interface{}{"max": h.cfg.MaxDays}))
	}

	if err := h.grantAndInvite(ctx, userID, days, sourceCommand, "notify.direct"); err != nil {
		h.logger.Error("Direct approval failed", "error", err, "actor_id", a.ActorID, "user_id", userID)
		text := h.l10n.Get(lang, "decision.failed", map[string]interface{}{"error": err.Error()})
		if replyErr := h.reply(a.ChatID, text); replyErr != nil {
			h.logger.Error("Failed to report direct approval failure", "error", replyErr)
		}
		return OutcomeFailed, err
	}

	h.logger.Info("Subscription approved directly",
		"actor_id", a.ActorID, "user_id", userID, "days", days, "outcome", OutcomeApproved)

	text := h.l10n.Get(lang, "approve_cmd.approved", map[string]interface{}{"user_id": userID, "days": days})
	return OutcomeApproved, h.reply(a.ChatID, text)
}

var errDaysRange = errors.Wrap(ErrValidation, "days out of range")

// ParseDirectApproval parses "<user_id> [days]". days defaults to
// defaultDays and must be within [1, maxDays].
func ParseDirectApproval(args string, defaultDays, maxDays int) (int64, int, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 || len(fields) > 2 {
		return 0, 0, errors.Wrap(ErrValidation, "expected <user_id> [days]")
	}

	userID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || userID <= 0 {
		return 0, 0, errors.Wrapf(ErrValidation, "invalid user id %q", fields[0])
	}

	days := defaultDays
	if len(fields) == 2 {
		days, err = strconv.Atoi(fields[1])
		if err != nil {
			return 0, 0, errors.Wrapf(ErrValidation, "invalid days %q", fields[1])
		}
	}
	if days < 1 || days > maxDays {
		return 0, 0, errors.WithMessagef(errDaysRange, "%d not in [1, %d]", days, maxDays)
	}

	return userID, days, nil
}

// grantAndInvite commits the grant, then issues a single-use invite link and
// sends it to the user. A failed invite does not roll the grant back.
func (h *Handler) grantAndInvite(ctx context.Context, userID int64, days int, source, notifyKey string) error {
	if _, err := h.subscriptionService.Grant(ctx, userID, days); err != nil {
		return &StoreError{Op: "grant", Err: err}
	}
	grantsTotal.WithLabelValues(source).Inc()

	link, err := h.createInviteLink(days)
	if err != nil {
		return &GatewayError{Op: "create_invite_link", Err: err}
	}

	text := h.l10n.Get("", notifyKey, map[string]interface{}{"days": days, "link": link})
	if _, err := h.bot.Send(tgbotapi.NewMessage(userID, text)); err != nil {
		return &GatewayError{Op: "notify_user", Err: err}
	}

	return nil
}

func (h *Handler) createInviteLink(days int) (string, error) {
	cfg := tgbotapi.CreateChatInviteLinkConfig{
		ChatConfig:  tgbotapi.ChatConfig{ChatID: h.cfg.ChannelID},
		ExpireDate:  int(h.now().Add(time.Duration(days) * 24 * time.Hour).Unix()),
		MemberLimit: 1,
	}

	resp, err := h.bot.Request(cfg)
	if err != nil {
		return "", err
	}

	var link tgbotapi.ChatInviteLink
	if err := json.Unmarshal(resp.Result, &link); err != nil {
		return "", errors.Wrap(err, "decode invite link")
	}
	if link.InviteLink == "" {
		return "", errors.New("empty invite link")
	}

	return link.InviteLink, nil
}

// editOutcome reflects a decision on the admin message. Proofs are photos,
// so their caption is edited instead of the text.
func (h *Handler) editOutcome(ref MessageRef, text string) error {
	if ref.MessageID == 0 {
		return nil
	}

	var edit tgbotapi.Chattable
	if ref.HasPhoto {
		edit = tgbotapi.NewEditMessageCaption(ref.ChatID, ref.MessageID, text)
	} else {
		edit = tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text)
	}

	if _, err := h.bot.Request(edit); err != nil {
		return &GatewayError{Op: "edit_admin_message", Err: err}
	}
	return nil
}

func (h *Handler) answerCallback(callbackID, text string, alert bool) {
	if callbackID == "" {
		return
	}

	callback := tgbotapi.NewCallback(callbackID, text)
	callback.ShowAlert = alert
	if _, err := h.bot.Request(callback); err != nil {
		h.logger.Warn("Failed to answer callback", "error", err)
	}
}

func (h *Handler) reply(chatID int64, text string) error {
	if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return &GatewayError{Op: "reply", Err: err}
	}
	return nil
}
