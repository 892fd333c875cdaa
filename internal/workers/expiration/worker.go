package expiration

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
)

var revocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "paywall_revocations_total",
	Help: "Expired subscriptions processed by the revocation job by result.",
}, []string{"result"})

type Config struct {
	ChannelID int64
	Schedule  string
}

// Result summarizes one revocation run.
type Result struct {
	Expired int
	Revoked int
	Renewed int
	Failed  int
}

// Worker removes users with expired subscriptions from the channel and
// deletes their records.
type Worker struct {
	service  subscriptionService
	kicker   channelKicker
	notifier notifier
	l10n     localizer
	cfg      Config
	logger   *slog.Logger
	cron     *cron.Cron
}

// NewWorker creates a new expiration worker
func NewWorker(
	service subscriptionService,
	kicker channelKicker,
	notifier notifier,
	l10n localizer,
	cfg Config,
	logger *slog.Logger,
) *Worker {
	return &Worker{
		service:  service,
		kicker:   kicker,
		notifier: notifier,
		l10n:     l10n,
		cfg:      cfg,
		logger:   logger,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
}

// Name returns the worker name
func (w *Worker) Name() string {
	return "expiration"
}

// Start schedules the revocation job
func (w *Worker) Start() error {
	_, err := w.cron.AddFunc(w.cfg.Schedule, func() {
		ctx := context.Background()
		w.logger.Info("Running expiration worker")
		if _, err := w.Run(ctx); err != nil {
			w.logger.Error("Expiration worker failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule expiration worker: %w", err)
	}

	w.cron.Start()
	return nil
}

// Stop stops the worker and waits for a running job
func (w *Worker) Stop() {
	w.logger.Info("Stopping expiration worker")
	<-w.cron.Stop().Done()
}

// Run revokes every subscription expired as of now. A user that could not be
// removed from the channel keeps the record and is retried on the next run.
// A user re-approved after the scan keeps the new grant.
func (w *Worker) Run(ctx context.Context) (Result, error) {
	var res Result

	asOf := w.service.Now()
	expired, err := w.service.ListExpired(ctx, asOf)
	if err != nil {
		return res, fmt.Errorf("list expired subscriptions: %w", err)
	}
	res.Expired = len(expired)

	w.logger.Info("Found expired subscriptions", "count", len(expired))

	for _, userID := range expired {
		sub, err := w.service.GetSubscription(ctx, userID)
		if err != nil {
			w.logger.Error("Failed to re-check subscription", "user_id", userID, "error", err)
			revocationsTotal.WithLabelValues("store_failed").Inc()
			res.Failed++
			continue
		}
		if sub == nil || !sub.IsExpired(asOf) {
			w.logger.Info("Subscription renewed before revocation", "user_id", userID)
			revocationsTotal.WithLabelValues("renewed").Inc()
			res.Renewed++
			continue
		}

		if err := w.kicker.KickMember(w.cfg.ChannelID, userID); err != nil {
			w.logger.Error("Failed to remove user from channel", "user_id", userID, "error", err)
			revocationsTotal.WithLabelValues("kick_failed").Inc()
			res.Failed++
			continue
		}

		deleted, err := w.service.RevokeExpired(ctx, userID, asOf)
		if err != nil {
			w.logger.Error("Failed to delete expired subscription", "user_id", userID, "error", err)
			revocationsTotal.WithLabelValues("store_failed").Inc()
			res.Failed++
			continue
		}
		if !deleted {
			// ban is lifted right away, the new invite link still works
			w.logger.Warn("Subscription renewed during revocation", "user_id", userID)
			revocationsTotal.WithLabelValues("renewed").Inc()
			res.Renewed++
			continue
		}

		revocationsTotal.WithLabelValues("revoked").Inc()
		res.Revoked++
		w.logger.Info("Subscription revoked", "user_id", userID)

		// the user may have blocked the bot
		text := w.l10n.Get("", "notify.expired", nil)
		if err := w.notifier.SendMessage(userID, text); err != nil {
			w.logger.Warn("Failed to notify user about expiry", "user_id", userID, "error", err)
		}
	}

	w.logger.Info("Expiration worker execution completed",
		"revoked", res.Revoked, "renewed", res.Renewed, "failed", res.Failed)
	return res, nil
}
