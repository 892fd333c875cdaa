package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const pollerShards = 8

type updateRouter interface {
	Route(ctx context.Context, update *tgbotapi.Update) error
}

// poller раскладывает апдейты по шардам по user id: апдейты одного
// пользователя идут по порядку, разные пользователи обрабатываются параллельно.
type poller struct {
	router updateRouter
	logger *slog.Logger
	shards []chan tgbotapi.Update
	wg     sync.WaitGroup
}

func newPoller(router updateRouter, logger *slog.Logger) *poller {
	p := &poller{
		router: router,
		logger: logger,
		shards: make([]chan tgbotapi.Update, pollerShards),
	}
	for i := range p.shards {
		p.shards[i] = make(chan tgbotapi.Update, 16)
	}
	return p
}

// Start читает апдейты пока канал не закрыт
func (p *poller) Start(ctx context.Context, updates <-chan tgbotapi.Update) {
	// Апдейт обрабатывается до конца даже при остановке
	ctx = context.WithoutCancel(ctx)

	p.wg.Add(len(p.shards))
	for i := range p.shards {
		go p.work(ctx, p.shards[i])
	}

	go func() {
		defer func() {
			for _, ch := range p.shards {
				close(ch)
			}
		}()

		p.logger.Info("Started listening for updates with router...")
		for update := range updates {
			p.shards[shardFor(&update, len(p.shards))] <- update
		}
	}()
}

// Wait ждет обработки уже полученных апдейтов, но не дольше timeout
func (p *poller) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (p *poller) work(ctx context.Context, updates <-chan tgbotapi.Update) {
	defer p.wg.Done()

	for update := range updates {
		if err := p.router.Route(ctx, &update); err != nil {
			p.logger.Error("Ошибка обработки обновления",
				slog.Int("update_id", update.UpdateID),
				slog.Any("error", err))
		}
	}
}

func shardFor(update *tgbotapi.Update, shards int) int {
	var userID int64
	switch {
	case update.Message != nil && update.Message.From != nil:
		userID = update.Message.From.ID
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		userID = update.CallbackQuery.From.ID
	}
	if userID < 0 {
		userID = -userID
	}
	return int(userID % int64(shards))
}
