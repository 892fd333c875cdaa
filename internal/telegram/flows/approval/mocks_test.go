package approval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"paywall-bot/internal/decisions"
	"paywall-bot/internal/stories/subs"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// journal records the order of side effects across fakes.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type mockBot struct {
	mu         sync.Mutex
	journal    *journal
	nextID     int
	sent       []tgbotapi.Chattable
	requests   []tgbotapi.Chattable
	failSendTo map[int64]error
	inviteErr  error
	inviteLink string
}

func newMockBot(j *journal) *mockBot {
	return &mockBot{
		journal:    j,
		nextID:     100,
		failSendTo: map[int64]error{},
		inviteLink: "https://t.me/+invite",
	}
}

func (b *mockBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var chatID int64
	switch v := c.(type) {
	case tgbotapi.PhotoConfig:
		chatID = v.ChatID
	case tgbotapi.MessageConfig:
		chatID = v.ChatID
	}

	if err := b.failSendTo[chatID]; err != nil {
		return tgbotapi.Message{}, err
	}

	b.sent = append(b.sent, c)
	b.nextID++
	b.journal.add(fmt.Sprintf("send:%d", chatID))
	return tgbotapi.Message{MessageID: b.nextID, Chat: &tgbotapi.Chat{ID: chatID}}, nil
}

func (b *mockBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.requests = append(b.requests, c)

	if _, ok := c.(tgbotapi.CreateChatInviteLinkConfig); ok {
		b.journal.add("invite")
		if b.inviteErr != nil {
			return nil, b.inviteErr
		}
		raw, _ := json.Marshal(tgbotapi.ChatInviteLink{InviteLink: b.inviteLink})
		return &tgbotapi.APIResponse{Ok: true, Result: raw}, nil
	}

	return &tgbotapi.APIResponse{Ok: true, Result: json.RawMessage("true")}, nil
}

func (b *mockBot) photos() []tgbotapi.PhotoConfig {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []tgbotapi.PhotoConfig
	for _, c := range b.sent {
		if p, ok := c.(tgbotapi.PhotoConfig); ok {
			out = append(out, p)
		}
	}
	return out
}

func (b *mockBot) messagesTo(chatID int64) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []string
	for _, c := range b.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok && m.ChatID == chatID {
			out = append(out, m.Text)
		}
	}
	return out
}

func (b *mockBot) captionEdits() []tgbotapi.EditMessageCaptionConfig {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []tgbotapi.EditMessageCaptionConfig
	for _, c := range b.requests {
		if e, ok := c.(tgbotapi.EditMessageCaptionConfig); ok {
			out = append(out, e)
		}
	}
	return out
}

func (b *mockBot) textEdits() []tgbotapi.EditMessageTextConfig {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []tgbotapi.EditMessageTextConfig
	for _, c := range b.requests {
		if e, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			out = append(out, e)
		}
	}
	return out
}

func (b *mockBot) callbacks() []tgbotapi.CallbackConfig {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []tgbotapi.CallbackConfig
	for _, c := range b.requests {
		if cb, ok := c.(tgbotapi.CallbackConfig); ok {
			out = append(out, cb)
		}
	}
	return out
}

func (b *mockBot) inviteRequests() []tgbotapi.CreateChatInviteLinkConfig {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []tgbotapi.CreateChatInviteLinkConfig
	for _, c := range b.requests {
		if r, ok := c.(tgbotapi.CreateChatInviteLinkConfig); ok {
			out = append(out, r)
		}
	}
	return out
}

type mockSubscriptions struct {
	mu       sync.Mutex
	journal  *journal
	records  map[int64]time.Time
	grants   int
	grantErr error
}

func newMockSubscriptions(j *journal) *mockSubscriptions {
	return &mockSubscriptions{journal: j, records: map[int64]time.Time{}}
}

func (m *mockSubscriptions) Grant(_ context.Context, userID int64, days int) (*subs.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.grants++
	m.journal.add("grant")
	if m.grantErr != nil {
		return nil, m.grantErr
	}

	expiresAt := testNow.Add(time.Duration(days) * 24 * time.Hour)
	m.records[userID] = expiresAt
	return &subs.Subscription{UserID: userID, ExpiresAt: expiresAt}, nil
}

func (m *mockSubscriptions) snapshot() map[int64]time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[int64]time.Time, len(m.records))
	for k, v := range m.records {
		out[k] = v
	}
	return out
}

func (m *mockSubscriptions) grantCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.grants
}

type mockAdmins struct {
	ids []int64
}

func (m mockAdmins) IsAdmin(id int64) bool {
	for _, a := range m.ids {
		if a == id {
			return true
		}
	}
	return false
}

func (m mockAdmins) AdminIDs() []int64 {
	return m.ids
}

// mockLocalizer renders the key followed by its params, e.g.
// "decision.approved map[user_id:42]".
type mockLocalizer struct{}

func (mockLocalizer) Get(_ string, key string, params map[string]interface{}) string {
	if len(params) == 0 {
		return key
	}
	return fmt.Sprintf("%s %v", key, params)
}

type testEnv struct {
	handler *Handler
	bot     *mockBot
	subs    *mockSubscriptions
	journal *journal
}

const (
	adminA    int64 = 1001
	adminB    int64 = 1002
	channelID int64 = -100500
)

func newTestEnv(guard decisionGuard) *testEnv {
	j := &journal{}
	bot := newMockBot(j)
	ss := newMockSubscriptions(j)

	h := NewHandler(bot, ss, mockAdmins{ids: []int64{adminA, adminB}}, guard, mockLocalizer{}, Config{
		ChannelID:   channelID,
		DefaultDays: 30,
		MaxDays:     3650,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.now = func() time.Time { return testNow }

	return &testEnv{handler: h, bot: bot, subs: ss, journal: j}
}

func newGuard() decisionGuard {
	return decisions.NewMemoryGuard(time.Hour)
}

var errNetwork = errors.New("network is unreachable")
