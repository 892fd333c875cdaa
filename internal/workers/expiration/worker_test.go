package expiration

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"paywall-bot/internal/stories/subs"
)

var testNow = time.Date(2025, 3, 1, 0, 10, 0, 0, time.UTC)

type fakeSubs struct {
	records   map[int64]time.Time
	listErr   error
	revokeErr map[int64]error
	asOf      time.Time
}

func (f *fakeSubs) Now() time.Time { return testNow }

func (f *fakeSubs) ListExpired(_ context.Context, asOf time.Time) ([]int64, error) {
	f.asOf = asOf
	if f.listErr != nil {
		return nil, f.listErr
	}
	var ids []int64
	for id, exp := range f.records {
		if !exp.After(asOf) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeSubs) GetSubscription(_ context.Context, userID int64) (*subs.Subscription, error) {
	exp, ok := f.records[userID]
	if !ok {
		return nil, nil
	}
	return &subs.Subscription{UserID: userID, ExpiresAt: exp}, nil
}

func (f *fakeSubs) RevokeExpired(_ context.Context, userID int64, asOf time.Time) (bool, error) {
	if err := f.revokeErr[userID]; err != nil {
		return false, err
	}
	exp, ok := f.records[userID]
	if !ok || exp.After(asOf) {
		return false, nil
	}
	delete(f.records, userID)
	return true, nil
}

// renewingSubs applies renewals right after the scan.
type renewingSubs struct {
	*fakeSubs
	renew map[int64]time.Time
}

func (r *renewingSubs) ListExpired(ctx context.Context, asOf time.Time) ([]int64, error) {
	ids, err := r.fakeSubs.ListExpired(ctx, asOf)
	for id, exp := range r.renew {
		r.records[id] = exp
	}
	return ids, err
}

type fakeKicker struct {
	kicked  []int64
	failFor map[int64]error
	onKick  func(userID int64)
}

func (k *fakeKicker) KickMember(_ int64, userID int64) error {
	if err := k.failFor[userID]; err != nil {
		return err
	}
	if k.onKick != nil {
		k.onKick(userID)
	}
	k.kicked = append(k.kicked, userID)
	return nil
}

type fakeNotifier struct {
	sent []int64
	err  error
}

func (n *fakeNotifier) SendMessage(chatID int64, _ string) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, chatID)
	return nil
}

type keyLocalizer struct{}

func (keyLocalizer) Get(_ string, key string, _ map[string]interface{}) string { return key }

func newTestWorker(s subscriptionService, k *fakeKicker, n *fakeNotifier) *Worker {
	return NewWorker(s, k, n, keyLocalizer{}, Config{ChannelID: -100, Schedule: "10 0 * * *"},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRunRevokesExpired(t *testing.T) {
	subs := &fakeSubs{records: map[int64]time.Time{
		1: testNow.Add(-48 * time.Hour),
		2: testNow,
		3: testNow.Add(time.Hour),
	}}
	kicker := &fakeKicker{}
	notifier := &fakeNotifier{}

	res, err := newTestWorker(subs, kicker, notifier).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !subs.asOf.Equal(testNow) {
		t.Fatalf("scanned as of %v, want %v", subs.asOf, testNow)
	}
	if res != (Result{Expired: 2, Revoked: 2}) {
		t.Fatalf("result = %+v", res)
	}
	if len(kicker.kicked) != 2 || len(notifier.sent) != 2 {
		t.Fatalf("kicked = %v, notified = %v", kicker.kicked, notifier.sent)
	}
	if _, ok := subs.records[3]; !ok || len(subs.records) != 1 {
		t.Fatalf("remaining records = %v, want only the active one", subs.records)
	}
}

func TestRunKeepsRecordWhenKickFails(t *testing.T) {
	subs := &fakeSubs{records: map[int64]time.Time{
		1: testNow.Add(-time.Hour),
		2: testNow.Add(-time.Hour),
	}}
	kicker := &fakeKicker{failFor: map[int64]error{1: errors.New("not enough rights")}}
	notifier := &fakeNotifier{}

	res, err := newTestWorker(subs, kicker, notifier).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Revoked != 1 || res.Failed != 1 {
		t.Fatalf("result = %+v", res)
	}
	if _, ok := subs.records[1]; !ok {
		t.Fatal("record deleted although the user is still in the channel")
	}
	if len(notifier.sent) != 1 || notifier.sent[0] != 2 {
		t.Fatalf("notified = %v, want [2]", notifier.sent)
	}
}

func TestRunKeepsGrantRenewedDuringKick(t *testing.T) {
	records := &fakeSubs{records: map[int64]time.Time{42: testNow.Add(-39 * 24 * time.Hour)}}
	kicker := &fakeKicker{onKick: func(userID int64) {
		records.records[userID] = testNow.Add(30 * 24 * time.Hour)
	}}
	notifier := &fakeNotifier{}

	res, err := newTestWorker(records, kicker, notifier).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res != (Result{Expired: 1, Renewed: 1}) {
		t.Fatalf("result = %+v", res)
	}
	if exp, ok := records.records[42]; !ok || !exp.Equal(testNow.Add(30*24*time.Hour)) {
		t.Fatalf("renewed record = %v, %v", exp, ok)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("renewed user notified about expiry: %v", notifier.sent)
	}
}

func TestRunSkipsGrantRenewedAfterScan(t *testing.T) {
	records := &fakeSubs{records: map[int64]time.Time{42: testNow.Add(-time.Hour)}}
	scanning := &renewingSubs{fakeSubs: records, renew: map[int64]time.Time{42: testNow.Add(24 * time.Hour)}}
	kicker := &fakeKicker{}

	res, err := newTestWorker(scanning, kicker, &fakeNotifier{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res != (Result{Expired: 1, Renewed: 1}) {
		t.Fatalf("result = %+v", res)
	}
	if len(kicker.kicked) != 0 {
		t.Fatalf("renewed user kicked: %v", kicker.kicked)
	}
}

func TestRunNotifyFailureIsNotFatal(t *testing.T) {
	subs := &fakeSubs{records: map[int64]time.Time{1: testNow.Add(-time.Hour)}}
	notifier := &fakeNotifier{err: errors.New("bot was blocked by the user")}

	res, err := newTestWorker(subs, &fakeKicker{}, notifier).Run(context.Background())
	if err != nil || res.Revoked != 1 {
		t.Fatalf("res = %+v, err = %v", res, err)
	}
}

func TestRunListError(t *testing.T) {
	subs := &fakeSubs{listErr: errors.New("database is locked")}

	if _, err := newTestWorker(subs, &fakeKicker{}, &fakeNotifier{}).Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	w := NewWorker(&fakeSubs{}, &fakeKicker{}, &fakeNotifier{}, keyLocalizer{},
		Config{Schedule: "every tuesday"}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := w.Start(); err == nil {
		w.Stop()
		t.Fatal("expected schedule error")
	}
}
