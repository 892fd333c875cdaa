package workers

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

type fakeWorker struct {
	name     string
	startErr error
	events   *[]string
}

func (w *fakeWorker) Name() string { return w.name }

func (w *fakeWorker) Start() error {
	if w.startErr != nil {
		return w.startErr
	}
	*w.events = append(*w.events, "start:"+w.name)
	return nil
}

func (w *fakeWorker) Stop() {
	*w.events = append(*w.events, "stop:"+w.name)
}

func TestManagerStartStopOrder(t *testing.T) {
	var events []string
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	m := NewManager(logger,
		&fakeWorker{name: "a", events: &events},
		nil,
		&fakeWorker{name: "b", events: &events},
	)
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	m.Stop()

	want := []string{"start:a", "start:b", "stop:b", "stop:a"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
}

func TestManagerStopsStartedOnFailure(t *testing.T) {
	var events []string
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	m := NewManager(logger,
		&fakeWorker{name: "a", events: &events},
		&fakeWorker{name: "b", events: &events, startErr: errors.New("bad schedule")},
		&fakeWorker{name: "c", events: &events},
	)
	if err := m.Start(); err == nil {
		t.Fatal("expected error")
	}

	want := []string{"start:a", "stop:a"}
	if len(events) != 2 || events[0] != want[0] || events[1] != want[1] {
		t.Fatalf("events = %v, want %v", events, want)
	}
}
