package api

import (
	"encoding/json"
	"sync"
	"time"
)

type DeliveryStatus string

const (
	DeliveryRouted      DeliveryStatus = "routed"
	DeliveryRouteFailed DeliveryStatus = "route_failed"
	DeliveryUndecodable DeliveryStatus = "undecodable"
)

// Delivery is one raw webhook push as it was received.
type Delivery struct {
	ReceivedAt time.Time       `json:"received_at"`
	UpdateID   int             `json:"update_id"`
	Status     DeliveryStatus  `json:"status"`
	Error      string          `json:"error,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

// DeliveryLog keeps the last N deliveries, oldest first.
// A log with zero size records nothing.
type DeliveryLog struct {
	mu    sync.Mutex
	items []Delivery
	next  int
	full  bool
}

func NewDeliveryLog(size int) *DeliveryLog {
	if size < 0 {
		size = 0
	}
	return &DeliveryLog{items: make([]Delivery, size)}
}

func (l *DeliveryLog) Add(d Delivery) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.items) == 0 {
		return
	}

	l.items[l.next] = d
	l.next = (l.next + 1) % len(l.items)
	if l.next == 0 {
		l.full = true
	}
}

func (l *DeliveryLog) List() []Delivery {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.full {
		return append([]Delivery(nil), l.items[:l.next]...)
	}

	out := make([]Delivery, 0, len(l.items))
	out = append(out, l.items[l.next:]...)
	out = append(out, l.items[:l.next]...)
	return out
}
