package notify

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultBufferSize is the capacity of the notification channel.
const DefaultBufferSize = 64

// Notification kinds.
const (
	KindNewOrders   = "new-orders"
	KindFetchFailed = "fetch-failed"
)

// Notification is a one-shot user-facing message.
type Notification struct {
	ID      uuid.UUID
	Kind    string
	Message string
	Count   int // number of new pending orders (KindNewOrders only)
	At      time.Time
}

// Notifier fans one-shot notifications out to a single consumer.
type Notifier struct {
	ch chan Notification
}

// New creates a Notifier with the given channel capacity.
// A non-positive size falls back to DefaultBufferSize.
func New(size int) *Notifier {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Notifier{ch: make(chan Notification, size)}
}

// Notifications returns the consumer channel.
func (n *Notifier) Notifications() <-chan Notification {
	return n.ch
}

// NewOrders emits a notification that count new pending orders appeared.
func (n *Notifier) NewOrders(count int) {
	msg := fmt.Sprintf("%d new pending orders", count)
	if count == 1 {
		msg = "1 new pending order"
	}
	n.emit(Notification{
		ID:      uuid.New(),
		Kind:    KindNewOrders,
		Message: msg,
		Count:   count,
		At:      time.Now(),
	})
}

// FetchFailed emits a notification that an order fetch failed.
func (n *Notifier) FetchFailed(err error) {
	n.emit(Notification{
		ID:      uuid.New(),
		Kind:    KindFetchFailed,
		Message: fmt.Sprintf("failed to refresh orders: %v", err),
		At:      time.Now(),
	})
}

// emit sends a notification without blocking, dropping the oldest
// undelivered one when the buffer is full.
func (n *Notifier) emit(note Notification) {
	select {
	case n.ch <- note:
	default:
		select {
		case <-n.ch:
			n.ch <- note
		default:
		}
	}
}
