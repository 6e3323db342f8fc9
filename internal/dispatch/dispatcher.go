package dispatch

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/cafekit/ordersync/internal/notify"
	"github.com/cafekit/ordersync/internal/orders"
)

// EventCounter counts push events by message type.
type EventCounter interface {
	PushEvent(msgType string)
}

// Dispatcher routes push messages to the order cache.
type Dispatcher struct {
	cache    *orders.Cache
	notifier *notify.Notifier
	logger   *slog.Logger
	events   EventCounter

	mu          sync.Mutex
	received    int64
	handled     int64
	parseErrors int64
	unknown     int64
}

// New creates a Dispatcher. The notifier may be nil when no
// notification surface is wired.
func New(cache *orders.Cache, notifier *notify.Notifier, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		cache:    cache,
		notifier: notifier,
		logger:   logger,
	}
}

// SetEventCounter wires an optional per-type event counter.
func (d *Dispatcher) SetEventCounter(c EventCounter) {
	d.events = c
}

// Stats returns current dispatcher counters.
func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	return Stats{
		Received:    d.received,
		Handled:     d.handled,
		ParseErrors: d.parseErrors,
		Unknown:     d.unknown,
	}
}

// Dispatch parses and applies a single push payload. It never panics
// and never returns an error to the transport: failures are counted
// and logged here.
func (d *Dispatcher) Dispatch(data []byte) {
	d.count(&d.received)

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		d.logger.Warn("malformed push payload", "error", err)
		d.count(&d.parseErrors)
		return
	}

	if d.events != nil {
		d.events.PushEvent(env.Type)
	}

	switch env.Type {
	case TypeOrderCreated:
		d.handleCreated(data)

	case TypeOrderUpdated:
		d.handleUpdated(data)

	case TypeOrderDeleted:
		d.handleDeleted(data)

	default:
		// Server-side message types this client does not know yet.
		d.logger.Debug("ignoring unknown push message type", "type", env.Type)
		d.count(&d.unknown)
	}
}

func (d *Dispatcher) handleCreated(data []byte) {
	var wire orderEventWire
	if err := json.Unmarshal(data, &wire); err != nil || wire.Order.ID == "" {
		d.logger.Warn("malformed order_created payload", "error", err)
		d.count(&d.parseErrors)
		return
	}

	// Add-if-absent: the poll path may have seen this order first.
	if _, exists := d.cache.Get(wire.Order.ID); exists {
		d.count(&d.handled)
		return
	}

	if d.cache.Upsert(wire.Order) && d.notifier != nil {
		d.notifier.NewOrders(1)
	}
	d.count(&d.handled)
}

func (d *Dispatcher) handleUpdated(data []byte) {
	var wire orderEventWire
	if err := json.Unmarshal(data, &wire); err != nil || wire.Order.ID == "" {
		d.logger.Warn("malformed order_updated payload", "error", err)
		d.count(&d.parseErrors)
		return
	}

	// Absent entries are treated as creates.
	d.cache.Upsert(wire.Order)
	d.count(&d.handled)
}

func (d *Dispatcher) handleDeleted(data []byte) {
	var wire orderDeletedWire
	if err := json.Unmarshal(data, &wire); err != nil || wire.OrderID == "" {
		d.logger.Warn("malformed order_deleted payload", "error", err)
		d.count(&d.parseErrors)
		return
	}

	if !d.cache.Remove(wire.OrderID) {
		d.logger.Debug("order_deleted for unknown order", "order_id", wire.OrderID)
	}
	d.count(&d.handled)
}

func (d *Dispatcher) count(field *int64) {
	d.mu.Lock()
	*field++
	d.mu.Unlock()
}
