package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cafekit/ordersync/internal/api"
	"github.com/cafekit/ordersync/internal/connection"
	"github.com/cafekit/ordersync/internal/dispatch"
	"github.com/cafekit/ordersync/internal/metrics"
	"github.com/cafekit/ordersync/internal/notify"
	"github.com/cafekit/ordersync/internal/orders"
)

// OrdersFetcher is the slice of the REST client the engine needs.
type OrdersFetcher interface {
	GetOrders(ctx context.Context, opts api.GetOrdersOptions) (*api.OrdersResult, error)
}

// Config holds engine configuration.
type Config struct {
	AutoRefresh     bool          // drive periodic fetches (default: on)
	RefreshInterval time.Duration // poll cadence (default: 30s)

	EnableRealtime bool   // open the push channel (default: off, polling is sufficient)
	PushAddress    string // ws:// or wss:// feed address

	MaxReconnectAttempts int           // push channel reconnect budget (default: 5)
	ReconnectInterval    time.Duration // fixed delay between reconnects (default: 3s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		AutoRefresh:          true,
		RefreshInterval:      30 * time.Second,
		EnableRealtime:       false,
		MaxReconnectAttempts: 5,
		ReconnectInterval:    3 * time.Second,
	}
}

// Engine owns the order cache and the machinery that keeps it fresh.
type Engine struct {
	cfg      Config
	client   OrdersFetcher
	logger   *slog.Logger
	cache    *orders.Cache
	notifier *notify.Notifier
	disp     *dispatch.Dispatcher
	conn     *connection.Manager // nil when realtime is disabled
	metrics  *metrics.EngineMetrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Fetch supersession state. Every mutation of epoch, token, and
	// cache commit happens under fetchMu, which is what serializes
	// "last fetch wins".
	fetchMu     sync.Mutex
	epoch       int64
	lastToken   string
	cancelFetch context.CancelFunc
}

// New creates an engine. The push channel manager is only constructed
// when realtime is enabled in the config.
func New(cfg Config, client OrdersFetcher, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	cache := orders.NewCache()
	notifier := notify.New(notify.DefaultBufferSize)

	e := &Engine{
		cfg:      cfg,
		client:   client,
		logger:   logger,
		cache:    cache,
		notifier: notifier,
		disp:     dispatch.New(cache, notifier, logger.With("component", "dispatch")),
	}

	if cfg.EnableRealtime {
		connCfg := connection.DefaultManagerConfig()
		connCfg.MaxReconnectAttempts = cfg.MaxReconnectAttempts
		connCfg.ReconnectInterval = cfg.ReconnectInterval
		e.conn = connection.NewManager(connCfg, logger.With("component", "connection"))
	}

	return e
}

// SetMetrics wires optional Prometheus instrumentation. Call before Start.
func (e *Engine) SetMetrics(m *metrics.EngineMetrics) {
	if m == nil {
		return
	}
	e.metrics = m
	e.disp.SetEventCounter(m)
}

// Cache returns the order cache. Consumers read it and subscribe to
// its change events; they never mutate it directly.
func (e *Engine) Cache() *orders.Cache {
	return e.cache
}

// Notifications returns the one-shot notification channel.
func (e *Engine) Notifications() <-chan notify.Notification {
	return e.notifier.Notifications()
}

// ConnectionState reports the push channel state, StateIdle when
// realtime is disabled.
func (e *Engine) ConnectionState() connection.State {
	if e.conn == nil {
		return connection.StateIdle
	}
	return e.conn.State()
}

// DispatchStats returns push dispatcher counters.
func (e *Engine) DispatchStats() dispatch.Stats {
	return e.disp.Stats()
}

// Start begins polling and, when enabled, opens the push channel.
func (e *Engine) Start(ctx context.Context) error {
	e.ctx, e.cancel = context.WithCancel(ctx)

	if e.conn != nil {
		e.conn.OnMessage(e.disp.Dispatch)
		e.conn.OnOpen(func() {
			if e.metrics != nil {
				e.metrics.SetConnectionOpen(true)
			}
		})
		if e.metrics != nil {
			e.conn.OnRetry(func(int) { e.metrics.ReconnectAttempt() })
		}
		e.conn.Connect(e.cfg.PushAddress)
	}

	if e.cfg.AutoRefresh && e.cfg.RefreshInterval > 0 {
		e.wg.Add(1)
		go e.run()
	}

	e.logger.Info("order sync engine started",
		"auto_refresh", e.cfg.AutoRefresh,
		"refresh_interval", e.cfg.RefreshInterval,
		"realtime", e.cfg.EnableRealtime,
	)

	return nil
}

// Stop tears the engine down in one step: the poll timer, any
// in-flight fetch, any pending reconnect timer, and the push channel
// are all released. Late fetch completions after Stop are no-ops.
func (e *Engine) Stop(ctx context.Context) error {
	if e.cancel != nil {
		e.cancel()
	}

	if e.conn != nil {
		e.conn.Disconnect()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("order sync engine stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ForceRefresh fetches the full order set immediately, bypassing the
// freshness token, superseding any fetch already in flight.
func (e *Engine) ForceRefresh() {
	e.fetch(true)
}

// Reconnect re-opens the push channel explicitly, e.g. after the
// reconnect budget was exhausted.
func (e *Engine) Reconnect() {
	if e.conn != nil {
		e.conn.Connect(e.cfg.PushAddress)
	}
}

// run is the poll scheduler loop.
func (e *Engine) run() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.RefreshInterval)
	defer ticker.Stop()

	// Fetch immediately on start.
	e.fetch(false)

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			if e.metrics != nil && e.conn != nil {
				e.metrics.SetConnectionOpen(e.conn.State() == connection.StateOpen)
			}
			e.fetch(false)
		}
	}
}
