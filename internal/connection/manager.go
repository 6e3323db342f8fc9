package connection

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Manager owns the lifecycle of the optional push channel: one
// connection at most, bounded fixed-delay reconnection, and forwarding
// of inbound payloads to the configured handler.
//
// All entry points return without blocking; dialing and reading happen
// on background goroutines. A generation counter invalidates every
// in-flight callback (dial completion, read loop, reconnect timer) the
// moment Disconnect or a fresh Connect runs, so late callbacks no-op.
type Manager struct {
	cfg    ManagerConfig
	logger *slog.Logger
	dial   Dialer

	onMessage func([]byte)
	onOpen    func()
	onRetry   func(attempt int)

	mu             sync.Mutex
	state          State
	address        string
	client         Client
	attempts       int
	reconnectTimer *time.Timer
	done           chan struct{}
	gen            int
}

// NewManager creates a Connection Manager. The channel stays idle
// until Connect is called.
func NewManager(cfg ManagerConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	dial := cfg.Dialer
	if dial == nil {
		dial = NewClient
	}

	return &Manager{
		cfg:    cfg,
		logger: logger,
		dial:   dial,
		state:  StateIdle,
	}
}

// OnMessage sets the inbound payload handler. Set before Connect.
func (m *Manager) OnMessage(fn func([]byte)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onMessage = fn
}

// OnOpen sets an optional hook invoked after each successful open.
func (m *Manager) OnOpen(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onOpen = fn
}

// OnRetry sets an optional hook invoked when a reconnect attempt is
// scheduled. The hook runs on its own goroutine.
func (m *Manager) OnRetry(fn func(attempt int)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRetry = fn
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect opens the push channel to the given address. It is a no-op
// when the address is empty, when a connection is already open or in
// progress, or when the address does not use a ws:// or wss:// scheme.
// An explicit Connect resets the reconnect budget.
func (m *Manager) Connect(address string) {
	if address == "" {
		m.logger.Debug("push channel not configured, skipping connect")
		return
	}
	if !strings.HasPrefix(address, "ws://") && !strings.HasPrefix(address, "wss://") {
		m.logger.Warn("push channel address must use ws:// or wss://", "address", address)
		return
	}

	m.mu.Lock()
	if m.state == StateConnecting || m.state == StateOpen {
		m.mu.Unlock()
		return
	}

	m.teardownLocked()
	m.gen++
	gen := m.gen
	m.address = address
	m.attempts = 0
	m.state = StateConnecting
	m.done = make(chan struct{})
	done := m.done
	oldClient := m.client
	m.client = nil
	m.mu.Unlock()

	if oldClient != nil {
		oldClient.Close()
	}

	go m.dialAndRun(gen, done)
}

// Disconnect tears the channel down: it cancels any pending reconnect
// timer and closes the connection with the normal close reason. Safe
// to call repeatedly or when never connected.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.gen++
	m.teardownLocked()
	cl := m.client
	m.client = nil
	m.address = ""
	m.attempts = 0
	m.state = StateIdle
	m.mu.Unlock()

	if cl != nil {
		cl.Close()
	}
}

// teardownLocked stops the reconnect timer and releases the done
// channel. Caller holds m.mu.
func (m *Manager) teardownLocked() {
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	if m.done != nil {
		close(m.done)
		m.done = nil
	}
}

// dialAndRun dials the channel and, on success, starts the read loop.
func (m *Manager) dialAndRun(gen int, done chan struct{}) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	cfg := ClientConfig{
		URL:          m.address,
		PingTimeout:  m.cfg.PingTimeout,
		WriteTimeout: m.cfg.WriteTimeout,
		BufferSize:   m.cfg.BufferSize,
	}
	cl := m.dial(cfg, m.logger)
	m.client = cl
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.DialTimeout)
	err := cl.Connect(ctx)
	cancel()

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		cl.Close()
		return
	}

	if err != nil {
		m.logger.Warn("push channel dial failed", "error", err)
		m.scheduleReconnectLocked(gen)
		m.mu.Unlock()
		return
	}

	m.state = StateOpen
	m.attempts = 0
	onOpen := m.onOpen
	m.mu.Unlock()

	m.logger.Info("push channel open", "address", cfg.URL)

	if onOpen != nil {
		onOpen()
	}

	go m.readLoop(gen, cl, done)
}

// readLoop forwards inbound messages to the handler until the channel
// drops or the manager is torn down.
func (m *Manager) readLoop(gen int, cl Client, done chan struct{}) {
	m.mu.Lock()
	handler := m.onMessage
	m.mu.Unlock()

	for {
		select {
		case <-done:
			return

		case err := <-cl.Errors():
			m.handleClose(gen, err)
			return

		case msg, ok := <-cl.Messages():
			if !ok {
				return
			}
			if handler != nil {
				handler(msg.Data)
			}
		}
	}
}

// handleClose reacts to a dropped connection: a normal remote close
// ends the channel, anything else enters the reconnect machinery.
func (m *Manager) handleClose(gen int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		return
	}

	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
		m.logger.Info("push channel closed by server")
		m.state = StateClosedNormal
		return
	}

	m.logger.Warn("push channel lost", "error", err)
	m.scheduleReconnectLocked(gen)
}

// scheduleReconnectLocked arms the fixed-delay reconnect timer, or
// gives up once the budget is spent. Caller holds m.mu.
func (m *Manager) scheduleReconnectLocked(gen int) {
	if m.address == "" {
		m.state = StateIdle
		return
	}

	if m.attempts >= m.cfg.MaxReconnectAttempts {
		m.state = StateClosedExhausted
		m.logger.Warn("push channel reconnect budget exhausted, polling-only until reconnected explicitly",
			"attempts", m.attempts,
		)
		return
	}

	m.attempts++
	m.state = StateClosedRetrying
	m.logger.Info("scheduling push channel reconnect",
		"attempt", m.attempts,
		"max_attempts", m.cfg.MaxReconnectAttempts,
		"delay", m.cfg.ReconnectInterval,
	)

	if m.onRetry != nil {
		go m.onRetry(m.attempts)
	}

	m.reconnectTimer = time.AfterFunc(m.cfg.ReconnectInterval, func() {
		m.redial(gen)
	})
}

// redial is the reconnect timer callback.
func (m *Manager) redial(gen int) {
	m.mu.Lock()
	if gen != m.gen || m.state != StateClosedRetrying {
		m.mu.Unlock()
		return
	}
	m.state = StateConnecting
	done := m.done
	oldClient := m.client
	m.client = nil
	m.mu.Unlock()

	if oldClient != nil {
		oldClient.Close()
	}

	go m.dialAndRun(gen, done)
}
