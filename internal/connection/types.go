package connection

import (
	"errors"
	"log/slog"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
)

// State describes the push channel's lifecycle position.
type State string

const (
	// StateIdle means no connection was ever attempted, or the channel
	// was intentionally torn down.
	StateIdle State = "idle"

	// StateConnecting means a dial is in progress.
	StateConnecting State = "connecting"

	// StateOpen means the channel is established.
	StateOpen State = "open"

	// StateClosedNormal means the peer closed deliberately; no retry.
	StateClosedNormal State = "closed-normal"

	// StateClosedRetrying means the channel dropped and a reconnect is
	// scheduled.
	StateClosedRetrying State = "closed-retrying"

	// StateClosedExhausted means the reconnect budget is spent; only an
	// explicit Connect restarts the channel.
	StateClosedExhausted State = "closed-exhausted"
)

// TimestampedMessage wraps raw message data with a receive timestamp.
type TimestampedMessage struct {
	Data       []byte
	ReceivedAt time.Time
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL          string        // WebSocket URL (ws:// or wss://), credentials carried in the URL
	PingTimeout  time.Duration // Max time without ping before considering the connection stale
	WriteTimeout time.Duration // Write deadline for sends
	BufferSize   int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   256,
	}
}

// Dialer constructs a Client for a given config. Tests substitute a
// fake transport here.
type Dialer func(cfg ClientConfig, logger *slog.Logger) Client

// ManagerConfig configures the Connection Manager.
type ManagerConfig struct {
	MaxReconnectAttempts int           // Reconnect budget before giving up
	ReconnectInterval    time.Duration // Fixed delay between reconnect attempts
	DialTimeout          time.Duration // Per-attempt dial deadline
	PingTimeout          time.Duration // Passed through to the client
	WriteTimeout         time.Duration // Passed through to the client
	BufferSize           int           // Passed through to the client
	Dialer               Dialer        // nil means the real WebSocket client
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		MaxReconnectAttempts: 5,
		ReconnectInterval:    3 * time.Second,
		DialTimeout:          10 * time.Second,
		PingTimeout:          60 * time.Second,
		WriteTimeout:         5 * time.Second,
		BufferSize:           256,
	}
}
