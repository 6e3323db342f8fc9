package config

import (
	"time"

	"github.com/cafekit/ordersync/internal/engine"
)

// WatcherConfig is the root configuration for a watcher instance.
type WatcherConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	API      APIConfig      `yaml:"api"`
	Engine   EngineConfig   `yaml:"engine"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// InstanceConfig identifies this watcher.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// APIConfig holds cafe REST API settings.
type APIConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// EngineConfig holds order sync engine settings.
type EngineConfig struct {
	AutoRefresh          *bool         `yaml:"auto_refresh"` // nil means enabled
	RefreshInterval      time.Duration `yaml:"refresh_interval"`
	EnableRealtime       bool          `yaml:"enable_realtime"`
	PushAddress          string        `yaml:"push_address"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
	ReconnectInterval    time.Duration `yaml:"reconnect_interval"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// EngineConfig converts the file representation into the engine's
// config type.
func (c *WatcherConfig) ToEngineConfig() engine.Config {
	autoRefresh := true
	if c.Engine.AutoRefresh != nil {
		autoRefresh = *c.Engine.AutoRefresh
	}

	return engine.Config{
		AutoRefresh:          autoRefresh,
		RefreshInterval:      c.Engine.RefreshInterval,
		EnableRealtime:       c.Engine.EnableRealtime,
		PushAddress:          c.Engine.PushAddress,
		MaxReconnectAttempts: c.Engine.MaxReconnectAttempts,
		ReconnectInterval:    c.Engine.ReconnectInterval,
	}
}
