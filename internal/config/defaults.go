package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultAPITimeout           = 30 * time.Second
	DefaultMaxRetries           = 3
	DefaultRetryBackoff         = 1 * time.Second
	DefaultRefreshInterval      = 30 * time.Second
	DefaultMaxReconnectAttempts = 5
	DefaultReconnectInterval    = 3 * time.Second
	DefaultMetricsPort          = 9090
	DefaultMetricsPath          = "/metrics"
)

func (c *WatcherConfig) applyDefaults() {
	// API defaults
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}
	if c.API.RetryBackoff == 0 {
		c.API.RetryBackoff = DefaultRetryBackoff
	}

	// Engine defaults
	if c.Engine.RefreshInterval == 0 {
		c.Engine.RefreshInterval = DefaultRefreshInterval
	}
	if c.Engine.MaxReconnectAttempts == 0 {
		c.Engine.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Engine.ReconnectInterval == 0 {
		c.Engine.ReconnectInterval = DefaultReconnectInterval
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
