package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *WatcherConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}

	if c.Engine.RefreshInterval < 0 {
		return errors.New("engine.refresh_interval must not be negative")
	}
	if c.Engine.MaxReconnectAttempts < 0 {
		return errors.New("engine.max_reconnect_attempts must not be negative")
	}

	if c.Engine.EnableRealtime {
		if c.Engine.PushAddress == "" {
			return errors.New("engine.push_address is required when realtime is enabled")
		}
		if !strings.HasPrefix(c.Engine.PushAddress, "ws://") && !strings.HasPrefix(c.Engine.PushAddress, "wss://") {
			return fmt.Errorf("engine.push_address must use ws:// or wss://, got %q", c.Engine.PushAddress)
		}
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}
