package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *ClientConfig) Validate() error {
	if c.Server.URL == "" {
		return errors.New("server.url is required")
	}
	if !strings.HasPrefix(c.Server.URL, "ws://") && !strings.HasPrefix(c.Server.URL, "wss://") {
		return fmt.Errorf("server.url must be a ws:// or wss:// URL, got %q", c.Server.URL)
	}

	if c.Session.PongTimeout >= c.Session.PingInterval {
		return fmt.Errorf("session.pong_timeout (%s) must be shorter than session.ping_interval (%s)",
			c.Session.PongTimeout, c.Session.PingInterval)
	}
	if c.Session.ReconnectBaseDelay > c.Session.ReconnectMaxDelay {
		return fmt.Errorf("session.reconnect_base_delay (%s) cannot exceed reconnect_max_delay (%s)",
			c.Session.ReconnectBaseDelay, c.Session.ReconnectMaxDelay)
	}
	if c.Session.MaxReconnectAttempts < -1 {
		return errors.New("session.max_reconnect_attempts must be >= -1 (-1 = retry forever)")
	}
	if c.Session.ReadBufferSize < 1 {
		return errors.New("session.read_buffer_size must be >= 1")
	}

	if c.Queue.Capacity < 1 {
		return errors.New("queue.capacity must be >= 1")
	}
	switch c.Queue.Overflow {
	case "drop_oldest", "reject_new":
	default:
		return fmt.Errorf("queue.overflow must be drop_oldest or reject_new, got %q", c.Queue.Overflow)
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn, or error, got %q", c.Log.Level)
	}

	return nil
}
