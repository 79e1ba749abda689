package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultServerURL            = "ws://localhost:8765"
	DefaultHandshakeTimeout     = 10 * time.Second
	DefaultWriteTimeout         = 5 * time.Second
	DefaultPingInterval         = 30 * time.Second
	DefaultPongTimeout          = 5 * time.Second
	DefaultReconnectBaseDelay   = 1 * time.Second
	DefaultReconnectMaxDelay    = 30 * time.Second
	DefaultMaxReconnectAttempts = 5
	DefaultReadBufferSize       = 256
	DefaultQueueCapacity        = 512
	DefaultQueueOverflow        = "drop_oldest"
	DefaultMetricsPort          = 9090
	DefaultMetricsPath          = "/metrics"
	DefaultLogLevel             = "info"
)

func (c *ClientConfig) applyDefaults() {
	if c.Server.URL == "" {
		c.Server.URL = DefaultServerURL
	}

	if c.Session.HandshakeTimeout == 0 {
		c.Session.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Session.WriteTimeout == 0 {
		c.Session.WriteTimeout = DefaultWriteTimeout
	}
	if c.Session.PingInterval == 0 {
		c.Session.PingInterval = DefaultPingInterval
	}
	if c.Session.PongTimeout == 0 {
		c.Session.PongTimeout = DefaultPongTimeout
	}
	if c.Session.ReconnectBaseDelay == 0 {
		c.Session.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Session.ReconnectMaxDelay == 0 {
		c.Session.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Session.MaxReconnectAttempts == 0 {
		c.Session.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Session.ReadBufferSize == 0 {
		c.Session.ReadBufferSize = DefaultReadBufferSize
	}

	if c.Queue.Capacity == 0 {
		c.Queue.Capacity = DefaultQueueCapacity
	}
	if c.Queue.Overflow == "" {
		c.Queue.Overflow = DefaultQueueOverflow
	}

	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// Default returns a fully-defaulted configuration.
func Default() *ClientConfig {
	cfg := &ClientConfig{}
	cfg.applyDefaults()
	return cfg
}
