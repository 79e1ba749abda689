package session

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected  = errors.New("not connected")
	ErrAlreadyClosed = errors.New("already closed")
	ErrStaleSocket   = errors.New("connection stale (no pong)")
)

// State is the connection lifecycle state. Exactly one state holds at any
// time; transitions happen only through the manager's event handlers.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateFailed
)

// String returns the caller-facing state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SendResult reports what happened to an envelope handed to Send.
type SendResult int

const (
	// SendTransmitted means the envelope went out on the wire immediately.
	SendTransmitted SendResult = iota
	// SendQueued means the envelope is buffered for the next flush.
	SendQueued
	// SendRejected means the queue was full under the reject_new policy.
	SendRejected
)

// String returns the result name.
func (r SendResult) String() string {
	switch r {
	case SendTransmitted:
		return "transmitted"
	case SendQueued:
		return "queued"
	case SendRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// OverflowPolicy decides what happens when the outbound queue is full.
type OverflowPolicy string

const (
	// OverflowDropOldest evicts the head to make room for the new envelope.
	OverflowDropOldest OverflowPolicy = "drop_oldest"
	// OverflowRejectNew refuses the new envelope, leaving the queue intact.
	OverflowRejectNew OverflowPolicy = "reject_new"
)

// Config configures a session Manager.
type Config struct {
	URL string // WebSocket URL (e.g., ws://localhost:8765)

	HandshakeTimeout time.Duration // Dial timeout
	WriteTimeout     time.Duration // Write deadline for sends

	PingInterval time.Duration // Heartbeat probe interval
	PongTimeout  time.Duration // Max wait for a pong before force-closing

	ReconnectBaseDelay   time.Duration // First retry delay
	ReconnectMaxDelay    time.Duration // Backoff cap
	MaxReconnectAttempts int           // Consecutive failures before Failed

	QueueCapacity int            // Outbound queue bound
	QueueOverflow OverflowPolicy // Policy when the queue is full

	ReadBufferSize int // Inbound message channel buffer
}

// DefaultConfig returns sensible defaults for a local backend.
func DefaultConfig() Config {
	return Config{
		URL:                  "ws://localhost:8765",
		HandshakeTimeout:     10 * time.Second,
		WriteTimeout:         5 * time.Second,
		PingInterval:         30 * time.Second,
		PongTimeout:          5 * time.Second,
		ReconnectBaseDelay:   1 * time.Second,
		ReconnectMaxDelay:    30 * time.Second,
		MaxReconnectAttempts: 5,
		QueueCapacity:        512,
		QueueOverflow:        OverflowDropOldest,
		ReadBufferSize:       256,
	}
}
