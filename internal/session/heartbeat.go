package session

import (
	"log/slog"
	"sync"
	"time"
)

// heartbeat probes the backend with app-level ping envelopes and fires an
// expiry callback when a pong does not arrive inside the timeout. It
// detects half-open connections the transport has not reported closed yet.
//
// At most one ping is outstanding at a time. Stop cancels the interval and
// any armed timeout unconditionally; both are owned here and released here.
type heartbeat struct {
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	sendPing func() error
	onExpire func()

	mu      sync.Mutex
	pending bool
	timer   *time.Timer
	stopped bool
	done    chan struct{}
}

func newHeartbeat(interval, timeout time.Duration, logger *slog.Logger) *heartbeat {
	if logger == nil {
		logger = slog.Default()
	}
	return &heartbeat{
		interval: interval,
		timeout:  timeout,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start begins the probe loop. sendPing transmits a ping envelope; onExpire
// runs when the pong timeout fires with no pong received.
func (h *heartbeat) Start(sendPing func() error, onExpire func()) {
	h.mu.Lock()
	h.sendPing = sendPing
	h.onExpire = onExpire
	h.mu.Unlock()

	go h.loop()
}

func (h *heartbeat) loop() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.probe()
		}
	}
}

// probe sends one ping and arms the pong timeout. Skipped while a ping is
// already outstanding.
func (h *heartbeat) probe() {
	h.mu.Lock()
	if h.stopped || h.pending {
		h.mu.Unlock()
		return
	}
	h.pending = true
	h.timer = time.AfterFunc(h.timeout, h.expire)
	send := h.sendPing
	h.mu.Unlock()

	if err := send(); err != nil {
		h.logger.Debug("failed to send ping", "error", err)
	}
}

// Pong records a liveness reply, disarming the pending timeout.
func (h *heartbeat) Pong() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.pending = false
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}

// expire fires when the pong timeout elapses with no reply.
func (h *heartbeat) expire() {
	h.mu.Lock()
	if h.stopped || !h.pending {
		h.mu.Unlock()
		return
	}
	h.pending = false
	h.timer = nil
	onExpire := h.onExpire
	h.mu.Unlock()

	h.logger.Warn("heartbeat timeout, no pong received", "timeout", h.timeout)
	onExpire()
}

// Stop cancels the interval and any armed timeout. Safe to call more than
// once; nothing fires after Stop returns past the callbacks already running.
func (h *heartbeat) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.pending = false
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	h.mu.Unlock()

	close(h.done)
}
