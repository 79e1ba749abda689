package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kit678/VoiceAgentPlanner/internal/audio"
	"github.com/kit678/VoiceAgentPlanner/internal/metrics"
	"github.com/kit678/VoiceAgentPlanner/internal/protocol"
)

// Manager is the single source of truth for the backend connection
// lifecycle and message routing.
type Manager interface {
	// Connect starts connecting to the configured URL. Returns immediately;
	// the handshake proceeds asynchronously. No-op while Connecting or
	// Connected.
	Connect(ctx context.Context) error

	// Disconnect closes the session with the clean close code and suppresses
	// all further reconnection. Pending queued envelopes are preserved for a
	// future Connect unless ClearQueue is called.
	Disconnect()

	// Send transmits env immediately when Connected, otherwise queues it.
	// Never fails for a disconnected state.
	Send(env protocol.Envelope) SendResult

	// SendText sends a text_input envelope.
	SendText(text string) (SendResult, error)

	// SendAudio sends one audio_data envelope for the captured buffer.
	SendAudio(buf []byte, format string, capturedAt time.Time) (SendResult, error)

	// StartListening asks the backend to begin capturing speech.
	StartListening() SendResult

	// StopListening asks the backend to stop capturing speech.
	StopListening() SendResult

	// RequestStatus asks the backend for a status push.
	RequestStatus() SendResult

	// State returns the current connection state.
	State() State

	// Handle registers fn for a message kind. Last registration wins.
	Handle(kind protocol.Kind, fn protocol.Handler)

	// OnConnectionChange registers the state-change callback.
	OnConnectionChange(fn func(State))

	// OnTranscription registers the transcription callback.
	OnTranscription(fn func(protocol.TranscriptionPayload))

	// OnResponse registers the assistant-response callback.
	OnResponse(fn func(protocol.ResponsePayload))

	// OnError registers the error callback. It receives backend error
	// messages and transport-level failures; neither changes state by
	// itself.
	OnError(fn func(string))

	// ClearQueue drops every pending outbound envelope.
	ClearQueue()

	// QueueStats returns outbound queue counters.
	QueueStats() QueueStats

	// DispatchStats returns inbound dispatch counters.
	DispatchStats() protocol.DispatcherStats
}

// manager implements the Manager interface.
//
// All lifecycle state lives behind mu. Each established socket gets a
// generation number; events from a previous generation (dead read loops,
// stale timers, late heartbeat expiries) are ignored, so no timer can
// mutate state after Disconnect returns.
type manager struct {
	cfg        Config
	logger     *slog.Logger
	sessionID  string
	dispatcher *protocol.Dispatcher
	queue      *Queue

	mu             sync.Mutex
	state          State
	client         Client
	policy         *ReconnectPolicy
	hb             *heartbeat
	reconnectTimer *time.Timer
	gen            uint64
	ctx            context.Context

	stateCb func(State)
	errorCb func(string)
}

// NewManager creates a session manager in the Disconnected state. Zero
// durations and sizes in cfg fall back to DefaultConfig values.
func NewManager(cfg Config, logger *slog.Logger) Manager {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = withDefaults(cfg)

	id := uuid.NewString()
	m := &manager{
		cfg:       cfg,
		logger:    logger.With("session_id", id),
		sessionID: id,
		queue:     NewQueue(cfg.QueueCapacity, cfg.QueueOverflow),
		policy:    NewReconnectPolicy(cfg.ReconnectBaseDelay, cfg.ReconnectMaxDelay, cfg.MaxReconnectAttempts),
		state:     StateDisconnected,
		ctx:       context.Background(),
	}
	m.dispatcher = protocol.NewDispatcher(m.logger)

	// Backend error envelopes feed the error callback
	m.dispatcher.Handle(protocol.KindError, func(env protocol.Envelope) {
		var payload protocol.ErrorPayload
		if err := protocol.DecodePayload(env, &payload); err != nil {
			m.logger.Warn("malformed error payload", "error", err)
			return
		}
		m.reportError(payload.Message)
	})

	return m
}

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.URL == "" {
		cfg.URL = def.URL
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = def.HandshakeTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = def.PongTimeout
	}
	if cfg.ReconnectBaseDelay <= 0 {
		cfg.ReconnectBaseDelay = def.ReconnectBaseDelay
	}
	if cfg.ReconnectMaxDelay <= 0 {
		cfg.ReconnectMaxDelay = def.ReconnectMaxDelay
	}
	if cfg.MaxReconnectAttempts == 0 {
		cfg.MaxReconnectAttempts = def.MaxReconnectAttempts
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = def.QueueCapacity
	}
	if cfg.QueueOverflow == "" {
		cfg.QueueOverflow = def.QueueOverflow
	}
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = def.ReadBufferSize
	}
	return cfg
}

// Connect starts connecting. From Failed or Disconnected this begins a
// fresh attempt cycle; from Reconnecting it cancels the pending retry and
// dials immediately.
func (m *manager) Connect(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	m.mu.Lock()
	if m.state == StateConnecting || m.state == StateConnected {
		m.mu.Unlock()
		return nil
	}
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	m.ctx = ctx
	m.policy.Reset()
	m.gen++
	gen := m.gen
	notify := m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	run(notify)
	go m.dial(gen)
	return nil
}

// Disconnect cancels every timer, closes the socket with the clean code,
// and lands in Disconnected. The queue persists for a future session.
func (m *manager) Disconnect() {
	m.mu.Lock()
	m.gen++
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	m.stopHeartbeatLocked()
	if m.client != nil {
		m.client.Close()
		m.client = nil
	}
	m.policy.Reset()
	notify := m.setStateLocked(StateDisconnected)
	m.mu.Unlock()

	run(notify)
}

// Send transmits immediately when Connected; on transmit failure or any
// other state the envelope is queued (or rejected by the overflow policy).
func (m *manager) Send(env protocol.Envelope) SendResult {
	m.mu.Lock()
	if m.state == StateConnected && m.client != nil {
		err := m.transmitLocked(env)
		if err == nil {
			m.mu.Unlock()
			return SendTransmitted
		}
		m.logger.Warn("transmit failed, queueing", "type", env.Type, "error", err)
	}
	ok := m.queue.Enqueue(env)
	m.mu.Unlock()

	if !ok {
		metrics.MessagesDropped.Inc()
		m.logger.Warn("outbound queue full, rejecting", "type", env.Type)
		return SendRejected
	}
	metrics.MessagesQueued.Inc()
	return SendQueued
}

// SendText sends a text_input envelope.
func (m *manager) SendText(text string) (SendResult, error) {
	env, err := protocol.NewEnvelope(protocol.KindTextInput, protocol.TextInputPayload{
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return SendRejected, err
	}
	return m.Send(env), nil
}

// SendAudio sends one audio_data envelope for the captured buffer.
func (m *manager) SendAudio(buf []byte, format string, capturedAt time.Time) (SendResult, error) {
	env, err := audio.NewDataEnvelope(buf, format, capturedAt)
	if err != nil {
		return SendRejected, err
	}
	return m.Send(env), nil
}

// StartListening asks the backend to begin capturing speech.
func (m *manager) StartListening() SendResult {
	return m.sendBare(protocol.KindStartListening)
}

// StopListening asks the backend to stop capturing speech.
func (m *manager) StopListening() SendResult {
	return m.sendBare(protocol.KindStopListening)
}

// RequestStatus asks the backend for a status push.
func (m *manager) RequestStatus() SendResult {
	return m.sendBare(protocol.KindGetStatus)
}

func (m *manager) sendBare(kind protocol.Kind) SendResult {
	env, _ := protocol.NewEnvelope(kind, nil)
	return m.Send(env)
}

// State returns the current connection state.
func (m *manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Handle registers fn for a message kind.
func (m *manager) Handle(kind protocol.Kind, fn protocol.Handler) {
	m.dispatcher.Handle(kind, fn)
}

// OnConnectionChange registers the state-change callback.
func (m *manager) OnConnectionChange(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stateCb = fn
}

// OnTranscription registers the transcription callback.
func (m *manager) OnTranscription(fn func(protocol.TranscriptionPayload)) {
	m.dispatcher.Handle(protocol.KindTranscription, func(env protocol.Envelope) {
		var payload protocol.TranscriptionPayload
		if err := protocol.DecodePayload(env, &payload); err != nil {
			m.logger.Warn("malformed transcription payload", "error", err)
			return
		}
		fn(payload)
	})
}

// OnResponse registers the assistant-response callback.
func (m *manager) OnResponse(fn func(protocol.ResponsePayload)) {
	m.dispatcher.Handle(protocol.KindResponse, func(env protocol.Envelope) {
		var payload protocol.ResponsePayload
		if err := protocol.DecodePayload(env, &payload); err != nil {
			m.logger.Warn("malformed response payload", "error", err)
			return
		}
		fn(payload)
	})
}

// OnError registers the error callback.
func (m *manager) OnError(fn func(string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCb = fn
}

// ClearQueue drops every pending outbound envelope.
func (m *manager) ClearQueue() {
	m.queue.Clear()
}

// QueueStats returns outbound queue counters.
func (m *manager) QueueStats() QueueStats {
	return m.queue.Stats()
}

// DispatchStats returns inbound dispatch counters.
func (m *manager) DispatchStats() protocol.DispatcherStats {
	return m.dispatcher.Stats()
}

// ----------------------------------------------------------------------------
// Internals
// ----------------------------------------------------------------------------

// setStateLocked records a state transition and returns the notification to
// run after the lock is released. Callbacks never run under mu.
func (m *manager) setStateLocked(s State) func() {
	if m.state == s {
		return nil
	}
	m.state = s
	metrics.ConnectionState.Set(float64(s))
	cb := m.stateCb
	if cb == nil {
		return nil
	}
	return func() { cb(s) }
}

func run(fn func()) {
	if fn != nil {
		fn()
	}
}

// transmitLocked encodes and writes env on the live socket. Caller holds mu
// with a non-nil client.
func (m *manager) transmitLocked(env protocol.Envelope) error {
	data, err := protocol.Encode(env)
	if err != nil {
		return err
	}
	if err := m.client.Send(data); err != nil {
		return err
	}
	metrics.MessagesSent.Inc()
	return nil
}

// dial performs one connection attempt for the given generation.
func (m *manager) dial(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || m.state != StateConnecting {
		m.mu.Unlock()
		return
	}
	ctx := m.ctx
	cl := NewClient(ClientConfig{
		URL:              m.cfg.URL,
		SessionID:        m.sessionID,
		HandshakeTimeout: m.cfg.HandshakeTimeout,
		WriteTimeout:     m.cfg.WriteTimeout,
		BufferSize:       m.cfg.ReadBufferSize,
	}, m.logger)
	m.mu.Unlock()

	err := cl.Connect(ctx)

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		if err == nil {
			cl.Close()
		}
		return
	}

	if err != nil {
		m.logger.Warn("connection failed", "url", m.cfg.URL, "error", err)
		notify := m.connectionLostLocked()
		m.mu.Unlock()
		run(notify)
		return
	}

	m.client = cl
	m.policy.Reset()
	notify := m.setStateLocked(StateConnected)

	hb := newHeartbeat(m.cfg.PingInterval, m.cfg.PongTimeout, m.logger)
	m.hb = hb
	hb.Start(m.sendPing, func() { m.heartbeatExpired(gen) })

	// Drain pending envelopes in order before any new sends interleave
	sent, ferr := m.queue.Flush(m.transmitLocked)
	if sent > 0 {
		m.logger.Info("flushed outbound queue", "sent", sent)
	}
	if ferr != nil {
		m.logger.Warn("queue flush interrupted", "remaining", m.queue.Len(), "error", ferr)
	}
	m.mu.Unlock()

	run(notify)
	go m.readLoop(cl, gen)
}

// readLoop pumps one socket's frames and terminal error into the manager.
func (m *manager) readLoop(cl Client, gen uint64) {
	for {
		select {
		case err := <-cl.Errors():
			m.socketClosed(gen, err)
			return
		case data, ok := <-cl.Messages():
			if !ok {
				// Read loop exited; pick up the terminal error if one
				// surfaced before the channel closed.
				select {
				case err := <-cl.Errors():
					m.socketClosed(gen, err)
				default:
				}
				return
			}
			m.handleInbound(data)
		}
	}
}

// handleInbound decodes a frame and routes it. Malformed frames are
// discarded with a warning; pong goes to the heartbeat, everything else to
// the dispatcher.
func (m *manager) handleInbound(data []byte) {
	env, err := protocol.Decode(data)
	if err != nil {
		metrics.ParseErrors.Inc()
		m.logger.Warn("discarding malformed frame", "error", err)
		return
	}
	metrics.MessagesReceived.Inc()

	if env.Type == protocol.KindPong {
		m.mu.Lock()
		hb := m.hb
		m.mu.Unlock()
		if hb != nil {
			hb.Pong()
		}
		return
	}

	m.dispatcher.Dispatch(env)
}

// socketClosed handles the terminal error of a read loop. A clean close
// lands in Disconnected with no retry; anything else schedules a reconnect.
func (m *manager) socketClosed(gen uint64, err error) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.gen++
	m.stopHeartbeatLocked()
	if m.client != nil {
		m.client.Close()
		m.client = nil
	}

	var notify func()
	clean := IsCleanClose(err)
	if clean {
		m.logger.Info("backend closed the session")
		notify = m.setStateLocked(StateDisconnected)
	} else {
		m.logger.Warn("connection lost", "error", err)
		notify = m.connectionLostLocked()
	}
	m.mu.Unlock()

	run(notify)
	if !clean {
		m.reportError(err.Error())
	}
}

// connectionLostLocked advances the reconnect policy: either schedules the
// next attempt after the backoff delay or lands in Failed when attempts are
// exhausted. Caller holds mu.
func (m *manager) connectionLostLocked() func() {
	delay, ok := m.policy.Fail()
	if !ok {
		m.logger.Error("reconnect attempts exhausted", "attempts", m.policy.Attempt())
		return m.setStateLocked(StateFailed)
	}

	metrics.Reconnects.Inc()
	m.logger.Info("scheduling reconnect", "attempt", m.policy.Attempt(), "delay", delay)
	notify := m.setStateLocked(StateReconnecting)
	m.reconnectTimer = time.AfterFunc(delay, m.retry)
	return notify
}

// retry fires when the scheduled reconnect delay elapses.
func (m *manager) retry() {
	m.mu.Lock()
	if m.state != StateReconnecting {
		m.mu.Unlock()
		return
	}
	m.reconnectTimer = nil
	m.gen++
	gen := m.gen
	notify := m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	run(notify)
	go m.dial(gen)
}

// sendPing transmits a liveness probe directly on the socket, bypassing the
// queue so stale pings never outlive their connection.
func (m *manager) sendPing() error {
	env, err := protocol.NewEnvelope(protocol.KindPing, nil)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateConnected || m.client == nil {
		return ErrNotConnected
	}
	return m.transmitLocked(env)
}

// heartbeatExpired force-closes a half-open socket after a pong timeout,
// which routes through the normal reconnect path.
func (m *manager) heartbeatExpired(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || m.state != StateConnected {
		m.mu.Unlock()
		return
	}
	metrics.HeartbeatTimeouts.Inc()
	m.gen++
	m.stopHeartbeatLocked()
	if m.client != nil {
		m.client.Abort()
		m.client = nil
	}
	m.logger.Warn("forcing reconnect after heartbeat timeout")
	notify := m.connectionLostLocked()
	m.mu.Unlock()

	run(notify)
	m.reportError(ErrStaleSocket.Error())
}

// stopHeartbeatLocked cancels the heartbeat interval and timeout. Caller
// holds mu.
func (m *manager) stopHeartbeatLocked() {
	if m.hb != nil {
		m.hb.Stop()
		m.hb = nil
	}
}

// reportError surfaces a non-fatal error to the registered callback.
func (m *manager) reportError(msg string) {
	m.mu.Lock()
	cb := m.errorCb
	m.mu.Unlock()

	if cb != nil {
		cb(msg)
	}
}
