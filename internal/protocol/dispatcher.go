package protocol

import (
	"log/slog"
	"sync"
)

// Handler processes a dispatched envelope.
type Handler func(Envelope)

// Dispatcher routes decoded envelopes to per-kind handlers.
//
// Each kind has exactly one handler slot; registering twice replaces the
// previous handler (last registration wins). Unknown or unregistered kinds
// are counted and discarded.
type Dispatcher struct {
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[Kind]Handler

	// Stats
	dispatched int64
	unknown    int64
	unhandled  int64
}

// DispatcherStats contains dispatch counters.
type DispatcherStats struct {
	Dispatched int64 // envelopes delivered to a handler
	Unknown    int64 // envelopes with a kind outside the enumeration
	Unhandled  int64 // recognized kinds with no registered handler
}

// NewDispatcher creates a dispatcher with no handlers registered.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		logger:   logger,
		handlers: make(map[Kind]Handler),
	}
}

// Handle registers fn for the given kind, replacing any previous handler.
// A nil fn removes the registration.
func (d *Dispatcher) Handle(kind Kind, fn Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if fn == nil {
		delete(d.handlers, kind)
		return
	}
	d.handlers[kind] = fn
}

// Dispatch routes env to its registered handler. Returns true if a handler
// ran. Unknown and unregistered kinds are logged and dropped; neither is an
// error condition for the caller.
func (d *Dispatcher) Dispatch(env Envelope) bool {
	if !env.Type.Valid() {
		d.mu.Lock()
		d.unknown++
		d.mu.Unlock()
		d.logger.Warn("dropping message of unknown kind", "type", env.Type)
		return false
	}

	d.mu.RLock()
	fn, ok := d.handlers[env.Type]
	d.mu.RUnlock()

	if !ok {
		d.mu.Lock()
		d.unhandled++
		d.mu.Unlock()
		d.logger.Debug("no handler registered, discarding", "type", env.Type)
		return false
	}

	fn(env)

	d.mu.Lock()
	d.dispatched++
	d.mu.Unlock()
	return true
}

// Stats returns current dispatch counters.
func (d *Dispatcher) Stats() DispatcherStats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return DispatcherStats{
		Dispatched: d.dispatched,
		Unknown:    d.unknown,
		Unhandled:  d.unhandled,
	}
}
