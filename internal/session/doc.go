// Package session implements the resilient backend connection.
//
// The session layer:
//   - Owns the WebSocket and the connection-state machine
//   - Reconnects with exponential backoff (capped, bounded attempts)
//   - Detects half-open connections via app-level ping/pong heartbeats
//   - Queues outbound envelopes while disconnected and flushes them
//     in order on reconnect
//   - Decodes inbound frames and dispatches them by message kind
package session
