// Package protocol implements the wire envelope codec and message dispatcher.
//
// Every message crossing the backend channel is a JSON envelope:
//
//	{"type": "<kind>", "data": {...}, "timestamp": <epoch-ms>}
//
// The package:
//   - Defines the closed enumeration of message kinds
//   - Encodes/decodes envelopes (stateless)
//   - Routes decoded envelopes to per-kind handlers
//   - Discards malformed frames and unknown kinds without failing the pipeline
package protocol
