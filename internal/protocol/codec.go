package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// NewEnvelope builds an envelope of the given kind, marshaling payload into
// the data field and stamping the current time. A nil payload produces an
// envelope with no data field (used by start_listening, stop_listening,
// get_status, ping).
func NewEnvelope(kind Kind, payload any) (Envelope, error) {
	if !kind.Valid() {
		return Envelope{}, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	env := Envelope{
		Type:      kind,
		Timestamp: time.Now().UnixMilli(),
	}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, fmt.Errorf("marshal %s payload: %w", kind, err)
		}
		env.Data = data
	}

	return env, nil
}

// Encode serializes an envelope to a transport text frame.
func Encode(env Envelope) ([]byte, error) {
	if !env.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, env.Type)
	}
	return json.Marshal(env)
}

// Decode parses a transport frame into an envelope.
//
// Unrecognized kinds decode successfully; dropping them is the dispatcher's
// job. Malformed frames (bad JSON, missing type) return an error the caller
// should treat as discard-and-warn, not fatal.
func Decode(data []byte) (Envelope, error) {
	if len(data) == 0 {
		return Envelope{}, ErrEmptyFrame
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if env.Type == "" {
		return Envelope{}, ErrMissingType
	}

	return env, nil
}

// DecodePayload unmarshals an envelope's data field into out.
func DecodePayload(env Envelope, out any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("%s envelope has no data", env.Type)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return nil
}
