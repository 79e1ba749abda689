package protocol

import (
	"encoding/json"
	"errors"
)

// Errors
var (
	ErrInvalidKind = errors.New("invalid message kind")
	ErrEmptyFrame  = errors.New("empty frame")
	ErrMissingType = errors.New("envelope missing type field")
	ErrMalformed   = errors.New("malformed envelope")
)

// Kind identifies a message type on the wire.
type Kind string

// Client → server kinds.
const (
	KindPing           Kind = "ping"
	KindAudioData      Kind = "audio_data"
	KindTextInput      Kind = "text_input"
	KindStartListening Kind = "start_listening"
	KindStopListening  Kind = "stop_listening"
	KindGetStatus      Kind = "get_status"
)

// Server → client kinds.
const (
	KindPong          Kind = "pong"
	KindStatus        Kind = "status"
	KindTranscription Kind = "transcription"
	KindResponse      Kind = "response"
	KindAudioResponse Kind = "audio_response"
	KindAudioStarted  Kind = "audio_started"
	KindAudioStopped  Kind = "audio_stopped"
	KindError         Kind = "error"
)

// kinds is the closed enumeration. Anything else on the wire is dropped
// by the dispatcher, never an error for the caller.
var kinds = map[Kind]struct{}{
	KindPing:           {},
	KindPong:           {},
	KindStatus:         {},
	KindTranscription:  {},
	KindResponse:       {},
	KindAudioResponse:  {},
	KindAudioData:      {},
	KindAudioStarted:   {},
	KindAudioStopped:   {},
	KindTextInput:      {},
	KindStartListening: {},
	KindStopListening:  {},
	KindGetStatus:      {},
	KindError:          {},
}

// Valid reports whether k is a recognized message kind.
func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// Envelope is the wire wrapper for every message crossing the channel.
type Envelope struct {
	Type      Kind            `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"` // epoch ms
}

// TranscriptionPayload is the data for a "transcription" message.
type TranscriptionPayload struct {
	Text       string  `json:"text"`
	IsFinal    bool    `json:"is_final"`
	Confidence float64 `json:"confidence"`
}

// ResponsePayload is the data for a "response" message.
type ResponsePayload struct {
	Text     string            `json:"text"`
	Type     string            `json:"type"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// AudioResponsePayload is the data for an "audio_response" message.
type AudioResponsePayload struct {
	AudioData string `json:"audio_data"` // base64-encoded audio
	Format    string `json:"format,omitempty"`
}

// AudioDataPayload is the data for an "audio_data" message.
type AudioDataPayload struct {
	Audio     string `json:"audio"` // base64-encoded audio
	Format    string `json:"format"`
	Timestamp int64  `json:"timestamp"` // capture time, epoch ms
}

// TextInputPayload is the data for a "text_input" message.
type TextInputPayload struct {
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// StatusPayload is the data for a "status" message from the backend.
type StatusPayload struct {
	Connected     bool   `json:"connected"`
	Listening     bool   `json:"listening"`
	PipelineReady bool   `json:"pipeline_ready"`
	Message       string `json:"message,omitempty"`
}

// ErrorPayload is the data for an "error" message from the backend.
type ErrorPayload struct {
	Message string `json:"message"`
}
