package audio

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/kit678/VoiceAgentPlanner/internal/protocol"
)

// Common format tags. The tag is declarative; this package does not
// transcode.
const (
	FormatPCM16 = "pcm16"
	FormatWAV   = "wav"
	FormatWebM  = "webm"
)

// Errors
var (
	ErrEmptyBuffer = errors.New("empty audio buffer")
	ErrNoAudio     = errors.New("audio_response has no audio data")
)

// EncodeChunk converts a raw audio buffer into an audio_data payload.
// Chunking granularity is one payload per buffer; ordering beyond that is
// the transport's arrival order.
func EncodeChunk(buf []byte, format string, capturedAt time.Time) (protocol.AudioDataPayload, error) {
	if len(buf) == 0 {
		return protocol.AudioDataPayload{}, ErrEmptyBuffer
	}

	return protocol.AudioDataPayload{
		Audio:     base64.StdEncoding.EncodeToString(buf),
		Format:    format,
		Timestamp: capturedAt.UnixMilli(),
	}, nil
}

// NewDataEnvelope builds a complete audio_data envelope from a raw buffer.
func NewDataEnvelope(buf []byte, format string, capturedAt time.Time) (protocol.Envelope, error) {
	payload, err := EncodeChunk(buf, format, capturedAt)
	if err != nil {
		return protocol.Envelope{}, err
	}
	return protocol.NewEnvelope(protocol.KindAudioData, payload)
}

// DecodeResponse reconstructs playable bytes from an audio_response payload.
func DecodeResponse(payload protocol.AudioResponsePayload) ([]byte, error) {
	if payload.AudioData == "" {
		return nil, ErrNoAudio
	}

	buf, err := base64.StdEncoding.DecodeString(payload.AudioData)
	if err != nil {
		return nil, fmt.Errorf("decode audio data: %w", err)
	}
	return buf, nil
}

// DecodeResponseEnvelope extracts playable bytes and the format tag from an
// audio_response envelope.
func DecodeResponseEnvelope(env protocol.Envelope) ([]byte, string, error) {
	var payload protocol.AudioResponsePayload
	if err := protocol.DecodePayload(env, &payload); err != nil {
		return nil, "", err
	}

	buf, err := DecodeResponse(payload)
	if err != nil {
		return nil, "", err
	}
	return buf, payload.Format, nil
}
