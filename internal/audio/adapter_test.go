package audio

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/kit678/VoiceAgentPlanner/internal/protocol"
)

func TestEncodeChunk(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0xff}
	capturedAt := time.UnixMilli(1705328200000)

	payload, err := EncodeChunk(buf, FormatPCM16, capturedAt)
	if err != nil {
		t.Fatalf("EncodeChunk failed: %v", err)
	}

	if payload.Format != FormatPCM16 {
		t.Errorf("Format = %q, want %q", payload.Format, FormatPCM16)
	}
	if payload.Timestamp != 1705328200000 {
		t.Errorf("Timestamp = %d, want 1705328200000", payload.Timestamp)
	}

	decoded, err := base64.StdEncoding.DecodeString(payload.Audio)
	if err != nil {
		t.Fatalf("payload.Audio is not valid base64: %v", err)
	}
	if !bytes.Equal(decoded, buf) {
		t.Errorf("decoded audio = %v, want %v", decoded, buf)
	}
}

func TestEncodeChunk_EmptyBuffer(t *testing.T) {
	if _, err := EncodeChunk(nil, FormatPCM16, time.Now()); !errors.Is(err, ErrEmptyBuffer) {
		t.Errorf("err = %v, want ErrEmptyBuffer", err)
	}
}

func TestNewDataEnvelope(t *testing.T) {
	env, err := NewDataEnvelope([]byte("pcm bytes"), FormatWAV, time.Now())
	if err != nil {
		t.Fatalf("NewDataEnvelope failed: %v", err)
	}
	if env.Type != protocol.KindAudioData {
		t.Errorf("Type = %q, want %q", env.Type, protocol.KindAudioData)
	}

	var payload protocol.AudioDataPayload
	if err := protocol.DecodePayload(env, &payload); err != nil {
		t.Fatalf("DecodePayload failed: %v", err)
	}
	if payload.Format != FormatWAV {
		t.Errorf("Format = %q, want %q", payload.Format, FormatWAV)
	}
}

func TestDecodeResponse_RoundTrip(t *testing.T) {
	original := []byte("encoded audio response")
	payload := protocol.AudioResponsePayload{
		AudioData: base64.StdEncoding.EncodeToString(original),
		Format:    FormatWebM,
	}

	buf, err := DecodeResponse(payload)
	if err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}
	if !bytes.Equal(buf, original) {
		t.Errorf("decoded = %q, want %q", buf, original)
	}
}

func TestDecodeResponse_Invalid(t *testing.T) {
	if _, err := DecodeResponse(protocol.AudioResponsePayload{}); !errors.Is(err, ErrNoAudio) {
		t.Errorf("empty payload err = %v, want ErrNoAudio", err)
	}

	if _, err := DecodeResponse(protocol.AudioResponsePayload{AudioData: "not-base64!!"}); err == nil {
		t.Error("invalid base64 should fail")
	}
}

func TestDecodeResponseEnvelope(t *testing.T) {
	original := []byte{0xde, 0xad, 0xbe, 0xef}
	env, err := protocol.NewEnvelope(protocol.KindAudioResponse, protocol.AudioResponsePayload{
		AudioData: base64.StdEncoding.EncodeToString(original),
		Format:    FormatPCM16,
	})
	if err != nil {
		t.Fatalf("NewEnvelope failed: %v", err)
	}

	buf, format, err := DecodeResponseEnvelope(env)
	if err != nil {
		t.Fatalf("DecodeResponseEnvelope failed: %v", err)
	}
	if format != FormatPCM16 {
		t.Errorf("format = %q, want %q", format, FormatPCM16)
	}
	if !bytes.Equal(buf, original) {
		t.Errorf("buf = %v, want %v", buf, original)
	}
}
