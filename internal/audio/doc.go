// Package audio adapts raw audio buffers to and from envelope payloads.
//
// Outbound: one audio_data envelope per captured buffer, base64-encoded and
// tagged with format and capture timestamp. Inbound: decodes audio_response
// payloads back to playable bytes. Playback itself belongs to the UI
// collaborator, not this package.
package audio
