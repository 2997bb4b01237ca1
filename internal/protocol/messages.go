// Package protocol defines the JSON wire messages exchanged between the
// streaming client and the transcription server. One message per logical
// event; there is no multiplexed framing.
package protocol

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/eleven-am/voicestream/internal/audio"
)

const MessageTypeAudio = "audio"

var (
	ErrUnknownType  = errors.New("unknown message type")
	ErrEmptyPayload = errors.New("empty audio payload")
)

// AudioMessage carries one finalized speech segment, client to server. Data is
// base64 of 32-bit float little-endian PCM samples.
type AudioMessage struct {
	Type     string `json:"type"`
	Data     string `json:"data"`
	Duration int    `json:"duration"`
}

func NewAudioMessage(samples []float32, durationSeconds int) *AudioMessage {
	return &AudioMessage{
		Type:     MessageTypeAudio,
		Data:     base64.StdEncoding.EncodeToString(audio.Float32ToBytes(samples)),
		Duration: durationSeconds,
	}
}

// Samples decodes the payload back to raw float32 samples.
func (m *AudioMessage) Samples() ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(m.Data)
	if err != nil {
		return nil, fmt.Errorf("decode audio payload: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrEmptyPayload
	}
	return audio.BytesToFloat32(raw), nil
}

// ParseClientMessage validates one inbound text message. Malformed JSON and
// unknown types come back as errors; the caller logs and drops them without
// closing the connection.
func ParseClientMessage(data []byte) (*AudioMessage, error) {
	var msg AudioMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal client message: %w", err)
	}
	if msg.Type != MessageTypeAudio {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
	}
	return &msg, nil
}

// TranscriptResult is the server-to-client result message. Timestamp is
// ISO-8601. The server never sends one with empty text.
type TranscriptResult struct {
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

func NewTranscriptResult(text string, at time.Time) TranscriptResult {
	return TranscriptResult{
		Text:      text,
		Timestamp: at.Format(time.RFC3339),
	}
}
