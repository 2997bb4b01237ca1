package transcription

import (
	"context"
	"time"
)

// Request is one engine invocation: the full current buffer of a session, a
// language hint, and an optional reduced-precision hint.
type Request struct {
	Samples          []float32
	SampleRate       int
	Language         string
	ReducedPrecision bool
}

type Result struct {
	Text        string
	Language    string
	ProcessedAt time.Time
}

// Transcriber is the external engine contract. Implementations must be safe
// for concurrent calls from many sessions and stateless across calls.
type Transcriber interface {
	Transcribe(ctx context.Context, req Request) (*Result, error)
}

type Config struct {
	Endpoint      string
	Timeout       time.Duration
	MaxRetries    int
	MaxConcurrent int
}
