package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/eleven-am/voicestream/internal/audio"
	"github.com/eleven-am/voicestream/internal/feed"
	"github.com/eleven-am/voicestream/internal/protocol"
	"github.com/eleven-am/voicestream/internal/transcription"
)

// Sender delivers a transcript result to the session's peer. Implementations
// must not block the processing loop; results that cannot be delivered are
// dropped.
type Sender interface {
	SendResult(ctx context.Context, res protocol.TranscriptResult) error
}

type Config struct {
	SampleRate       int
	PollInterval     time.Duration
	OverlapWindow    time.Duration
	Language         string
	ReducedPrecision bool
}

// OverlapSamples is the number of trailing samples retained across processing
// cycles.
func (c Config) OverlapSamples() int {
	return int(float64(c.SampleRate) * c.OverlapWindow.Seconds())
}

// Session owns one connected client's inbound queue, context buffer, and
// processing task. Audio chunks are processed strictly in arrival order; the
// engine is serviced sequentially, so results also leave in arrival order.
type Session struct {
	id     string
	queue  *Queue[[]float32]
	buffer *audio.ContextBuffer
	engine transcription.Transcriber
	sender Sender
	feed   feed.Publisher
	cfg    Config
	log    *slog.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once

	// onFatal is invoked from a fresh goroutine when the processing loop dies
	// unexpectedly, so a panicking session disconnects only itself.
	onFatal func(id string)
}

func New(id string, engine transcription.Transcriber, sender Sender, publisher feed.Publisher, cfg Config, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	if publisher == nil {
		publisher = feed.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:     id,
		queue:  NewQueue[[]float32](),
		buffer: audio.NewContextBuffer(),
		engine: engine,
		sender: sender,
		feed:   publisher,
		cfg:    cfg,
		log:    log.With("session_id", id),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Session) ID() string {
	return s.id
}

// Enqueue appends decoded samples to the inbound queue. It never blocks the
// connection's receive loop.
func (s *Session) Enqueue(samples []float32) {
	s.queue.Push(samples)
}

func (s *Session) QueueLen() int {
	return s.queue.Len()
}

func (s *Session) SetOnFatal(fn func(id string)) {
	s.onFatal = fn
}

func (s *Session) Start() {
	s.wg.Add(1)
	go s.processLoop()
}

// Close cancels the processing task and waits for it to wind down. An
// in-flight engine call runs to completion; its result is discarded. Safe to
// call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
	})
	s.wg.Wait()
	return nil
}

func (s *Session) processLoop() {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("processing loop panicked", "panic", r)
			if s.onFatal != nil {
				go s.onFatal(s.id)
			}
		}
	}()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.processNext()
		}
	}
}

// processNext drains at most one chunk per poll tick: append it to the
// context buffer, transcribe the whole buffer, then trim back to the overlap
// window.
func (s *Session) processNext() {
	chunk, ok := s.queue.Pop()
	if !ok {
		return
	}

	s.buffer.Append(chunk)

	// The engine call deliberately does not carry the session context: a
	// disconnect lets the call finish and discards the result afterwards.
	result, err := s.engine.Transcribe(context.Background(), transcription.Request{
		Samples:          s.buffer.Samples(),
		SampleRate:       s.cfg.SampleRate,
		Language:         s.cfg.Language,
		ReducedPrecision: s.cfg.ReducedPrecision,
	})

	s.buffer.TrimTo(s.cfg.OverlapSamples())

	if err != nil {
		s.log.Error("transcription failed", "error", err)
		return
	}

	if s.ctx.Err() != nil {
		return
	}

	text := strings.TrimSpace(result.Text)
	if text == "" {
		return
	}

	res := protocol.NewTranscriptResult(text, time.Now())
	if err := s.sender.SendResult(s.ctx, res); err != nil {
		s.log.Error("failed to send transcript", "error", err)
		return
	}

	if err := s.feed.PublishTranscript(s.ctx, s.id, res); err != nil {
		s.log.Error("failed to publish transcript to feed", "error", err)
	}
}
