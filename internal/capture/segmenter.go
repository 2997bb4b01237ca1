package capture

import (
	"log/slog"
	"time"

	"github.com/eleven-am/voicestream/internal/vad"
)

type SegmenterState string

const (
	StateIdle      SegmenterState = "idle"
	StateRecording SegmenterState = "recording"
)

// Segment is a bounded run of frames collected once speech was detected, the
// atomic unit of transmission.
type Segment struct {
	Samples    []float32
	SampleRate int
}

func (s *Segment) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(s.Samples)) / float64(s.SampleRate) * float64(time.Second))
}

type SegmenterConfig struct {
	Detector       vad.Detector
	SampleRate     int
	RecordDuration time.Duration
	Log            *slog.Logger

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// Segmenter assembles speech segments from a stream of frames. The first
// speech-classified frame flips it from idle to recording and becomes the
// segment's first member; after that every frame is appended without
// re-checking voice activity until the record duration elapses. The elapsed
// check keys off frame arrival, so a stalled source stalls finalization with
// it.
type Segmenter struct {
	detector       vad.Detector
	sampleRate     int
	recordDuration time.Duration
	now            func() time.Time
	log            *slog.Logger

	state     SegmenterState
	frames    []float32
	startedAt time.Time
}

func NewSegmenter(cfg SegmenterConfig) *Segmenter {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &Segmenter{
		detector:       cfg.Detector,
		sampleRate:     cfg.SampleRate,
		recordDuration: cfg.RecordDuration,
		now:            cfg.Now,
		log:            cfg.Log.With("component", "segmenter"),
		state:          StateIdle,
	}
}

func (s *Segmenter) State() SegmenterState {
	return s.state
}

// Observe feeds one frame through the segmenter. It returns a finalized
// segment when the accumulated recording reaches the configured duration, and
// nil otherwise.
func (s *Segmenter) Observe(frame []float32) *Segment {
	switch s.state {
	case StateIdle:
		if !s.detector.IsSpeech(frame) {
			return nil
		}
		s.state = StateRecording
		s.startedAt = s.now()
		s.frames = append(s.frames[:0:0], frame...)
		s.log.Debug("speech detected, recording")
		return nil

	case StateRecording:
		s.frames = append(s.frames, frame...)
		if s.now().Sub(s.startedAt) < s.recordDuration {
			return nil
		}

		segment := &Segment{
			Samples:    s.frames,
			SampleRate: s.sampleRate,
		}
		s.state = StateIdle
		s.frames = nil
		s.startedAt = time.Time{}
		s.log.Debug("segment finalized", "duration", segment.Duration())
		return segment
	}

	return nil
}
