package capture

import (
	"context"
	"math"

	"golang.org/x/time/rate"
)

// Source produces fixed-duration frames of raw float32 samples. Implementations
// wrap a capture device or a synthetic generator; a failed read is fatal to the
// caller, there is no recovery path. SampleRate reports the rate the device
// actually opened at, which may differ from what the pipeline was configured
// for.
type Source interface {
	ReadFrame(ctx context.Context) ([]float32, error)
	SampleRate() int
	Close() error
}

// SyntheticSource generates sine-tone frames paced at capture speed, standing
// in for a microphone in tests and demo runs. Amplitude 0 yields pure silence.
type SyntheticSource struct {
	sampleRate int
	frameSize  int
	frequency  float64
	amplitude  float32
	limiter    *rate.Limiter
	phase      int
}

type SyntheticConfig struct {
	SampleRate int
	FrameMs    int
	Frequency  float64
	Amplitude  float32
}

func NewSyntheticSource(cfg SyntheticConfig) *SyntheticSource {
	frameSize := cfg.SampleRate * cfg.FrameMs / 1000
	framesPerSecond := 1000.0 / float64(cfg.FrameMs)
	return &SyntheticSource{
		sampleRate: cfg.SampleRate,
		frameSize:  frameSize,
		frequency:  cfg.Frequency,
		amplitude:  cfg.Amplitude,
		limiter:    rate.NewLimiter(rate.Limit(framesPerSecond), 1),
	}
}

func (s *SyntheticSource) ReadFrame(ctx context.Context) ([]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	frame := make([]float32, s.frameSize)
	for i := range frame {
		frame[i] = s.amplitude * float32(math.Sin(2*math.Pi*s.frequency*float64(s.phase+i)/float64(s.sampleRate)))
	}
	s.phase += s.frameSize
	return frame, nil
}

func (s *SyntheticSource) SampleRate() int {
	return s.sampleRate
}

func (s *SyntheticSource) Close() error {
	return nil
}
