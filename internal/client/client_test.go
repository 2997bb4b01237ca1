package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/eleven-am/voicestream/internal/protocol"
)

type fakeSource struct {
	mu        sync.Mutex
	rate      int
	frameSize int
	frames    int
	limit     int
	closed    bool
}

func (f *fakeSource) ReadFrame(ctx context.Context) ([]float32, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.limit > 0 && f.frames >= f.limit {
		return nil, errors.New("device gone")
	}
	f.frames++

	size := f.frameSize
	if size == 0 {
		size = 480
	}
	frame := make([]float32, size)
	for i := range frame {
		if i%2 == 0 {
			frame[i] = 0.5
		} else {
			frame[i] = -0.5
		}
	}
	return frame, nil
}

func (f *fakeSource) SampleRate() int {
	if f.rate == 0 {
		return 16000
	}
	return f.rate
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	return Config{
		SampleRate:        16000,
		RecordSeconds:     0, // finalize segments immediately in tests
		VADAggressiveness: 3,
	}
}

func newEchoServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		for {
			var msg protocol.AudioMessage
			if err := ws.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Type != protocol.MessageTypeAudio {
				t.Errorf("expected audio message, got type %q", msg.Type)
			}
			res := protocol.NewTranscriptResult(reply, time.Now())
			if err := ws.WriteJSON(res); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClient_SegmentRoundTrip(t *testing.T) {
	server := newEchoServer(t, "transcribed text")

	received := make(chan protocol.TranscriptResult, 1)
	source := &fakeSource{}
	c := New(testConfig(), source, func(res protocol.TranscriptResult) {
		select {
		case received <- res:
		default:
		}
	}, testLogger())
	c.cfg.ServerURL = "ws" + server.URL[4:]

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case res := <-received:
		if res.Text != "transcribed text" {
			t.Errorf("expected transcript, got %q", res.Text)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("never received a transcript")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("cancelled run should return nil, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("client did not stop after cancel")
	}
}

func TestClient_ResamplesMismatchedSourceRate(t *testing.T) {
	sampleCounts := make(chan int, 4)
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		for {
			var msg protocol.AudioMessage
			if err := ws.ReadJSON(&msg); err != nil {
				return
			}
			samples, err := msg.Samples()
			if err != nil {
				t.Errorf("decode samples: %v", err)
				return
			}
			select {
			case sampleCounts <- len(samples):
			default:
			}
		}
	}))
	t.Cleanup(server.Close)

	// The device opened at 8 kHz with 240-sample frames; the pipeline is
	// configured for 16 kHz, so every frame must be upsampled before
	// segmentation.
	source := &fakeSource{rate: 8000, frameSize: 240}
	c := New(testConfig(), source, nil, testLogger())
	c.cfg.ServerURL = "ws" + server.URL[4:]

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case got := <-sampleCounts:
		// Two 240-sample frames per segment, doubled by the 8k -> 16k resample.
		if got != 960 {
			t.Errorf("expected 960 samples per segment after resampling, got %d", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("never received an audio segment")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("client did not stop after cancel")
	}
}

func TestClient_SourceFailureIsFatal(t *testing.T) {
	server := newEchoServer(t, "unused")

	source := &fakeSource{limit: 1}
	c := New(testConfig(), source, nil, testLogger())
	c.cfg.ServerURL = "ws" + server.URL[4:]

	err := c.Run(context.Background())
	if err == nil {
		t.Fatal("expected error when the capture source fails")
	}

	source.mu.Lock()
	defer source.mu.Unlock()
	if !source.closed {
		t.Error("client must release the capture source on exit")
	}
}
