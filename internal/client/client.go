// Package client implements the streaming side of the pipeline: capture
// frames, gate them through VAD, and ship finalized speech segments to the
// server while transcripts stream back on a second loop.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/eleven-am/voicestream/internal/audio"
	"github.com/eleven-am/voicestream/internal/capture"
	"github.com/eleven-am/voicestream/internal/protocol"
	"github.com/eleven-am/voicestream/internal/vad"
)

type Config struct {
	ServerURL         string
	SampleRate        int
	RecordSeconds     int
	VADAggressiveness int
}

// OnTranscript is invoked for every transcript the server sends back.
type OnTranscript func(res protocol.TranscriptResult)

type Client struct {
	cfg       Config
	source    capture.Source
	segmenter *capture.Segmenter
	onResult  OnTranscript
	log       *slog.Logger
}

func New(cfg Config, source capture.Source, onResult OnTranscript, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "client")

	segmenter := capture.NewSegmenter(capture.SegmenterConfig{
		Detector:       vad.NewEnergyDetector(cfg.VADAggressiveness),
		SampleRate:     cfg.SampleRate,
		RecordDuration: time.Duration(cfg.RecordSeconds) * time.Second,
		Log:            log,
	})

	return &Client{
		cfg:       cfg,
		source:    source,
		segmenter: segmenter,
		onResult:  onResult,
		log:       log,
	}
}

// Run connects under a fresh client id and drives the send and receive loops
// until the context is cancelled, the connection drops, or the capture source
// fails. A source failure is fatal: the client stops cleanly and releases the
// source.
func (c *Client) Run(ctx context.Context) error {
	clientID := uuid.New().String()
	url := fmt.Sprintf("%s/ws/%s", c.cfg.ServerURL, clientID)

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", url, err)
	}
	defer ws.Close()
	defer c.source.Close()

	c.log.Info("connected", "url", url, "client_id", clientID)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		c.receiveLoop(ws)
	}()

	sendErr := c.sendLoop(runCtx, ws)

	_ = ws.Close()
	wg.Wait()

	if sendErr != nil && runCtx.Err() == nil {
		return sendErr
	}
	return nil
}

func (c *Client) sendLoop(ctx context.Context, ws *websocket.Conn) error {
	sourceRate := c.source.SampleRate()
	if sourceRate != c.cfg.SampleRate {
		c.log.Info("resampling capture frames", "source_rate", sourceRate, "target_rate", c.cfg.SampleRate)
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		frame, err := c.source.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("capture source failed: %w", err)
		}

		if sourceRate != c.cfg.SampleRate {
			frame = audio.Resample(frame, sourceRate, c.cfg.SampleRate)
		}

		segment := c.segmenter.Observe(frame)
		if segment == nil {
			continue
		}

		msg := protocol.NewAudioMessage(segment.Samples, c.cfg.RecordSeconds)
		if err := ws.WriteJSON(msg); err != nil {
			return fmt.Errorf("send audio segment: %w", err)
		}
		c.log.Info("audio segment sent", "duration", segment.Duration())
	}
}

func (c *Client) receiveLoop(ws *websocket.Conn) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var res protocol.TranscriptResult
		if err := json.Unmarshal(data, &res); err != nil {
			c.log.Error("failed to decode transcript", "error", err)
			continue
		}

		c.log.Info("transcript received", "text", res.Text, "timestamp", res.Timestamp)
		if c.onResult != nil {
			c.onResult(res)
		}
	}
}
