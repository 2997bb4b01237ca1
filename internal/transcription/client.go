package transcription

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/eleven-am/voicestream/internal/audio"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultMaxRetries    = 2
	defaultMaxConcurrent = 8
	retryBackoff         = 250 * time.Millisecond
)

// Client talks to a Whisper-serving sidecar over HTTP. The engine itself is a
// black box; this client only honors its input/output contract.
type Client struct {
	cfg        Config
	httpClient *http.Client
	semaphore  chan struct{}
	log        *slog.Logger
}

type wireRequest struct {
	Audio            string `json:"audio"`
	SampleRate       int    `json:"sample_rate"`
	Language         string `json:"language,omitempty"`
	ReducedPrecision bool   `json:"fp16,omitempty"`
}

type wireResponse struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

func NewClient(cfg Config, log *slog.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("transcription endpoint cannot be empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		semaphore:  make(chan struct{}, cfg.MaxConcurrent),
		log:        log.With("component", "transcription_client"),
	}, nil
}

// Ping reports whether the sidecar endpoint is reachable. Any HTTP response
// counts as reachable; only transport failures are errors.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.cfg.Endpoint, nil)
	if err != nil {
		return fmt.Errorf("build engine probe: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("engine unreachable: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

func (c *Client) Transcribe(ctx context.Context, req Request) (*Result, error) {
	select {
	case c.semaphore <- struct{}{}:
		defer func() { <-c.semaphore }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	body, err := json.Marshal(wireRequest{
		Audio:            base64.StdEncoding.EncodeToString(audio.Float32ToBytes(req.Samples)),
		SampleRate:       req.SampleRate,
		Language:         req.Language,
		ReducedPrecision: req.ReducedPrecision,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal transcription request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryBackoff * time.Duration(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, retryable, err := c.doRequest(ctx, body)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		c.log.Warn("transcription attempt failed", "attempt", attempt+1, "error", err)
	}

	return nil, lastErr
}

func (c *Client) doRequest(ctx context.Context, body []byte) (*Result, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("build transcription request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, true, fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		io.Copy(io.Discard, resp.Body)
		return nil, true, fmt.Errorf("transcription service returned %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, false, fmt.Errorf("transcription service returned %d", resp.StatusCode)
	}

	var wire wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, false, fmt.Errorf("decode transcription response: %w", err)
	}

	return &Result{
		Text:        wire.Text,
		Language:    wire.Language,
		ProcessedAt: time.Now(),
	}, false, nil
}
