package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/eleven-am/voicestream/internal/bootstrap"
	"github.com/eleven-am/voicestream/internal/capture"
	"github.com/eleven-am/voicestream/internal/client"
)

// The client normally fronts a microphone; this binary substitutes a paced
// synthetic tone source so the pipeline can be exercised end to end without
// audio hardware.
func main() {
	cfg := bootstrap.LoadConfig()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if cfg.Channels != 1 {
		logger.Error("only mono capture is supported", "channels", cfg.Channels)
		os.Exit(1)
	}

	serverURL := getEnv("CLIENT_SERVER_URL", "ws://localhost:8000")
	frequency := getEnvFloat("CLIENT_TONE_HZ", 440)
	amplitude := getEnvFloat("CLIENT_TONE_AMPLITUDE", 0.5)

	source := capture.NewSyntheticSource(capture.SyntheticConfig{
		SampleRate: cfg.SampleRate,
		FrameMs:    cfg.FrameMs,
		Frequency:  frequency,
		Amplitude:  float32(amplitude),
	})

	c := client.New(client.Config{
		ServerURL:         serverURL,
		SampleRate:        cfg.SampleRate,
		RecordSeconds:     cfg.RecordSeconds,
		VADAggressiveness: cfg.VADAggressiveness,
	}, source, nil, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.Run(ctx); err != nil {
		logger.Error("client stopped", "error", err)
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
