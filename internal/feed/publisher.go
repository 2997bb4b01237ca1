// Package feed fans finalized transcripts out to downstream consumers over
// Redis pub/sub. It is fire-and-forget transport: nothing is stored, and a
// missed publish is lost.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/eleven-am/voicestream/internal/protocol"
	"github.com/redis/go-redis/v9"
)

const channelPrefix = "voicestream:transcripts:"

type Publisher interface {
	PublishTranscript(ctx context.Context, clientID string, res protocol.TranscriptResult) error
	Close() error
}

type RedisPublisher struct {
	client *redis.Client
	log    *slog.Logger
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedis(cfg RedisConfig, log *slog.Logger) (*RedisPublisher, error) {
	if log == nil {
		log = slog.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisPublisher{
		client: client,
		log:    log.With("component", "transcript_feed"),
	}, nil
}

func Channel(clientID string) string {
	return channelPrefix + clientID
}

func (p *RedisPublisher) PublishTranscript(ctx context.Context, clientID string, res protocol.TranscriptResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	if err := p.client.Publish(ctx, Channel(clientID), payload).Err(); err != nil {
		return fmt.Errorf("publish transcript: %w", err)
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

type nopPublisher struct{}

// NewNop returns a publisher that discards everything, used when no feed
// backend is configured.
func NewNop() Publisher {
	return nopPublisher{}
}

func (nopPublisher) PublishTranscript(context.Context, string, protocol.TranscriptResult) error {
	return nil
}

func (nopPublisher) Close() error {
	return nil
}
