package feed

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/eleven-am/voicestream/internal/protocol"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRedis_Unreachable(t *testing.T) {
	if _, err := NewRedis(RedisConfig{Addr: "127.0.0.1:1"}, testLogger()); err == nil {
		t.Fatal("expected error for unreachable redis")
	}
}

func TestRedisPublisher_PublishTranscript(t *testing.T) {
	mr := miniredis.RunT(t)

	pub, err := NewRedis(RedisConfig{Addr: mr.Addr()}, testLogger())
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	defer pub.Close()

	sub := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer sub.Close()
	pubsub := sub.Subscribe(context.Background(), Channel("client_1"))
	defer pubsub.Close()
	if _, err := pubsub.Receive(context.Background()); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	res := protocol.NewTranscriptResult("hello", time.Unix(1700000000, 0).UTC())
	if err := pub.PublishTranscript(context.Background(), "client_1", res); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case msg := <-pubsub.Channel():
		var got protocol.TranscriptResult
		if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if got.Text != "hello" {
			t.Errorf("expected text hello, got %q", got.Text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published transcript")
	}
}

func TestChannel(t *testing.T) {
	if Channel("abc") != "voicestream:transcripts:abc" {
		t.Errorf("unexpected channel name %q", Channel("abc"))
	}
}

func TestNopPublisher(t *testing.T) {
	pub := NewNop()
	res := protocol.NewTranscriptResult("x", time.Now())
	if err := pub.PublishTranscript(context.Background(), "id", res); err != nil {
		t.Errorf("nop publish should never fail: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Errorf("nop close should never fail: %v", err)
	}
}
