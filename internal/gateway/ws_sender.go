package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/eleven-am/voicestream/internal/protocol"
	"github.com/gorilla/websocket"
)

// wsSender pushes transcript results to the peer through a buffered channel
// drained by a single write pump. Results produced after the connection is
// gone are dropped, never buffered across disconnect.
type wsSender struct {
	ws     *websocket.Conn
	send   chan protocol.TranscriptResult
	done   chan struct{}
	log    *slog.Logger
	mu     sync.Mutex
	closed bool
}

func newWSSender(ws *websocket.Conn, log *slog.Logger) *wsSender {
	return &wsSender{
		ws:   ws,
		send: make(chan protocol.TranscriptResult, 64),
		done: make(chan struct{}),
		log:  log,
	}
}

func (s *wsSender) SendResult(ctx context.Context, res protocol.TranscriptResult) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return nil
	case s.send <- res:
		return nil
	default:
		s.log.Warn("send buffer full, dropping result")
		return nil
	}
}

func (s *wsSender) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			_ = s.ws.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
			return

		case res := <-s.send:
			_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))

			data, err := json.Marshal(res)
			if err != nil {
				s.log.Error("failed to marshal result", "error", err)
				continue
			}
			if err := s.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				s.log.Error("websocket write error", "error", err)
				return
			}

		case <-ticker.C:
			_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *wsSender) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	s.mu.Unlock()

	return s.ws.Close()
}
