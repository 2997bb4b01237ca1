package gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/eleven-am/voicestream/internal/protocol"
	"github.com/eleven-am/voicestream/internal/session"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler terminates one websocket per client id and bridges it to a session:
// inbound audio messages land on the session queue, transcript results flow
// back through the write pump.
type Handler struct {
	registry *session.Registry
	log      *slog.Logger
}

func NewHandler(registry *session.Registry, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		registry: registry,
		log:      log.With("component", "ws_gateway"),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/:client_id", h.handleConnection)
}

func (h *Handler) handleConnection(c echo.Context) error {
	clientID := c.Param("client_id")
	if clientID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing client id")
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", "error", err)
		return err
	}

	sender := newWSSender(ws, h.log.With("client_id", clientID))
	sess := h.registry.Connect(clientID, sender)

	go sender.writePump()
	h.readLoop(ws, sess)

	h.registry.Disconnect(clientID)
	sender.Close()
	return nil
}

// readLoop drains the connection until the peer goes away. Malformed or
// unknown messages are logged and dropped; they never close the connection.
func (h *Handler) readLoop(ws *websocket.Conn, sess *session.Session) {
	log := h.log.With("client_id", sess.ID())

	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error("websocket read error", "error", err)
			}
			return
		}

		msg, err := protocol.ParseClientMessage(data)
		if err != nil {
			log.Error("dropping invalid message", "error", err)
			continue
		}

		samples, err := msg.Samples()
		if err != nil {
			log.Error("dropping undecodable audio payload", "error", err)
			continue
		}

		sess.Enqueue(samples)
		log.Debug("audio chunk queued", "samples", len(samples), "duration_s", msg.Duration, "queue_len", sess.QueueLen())
	}
}
