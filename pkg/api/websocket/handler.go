package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/aescanero/example-app/pkg/adapters/events"
)

const (
	// bufferSize is the number of events held per connection before dropping
	bufferSize = 64
	writeWait  = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler handles WebSocket connections
type Handler struct {
	bus    events.Bus
	logger *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(bus events.Bus, logger *zap.Logger) *Handler {
	return &Handler{
		bus:    bus,
		logger: logger,
	}
}

// HandleRequestStream streams request events to the client until it disconnects
func (h *Handler) HandleRequestStream(c *gin.Context) {
	endpoint := c.Query("endpoint")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	h.logger.Info("WebSocket connection established",
		zap.String("endpoint_filter", endpoint),
		zap.String("client", c.ClientIP()))

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	eventChan := make(chan events.RequestEvent, bufferSize)
	err = h.bus.Subscribe(ctx, events.TopicRequests, func(ctx context.Context, event events.RequestEvent) error {
		if endpoint != "" && event.Endpoint != endpoint {
			return nil
		}

		select {
		case eventChan <- event:
		default:
			h.logger.Warn("event channel full, dropping event",
				zap.String("event_id", event.ID))
		}
		return nil
	})
	if err != nil {
		h.logger.Error("failed to subscribe to request events", zap.Error(err))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "event feed unavailable"),
			time.Now().Add(writeWait))
		return
	}

	// the feed is one-way; reading only detects the client going away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket connection closed", zap.String("client", c.ClientIP()))
			return
		case event := <-eventChan:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Error("failed to write message", zap.Error(err))
				return
			}
		}
	}
}
