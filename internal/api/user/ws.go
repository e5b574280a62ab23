package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/openctf/arena/internal/pubsub"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: implement a proper origin check in production
		return true
	},
}

// handleEventsWs streams scoreboard and notification events to a client.
// Everything pushed here is public data, so no token is required; a client
// that misses an event re-fetches the scoreboard over HTTP.
func (h *Handler) handleEventsWs(c *gin.Context) {
	scoreboardCh, unsubScoreboard := h.broker.Subscribe(pubsub.TopicScoreboard)
	defer unsubScoreboard()
	notifyCh, unsubNotify := h.broker.Subscribe(pubsub.TopicNotifications)
	defer unsubNotify()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.S().Errorf("failed to upgrade websocket: %v", err)
		return
	}
	defer conn.Close()

	go func() {
		defer conn.Close()
		for {
			var msg []byte
			var ok bool
			select {
			case msg, ok = <-scoreboardCh:
			case msg, ok = <-notifyCh:
			}
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				zap.S().Warnf("error writing to websocket: %v", err)
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.S().Infof("websocket unexpected close error: %v", err)
			}
			break
		}
	}
	zap.S().Debug("event websocket connection closed")
}
