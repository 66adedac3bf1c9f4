// internal/realtime/websocket.go
package realtime

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	clientBuffer = 64
)

// StreamHandler pushes hub changes to websocket clients as JSON frames.
type StreamHandler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewStreamHandler(hub *Hub, allowedOrigins []string) *StreamHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &StreamHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// GET /v1/realtime?table=productos
func (h *StreamHandler) Serve(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("Failed to upgrade realtime websocket")
		return
	}
	defer ws.Close()

	table := c.Query("table")
	out := make(chan Change, clientBuffer)
	sub := h.hub.Subscribe(table, func(ch Change) {
		select {
		case out <- ch:
		default:
			logrus.WithField("table", ch.Table).Warn("Realtime client too slow, dropping change")
		}
	})
	defer sub.Unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		ws.SetReadDeadline(time.Now().Add(pongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pongWait * 9 / 10)
	defer ping.Stop()

	logrus.WithFields(logrus.Fields{"ip": c.ClientIP(), "table": table}).Info("Realtime client connected")
	for {
		select {
		case <-closed:
			logrus.WithField("ip", c.ClientIP()).Info("Realtime client disconnected")
			return
		case ch := <-out:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(ch); err != nil {
				logrus.WithError(err).Warn("Failed to write realtime change")
				return
			}
		case <-ping.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
