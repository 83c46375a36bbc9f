// README: WebSocket change feed; pushes wake-up events, clients re-fetch.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/auth"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/http/middleware"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/notify"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

type FeedHandler struct {
	hub      *notify.Hub
	upgrader websocket.Upgrader
	log      *logrus.Logger
}

func NewFeedHandler(hub *notify.Hub, log *logrus.Logger) *FeedHandler {
	if log == nil {
		log = logrus.New()
	}
	return &FeedHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Token auth happens before the upgrade; origins are not enforced.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// Subscribe upgrades to a WebSocket and streams change events. Passengers are
// always scoped to their own rides; drivers and admins see every change,
// optionally narrowed to one ride with ?ride_id=.
func (h *FeedHandler) Subscribe(c *gin.Context) {
	sess, _ := middleware.Session(c)

	filter := notify.Filter{RideID: types.ID(c.Query("ride_id"))}
	if sess.Role == auth.RolePassenger {
		filter.PassengerID = sess.UserID
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("feed upgrade failed")
		return
	}

	events, cancel := h.hub.Subscribe(filter)
	defer cancel()
	defer conn.Close()

	// Reader side only services control frames; any read error tears the
	// connection down.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
