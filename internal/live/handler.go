package live

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Authenticator resolves an access token to a user id
type Authenticator interface {
	Authenticate(token string) (int64, error)
}

// Handler upgrades GET /ws?token=... to a live channel. The token is checked
// once at connect; a bad token gets close code 1008 before any message.
type Handler struct {
	hub      *Hub
	auth     Authenticator
	upgrader websocket.Upgrader
	logger   *logrus.Logger
}

// NewHandler creates a Handler registering connections on hub
func NewHandler(hub *Hub, auth Authenticator, logger *logrus.Logger) *Handler {
	return &Handler{
		hub:  hub,
		auth: auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Debug("Websocket upgrade failed")
		return
	}

	userID, err := h.auth.Authenticate(r.URL.Query().Get("token"))
	if err != nil {
		h.reject(conn, "invalid or expired token")
		return
	}

	c := newClient(userID, conn, h.logger)
	h.hub.Register(userID, c)
	h.logger.WithField("user_id", userID).Debug("Live connection opened")

	go c.writePump()
	go c.readPump(func() {
		h.hub.Unregister(userID, c)
		h.logger.WithField("user_id", userID).Debug("Live connection closed")
	})
}

func (h *Handler) reject(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	conn.Close()
}
