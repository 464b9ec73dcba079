package ws

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dmateos/courtside/internal/auth"
)

// Close codes for the three distinct admission failures.
const (
	CloseAuthRequired    = 4001
	CloseTokenInvalid    = 4002
	CloseIdentityMissing = 4003
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request, authenticates the bearer token supplied as a
// query parameter, and starts the connection's read and write pumps.
// Authentication runs exactly once, before any envelope is processed.
func ServeWS(h *Hub, verifier *auth.Verifier, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	userID, err := verifier.Verify(r.URL.Query().Get("token"))
	if err != nil {
		code, reason := CloseTokenInvalid, "invalid token"
		switch {
		case errors.Is(err, auth.ErrTokenMissing):
			code, reason = CloseAuthRequired, "authentication required"
		case errors.Is(err, auth.ErrNoIdentity):
			code, reason = CloseIdentityMissing, "invalid user identity"
		}
		deadline := time.Now().Add(writeWait)
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		conn.Close()
		return
	}

	client := newClient(userID, conn)
	h.Register(client)

	go client.writePump()
	go client.readPump(h)
}
