package transport

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/nimbus-silo/gateway/internal/identity"
)

// ConnectionEvents is the subset of the Connection Events adapter a
// transport reports handshake/close notifications to.
type ConnectionEvents interface {
	Accepted(socket SocketHandle, clientID identity.ClientID)
	Closed(socket SocketHandle)
}

// WSHandler upgrades inbound HTTP requests to WebSocket connections and
// reports their lifecycle to the Gateway's Connection Events adapter. It
// assigns each newly-accepted socket a fresh ClientID; a production
// deployment that wants reconnect-with-history would instead recover an
// existing ClientID from a session token here.
type WSHandler struct {
	logger   *slog.Logger
	events   ConnectionEvents
	upgrader websocket.Upgrader
}

func NewWSHandler(logger *slog.Logger, events ConnectionEvents) *WSHandler {
	return &WSHandler{
		logger: logger,
		events: events,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WS_UPGRADE_FAILED", slog.Any("err", err))
		return
	}

	socket := NewWSSocket(conn)
	clientID := identity.NewClientID()
	h.events.Accepted(socket, clientID)

	// The Sender Pool owns writes to this socket from here on; this pump
	// only reads, so it can detect the peer closing the connection.
	go h.pumpReads(socket)
}

func (h *WSHandler) pumpReads(socket *WSSocket) {
	defer func() {
		_ = socket.Close()
		h.events.Closed(socket)
	}()

	for {
		if _, _, err := socket.conn.ReadMessage(); err != nil {
			return
		}
	}
}
