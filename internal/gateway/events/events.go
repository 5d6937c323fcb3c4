// Package events adapts raw transport connection lifecycle notifications
// into Registry calls: a socket handshake becomes
// RecordOpenedSocket, and a socket close — local or remote — becomes
// RecordClosedSocket.
package events

import (
	"log/slog"

	"github.com/nimbus-silo/gateway/internal/identity"
	"github.com/nimbus-silo/gateway/internal/transport"
)

// Recorder is the subset of Registry this adapter drives.
type Recorder interface {
	RecordOpenedSocket(socket transport.SocketHandle, clientID identity.ClientID)
	RecordClosedSocket(socket transport.SocketHandle)
}

// Events is the Connection Events adapter: the one place a transport layer
// (the WebSocket upgrade handler, or any future transport) reports a
// client's arrival and departure.
type Events struct {
	registry Recorder
	logger   *slog.Logger
}

func New(registry Recorder, logger *slog.Logger) *Events {
	return &Events{registry: registry, logger: logger}
}

// Accepted implements on_connection_accepted: invoked once the
// transport has completed its handshake and minted or recovered a
// ClientID for the peer.
func (e *Events) Accepted(socket transport.SocketHandle, clientID identity.ClientID) {
	e.logger.Info("CLIENT_SOCKET_ACCEPTED",
		slog.String("client", clientID.String()),
		slog.String("remote", socket.RemoteEndpoint()))
	e.registry.RecordOpenedSocket(socket, clientID)
}

// Closed implements on_connection_closed. The transport must call
// this exactly once per socket, whether the close was initiated locally (a
// send failure) or by the remote peer; socket.RemoteEndpoint() must remain
// safe to call after the underlying connection has gone away; see
// transport.SocketHandle.
func (e *Events) Closed(socket transport.SocketHandle) {
	e.logger.Info("CLIENT_SOCKET_CLOSED", slog.String("remote", socket.RemoteEndpoint()))
	e.registry.RecordClosedSocket(socket)
}
