// Package transport defines the external collaborators the Gateway needs to
// move bytes to a client: the duplex socket abstraction and the message
// serializer. Both are treated as external to the Gateway's own concerns
// — this package supplies the interfaces plus one concrete,
// runnable implementation of each so the module works end-to-end.
package transport

import "net"

// SocketHandle is an opaque handle to a duplex byte stream connected to one
// client. Implementations must be safe for Send/RemoteEndpoint to
// be called after Close.
type SocketHandle interface {
	// Send writes buffers to the peer and reports the number of bytes
	// actually written. A short write (n less than the combined buffer
	// length) is a send failure; the caller must close the socket.
	Send(buffers net.Buffers) (n int64, err error)
	// RemoteEndpoint returns the peer's address, or "unknown" once the
	// socket has been closed.
	RemoteEndpoint() string
	Close() error
}
