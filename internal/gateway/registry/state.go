// Package registry holds the Gateway's authoritative client table and its
// two derived indexes, plus the per-client state record.
package registry

import (
	"sync"
	"time"

	"github.com/nimbus-silo/gateway/internal/identity"
	"github.com/nimbus-silo/gateway/internal/message"
	"github.com/nimbus-silo/gateway/internal/transport"
)

// disconnectedSentinel stands in for "not disconnected": attachSocket stores
// it in disconnectedSince while a socket is attached. Connectedness itself
// is decided by a nil socket, not by comparing against this value; see
// ClientState.DisconnectedSince.
var disconnectedSentinel = time.Time{}

// ClientState is the per-client record. sender_index
// is immutable for the life of the value; socket,
// disconnectedSince, and the two pending queues are mutated only by the one
// Sender Pool worker this client is assigned to, or — for socket and
// disconnectedSince — by the Registry under the gateway lock during
// record_opened_socket/record_closed_socket. The queues therefore need no
// mutex of their own: single-writer access is an invariant of how the
// Sender Pool assigns work, not something this type enforces.
type ClientState struct {
	ID         identity.ClientID
	SenderIndex int

	mu                sync.Mutex // guards socket + disconnectedSince only
	socket            transport.SocketHandle
	disconnectedSince time.Time

	PendingSingles []*message.Message
	PendingBatches [][]*message.Message
}

// NewClientState constructs a ClientState with no socket (freshly
// disconnected) and the given immutable sender assignment.
func NewClientState(id identity.ClientID, senderIndex int) *ClientState {
	return &ClientState{
		ID:                id,
		SenderIndex:       senderIndex,
		disconnectedSince: time.Now(),
	}
}

// Socket returns the current live socket, or nil if disconnected.
func (c *ClientState) Socket() transport.SocketHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.socket
}

// Connected reports whether the client currently has a live socket.
func (c *ClientState) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.socket != nil
}

// DisconnectedSince returns the timestamp the client went disconnected, and
// whether it is in fact disconnected at all (a connected client maps to
// the second return being false).
func (c *ClientState) DisconnectedSince() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.socket != nil {
		return disconnectedSentinel, false
	}
	return c.disconnectedSince, true
}

// attachSocket installs a new live socket, returning the previous one (nil
// if there was none). Callers must hold the gateway lock — this backs
// record_opened_socket, which the Registry drives.
func (c *ClientState) attachSocket(s transport.SocketHandle) (previous transport.SocketHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	previous = c.socket
	c.socket = s
	c.disconnectedSince = disconnectedSentinel
	return previous
}

// detachSocket clears the socket if it currently equals the given one,
// stamping disconnectedSince to now. Returns whether the socket was in fact
// the current one — a stale close (a different or already-detached
// socket) is a no-op.
func (c *ClientState) detachSocket(s transport.SocketHandle) (matched bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.socket != s {
		return false
	}
	c.socket = nil
	c.disconnectedSince = time.Now()
	return true
}
