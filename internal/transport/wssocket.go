package transport

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// WSSocket adapts a gorilla/websocket connection to SocketHandle. Writes are
// serialized with a mutex because gorilla's Conn forbids concurrent
// writers, while the Sender Pool already guarantees only one worker ever
// writes to a given client's socket at a time — this mutex is therefore
// uncontended in the steady state and only guards against the rare overlap
// during a reconnect race.
type WSSocket struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	closed atomic.Bool
}

// NewWSSocket wraps an already-upgraded websocket connection.
func NewWSSocket(conn *websocket.Conn) *WSSocket {
	return &WSSocket{conn: conn}
}

func (s *WSSocket) Send(buffers net.Buffers) (int64, error) {
	if s.closed.Load() {
		return 0, net.ErrClosed
	}

	var total int64
	for _, b := range buffers {
		total += int64(len(b))
	}

	// Concatenate: a duplex client expects one framed message per Send
	// call, not one websocket frame per buffer.
	payload := make([]byte, 0, total)
	for _, b := range buffers {
		payload = append(payload, b...)
	}

	s.mu.Lock()
	err := s.conn.WriteMessage(websocket.BinaryMessage, payload)
	s.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (s *WSSocket) RemoteEndpoint() string {
	if s.closed.Load() {
		return "unknown"
	}
	if addr := s.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return "unknown"
}

func (s *WSSocket) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.conn.Close()
}
