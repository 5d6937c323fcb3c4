// Package gwtest holds small fakes shared across the Gateway's package
// tests: a fake transport.SocketHandle and a fake silo.MessageCenter.
package gwtest

import (
	"context"
	"net"
	"sync"

	"github.com/nimbus-silo/gateway/internal/identity"
	"github.com/nimbus-silo/gateway/internal/message"
)

// FakeSocket is an in-memory transport.SocketHandle. Sends are recorded
// verbatim; FailNext makes the next N sends report a short write, the way
// a broken client connection would.
type FakeSocket struct {
	mu       sync.Mutex
	sent     []string
	failNext int
	closed   bool
	endpoint string
}

func NewFakeSocket(endpoint string) *FakeSocket {
	return &FakeSocket{endpoint: endpoint}
}

func (s *FakeSocket) Send(buffers net.Buffers) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var want int64
	for _, b := range buffers {
		want += int64(len(b))
	}

	if s.failNext > 0 {
		s.failNext--
		return want - 1, nil // short write
	}

	var joined []byte
	for _, b := range buffers {
		joined = append(joined, b...)
	}
	s.sent = append(s.sent, string(joined))
	return want, nil
}

func (s *FakeSocket) RemoteEndpoint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "unknown"
	}
	return s.endpoint
}

func (s *FakeSocket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// FailNext arranges for the next n sends to fail as short writes.
func (s *FakeSocket) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
}

// Sent returns every payload successfully sent so far.
func (s *FakeSocket) Sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sent))
	copy(out, s.sent)
	return out
}

// FakeMessageCenter records every call made to it; all methods succeed.
type FakeMessageCenter struct {
	mu          sync.Mutex
	Sent        []*message.Message
	Rejections  []message.Rejection
	DroppedSets [][]identity.ActorID
}

func (m *FakeMessageCenter) SendMessage(_ context.Context, msg *message.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, msg)
	return nil
}

func (m *FakeMessageCenter) SendRejection(_ context.Context, rej message.Rejection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Rejections = append(m.Rejections, rej)
	return nil
}

func (m *FakeMessageCenter) RecordClientDrop(_ context.Context, actors []identity.ActorID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DroppedSets = append(m.DroppedSets, actors)
	return nil
}
