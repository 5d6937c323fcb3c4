package events

import (
	"log/slog"
	"testing"

	"github.com/nimbus-silo/gateway/internal/gwtest"
	"github.com/nimbus-silo/gateway/internal/identity"
	"github.com/nimbus-silo/gateway/internal/transport"
)

type fakeRecorder struct {
	opened []identity.ClientID
	closed []transport.SocketHandle
}

func (f *fakeRecorder) RecordOpenedSocket(socket transport.SocketHandle, clientID identity.ClientID) {
	f.opened = append(f.opened, clientID)
}

func (f *fakeRecorder) RecordClosedSocket(socket transport.SocketHandle) {
	f.closed = append(f.closed, socket)
}

func TestAccepted_RecordsOpenedSocket(t *testing.T) {
	rec := &fakeRecorder{}
	ev := New(rec, slog.New(slog.DiscardHandler))

	id := identity.NewClientID()
	sock := gwtest.NewFakeSocket("peer")
	ev.Accepted(sock, id)

	if len(rec.opened) != 1 || rec.opened[0] != id {
		t.Fatalf("expected RecordOpenedSocket(%v), got %v", id, rec.opened)
	}
}

func TestClosed_SurvivesPostCloseEndpointAccess(t *testing.T) {
	rec := &fakeRecorder{}
	ev := New(rec, slog.New(slog.DiscardHandler))

	sock := gwtest.NewFakeSocket("peer")
	_ = sock.Close()

	ev.Closed(sock) // must not panic even though RemoteEndpoint now reports "unknown"

	if len(rec.closed) != 1 {
		t.Fatalf("expected RecordClosedSocket to be called once, got %d", len(rec.closed))
	}
}
