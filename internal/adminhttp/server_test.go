package adminhttp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nimbus-silo/gateway/internal/gateway/senderpool"
	"github.com/nimbus-silo/gateway/internal/identity"
)

type fakeGateway struct {
	clients []identity.ClientID
	stats   []senderpool.WorkerStats
	cache   int
}

func (f *fakeGateway) GetConnectedClients() []identity.ClientID    { return f.clients }
func (f *fakeGateway) SenderStats() []senderpool.WorkerStats       { return f.stats }
func (f *fakeGateway) RouteCacheLen() int                          { return f.cache }

func TestHealthz(t *testing.T) {
	srv := NewServer(&fakeGateway{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
}

func TestStats(t *testing.T) {
	gw := &fakeGateway{
		clients: []identity.ClientID{identity.NewClientID(), identity.NewClientID()},
		stats:   []senderpool.WorkerStats{{Index: 0, Sent: 3}},
		cache:   5,
	}
	srv := NewServer(gw)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var body statsResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ConnectedClients != 2 || body.RouteCacheSize != 5 || len(body.Senders) != 1 {
		t.Fatalf("unexpected stats response: %+v", body)
	}
}

func TestClients(t *testing.T) {
	id := identity.NewClientID()
	gw := &fakeGateway{clients: []identity.ClientID{id}}
	srv := NewServer(gw)

	req := httptest.NewRequest(http.MethodGet, "/clients", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var ids []string
	if err := json.NewDecoder(rec.Body).Decode(&ids); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ids) != 1 || ids[0] != id.String() {
		t.Fatalf("got %v, want [%v]", ids, id)
	}
}
