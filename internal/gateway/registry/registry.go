package registry

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/nimbus-silo/gateway/internal/identity"
	"github.com/nimbus-silo/gateway/internal/silo"
	"github.com/nimbus-silo/gateway/internal/transport"
)

// WakeupEnqueuer is the Sender Pool's half of the reconnect handshake: the
// Registry asks it to enqueue a wake-up item so the client's assigned
// worker inspects and drains pending queues.
type WakeupEnqueuer interface {
	EnqueueWakeup(senderIndex int, client identity.ClientID)
}

// Registry is the authoritative client table plus its two derived indexes.
// One gateway lock ("mu") serializes all multi-table
// mutations and the round-robin counter; the two derived indexes are
// sync.Map so their hot-path reads (dispatch's by_proxied_actor lookup, the
// fast-path by_socket lookup in RecordSendingProxiedGrain) never block on
// that lock.
type Registry struct {
	mu       sync.Mutex
	clients  map[identity.ClientID]*ClientState
	nextIdx  int
	poolSize int

	bySocket        sync.Map // transport.SocketHandle -> *ClientState
	byProxiedActor  sync.Map // identity.ActorID -> *ClientState

	observer silo.ClientObserverRegistrar
	sender   WakeupEnqueuer

	connectedClients atomic.Int64
}

// New constructs a Registry for a Sender Pool of the given size.
func New(poolSize int, observer silo.ClientObserverRegistrar, sender WakeupEnqueuer) *Registry {
	if poolSize < 1 {
		poolSize = 1
	}
	return &Registry{
		clients:  make(map[identity.ClientID]*ClientState),
		poolSize: poolSize,
		observer: observer,
		sender:   sender,
	}
}

// RecordOpenedSocket implements record_opened_socket.
func (r *Registry) RecordOpenedSocket(socket transport.SocketHandle, clientID identity.ClientID) {
	r.mu.Lock()

	state, known := r.clients[clientID]
	if known {
		if old := state.attachSocket(socket); old != nil {
			r.bySocket.Delete(old)
		}
		r.bySocket.Store(socket, state)
		r.mu.Unlock()

		r.sender.EnqueueWakeup(state.SenderIndex, clientID)
		r.observer.ClientAdded(clientID)
		return
	}

	idx := r.nextIdx
	r.nextIdx = (r.nextIdx + 1) % r.poolSize
	state = NewClientState(clientID, idx)
	state.attachSocket(socket)
	r.clients[clientID] = state
	r.bySocket.Store(socket, state)
	r.mu.Unlock()

	r.connectedClients.Add(1)
	r.observer.ClientAdded(clientID)
}

// RecordClosedSocket implements record_closed_socket.
func (r *Registry) RecordClosedSocket(socket transport.SocketHandle) {
	val, ok := r.bySocket.Load(socket)
	if !ok {
		return
	}
	state := val.(*ClientState)

	r.mu.Lock()
	r.bySocket.Delete(socket)
	state.detachSocket(socket)
	r.mu.Unlock()
}

// RecordProxiedGrain implements record_proxied_grain.
func (r *Registry) RecordProxiedGrain(actor identity.ActorID, clientID identity.ClientID) {
	r.mu.Lock()
	state, ok := r.clients[clientID]
	r.mu.Unlock()
	if !ok {
		return
	}
	r.byProxiedActor.Store(actor, state)
}

// RecordSendingProxiedGrain implements record_sending_proxied_grain: a
// lock-free fast path keyed off the socket index. Losing the race against
// a concurrent close simply yields "actor not proxied here", which is an
// acceptable degrade.
func (r *Registry) RecordSendingProxiedGrain(actor identity.ActorID, socket transport.SocketHandle) {
	val, ok := r.bySocket.Load(socket)
	if !ok {
		return
	}
	r.byProxiedActor.Store(actor, val.(*ClientState))
}

// RecordUnproxiedGrain implements record_unproxied_grain.
func (r *Registry) RecordUnproxiedGrain(actor identity.ActorID) {
	r.byProxiedActor.Delete(actor)
}

// LookupProxiedActor is the lock-free fast path dispatch uses.
func (r *Registry) LookupProxiedActor(actor identity.ActorID) (*ClientState, bool) {
	val, ok := r.byProxiedActor.Load(actor)
	if !ok {
		return nil, false
	}
	return val.(*ClientState), true
}

// ConfirmProxiedActor is the double-checked-under-lock half of dispatch's
// second check: it reports whether state is still the
// registry's current, live entry for clientID, evicting the stale
// by_proxied_actor entry if not.
func (r *Registry) ConfirmProxiedActor(actor identity.ActorID, state *ClientState) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.clients[state.ID]
	if !ok || current != state {
		r.byProxiedActor.Delete(actor)
		return false
	}
	return true
}

// Lookup returns the ClientState for a known client (used by the Sender
// Pool to resolve a ClientID to its state before processing an item).
func (r *Registry) Lookup(clientID identity.ClientID) (*ClientState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.clients[clientID]
	return state, ok
}

// ConnectedClients implements get_connected_clients.
func (r *Registry) ConnectedClients() []identity.ClientID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]identity.ClientID, 0, len(r.clients))
	for id := range r.clients {
		out = append(out, id)
	}
	return out
}

// ConnectedCount reports the connected-clients statistic.
func (r *Registry) ConnectedCount() int64 { return r.connectedClients.Load() }

// DropDisconnectedClients implements drop_disconnected_clients.
// It returns the ActorIDs freed by dropped clients, for the caller to
// report to the silo message center outside the lock.
func (r *Registry) DropDisconnectedClients(graceWindow time.Duration) []identity.ActorID {
	now := time.Now()

	r.mu.Lock()
	var toDrop []*ClientState
	for _, state := range r.clients {
		since, disconnected := state.DisconnectedSince()
		if disconnected && now.Sub(since) >= graceWindow {
			toDrop = append(toDrop, state)
		}
	}

	var freed []identity.ActorID
	for _, state := range toDrop {
		delete(r.clients, state.ID)
		if s := state.Socket(); s != nil {
			r.bySocket.Delete(s)
		}
	}
	r.mu.Unlock()

	if len(toDrop) == 0 {
		return nil
	}

	dropped := make(map[identity.ClientID]bool, len(toDrop))
	for _, state := range toDrop {
		dropped[state.ID] = true
	}

	r.byProxiedActor.Range(func(key, value any) bool {
		state := value.(*ClientState)
		if dropped[state.ID] {
			freed = append(freed, key.(identity.ActorID))
			r.byProxiedActor.Delete(key)
		}
		return true
	})

	for _, state := range toDrop {
		if s := state.Socket(); s != nil {
			_ = s.Close()
		}
		r.connectedClients.Add(-1)
		r.observer.ClientDropped(state.ID)
	}

	return freed
}
