// Package senderpool implements the fixed-size pool of sender workers:
// P independent agents, each owning an MPSC intake queue of
// message.OutgoingItem, each driving one client socket at a time through a
// drain-then-send discipline.
package senderpool

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/nimbus-silo/gateway/internal/gateway/registry"
	"github.com/nimbus-silo/gateway/internal/identity"
	"github.com/nimbus-silo/gateway/internal/message"
	"github.com/nimbus-silo/gateway/internal/silo"
	"github.com/nimbus-silo/gateway/internal/transport"
)

// DefaultIntakeSize is the per-worker channel capacity New uses when it is
// given an intakeSize below 1.
const DefaultIntakeSize = 256

// Pool is the fixed-size Sender Pool. It implements
// registry.WakeupEnqueuer so the Registry can ask it to wake a client's
// assigned worker on reconnect without depending on this package directly.
type Pool struct {
	workers []*worker
}

// New constructs a Pool of `size` workers (config gateway_sender_queues).
// size must match the pool size the Registry was constructed with, since
// sender_index assignment is round-robin over [0, size).
func New(size, intakeSize int, reg *registry.Registry, ser transport.Serializer, mc silo.MessageCenter, logger *slog.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	if intakeSize < 1 {
		intakeSize = DefaultIntakeSize
	}

	p := &Pool{workers: make([]*worker, size)}
	for i := range p.workers {
		p.workers[i] = newWorker(i, intakeSize, reg, ser, mc, logger)
	}
	return p
}

// BindRegistry wires the Registry into every worker after construction.
// New and the Registry have a mutual dependency (the pool is the
// Registry's WakeupEnqueuer; each worker resolves ClientIDs via the
// Registry) — New is called with a nil Registry and this closes the loop
// once both exist. Must be called before Start.
func (p *Pool) BindRegistry(reg *registry.Registry) {
	for _, w := range p.workers {
		w.registry = reg
	}
}

// Start launches all P worker loops.
func (p *Pool) Start() {
	for _, w := range p.workers {
		go w.run()
	}
}

// Stop signals every worker to exit. Items still sitting in a worker's
// intake queue at this point are dropped.
func (p *Pool) Stop(ctx context.Context) error {
	g, _ := errgroup.WithContext(ctx)
	for _, w := range p.workers {
		w := w
		g.Go(func() error {
			close(w.stopCh)
			return nil
		})
	}
	return g.Wait()
}

// EnqueueWakeup implements registry.WakeupEnqueuer.
func (p *Pool) EnqueueWakeup(senderIndex int, client identity.ClientID) {
	p.workers[senderIndex].enqueue(message.Wakeup(client))
}

// QueueRequest enqueues a single message for one client:
// (client_state.id, message) on senders[client_state.sender_index].
func (p *Pool) QueueRequest(state *registry.ClientState, msg *message.Message) {
	p.workers[state.SenderIndex].enqueue(message.Single(state.ID, msg))
}

// QueueBatch enqueues a batch of messages for one client. All messages
// must share state's ClientID.
func (p *Pool) QueueBatch(state *registry.ClientState, msgs []*message.Message) {
	p.workers[state.SenderIndex].enqueue(message.Batch(state.ID, msgs))
}

// WorkerStats is a point-in-time snapshot of one worker's counters, used by
// the admin HTTP surface and the CLI dashboard.
type WorkerStats struct {
	Index      int   `json:"index"`
	QueueDepth int   `json:"queue_depth"`
	Sent       int64 `json:"sent"`
	Dropped    int64 `json:"dropped"`
}

// Stats returns a snapshot across every worker.
func (p *Pool) Stats() []WorkerStats {
	out := make([]WorkerStats, len(p.workers))
	for i, w := range p.workers {
		out[i] = WorkerStats{
			Index:      w.index,
			QueueDepth: w.queueDepth(),
			Sent:       w.sent.Load(),
			Dropped:    w.dropped.Load(),
		}
	}
	return out
}

// Size reports the configured pool size P.
func (p *Pool) Size() int { return len(p.workers) }
