package senderpool

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/nimbus-silo/gateway/internal/gateway/registry"
	"github.com/nimbus-silo/gateway/internal/message"
	"github.com/nimbus-silo/gateway/internal/silo"
	"github.com/nimbus-silo/gateway/internal/transport"
)

// worker is one of the P fixed sender workers. It owns an
// intake queue of message.OutgoingItem and drives exactly one client
// socket at a time through the drain-then-send discipline; every client
// whose sender_index equals this worker's index funnels all of its traffic
// through here, which gives single-writer access to that client's pending
// queues and socket.
type worker struct {
	index  int
	intake chan message.OutgoingItem
	stopCh chan struct{}

	registry      *registry.Registry
	serializer    transport.Serializer
	messageCenter silo.MessageCenter
	logger        *slog.Logger

	sent    atomic.Int64
	dropped atomic.Int64
}

func newWorker(index, intakeSize int, reg *registry.Registry, ser transport.Serializer, mc silo.MessageCenter, logger *slog.Logger) *worker {
	return &worker{
		index:         index,
		intake:        make(chan message.OutgoingItem, intakeSize),
		stopCh:        make(chan struct{}),
		registry:      reg,
		serializer:    ser,
		messageCenter: mc,
		logger:        logger.With(slog.Int("sender_index", index)),
	}
}

func (w *worker) enqueue(item message.OutgoingItem) {
	select {
	case w.intake <- item:
	case <-w.stopCh:
		// Pool is shutting down; items offered after Stop are dropped
		// rather than blocking the caller forever.
	}
}

func (w *worker) queueDepth() int { return len(w.intake) }

// run is the worker's cooperative loop. On an unexpected panic it restarts
// with empty in-flight state but preserves the ClientState queues, which
// live in the registry rather than in the worker.
func (w *worker) run() {
	for {
		select {
		case <-w.stopCh:
			return
		case item, ok := <-w.intake:
			if !ok {
				return
			}
			w.safeHandle(item)
		}
	}
}

func (w *worker) safeHandle(item message.OutgoingItem) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("SENDER_WORKER_PANIC_RECOVERED", slog.Any("panic", r))
		}
	}()
	w.handle(item)
}

func (w *worker) cancelled() bool {
	select {
	case <-w.stopCh:
		return true
	default:
		return false
	}
}

func (w *worker) handle(item message.OutgoingItem) {
	state, ok := w.registry.Lookup(item.Target)
	if !ok {
		w.handleUnknownClient(item)
		return
	}

	switch item.Kind {
	case message.OutgoingWakeup:
		w.drainSingles(state)
		w.drainBatches(state)
	case message.OutgoingSingle:
		w.processSingle(state, item.Single)
	case message.OutgoingBatch:
		w.processBatch(state, item.Batch)
	}
}

// handleUnknownClient handles an item addressed to a client the registry
// no longer knows about: requests get a synthesized unrecoverable
// rejection, non-requests are just counted as dropped.
func (w *worker) handleUnknownClient(item message.OutgoingItem) {
	reject := func(m *message.Message) {
		if m.Kind != message.KindRequest {
			w.dropped.Add(1)
			return
		}
		rej := message.Rejection{
			Target:        m.Sender,
			Reason:        fmt.Sprintf("unknown client %s", item.Target),
			Unrecoverable: true,
		}
		if err := w.messageCenter.SendRejection(context.Background(), rej); err != nil {
			w.logger.Info("UNKNOWN_CLIENT_REJECTION_SEND_FAILED", slog.Any("err", err))
		}
	}

	switch item.Kind {
	case message.OutgoingSingle:
		reject(item.Single)
	case message.OutgoingBatch:
		for _, m := range item.Batch {
			reject(m)
		}
	case message.OutgoingWakeup:
		// Nothing to deliver; an unrecognized client has no pending state.
	}
}

func (w *worker) processSingle(state *registry.ClientState, msg *message.Message) {
	if !state.Connected() {
		state.PendingSingles = append(state.PendingSingles, msg)
		return
	}
	if len(state.PendingSingles) > 0 {
		state.PendingSingles = append(state.PendingSingles, msg)
		w.drainSingles(state)
		return
	}
	if !w.sendSingle(state, msg) {
		state.PendingSingles = append(state.PendingSingles, msg)
	}
}

// drainSingles walks pending_singles peek→send→pop while sends succeed,
// stopping on the first failure and leaving unsent messages in place.
func (w *worker) drainSingles(state *registry.ClientState) {
	for len(state.PendingSingles) > 0 {
		if w.cancelled() {
			return
		}
		head := state.PendingSingles[0]
		if !w.sendSingle(state, head) {
			return
		}
		state.PendingSingles = state.PendingSingles[1:]
	}
}

// sendSingle returns true when msg should be considered handled (sent, or
// dropped due to a serialization failure) and false when it must remain
// queued for a later retry (a transport send failure).
func (w *worker) sendSingle(state *registry.ClientState, msg *message.Message) bool {
	socket := state.Socket()
	if socket == nil {
		return false
	}

	buffers, _, err := w.serializer.Serialize(msg)
	if err != nil {
		w.logger.Warn("SERIALIZATION_FAILED", slog.String("msg_id", msg.ID), slog.Any("err", err))
		w.dropped.Add(1)
		return true
	}

	var want int64
	for _, b := range buffers {
		want += int64(len(b))
	}

	n, err := socket.Send(buffers)
	if err != nil || n != want {
		w.logger.Warn("SEND_FAILED", slog.String("client", state.ID.String()), slog.Any("err", err))
		w.registry.RecordClosedSocket(socket)
		_ = socket.Close()
		return false
	}

	w.sent.Add(1)
	return true
}

func (w *worker) processBatch(state *registry.ClientState, msgs []*message.Message) {
	if !state.Connected() {
		state.PendingBatches = append(state.PendingBatches, msgs)
		return
	}
	if len(state.PendingBatches) > 0 {
		state.PendingBatches = append(state.PendingBatches, msgs)
		w.drainBatches(state)
		return
	}
	if !w.sendBatch(state, msgs) {
		state.PendingBatches = append(state.PendingBatches, msgs)
	}
}

func (w *worker) drainBatches(state *registry.ClientState) {
	for len(state.PendingBatches) > 0 {
		if w.cancelled() {
			return
		}
		head := state.PendingBatches[0]
		if !w.sendBatch(state, head) {
			return
		}
		state.PendingBatches = state.PendingBatches[1:]
	}
}

func (w *worker) sendBatch(state *registry.ClientState, msgs []*message.Message) bool {
	socket := state.Socket()
	if socket == nil {
		return false
	}

	buffers, _, err := w.serializer.SerializeBatch(msgs)
	if err != nil {
		w.logger.Warn("BATCH_SERIALIZATION_FAILED", slog.Int("count", len(msgs)), slog.Any("err", err))
		w.dropped.Add(int64(len(msgs)))
		return true
	}

	var want int64
	for _, b := range buffers {
		want += int64(len(b))
	}

	n, err := socket.Send(buffers)
	if err != nil || n != want {
		w.logger.Warn("BATCH_SEND_FAILED", slog.String("client", state.ID.String()), slog.Any("err", err))
		w.registry.RecordClosedSocket(socket)
		_ = socket.Close()
		return false
	}

	w.sent.Add(int64(len(msgs)))
	return true
}
