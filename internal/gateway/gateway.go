// Package gateway assembles the Registry, Reply-Route Cache, Sender Pool,
// Dispatch, Connection Events adapter, and Cleanup Agent into the single
// component a silo instance embeds to multiplex client connections across
// a fixed worker pool.
package gateway

import (
	"context"
	"log/slog"

	"github.com/nimbus-silo/gateway/internal/gateway/cleanup"
	"github.com/nimbus-silo/gateway/internal/gateway/dispatch"
	"github.com/nimbus-silo/gateway/internal/gateway/events"
	"github.com/nimbus-silo/gateway/internal/gateway/registry"
	"github.com/nimbus-silo/gateway/internal/gateway/routecache"
	"github.com/nimbus-silo/gateway/internal/gateway/senderpool"
	"github.com/nimbus-silo/gateway/internal/identity"
	"github.com/nimbus-silo/gateway/internal/message"
	"github.com/nimbus-silo/gateway/internal/silo"
	"github.com/nimbus-silo/gateway/internal/transport"
)

// Gateway is the silo-facing façade.
type Gateway struct {
	cfg config

	Registry   *registry.Registry
	RouteCache *routecache.Cache
	SenderPool *senderpool.Pool
	Dispatch   *dispatch.Dispatch
	Events     *events.Events
	Cleanup    *cleanup.Agent
}

// New wires every Gateway subcomponent together. serializer, messageCenter
// and observer are the external collaborators the Gateway talks to.
func New(
	serializer transport.Serializer,
	messageCenter silo.MessageCenter,
	observer silo.ClientObserverRegistrar,
	logger *slog.Logger,
	opts ...Option,
) *Gateway {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	pool := senderpool.New(cfg.senderQueues, cfg.senderIntakeSize, nil, serializer, messageCenter, logger)
	reg := registry.New(cfg.senderQueues, observer, pool)
	// The pool needed the Registry to resolve a ClientID to its ClientState
	// on every intake item, and the Registry needed the pool as its
	// WakeupEnqueuer — a genuine cycle, broken here by
	// constructing the pool with a nil Registry and back-filling it once
	// both exist.
	pool.BindRegistry(reg)

	routeCache := routecache.New(cfg.routeCacheTTL)

	address := identity.SiloAddress(cfg.address)
	d := dispatch.New(reg, routeCache, pool, address)

	ev := events.New(reg, logger)

	cleanupAgent := cleanup.New(reg, routeCache, messageCenter, cfg.cleanupInterval, cfg.graceWindow, logger)

	return &Gateway{
		cfg:        cfg,
		Registry:   reg,
		RouteCache: routeCache,
		SenderPool: pool,
		Dispatch:   d,
		Events:     ev,
		Cleanup:    cleanupAgent,
	}
}

// Start launches the Sender Pool workers and the Cleanup Agent.
func (g *Gateway) Start() {
	g.SenderPool.Start()
	g.Cleanup.Start()
}

// Stop drains both background components. Items still queued in a sender's
// intake channel are dropped.
func (g *Gateway) Stop(ctx context.Context) error {
	if err := g.Cleanup.Stop(ctx); err != nil {
		return err
	}
	return g.SenderPool.Stop(ctx)
}

// TryDeliverToProxy implements try_deliver_to_proxy.
func (g *Gateway) TryDeliverToProxy(msg *message.Message) bool {
	return g.Dispatch.TryDeliverToProxy(msg)
}

// TryDeliverBatchToProxy implements process_batch's delivery half: the
// batched counterpart of TryDeliverToProxy.
func (g *Gateway) TryDeliverBatchToProxy(msgs []*message.Message) []*message.Message {
	return g.Dispatch.TryDeliverBatchToProxy(msgs)
}

// TryToReroute implements try_to_reroute.
func (g *Gateway) TryToReroute(msg *message.Message) (identity.SiloAddress, bool) {
	return g.Dispatch.TryToReroute(msg)
}

// GetConnectedClients implements get_connected_clients.
func (g *Gateway) GetConnectedClients() []identity.ClientID {
	return g.Registry.ConnectedClients()
}

// RecordProxiedGrain implements record_proxied_grain.
func (g *Gateway) RecordProxiedGrain(actor identity.ActorID, client identity.ClientID) {
	g.Registry.RecordProxiedGrain(actor, client)
}

// RecordUnproxiedGrain implements record_unproxied_grain.
func (g *Gateway) RecordUnproxiedGrain(actor identity.ActorID) {
	g.Registry.RecordUnproxiedGrain(actor)
}

// RecordSendingProxiedGrain implements record_sending_proxied_grain.
func (g *Gateway) RecordSendingProxiedGrain(actor identity.ActorID, socket transport.SocketHandle) {
	g.Registry.RecordSendingProxiedGrain(actor, socket)
}

// SenderStats reports a snapshot of every sender worker's counters, for the
// admin HTTP surface and CLI dashboard.
func (g *Gateway) SenderStats() []senderpool.WorkerStats {
	return g.SenderPool.Stats()
}

// RouteCacheLen reports the Reply-Route Cache's current entry count.
func (g *Gateway) RouteCacheLen() int {
	return g.RouteCache.Len()
}
