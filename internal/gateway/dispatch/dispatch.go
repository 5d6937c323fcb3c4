// Package dispatch implements the Gateway's delivery entry points:
// TryDeliverToProxy, the entry point for messages the silo wants
// delivered to a locally-proxied client; TryDeliverBatchToProxy, its
// batched counterpart; and TryToReroute, which answers "what Gateway is
// this client attached to" for a sibling Gateway relaying a reply.
package dispatch

import (
	"github.com/nimbus-silo/gateway/internal/gateway/registry"
	"github.com/nimbus-silo/gateway/internal/gateway/routecache"
	"github.com/nimbus-silo/gateway/internal/gateway/senderpool"
	"github.com/nimbus-silo/gateway/internal/identity"
	"github.com/nimbus-silo/gateway/internal/message"
)

// Dispatch wires the Registry, Reply-Route Cache, and Sender Pool together
// to deliver messages to proxied clients and reroute their replies.
type Dispatch struct {
	registry       *registry.Registry
	routeCache     *routecache.Cache
	senderPool     *senderpool.Pool
	gatewayAddress identity.SiloAddress
}

func New(reg *registry.Registry, cache *routecache.Cache, pool *senderpool.Pool, gatewayAddress identity.SiloAddress) *Dispatch {
	return &Dispatch{
		registry:       reg,
		routeCache:     cache,
		senderPool:     pool,
		gatewayAddress: gatewayAddress,
	}
}

// TryDeliverToProxy implements try_deliver_to_proxy.
func (d *Dispatch) TryDeliverToProxy(msg *message.Message) bool {
	state, ok := d.registry.LookupProxiedActor(msg.Target)
	if !ok {
		return false
	}

	if !d.registry.ConfirmProxiedActor(msg.Target, state) {
		return false
	}

	if msg.IsClientGrainRequest() {
		d.routeCache.RecordRoute(msg.GrainClient, msg.SendingSilo)
	}

	// Rewrite: clients only see the Gateway identity, never arbitrary
	// silos.
	msg.TargetSilo = identity.None
	msg.SendingSilo = d.gatewayAddress

	d.senderPool.QueueRequest(state, msg)
	return true
}

// TryDeliverBatchToProxy is the batch counterpart of TryDeliverToProxy: it
// resolves each message's proxied client the same way (lookup, then
// confirm under the gateway lock), applies the same reply-route-recording
// and silo-address rewrite to every message that resolves, then regroups
// the resolved messages back into one batch per client with
// message.BatchByClient before handing each group to the Sender Pool via
// Pool.QueueBatch. Messages whose target actor is not currently proxied
// are returned to the caller instead of being queued, so it can fall back
// to per-message handling (e.g. a synthesized rejection) for those.
func (d *Dispatch) TryDeliverBatchToProxy(msgs []*message.Message) (undelivered []*message.Message) {
	states := make(map[identity.ClientID]*registry.ClientState, len(msgs))
	targets := make([]identity.ClientID, 0, len(msgs))
	resolved := make([]*message.Message, 0, len(msgs))

	for _, msg := range msgs {
		state, ok := d.registry.LookupProxiedActor(msg.Target)
		if !ok || !d.registry.ConfirmProxiedActor(msg.Target, state) {
			undelivered = append(undelivered, msg)
			continue
		}

		if msg.IsClientGrainRequest() {
			d.routeCache.RecordRoute(msg.GrainClient, msg.SendingSilo)
		}

		// Rewrite: clients only see the Gateway identity, never arbitrary
		// silos.
		msg.TargetSilo = identity.None
		msg.SendingSilo = d.gatewayAddress

		states[state.ID] = state
		targets = append(targets, state.ID)
		resolved = append(resolved, msg)
	}

	for _, item := range message.BatchByClient(targets, resolved) {
		d.senderPool.QueueBatch(states[item.Target], item.Batch)
	}
	return undelivered
}

// TryToReroute implements try_to_reroute: applies only to
// (client_addressable_object -> client_grain) responses.
func (d *Dispatch) TryToReroute(msg *message.Message) (identity.SiloAddress, bool) {
	if !msg.IsClientAddressableObjectResponse() {
		return identity.None, false
	}
	return d.routeCache.TryFindRoute(msg.GrainClient)
}
