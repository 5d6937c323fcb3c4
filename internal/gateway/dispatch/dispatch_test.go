package dispatch

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/nimbus-silo/gateway/internal/gateway/registry"
	"github.com/nimbus-silo/gateway/internal/gateway/routecache"
	"github.com/nimbus-silo/gateway/internal/gateway/senderpool"
	"github.com/nimbus-silo/gateway/internal/gwtest"
	"github.com/nimbus-silo/gateway/internal/identity"
	"github.com/nimbus-silo/gateway/internal/message"
	"github.com/nimbus-silo/gateway/internal/silo"
	"github.com/nimbus-silo/gateway/internal/transport"
)

func newHarness(t *testing.T) (*Dispatch, *registry.Registry, *routecache.Cache) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	mc := &gwtest.FakeMessageCenter{}
	ser := transport.NewJSONSerializer()

	pool := senderpool.New(2, 16, nil, ser, mc, logger)
	reg := registry.New(2, silo.NoopRegistrar{}, pool)
	pool.BindRegistry(reg)
	pool.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = pool.Stop(ctx)
	})

	cache := routecache.New(time.Minute)
	d := New(reg, cache, pool, identity.SiloAddress("gateway-1"))
	return d, reg, cache
}

func TestTryDeliverToProxy_UnknownActorFails(t *testing.T) {
	d, _, _ := newHarness(t)

	target := identity.ActorID{Kind: identity.ActorKindClientAddressableObject, Key: "room-1"}
	msg := &message.Message{ID: "m1", Kind: message.KindRequest, Target: target}

	if d.TryDeliverToProxy(msg) {
		t.Fatal("expected delivery to fail for an unproxied actor")
	}
}

func TestTryDeliverToProxy_RewritesSiloAddresses(t *testing.T) {
	d, reg, _ := newHarness(t)

	clientID := identity.NewClientID()
	sock := gwtest.NewFakeSocket("peer")
	reg.RecordOpenedSocket(sock, clientID)

	target := identity.ActorID{Kind: identity.ActorKindClientAddressableObject, Key: "room-1"}
	reg.RecordProxiedGrain(target, clientID)

	msg := &message.Message{
		ID:          "m1",
		Kind:        message.KindRequest,
		Target:      target,
		SendingSilo: identity.SiloAddress("upstream-silo"),
		TargetSilo:  identity.SiloAddress("some-other-gateway"),
	}

	if !d.TryDeliverToProxy(msg) {
		t.Fatal("expected delivery to succeed for a proxied actor")
	}
	if msg.TargetSilo != identity.None {
		t.Errorf("TargetSilo not cleared: got %v", msg.TargetSilo)
	}
	if msg.SendingSilo != identity.SiloAddress("gateway-1") {
		t.Errorf("SendingSilo not rewritten to the Gateway's own address: got %v", msg.SendingSilo)
	}
}

func TestTryDeliverToProxy_RecordsReplyRouteForClientGrainRequest(t *testing.T) {
	d, reg, cache := newHarness(t)

	clientID := identity.NewClientID()
	reg.RecordOpenedSocket(gwtest.NewFakeSocket("peer"), clientID)

	target := identity.ActorID{Kind: identity.ActorKindClientAddressableObject, Key: "room-1"}
	reg.RecordProxiedGrain(target, clientID)

	grainClient := identity.NewClientID()
	msg := &message.Message{
		ID:          "m1",
		Kind:        message.KindRequest,
		Sender:      identity.ActorID{Kind: identity.ActorKindGrain, Key: "grain-1"},
		Target:      target,
		SendingSilo: identity.SiloAddress("origin-silo"),
		GrainClient: grainClient,
	}

	if !d.TryDeliverToProxy(msg) {
		t.Fatal("expected delivery to succeed")
	}

	addr, ok := cache.TryFindRoute(grainClient)
	if !ok || addr != identity.SiloAddress("origin-silo") {
		t.Fatalf("got (%v, %v), want (origin-silo, true)", addr, ok)
	}
}

func TestTryDeliverBatchToProxy_GroupsPerClientAndRewrites(t *testing.T) {
	d, reg, _ := newHarness(t)

	clientA := identity.NewClientID()
	sockA := gwtest.NewFakeSocket("peer-a")
	reg.RecordOpenedSocket(sockA, clientA)
	roomA := identity.ActorID{Kind: identity.ActorKindClientAddressableObject, Key: "room-a"}
	reg.RecordProxiedGrain(roomA, clientA)

	clientB := identity.NewClientID()
	sockB := gwtest.NewFakeSocket("peer-b")
	reg.RecordOpenedSocket(sockB, clientB)
	roomB := identity.ActorID{Kind: identity.ActorKindClientAddressableObject, Key: "room-b"}
	reg.RecordProxiedGrain(roomB, clientB)

	m1 := &message.Message{ID: "1", Kind: message.KindRequest, Target: roomA, SendingSilo: identity.SiloAddress("upstream")}
	m2 := &message.Message{ID: "2", Kind: message.KindRequest, Target: roomB, SendingSilo: identity.SiloAddress("upstream")}
	m3 := &message.Message{ID: "3", Kind: message.KindRequest, Target: roomA, SendingSilo: identity.SiloAddress("upstream")}

	undelivered := d.TryDeliverBatchToProxy([]*message.Message{m1, m2, m3})
	if len(undelivered) != 0 {
		t.Fatalf("expected every message to resolve, got undelivered: %+v", undelivered)
	}

	for _, m := range []*message.Message{m1, m2, m3} {
		if m.TargetSilo != identity.None || m.SendingSilo != identity.SiloAddress("gateway-1") {
			t.Errorf("message %s not rewritten: target=%v sending=%v", m.ID, m.TargetSilo, m.SendingSilo)
		}
	}

	waitFor(t, func() bool { return len(sockA.Sent()) == 1 && len(sockB.Sent()) == 1 })
}

func TestTryDeliverBatchToProxy_ReturnsUndeliveredForUnknownActor(t *testing.T) {
	d, reg, _ := newHarness(t)

	clientID := identity.NewClientID()
	reg.RecordOpenedSocket(gwtest.NewFakeSocket("peer"), clientID)
	known := identity.ActorID{Kind: identity.ActorKindClientAddressableObject, Key: "room-1"}
	reg.RecordProxiedGrain(known, clientID)

	unknown := identity.ActorID{Kind: identity.ActorKindClientAddressableObject, Key: "ghost"}

	ok := &message.Message{ID: "ok", Kind: message.KindRequest, Target: known}
	ghost := &message.Message{ID: "ghost", Kind: message.KindRequest, Target: unknown}

	undelivered := d.TryDeliverBatchToProxy([]*message.Message{ok, ghost})
	if len(undelivered) != 1 || undelivered[0] != ghost {
		t.Fatalf("expected only the unproxied message back, got %+v", undelivered)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestTryToReroute_OnlyAppliesToAddressableObjectResponses(t *testing.T) {
	d, _, cache := newHarness(t)

	grainClient := identity.NewClientID()
	cache.RecordRoute(grainClient, identity.SiloAddress("gateway-2"))

	request := &message.Message{
		Kind:        message.KindRequest,
		Sender:      identity.ActorID{Kind: identity.ActorKindClientAddressableObject, Key: "room-1"},
		Target:      identity.ActorID{Kind: identity.ActorKindGrain, Key: "grain-1"},
		GrainClient: grainClient,
	}
	if _, ok := d.TryToReroute(request); ok {
		t.Fatal("expected TryToReroute to ignore a request")
	}

	response := &message.Message{
		Kind:        message.KindResponse,
		Sender:      identity.ActorID{Kind: identity.ActorKindClientAddressableObject, Key: "room-1"},
		Target:      identity.ActorID{Kind: identity.ActorKindGrain, Key: "grain-1"},
		GrainClient: grainClient,
	}
	addr, ok := d.TryToReroute(response)
	if !ok || addr != identity.SiloAddress("gateway-2") {
		t.Fatalf("got (%v, %v), want (gateway-2, true)", addr, ok)
	}
}
