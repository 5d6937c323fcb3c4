package cleanup

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/nimbus-silo/gateway/internal/gwtest"
	"github.com/nimbus-silo/gateway/internal/identity"
)

type fakeRegistry struct {
	called     int
	graceArg   time.Duration
	freedActor []identity.ActorID
}

func (f *fakeRegistry) DropDisconnectedClients(grace time.Duration) []identity.ActorID {
	f.called++
	f.graceArg = grace
	return f.freedActor
}

type fakeRouteCache struct {
	dropExpiredCalls int
}

func (f *fakeRouteCache) DropExpired() { f.dropExpiredCalls++ }

func TestAgent_SweepsOnEveryTick(t *testing.T) {
	reg := &fakeRegistry{}
	cache := &fakeRouteCache{}
	mc := &gwtest.FakeMessageCenter{}
	logger := slog.New(slog.DiscardHandler)

	agent := New(reg, cache, mc, 10*time.Millisecond, time.Minute, logger)
	agent.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = agent.Stop(ctx)
	}()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if reg.called >= 2 && cache.dropExpiredCalls >= 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if reg.called < 2 {
		t.Fatalf("expected at least 2 registry sweeps, got %d", reg.called)
	}
	if cache.dropExpiredCalls < 2 {
		t.Fatalf("expected at least 2 route cache sweeps, got %d", cache.dropExpiredCalls)
	}
	if reg.graceArg != time.Minute {
		t.Errorf("grace window not passed through: got %v", reg.graceArg)
	}
}

func TestAgent_NotifiesMessageCenterOnFreedActors(t *testing.T) {
	freed := []identity.ActorID{{Kind: identity.ActorKindClientAddressableObject, Key: "room-1"}}
	reg := &fakeRegistry{freedActor: freed}
	cache := &fakeRouteCache{}
	mc := &gwtest.FakeMessageCenter{}
	logger := slog.New(slog.DiscardHandler)

	agent := New(reg, cache, mc, 10*time.Millisecond, time.Minute, logger)
	agent.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = agent.Stop(ctx)
	}()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(mc.DroppedSets) > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if len(mc.DroppedSets) == 0 {
		t.Fatal("expected RecordClientDrop to be called with freed actors")
	}
	if mc.DroppedSets[0][0].Key != "room-1" {
		t.Errorf("unexpected freed actor reported: %v", mc.DroppedSets[0])
	}
}

func TestAgent_StopBeforeFirstTickReturnsNil(t *testing.T) {
	reg := &fakeRegistry{}
	cache := &fakeRouteCache{}
	mc := &gwtest.FakeMessageCenter{}
	logger := slog.New(slog.DiscardHandler)

	agent := New(reg, cache, mc, time.Hour, time.Minute, logger)
	agent.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := agent.Stop(ctx); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
}
