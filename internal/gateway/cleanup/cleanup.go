// Package cleanup implements the Cleanup Agent: a periodic
// sweep that evicts clients that have been disconnected past the grace
// window and drops expired reply-route cache entries.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/nimbus-silo/gateway/internal/identity"
	"github.com/nimbus-silo/gateway/internal/silo"
)

// Registry is the subset of the Registry the Cleanup Agent drives.
type Registry interface {
	DropDisconnectedClients(graceWindow time.Duration) []identity.ActorID
}

// RouteCache is the subset of the Reply-Route Cache the Cleanup Agent drives.
type RouteCache interface {
	DropExpired()
}

// Agent runs the periodic sweep: on each tick, first
// drop_disconnected_clients, then drop_expired — sequential within a tick,
// never concurrent with each other. The first takes the Registry's gateway
// lock; the route-cache sweep does not.
type Agent struct {
	registry      Registry
	routeCache    RouteCache
	messageCenter silo.MessageCenter
	interval      time.Duration
	graceWindow   time.Duration
	logger        *slog.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

func New(registry Registry, routeCache RouteCache, mc silo.MessageCenter, interval, graceWindow time.Duration, logger *slog.Logger) *Agent {
	return &Agent{
		registry:      registry,
		routeCache:    routeCache,
		messageCenter: mc,
		interval:      interval,
		graceWindow:   graceWindow,
		logger:        logger,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

// Start launches the ticker loop in its own goroutine.
func (a *Agent) Start() {
	go a.run()
}

// Stop signals the loop to exit and waits for it to do so.
func (a *Agent) Stop(ctx context.Context) error {
	close(a.stopCh)
	select {
	case <-a.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Agent) run() {
	defer close(a.doneCh)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopCh:
			return
		case <-ticker.C:
			a.sweep()
		}
	}
}

func (a *Agent) sweep() {
	freed := a.registry.DropDisconnectedClients(a.graceWindow)
	if len(freed) > 0 {
		a.logger.Info("CLEANUP_CLIENTS_DROPPED", slog.Int("actors_freed", len(freed)))
		if err := a.messageCenter.RecordClientDrop(context.Background(), freed); err != nil {
			a.logger.Warn("CLEANUP_DROP_NOTIFY_FAILED", slog.Any("err", err))
		}
	}

	a.routeCache.DropExpired()
}
