// Package dashboard renders a live terminal view of Gateway occupancy:
// connected clients, route-cache size, and per-sender queue depth/sent/
// dropped counters.
package dashboard

import (
	"fmt"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/nimbus-silo/gateway/internal/gateway/senderpool"
	"github.com/nimbus-silo/gateway/internal/identity"
)

// Gateway is the subset of *gateway.Gateway the dashboard reads from.
type Gateway interface {
	GetConnectedClients() []identity.ClientID
	SenderStats() []senderpool.WorkerStats
	RouteCacheLen() int
}

// Run renders the dashboard, redrawing it every refresh interval, until the
// user presses q or Ctrl-C — callers are expected to run this on the main
// goroutine of a dedicated CLI subcommand.
func Run(gw Gateway, refresh time.Duration) error {
	if err := ui.Init(); err != nil {
		return fmt.Errorf("dashboard: init terminal ui: %w", err)
	}
	defer ui.Close()

	summary := widgets.NewParagraph()
	summary.Title = "Gateway"
	summary.SetRect(0, 0, 60, 4)

	table := widgets.NewTable()
	table.Title = "Sender Workers"
	table.SetRect(0, 4, 60, 20)
	table.RowSeparator = true

	render := func() {
		clients := gw.GetConnectedClients()
		summary.Text = fmt.Sprintf("connected clients: %d\nroute cache entries: %d", len(clients), gw.RouteCacheLen())

		stats := gw.SenderStats()
		rows := make([][]string, 0, len(stats)+1)
		rows = append(rows, []string{"idx", "queue", "sent", "dropped"})
		for _, s := range stats {
			rows = append(rows, []string{
				fmt.Sprintf("%d", s.Index),
				fmt.Sprintf("%d", s.QueueDepth),
				fmt.Sprintf("%d", s.Sent),
				fmt.Sprintf("%d", s.Dropped),
			})
		}
		table.Rows = rows

		ui.Render(summary, table)
	}

	render()

	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	events := ui.PollEvents()
	for {
		select {
		case e := <-events:
			switch e.ID {
			case "q", "<C-c>":
				return nil
			}
		case <-ticker.C:
			render()
		}
	}
}
