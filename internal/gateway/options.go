package gateway

import "time"

// Option configures a Gateway at construction time.
type Option func(*config)

type config struct {
	senderQueues     int
	senderIntakeSize int
	graceWindow      time.Duration
	routeCacheTTL    time.Duration
	cleanupInterval  time.Duration
	address          string
}

func defaultConfig() config {
	return config{
		senderQueues:     8,
		senderIntakeSize: 256,
		graceWindow:      60 * time.Second,
		routeCacheTTL:    25 * time.Second,
		cleanupInterval:  5 * time.Second,
	}
}

// WithSenderQueues sets P, the fixed sender-pool size. It may only be set
// at construction time: sender_index assignment is round-robin over
// [0, P) and must stay stable for the Gateway's lifetime.
func WithSenderQueues(n int) Option {
	return func(c *config) { c.senderQueues = n }
}

// WithSenderIntakeSize sets the per-worker intake channel capacity.
func WithSenderIntakeSize(n int) Option {
	return func(c *config) { c.senderIntakeSize = n }
}

// WithGraceWindow sets how long a disconnected client's state survives
// before the Cleanup Agent drops it.
func WithGraceWindow(d time.Duration) Option {
	return func(c *config) { c.graceWindow = d }
}

// WithRouteCacheTTL sets the Reply-Route Cache's entry lifetime.
func WithRouteCacheTTL(d time.Duration) Option {
	return func(c *config) { c.routeCacheTTL = d }
}

// WithCleanupInterval sets how often the Cleanup Agent sweeps.
func WithCleanupInterval(d time.Duration) Option {
	return func(c *config) { c.cleanupInterval = d }
}

// WithAddress sets the SiloAddress this Gateway rewrites SendingSilo to
// once a message is accepted for local delivery.
func WithAddress(addr string) Option {
	return func(c *config) { c.address = addr }
}
