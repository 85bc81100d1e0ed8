package stress

import "time"

const (
	// churnInterval is the pause between a worker's create and delete,
	// bounding the churn rate per worker.
	churnInterval = 10 * time.Millisecond

	// defaultGracePeriod is how long the target gets to exit after a
	// graceful termination request before it is force-killed.
	defaultGracePeriod = 2 * time.Second

	// defaultJoinTimeout is the per-worker wait after stop is signaled.
	// Workers still alive afterwards are abandoned, not retried.
	defaultJoinTimeout = 2 * time.Second

	// DefaultDuration is the stress window applied to each target.
	DefaultDuration = 10 * time.Second
)
