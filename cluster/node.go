// Package cluster implements loom's execution layer: Sessions own the
// computation Graph and the Cluster State, and a single-writer coordinator
// schedules tasks onto workers. Workers only execute operations and report
// back; they never mutate scheduling state, which keeps coordination free
// of distributed locking at the cost of a coordinator bottleneck bounded
// by dispatch throughput.
package cluster

import (
	"time"
)

// SessionOptions configures a Session
type SessionOptions struct {
	NumWorkers      int           // the number of in-process workers to start. Ignored if RemoteWorkers is set. Defaults to 2.
	RemoteWorkers   []string      // base URLs of loom-worker processes to connect to instead of in-process workers
	MaxInFlight     int64         // the maximum number of concurrently executing tasks per worker. Defaults to 4.
	MaxRetries      int           // how many times a task may be rescheduled after a worker loss before the computation fails. Defaults to 3.
	CacheSize       int           // unpinned result entries each in-process worker retains. Defaults to 1024.
	CollectionLimit int64         // the maximum number of target results fetched to the client concurrently. Defaults to 8.
	RPCTimeout      time.Duration // per-call timeout for remote workers. Defaults to 30s.
	ShowProgress    bool          // display a progress bar over completed tasks during Compute
}

func ensureDefaultSessionOptionsValues(opts *SessionOptions) {
	if opts.NumWorkers < 1 {
		opts.NumWorkers = 2
	}
	if opts.MaxInFlight < 1 {
		opts.MaxInFlight = 4
	}
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 3
	}
	if opts.CacheSize < 1 {
		opts.CacheSize = 1024
	}
	if opts.CollectionLimit < 1 {
		opts.CollectionLimit = 8
	}
	if opts.RPCTimeout == 0 {
		opts.RPCTimeout = 30 * time.Second
	}
}
