// Package stats tracks scheduling statistics for a Session, used for
// logging at job end and for asserting execution-sharing behavior in
// tests.
package stats

import "sync/atomic"

// RunStatistics counts scheduler activity. All counters are cumulative
// over the life of a Session; callers interested in a single computation
// take a Snapshot before and after.
type RunStatistics struct {
	tasksDispatched uint64
	tasksRetried    uint64
	tasksReused     uint64
	tasksCompleted  uint64
	bytesFetched    uint64
}

// Snapshot is a point-in-time copy of a RunStatistics
type Snapshot struct {
	TasksDispatched uint64
	TasksRetried    uint64
	TasksReused     uint64
	TasksCompleted  uint64
	BytesFetched    uint64
}

// IncDispatched records a task handed to a worker
func (s *RunStatistics) IncDispatched() {
	atomic.AddUint64(&s.tasksDispatched, 1)
}

// IncRetried records a task re-dispatched after a worker loss
func (s *RunStatistics) IncRetried() {
	atomic.AddUint64(&s.tasksRetried, 1)
}

// IncReused records a task satisfied by an already-resident result
func (s *RunStatistics) IncReused() {
	atomic.AddUint64(&s.tasksReused, 1)
}

// IncCompleted records a task completed successfully
func (s *RunStatistics) IncCompleted() {
	atomic.AddUint64(&s.tasksCompleted, 1)
}

// AddBytesFetched records result bytes moved between nodes
func (s *RunStatistics) AddBytesFetched(n uint64) {
	atomic.AddUint64(&s.bytesFetched, n)
}

// Snapshot returns a consistent copy of the current counters
func (s *RunStatistics) Snapshot() Snapshot {
	return Snapshot{
		TasksDispatched: atomic.LoadUint64(&s.tasksDispatched),
		TasksRetried:    atomic.LoadUint64(&s.tasksRetried),
		TasksReused:     atomic.LoadUint64(&s.tasksReused),
		TasksCompleted:  atomic.LoadUint64(&s.tasksCompleted),
		BytesFetched:    atomic.LoadUint64(&s.bytesFetched),
	}
}
