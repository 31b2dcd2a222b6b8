package cluster

import (
	"context"
	"sync"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/loomdata/loom/internal/graph"
	"github.com/loomdata/loom/internal/stats"
	logrus "github.com/sirupsen/logrus"
)

// Session owns a computation Graph and a pool of workers. All frames built
// against one Session share its Graph, which is what allows structurally
// identical pipelines to be fingerprint-deduplicated and executed once.
// Sessions are safe for concurrent use, but concurrent Computes serialize
// on the coordinator.
type Session struct {
	opts    *SessionOptions
	log     *logrus.Entry
	mu      sync.Mutex
	graph   *graph.Graph
	state   *clusterState
	workers []Worker
	byID    map[string]Worker
	dead    map[string]bool
	stats   *stats.RunStatistics
	closed  bool
}

// Connect starts a Session. With RemoteWorkers set, the Session drives
// that many loom-worker processes over HTTP; otherwise it starts
// opts.NumWorkers in-process workers.
func Connect(opts *SessionOptions) (*Session, error) {
	if opts == nil {
		opts = &SessionOptions{}
	}
	ensureDefaultSessionOptionsValues(opts)
	s := &Session{
		opts:  opts,
		log:   logrus.WithField("component", "session"),
		graph: graph.NewGraph(),
		state: newClusterState(),
		byID:  make(map[string]Worker),
		dead:  make(map[string]bool),
		stats: &stats.RunStatistics{},
	}
	if len(opts.RemoteWorkers) > 0 {
		for _, url := range opts.RemoteWorkers {
			w := createRemoteWorker(url, opts.RPCTimeout, s.stats)
			s.workers = append(s.workers, w)
			s.byID[w.ID()] = w
		}
	} else {
		resolve := func(loc string) (Worker, bool) {
			w, ok := s.byID[loc]
			return w, ok
		}
		for i := 0; i < opts.NumWorkers; i++ {
			w, err := createLocalWorker(opts.CacheSize, resolve)
			if err != nil {
				return nil, err
			}
			s.workers = append(s.workers, w)
			s.byID[w.ID()] = w
		}
	}
	s.log.WithField("workers", len(s.workers)).Info("session started")
	return s, nil
}

// Graph returns the Session's computation graph. New lazy operations are
// applied against it by the dataframe layer.
func (s *Session) Graph() *graph.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph
}

// Stats returns a snapshot of the Session's cumulative scheduling counters
func (s *Session) Stats() stats.Snapshot {
	return s.stats.Snapshot()
}

// Workers returns the live worker count
func (s *Session) Workers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workers) - len(s.dead)
}

// Restart discards the Session's graph and all worker-resident state,
// giving it a fresh epoch. Frames built before Restart become stale and
// fail graph construction if extended or computed.
func (s *Session) Restart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graph = graph.NewGraph()
	s.state.reset()
	var errs *multierror.Error
	for _, w := range s.workers {
		if s.dead[w.ID()] {
			continue
		}
		if err := w.Reset(ctx); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

// Close stops all workers. The Session is unusable afterwards.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	var errs *multierror.Error
	for _, w := range s.workers {
		if err := w.Stop(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

// Persist pins the given task results on every worker holding them, so
// later computations reuse them instead of recomputing. Tasks which have
// not been computed yet are pinned when they first materialize.
func (s *Session) Persist(ctx context.Context, fps ...uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs *multierror.Error
	for _, fp := range fps {
		s.state.pin(fp)
		for _, loc := range s.state.locations(fp) {
			if w, ok := s.byID[loc]; ok && !s.dead[loc] {
				if err := w.Pin(ctx, fp); err != nil {
					errs = multierror.Append(errs, err)
				}
			}
		}
	}
	return errs.ErrorOrNil()
}

// Release unpins previously persisted task results, returning them to the
// workers' evictable pools
func (s *Session) Release(ctx context.Context, fps ...uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs *multierror.Error
	for _, fp := range fps {
		s.state.unpin(fp)
		for _, loc := range s.state.locations(fp) {
			if w, ok := s.byID[loc]; ok && !s.dead[loc] {
				if err := w.Unpin(ctx, fp); err != nil {
					errs = multierror.Append(errs, err)
				}
			}
		}
	}
	return errs.ErrorOrNil()
}
