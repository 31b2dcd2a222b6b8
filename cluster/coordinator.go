package cluster

import (
	"context"
	stderrors "errors"
	"fmt"

	humanize "github.com/dustin/go-humanize"
	"github.com/loomdata/loom/errors"
	"github.com/loomdata/loom/internal/exec"
	"github.com/loomdata/loom/internal/graph"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	pb "gopkg.in/cheggaaa/pb.v1"
)

// pendingTask is the coordinator's per-run view of one graph Task
type pendingTask struct {
	task     *graph.Task
	pending  int // distinct inputs not yet materialized
	attempts int
	queued   bool
	inflight bool
	done     bool
}

// completion reports the outcome of one dispatched task back to the
// coordinator loop
type completion struct {
	pt     *pendingTask
	worker Worker
	err    error
}

// computeRun holds the scheduling state for a single Compute call. It is
// discarded when the call returns: only result residency and pins outlive
// a run, in the Session's clusterState.
type computeRun struct {
	sess        *Session
	needed      map[uint64]*pendingTask
	dependents  map[uint64][]*pendingTask
	ready       []*pendingTask // FIFO in order of becoming ready
	slots       map[string]*semaphore.Weighted
	inflight    int
	completions chan completion
	bar         *pb.ProgressBar
}

// Compute materializes the target Tasks across the Session's workers and
// fetches their results to the client. Targets must belong to the
// Session's current Graph. Within one call, fingerprint-identical tasks
// execute once; across calls only results pinned via Persist are reused
// without re-execution (re-executing a task whose result a worker still
// caches is an idempotent no-op on that worker).
func (s *Session) Compute(ctx context.Context, targets ...*graph.Task) ([]*exec.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("session is closed")
	}
	if len(targets) == 0 {
		return nil, nil
	}
	for _, t := range targets {
		if t.Graph() != s.graph {
			return nil, errors.GraphConstructionError{
				Reason: fmt.Sprintf("target task %s belongs to an expired graph (was the session restarted?)", t.Name()),
			}
		}
	}
	// residency of unpinned results is advisory within a single run only:
	// a worker may have evicted them since the run that produced them, and
	// un-persisted work must not leak between separate computations
	s.state.sweepUnpinned()
	r := &computeRun{
		sess:        s,
		needed:      make(map[uint64]*pendingTask),
		dependents:  make(map[uint64][]*pendingTask),
		slots:       make(map[string]*semaphore.Weighted),
		completions: make(chan completion),
	}
	for _, w := range s.workers {
		if !s.dead[w.ID()] {
			r.slots[w.ID()] = semaphore.NewWeighted(s.opts.MaxInFlight)
		}
	}
	order := graph.TopoOrder(targets)
	for _, t := range order {
		pt := &pendingTask{task: t}
		r.needed[t.Fingerprint()] = pt
		resident := s.state.isResident(t.Fingerprint())
		seen := make(map[uint64]bool)
		for _, in := range t.Inputs() {
			if seen[in.Fingerprint()] {
				continue
			}
			seen[in.Fingerprint()] = true
			r.dependents[in.Fingerprint()] = append(r.dependents[in.Fingerprint()], pt)
			if !resident && !r.needed[in.Fingerprint()].done {
				pt.pending++
			}
		}
		if resident {
			pt.done = true
			s.stats.IncReused()
		} else if pt.pending == 0 {
			r.enqueue(pt)
		}
	}
	if s.opts.ShowProgress {
		r.bar = pb.StartNew(len(order))
	}
	before := s.stats.Snapshot()
	if err := r.loop(ctx); err != nil {
		if r.bar != nil {
			r.bar.Finish()
		}
		return nil, err
	}
	if r.bar != nil {
		r.bar.Finish()
	}
	results, err := r.collect(ctx, targets)
	if err != nil {
		return nil, err
	}
	after := s.stats.Snapshot()
	s.log.WithField("tasks", after.TasksDispatched-before.TasksDispatched).
		WithField("reused", after.TasksReused-before.TasksReused).
		WithField("fetched", humanize.Bytes(after.BytesFetched-before.BytesFetched)).
		Debug("computation complete")
	return results, nil
}

// loop is the coordinator: a single goroutine which dispatches ready
// tasks, consumes completions, and mutates scheduling state. Workers never
// touch this state, so it needs no locking.
func (r *computeRun) loop(ctx context.Context) error {
	for {
		r.dispatchReady(ctx)
		if r.inflight == 0 {
			if len(r.ready) > 0 {
				return fmt.Errorf("no live workers remain for %d pending tasks", len(r.ready))
			}
			return nil
		}
		select {
		case c := <-r.completions:
			if err := r.handleCompletion(ctx, c); err != nil {
				r.drain()
				return err
			}
		case <-ctx.Done():
			r.drain()
			return ctx.Err()
		}
	}
}

// dispatchReady hands as many ready tasks to workers as backpressure
// allows, in FIFO order
func (r *computeRun) dispatchReady(ctx context.Context) {
	for i := 0; i < len(r.ready); {
		pt := r.ready[i]
		w := r.pickWorker(pt)
		if w == nil {
			i++
			continue
		}
		r.ready = append(r.ready[:i], r.ready[i+1:]...)
		pt.queued = false
		r.dispatch(ctx, pt, w)
	}
}

// pickWorker chooses a worker for a task, preferring the live worker
// holding the most of the task's inputs. Returns nil when every candidate
// is at its in-flight limit.
func (r *computeRun) pickWorker(pt *pendingTask) Worker {
	s := r.sess
	counts := make(map[string]int)
	for _, in := range pt.task.Inputs() {
		for _, loc := range s.state.locations(in.Fingerprint()) {
			counts[loc]++
		}
	}
	var best Worker
	bestCount := -1
	for _, w := range s.workers {
		id := w.ID()
		sem, ok := r.slots[id]
		if !ok || !sem.TryAcquire(1) {
			continue
		}
		if counts[id] > bestCount {
			if best != nil {
				r.slots[best.ID()].Release(1)
			}
			best = w
			bestCount = counts[id]
		} else {
			sem.Release(1)
		}
	}
	return best
}

// dispatch sends a task to a worker. The caller has already acquired a
// slot on the worker's semaphore; it is released when the completion is
// handled.
func (r *computeRun) dispatch(ctx context.Context, pt *pendingTask, w Worker) {
	req := &ExecuteRequest{
		Fingerprint: pt.task.Fingerprint(),
		Op:          pt.task.Op(),
	}
	for _, in := range pt.task.Inputs() {
		req.Inputs = append(req.Inputs, InputRef{
			Fingerprint: in.Fingerprint(),
			Locations:   r.sess.state.locations(in.Fingerprint()),
		})
	}
	pt.inflight = true
	r.inflight++
	r.sess.stats.IncDispatched()
	go func() {
		err := w.Execute(ctx, req)
		r.completions <- completion{pt: pt, worker: w, err: err}
	}()
}

// handleCompletion folds one task outcome back into the run state. A
// non-nil return aborts the computation.
func (r *computeRun) handleCompletion(ctx context.Context, c completion) error {
	s := r.sess
	r.inflight--
	c.pt.inflight = false
	if sem, ok := r.slots[c.worker.ID()]; ok {
		sem.Release(1)
	}
	if c.err == nil {
		if s.dead[c.worker.ID()] {
			// completed on a worker declared dead while the task was in
			// flight; the result is unreachable, so run it again elsewhere
			s.stats.IncRetried()
			r.requeue(c.pt)
			return nil
		}
		fp := c.pt.task.Fingerprint()
		s.state.addResident(fp, c.worker.ID())
		s.stats.IncCompleted()
		if r.bar != nil {
			r.bar.Increment()
		}
		if s.state.isPinned(fp) {
			if err := c.worker.Pin(ctx, fp); err != nil {
				s.log.WithError(err).WithField("task", c.pt.task.Name()).Warn("failed to pin persisted result")
			}
		}
		r.markDone(c.pt)
		return nil
	}
	var unavail InputUnavailableError
	if stderrors.As(c.err, &unavail) {
		// an input vanished between scheduling and execution; forget its
		// stale residency and recompute it before retrying this task
		s.log.WithField("task", c.pt.task.Name()).WithField("input", fmt.Sprintf("%x", unavail.Fingerprint)).
			Warn("input lost, recomputing")
		delete(s.state.resident, unavail.Fingerprint)
		s.stats.IncRetried()
		r.requeue(c.pt)
		return nil
	}
	if stderrors.Is(c.err, ErrWorkerLost) {
		s.log.WithError(c.err).WithField("worker", c.worker.ID()).Warn("worker lost")
		s.dead[c.worker.ID()] = true
		s.state.dropWorker(c.worker.ID())
		delete(r.slots, c.worker.ID())
		// results that lived only on the lost worker must be recomputed
		for _, pt := range r.needed {
			if pt.done && !s.state.isResident(pt.task.Fingerprint()) {
				r.revive(pt)
			}
		}
		c.pt.attempts++
		if c.pt.attempts > s.opts.MaxRetries {
			return errors.WorkerFailureError{Task: c.pt.task.Name(), Attempts: c.pt.attempts, Cause: c.err}
		}
		s.stats.IncRetried()
		r.requeue(c.pt)
		return nil
	}
	// the task itself failed; retrying elsewhere cannot help
	return fmt.Errorf("task %s: %w", c.pt.task.Name(), c.err)
}

// markDone records a materialized task and promotes dependents whose last
// input just resolved
func (r *computeRun) markDone(pt *pendingTask) {
	pt.done = true
	for _, d := range r.dependents[pt.task.Fingerprint()] {
		d.pending--
		if d.pending == 0 && !d.done && !d.queued && !d.inflight {
			r.enqueue(d)
		}
	}
}

// requeue re-enqueues a task after a recoverable failure, reviving any of
// its inputs that are no longer resident
func (r *computeRun) requeue(pt *pendingTask) {
	r.reviveLostInputs(pt)
	r.recount(pt)
	if pt.pending == 0 && !pt.queued {
		r.enqueue(pt)
	}
}

// revive returns a previously-done task to the pending pool after its
// result was lost, recursively reviving its own lost inputs. Dependents
// which already saw this task complete get their pending counts restored,
// so their promotion waits for the recomputation.
func (r *computeRun) revive(pt *pendingTask) {
	if !pt.done {
		return
	}
	pt.done = false
	r.reviveLostInputs(pt)
	r.recount(pt)
	for _, d := range r.dependents[pt.task.Fingerprint()] {
		if d.done || d.inflight {
			continue
		}
		r.recount(d)
		if d.queued && d.pending > 0 {
			r.unqueue(d)
		}
	}
	if pt.pending == 0 && !pt.queued && !pt.inflight {
		r.enqueue(pt)
	}
}

// reviveLostInputs revives any done input of a task whose result is no
// longer resident anywhere
func (r *computeRun) reviveLostInputs(pt *pendingTask) {
	seen := make(map[uint64]bool)
	for _, in := range pt.task.Inputs() {
		if seen[in.Fingerprint()] {
			continue
		}
		seen[in.Fingerprint()] = true
		inPt := r.needed[in.Fingerprint()]
		if inPt.done && !r.sess.state.isResident(in.Fingerprint()) {
			r.revive(inPt)
		}
	}
}

// recount recomputes a task's pending count from the current done state of
// its distinct inputs
func (r *computeRun) recount(pt *pendingTask) {
	pt.pending = 0
	seen := make(map[uint64]bool)
	for _, in := range pt.task.Inputs() {
		if seen[in.Fingerprint()] {
			continue
		}
		seen[in.Fingerprint()] = true
		if !r.needed[in.Fingerprint()].done {
			pt.pending++
		}
	}
}

func (r *computeRun) enqueue(pt *pendingTask) {
	pt.queued = true
	r.ready = append(r.ready, pt)
}

// unqueue pulls a not-yet-dispatched task back out of the ready queue
func (r *computeRun) unqueue(pt *pendingTask) {
	for i, q := range r.ready {
		if q == pt {
			r.ready = append(r.ready[:i], r.ready[i+1:]...)
			break
		}
	}
	pt.queued = false
}

// drain waits out in-flight tasks after an abort so their goroutines do
// not leak. Outcomes are discarded.
func (r *computeRun) drain() {
	for r.inflight > 0 {
		<-r.completions
		r.inflight--
	}
}

// collect fetches target results to the client, at most CollectionLimit
// concurrently
func (r *computeRun) collect(ctx context.Context, targets []*graph.Task) ([]*exec.Result, error) {
	s := r.sess
	sem := semaphore.NewWeighted(s.opts.CollectionLimit)
	results := make([]*exec.Result, len(targets))
	g, ctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		i, t := i, t
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			var lastErr error
			for _, loc := range s.state.locations(t.Fingerprint()) {
				w, ok := s.byID[loc]
				if !ok || s.dead[loc] {
					continue
				}
				res, err := w.Fetch(ctx, t.Fingerprint())
				if err != nil {
					lastErr = err
					continue
				}
				results[i] = res
				return nil
			}
			if lastErr == nil {
				lastErr = fmt.Errorf("result for %s is not resident on any live worker", t.Name())
			}
			return lastErr
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
