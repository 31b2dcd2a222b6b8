// Package graph implements loom's content-addressed computation DAG.
// Tasks are deduplicated by fingerprint (hash-consing): applying the same
// operation to the same inputs within one Graph always returns the same
// *Task, which is what lets a combined computation share sub-results
// between targets.
package graph

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/loomdata/loom/errors"
)

// Task is a node in the computation graph: an Operation applied to the
// results of its input Tasks. Two Tasks with identical fingerprints within
// one Graph are the same object.
type Task struct {
	fp     uint64
	op     Operation
	inputs []*Task
	graph  *Graph
}

// Fingerprint returns the content hash identifying this Task
func (t *Task) Fingerprint() uint64 {
	return t.fp
}

// Name returns a short printable identifier for this Task
func (t *Task) Name() string {
	return fmt.Sprintf("%s-%x", t.op.Kind, t.fp)
}

// Op returns this Task's operation descriptor
func (t *Task) Op() Operation {
	return t.op
}

// Inputs returns this Task's input Tasks, in declaration order
func (t *Task) Inputs() []*Task {
	return t.inputs
}

// Graph returns the Graph this Task belongs to
func (t *Task) Graph() *Graph {
	return t.graph
}

// Graph is the set of all live Tasks for one Session epoch. It is acyclic
// by construction (a Task's inputs must exist before the Task does) and
// deduplicated by fingerprint.
type Graph struct {
	mu        sync.Mutex
	tasks     map[uint64]*Task
	rootRefs  map[uint64]int
	dedupHits uint64
}

// NewGraph creates an empty Graph
func NewGraph() *Graph {
	return &Graph{
		tasks:    make(map[uint64]*Task),
		rootRefs: make(map[uint64]int),
	}
}

// Apply records an Operation over input Tasks, returning the resulting
// Task. If a Task with the same fingerprint already exists in this Graph,
// the existing Task is returned instead. Inputs belonging to another Graph
// (stale handles held across a Session restart) fail with a
// GraphConstructionError.
func (g *Graph) Apply(op Operation, inputs ...*Task) (*Task, error) {
	for _, in := range inputs {
		if in == nil {
			return nil, errors.GraphConstructionError{Reason: "nil input task"}
		}
		if in.graph != g {
			return nil, errors.GraphConstructionError{
				Reason: fmt.Sprintf("input task %s belongs to an expired graph (was the session restarted?)", in.Name()),
			}
		}
	}
	fp := fingerprint(op, inputs)
	g.mu.Lock()
	defer g.mu.Unlock()
	if existing, ok := g.tasks[fp]; ok {
		g.dedupHits++
		return existing, nil
	}
	t := &Task{fp: fp, op: op, inputs: inputs, graph: g}
	g.tasks[fp] = t
	return t, nil
}

// fingerprint computes a content hash from an operation's canonical
// encoding and the fingerprints of its inputs
func fingerprint(op Operation, inputs []*Task) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(op.Kind)
	_, _ = d.Write([]byte{0})
	for _, a := range op.Attrs {
		_, _ = d.WriteString(a.Key)
		_, _ = d.Write([]byte{1})
		_, _ = d.WriteString(a.Value)
		_, _ = d.Write([]byte{0})
	}
	var buf [8]byte
	for _, in := range inputs {
		binary.LittleEndian.PutUint64(buf[:], in.fp)
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

// NumTasks returns the number of live Tasks in this Graph
func (g *Graph) NumTasks() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.tasks)
}

// DedupHits returns the number of Apply calls which returned an existing
// Task instead of creating a new one
func (g *Graph) DedupHits() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dedupHits
}

// Handle is a client reference keeping a Task (and its ancestors)
// reachable. Tasks unreachable from any Handle are garbage-collected.
type Handle struct {
	graph   *Graph
	task    *Task
	release sync.Once
}

// NewHandle registers a client reference to a Task
func (g *Graph) NewHandle(t *Task) *Handle {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rootRefs[t.fp]++
	return &Handle{graph: g, task: t}
}

// Task returns the Task this Handle refers to
func (h *Handle) Task() *Task {
	return h.task
}

// Release drops this Handle's reference. When the last Handle to a Task is
// released, the Task and any ancestors not reachable from other Handles
// are removed from the Graph. Release is idempotent.
func (h *Handle) Release() {
	h.release.Do(func() {
		g := h.graph
		g.mu.Lock()
		defer g.mu.Unlock()
		g.rootRefs[h.task.fp]--
		if g.rootRefs[h.task.fp] <= 0 {
			delete(g.rootRefs, h.task.fp)
		}
		g.sweepLocked()
	})
}

// sweepLocked removes Tasks unreachable from any held Handle. Callers must
// hold g.mu.
func (g *Graph) sweepLocked() {
	live := make(map[uint64]bool, len(g.rootRefs))
	var mark func(t *Task)
	mark = func(t *Task) {
		if live[t.fp] {
			return
		}
		live[t.fp] = true
		for _, in := range t.inputs {
			mark(in)
		}
	}
	for fp := range g.rootRefs {
		if t, ok := g.tasks[fp]; ok {
			mark(t)
		}
	}
	for fp := range g.tasks {
		if !live[fp] {
			delete(g.tasks, fp)
		}
	}
}

// TopoOrder returns the closure of the target Tasks in a valid execution
// order: every Task appears after all of its inputs. Order is
// deterministic for a given target list.
func TopoOrder(targets []*Task) []*Task {
	seen := make(map[uint64]bool)
	order := make([]*Task, 0, len(targets))
	var visit func(t *Task)
	visit = func(t *Task) {
		if seen[t.fp] {
			return
		}
		seen[t.fp] = true
		for _, in := range t.inputs {
			visit(in)
		}
		order = append(order, t)
	}
	for _, t := range targets {
		visit(t)
	}
	return order
}
