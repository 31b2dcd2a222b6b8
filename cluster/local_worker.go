package cluster

import (
	"context"
	"fmt"

	uuid "github.com/gofrs/uuid"
	"github.com/loomdata/loom/internal/exec"
	"github.com/loomdata/loom/internal/pcache"
)

// localWorker executes tasks in-process. It fetches inputs it does not
// hold from peer workers through the resolver installed by its owner (the
// Session for in-process pools, the WorkerServer for remote processes).
type localWorker struct {
	id      string
	cache   *pcache.Cache
	resolve func(location string) (Worker, bool)
}

func createLocalWorker(cacheSize int, resolve func(string) (Worker, bool)) (*localWorker, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	cache, err := pcache.NewCache(cacheSize)
	if err != nil {
		return nil, err
	}
	return &localWorker{id: id.String(), cache: cache, resolve: resolve}, nil
}

// ID returns this worker's identity
func (w *localWorker) ID() string {
	return w.id
}

// Execute materializes a task's result into this worker's store. Execution
// is idempotent: if the result is already resident, Execute returns
// immediately.
func (w *localWorker) Execute(ctx context.Context, req *ExecuteRequest) error {
	w.cache.Lock(req.Fingerprint)
	defer w.cache.Unlock(req.Fingerprint)
	if _, ok := w.cache.Get(req.Fingerprint); ok {
		return nil
	}
	inputs := make([]*exec.Result, len(req.Inputs))
	for i, ref := range req.Inputs {
		in, err := w.materializeInput(ctx, ref)
		if err != nil {
			return err
		}
		inputs[i] = in
	}
	res, err := exec.Execute(ctx, req.Op, inputs)
	if err != nil {
		return err
	}
	w.cache.Put(req.Fingerprint, res)
	return nil
}

// materializeInput obtains an input result, from the local store if
// resident and from peers otherwise
func (w *localWorker) materializeInput(ctx context.Context, ref InputRef) (*exec.Result, error) {
	if v, ok := w.cache.Get(ref.Fingerprint); ok {
		return v.(*exec.Result), nil
	}
	for _, loc := range ref.Locations {
		if loc == w.id {
			continue
		}
		peer, ok := w.resolve(loc)
		if !ok {
			continue
		}
		res, err := peer.Fetch(ctx, ref.Fingerprint)
		if err != nil {
			continue
		}
		w.cache.Put(ref.Fingerprint, res)
		return res, nil
	}
	return nil, InputUnavailableError{Fingerprint: ref.Fingerprint}
}

// Fetch retrieves a resident result
func (w *localWorker) Fetch(ctx context.Context, fp uint64) (*exec.Result, error) {
	if v, ok := w.cache.Get(fp); ok {
		return v.(*exec.Result), nil
	}
	return nil, InputUnavailableError{Fingerprint: fp}
}

// Pin exempts a resident result from eviction
func (w *localWorker) Pin(ctx context.Context, fp uint64) error {
	if !w.cache.Pin(fp) {
		return fmt.Errorf("cannot pin %x: not resident", fp)
	}
	return nil
}

// Unpin returns a pinned result to the evictable pool
func (w *localWorker) Unpin(ctx context.Context, fp uint64) error {
	w.cache.Unpin(fp)
	return nil
}

// Reset drops all resident state
func (w *localWorker) Reset(ctx context.Context) error {
	w.cache.Purge()
	return nil
}

// Stop shuts the worker down
func (w *localWorker) Stop() error {
	w.cache.Purge()
	return nil
}
