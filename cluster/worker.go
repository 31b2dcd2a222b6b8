package cluster

import (
	"context"
	"errors"
	"fmt"

	"github.com/loomdata/loom/internal/exec"
	"github.com/loomdata/loom/internal/graph"
)

// ErrWorkerLost marks errors caused by losing contact with a worker, as
// opposed to errors raised by the task itself. Lost-worker failures are
// retried on other workers within the task's retry budget; task errors
// fail the computation immediately.
var ErrWorkerLost = errors.New("worker lost")

// InputUnavailableError is reported by a worker which could not obtain one
// of a task's inputs from any of its advertised locations, typically
// because the holding worker died. The coordinator responds by
// re-enqueueing the input task - operations are idempotent, so
// re-materializing an input is always safe.
type InputUnavailableError struct {
	Fingerprint uint64
}

// Error returns a textual representation of this InputUnavailableError
func (e InputUnavailableError) Error() string {
	return fmt.Sprintf("input %x is not resident at any advertised location", e.Fingerprint)
}

// InputRef locates one input of a task: the input task's fingerprint plus
// the workers its result is resident on
type InputRef struct {
	Fingerprint uint64   `json:"fp"`
	Locations   []string `json:"locations"`
}

// ExecuteRequest asks a worker to materialize one task's result into its
// local store
type ExecuteRequest struct {
	Fingerprint uint64          `json:"fp"`
	Op          graph.Operation `json:"op"`
	Inputs      []InputRef      `json:"inputs"`
}

// A Worker executes tasks and stores their results. Implementations are an
// in-process worker (the default) and an HTTP client for loom-worker
// processes; both interpret operations with the same executor.
type Worker interface {
	ID() string                                                 // ID returns this worker's identity, used in residency tracking
	Execute(ctx context.Context, req *ExecuteRequest) error     // Execute materializes a task's result into this worker's store
	Fetch(ctx context.Context, fp uint64) (*exec.Result, error) // Fetch retrieves a resident result
	Pin(ctx context.Context, fp uint64) error                   // Pin exempts a resident result from eviction
	Unpin(ctx context.Context, fp uint64) error                 // Unpin returns a pinned result to the evictable pool
	Reset(ctx context.Context) error                            // Reset drops all resident state
	Stop() error                                                // Stop shuts the worker down
}
