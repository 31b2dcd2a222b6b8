package cluster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/loomdata/loom/internal/exec"
	"github.com/loomdata/loom/internal/stats"
)

// remoteWorker drives a loom-worker process over HTTP. Its ID is the
// worker's base URL, which doubles as the location other workers use to
// fetch results from it. Transport-level failures are reported as
// ErrWorkerLost so the coordinator retries elsewhere; errors raised by the
// task itself come back as HTTP 500 and fail the computation.
type remoteWorker struct {
	base   string
	client *http.Client
	stats  *stats.RunStatistics
}

func createRemoteWorker(base string, timeout time.Duration, tracker *stats.RunStatistics) *remoteWorker {
	return &remoteWorker{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: timeout},
		stats:  tracker,
	}
}

// ID returns this worker's base URL
func (w *remoteWorker) ID() string {
	return w.base
}

// Execute asks the remote process to materialize a task's result
func (w *remoteWorker) Execute(ctx context.Context, req *ExecuteRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.base+"/execute", bytes.NewReader(body))
	if err != nil {
		return err
	}
	hreq.Header.Set("Content-Type", "application/json")
	resp, err := w.client.Do(hreq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWorkerLost, err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusConflict:
		fp, rerr := readFingerprint(resp)
		if rerr != nil {
			return fmt.Errorf("%w: malformed conflict response: %v", ErrWorkerLost, rerr)
		}
		return InputUnavailableError{Fingerprint: fp}
	default:
		msg, _ := ioutil.ReadAll(resp.Body)
		return fmt.Errorf("worker %s: %s", w.base, strings.TrimSpace(string(msg)))
	}
}

// Fetch retrieves a resident result from the remote process
func (w *remoteWorker) Fetch(ctx context.Context, fp uint64) (*exec.Result, error) {
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, w.resultURL(fp), nil)
	if err != nil {
		return nil, err
	}
	resp, err := w.client.Do(hreq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkerLost, err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		body, err := ioutil.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrWorkerLost, err)
		}
		if w.stats != nil {
			w.stats.AddBytesFetched(uint64(len(body)))
		}
		return exec.ResultFromBytes(body)
	case http.StatusNotFound:
		return nil, InputUnavailableError{Fingerprint: fp}
	default:
		msg, _ := ioutil.ReadAll(resp.Body)
		return nil, fmt.Errorf("worker %s: %s", w.base, strings.TrimSpace(string(msg)))
	}
}

// Pin exempts a resident result from eviction on the remote process
func (w *remoteWorker) Pin(ctx context.Context, fp uint64) error {
	return w.post(ctx, fmt.Sprintf("%s/pin/%x", w.base, fp))
}

// Unpin returns a pinned result to the remote process's evictable pool
func (w *remoteWorker) Unpin(ctx context.Context, fp uint64) error {
	return w.post(ctx, fmt.Sprintf("%s/unpin/%x", w.base, fp))
}

// Reset drops all resident state on the remote process
func (w *remoteWorker) Reset(ctx context.Context) error {
	return w.post(ctx, w.base+"/reset")
}

// Stop releases the client. The remote process outlives its Sessions; its
// lifecycle belongs to whoever started it.
func (w *remoteWorker) Stop() error {
	w.client.CloseIdleConnections()
	return nil
}

func (w *remoteWorker) resultURL(fp uint64) string {
	return fmt.Sprintf("%s/results/%x", w.base, fp)
}

func (w *remoteWorker) post(ctx context.Context, url string) error {
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}
	resp, err := w.client.Do(hreq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWorkerLost, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := ioutil.ReadAll(resp.Body)
		return fmt.Errorf("worker %s: %s", w.base, strings.TrimSpace(string(msg)))
	}
	return nil
}

func readFingerprint(resp *http.Response) (uint64, error) {
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	var payload struct {
		Fingerprint string `json:"fp"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, err
	}
	return strconv.ParseUint(payload.Fingerprint, 16, 64)
}
