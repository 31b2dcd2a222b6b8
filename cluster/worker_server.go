package cluster

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/loomdata/loom/internal/pcache"
	logrus "github.com/sirupsen/logrus"
)

// WorkerServerOptions configures a WorkerServer
type WorkerServerOptions struct {
	AdvertiseURL string        // the base URL peers and coordinators reach this worker at
	CacheSize    int           // unpinned result entries retained. Defaults to 1024.
	RPCTimeout   time.Duration // per-call timeout for peer fetches. Defaults to 30s.
}

// WorkerServer exposes a worker over HTTP for loom-worker processes. It
// wraps an in-process worker whose ID is the advertised URL, so residency
// locations recorded by a remote coordinator resolve straight back to
// fetchable peers.
//
// Routes:
//
//	POST /execute      - materialize a task (JSON ExecuteRequest body)
//	GET  /results/{fp} - fetch a resident result (lz4-compressed gob)
//	POST /pin/{fp}     - exempt a result from eviction
//	POST /unpin/{fp}   - undo a pin
//	POST /reset        - drop all resident state
type WorkerServer struct {
	worker *localWorker
	log    *logrus.Entry
}

// NewWorkerServer creates a WorkerServer. The caller mounts it on an
// http.Server bound to the address AdvertiseURL points at.
func NewWorkerServer(opts *WorkerServerOptions) (*WorkerServer, error) {
	if opts.AdvertiseURL == "" {
		return nil, fmt.Errorf("worker server requires an advertise URL")
	}
	if opts.CacheSize < 1 {
		opts.CacheSize = 1024
	}
	if opts.RPCTimeout == 0 {
		opts.RPCTimeout = 30 * time.Second
	}
	advertise := strings.TrimRight(opts.AdvertiseURL, "/")
	cache, err := pcache.NewCache(opts.CacheSize)
	if err != nil {
		return nil, err
	}
	w := &localWorker{id: advertise, cache: cache}
	w.resolve = func(loc string) (Worker, bool) {
		if loc == advertise {
			return nil, false
		}
		return createRemoteWorker(loc, opts.RPCTimeout, nil), true
	}
	return &WorkerServer{
		worker: w,
		log:    logrus.WithField("component", "worker").WithField("url", advertise),
	}, nil
}

// ServeHTTP dispatches worker RPCs
func (s *WorkerServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/execute":
		s.handleExecute(w, r)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/results/"):
		s.handleFetch(w, r, strings.TrimPrefix(r.URL.Path, "/results/"))
	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/pin/"):
		s.handlePin(w, r, strings.TrimPrefix(r.URL.Path, "/pin/"), true)
	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/unpin/"):
		s.handlePin(w, r, strings.TrimPrefix(r.URL.Path, "/unpin/"), false)
	case r.Method == http.MethodPost && r.URL.Path == "/reset":
		if err := s.worker.Reset(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.log.Info("reset")
	default:
		http.NotFound(w, r)
	}
}

func (s *WorkerServer) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("malformed execute request: %v", err), http.StatusBadRequest)
		return
	}
	err := s.worker.Execute(r.Context(), &req)
	if err == nil {
		return
	}
	if unavail, ok := err.(InputUnavailableError); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"fp": fmt.Sprintf("%x", unavail.Fingerprint)})
		return
	}
	s.log.WithError(err).WithField("fp", fmt.Sprintf("%x", req.Fingerprint)).Error("task failed")
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func (s *WorkerServer) handleFetch(w http.ResponseWriter, r *http.Request, rawFP string) {
	fp, err := strconv.ParseUint(rawFP, 16, 64)
	if err != nil {
		http.Error(w, fmt.Sprintf("malformed fingerprint %q", rawFP), http.StatusBadRequest)
		return
	}
	res, err := s.worker.Fetch(r.Context(), fp)
	if err != nil {
		if _, ok := err.(InputUnavailableError); ok {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	body, err := res.ToBytes()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(body)
}

func (s *WorkerServer) handlePin(w http.ResponseWriter, r *http.Request, rawFP string, pin bool) {
	fp, err := strconv.ParseUint(rawFP, 16, 64)
	if err != nil {
		http.Error(w, fmt.Sprintf("malformed fingerprint %q", rawFP), http.StatusBadRequest)
		return
	}
	if pin {
		err = s.worker.Pin(r.Context(), fp)
	} else {
		err = s.worker.Unpin(r.Context(), fp)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
