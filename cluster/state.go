package cluster

// clusterState tracks which task results are resident on which workers,
// and which of them are pinned. It is owned by the Session and only
// mutated under the Session mutex or from the coordinator goroutine, so
// it carries no locking of its own.
type clusterState struct {
	resident map[uint64]map[string]bool // fingerprint -> worker IDs holding the result
	pinned   map[uint64]bool            // fingerprints exempted from eviction via Persist
}

func newClusterState() *clusterState {
	return &clusterState{
		resident: make(map[uint64]map[string]bool),
		pinned:   make(map[uint64]bool),
	}
}

// addResident records that workerID now holds the result for fp
func (s *clusterState) addResident(fp uint64, workerID string) {
	locs, ok := s.resident[fp]
	if !ok {
		locs = make(map[string]bool)
		s.resident[fp] = locs
	}
	locs[workerID] = true
}

// dropWorker forgets all residency for a lost worker
func (s *clusterState) dropWorker(workerID string) {
	for fp, locs := range s.resident {
		delete(locs, workerID)
		if len(locs) == 0 {
			delete(s.resident, fp)
		}
	}
}

// locations returns the workers holding fp, in no particular order
func (s *clusterState) locations(fp uint64) []string {
	locs := s.resident[fp]
	if len(locs) == 0 {
		return nil
	}
	out := make([]string, 0, len(locs))
	for id := range locs {
		out = append(out, id)
	}
	return out
}

// isResident returns true if at least one worker holds fp
func (s *clusterState) isResident(fp uint64) bool {
	return len(s.resident[fp]) > 0
}

// pin marks fp as exempt from eviction
func (s *clusterState) pin(fp uint64) {
	s.pinned[fp] = true
}

// unpin removes an eviction exemption
func (s *clusterState) unpin(fp uint64) {
	delete(s.pinned, fp)
}

// isPinned returns true if fp is pinned
func (s *clusterState) isPinned(fp uint64) bool {
	return s.pinned[fp]
}

// sweepUnpinned forgets residency of every result that is not pinned.
// Called at the boundary of each computation: workers may evict unpinned
// cache entries at any time, so their residency is only trusted within the
// run that produced them. Pinned entries are eviction-exempt and stay
// authoritative across runs.
func (s *clusterState) sweepUnpinned() {
	for fp := range s.resident {
		if !s.pinned[fp] {
			delete(s.resident, fp)
		}
	}
}

// reset forgets all residency and pins
func (s *clusterState) reset() {
	s.resident = make(map[uint64]map[string]bool)
	s.pinned = make(map[uint64]bool)
}
