package pipeline

import "sync"

// Stats accumulates cycle results for the ops API.
type Stats struct {
	mu     sync.RWMutex
	totals Totals
	last   *CycleResult
}

type Totals struct {
	Cycles  int   `json:"cycles"`
	Fetched int   `json:"fetched"`
	Sent    int   `json:"sent"`
	Skipped int   `json:"skipped"`
	Failed  int   `json:"failed"`
	Purged  int64 `json:"purged"`
}

type Snapshot struct {
	Totals    Totals       `json:"totals"`
	LastCycle *CycleResult `json:"last_cycle"`
}

func (s *Stats) add(result CycleResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totals.Cycles++
	s.totals.Fetched += result.Fetched
	s.totals.Sent += result.Sent
	s.totals.Skipped += result.Skipped
	s.totals.Failed += result.Failed
	s.totals.Purged += result.Purged
	s.last = &result
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := Snapshot{Totals: s.totals}
	if s.last != nil {
		last := *s.last
		snapshot.LastCycle = &last
	}
	return snapshot
}
