package runner

import "sync"

const defaultMaxHistorySize = 100

// StateStore keeps the history of completed runs.
type StateStore interface {
	// Runs returns the stored runs, most recent first.
	Runs() []RunStatus
	// Save records a completed run.
	Save(RunStatus) error
}

// MemoryStore keeps run history in memory only, bounded to maxCount runs.
type MemoryStore struct {
	maxCount int
	runs     []RunStatus
	mu       sync.Mutex
}

// NewMemoryStore creates a new in-memory store. A maxCount of zero or less
// uses the default of 100.
func NewMemoryStore(maxCount int) *MemoryStore {
	if maxCount <= 0 {
		maxCount = defaultMaxHistorySize
	}
	return &MemoryStore{
		maxCount: maxCount,
		runs:     make([]RunStatus, 0),
	}
}

// Runs returns a copy of the stored runs, most recent first.
func (s *MemoryStore) Runs() []RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]RunStatus, len(s.runs))
	copy(result, s.runs)
	return result
}

// Save stores a run in memory, dropping the oldest once the limit is reached.
func (s *MemoryStore) Save(run RunStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Prepend to keep most recent first
	s.runs = append([]RunStatus{run}, s.runs...)
	if len(s.runs) > s.maxCount {
		s.runs = s.runs[:s.maxCount]
	}
	return nil
}
