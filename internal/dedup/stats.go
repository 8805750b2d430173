package dedup

import (
	"sync"
	"time"
)

// Stats aggregates skip-check outcomes for one run. Each run owns its own
// aggregate; counters are never shared across concurrently executing tasks.
// All methods are safe for concurrent use.
type Stats struct {
	mu           sync.Mutex
	totalChecked int
	skipped      int
	downloaded   int
	bytesSaved   int64
	hashTime     time.Duration
}

// Snapshot is a point-in-time copy of the aggregate.
type Snapshot struct {
	TotalChecked int           `json:"total_checked"`
	Skipped      int           `json:"skipped"`
	Downloaded   int           `json:"downloaded"`
	BytesSaved   int64         `json:"bytes_saved"`
	HashTimeMS   int64         `json:"hash_time_ms"`
	HashTime     time.Duration `json:"-"`
}

// NewStats returns an empty run-scoped aggregate.
func NewStats() *Stats { return &Stats{} }

func (s *Stats) recordSkip(bytes int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalChecked++
	s.skipped++
	s.bytesSaved += bytes
}

func (s *Stats) recordDownload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalChecked++
	s.downloaded++
}

func (s *Stats) recordHashTime(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashTime += d
}

// Snapshot copies the current counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		TotalChecked: s.totalChecked,
		Skipped:      s.skipped,
		Downloaded:   s.downloaded,
		BytesSaved:   s.bytesSaved,
		HashTimeMS:   s.hashTime.Milliseconds(),
		HashTime:     s.hashTime,
	}
}
