package pipeline

import (
	"sync"

	"strmsync/internal/gateway"
)

// Attribute keys stages use to hand intermediate results to later stages.
const (
	AttrDescriptor    = "classify.descriptor"     // classify.Descriptor
	AttrPendingDerive = "sidecar.pending_derive"  // []sidecar.Kind awaiting enrichment
	AttrLowConfidence = "classify.low_confidence" // bool
)

// Item is the per-entry processing context. It is created fresh for every
// discovered entry and discarded once the chain completes.
type Item struct {
	Entry    gateway.Entry
	Kind     EntryKind
	RelPath  string // path of the entry relative to the task's remote root
	SaveDir  string // local directory artifacts for this entry are written to
	Base     string // file name with the rename rule applied, extension stripped
	Siblings []gateway.Entry

	// Filtered is set by the filter stage; the dispatcher stops the chain
	// for filtered items.
	Filtered bool

	Attrs map[string]any

	Stats *RunStats
}

// SetAttr stores an intermediate value for later stages.
func (it *Item) SetAttr(key string, value any) {
	if it.Attrs == nil {
		it.Attrs = make(map[string]any)
	}
	it.Attrs[key] = value
}

// Attr reads an intermediate value; ok is false when the key was never set.
func (it *Item) Attr(key string) (any, bool) {
	v, ok := it.Attrs[key]
	return v, ok
}

// RunStats aggregates per-entry outcomes for one run. Safe for concurrent
// use; each run owns its own instance.
type RunStats struct {
	mu         sync.Mutex
	totalFiles int
	processed  int
	skipped    int
	failed     int
}

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	TotalFiles int `json:"total_files"`
	Processed  int `json:"processed"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

func (s *RunStats) record(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalFiles++
	switch status {
	case StatusSuccess:
		s.processed++
	case StatusSkipped:
		s.skipped++
	case StatusFailed:
		s.failed++
	}
}

// Snapshot copies the current counters.
func (s *RunStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsSnapshot{
		TotalFiles: s.totalFiles,
		Processed:  s.processed,
		Skipped:    s.skipped,
		Failed:     s.failed,
	}
}
