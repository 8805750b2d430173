// Package dedup decides whether downloading a remote video can be skipped
// because an identical local copy already exists. It applies only to the
// main video copy path, never to sidecars.
package dedup

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"strmsync/internal/fileutil"
	"strmsync/internal/gateway"
	"strmsync/internal/logging"
)

// Result reports the outcome of a single skip check.
type Result struct {
	Matched     bool
	LocalExists bool
	Reason      string
}

// Comparator performs checksum comparisons between remote entries and local
// files. MaxSizeBytes bounds the worst-case hashing latency: local files
// larger than the ceiling are never hashed and always re-copied. A zero
// ceiling disables the bound.
type Comparator struct {
	algorithm    string
	maxSizeBytes int64
	logger       *slog.Logger
}

// NewComparator builds a comparator for the given hash algorithm (empty
// defaults to md5) and size ceiling.
func NewComparator(algorithm string, maxSizeBytes int64, logger *slog.Logger) *Comparator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Comparator{
		algorithm:    algorithm,
		maxSizeBytes: maxSizeBytes,
		logger:       logger.With(logging.String(logging.FieldComponent, "dedup")),
	}
}

// ShouldSkip reports whether the remote entry's bytes already exist at
// localPath. The rules err on the side of re-copying:
//
//   - local file absent: never skip.
//   - remote entry declares no checksum: never skip, equivalence cannot be
//     proven.
//   - local file larger than the configured ceiling: never hash, re-copy.
//   - otherwise the local content hash is compared case-insensitively to the
//     declared checksum.
//
// Every outcome is recorded into stats when a stats aggregate is supplied.
func (c *Comparator) ShouldSkip(entry gateway.Entry, localPath string, stats *Stats) Result {
	result := c.check(entry, localPath, stats)
	if stats != nil {
		if result.Matched {
			stats.recordSkip(entry.Size)
		} else {
			stats.recordDownload()
		}
	}
	return result
}

func (c *Comparator) check(entry gateway.Entry, localPath string, stats *Stats) Result {
	info, err := os.Stat(localPath)
	if err != nil {
		return Result{Reason: "local file absent"}
	}
	if entry.Checksum == "" {
		return Result{LocalExists: true, Reason: "remote checksum absent"}
	}
	if c.maxSizeBytes > 0 && info.Size() > c.maxSizeBytes {
		return Result{LocalExists: true, Reason: "local size exceeds hash ceiling"}
	}

	hashStart := time.Now()
	digest, err := fileutil.HashFile(localPath, c.algorithm)
	elapsed := time.Since(hashStart)
	if stats != nil {
		stats.recordHashTime(elapsed)
	}
	if err != nil {
		c.logger.Warn("hash local file failed",
			logging.String(logging.FieldLocalPath, localPath),
			logging.Error(err))
		return Result{LocalExists: true, Reason: "hash failed"}
	}

	if strings.EqualFold(digest, entry.Checksum) {
		return Result{Matched: true, LocalExists: true, Reason: "checksum match"}
	}
	return Result{LocalExists: true, Reason: "checksum mismatch"}
}
