// Package reconcile removes local artifacts whose remote source vanished. It
// runs after the sync pass on incremental tasks, walking the local tree
// depth-first and testing membership against the remote snapshot from the
// same run.
package reconcile

import (
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"strmsync/internal/gateway"
	"strmsync/internal/logging"
	"strmsync/internal/sidecar"
	"strmsync/internal/strm"
)

// Snapshot is the view of the remote tree the reconciler needs. The pipeline
// discovery walk produces the canonical implementation.
type Snapshot interface {
	// Entries returns the listing for a remote path; false when the path was
	// never successfully listed.
	Entries(remotePath string) ([]gateway.Entry, bool)
	// Errored reports whether the listing for the path or an ancestor
	// failed. Errored paths can never be proven empty or absent.
	Errored(remotePath string) bool
	// ConfirmedAbsent reports whether the remote side proved the path does
	// not exist.
	ConfirmedAbsent(remotePath string) bool
}

// CleanupCounts summarizes one reconciliation pass.
type CleanupCounts struct {
	StrmDeleted     int `json:"strm_deleted"`
	SidecarsDeleted int `json:"sidecars_deleted"`
	DirsDeleted     int `json:"dirs_deleted"`
	Errors          int `json:"errors"`
}

// Reconciler deletes orphaned STRM artifacts, their sidecars, and emptied
// directories. The configured task root is never deleted.
type Reconciler struct {
	rename *strm.RenameRule
	logger *slog.Logger
}

// New builds a reconciler. The rename rule, when present, participates in
// membership tests in both directions.
func New(rename *strm.RenameRule, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reconciler{
		rename: rename,
		logger: logger.With(logging.String(logging.FieldComponent, "reconcile")),
	}
}

// Reconcile walks the local artifact tree rooted at localRoot post-order,
// deleting artifacts absent from the remote snapshot. remoteRoot is the
// task's remote root path the local root mirrors.
func (r *Reconciler) Reconcile(localRoot, remoteRoot string, snapshot Snapshot) CleanupCounts {
	counts := CleanupCounts{}
	r.reconcileDir(localRoot, path.Clean(remoteRoot), true, snapshot, &counts)
	return counts
}

func (r *Reconciler) reconcileDir(localDir, remotePath string, isRoot bool, snapshot Snapshot, counts *CleanupCounts) {
	// A directory whose listing errored cannot be proven empty or absent;
	// leave its whole subtree for the next successful run.
	if snapshot.Errored(remotePath) {
		r.logger.Debug("skipping errored directory",
			logging.String(logging.FieldRemotePath, remotePath))
		return
	}

	remoteEntries, listed := snapshot.Entries(remotePath)
	if !listed {
		if !isRoot && snapshot.ConfirmedAbsent(remotePath) {
			// A vanished remote directory is treated as intentionally
			// removed: the local subtree goes in one delete.
			if err := os.RemoveAll(localDir); err != nil {
				r.logFailure("remove vanished subtree", localDir, err, counts)
				return
			}
			counts.DirsDeleted++
			return
		}
		if !isRoot {
			// Absence is not proven; keep the subtree.
			return
		}
		// The remote root itself is gone. The root directory survives, its
		// children are cleaned file-by-file against an empty listing.
		remoteEntries = nil
	}

	localEntries, err := os.ReadDir(localDir)
	if err != nil {
		r.logFailure("read local directory", localDir, err, counts)
		return
	}

	// Subdirectories first: post-order.
	for _, entry := range localEntries {
		if entry.IsDir() {
			r.reconcileDir(
				filepath.Join(localDir, entry.Name()),
				path.Join(remotePath, entry.Name()),
				false, snapshot, counts)
		}
	}

	for _, entry := range localEntries {
		if entry.IsDir() || !strm.IsArtifact(entry.Name()) {
			continue
		}
		base := sidecar.Stem(entry.Name())
		if r.remoteHasBase(base, remoteEntries) {
			continue
		}
		r.deleteArtifact(localDir, base, localEntries, counts)
	}

	if !isRoot {
		r.pruneIfEmpty(localDir, counts)
	}
}

// remoteHasBase tests whether any remote video entry produces the given
// artifact base name. The forward check mirrors exactly how the sync pass
// derives bases, so a sanitized or renamed artifact still matches its
// remote source; the reverse rename check covers rules changed between
// runs. Never fuzzy, so a near-miss never deletes an artifact.
func (r *Reconciler) remoteHasBase(base string, remoteEntries []gateway.Entry) bool {
	for _, entry := range remoteEntries {
		if entry.IsDir || !sidecar.IsVideoFile(entry.Name) {
			continue
		}
		stem := sidecar.Stem(entry.Name)
		if stem == base || strm.ArtifactBase(r.rename, entry.Name) == base || r.rename.Apply(base) == stem {
			return true
		}
	}
	return false
}

// deleteArtifact removes the STRM file and every sidecar sharing its base.
func (r *Reconciler) deleteArtifact(localDir, base string, localEntries []os.DirEntry, counts *CleanupCounts) {
	strmPath := filepath.Join(localDir, strm.Name(base))
	if err := os.Remove(strmPath); err != nil {
		r.logFailure("delete orphan strm", strmPath, err, counts)
		return
	}
	counts.StrmDeleted++
	r.logger.Info("deleted orphan artifact", logging.String(logging.FieldLocalPath, strmPath))

	for _, entry := range localEntries {
		name := entry.Name()
		if entry.IsDir() || strm.IsArtifact(name) || !sharesBase(name, base) {
			continue
		}
		target := filepath.Join(localDir, name)
		if err := os.Remove(target); err != nil {
			r.logFailure("delete orphan sidecar", target, err, counts)
			continue
		}
		counts.SidecarsDeleted++
	}
}

// sharesBase reports whether a file belongs to the artifact with the given
// base name: same stem, or the stem plus one of the image suffixes.
func sharesBase(name, base string) bool {
	stem := sidecar.Stem(name)
	if stem == base {
		return true
	}
	for _, suffix := range []string{"-poster", "-fanart", "-thumb"} {
		if stem == base+suffix {
			return true
		}
	}
	return false
}

// pruneIfEmpty deletes a directory that holds no STRM artifacts and no
// subdirectories. Leftover show-level files (tvshow.nfo, poster.jpg) go with
// it.
func (r *Reconciler) pruneIfEmpty(localDir string, counts *CleanupCounts) {
	entries, err := os.ReadDir(localDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || strm.IsArtifact(entry.Name()) {
			return
		}
	}
	if err := os.RemoveAll(localDir); err != nil {
		r.logFailure("prune empty directory", localDir, err, counts)
		return
	}
	counts.DirsDeleted++
}

func (r *Reconciler) logFailure(op, target string, err error, counts *CleanupCounts) {
	counts.Errors++
	r.logger.Warn(op+" failed",
		logging.String(logging.FieldLocalPath, target),
		logging.Error(err))
}
