package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"strmsync/internal/gateway"
	"strmsync/internal/logging"
	"strmsync/internal/services"
)

// Tree is the remote tree snapshot built by one discovery walk. It is the
// ground truth both for pipeline dispatch and for the reconciliation pass
// that follows.
type Tree struct {
	root    string
	dirs    map[string][]gateway.Entry
	errored map[string]struct{}

	// rootAbsent is set when the gateway reported the root path itself as
	// nonexistent. Everything under the root is then proven absent, while the
	// local root directory stays protected by the reconciler.
	rootAbsent bool
}

// Root returns the remote root path the walk started from.
func (t *Tree) Root() string { return t.root }

// Entries returns the listing recorded for a remote directory path. The
// boolean is false when the directory was never successfully listed.
func (t *Tree) Entries(remotePath string) ([]gateway.Entry, bool) {
	entries, ok := t.dirs[path.Clean(remotePath)]
	return entries, ok
}

// Errored reports whether the listing for the path (or any of its ancestors
// inside the walk) failed. An errored directory can never be proven absent,
// so the reconciler must not bulk-delete its local counterpart.
func (t *Tree) Errored(remotePath string) bool {
	p := path.Clean(remotePath)
	for {
		if _, ok := t.errored[p]; ok {
			return true
		}
		if p == t.root || p == "/" || p == "." {
			return false
		}
		parent := path.Dir(p)
		if parent == p {
			return false
		}
		p = parent
	}
}

// ConfirmedAbsent reports whether the remote side proved the path does not
// exist: its nearest listed ancestor was fetched successfully and does not
// contain it. Paths under an errored listing are never confirmed absent.
func (t *Tree) ConfirmedAbsent(remotePath string) bool {
	p := path.Clean(remotePath)
	if _, listed := t.dirs[p]; listed {
		return false
	}
	if t.Errored(p) {
		return false
	}
	if t.rootAbsent {
		return p == t.root || strings.HasPrefix(p, t.root+"/")
	}
	// Walk up to the nearest listed ancestor and check membership of the
	// child segment on the way down.
	child := p
	parent := path.Dir(p)
	for parent != child {
		if entries, ok := t.dirs[parent]; ok {
			name := path.Base(child)
			for _, entry := range entries {
				if entry.IsDir && entry.Name == name {
					// The ancestor chain exists remotely but this subtree was
					// never listed; absence is not proven.
					return false
				}
			}
			return true
		}
		child = parent
		parent = path.Dir(parent)
	}
	return false
}

// DirPaths returns every successfully listed directory path.
func (t *Tree) DirPaths() []string {
	out := make([]string, 0, len(t.dirs))
	for p := range t.dirs {
		out = append(out, p)
	}
	return out
}

// Walker discovers the remote tree through the gateway listing API.
// Directories at the same depth are fetched concurrently up to the
// configured limit; each fetch is independent and a failure poisons only
// its own subtree.
type Walker struct {
	lister      gateway.Lister
	logger      *slog.Logger
	concurrency int
}

// NewWalker builds a discovery walker. Concurrency below one serializes the
// walk.
func NewWalker(lister gateway.Lister, concurrency int, logger *slog.Logger) *Walker {
	if logger == nil {
		logger = logging.NewNop()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Walker{
		lister:      lister,
		logger:      logger.With(logging.String(logging.FieldComponent, "discovery")),
		concurrency: concurrency,
	}
}

// Walk lists the remote tree rooted at root. A transport failure on the root
// itself is fatal; a root the gateway confirms nonexistent yields an
// absent-root snapshot so reconciliation can still clean up after it. A
// failure on any subdirectory is logged, recorded on the snapshot, and
// skipped.
func (w *Walker) Walk(ctx context.Context, root string) (*Tree, error) {
	root = path.Clean(root)
	tree := &Tree{
		root:    root,
		dirs:    make(map[string][]gateway.Entry),
		errored: make(map[string]struct{}),
	}

	rootEntries, err := w.lister.List(ctx, root)
	if errors.Is(err, gateway.ErrPathNotFound) {
		w.logger.Warn("remote root does not exist",
			logging.String(logging.FieldRemotePath, root))
		tree.rootAbsent = true
		return tree, nil
	}
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "discovery", "walk",
			"list remote root", err)
	}
	tree.dirs[root] = rootEntries

	var mu sync.Mutex
	pending := subdirPaths(root, rootEntries)
	for len(pending) > 0 {
		var next []string
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(w.concurrency)
		for _, dir := range pending {
			group.Go(func() error {
				entries, err := w.lister.List(groupCtx, dir)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					// Skip the subtree, keep walking everywhere else.
					tree.errored[dir] = struct{}{}
					w.logger.Warn("directory listing failed, skipping subtree",
						logging.String(logging.FieldRemotePath, dir),
						logging.Error(err))
					return nil
				}
				tree.dirs[dir] = entries
				next = append(next, subdirPaths(dir, entries)...)
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return nil, err
		}
		pending = next
	}
	return tree, nil
}

func subdirPaths(parent string, entries []gateway.Entry) []string {
	var out []string
	for _, entry := range entries {
		if !entry.IsDir {
			continue
		}
		if entry.Path != "" {
			out = append(out, path.Clean(entry.Path))
		} else {
			out = append(out, path.Join(parent, entry.Name))
		}
	}
	return out
}
