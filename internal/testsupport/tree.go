package testsupport

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"testing"

	"strmsync/internal/gateway"
)

// RemoteTree is an in-memory gateway listing for tests. It satisfies
// gateway.Lister and gateway.Fetcher.
type RemoteTree struct {
	listings map[string][]gateway.Entry
	payloads map[string][]byte
	absent   map[string]struct{}
}

// NewRemoteTree builds an empty remote tree rooted at the given path.
func NewRemoteTree(root string) *RemoteTree {
	return &RemoteTree{
		listings: map[string][]gateway.Entry{path.Clean(root): nil},
		payloads: make(map[string][]byte),
		absent:   make(map[string]struct{}),
	}
}

// MarkAbsent makes listings of the path report gateway.ErrPathNotFound,
// simulating a directory the gateway confirms gone.
func (r *RemoteTree) MarkAbsent(dirPath string) *RemoteTree {
	dirPath = path.Clean(dirPath)
	delete(r.listings, dirPath)
	r.absent[dirPath] = struct{}{}
	return r
}

// AddDir registers a directory so it appears in its parent's listing and can
// hold entries of its own.
func (r *RemoteTree) AddDir(dirPath string) *RemoteTree {
	dirPath = path.Clean(dirPath)
	parent := path.Dir(dirPath)
	r.listings[parent] = append(r.listings[parent], gateway.Entry{
		Name:  path.Base(dirPath),
		Path:  dirPath,
		IsDir: true,
	})
	if _, ok := r.listings[dirPath]; !ok {
		r.listings[dirPath] = nil
	}
	return r
}

// AddFile registers a file entry with a signed URL and payload.
func (r *RemoteTree) AddFile(filePath string, entry gateway.Entry, payload []byte) *RemoteTree {
	filePath = path.Clean(filePath)
	entry.Name = path.Base(filePath)
	entry.Path = filePath
	if entry.SignedURL == "" {
		entry.SignedURL = "https://cdn.test" + filePath
	}
	parent := path.Dir(filePath)
	r.listings[parent] = append(r.listings[parent], entry)
	if payload != nil {
		r.payloads[entry.SignedURL] = payload
	}
	return r
}

// RemoveFile drops a file from its parent listing, simulating upstream
// deletion between runs.
func (r *RemoteTree) RemoveFile(filePath string) *RemoteTree {
	filePath = path.Clean(filePath)
	parent := path.Dir(filePath)
	kept := r.listings[parent][:0]
	for _, entry := range r.listings[parent] {
		if entry.Path != filePath {
			kept = append(kept, entry)
		}
	}
	r.listings[parent] = kept
	return r
}

// List implements gateway.Lister.
func (r *RemoteTree) List(_ context.Context, remotePath string) ([]gateway.Entry, error) {
	remotePath = path.Clean(remotePath)
	if _, gone := r.absent[remotePath]; gone {
		return nil, gateway.ErrPathNotFound
	}
	entries, ok := r.listings[remotePath]
	if !ok {
		return nil, fmt.Errorf("remote tree: no listing for %q", remotePath)
	}
	return entries, nil
}

// Fetch implements gateway.Fetcher.
func (r *RemoteTree) Fetch(_ context.Context, signedURL string) ([]byte, error) {
	data, ok := r.payloads[signedURL]
	if !ok {
		return nil, fmt.Errorf("remote tree: no payload for %q", signedURL)
	}
	return data, nil
}

// WriteLocalFile creates a local fixture file, making parent directories as
// needed.
func WriteLocalFile(t testing.TB, filePath string, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", filePath, err)
	}
	if err := os.WriteFile(filePath, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", filePath, err)
	}
}
