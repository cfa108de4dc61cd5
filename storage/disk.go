//go:generate go run go.uber.org/mock/mockgen -source=disk.go -destination=../mocks/mock_blob_store.go -package=mocks

// Package storage holds the blob-store collaborator and the upload policy.
// Blob operations are best-effort from the caller's point of view: a failed
// purge is logged, never fatal.
package storage

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type IBlobStore interface {
	Exists(name string) bool
	Delete(name string) error
	URL(name string) string
	Store(name string, data []byte) error
}

// DiskStore keeps attachment blobs under a single root directory,
// keyed by their stored name.
type DiskStore struct {
	root    string
	baseURL string
	log     *slog.Logger
}

func NewDiskStore(root, baseURL string, log *slog.Logger) DiskStore {
	return DiskStore{root: root, baseURL: strings.TrimRight(baseURL, "/"), log: log}
}

func (d DiskStore) path(name string) string {
	// filepath.Base strips any traversal attempt from a stored name.
	return filepath.Join(d.root, filepath.Base(name))
}

func (d DiskStore) Exists(name string) bool {
	_, err := os.Stat(d.path(name))
	return err == nil
}

func (d DiskStore) Delete(name string) error {
	return os.Remove(d.path(name))
}

func (d DiskStore) URL(name string) string {
	return d.baseURL + "/" + filepath.Base(name)
}

func (d DiskStore) Store(name string, data []byte) error {
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return err
	}
	return os.WriteFile(d.path(name), data, 0o644)
}
