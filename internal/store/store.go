package store

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound reports a key with no stored blob.
var ErrNotFound = errors.New("store: key not found")

// Store is the interface for the blob store backend holding run artifacts and
// the extraction result cache. Keys are hierarchical slash-separated paths.
// Implementations: FSStore (production), SQLiteStore (single-file
// deployments), MemStore (testing). There are no transactions and no
// cross-process locking; last writer wins.
type Store interface {
	io.Closer

	// Exists reports whether a blob is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// ReadBytes returns the blob stored under key, or ErrNotFound.
	ReadBytes(ctx context.Context, key string) ([]byte, error)

	// WriteBytes stores data under key, replacing any previous blob.
	WriteBytes(ctx context.Context, key string, data []byte) error

	// ReadJSON decodes the blob stored under key into v.
	ReadJSON(ctx context.Context, key string, v any) error

	// WriteJSON stores v under key as indented JSON.
	WriteJSON(ctx context.Context, key string, v any) error

	// List returns all keys starting with prefix, sorted ascending.
	List(ctx context.Context, prefix string) ([]string, error)

	// Copy duplicates the blob at src under dst.
	Copy(ctx context.Context, src, dst string) error
}
