package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Compile-time assertion: *FSStore satisfies Store.
var _ Store = (*FSStore)(nil)

// FSStore implements Store on the local filesystem. Each key maps to a file
// below the root directory.
type FSStore struct {
	root string
}

// NewFSStore creates the root directory if needed and returns a store over it.
func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("store: create root %s: %w", root, err)
	}
	return &FSStore{root: root}, nil
}

func (f *FSStore) path(key string) string {
	return filepath.Join(f.root, filepath.FromSlash(key))
}

// Exists reports whether a blob is stored under key.
func (f *FSStore) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(f.path(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("store: stat %s: %w", key, err)
}

// ReadBytes returns the blob stored under key, or ErrNotFound.
func (f *FSStore) ReadBytes(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("store: read %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", key, err)
	}
	return data, nil
}

// WriteBytes stores data under key, creating parent directories as needed.
func (f *FSStore) WriteBytes(_ context.Context, key string, data []byte) error {
	path := f.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("store: create dir for %s: %w", key, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", key, err)
	}
	return nil
}

// ReadJSON decodes the blob stored under key into v.
func (f *FSStore) ReadJSON(ctx context.Context, key string, v any) error {
	data, err := f.ReadBytes(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("store: decode %s: %w", key, err)
	}
	return nil
}

// WriteJSON stores v under key as indented JSON.
func (f *FSStore) WriteJSON(ctx context.Context, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	return f.WriteBytes(ctx, key, data)
}

// List returns all keys starting with prefix, sorted ascending.
func (f *FSStore) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(f.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, relErr := filepath.Rel(f.root, path)
		if relErr != nil {
			return relErr
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: list %s: %w", prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Copy duplicates the blob at src under dst.
func (f *FSStore) Copy(ctx context.Context, src, dst string) error {
	data, err := f.ReadBytes(ctx, src)
	if err != nil {
		return err
	}
	return f.WriteBytes(ctx, dst, data)
}

// Close is a no-op for the filesystem store.
func (f *FSStore) Close() error {
	return nil
}
