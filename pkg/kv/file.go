package kv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore keeps each key as a JSON document under a base directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore ensures the base directory exists and returns a handle.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		baseDir = "./data"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return raw, nil
}

// Apply stages every put as a temp file before renaming any of them, so a
// failed write leaves existing documents untouched.
func (s *FileStore) Apply(ctx context.Context, ops ...Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	type staged struct {
		tmp, path string
	}
	pending := make([]staged, 0, len(ops))
	cleanup := func() {
		for _, p := range pending {
			_ = os.Remove(p.tmp)
		}
	}

	for _, op := range ops {
		if op.Delete {
			continue
		}
		path, err := s.resolve(op.Key)
		if err != nil {
			cleanup()
			return err
		}
		tmp, err := os.CreateTemp(s.baseDir, ".tmp-*")
		if err != nil {
			cleanup()
			return fmt.Errorf("stage %s: %w", op.Key, err)
		}
		pending = append(pending, staged{tmp: tmp.Name(), path: path})
		if _, err := tmp.Write(op.Value); err != nil {
			_ = tmp.Close()
			cleanup()
			return fmt.Errorf("write %s: %w", op.Key, err)
		}
		if err := tmp.Close(); err != nil {
			cleanup()
			return fmt.Errorf("close %s: %w", op.Key, err)
		}
	}

	next := 0
	for _, op := range ops {
		if op.Delete {
			path, err := s.resolve(op.Key)
			if err != nil {
				return err
			}
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("delete %s: %w", op.Key, err)
			}
			continue
		}
		p := pending[next]
		next++
		if err := os.Rename(p.tmp, p.path); err != nil {
			pending = pending[next-1:]
			cleanup()
			return fmt.Errorf("commit %s: %w", op.Key, err)
		}
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// Path exposes the file backing key.
func (s *FileStore) Path(key string) string {
	path, _ := s.resolve(key)
	return path
}

func (s *FileStore) resolve(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.baseDir, key+".json"), nil
}
