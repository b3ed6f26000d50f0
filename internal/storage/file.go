package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/benodiwal/dexy/internal/model"
)

// FileStore keeps one JSON snapshot per pool under a directory. Writes go to
// a temporary file that is renamed over the snapshot, so a crash leaves either
// the old or the new state. Updates to the same pool are serialized within the
// process.
type FileStore struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, locks: make(map[string]*sync.Mutex)}
}

func (s *FileStore) Load(ctx context.Context, name string) (model.PoolSnapshot, error) {
	if err := model.ValidatePoolName(name); err != nil {
		return model.PoolSnapshot{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.PoolSnapshot{}, err
	}
	return s.read(name)
}

func (s *FileStore) Update(ctx context.Context, name string, fn UpdateFunc) (model.PoolSnapshot, error) {
	if err := model.ValidatePoolName(name); err != nil {
		return model.PoolSnapshot{}, err
	}

	lock := s.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return model.PoolSnapshot{}, err
	}

	current, err := s.read(name)
	if errors.Is(err, ErrNotFound) {
		current = model.NewPoolSnapshot(name)
	} else if err != nil {
		return model.PoolSnapshot{}, err
	}

	work := current.Clone()
	if err := fn(&work); err != nil {
		return model.PoolSnapshot{}, err
	}
	work.Name = name
	work.Version = current.Version + 1
	work.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)

	if err := s.write(work); err != nil {
		return model.PoolSnapshot{}, err
	}
	return work, nil
}

func (s *FileStore) lockFor(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[name]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[name] = lock
	}
	return lock
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *FileStore) read(name string) (model.PoolSnapshot, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return model.PoolSnapshot{}, ErrNotFound
		}
		return model.PoolSnapshot{}, fmt.Errorf("read pool %s: %w", name, err)
	}

	var snap model.PoolSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("parse pool %s: %w", name, err)
	}
	if snap.Name != name {
		return model.PoolSnapshot{}, fmt.Errorf("pool file %s holds pool %q", s.path(name), snap.Name)
	}
	if err := snap.Reconcile(); err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("corrupt pool file: %w", err)
	}
	return snap, nil
}

func (s *FileStore) write(snap model.PoolSnapshot) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal pool: %w", err)
	}

	path := s.path(snap.Name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write pool tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename pool: %w", err)
	}
	return nil
}
