package settings

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/b0bh00d/Newsroom-sub000/internal/newsroomerr"
)

// Store manages one Document's lifecycle on disk: load, atomic save with a
// checksum sidecar, and an optional hot-reload watch. Grounded on
// engine/internal/runtime/runtime.go's RuntimeConfigManager/HotReloadSystem,
// generalized from a fixed business-policy struct to the Section/Array/
// Element/Item tree this domain needs.
type Store struct {
	mu       sync.RWMutex
	path     string
	doc      *Document
	checksum string
}

// Open loads path into a Store, creating an empty Document if path doesn't
// exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path, doc: NewDocument()}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return s, nil
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads and parses path, replacing the Store's in-memory Document.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("settings: read %s: %w", s.path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		// The in-memory document is left untouched, so a corrupt file on
		// disk never clobbers working state.
		return fmt.Errorf("%w: %s: %v", newsroomerr.ErrSettingsParse, s.path, err)
	}
	s.mu.Lock()
	s.doc = &doc
	s.checksum = checksumOf(data)
	s.mu.Unlock()
	return nil
}

// Document returns the Store's current in-memory document for read/write
// access. Callers should call Save after mutating it.
func (s *Store) Document() *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// Save serializes the current Document and writes it to path atomically
// (temp file + rename), recording a sha256 checksum of the written bytes.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := yaml.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("settings: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("settings: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*.tmp")
	if err != nil {
		return fmt.Errorf("settings: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("settings: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("settings: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("settings: rename temp file: %w", err)
	}
	s.checksum = checksumOf(data)
	return nil
}

// Checksum returns the sha256 hex digest of the document as last loaded or
// saved.
func (s *Store) Checksum() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checksum
}

func checksumOf(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum)
}

// Change describes one hot-reload observation.
type Change struct {
	Document  *Document
	Checksum  string
	ChangedAt time.Time
}

// WatchForChanges watches the Store's file for external writes and reloads
// it in place, emitting a Change each time the checksum actually differs
// from what's already loaded (so a rewrite of identical content is not
// reported as a change). Closes both channels when ctx is done.
func (s *Store) WatchForChanges(ctx context.Context) (<-chan Change, <-chan error) {
	changes := make(chan Change, 8)
	errs := make(chan error, 8)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		errs <- fmt.Errorf("settings: create watcher: %w", err)
		close(changes)
		close(errs)
		return changes, errs
	}
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		errs <- fmt.Errorf("settings: watch %s: %w", dir, err)
		watcher.Close()
		close(changes)
		close(errs)
		return changes, errs
	}

	go func() {
		defer watcher.Close()
		defer close(changes)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name != s.path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				prev := s.Checksum()
				if err := s.Load(); err != nil {
					errs <- err
					continue
				}
				if s.Checksum() == prev {
					continue
				}
				changes <- Change{Document: s.Document(), Checksum: s.Checksum(), ChangedAt: time.Now()}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				errs <- err
			}
		}
	}()
	return changes, errs
}
