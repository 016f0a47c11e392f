package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/arthur-debert/scanstore/internal/logging"
	"github.com/arthur-debert/scanstore/internal/validation"
	"github.com/arthur-debert/scanstore/scanstore/query"
	"github.com/arthur-debert/scanstore/scanstore/storage"
	"github.com/arthur-debert/scanstore/types"
)

// Constants for file locking
const (
	lockTimeout    = 3 * time.Second
	lockMaxRetries = 3
	lockRetryDelay = 100 * time.Millisecond
)

// jsonFileStore implements Store using a JSON file backend
type jsonFileStore struct {
	filePath string

	schema    []types.Tag
	tagSet    *types.TagSet
	current   *storage.Collection
	initial   *storage.Collection
	history   storage.History
	meta      storage.Metadata
	queryProc query.Processor

	lockManager *storage.LockManager
	fs          FileSystem
	lockFactory FileLockFactory
	fileLock    FileLock // Cross-process file locking

	initialSchema []types.Tag
	logger        *slog.Logger
	queryLogger   *slog.Logger

	// timeFunc is used to get the current time, defaults to time.Now
	timeFunc func() time.Time
}

// New opens the store at filePath, creating it in memory when the file does
// not exist yet. The file is first written by the first mutation.
func New(filePath string, opts ...Option) (Store, error) {
	s := &jsonFileStore{
		filePath:    filePath,
		lockManager: storage.NewLockManager(),
		timeFunc:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.fs == nil {
		s.fs = OSFileSystem{}
	}
	if s.lockFactory == nil {
		s.lockFactory = FlockFactory{}
	}
	s.logger = logging.Default(s.logger).With("component", "store")
	s.queryLogger = logging.Default(s.queryLogger).With("component", "store")
	s.fileLock = s.lockFactory.New(filePath + ".lock")

	if err := validation.Validate(types.NewTagSet(s.initialSchema)); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	if err := s.loadWithLock(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	s.logger.Info("store opened",
		"path", filePath,
		"tags", len(s.schema),
		"scans", s.current.Len(),
		"revision", s.meta.Revision)
	return s, nil
}

// acquireLock attempts to acquire an exclusive file lock with retry logic
func (s *jsonFileStore) acquireLock(ctx context.Context) error {
	for i := 0; i < lockMaxRetries; i++ {
		locked, err := s.fileLock.TryLockContext(ctx, lockRetryDelay)
		if err != nil {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		if locked {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
	return fmt.Errorf("failed to acquire lock after %d attempts", lockMaxRetries)
}

// withFileLock runs fn while holding the cross-process lock
func (s *jsonFileStore) withFileLock(fn func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	if err := s.acquireLock(ctx); err != nil {
		return err
	}
	defer func() { _ = s.fileLock.Unlock() }()
	return fn()
}

func (s *jsonFileStore) loadWithLock() error {
	return s.withFileLock(s.load)
}

// load reads the JSON file into memory. Caller must hold the file lock.
func (s *jsonFileStore) load() error {
	data := storage.NewStoreData(s.initialSchema, s.timeFunc())

	if _, err := s.fs.Stat(s.filePath); err == nil {
		raw, err := s.fs.ReadFile(s.filePath)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		if len(raw) > 0 {
			var loaded storage.StoreData
			if err := json.Unmarshal(raw, &loaded); err != nil {
				return fmt.Errorf("failed to parse JSON: %w", err)
			}
			data = &loaded
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	return s.restore(data)
}

// restore replaces the in-memory state with data
func (s *jsonFileStore) restore(data *storage.StoreData) error {
	schema, err := storage.DecodeSchema(data.Schema)
	if err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}
	tagSet := types.NewTagSet(schema)
	if err := validation.Validate(tagSet); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}

	current, err := storage.DecodeCollection(data.Current, tagSet)
	if err != nil {
		return fmt.Errorf("collection %s: %w", types.CollectionCurrent, err)
	}
	initial, err := storage.DecodeCollection(data.Initial, tagSet)
	if err != nil {
		return fmt.Errorf("collection %s: %w", types.CollectionInitial, err)
	}

	history := storage.History{Entries: make([]storage.Change, 0, len(data.History.Entries))}
	for _, c := range data.History.Entries {
		decoded, err := storage.DecodeChange(c, tagSet)
		if err != nil {
			return err
		}
		history.Entries = append(history.Entries, decoded)
	}
	history.Cursor = min(max(data.History.Cursor, 0), len(history.Entries))

	s.schema = tagSet.All()
	s.tagSet = tagSet
	s.current = current
	s.initial = initial
	s.history = history
	s.meta = data.Metadata
	s.queryProc = query.NewProcessor(tagSet)
	return nil
}

// snapshot encodes the in-memory state
func (s *jsonFileStore) snapshot() *storage.StoreData {
	entries := make([]storage.Change, len(s.history.Entries))
	for i, c := range s.history.Entries {
		entries[i] = storage.EncodeChange(c, s.tagSet)
	}
	return &storage.StoreData{
		Schema:   storage.EncodeSchema(s.schema),
		Current:  storage.EncodeCollection(s.current, s.tagSet),
		Initial:  storage.EncodeCollection(s.initial, s.tagSet),
		History:  storage.History{Entries: entries, Cursor: s.history.Cursor},
		Metadata: s.meta,
	}
}

// save writes data to the JSON file atomically. Caller must hold the file lock.
func (s *jsonFileStore) save(data *storage.StoreData) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	tmpFile := s.filePath + ".tmp"
	if err := s.fs.WriteFile(tmpFile, raw, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := s.fs.Rename(tmpFile, s.filePath); err != nil {
		_ = s.fs.Remove(tmpFile)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// mutate runs fn under the write lock and persists the result. When fn or
// the save fails the in-memory state is rolled back.
func (s *jsonFileStore) mutate(fn func(now time.Time) error) error {
	return s.lockManager.Execute(storage.WriteOperation, func() error {
		before := s.snapshot()
		now := s.timeFunc()

		if err := fn(now); err != nil {
			return s.rollback(before, err)
		}
		s.meta.Touch(now)

		after := s.snapshot()
		if err := s.withFileLock(func() error { return s.save(after) }); err != nil {
			return s.rollback(before, fmt.Errorf("failed to save: %w", err))
		}
		return nil
	})
}

func (s *jsonFileStore) rollback(before *storage.StoreData, cause error) error {
	if err := s.restore(before); err != nil {
		return errors.Join(cause, fmt.Errorf("rollback failed: %w", err))
	}
	return cause
}

// Close releases resources
func (s *jsonFileStore) Close() error {
	return nil
}

// collection resolves a collection name
func (s *jsonFileStore) collection(name string) (*storage.Collection, error) {
	switch name {
	case types.CollectionCurrent:
		return s.current, nil
	case types.CollectionInitial:
		return s.initial, nil
	}
	return nil, fmt.Errorf("%w: %q", types.ErrUnknownCollection, name)
}
