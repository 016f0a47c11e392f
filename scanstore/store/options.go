package store

import (
	"log/slog"
	"time"

	"github.com/arthur-debert/scanstore/types"
)

// Option configures a JSON file store
type Option func(*jsonFileStore)

// WithFileSystem sets a custom FileSystem implementation
func WithFileSystem(fs FileSystem) Option {
	return func(s *jsonFileStore) {
		s.fs = fs
	}
}

// WithFileLockFactory sets a custom FileLockFactory implementation
func WithFileLockFactory(factory FileLockFactory) Option {
	return func(s *jsonFileStore) {
		s.lockFactory = factory
	}
}

// WithTimeFunc sets a custom time function for testing
func WithTimeFunc(fn func() time.Time) Option {
	return func(s *jsonFileStore) {
		s.timeFunc = fn
	}
}

// WithSchema sets the tags of a store whose file does not exist yet.
// It is ignored when an existing file is loaded.
func WithSchema(tags []types.Tag) Option {
	return func(s *jsonFileStore) {
		s.initialSchema = tags
	}
}

// WithLogger sets the lifecycle logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *jsonFileStore) {
		s.logger = logger
	}
}

// WithQueryLogger sets the logger receiving one debug record per
// FilterDocuments call
func WithQueryLogger(logger *slog.Logger) Option {
	return func(s *jsonFileStore) {
		s.queryLogger = logger
	}
}
