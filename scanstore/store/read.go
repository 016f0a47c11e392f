package store

import (
	"fmt"
	"time"

	"github.com/arthur-debert/scanstore/scanstore/filter"
	"github.com/arthur-debert/scanstore/scanstore/storage"
	"github.com/arthur-debert/scanstore/types"
)

// DocumentNames returns scan paths in insertion order
func (s *jsonFileStore) DocumentNames(collection string) ([]string, error) {
	return storage.Query(s.lockManager, storage.ReadOperation, func() ([]string, error) {
		c, err := s.collection(collection)
		if err != nil {
			return nil, err
		}
		return c.Paths(), nil
	})
}

// GetValue returns one value of one scan
func (s *jsonFileStore) GetValue(collection, path, tag string) (any, bool, error) {
	var (
		value   any
		defined bool
	)
	err := s.lockManager.Execute(storage.ReadOperation, func() error {
		c, err := s.collection(collection)
		if err != nil {
			return err
		}
		if _, err := s.tagSet.Lookup(tag); err != nil {
			return err
		}
		scan, ok := c.Get(path)
		if !ok {
			return fmt.Errorf("%w: %s", types.ErrScanNotFound, path)
		}
		value, defined = scan.Value(tag)
		if list, isList := value.([]any); isList {
			value = append([]any(nil), list...)
		}
		return nil
	})
	return value, defined, err
}

// GetFieldAttributes returns the tag definition
func (s *jsonFileStore) GetFieldAttributes(collection, tag string) (types.Tag, error) {
	return storage.Query(s.lockManager, storage.ReadOperation, func() (types.Tag, error) {
		if _, err := s.collection(collection); err != nil {
			return types.Tag{}, err
		}
		return s.tagSet.Lookup(tag)
	})
}

// FilterDocuments parses and evaluates expression against every scan
func (s *jsonFileStore) FilterDocuments(collection, expression string) ([]types.Scan, error) {
	start := time.Now()
	result, err := storage.Query(s.lockManager, storage.ReadOperation, func() ([]types.Scan, error) {
		c, err := s.collection(collection)
		if err != nil {
			return nil, err
		}
		f, err := filter.Compile(expression, s.tagSet)
		if err != nil {
			return nil, fmt.Errorf("invalid filter %s: %w", expression, err)
		}
		var out []types.Scan
		c.Each(func(scan *types.Scan) bool {
			if f.Match(*scan) {
				out = append(out, scan.Clone())
			}
			return true
		})
		return out, nil
	})

	s.queryLogger.Debug("filter documents",
		"collection", collection,
		"expression", expression,
		"matched", len(result),
		"duration", time.Since(start),
		"error", err)
	return result, err
}

// GetScan returns a copy of one scan
func (s *jsonFileStore) GetScan(collection, path string) (types.Scan, error) {
	return storage.Query(s.lockManager, storage.ReadOperation, func() (types.Scan, error) {
		c, err := s.collection(collection)
		if err != nil {
			return types.Scan{}, err
		}
		scan, ok := c.Get(path)
		if !ok {
			return types.Scan{}, fmt.Errorf("%w: %s", types.ErrScanNotFound, path)
		}
		return scan.Clone(), nil
	})
}

// List returns current scans based on the provided options
func (s *jsonFileStore) List(opts types.ListOptions) ([]types.Scan, error) {
	return storage.Query(s.lockManager, storage.ReadOperation, func() ([]types.Scan, error) {
		return s.queryProc.Execute(s.current.Scans(), opts)
	})
}

// Tags returns the schema in definition order
func (s *jsonFileStore) Tags() []types.Tag {
	tags, _ := storage.Query(s.lockManager, storage.ReadOperation, func() ([]types.Tag, error) {
		return s.tagSet.All(), nil
	})
	return tags
}

// Revision identifies the current contents
func (s *jsonFileStore) Revision() string {
	rev, _ := storage.Query(s.lockManager, storage.ReadOperation, func() (string, error) {
		return s.meta.Revision, nil
	})
	return rev
}
