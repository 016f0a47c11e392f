package store

import (
	"fmt"
	"time"

	"github.com/arthur-debert/scanstore/internal/validation"
	"github.com/arthur-debert/scanstore/scanstore/query"
	"github.com/arthur-debert/scanstore/scanstore/storage"
	"github.com/arthur-debert/scanstore/types"
)

// AddTag adds a tag to the schema
func (s *jsonFileStore) AddTag(tag types.Tag) error {
	if tag.Origin == "" {
		tag.Origin = types.OriginUser
	}
	if err := validation.ValidateTag(tag); err != nil {
		return err
	}
	def, err := tag.CoerceDefault()
	if err != nil {
		return err
	}
	tag.DefaultValue = def

	return s.mutate(func(now time.Time) error {
		if _, exists := s.tagSet.Get(tag.Name); exists {
			return fmt.Errorf("%w: %s", types.ErrTagExists, tag.Name)
		}
		s.setSchema(append(s.schema, tag))

		if def != nil {
			for _, c := range []*storage.Collection{s.current, s.initial} {
				c.Each(func(scan *types.Scan) bool {
					scan.Values[tag.Name] = copyValue(def)
					return true
				})
			}
		}
		s.logger.Info("tag added", "tag", tag.Name, "type", tag.Type.String())
		return nil
	})
}

// CloneTag copies a tag's attributes and values under a new name
func (s *jsonFileStore) CloneTag(source, name string) error {
	if err := validation.ValidateTagName(name); err != nil {
		return err
	}
	return s.mutate(func(now time.Time) error {
		src, err := s.tagSet.Lookup(source)
		if err != nil {
			return err
		}
		if _, exists := s.tagSet.Get(name); exists {
			return fmt.Errorf("%w: %s", types.ErrTagExists, name)
		}

		clone := src
		clone.Name = name
		clone.Origin = types.OriginUser
		s.setSchema(append(s.schema, clone))

		for _, c := range []*storage.Collection{s.current, s.initial} {
			c.Each(func(scan *types.Scan) bool {
				if v, ok := scan.Value(source); ok {
					scan.Values[name] = copyValue(v)
				}
				return true
			})
		}
		s.logger.Info("tag cloned", "source", source, "tag", name)
		return nil
	})
}

// RemoveTag drops a user tag, its values and its history
func (s *jsonFileStore) RemoveTag(name string) error {
	return s.mutate(func(now time.Time) error {
		tag, err := s.tagSet.Lookup(name)
		if err != nil {
			return err
		}
		if tag.Origin == types.OriginBuiltin {
			return fmt.Errorf("%w: %s", types.ErrBuiltinTagReadOnly, name)
		}

		schema := make([]types.Tag, 0, len(s.schema)-1)
		for _, t := range s.schema {
			if t.Name != name {
				schema = append(schema, t)
			}
		}
		s.setSchema(schema)

		for _, c := range []*storage.Collection{s.current, s.initial} {
			c.Each(func(scan *types.Scan) bool {
				delete(scan.Values, name)
				return true
			})
		}
		s.pruneHistory(func(c storage.Change) bool { return c.Tag == name })
		s.logger.Info("tag removed", "tag", name)
		return nil
	})
}

// AddScan inserts a scan into both collections. Values are coerced to their
// tag types; tags without a value receive their default.
func (s *jsonFileStore) AddScan(scan types.Scan) error {
	if scan.Path == "" {
		return fmt.Errorf("scan path is required")
	}
	return s.mutate(func(now time.Time) error {
		if _, exists := s.current.Get(scan.Path); exists {
			return fmt.Errorf("%w: %s", types.ErrScanExists, scan.Path)
		}

		values := make(map[string]any, len(s.schema))
		for name, raw := range scan.Values {
			tag, err := s.tagSet.Lookup(name)
			if err != nil {
				return fmt.Errorf("scan %s: %w", scan.Path, err)
			}
			if raw == nil {
				continue
			}
			v, err := tag.Type.Coerce(raw)
			if err != nil {
				return fmt.Errorf("scan %s, tag %s: %w", scan.Path, name, err)
			}
			values[name] = v
		}
		for _, tag := range s.schema {
			if _, ok := values[tag.Name]; ok || tag.DefaultValue == nil {
				continue
			}
			def, err := tag.CoerceDefault()
			if err != nil {
				return err
			}
			values[tag.Name] = def
		}

		doc := types.Scan{Path: scan.Path, Values: values, CreatedAt: now, UpdatedAt: now}
		s.current.Put(doc)
		s.initial.Put(doc.Clone())
		return nil
	})
}

// RemoveScan deletes a scan from both collections
func (s *jsonFileStore) RemoveScan(path string) error {
	return s.mutate(func(now time.Time) error {
		if !s.current.Delete(path) {
			return fmt.Errorf("%w: %s", types.ErrScanNotFound, path)
		}
		s.initial.Delete(path)
		s.pruneHistory(func(c storage.Change) bool { return c.Path == path })
		return nil
	})
}

// SetValue changes one current value; nil clears it
func (s *jsonFileStore) SetValue(path, tag string, value any) error {
	return s.mutate(func(now time.Time) error {
		t, err := s.tagSet.Lookup(tag)
		if err != nil {
			return err
		}
		var v any
		if value != nil {
			if v, err = t.Type.Coerce(value); err != nil {
				return fmt.Errorf("tag %s: %w", tag, err)
			}
		}
		return s.applyChange(path, tag, v, now)
	})
}

// ResetValue copies the initial value back into the current collection
func (s *jsonFileStore) ResetValue(path, tag string) error {
	return s.mutate(func(now time.Time) error {
		if _, err := s.tagSet.Lookup(tag); err != nil {
			return err
		}
		orig, ok := s.initial.Get(path)
		if !ok {
			return fmt.Errorf("%w: %s", types.ErrScanNotFound, path)
		}
		v, _ := orig.Value(tag)
		return s.applyChange(path, tag, copyValue(v), now)
	})
}

// setSchema replaces the schema and everything derived from it
func (s *jsonFileStore) setSchema(tags []types.Tag) {
	s.schema = tags
	s.tagSet = types.NewTagSet(tags)
	s.queryProc = query.NewProcessor(s.tagSet)
}

func copyValue(v any) any {
	if list, ok := v.([]any); ok {
		return append([]any(nil), list...)
	}
	return v
}
