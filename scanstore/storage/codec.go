package storage

import (
	"fmt"
	"time"

	"github.com/arthur-debert/scanstore/types"
)

// EncodeValue converts a canonical value to its JSON-safe form
func EncodeValue(ft types.FieldType, v any) any {
	switch x := v.(type) {
	case time.Time:
		return ft.Format(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = EncodeValue(ft.Elem(), e)
		}
		return out
	}
	return v
}

// DecodeValue converts a freshly decoded JSON value to the canonical value
// for ft. nil stays nil.
func DecodeValue(ft types.FieldType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return ft.Coerce(v)
}

// EncodeSchema returns the tags with their default values in JSON-safe form
func EncodeSchema(tags []types.Tag) []types.Tag {
	out := make([]types.Tag, len(tags))
	for i, t := range tags {
		out[i] = t
		if t.DefaultValue != nil {
			out[i].DefaultValue = EncodeValue(t.Type, t.DefaultValue)
		}
	}
	return out
}

// DecodeSchema restores canonical default values
func DecodeSchema(tags []types.Tag) ([]types.Tag, error) {
	out := make([]types.Tag, len(tags))
	for i, t := range tags {
		out[i] = t
		def, err := t.CoerceDefault()
		if err != nil {
			return nil, err
		}
		out[i].DefaultValue = def
	}
	return out, nil
}

// EncodeCollection converts a collection to its persisted documents
func EncodeCollection(c *Collection, schema *types.TagSet) []Document {
	docs := make([]Document, 0, c.Len())
	c.Each(func(s *types.Scan) bool {
		docs = append(docs, EncodeScan(*s, schema))
		return true
	})
	return docs
}

// EncodeScan converts a scan to its persisted document. Values of tags
// missing from the schema are written unchanged.
func EncodeScan(s types.Scan, schema *types.TagSet) Document {
	values := make(map[string]any, len(s.Values))
	for name, v := range s.Values {
		if v == nil {
			continue
		}
		if tag, ok := schema.Get(name); ok {
			values[name] = EncodeValue(tag.Type, v)
			continue
		}
		values[name] = v
	}
	return Document{
		Path:      s.Path,
		Values:    values,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// DecodeCollection rebuilds a collection from persisted documents
func DecodeCollection(docs []Document, schema *types.TagSet) (*Collection, error) {
	c := NewCollection()
	for _, doc := range docs {
		if _, dup := c.Get(doc.Path); dup {
			return nil, fmt.Errorf("%w: %s", types.ErrScanExists, doc.Path)
		}
		s, err := DecodeScan(doc, schema)
		if err != nil {
			return nil, err
		}
		c.Put(s)
	}
	return c, nil
}

// DecodeScan converts a persisted document to a scan with canonical values
func DecodeScan(doc Document, schema *types.TagSet) (types.Scan, error) {
	values := make(map[string]any, len(doc.Values))
	for name, raw := range doc.Values {
		tag, ok := schema.Get(name)
		if !ok {
			values[name] = raw
			continue
		}
		v, err := DecodeValue(tag.Type, raw)
		if err != nil {
			return types.Scan{}, fmt.Errorf("scan %s, tag %s: %w", doc.Path, name, err)
		}
		if v != nil {
			values[name] = v
		}
	}
	return types.Scan{
		Path:      doc.Path,
		Values:    values,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

// EncodeChange converts a history entry's values to their JSON-safe form
func EncodeChange(c Change, schema *types.TagSet) Change {
	if tag, ok := schema.Get(c.Tag); ok {
		c.Old = EncodeValue(tag.Type, c.Old)
		c.New = EncodeValue(tag.Type, c.New)
	}
	return c
}

// DecodeChange restores a history entry's canonical values
func DecodeChange(c Change, schema *types.TagSet) (Change, error) {
	tag, ok := schema.Get(c.Tag)
	if !ok {
		return c, nil
	}
	var err error
	if c.Old, err = DecodeValue(tag.Type, c.Old); err != nil {
		return c, fmt.Errorf("history %s: %w", c.ID, err)
	}
	if c.New, err = DecodeValue(tag.Type, c.New); err != nil {
		return c, fmt.Errorf("history %s: %w", c.ID, err)
	}
	return c, nil
}
