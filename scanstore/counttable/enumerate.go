package counttable

import (
	"fmt"

	"github.com/arthur-debert/scanstore/types"
)

// ValueSet is the distinct values of one tag across the current scans,
// in first-seen order
type ValueSet struct {
	Tag    types.Tag
	Values []any
}

// Len returns the number of distinct values
func (vs ValueSet) Len() int {
	return len(vs.Values)
}

// Text renders value i in the tag's field type
func (vs ValueSet) Text(i int) string {
	return vs.Tag.Type.Format(vs.Values[i])
}

// Index returns the position of v in the set, or -1
func (vs ValueSet) Index(v any) int {
	for i, x := range vs.Values {
		if types.Equal(x, v) {
			return i
		}
	}
	return -1
}

// Enumerator computes value sets from a store
type Enumerator struct {
	store      Store
	collection string
}

// NewEnumerator creates an enumerator over the current collection
func NewEnumerator(store Store) *Enumerator {
	return &Enumerator{store: store, collection: types.CollectionCurrent}
}

// Values returns the value set of tag. Scans without a value are skipped;
// list values are compared as whole lists. An unknown tag fails with an
// error wrapping types.ErrTagNotFound.
func (e *Enumerator) Values(tag string) (ValueSet, error) {
	attrs, err := e.store.GetFieldAttributes(e.collection, tag)
	if err != nil {
		return ValueSet{}, fmt.Errorf("enumerating %s: %w", tag, err)
	}

	paths, err := e.store.DocumentNames(e.collection)
	if err != nil {
		return ValueSet{}, fmt.Errorf("enumerating %s: %w", tag, err)
	}

	vs := ValueSet{Tag: attrs, Values: []any{}}
	for _, path := range paths {
		v, defined, err := e.store.GetValue(e.collection, path, tag)
		if err != nil {
			return ValueSet{}, fmt.Errorf("enumerating %s: %w", tag, err)
		}
		if !defined || vs.Index(v) >= 0 {
			continue
		}
		vs.Values = append(vs.Values, v)
	}
	return vs, nil
}
