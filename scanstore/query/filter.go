package query

import (
	"reflect"

	"github.com/arthur-debert/scanstore/types"
)

// PathField addresses the scan path in filters and order clauses
const PathField = "path"

// matchesFilters checks if a scan matches all the provided filters.
// A slice filter value matches any of its elements; for list tags a slice
// is first tried as the whole list value.
func (p *processor) matchesFilters(scan types.Scan, filters map[string]any) bool {
	for name, want := range filters {
		if name == PathField {
			if !matchesAny(scan.Path, want, types.FieldString) {
				return false
			}
			continue
		}

		tag, ok := p.tags.Get(name)
		if !ok {
			return false
		}
		got, defined := scan.Value(name)
		if !defined {
			return false
		}
		if !matchesAny(got, want, tag.Type) {
			return false
		}
	}
	return true
}

func matchesAny(got, want any, ft types.FieldType) bool {
	if ft.IsList() {
		if v, err := ft.Coerce(want); err == nil && types.Equal(got, v) {
			return true
		}
	}

	rv := reflect.ValueOf(want)
	if want != nil && rv.Kind() == reflect.Slice {
		for i := 0; i < rv.Len(); i++ {
			if matchesOne(got, rv.Index(i).Interface(), ft) {
				return true
			}
		}
		return false
	}
	return matchesOne(got, want, ft)
}

func matchesOne(got, want any, ft types.FieldType) bool {
	var v any
	var err error
	if s, ok := want.(string); ok {
		v, err = ft.Parse(s)
	} else {
		v, err = ft.Coerce(want)
	}
	if err != nil {
		return false
	}
	return types.Equal(got, v)
}

// MatchesFilters implements the Processor interface method
func (p *processor) MatchesFilters(scan types.Scan, filters map[string]any) bool {
	return p.matchesFilters(scan, filters)
}
