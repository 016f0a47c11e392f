package types

import (
	"errors"
	"time"
)

// Collection names. Every scan lives in both: "initial" keeps the values
// recorded at import time, "current" the values as edited since.
const (
	CollectionCurrent = "current"
	CollectionInitial = "initial"
)

// Sentinel errors shared by the store and its consumers
var (
	ErrTagNotFound        = errors.New("tag not found")
	ErrTagExists          = errors.New("tag already exists")
	ErrScanNotFound       = errors.New("scan not found")
	ErrScanExists         = errors.New("scan already exists")
	ErrUnknownCollection  = errors.New("unknown collection")
	ErrNothingToUndo      = errors.New("nothing to undo")
	ErrNothingToRedo      = errors.New("nothing to redo")
	ErrBuiltinTagReadOnly = errors.New("builtin tag cannot be removed")
)

// Scan represents one document in the store, keyed by its relative file path
type Scan struct {
	Path      string         // Primary key: relative file path of the scan
	Values    map[string]any // Tag values; a missing key means "not defined"
	CreatedAt time.Time      // Import timestamp
	UpdatedAt time.Time      // Last value change
}

// Value returns the scan's value for a tag and whether it is defined
func (s Scan) Value(tag string) (any, bool) {
	v, ok := s.Values[tag]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Clone returns a copy whose Values map can be mutated independently
func (s Scan) Clone() Scan {
	c := s
	c.Values = make(map[string]any, len(s.Values))
	for k, v := range s.Values {
		c.Values[k] = cloneValue(v)
	}
	return c
}

func cloneValue(v any) any {
	if list, ok := v.([]any); ok {
		out := make([]any, len(list))
		copy(out, list)
		return out
	}
	return v
}

// ListOptions configures how scans are listed
type ListOptions struct {
	// Filters restricts results to exact tag values
	// A slice value matches any of its elements, e.g. {"SequenceName": []any{"RARE", "FLASH"}}
	Filters map[string]any

	// Expression is an optional filter expression such as
	// (({PatientName} == "P1") AND ({TimePoint} == "T1"))
	Expression string

	// Search performs a rapid text search across visible tags
	// Empty string returns all scans (no filtering)
	Search string

	// OrderBy specifies the order of results
	OrderBy []OrderClause

	// Limit specifies the maximum number of results to return
	// nil means no limit
	Limit *int

	// Offset specifies the number of results to skip
	Offset *int
}

// OrderClause represents a single ordering directive
type OrderClause struct {
	Tag        string
	Descending bool
}

// NewListOptions creates a new ListOptions with empty filters
func NewListOptions() ListOptions {
	return ListOptions{
		Filters: make(map[string]any),
	}
}
