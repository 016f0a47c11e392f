// Package counttable cross-tabulates scans by tag values.
//
// Given an ordered selection of tags, the first n-1 tags form the rows (their
// value sets multiplied out in odometer order) and the last tag forms the
// columns. Each cell counts the scans matching the row's values and the
// column's value, obtained by sending one filter expression per cell to the
// store:
//
//	tags   := []string{"PatientName", "TimePoint", "SequenceName"}
//	grid, err := counttable.NewBuilder(st).Build(ctx, tags)
//	if errors.Is(err, counttable.ErrNothingToDo) {
//	    return nil // fewer than two tags
//	}
//
// A zero-count cell is Absent; cells in the leading label columns are not
// Computed. A failed build never returns a partial grid.
package counttable

import (
	"errors"

	"github.com/arthur-debert/scanstore/types"
)

var (
	// ErrNothingToDo is returned when the selection has fewer than two tags
	ErrNothingToDo = errors.New("count table needs at least two tags")

	// ErrOutOfRange is returned for row or column indices outside the grid
	ErrOutOfRange = errors.New("index out of range")
)

// Store is the read surface the count table needs from a scan store
type Store interface {
	DocumentNames(collection string) ([]string, error)
	GetValue(collection, path, tag string) (any, bool, error)
	GetFieldAttributes(collection, tag string) (types.Tag, error)
	FilterDocuments(collection, expression string) ([]types.Scan, error)
}

// revisioner is implemented by stores that version their contents
type revisioner interface {
	Revision() string
}
