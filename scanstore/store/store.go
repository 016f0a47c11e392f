// Package store is the scan document store: a schema of typed tags and two
// collections of scans ("current" and "initial") persisted to a JSON file.
//
// The read surface (DocumentNames, GetValue, GetFieldAttributes,
// FilterDocuments) is what the count-table engine queries; the remaining
// methods edit the schema and the scans' values.
package store

import (
	"github.com/arthur-debert/scanstore/scanstore/storage"
	"github.com/arthur-debert/scanstore/types"
)

// Store defines the public interface for the scan store.
// collection arguments accept types.CollectionCurrent and
// types.CollectionInitial; anything else fails with types.ErrUnknownCollection.
type Store interface {
	// DocumentNames returns every scan path in insertion order
	DocumentNames(collection string) ([]string, error)

	// GetValue returns a scan's value for a tag. defined is false when the
	// scan has no value for the tag.
	GetValue(collection, path, tag string) (value any, defined bool, err error)

	// GetFieldAttributes returns the tag definition or an error wrapping
	// types.ErrTagNotFound
	GetFieldAttributes(collection, tag string) (types.Tag, error)

	// FilterDocuments evaluates a filter expression and returns the matching
	// scans in insertion order
	FilterDocuments(collection, expression string) ([]types.Scan, error)

	// GetScan returns a copy of one scan
	GetScan(collection, path string) (types.Scan, error)

	// List returns current scans based on the provided options
	List(opts types.ListOptions) ([]types.Scan, error)

	// Tags returns the schema in definition order
	Tags() []types.Tag

	// Revision identifies the store contents; it changes on every mutation
	Revision() string

	// AddTag adds a tag to the schema. A non-nil default value is assigned
	// to every existing scan in both collections.
	AddTag(tag types.Tag) error

	// CloneTag copies a tag's attributes and values under a new name
	CloneTag(source, name string) error

	// RemoveTag drops a user tag and its values from both collections
	RemoveTag(name string) error

	// AddScan inserts a scan into both collections
	AddScan(scan types.Scan) error

	// RemoveScan deletes a scan from both collections
	RemoveScan(path string) error

	// SetValue changes a current value; nil clears it. The change is
	// recorded for undo.
	SetValue(path, tag string, value any) error

	// ResetValue restores a current value from the initial collection
	ResetValue(path, tag string) error

	// Undo reverts the most recent value change
	Undo() (storage.Change, error)

	// Redo re-applies the most recently undone value change
	Redo() (storage.Change, error)

	// Close releases any resources held by the store
	Close() error
}
