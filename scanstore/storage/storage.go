// Package storage defines the persisted shape of a scan store and the
// helpers that convert it to and from the in-memory model.
// The whole store is loaded and saved as a single unit, which matches the
// JSON file backend's natural behavior.
package storage

import (
	"time"

	"github.com/google/uuid"

	"github.com/arthur-debert/scanstore/types"
)

// FormatVersion is written to new store files
const FormatVersion = "1.0"

// StoreData represents the complete data structure stored in the backend
type StoreData struct {
	Schema   []types.Tag `json:"schema"`
	Current  []Document  `json:"current"`
	Initial  []Document  `json:"initial"`
	History  History     `json:"history"`
	Metadata Metadata    `json:"metadata"`
}

// Metadata contains storage metadata
type Metadata struct {
	Version string `json:"version"`

	// Revision changes on every mutation. Consumers that cache derived data
	// (count tables) compare it to know when they are stale.
	Revision  string    `json:"revision"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Document is the JSON form of a scan. Temporal values are stored as text in
// their tag's layout so they survive the round trip.
type Document struct {
	Path      string         `json:"path"`
	Values    map[string]any `json:"values"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Change records one value mutation on the current collection
type Change struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	Tag        string    `json:"tag"`
	Old        any       `json:"old,omitempty"`
	New        any       `json:"new,omitempty"`
	OldDefined bool      `json:"old_defined"`
	NewDefined bool      `json:"new_defined"`
	At         time.Time `json:"at"`
}

// History is the undo log. Entries before Cursor are applied; entries at or
// after Cursor have been undone and can be redone.
type History struct {
	Entries []Change `json:"entries"`
	Cursor  int      `json:"cursor"`
}

// NewStoreData returns an empty store with the given schema
func NewStoreData(schema []types.Tag, now time.Time) *StoreData {
	tags := make([]types.Tag, len(schema))
	copy(tags, schema)
	return &StoreData{
		Schema:  tags,
		Current: []Document{},
		Initial: []Document{},
		Metadata: Metadata{
			Version:   FormatVersion,
			Revision:  uuid.NewString(),
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// Touch marks the data as changed at now and issues a new revision
func (m *Metadata) Touch(now time.Time) {
	m.Revision = uuid.NewString()
	m.UpdatedAt = now
}
