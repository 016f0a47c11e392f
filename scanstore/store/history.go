package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arthur-debert/scanstore/scanstore/storage"
	"github.com/arthur-debert/scanstore/types"
)

// applyChange sets a current value and records it for undo. A change that
// leaves the value as it was is not recorded. Caller holds the write lock.
func (s *jsonFileStore) applyChange(path, tag string, value any, now time.Time) error {
	scan, ok := s.current.Get(path)
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrScanNotFound, path)
	}
	old, oldDefined := scan.Value(tag)
	newDefined := value != nil
	if oldDefined == newDefined && (!newDefined || types.Equal(old, value)) {
		return nil
	}

	setValue(scan, tag, value, now)

	// A new change discards everything that was undone
	s.history.Entries = append(s.history.Entries[:s.history.Cursor], storage.Change{
		ID:         uuid.NewString(),
		Path:       path,
		Tag:        tag,
		Old:        old,
		New:        value,
		OldDefined: oldDefined,
		NewDefined: newDefined,
		At:         now,
	})
	s.history.Cursor = len(s.history.Entries)
	return nil
}

// Undo reverts the change before the history cursor
func (s *jsonFileStore) Undo() (storage.Change, error) {
	var change storage.Change
	err := s.mutate(func(now time.Time) error {
		if s.history.Cursor == 0 {
			return types.ErrNothingToUndo
		}
		change = s.history.Entries[s.history.Cursor-1]
		scan, ok := s.current.Get(change.Path)
		if !ok {
			return fmt.Errorf("%w: %s", types.ErrScanNotFound, change.Path)
		}
		setValue(scan, change.Tag, definedOrNil(change.Old, change.OldDefined), now)
		s.history.Cursor--
		return nil
	})
	return change, err
}

// Redo re-applies the change at the history cursor
func (s *jsonFileStore) Redo() (storage.Change, error) {
	var change storage.Change
	err := s.mutate(func(now time.Time) error {
		if s.history.Cursor >= len(s.history.Entries) {
			return types.ErrNothingToRedo
		}
		change = s.history.Entries[s.history.Cursor]
		scan, ok := s.current.Get(change.Path)
		if !ok {
			return fmt.Errorf("%w: %s", types.ErrScanNotFound, change.Path)
		}
		setValue(scan, change.Tag, definedOrNil(change.New, change.NewDefined), now)
		s.history.Cursor++
		return nil
	})
	return change, err
}

// pruneHistory drops entries matching drop, keeping the cursor on the same
// applied/undone boundary
func (s *jsonFileStore) pruneHistory(drop func(storage.Change) bool) {
	kept := s.history.Entries[:0]
	cursor := 0
	for i, c := range s.history.Entries {
		if drop(c) {
			continue
		}
		if i < s.history.Cursor {
			cursor++
		}
		kept = append(kept, c)
	}
	s.history.Entries = kept
	s.history.Cursor = cursor
}

func setValue(scan *types.Scan, tag string, value any, now time.Time) {
	if value == nil {
		delete(scan.Values, tag)
	} else {
		scan.Values[tag] = copyValue(value)
	}
	scan.UpdatedAt = now
}

func definedOrNil(v any, defined bool) any {
	if !defined {
		return nil
	}
	return v
}
