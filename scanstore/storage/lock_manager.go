package storage

import (
	"sync"
)

// OperationType defines whether an operation is read or write
type OperationType int

const (
	// ReadOperation indicates an operation that only reads data.
	// Multiple read operations can proceed concurrently.
	ReadOperation OperationType = iota

	// WriteOperation indicates an operation that modifies data.
	// Write operations are exclusive.
	WriteOperation
)

// LockManager serializes access to a store's in-memory state: many readers
// or one writer. Every store method goes through it so lock handling lives
// in one place.
type LockManager struct {
	mu sync.RWMutex
}

// NewLockManager creates a new lock manager instance
func NewLockManager() *LockManager {
	return &LockManager{}
}

// Execute runs fn while holding the lock matching opType.
// The lock is released when fn returns, even if it panics.
//
//	err := lm.Execute(ReadOperation, func() error {
//	    // Safe to read data here
//	    return nil
//	})
func (lm *LockManager) Execute(opType OperationType, fn func() error) error {
	if opType == WriteOperation {
		lm.mu.Lock()
		defer lm.mu.Unlock()
	} else {
		lm.mu.RLock()
		defer lm.mu.RUnlock()
	}
	return fn()
}

// Query is Execute for functions that produce a value
func Query[T any](lm *LockManager, opType OperationType, fn func() (T, error)) (T, error) {
	var result T
	err := lm.Execute(opType, func() error {
		var err error
		result, err = fn()
		return err
	})
	return result, err
}
