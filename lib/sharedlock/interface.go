package sharedlock

import (
	"errors"
	"time"
)

// NoTTL marks an acquisition that never expires. Every non-positive duration is treated the same way.
const NoTTL time.Duration = 0

// ErrInvalidState is returned by GetState when a table entry is neither a writer lock
// nor a reader semaphore. It signals a bug in the adapter, not a recoverable condition.
var ErrInvalidState = errors.New("sharedlock: invalid state, expected either a writer lock or a reader semaphore but not both")

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

// AcquireSettings holds the parameters of a reader acquisition
type AcquireSettings struct {
	Key    string        // resource key
	LockID string        // reader identifier, one slot per id
	Limit  int           // capacity of the reader semaphore, only used when the semaphore is created
	TTL    time.Duration // time to live of the slot, NoTTL for no expiration
}

// WriterState describes the writer lock that currently holds a key
type WriterState struct {
	Owner      string
	Expiration *time.Time // nil if the lock never expires
}

// ReaderState describes the reader semaphore that currently holds a key
type ReaderState struct {
	Limit         int
	AcquiredSlots map[string]*time.Time // reader id -> expiration, nil if the slot never expires
}

// State is the result of GetState. Exactly one of Writer and Reader is set.
type State struct {
	Writer *WriterState
	Reader *ReaderState
}

// --------------------------------------------------------------------------
// Adapter Interface
// --------------------------------------------------------------------------

// ISharedLockAdapter defines the contract of a reader/writer lock over named resources.
// A key is held either by one writer or by up to Limit readers, never both.
//
// Contention and absence are reported as false (or a nil state), never as an error.
// Errors are reserved for failures of the adapter itself, e.g. a broken connection
// for remote adapters. Acquisition never waits: it succeeds or fails immediately.
type ISharedLockAdapter interface {

	// --------------------------------------------------------------------------
	// Writer Operations
	// --------------------------------------------------------------------------

	// AcquireWriter acquires the writer lock for key.
	// It fails if readers hold the key or another owner holds the writer lock.
	// Acquiring again with the same lockID succeeds without changing the lock.
	AcquireWriter(key, lockID string, ttl time.Duration) (ok bool, err error)

	// ReleaseWriter releases the writer lock if it is owned by lockID.
	ReleaseWriter(key, lockID string) (ok bool, err error)

	// ForceReleaseWriter releases the writer lock regardless of its owner.
	ForceReleaseWriter(key string) (ok bool, err error)

	// RefreshWriter replaces the expiration of the writer lock owned by lockID.
	// A lock acquired without TTL cannot be refreshed.
	RefreshWriter(key, lockID string, ttl time.Duration) (ok bool, err error)

	// --------------------------------------------------------------------------
	// Reader Operations
	// --------------------------------------------------------------------------

	// AcquireReader acquires a reader slot. It fails if a writer holds the key
	// or all slots of the semaphore are taken. Acquiring again with a lockID
	// that already holds a slot succeeds.
	AcquireReader(settings AcquireSettings) (ok bool, err error)

	// ReleaseReader releases the slot held by lockID. Releasing the last slot
	// removes the semaphore.
	ReleaseReader(key, lockID string) (ok bool, err error)

	// ForceReleaseAllReaders removes the semaphore with all its slots.
	// It returns true if at least one slot was held.
	ForceReleaseAllReaders(key string) (ok bool, err error)

	// RefreshReader replaces the expiration of the slot held by lockID.
	// A slot acquired without TTL cannot be refreshed.
	RefreshReader(key, lockID string, ttl time.Duration) (ok bool, err error)

	// --------------------------------------------------------------------------
	// Key Operations
	// --------------------------------------------------------------------------

	// ForceRelease releases whatever holds the key, writer or readers.
	// It returns false if the key was free.
	ForceRelease(key string) (ok bool, err error)

	// GetState returns the current holder(s) of key, nil if the key is free.
	// Expired holders are never reported.
	GetState(key string) (state *State, err error)

	// Close cancels all pending expirations and removes all locks.
	Close() (err error)
}
