package lock

import (
	"time"
)

// State describes the owner of a held lock
type State struct {
	Owner      string
	Expiration *time.Time // nil if the lock never expires
}

// ILockAdapter defines the contract of an exclusive lock over named resources.
// Contention and absence are reported as false (or a nil state), never as an error.
type ILockAdapter interface {
	// Acquire acquires the lock for key. Acquiring again with the same lockID succeeds.
	// A non-positive ttl acquires a lock that never expires.
	Acquire(key, lockID string, ttl time.Duration) (ok bool, err error)

	// Release releases the lock if it is owned by lockID.
	Release(key, lockID string) (ok bool, err error)

	// ForceRelease releases the lock regardless of its owner.
	ForceRelease(key string) (ok bool, err error)

	// Refresh replaces the expiration of the lock owned by lockID.
	// A lock acquired without TTL cannot be refreshed.
	Refresh(key, lockID string, ttl time.Duration) (ok bool, err error)

	// GetState returns the owner of key, nil if the key is free.
	GetState(key string) (state *State, err error)

	// Close releases all locks.
	Close() (err error)
}
