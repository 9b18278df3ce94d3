package lockmgr

import (
	"context"

	"github.com/ValentinKolb/dLock/lib/sharedlock"
)

// ISharedLock is a handle on one shared lock, bound to a key and a lock id.
// All operations use the TTL and the limit the handle was created with.
type ISharedLock interface {
	// ID returns the lock id used for all acquisitions of this handle
	ID() string

	// Key returns the resource key
	Key() string

	// AcquireWriter tries to acquire the writer lock once.
	AcquireWriter() (ok bool, err error)

	// AcquireWriterBlocking retries AcquireWriter until it succeeds or ctx is done.
	AcquireWriterBlocking(ctx context.Context) (err error)

	// ReleaseWriter releases the writer lock held by this handle.
	ReleaseWriter() (ok bool, err error)

	// RefreshWriter extends the writer lock held by this handle by the default TTL.
	RefreshWriter() (ok bool, err error)

	// ForceReleaseWriter releases the writer lock of the key, whoever holds it.
	ForceReleaseWriter() (ok bool, err error)

	// AcquireReader tries to acquire a reader slot once.
	AcquireReader() (ok bool, err error)

	// AcquireReaderBlocking retries AcquireReader until it succeeds or ctx is done.
	AcquireReaderBlocking(ctx context.Context) (err error)

	// ReleaseReader releases the reader slot held by this handle.
	ReleaseReader() (ok bool, err error)

	// RefreshReader extends the reader slot held by this handle by the default TTL.
	RefreshReader() (ok bool, err error)

	// ForceReleaseAllReaders releases all reader slots of the key.
	ForceReleaseAllReaders() (ok bool, err error)

	// ForceRelease releases whatever holds the key.
	ForceRelease() (ok bool, err error)

	// GetState returns the holders of the key, nil if it is free.
	GetState() (state *sharedlock.State, err error)
}

// ISharedLockManager creates lock handles on a shared lock adapter.
type ISharedLockManager interface {
	// Create returns a new handle for key with a fresh lock id.
	// limit is the reader capacity used if the handle creates the semaphore.
	Create(key string, limit int) ISharedLock

	// Open returns a handle for key with the given lock id, e.g. to release
	// a lock acquired by an earlier process.
	Open(key, lockID string, limit int) ISharedLock
}
