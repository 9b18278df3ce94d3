// Package memory provides an in-memory lock.ILockAdapter backed by the
// writer side of the in-memory shared lock adapter.
package memory

import (
	"time"

	"github.com/ValentinKolb/dLock/lib/lock"
	"github.com/ValentinKolb/dLock/lib/sharedlock"
	slmemory "github.com/ValentinKolb/dLock/lib/sharedlock/adapters/memory"
	"github.com/ValentinKolb/dLock/lib/timer"
)

var _ lock.ILockAdapter = (*MemoryLockAdapter)(nil)

type MemoryLockAdapter struct {
	shared *slmemory.MemorySharedLockAdapter
}

// NewMemoryLockAdapter creates a new in-memory lock adapter.
// nil selects the system clock.
func NewMemoryLockAdapter(scheduler timer.IScheduler) *MemoryLockAdapter {
	return &MemoryLockAdapter{
		shared: slmemory.NewMemorySharedLockAdapter(scheduler),
	}
}

func (a *MemoryLockAdapter) Acquire(key, lockID string, ttl time.Duration) (bool, error) {
	return a.shared.AcquireWriter(key, lockID, ttl)
}

func (a *MemoryLockAdapter) Release(key, lockID string) (bool, error) {
	return a.shared.ReleaseWriter(key, lockID)
}

func (a *MemoryLockAdapter) ForceRelease(key string) (bool, error) {
	return a.shared.ForceReleaseWriter(key)
}

func (a *MemoryLockAdapter) Refresh(key, lockID string, ttl time.Duration) (bool, error) {
	return a.shared.RefreshWriter(key, lockID, ttl)
}

func (a *MemoryLockAdapter) GetState(key string) (*lock.State, error) {
	state, err := a.shared.GetState(key)
	if err != nil || state == nil {
		return nil, err
	}
	if state.Writer == nil {
		// only writer locks are ever created through this adapter
		return nil, sharedlock.ErrInvalidState
	}
	return &lock.State{
		Owner:      state.Writer.Owner,
		Expiration: state.Writer.Expiration,
	}, nil
}

func (a *MemoryLockAdapter) Close() error {
	return a.shared.Close()
}

// Len returns the number of held locks
func (a *MemoryLockAdapter) Len() int {
	return a.shared.Len()
}
