package memory

import (
	"time"

	"github.com/ValentinKolb/dLock/lib/sharedlock"
	"github.com/ValentinKolb/dLock/lib/timer"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("sharedlock")

var _ sharedlock.ISharedLockAdapter = (*MemorySharedLockAdapter)(nil)

// MemorySharedLockAdapter is an in-memory sharedlock.ISharedLockAdapter.
// It is limited to a single process.
type MemorySharedLockAdapter struct {
	scheduler timer.IScheduler
	table     *xsync.MapOf[string, entry]
}

// NewMemorySharedLockAdapter creates a new in-memory shared lock adapter.
// Expirations are scheduled on the given scheduler, nil selects the system clock.
func NewMemorySharedLockAdapter(scheduler timer.IScheduler) *MemorySharedLockAdapter {
	if scheduler == nil {
		scheduler = timer.NewSystemScheduler()
	}
	return &MemorySharedLockAdapter{
		scheduler: scheduler,
		table:     xsync.NewMapOf[string, entry](),
	}
}

// Len returns the number of occupied keys
func (a *MemorySharedLockAdapter) Len() int {
	return a.table.Size()
}

// --------------------------------------------------------------------------
// Interface Methods (docu see sharedlock.ISharedLockAdapter)
// --------------------------------------------------------------------------

func (a *MemorySharedLockAdapter) AcquireWriter(key, lockID string, ttl time.Duration) (bool, error) {
	ok := false
	a.update(key, func(cur entry, now time.Time) entry {
		switch e := cur.(type) {
		case *readerEntry:
			return e
		case *writerEntry:
			ok = e.owner == lockID
			return e
		}

		w := &writerEntry{owner: lockID}
		if ttl > 0 {
			w.expiry = a.schedule(ttl, now, func(exp *expiry) {
				a.expireWriter(key, w, exp)
			})
		}
		ok = true
		return w
	})
	return ok, nil
}

func (a *MemorySharedLockAdapter) ReleaseWriter(key, lockID string) (bool, error) {
	ok := false
	a.update(key, func(cur entry, _ time.Time) entry {
		w, isWriter := cur.(*writerEntry)
		if !isWriter || w.owner != lockID {
			return cur
		}
		w.stopTimers()
		ok = true
		return nil
	})
	return ok, nil
}

func (a *MemorySharedLockAdapter) ForceReleaseWriter(key string) (bool, error) {
	ok := false
	a.update(key, func(cur entry, _ time.Time) entry {
		w, isWriter := cur.(*writerEntry)
		if !isWriter {
			return cur
		}
		w.stopTimers()
		ok = true
		return nil
	})
	return ok, nil
}

func (a *MemorySharedLockAdapter) RefreshWriter(key, lockID string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, nil
	}

	ok := false
	a.update(key, func(cur entry, now time.Time) entry {
		w, isWriter := cur.(*writerEntry)
		if !isWriter || w.owner != lockID || w.expiry == nil {
			return cur
		}
		w.expiry.stop()
		w.expiry = a.schedule(ttl, now, func(exp *expiry) {
			a.expireWriter(key, w, exp)
		})
		ok = true
		return w
	})
	return ok, nil
}

func (a *MemorySharedLockAdapter) AcquireReader(settings sharedlock.AcquireSettings) (bool, error) {
	if settings.Limit < 1 {
		return false, nil
	}

	key, lockID := settings.Key, settings.LockID
	ok := false
	a.update(key, func(cur entry, now time.Time) entry {
		var r *readerEntry
		switch e := cur.(type) {
		case *writerEntry:
			return e
		case *readerEntry:
			r = e
		default:
			r = newReaderEntry(settings.Limit)
		}

		if _, held := r.slots[lockID]; held {
			ok = true
			return r
		}

		// capacity is a hard ceiling on distinct readers
		if len(r.slots) >= r.limit {
			return cur
		}

		slot := &readerSlot{}
		if settings.TTL > 0 {
			slot.expiry = a.schedule(settings.TTL, now, func(exp *expiry) {
				a.expireReader(key, lockID, r, slot, exp)
			})
		}
		r.slots[lockID] = slot
		ok = true
		return r
	})
	return ok, nil
}

func (a *MemorySharedLockAdapter) ReleaseReader(key, lockID string) (bool, error) {
	ok := false
	a.update(key, func(cur entry, _ time.Time) entry {
		r, isReader := cur.(*readerEntry)
		if !isReader {
			return cur
		}
		slot, held := r.slots[lockID]
		if !held {
			return cur
		}

		slot.expiry.stop()
		delete(r.slots, lockID)
		ok = true

		if len(r.slots) == 0 {
			return nil
		}
		return r
	})
	return ok, nil
}

func (a *MemorySharedLockAdapter) ForceReleaseAllReaders(key string) (bool, error) {
	ok := false
	a.update(key, func(cur entry, _ time.Time) entry {
		r, isReader := cur.(*readerEntry)
		if !isReader {
			return cur
		}
		ok = len(r.slots) > 0
		r.stopTimers()
		return nil
	})
	return ok, nil
}

func (a *MemorySharedLockAdapter) RefreshReader(key, lockID string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, nil
	}

	ok := false
	a.update(key, func(cur entry, now time.Time) entry {
		r, isReader := cur.(*readerEntry)
		if !isReader {
			return cur
		}
		slot, held := r.slots[lockID]
		if !held || slot.expiry == nil {
			return cur
		}

		slot.expiry.stop()
		slot.expiry = a.schedule(ttl, now, func(exp *expiry) {
			a.expireReader(key, lockID, r, slot, exp)
		})
		ok = true
		return r
	})
	return ok, nil
}

// ForceRelease frees the key in a single step. Writer and reader state exclude
// each other, so at most one of them is released.
func (a *MemorySharedLockAdapter) ForceRelease(key string) (bool, error) {
	ok := false
	a.update(key, func(cur entry, _ time.Time) entry {
		switch e := cur.(type) {
		case *writerEntry:
			e.stopTimers()
			ok = true
		case *readerEntry:
			e.stopTimers()
			ok = len(e.slots) > 0
		default:
			return cur
		}
		return nil
	})
	return ok, nil
}

func (a *MemorySharedLockAdapter) GetState(key string) (*sharedlock.State, error) {
	var state *sharedlock.State
	var err error

	a.update(key, func(cur entry, _ time.Time) entry {
		switch e := cur.(type) {
		case nil:
		case *writerEntry:
			if e == nil {
				err = sharedlock.ErrInvalidState
				break
			}
			state = &sharedlock.State{
				Writer: &sharedlock.WriterState{
					Owner:      e.owner,
					Expiration: e.expiry.expiration(),
				},
			}
		case *readerEntry:
			if e == nil {
				err = sharedlock.ErrInvalidState
				break
			}
			if len(e.slots) == 0 {
				break
			}
			slots := make(map[string]*time.Time, len(e.slots))
			for id, slot := range e.slots {
				slots[id] = slot.expiry.expiration()
			}
			state = &sharedlock.State{
				Reader: &sharedlock.ReaderState{
					Limit:         e.limit,
					AcquiredSlots: slots,
				},
			}
		default:
			err = sharedlock.ErrInvalidState
		}
		return cur
	})

	return state, err
}

func (a *MemorySharedLockAdapter) Close() error {
	count := 0
	a.table.Range(func(key string, _ entry) bool {
		a.table.Compute(key, func(old entry, loaded bool) (entry, bool) {
			if loaded && old != nil {
				old.stopTimers()
				count++
			}
			return nil, true
		})
		return true
	})
	Logger.Debugf("closed shared lock adapter, released %d keys", count)
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// update atomically replaces the entry of key with the result of fn.
// fn receives the current entry with expired holders already removed (nil for
// a free key) and returns the new entry, nil to free the key.
func (a *MemorySharedLockAdapter) update(key string, fn func(cur entry, now time.Time) entry) {
	a.table.Compute(key, func(old entry, loaded bool) (entry, bool) {
		now := a.scheduler.Now()

		var cur entry
		if loaded {
			cur = sweep(old, now)
		}

		next := fn(cur, now)
		if next == nil {
			return nil, true
		}
		return next, false
	})
}

// schedule creates an expiry ttl after now. onExpire receives the expiry it
// was scheduled for, so callbacks can tell whether they are still current.
func (a *MemorySharedLockAdapter) schedule(ttl time.Duration, now time.Time, onExpire func(exp *expiry)) *expiry {
	exp := &expiry{at: now.Add(ttl)}
	exp.timer = a.scheduler.AfterFunc(ttl, func() {
		onExpire(exp)
	})
	return exp
}

// expireWriter removes the writer lock w if it is still the lock of key and
// exp is still its expiry. A lock that was released, replaced or refreshed in
// the meantime is left alone.
func (a *MemorySharedLockAdapter) expireWriter(key string, w *writerEntry, exp *expiry) {
	a.table.Compute(key, func(old entry, loaded bool) (entry, bool) {
		if !loaded {
			return nil, true
		}
		cur, isWriter := old.(*writerEntry)
		if !isWriter || cur != w || cur.expiry != exp {
			return old, false
		}
		Logger.Debugf("writer lock %q of %q expired", w.owner, key)
		return nil, true
	})
}

// expireReader removes the slot of lockID from the semaphore r, under the same
// rules as expireWriter. Removing the last slot frees the key.
func (a *MemorySharedLockAdapter) expireReader(key, lockID string, r *readerEntry, slot *readerSlot, exp *expiry) {
	a.table.Compute(key, func(old entry, loaded bool) (entry, bool) {
		if !loaded {
			return nil, true
		}
		cur, isReader := old.(*readerEntry)
		if !isReader || cur != r {
			return old, false
		}
		if s, held := cur.slots[lockID]; !held || s != slot || s.expiry != exp {
			return old, false
		}

		delete(cur.slots, lockID)
		Logger.Debugf("reader slot %q of %q expired", lockID, key)

		if len(cur.slots) == 0 {
			return nil, true
		}
		return cur, false
	})
}
