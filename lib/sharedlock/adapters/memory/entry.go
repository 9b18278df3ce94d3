package memory

import (
	"time"

	"github.com/ValentinKolb/dLock/lib/timer"
)

// entry is the state of one occupied key: either a *writerEntry or a *readerEntry.
// A free key has no entry at all.
type entry interface {
	isEntry()
	// stopTimers cancels every pending expiration held by the entry
	stopTimers()
}

// expiry is a scheduled expiration. A nil *expiry means "never expires".
type expiry struct {
	at    time.Time
	timer timer.ITimer
}

func (e *expiry) expired(now time.Time) bool {
	return e != nil && !now.Before(e.at)
}

func (e *expiry) stop() {
	if e != nil && e.timer != nil {
		e.timer.Stop()
	}
}

// expiration returns a copy of the expiration time, nil if there is none
func (e *expiry) expiration() *time.Time {
	if e == nil {
		return nil
	}
	at := e.at
	return &at
}

// --------------------------------------------------------------------------
// Writer Lock
// --------------------------------------------------------------------------

type writerEntry struct {
	owner  string
	expiry *expiry
}

func (*writerEntry) isEntry() {}

func (w *writerEntry) stopTimers() {
	w.expiry.stop()
}

// --------------------------------------------------------------------------
// Reader Semaphore
// --------------------------------------------------------------------------

type readerSlot struct {
	expiry *expiry
}

type readerEntry struct {
	limit int // fixed when the semaphore is created
	slots map[string]*readerSlot
}

func newReaderEntry(limit int) *readerEntry {
	return &readerEntry{
		limit: limit,
		slots: make(map[string]*readerSlot, limit),
	}
}

func (*readerEntry) isEntry() {}

func (r *readerEntry) stopTimers() {
	for _, slot := range r.slots {
		slot.expiry.stop()
	}
}

// --------------------------------------------------------------------------
// Sweeping
// --------------------------------------------------------------------------

// sweep removes holders whose expiration has passed and returns what is left
// of the entry, nil if nothing is left. Timers of removed holders are stopped.
func sweep(e entry, now time.Time) entry {
	switch e := e.(type) {
	case *writerEntry:
		if e != nil && e.expiry.expired(now) {
			e.expiry.stop()
			return nil
		}
	case *readerEntry:
		if e == nil {
			return e
		}
		for id, slot := range e.slots {
			if slot.expiry.expired(now) {
				slot.expiry.stop()
				delete(e.slots, id)
			}
		}
		if len(e.slots) == 0 {
			return nil
		}
	}
	return e
}
