package timer

import (
	"sync"
	"time"

	"github.com/ValentinKolb/dLock/lib/util"
)

// ManualScheduler is a scheduler whose clock only moves when Advance is called.
// It makes expiration logic testable without real wall-clock waits.
type ManualScheduler struct {
	mu      sync.Mutex
	start   time.Time // priorities in the heap are offsets from start
	now     time.Time
	nextID  uint64
	pending *util.MapHeap
	funcs   map[uint64]func()
}

// NewManualScheduler creates a manual scheduler whose clock starts at start
func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{
		start:   start,
		now:     start,
		pending: util.NewMapHeap(),
		funcs:   make(map[uint64]func()),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see timer.IScheduler)
// --------------------------------------------------------------------------

func (s *ManualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) ITimer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d < 0 {
		d = 0
	}

	s.nextID++
	id := s.nextID
	s.pending.AddItem(id, uint64(s.now.Add(d).Sub(s.start)))
	s.funcs[id] = f

	return &manualTimer{scheduler: s, id: id}
}

// --------------------------------------------------------------------------
// Clock Control
// --------------------------------------------------------------------------

// Advance moves the clock forward by d and runs every callback whose deadline
// is reached, in deadline order. While a callback runs, Now reports the
// callback's deadline. Callbacks are called without holding the scheduler's
// lock, so they may schedule or stop timers themselves; timers they schedule
// within the advanced window fire during the same call.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	limit := uint64(target.Sub(s.start))
	s.mu.Unlock()

	for {
		s.mu.Lock()
		next, ok := s.pending.Peek()
		if !ok || next.Priority > limit {
			s.now = target
			s.mu.Unlock()
			return
		}

		item := s.pending.PopMin()
		f := s.funcs[item.Key]
		delete(s.funcs, item.Key)
		s.now = s.start.Add(time.Duration(item.Priority))
		s.mu.Unlock()

		f()
	}
}

// Pending returns the number of scheduled timers that have neither fired nor been stopped
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.Len()
}

// --------------------------------------------------------------------------
// Timer Handle
// --------------------------------------------------------------------------

type manualTimer struct {
	scheduler *ManualScheduler
	id        uint64
}

func (t *manualTimer) Stop() bool {
	t.scheduler.mu.Lock()
	defer t.scheduler.mu.Unlock()

	delete(t.scheduler.funcs, t.id)
	_, removed := t.scheduler.pending.RemoveByKey(t.id)
	return removed
}
