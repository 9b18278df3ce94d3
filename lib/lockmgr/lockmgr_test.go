package lockmgr

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ValentinKolb/dLock/lib/sharedlock/adapters/memory"
	"github.com/ValentinKolb/dLock/lib/timer"
)

func newManager(opts ...Option) (ISharedLockManager, *memory.MemorySharedLockAdapter) {
	adapter := memory.NewMemorySharedLockAdapter(nil)
	opts = append([]Option{WithRetryInterval(5 * time.Millisecond)}, opts...)
	return NewSharedLockManager(adapter, opts...), adapter
}

func TestCreateGeneratesUniqueIDs(t *testing.T) {
	mgr, adapter := newManager()
	defer adapter.Close()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		l := mgr.Create("key", 1)
		if l.Key() != "key" {
			t.Errorf("Expected key %q, got %q", "key", l.Key())
		}
		if seen[l.ID()] {
			t.Fatalf("Duplicate lock id %s", l.ID())
		}
		seen[l.ID()] = true
	}
}

func TestWithIDGenerator(t *testing.T) {
	mgr, adapter := newManager(WithIDGenerator(func() string { return "fixed" }))
	defer adapter.Close()

	if id := mgr.Create("key", 1).ID(); id != "fixed" {
		t.Errorf("Expected id %q, got %q", "fixed", id)
	}
}

func TestWriterHandles(t *testing.T) {
	mgr, adapter := newManager()
	defer adapter.Close()

	a := mgr.Create("key", 1)
	b := mgr.Create("key", 1)

	if ok, err := a.AcquireWriter(); err != nil || !ok {
		t.Fatalf("Expected a to acquire the writer lock, ok=%v err=%v", ok, err)
	}
	if ok, _ := b.AcquireWriter(); ok {
		t.Error("Expected b to be rejected")
	}
	if ok, _ := b.ReleaseWriter(); ok {
		t.Error("Expected b not to release a's lock")
	}

	state, _ := b.GetState()
	if state == nil || state.Writer == nil || state.Writer.Owner != a.ID() {
		t.Errorf("Expected writer %s, got %+v", a.ID(), state)
	}

	if ok, _ := b.ForceReleaseWriter(); !ok {
		t.Error("Expected force release to succeed")
	}
	if ok, _ := b.AcquireWriter(); !ok {
		t.Error("Expected b to acquire after force release")
	}
}

func TestReaderHandles(t *testing.T) {
	mgr, adapter := newManager()
	defer adapter.Close()

	r1 := mgr.Create("key", 2)
	r2 := mgr.Create("key", 2)
	r3 := mgr.Create("key", 2)

	for _, l := range []ISharedLock{r1, r2} {
		if ok, _ := l.AcquireReader(); !ok {
			t.Fatalf("Expected %s to acquire a reader slot", l.ID())
		}
	}
	if ok, _ := r3.AcquireReader(); ok {
		t.Error("Expected the third reader to be rejected")
	}

	if ok, _ := r1.ReleaseReader(); !ok {
		t.Error("Expected r1 to release its slot")
	}
	if ok, _ := r3.AcquireReader(); !ok {
		t.Error("Expected r3 to take the free slot")
	}

	if ok, _ := r3.ForceReleaseAllReaders(); !ok {
		t.Error("Expected force release of all readers to succeed")
	}
	if state, _ := r3.GetState(); state != nil {
		t.Errorf("Expected a free key, got %+v", state)
	}
}

func TestDefaultTTLAndRefresh(t *testing.T) {
	clock := timer.NewManualScheduler(time.Now())
	adapter := memory.NewMemorySharedLockAdapter(clock)
	defer adapter.Close()

	mgr := NewSharedLockManager(adapter, WithDefaultTTL(time.Minute))
	w := mgr.Create("w", 1)
	r := mgr.Create("r", 1)

	w.AcquireWriter()
	r.AcquireReader()

	clock.Advance(40 * time.Second)
	if ok, _ := w.RefreshWriter(); !ok {
		t.Error("Expected writer refresh to succeed")
	}
	if ok, _ := r.RefreshReader(); !ok {
		t.Error("Expected reader refresh to succeed")
	}

	clock.Advance(40 * time.Second)
	if state, _ := w.GetState(); state == nil {
		t.Error("Expected the refreshed writer lock to be held")
	}
	if state, _ := r.GetState(); state == nil {
		t.Error("Expected the refreshed reader slot to be held")
	}

	clock.Advance(time.Minute)
	if ok, _ := w.ForceRelease(); ok {
		t.Error("Expected the writer lock to have expired")
	}
}

func TestOpenReleasesForeignLock(t *testing.T) {
	mgr, adapter := newManager()
	defer adapter.Close()

	original := mgr.Create("key", 1)
	original.AcquireWriter()

	reopened := mgr.Open("key", original.ID(), 1)
	if ok, _ := reopened.ReleaseWriter(); !ok {
		t.Error("Expected a reopened handle to release the lock")
	}
}

func TestAcquireWriterBlocking(t *testing.T) {
	mgr, adapter := newManager()
	defer adapter.Close()

	holder := mgr.Create("key", 1)
	waiter := mgr.Create("key", 1)
	holder.AcquireReader()

	go func() {
		time.Sleep(30 * time.Millisecond)
		holder.ReleaseReader()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := waiter.AcquireWriterBlocking(ctx); err != nil {
		t.Fatalf("Expected blocking acquisition to succeed, got %v", err)
	}

	state, _ := waiter.GetState()
	if state == nil || state.Writer == nil || state.Writer.Owner != waiter.ID() {
		t.Errorf("Expected waiter to hold the writer lock, got %+v", state)
	}
}

func TestAcquireReaderBlockingCancelled(t *testing.T) {
	mgr, adapter := newManager()
	defer adapter.Close()

	holder := mgr.Create("key", 1)
	waiter := mgr.Create("key", 1)
	holder.AcquireWriter()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := waiter.AcquireReaderBlocking(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded, got %v", err)
	}
}
