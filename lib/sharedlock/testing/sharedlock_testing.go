package testing

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/dLock/lib/sharedlock"
)

// AdapterFactory creates a fresh adapter for a single test. advance must let
// the adapter's clock move forward by d, e.g. ManualScheduler.Advance for
// in-memory adapters or time.Sleep for adapters on the system clock.
type AdapterFactory func() (adapter sharedlock.ISharedLockAdapter, advance func(d time.Duration))

// Durations used by the expiration tests. They are large enough to be
// reliable on the system clock and exact on a manual clock.
const (
	shortTTL = 100 * time.Millisecond
	longTTL  = 400 * time.Millisecond
)

// RunSharedLockAdapterTests runs the conformance test suite for a ISharedLockAdapter implementation.
func RunSharedLockAdapterTests(t *testing.T, name string, factory AdapterFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("WriterAcquireRelease", func(t *testing.T) {
			testWriterAcquireRelease(t, factory)
		})

		t.Run("WriterReentrancy", func(t *testing.T) {
			testWriterReentrancy(t, factory)
		})

		t.Run("ForceReleaseWriter", func(t *testing.T) {
			testForceReleaseWriter(t, factory)
		})

		t.Run("WriterExpiration", func(t *testing.T) {
			testWriterExpiration(t, factory)
		})

		t.Run("RefreshWriter", func(t *testing.T) {
			testRefreshWriter(t, factory)
		})

		t.Run("RefreshRejectsNonExpiring", func(t *testing.T) {
			testRefreshRejectsNonExpiring(t, factory)
		})

		t.Run("ReaderCapacity", func(t *testing.T) {
			testReaderCapacity(t, factory)
		})

		t.Run("ReaderIdempotent", func(t *testing.T) {
			testReaderIdempotent(t, factory)
		})

		t.Run("ReaderLimitFixedAtCreation", func(t *testing.T) {
			testReaderLimitFixed(t, factory)
		})

		t.Run("ReaderInvalidLimit", func(t *testing.T) {
			testReaderInvalidLimit(t, factory)
		})

		t.Run("ReaderExpiration", func(t *testing.T) {
			testReaderExpiration(t, factory)
		})

		t.Run("RefreshReader", func(t *testing.T) {
			testRefreshReader(t, factory)
		})

		t.Run("CrossModeExclusion", func(t *testing.T) {
			testCrossModeExclusion(t, factory)
		})

		t.Run("ReleaseCleanup", func(t *testing.T) {
			testReleaseCleanup(t, factory)
		})

		t.Run("ForceReleaseAllReaders", func(t *testing.T) {
			testForceReleaseAllReaders(t, factory)
		})

		t.Run("ForceRelease", func(t *testing.T) {
			testForceRelease(t, factory)
		})

		t.Run("GetState", func(t *testing.T) {
			testGetState(t, factory)
		})

		t.Run("StaleTimerAfterReacquire", func(t *testing.T) {
			testStaleTimerAfterReacquire(t, factory)
		})

		t.Run("IndependentKeys", func(t *testing.T) {
			testIndependentKeys(t, factory)
		})

		t.Run("Close", func(t *testing.T) {
			testClose(t, factory)
		})

		t.Run("ConcurrentWriters", func(t *testing.T) {
			testConcurrentWriters(t, factory)
		})

		t.Run("ConcurrentReaders", func(t *testing.T) {
			testConcurrentReaders(t, factory)
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// expect fails the test if the operation returned an error or an unexpected result
func expect(t testing.TB, op string, want bool) func(got bool, err error) {
	t.Helper()
	return func(got bool, err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", op, err)
		}
		if got != want {
			t.Errorf("%s: expected %v, got %v", op, want, got)
		}
	}
}

// mustState returns the state of key and fails the test on error
func mustState(t testing.TB, adapter sharedlock.ISharedLockAdapter, key string) *sharedlock.State {
	t.Helper()
	state, err := adapter.GetState(key)
	if err != nil {
		t.Fatalf("GetState(%s): unexpected error: %v", key, err)
	}
	return state
}

// expectFree fails the test if key is held by anyone
func expectFree(t testing.TB, adapter sharedlock.ISharedLockAdapter, key string) {
	t.Helper()
	if state := mustState(t, adapter, key); state != nil {
		t.Errorf("Expected %s to be free, got writer=%+v reader=%+v", key, state.Writer, state.Reader)
	}
}

// expectWriter fails the test if key is not held by the writer owner
func expectWriter(t testing.TB, adapter sharedlock.ISharedLockAdapter, key, owner string) *sharedlock.WriterState {
	t.Helper()
	state := mustState(t, adapter, key)
	if state == nil || state.Writer == nil {
		t.Fatalf("Expected %s to be held by writer %s, got %+v", key, owner, state)
	}
	if state.Reader != nil {
		t.Errorf("Writer state of %s must not carry a reader state", key)
	}
	if state.Writer.Owner != owner {
		t.Errorf("Expected writer owner %s, got %s", owner, state.Writer.Owner)
	}
	return state.Writer
}

// expectReaders fails the test if key is not held by exactly the given readers
func expectReaders(t testing.TB, adapter sharedlock.ISharedLockAdapter, key string, ids ...string) *sharedlock.ReaderState {
	t.Helper()
	state := mustState(t, adapter, key)
	if state == nil || state.Reader == nil {
		t.Fatalf("Expected %s to be held by readers %v, got %+v", key, ids, state)
	}
	if state.Writer != nil {
		t.Errorf("Reader state of %s must not carry a writer state", key)
	}
	if len(state.Reader.AcquiredSlots) != len(ids) {
		t.Errorf("Expected %d reader slots, got %d", len(ids), len(state.Reader.AcquiredSlots))
	}
	for _, id := range ids {
		if _, ok := state.Reader.AcquiredSlots[id]; !ok {
			t.Errorf("Expected reader %s to hold a slot of %s", id, key)
		}
	}
	return state.Reader
}

func reader(key, id string, limit int, ttl time.Duration) sharedlock.AcquireSettings {
	return sharedlock.AcquireSettings{Key: key, LockID: id, Limit: limit, TTL: ttl}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testWriterAcquireRelease(t *testing.T, factory AdapterFactory) {
	adapter, _ := factory()
	defer adapter.Close()

	expect(t, "AcquireWriter(A)", true)(adapter.AcquireWriter("key", "A", sharedlock.NoTTL))
	expectWriter(t, adapter, "key", "A")

	expect(t, "ReleaseWriter(B)", false)(adapter.ReleaseWriter("key", "B"))
	expectWriter(t, adapter, "key", "A")

	expect(t, "ReleaseWriter(A)", true)(adapter.ReleaseWriter("key", "A"))
	expectFree(t, adapter, "key")

	expect(t, "ReleaseWriter(A) again", false)(adapter.ReleaseWriter("key", "A"))
	expect(t, "ReleaseWriter(unknown key)", false)(adapter.ReleaseWriter("missing", "A"))
}

func testWriterReentrancy(t *testing.T, factory AdapterFactory) {
	adapter, _ := factory()
	defer adapter.Close()

	expect(t, "AcquireWriter(A)", true)(adapter.AcquireWriter("key", "A", shortTTL))
	expect(t, "AcquireWriter(A) again", true)(adapter.AcquireWriter("key", "A", shortTTL))
	expect(t, "AcquireWriter(B)", false)(adapter.AcquireWriter("key", "B", shortTTL))
	expectWriter(t, adapter, "key", "A")
}

func testForceReleaseWriter(t *testing.T, factory AdapterFactory) {
	adapter, _ := factory()
	defer adapter.Close()

	expect(t, "ForceReleaseWriter(free)", false)(adapter.ForceReleaseWriter("key"))

	expect(t, "AcquireWriter(A)", true)(adapter.AcquireWriter("key", "A", shortTTL))
	expect(t, "ForceReleaseWriter", true)(adapter.ForceReleaseWriter("key"))
	expectFree(t, adapter, "key")
	expect(t, "AcquireWriter(B)", true)(adapter.AcquireWriter("key", "B", sharedlock.NoTTL))

	// readers are not touched by a writer force release
	expect(t, "AcquireReader(R)", true)(adapter.AcquireReader(reader("readers", "R", 1, sharedlock.NoTTL)))
	expect(t, "ForceReleaseWriter(readers)", false)(adapter.ForceReleaseWriter("readers"))
	expectReaders(t, adapter, "readers", "R")
}

func testWriterExpiration(t *testing.T, factory AdapterFactory) {
	adapter, advance := factory()
	defer adapter.Close()

	expect(t, "AcquireWriter(A)", true)(adapter.AcquireWriter("key", "A", shortTTL))
	if w := expectWriter(t, adapter, "key", "A"); w.Expiration == nil {
		t.Error("Expected the writer lock to carry an expiration")
	}

	advance(shortTTL + shortTTL/2)

	expectFree(t, adapter, "key")
	expect(t, "AcquireWriter(B) after expiry", true)(adapter.AcquireWriter("key", "B", sharedlock.NoTTL))
	expectWriter(t, adapter, "key", "B")
}

func testRefreshWriter(t *testing.T, factory AdapterFactory) {
	adapter, advance := factory()
	defer adapter.Close()

	expect(t, "AcquireWriter(A)", true)(adapter.AcquireWriter("key", "A", shortTTL))
	before := expectWriter(t, adapter, "key", "A").Expiration

	advance(shortTTL / 2)
	expect(t, "RefreshWriter(B)", false)(adapter.RefreshWriter("key", "B", longTTL))
	expect(t, "RefreshWriter(A, 0)", false)(adapter.RefreshWriter("key", "A", 0))
	expect(t, "RefreshWriter(A)", true)(adapter.RefreshWriter("key", "A", longTTL))

	after := expectWriter(t, adapter, "key", "A").Expiration
	if before == nil || after == nil || !after.After(*before) {
		t.Errorf("Expected refresh to move the expiration forward, before=%v after=%v", before, after)
	}

	// past the original expiration, still inside the refreshed one
	advance(shortTTL)
	expectWriter(t, adapter, "key", "A")

	advance(longTTL)
	expectFree(t, adapter, "key")
	expect(t, "RefreshWriter(A) after expiry", false)(adapter.RefreshWriter("key", "A", longTTL))
}

func testRefreshRejectsNonExpiring(t *testing.T, factory AdapterFactory) {
	adapter, _ := factory()
	defer adapter.Close()

	expect(t, "AcquireWriter(A)", true)(adapter.AcquireWriter("writer", "A", sharedlock.NoTTL))
	expect(t, "RefreshWriter(A)", false)(adapter.RefreshWriter("writer", "A", shortTTL))
	if w := expectWriter(t, adapter, "writer", "A"); w.Expiration != nil {
		t.Errorf("Expected non-expiring lock to stay non-expiring, got %v", *w.Expiration)
	}

	expect(t, "AcquireReader(R)", true)(adapter.AcquireReader(reader("reader", "R", 1, sharedlock.NoTTL)))
	expect(t, "RefreshReader(R)", false)(adapter.RefreshReader("reader", "R", shortTTL))
}

func testReaderCapacity(t *testing.T, factory AdapterFactory) {
	adapter, _ := factory()
	defer adapter.Close()

	expect(t, "AcquireReader(A)", true)(adapter.AcquireReader(reader("key", "A", 2, sharedlock.NoTTL)))
	expect(t, "AcquireReader(B)", true)(adapter.AcquireReader(reader("key", "B", 2, sharedlock.NoTTL)))
	expect(t, "AcquireReader(C)", false)(adapter.AcquireReader(reader("key", "C", 2, sharedlock.NoTTL)))
	expectReaders(t, adapter, "key", "A", "B")

	expect(t, "ReleaseReader(A)", true)(adapter.ReleaseReader("key", "A"))
	expect(t, "AcquireReader(C) after release", true)(adapter.AcquireReader(reader("key", "C", 2, sharedlock.NoTTL)))
	expectReaders(t, adapter, "key", "B", "C")
}

func testReaderIdempotent(t *testing.T, factory AdapterFactory) {
	adapter, _ := factory()
	defer adapter.Close()

	expect(t, "AcquireReader(A)", true)(adapter.AcquireReader(reader("key", "A", 1, sharedlock.NoTTL)))
	// the semaphore is full, but A already holds a slot
	expect(t, "AcquireReader(A) again", true)(adapter.AcquireReader(reader("key", "A", 1, sharedlock.NoTTL)))
	expectReaders(t, adapter, "key", "A")

	expect(t, "ReleaseReader(A)", true)(adapter.ReleaseReader("key", "A"))
	expect(t, "ReleaseReader(A) again", false)(adapter.ReleaseReader("key", "A"))
}

func testReaderLimitFixed(t *testing.T, factory AdapterFactory) {
	adapter, _ := factory()
	defer adapter.Close()

	expect(t, "AcquireReader(A)", true)(adapter.AcquireReader(reader("key", "A", 1, sharedlock.NoTTL)))
	// a larger limit on a later call does not resize the semaphore
	expect(t, "AcquireReader(B, limit 5)", false)(adapter.AcquireReader(reader("key", "B", 5, sharedlock.NoTTL)))

	if r := expectReaders(t, adapter, "key", "A"); r.Limit != 1 {
		t.Errorf("Expected limit 1, got %d", r.Limit)
	}

	// once the semaphore is gone, the next acquisition sets a new limit
	expect(t, "ReleaseReader(A)", true)(adapter.ReleaseReader("key", "A"))
	expect(t, "AcquireReader(B, limit 5)", true)(adapter.AcquireReader(reader("key", "B", 5, sharedlock.NoTTL)))
	if r := expectReaders(t, adapter, "key", "B"); r.Limit != 5 {
		t.Errorf("Expected limit 5, got %d", r.Limit)
	}
}

func testReaderInvalidLimit(t *testing.T, factory AdapterFactory) {
	adapter, _ := factory()
	defer adapter.Close()

	expect(t, "AcquireReader(limit 0)", false)(adapter.AcquireReader(reader("key", "A", 0, sharedlock.NoTTL)))
	expect(t, "AcquireReader(limit -1)", false)(adapter.AcquireReader(reader("key", "A", -1, sharedlock.NoTTL)))
	expectFree(t, adapter, "key")
	expect(t, "AcquireWriter(B)", true)(adapter.AcquireWriter("key", "B", sharedlock.NoTTL))
}

func testReaderExpiration(t *testing.T, factory AdapterFactory) {
	adapter, advance := factory()
	defer adapter.Close()

	expect(t, "AcquireReader(A)", true)(adapter.AcquireReader(reader("key", "A", 2, shortTTL)))
	expect(t, "AcquireReader(B)", true)(adapter.AcquireReader(reader("key", "B", 2, longTTL)))

	advance(shortTTL + shortTTL/2)

	// only the slot of A expired, the semaphore stays
	expectReaders(t, adapter, "key", "B")
	expect(t, "AcquireWriter(W) with reader B", false)(adapter.AcquireWriter("key", "W", sharedlock.NoTTL))

	advance(longTTL)

	// the last slot expired, so the key is free again
	expectFree(t, adapter, "key")
	expect(t, "AcquireWriter(W) after expiry", true)(adapter.AcquireWriter("key", "W", sharedlock.NoTTL))
}

func testRefreshReader(t *testing.T, factory AdapterFactory) {
	adapter, advance := factory()
	defer adapter.Close()

	expect(t, "AcquireReader(A)", true)(adapter.AcquireReader(reader("key", "A", 2, shortTTL)))

	advance(shortTTL / 2)
	expect(t, "RefreshReader(B)", false)(adapter.RefreshReader("key", "B", longTTL))
	expect(t, "RefreshReader(A, 0)", false)(adapter.RefreshReader("key", "A", 0))
	expect(t, "RefreshReader(A)", true)(adapter.RefreshReader("key", "A", longTTL))
	expect(t, "RefreshReader(missing)", false)(adapter.RefreshReader("missing", "A", longTTL))

	advance(shortTTL)
	r := expectReaders(t, adapter, "key", "A")
	if r.AcquiredSlots["A"] == nil {
		t.Error("Expected the refreshed slot to carry an expiration")
	}

	advance(longTTL)
	expectFree(t, adapter, "key")
}

func testCrossModeExclusion(t *testing.T, factory AdapterFactory) {
	adapter, _ := factory()
	defer adapter.Close()

	expect(t, "AcquireReader(A)", true)(adapter.AcquireReader(reader("k1", "A", 1, sharedlock.NoTTL)))
	expect(t, "AcquireWriter(B) on reader key", false)(adapter.AcquireWriter("k1", "B", sharedlock.NoTTL))
	expect(t, "ReleaseWriter(B) on reader key", false)(adapter.ReleaseWriter("k1", "B"))
	expect(t, "RefreshWriter(B) on reader key", false)(adapter.RefreshWriter("k1", "B", shortTTL))

	expect(t, "AcquireWriter(B)", true)(adapter.AcquireWriter("k2", "B", sharedlock.NoTTL))
	expect(t, "AcquireReader(A) on writer key", false)(adapter.AcquireReader(reader("k2", "A", 1, sharedlock.NoTTL)))
	expect(t, "ReleaseReader(A) on writer key", false)(adapter.ReleaseReader("k2", "A"))
	expect(t, "RefreshReader(A) on writer key", false)(adapter.RefreshReader("k2", "A", shortTTL))
	expect(t, "ForceReleaseAllReaders on writer key", false)(adapter.ForceReleaseAllReaders("k2"))

	// the same id does not bridge the two modes
	expect(t, "AcquireReader(B) on own writer key", false)(adapter.AcquireReader(reader("k2", "B", 1, sharedlock.NoTTL)))

	expectReaders(t, adapter, "k1", "A")
	expectWriter(t, adapter, "k2", "B")
}

func testReleaseCleanup(t *testing.T, factory AdapterFactory) {
	adapter, _ := factory()
	defer adapter.Close()

	expect(t, "AcquireReader(A)", true)(adapter.AcquireReader(reader("key", "A", 3, sharedlock.NoTTL)))
	expect(t, "ReleaseReader(A)", true)(adapter.ReleaseReader("key", "A"))

	expectFree(t, adapter, "key")
	expect(t, "AcquireWriter(B)", true)(adapter.AcquireWriter("key", "B", sharedlock.NoTTL))
}

func testForceReleaseAllReaders(t *testing.T, factory AdapterFactory) {
	adapter, _ := factory()
	defer adapter.Close()

	expect(t, "ForceReleaseAllReaders(free)", false)(adapter.ForceReleaseAllReaders("key"))

	expect(t, "AcquireReader(A)", true)(adapter.AcquireReader(reader("key", "A", 3, shortTTL)))
	expect(t, "AcquireReader(B)", true)(adapter.AcquireReader(reader("key", "B", 3, sharedlock.NoTTL)))

	expect(t, "ForceReleaseAllReaders", true)(adapter.ForceReleaseAllReaders("key"))
	expectFree(t, adapter, "key")
	expect(t, "ForceReleaseAllReaders again", false)(adapter.ForceReleaseAllReaders("key"))

	expect(t, "AcquireWriter(W)", true)(adapter.AcquireWriter("key", "W", sharedlock.NoTTL))
}

func testForceRelease(t *testing.T, factory AdapterFactory) {
	adapter, _ := factory()
	defer adapter.Close()

	expect(t, "ForceRelease(free)", false)(adapter.ForceRelease("key"))

	expect(t, "AcquireWriter(A)", true)(adapter.AcquireWriter("key", "A", shortTTL))
	expect(t, "ForceRelease(writer)", true)(adapter.ForceRelease("key"))
	expectFree(t, adapter, "key")

	expect(t, "AcquireReader(R1)", true)(adapter.AcquireReader(reader("key", "R1", 2, sharedlock.NoTTL)))
	expect(t, "AcquireReader(R2)", true)(adapter.AcquireReader(reader("key", "R2", 2, shortTTL)))
	expect(t, "ForceRelease(readers)", true)(adapter.ForceRelease("key"))
	expectFree(t, adapter, "key")

	expect(t, "ForceRelease(free again)", false)(adapter.ForceRelease("key"))
	expect(t, "AcquireWriter(B)", true)(adapter.AcquireWriter("key", "B", sharedlock.NoTTL))
}

func testGetState(t *testing.T, factory AdapterFactory) {
	adapter, _ := factory()
	defer adapter.Close()

	expectFree(t, adapter, "missing")

	expect(t, "AcquireWriter(A)", true)(adapter.AcquireWriter("writer", "A", sharedlock.NoTTL))
	if w := expectWriter(t, adapter, "writer", "A"); w.Expiration != nil {
		t.Errorf("Expected no expiration, got %v", *w.Expiration)
	}

	expect(t, "AcquireWriter(B)", true)(adapter.AcquireWriter("expiring", "B", longTTL))
	if w := expectWriter(t, adapter, "expiring", "B"); w.Expiration == nil {
		t.Error("Expected an expiration")
	}

	expect(t, "AcquireReader(R1)", true)(adapter.AcquireReader(reader("readers", "R1", 3, sharedlock.NoTTL)))
	expect(t, "AcquireReader(R2)", true)(adapter.AcquireReader(reader("readers", "R2", 3, longTTL)))

	r := expectReaders(t, adapter, "readers", "R1", "R2")
	if r.Limit != 3 {
		t.Errorf("Expected limit 3, got %d", r.Limit)
	}
	if r.AcquiredSlots["R1"] != nil {
		t.Errorf("Expected R1 to never expire, got %v", *r.AcquiredSlots["R1"])
	}
	if r.AcquiredSlots["R2"] == nil {
		t.Error("Expected R2 to carry an expiration")
	}
}

func testStaleTimerAfterReacquire(t *testing.T, factory AdapterFactory) {
	adapter, advance := factory()
	defer adapter.Close()

	// writer: release and reacquire before the first TTL runs out
	expect(t, "AcquireWriter(A)", true)(adapter.AcquireWriter("writer", "A", shortTTL))
	expect(t, "ReleaseWriter(A)", true)(adapter.ReleaseWriter("writer", "A"))
	expect(t, "AcquireWriter(B)", true)(adapter.AcquireWriter("writer", "B", sharedlock.NoTTL))

	// reader: same id, new generation without TTL
	expect(t, "AcquireReader(R)", true)(adapter.AcquireReader(reader("reader", "R", 1, shortTTL)))
	expect(t, "ReleaseReader(R)", true)(adapter.ReleaseReader("reader", "R"))
	expect(t, "AcquireReader(R) again", true)(adapter.AcquireReader(reader("reader", "R", 1, sharedlock.NoTTL)))

	advance(shortTTL * 2)

	expectWriter(t, adapter, "writer", "B")
	expectReaders(t, adapter, "reader", "R")
}

func testIndependentKeys(t *testing.T, factory AdapterFactory) {
	adapter, _ := factory()
	defer adapter.Close()

	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("key-%d", i)
		if i%2 == 0 {
			expect(t, "AcquireWriter "+key, true)(adapter.AcquireWriter(key, "W", sharedlock.NoTTL))
		} else {
			expect(t, "AcquireReader "+key, true)(adapter.AcquireReader(reader(key, "R", 1, sharedlock.NoTTL)))
		}
	}

	expect(t, "ForceRelease key-0", true)(adapter.ForceRelease("key-0"))
	expectFree(t, adapter, "key-0")
	expectWriter(t, adapter, "key-2", "W")
	expectReaders(t, adapter, "key-1", "R")
}

func testClose(t *testing.T, factory AdapterFactory) {
	adapter, advance := factory()

	expect(t, "AcquireWriter(A)", true)(adapter.AcquireWriter("writer", "A", shortTTL))
	expect(t, "AcquireReader(R)", true)(adapter.AcquireReader(reader("reader", "R", 2, shortTTL)))
	expect(t, "AcquireReader(S)", true)(adapter.AcquireReader(reader("reader", "S", 2, sharedlock.NoTTL)))

	if err := adapter.Close(); err != nil {
		t.Fatalf("Close: unexpected error: %v", err)
	}

	// pending expirations must not fire into a cleared table
	advance(shortTTL * 2)

	expectFree(t, adapter, "writer")
	expectFree(t, adapter, "reader")
}

func testConcurrentWriters(t *testing.T, factory AdapterFactory) {
	adapter, _ := factory()
	defer adapter.Close()

	const workers = 32
	var acquired atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			ok, err := adapter.AcquireWriter("key", fmt.Sprintf("writer-%d", id), sharedlock.NoTTL)
			if err != nil {
				t.Errorf("AcquireWriter: unexpected error: %v", err)
				return
			}
			if ok {
				acquired.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if n := acquired.Load(); n != 1 {
		t.Errorf("Expected exactly one writer to win, got %d", n)
	}
}

func testConcurrentReaders(t *testing.T, factory AdapterFactory) {
	adapter, _ := factory()
	defer adapter.Close()

	const workers = 32
	const limit = 5
	var acquired atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			// every third worker competes as a writer
			if id%3 == 0 {
				if _, err := adapter.AcquireWriter("key", fmt.Sprintf("writer-%d", id), sharedlock.NoTTL); err != nil {
					t.Errorf("AcquireWriter: unexpected error: %v", err)
				}
				return
			}

			ok, err := adapter.AcquireReader(reader("key", fmt.Sprintf("reader-%d", id), limit, sharedlock.NoTTL))
			if err != nil {
				t.Errorf("AcquireReader: unexpected error: %v", err)
				return
			}
			if ok {
				acquired.Add(1)
			}
		}(i)
	}
	wg.Wait()

	state := mustState(t, adapter, "key")
	if state == nil {
		t.Fatal("Expected the key to be held after concurrent acquisition")
	}
	if state.Writer != nil && state.Reader != nil {
		t.Fatal("Writer and reader state must never be reported together")
	}

	if state.Writer != nil {
		if n := acquired.Load(); n != 0 {
			t.Errorf("A writer holds the key, but %d readers succeeded", n)
		}
		return
	}

	if n := acquired.Load(); n != limit {
		t.Errorf("Expected exactly %d readers to succeed, got %d", limit, n)
	}
	if got := len(state.Reader.AcquiredSlots); got != limit {
		t.Errorf("Expected %d slots, got %d", limit, got)
	}
}
