package testing

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/dLock/lib/lock"
)

// AdapterFactory creates a fresh adapter and a function that moves its clock forward
type AdapterFactory func() (adapter lock.ILockAdapter, advance func(d time.Duration))

const ttl = 100 * time.Millisecond

// RunLockAdapterTests runs the conformance test suite for a ILockAdapter implementation.
func RunLockAdapterTests(t *testing.T, name string, factory AdapterFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("AcquireRelease", func(t *testing.T) {
			testAcquireRelease(t, factory)
		})

		t.Run("Reentrancy", func(t *testing.T) {
			testReentrancy(t, factory)
		})

		t.Run("ForceRelease", func(t *testing.T) {
			testForceRelease(t, factory)
		})

		t.Run("Expiration", func(t *testing.T) {
			testExpiration(t, factory)
		})

		t.Run("Refresh", func(t *testing.T) {
			testRefresh(t, factory)
		})

		t.Run("GetState", func(t *testing.T) {
			testGetState(t, factory)
		})

		t.Run("Concurrent", func(t *testing.T) {
			testConcurrent(t, factory)
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func expect(t *testing.T, op string, want bool) func(got bool, err error) {
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

func owner(t *testing.T, adapter lock.ILockAdapter, key string) string {
	t.Helper()
	state, err := adapter.GetState(key)
	if err != nil {
		t.Fatalf("GetState(%s): unexpected error: %v", key, err)
	}
	if state == nil {
		return ""
	}
	return state.Owner
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testAcquireRelease(t *testing.T, factory AdapterFactory) {
	adapter, _ := factory()
	defer adapter.Close()

	expect(t, "Acquire(A)", true)(adapter.Acquire("key", "A", 0))
	expect(t, "Acquire(B)", false)(adapter.Acquire("key", "B", 0))
	expect(t, "Release(B)", false)(adapter.Release("key", "B"))
	expect(t, "Release(A)", true)(adapter.Release("key", "A"))
	expect(t, "Release(A) again", false)(adapter.Release("key", "A"))
	expect(t, "Acquire(B) after release", true)(adapter.Acquire("key", "B", 0))
}

func testReentrancy(t *testing.T, factory AdapterFactory) {
	adapter, _ := factory()
	defer adapter.Close()

	expect(t, "Acquire(A)", true)(adapter.Acquire("key", "A", ttl))
	expect(t, "Acquire(A) again", true)(adapter.Acquire("key", "A", ttl))
	if got := owner(t, adapter, "key"); got != "A" {
		t.Errorf("Expected owner A, got %q", got)
	}
}

func testForceRelease(t *testing.T, factory AdapterFactory) {
	adapter, _ := factory()
	defer adapter.Close()

	expect(t, "ForceRelease(free)", false)(adapter.ForceRelease("key"))
	expect(t, "Acquire(A)", true)(adapter.Acquire("key", "A", ttl))
	expect(t, "ForceRelease", true)(adapter.ForceRelease("key"))
	if got := owner(t, adapter, "key"); got != "" {
		t.Errorf("Expected free key, got owner %q", got)
	}
}

func testExpiration(t *testing.T, factory AdapterFactory) {
	adapter, advance := factory()
	defer adapter.Close()

	expect(t, "Acquire(A)", true)(adapter.Acquire("key", "A", ttl))
	advance(ttl * 2)
	if got := owner(t, adapter, "key"); got != "" {
		t.Errorf("Expected the lock to expire, got owner %q", got)
	}
	expect(t, "Acquire(B) after expiry", true)(adapter.Acquire("key", "B", 0))
}

func testRefresh(t *testing.T, factory AdapterFactory) {
	adapter, advance := factory()
	defer adapter.Close()

	expect(t, "Acquire(A)", true)(adapter.Acquire("key", "A", ttl))
	advance(ttl / 2)
	expect(t, "Refresh(B)", false)(adapter.Refresh("key", "B", ttl*4))
	expect(t, "Refresh(A, 0)", false)(adapter.Refresh("key", "A", 0))
	expect(t, "Refresh(A)", true)(adapter.Refresh("key", "A", ttl*4))

	advance(ttl)
	if got := owner(t, adapter, "key"); got != "A" {
		t.Errorf("Expected refreshed lock to be held by A, got %q", got)
	}

	expect(t, "Acquire(N)", true)(adapter.Acquire("forever", "N", 0))
	expect(t, "Refresh(N)", false)(adapter.Refresh("forever", "N", ttl))
}

func testGetState(t *testing.T, factory AdapterFactory) {
	adapter, _ := factory()
	defer adapter.Close()

	if state, err := adapter.GetState("missing"); err != nil || state != nil {
		t.Errorf("Expected nil state for a free key, got %+v (err=%v)", state, err)
	}

	adapter.Acquire("forever", "A", 0)
	adapter.Acquire("expiring", "B", ttl)

	if state, _ := adapter.GetState("forever"); state == nil || state.Expiration != nil {
		t.Errorf("Expected a lock without expiration, got %+v", state)
	}
	if state, _ := adapter.GetState("expiring"); state == nil || state.Expiration == nil {
		t.Errorf("Expected a lock with expiration, got %+v", state)
	}
}

func testConcurrent(t *testing.T, factory AdapterFactory) {
	adapter, _ := factory()
	defer adapter.Close()

	var acquired atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			ok, err := adapter.Acquire("key", fmt.Sprintf("owner-%d", id), 0)
			if err != nil {
				t.Errorf("Acquire: unexpected error: %v", err)
			}
			if ok {
				acquired.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if n := acquired.Load(); n != 1 {
		t.Errorf("Expected exactly one owner, got %d", n)
	}
}
