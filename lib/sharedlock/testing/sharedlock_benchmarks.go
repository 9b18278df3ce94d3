package testing

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/dLock/lib/sharedlock"
)

// RunSharedLockAdapterBenchmarks runs all benchmarks for a ISharedLockAdapter implementation
func RunSharedLockAdapterBenchmarks(b *testing.B, name string, factory AdapterFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("WriterAcquireRelease", func(b *testing.B) {
			benchmarkWriterAcquireRelease(b, factory)
		})

		b.Run("WriterAcquireWithTTL", func(b *testing.B) {
			benchmarkWriterAcquireWithTTL(b, factory)
		})

		b.Run("WriterContended", func(b *testing.B) {
			benchmarkWriterContended(b, factory)
		})

		b.Run("ReaderAcquireRelease", func(b *testing.B) {
			benchmarkReaderAcquireRelease(b, factory)
		})

		b.Run("GetState", func(b *testing.B) {
			benchmarkGetState(b, factory)
		})

		b.Run("MixedParallel", func(b *testing.B) {
			benchmarkMixedParallel(b, factory)
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// benchKeys pre-generates n keys so key formatting is not measured
func benchKeys(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("bench-key-%d", i)
	}
	return keys
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

func benchmarkWriterAcquireRelease(b *testing.B, factory AdapterFactory) {
	adapter, _ := factory()
	defer adapter.Close()
	keys := benchKeys(1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := keys[i%len(keys)]
		if ok, err := adapter.AcquireWriter(key, "owner", sharedlock.NoTTL); err != nil || !ok {
			b.Fatalf("AcquireWriter failed: ok=%v err=%v", ok, err)
		}
		if ok, err := adapter.ReleaseWriter(key, "owner"); err != nil || !ok {
			b.Fatalf("ReleaseWriter failed: ok=%v err=%v", ok, err)
		}
	}
}

func benchmarkWriterAcquireWithTTL(b *testing.B, factory AdapterFactory) {
	adapter, _ := factory()
	defer adapter.Close()
	keys := benchKeys(1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := keys[i%len(keys)]
		if _, err := adapter.AcquireWriter(key, "owner", longTTL); err != nil {
			b.Fatalf("AcquireWriter failed: %v", err)
		}
		if _, err := adapter.ReleaseWriter(key, "owner"); err != nil {
			b.Fatalf("ReleaseWriter failed: %v", err)
		}
	}
}

func benchmarkWriterContended(b *testing.B, factory AdapterFactory) {
	adapter, _ := factory()
	defer adapter.Close()

	if _, err := adapter.AcquireWriter("contended", "holder", sharedlock.NoTTL); err != nil {
		b.Fatalf("AcquireWriter failed: %v", err)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if ok, err := adapter.AcquireWriter("contended", "other", sharedlock.NoTTL); err != nil || ok {
				b.Errorf("contended AcquireWriter: ok=%v err=%v", ok, err)
				return
			}
		}
	})
}

func benchmarkReaderAcquireRelease(b *testing.B, factory AdapterFactory) {
	adapter, _ := factory()
	defer adapter.Close()
	keys := benchKeys(1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		settings := sharedlock.AcquireSettings{Key: keys[i%len(keys)], LockID: "reader", Limit: 4}
		if ok, err := adapter.AcquireReader(settings); err != nil || !ok {
			b.Fatalf("AcquireReader failed: ok=%v err=%v", ok, err)
		}
		if ok, err := adapter.ReleaseReader(settings.Key, "reader"); err != nil || !ok {
			b.Fatalf("ReleaseReader failed: ok=%v err=%v", ok, err)
		}
	}
}

func benchmarkGetState(b *testing.B, factory AdapterFactory) {
	adapter, _ := factory()
	defer adapter.Close()
	keys := benchKeys(1024)

	for i, key := range keys {
		if i%2 == 0 {
			adapter.AcquireWriter(key, "owner", longTTL)
		} else {
			adapter.AcquireReader(sharedlock.AcquireSettings{Key: key, LockID: "reader", Limit: 2, TTL: longTTL})
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := adapter.GetState(keys[i%len(keys)]); err != nil {
			b.Fatalf("GetState failed: %v", err)
		}
	}
}

func benchmarkMixedParallel(b *testing.B, factory AdapterFactory) {
	adapter, _ := factory()
	defer adapter.Close()
	keys := benchKeys(256)
	var worker atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		id := fmt.Sprintf("worker-%d", worker.Add(1))
		i := 0
		for pb.Next() {
			key := keys[i%len(keys)]
			switch i % 4 {
			case 0:
				adapter.AcquireWriter(key, id, sharedlock.NoTTL)
			case 1:
				adapter.ReleaseWriter(key, id)
			case 2:
				adapter.AcquireReader(sharedlock.AcquireSettings{Key: key, LockID: id, Limit: 8})
			default:
				adapter.ReleaseReader(key, id)
			}
			i++
		}
	})
}
