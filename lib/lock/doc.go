// Package lock defines the contract of an exclusive lock over named
// resources (ILockAdapter). A key is either free or held by exactly one
// owner. Locks may carry a TTL after which they are released automatically.
//
// An exclusive lock behaves like the writer side of a sharedlock; the
// in-memory implementation in adapters/memory is built on exactly that.
package lock
