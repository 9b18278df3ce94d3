// Package sharedlock defines the contract of a reader/writer lock over named
// resources (ISharedLockAdapter) and the types it reports.
//
// A resource key is always in one of three states:
//
//   - free: nothing holds the key
//   - writer: exactly one owner holds the key exclusively
//   - reader: between 1 and Limit readers hold the key concurrently
//
// The writer and the reader state exclude each other. Every acquisition can
// carry a TTL after which it is released automatically; an acquisition
// without TTL is held until it is released explicitly. Only acquisitions with
// a TTL can be refreshed.
//
// Implementations:
//
//   - adapters/memory: a single-process, in-memory adapter
//   - rpc/client.NewRPCSharedLock: forwards every call to a dlock server that
//     hosts an in-memory adapter
//
// The testing subpackage contains a conformance suite that every
// implementation is expected to pass.
package sharedlock
