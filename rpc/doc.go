// Package rpc provides the remote access layer of dlock. It lets processes on
// different machines share the lock tables of a dlock server.
//
// The package is organized into several subpackages:
//
//   - common: the Message protocol, configuration structures and logging.
//
//   - transport: network communication with pluggable implementations
//     (TCP, Unix sockets, HTTP).
//
//   - serializer: Message serialization (Binary, JSON, GOB).
//
//   - client: remote implementations of sharedlock.ISharedLockAdapter and
//     lock.ILockAdapter, usable wherever the in-memory adapters are.
//
//   - server: the server that hosts lock shards and answers requests.
package rpc
