// Package common provides the data structures shared by the RPC client,
// server, serializers and transports.
//
// Key Components:
//
//   - Message: Core data structure for all RPC communication. One struct is
//     used for every request and response; which fields are set depends on
//     the MessageType. Lock states are flattened into Mode, Owner, Expiration
//     and Slots and converted back with LockState and SharedLockState.
//
//   - MessageType: Enumeration of all supported operations, grouped into
//     exclusive lock operations (MsgTLCK*) and shared lock operations (MsgTSL*).
//
//   - ServerConfig / ClientConfig: Configuration of servers and clients,
//     including shard layout, transport settings and timeouts.
//
//   - Logger: Custom formatting for dragonboat's logger facade, which all
//     packages use for their package level loggers.
//
// Durations travel as milliseconds (TTL) and points in time as unix
// nanoseconds (Expiration). Zero means "no expiration" for both.
package common
