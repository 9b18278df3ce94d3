// Package unix implements a transport layer for the lock RPC system using
// Unix domain sockets. It is the natural choice when all lock clients run on
// the same machine as the lock server.
//
// This package extends the base transport layer with Unix socket connectors
// while inheriting connection pooling, request routing and error handling
// from the base package.
//
// Performance Characteristics:
//
//   - Default buffer size: 64 KB
//   - No TCP/IP stack processing, lower latency than the tcp transport
package unix
