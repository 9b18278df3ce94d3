// Package http implements an HTTP transport for the lock RPC system.
// Requests are sent as POST /{shardId} with the serialized message as body.
//
// Key Components:
//
//   - httpClientTransport: Implements IRPCClientTransport with round-robin
//     selection across endpoints and a configurable number of retries.
//
//   - httpServerTransport: Implements IRPCServerTransport on net/http. The
//     shard ID is taken from the URL path. With log level debug every request
//     is logged.
//
// The HTTP transport is the slowest of the transports but easy to use through
// proxies and firewalls.
package http
