// Package base provides the protocol-agnostic core of the stream transports
// (tcp, unix). Protocol specific parts are injected through connectors.
//
// The package focuses on:
//   - Client and server transports independent of the network protocol
//   - Connection pooling and buffer reuse
//   - A frame-based protocol with shardID and requestID tracking
//   - Retries with exponential backoff and automatic reconnection
//
// Frame format (big endian):
//
//	| shardID (8 bytes) | requestID (8 bytes) | length (4 bytes) | payload |
//
// Key Components:
//
//   - IClientConnector/IServerConnector: Interfaces for protocol-specific operations
//     that allow extending the base transport with different network protocols.
//
//   - clientTransport: Manages multiple connections per endpoint with round-robin
//     selection. Responses are matched to requests by requestID, so many requests
//     can be in flight on one connection. Each retry uses a new requestID.
//
//   - serverTransport: Accepts connections and processes the requests of each
//     connection with a bounded number of workers (WorkersPerConn). Close stops
//     the listener and closes all open connections.
//
// Thread Safety:
//
//	All public methods are thread-safe.
package base
