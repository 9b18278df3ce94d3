// Package transport defines the interfaces for RPC communication between lock
// clients and lock servers. It provides a common contract that all transport
// implementations must fulfill, so clients and servers work with any of them.
//
// Key Components:
//
//   - IRPCClientTransport: Interface for client-side transport implementations that
//     handles connection management and request sending.
//
//   - IRPCServerTransport: Interface for server-side transport implementations that
//     receives requests and routes them to appropriate handlers.
//
//   - ServerHandleFunc: Function type for request handling callbacks.
//
// Implementations live in the subpackages tcp, unix and http. tcp and unix share
// the framed protocol of the base package.
package transport
