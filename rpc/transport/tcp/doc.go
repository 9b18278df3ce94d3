// Package tcp implements a TCP socket transport for the lock RPC system.
// It provides implementations of the base package's connector interfaces
// and inherits connection pooling, buffer reuse and request routing from it.
//
// Socket options (buffer sizes, TCP_NODELAY, keep-alive, linger) are taken
// from the SocketConf and TCPConf of the client and server configuration.
//
// The default server buffer size is 512 KB.
package tcp
