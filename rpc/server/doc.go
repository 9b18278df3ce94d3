// Package server implements the dlock RPC server. It hosts any number of
// shards, each with its own in-memory lock table, and routes incoming requests
// to the shard they name.
//
// Key Components:
//
//   - IRPCServerAdapter: translates a request Message into a call on the lock
//     backend of a shard and the result back into a response Message.
//
//   - NewSharedLockServerAdapter: adapter for reader/writer lock shards, backed by
//     a sharedlock.ISharedLockAdapter.
//
//   - NewLockServerAdapter: adapter for exclusive lock shards, backed by a
//     lock.ILockAdapter.
//
//   - NewRPCServer: creates a server with the given transport and serializer.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Shards: []common.ServerShard{
//	    {ShardID: 100, Type: common.ShardTypeSharedLock},
//	    {ShardID: 200, Type: common.ShardTypeLock},
//	  },
//	  Transport: common.ServerTransportConfig{Endpoint: "0.0.0.0:8080"},
//	  TimeoutSecond:   5,
//	  LogLevel:        "info",
//	  MetricsEndpoint: "0.0.0.0:9100",
//	}
//
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPServerTransport(),
//	  serializer.NewBinarySerializer(),
//	)
//	defer s.Close()
//
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Metrics:
//
//	If MetricsEndpoint is set, the server serves Prometheus metrics on
//	/metrics: request counts per shard, message type and result, request
//	durations per message type and the number of held keys per shard.
//
// Thread Safety:
//
//	The server handles concurrent requests across multiple connections.
//	Serve must be called only once. Close may be called at any time and more
//	than once; it stops the transport and releases all locks.
package server
