// Package client implements RPC clients for dlock servers. It provides
// implementations of sharedlock.ISharedLockAdapter and lock.ILockAdapter that
// forward every call to a shard of a remote server.
//
// Key Components:
//
//   - NewRPCSharedLock: creates a client for a shared (reader/writer) lock shard.
//
//   - NewRPCLock: creates a client for an exclusive lock shard.
//
// Both clients can be used wherever the in-memory adapters are used, e.g. as the
// backend of a lockmgr.ISharedLockManager.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  TimeoutSecond: 5,
//	  Transport: common.ClientTransportConfig{
//	    Endpoints:              []string{"localhost:8080"},
//	    RetryCount:             3,
//	    ConnectionsPerEndpoint: 1,
//	  },
//	}
//
//	locks, err := client.NewRPCSharedLock(100, config, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
//	if err != nil {
//	  log.Fatal(err)
//	}
//	defer locks.Close()
//
//	ok, _ := locks.AcquireWriter("orders", "worker-1", 30*time.Second)
//	if ok {
//	  defer locks.ReleaseWriter("orders", "worker-1")
//	}
//
// Errors and Retries:
//
//	Contention is reported as false, errors are reserved for transport failures
//	and error responses of the server. A request is retried up to RetryCount
//	times when the transport fails. Retries are not idempotent for every
//	operation: a release whose response was lost reports false when retried.
//
// Close:
//
//	Close only closes the connection. Locks held through the client stay on the
//	server until they are released or expire.
//
// Thread Safety:
//
//	All clients are safe for concurrent use by multiple goroutines.
package client
