// Package cmd implements the command-line interface of dLock. It provides a
// hierarchical command structure for running the server and for using it as a
// client.
//
// The package is organized into several subpackages:
//
//   - serve: starts and configures the dLock server
//   - lock: exclusive lock operations (acquire, release, refresh, ...)
//   - rwlock: reader/writer lock operations, grouped into writer and reader commands
//   - util: shared utilities for flags, configuration and output (internal use)
//
// Every flag can also be set with an environment variable DLOCK_<FLAG>, e.g.
// DLOCK_TRANSPORT_ENDPOINTS. The files .env and .env.local are loaded if present.
//
// See dlock -help for a list of all commands.
package cmd
