package server

import (
	"github.com/ValentinKolb/dLock/rpc/common"
)

// IRPCServerAdapter is the interface for all RPC server adapters.
// An adapter owns the lock backend of one shard and translates messages into
// calls on it.
type IRPCServerAdapter interface {
	// Handle handles a request and returns a response.
	// If an error occurs, it should be set in the response.
	Handle(req *common.Message) (resp *common.Message)

	// Close releases all locks of the backend
	Close() error
}

// sizer is implemented by backends that can report the number of held keys
type sizer interface {
	Len() int
}
