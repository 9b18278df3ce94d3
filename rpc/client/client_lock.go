package client

import (
	"time"

	"github.com/ValentinKolb/dLock/lib/lock"
	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/ValentinKolb/dLock/rpc/serializer"
	"github.com/ValentinKolb/dLock/rpc/transport"
)

// NewRPCLock creates a new RPC lock.ILockAdapter
// The function takes a shard ID, a config, a transport and a serializer as parameters
// The shard must be a lock shard on the server
func NewRPCLock(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (lock.ILockAdapter, error) {
	adapter, err := newRPCClientAdapter(shardId, config, transport, serializer)
	if err != nil {
		return nil, err
	}
	return &rpcLock{adapter}, nil
}

type rpcLock struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see lock.ILockAdapter)
// --------------------------------------------------------------------------

func (c *rpcLock) Acquire(key, lockID string, ttl time.Duration) (bool, error) {
	return c.invokeOk(common.NewLockRequest(common.MsgTLCKAcquire, key, lockID, ttl))
}

func (c *rpcLock) Release(key, lockID string) (bool, error) {
	return c.invokeOk(common.NewLockRequest(common.MsgTLCKRelease, key, lockID, 0))
}

func (c *rpcLock) ForceRelease(key string) (bool, error) {
	return c.invokeOk(common.NewStateRequest(common.MsgTLCKForceRelease, key))
}

func (c *rpcLock) Refresh(key, lockID string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, nil
	}
	return c.invokeOk(common.NewLockRequest(common.MsgTLCKRefresh, key, lockID, ttl))
}

func (c *rpcLock) GetState(key string) (*lock.State, error) {
	resp, err := c.invoke(common.NewStateRequest(common.MsgTLCKState, key))
	if err != nil {
		return nil, err
	}
	return resp.LockState()
}
