package client

import (
	"time"

	"github.com/ValentinKolb/dLock/lib/sharedlock"
	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/ValentinKolb/dLock/rpc/serializer"
	"github.com/ValentinKolb/dLock/rpc/transport"
)

// NewRPCSharedLock creates a new RPC sharedlock.ISharedLockAdapter
// The function takes a shard ID, a config, a transport and a serializer as parameters
// The shard must be a shared lock shard on the server
func NewRPCSharedLock(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (sharedlock.ISharedLockAdapter, error) {
	adapter, err := newRPCClientAdapter(shardId, config, transport, serializer)
	if err != nil {
		return nil, err
	}
	return &rpcSharedLock{adapter}, nil
}

type rpcSharedLock struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see sharedlock.ISharedLockAdapter)
// --------------------------------------------------------------------------

func (c *rpcSharedLock) AcquireWriter(key, lockID string, ttl time.Duration) (bool, error) {
	return c.invokeOk(common.NewLockRequest(common.MsgTSLAcquireWriter, key, lockID, ttl))
}

func (c *rpcSharedLock) ReleaseWriter(key, lockID string) (bool, error) {
	return c.invokeOk(common.NewLockRequest(common.MsgTSLReleaseWriter, key, lockID, sharedlock.NoTTL))
}

func (c *rpcSharedLock) ForceReleaseWriter(key string) (bool, error) {
	return c.invokeOk(common.NewStateRequest(common.MsgTSLForceReleaseWriter, key))
}

func (c *rpcSharedLock) RefreshWriter(key, lockID string, ttl time.Duration) (bool, error) {
	// a non-positive ttl would be sent as "no ttl", which the server cannot tell from a refresh request
	if ttl <= 0 {
		return false, nil
	}
	return c.invokeOk(common.NewLockRequest(common.MsgTSLRefreshWriter, key, lockID, ttl))
}

func (c *rpcSharedLock) AcquireReader(settings sharedlock.AcquireSettings) (bool, error) {
	if settings.Limit < 1 {
		return false, nil
	}
	return c.invokeOk(common.NewAcquireReaderRequest(settings.Key, settings.LockID, settings.Limit, settings.TTL))
}

func (c *rpcSharedLock) ReleaseReader(key, lockID string) (bool, error) {
	return c.invokeOk(common.NewLockRequest(common.MsgTSLReleaseReader, key, lockID, sharedlock.NoTTL))
}

func (c *rpcSharedLock) ForceReleaseAllReaders(key string) (bool, error) {
	return c.invokeOk(common.NewStateRequest(common.MsgTSLForceReleaseAllReaders, key))
}

func (c *rpcSharedLock) RefreshReader(key, lockID string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, nil
	}
	return c.invokeOk(common.NewLockRequest(common.MsgTSLRefreshReader, key, lockID, ttl))
}

func (c *rpcSharedLock) ForceRelease(key string) (bool, error) {
	return c.invokeOk(common.NewStateRequest(common.MsgTSLForceRelease, key))
}

func (c *rpcSharedLock) GetState(key string) (*sharedlock.State, error) {
	resp, err := c.invoke(common.NewStateRequest(common.MsgTSLState, key))
	if err != nil {
		return nil, err
	}
	return resp.SharedLockState()
}
