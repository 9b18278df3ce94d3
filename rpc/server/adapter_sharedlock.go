package server

import (
	"fmt"
	"math"

	"github.com/ValentinKolb/dLock/lib/sharedlock"
	"github.com/ValentinKolb/dLock/rpc/common"
)

func NewSharedLockServerAdapter(locks sharedlock.ISharedLockAdapter) IRPCServerAdapter {
	return &sharedLockServerAdapter{locks: locks}
}

type sharedLockServerAdapter struct {
	locks sharedlock.ISharedLockAdapter
}

func (adapter *sharedLockServerAdapter) Handle(req *common.Message) *common.Message {
	if adapter.locks == nil {
		return common.NewErrorResponse("handler: shared lock adapter is nil")
	}

	locks := adapter.locks
	ttl, err := common.FromTTL(req.TTL)
	if err != nil {
		return common.NewErrorResponse(err.Error())
	}

	switch req.MsgType {
	case common.MsgTSLAcquireWriter:
		ok, err := locks.AcquireWriter(req.Key, req.LockID, ttl)
		return common.NewOkResponse(req.MsgType, ok, err)
	case common.MsgTSLReleaseWriter:
		ok, err := locks.ReleaseWriter(req.Key, req.LockID)
		return common.NewOkResponse(req.MsgType, ok, err)
	case common.MsgTSLForceReleaseWriter:
		ok, err := locks.ForceReleaseWriter(req.Key)
		return common.NewOkResponse(req.MsgType, ok, err)
	case common.MsgTSLRefreshWriter:
		ok, err := locks.RefreshWriter(req.Key, req.LockID, ttl)
		return common.NewOkResponse(req.MsgType, ok, err)
	case common.MsgTSLAcquireReader:
		ok, err := locks.AcquireReader(sharedlock.AcquireSettings{
			Key:    req.Key,
			LockID: req.LockID,
			Limit:  clampLimit(req.Limit),
			TTL:    ttl,
		})
		return common.NewOkResponse(req.MsgType, ok, err)
	case common.MsgTSLReleaseReader:
		ok, err := locks.ReleaseReader(req.Key, req.LockID)
		return common.NewOkResponse(req.MsgType, ok, err)
	case common.MsgTSLForceReleaseAllReaders:
		ok, err := locks.ForceReleaseAllReaders(req.Key)
		return common.NewOkResponse(req.MsgType, ok, err)
	case common.MsgTSLRefreshReader:
		ok, err := locks.RefreshReader(req.Key, req.LockID, ttl)
		return common.NewOkResponse(req.MsgType, ok, err)
	case common.MsgTSLForceRelease:
		ok, err := locks.ForceRelease(req.Key)
		return common.NewOkResponse(req.MsgType, ok, err)
	case common.MsgTSLState:
		return common.NewSharedLockStateResponse(locks.GetState(req.Key))
	default:
		return common.NewErrorResponse(fmt.Sprintf("RPC SharedLockAdapter - Unsupported message type: %s", req.MsgType))
	}
}

func (adapter *sharedLockServerAdapter) Close() error {
	if adapter.locks == nil {
		return nil
	}
	return adapter.locks.Close()
}

func (adapter *sharedLockServerAdapter) Len() int {
	if s, ok := adapter.locks.(sizer); ok {
		return s.Len()
	}
	return 0
}

// clampLimit converts a wire limit to an int
func clampLimit(limit uint64) int {
	if limit > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(limit)
}
