package server

import (
	"fmt"

	"github.com/ValentinKolb/dLock/lib/lock"
	"github.com/ValentinKolb/dLock/rpc/common"
)

func NewLockServerAdapter(locks lock.ILockAdapter) IRPCServerAdapter {
	return &lockServerAdapter{locks: locks}
}

type lockServerAdapter struct {
	locks lock.ILockAdapter
}

func (adapter *lockServerAdapter) Handle(req *common.Message) *common.Message {
	if adapter.locks == nil {
		return common.NewErrorResponse("handler: lock adapter is nil")
	}

	ttl, err := common.FromTTL(req.TTL)
	if err != nil {
		return common.NewErrorResponse(err.Error())
	}

	switch req.MsgType {
	case common.MsgTLCKAcquire:
		ok, err := adapter.locks.Acquire(req.Key, req.LockID, ttl)
		return common.NewOkResponse(req.MsgType, ok, err)
	case common.MsgTLCKRelease:
		ok, err := adapter.locks.Release(req.Key, req.LockID)
		return common.NewOkResponse(req.MsgType, ok, err)
	case common.MsgTLCKForceRelease:
		ok, err := adapter.locks.ForceRelease(req.Key)
		return common.NewOkResponse(req.MsgType, ok, err)
	case common.MsgTLCKRefresh:
		ok, err := adapter.locks.Refresh(req.Key, req.LockID, ttl)
		return common.NewOkResponse(req.MsgType, ok, err)
	case common.MsgTLCKState:
		return common.NewLockStateResponse(adapter.locks.GetState(req.Key))
	default:
		return common.NewErrorResponse(fmt.Sprintf("RPC LockAdapter - Unsupported message type: %s", req.MsgType))
	}
}

func (adapter *lockServerAdapter) Close() error {
	if adapter.locks == nil {
		return nil
	}
	return adapter.locks.Close()
}

func (adapter *lockServerAdapter) Len() int {
	if s, ok := adapter.locks.(sizer); ok {
		return s.Len()
	}
	return 0
}
