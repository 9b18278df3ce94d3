package common

import (
	"fmt"
	"sort"
	"time"

	"github.com/ValentinKolb/dLock/lib/lock"
	"github.com/ValentinKolb/dLock/lib/sharedlock"
)

// --------------------------------------------------------------------------
// State Responses
// --------------------------------------------------------------------------

// NewLockStateResponse creates a new State response for an exclusive lock
func NewLockStateResponse(state *lock.State, err error) *Message {
	msg := &Message{
		MsgType: MsgTLCKState,
	}
	if err != nil {
		msg.Err = err.Error()
		return msg
	}
	if state != nil {
		msg.Mode = ModeWriter
		msg.Owner = state.Owner
		msg.Expiration = ToExpiration(state.Expiration)
	}
	return msg
}

// NewSharedLockStateResponse creates a new State response for a shared lock
func NewSharedLockStateResponse(state *sharedlock.State, err error) *Message {
	msg := &Message{
		MsgType: MsgTSLState,
	}
	if err != nil {
		msg.Err = err.Error()
		return msg
	}

	switch {
	case state == nil:
	case state.Writer != nil:
		msg.Mode = ModeWriter
		msg.Owner = state.Writer.Owner
		msg.Expiration = ToExpiration(state.Writer.Expiration)
	case state.Reader != nil:
		msg.Mode = ModeReader
		msg.Limit = uint64(state.Reader.Limit)
		msg.Slots = make([]Slot, 0, len(state.Reader.AcquiredSlots))
		for id, exp := range state.Reader.AcquiredSlots {
			msg.Slots = append(msg.Slots, Slot{ID: id, Expiration: ToExpiration(exp)})
		}
		// stable order on the wire
		sort.Slice(msg.Slots, func(i, j int) bool { return msg.Slots[i].ID < msg.Slots[j].ID })
	}
	return msg
}

// LockState converts a State response back to a lock state, nil for a free key
func (m *Message) LockState() (*lock.State, error) {
	switch m.Mode {
	case ModeFree:
		return nil, nil
	case ModeWriter:
		return &lock.State{
			Owner:      m.Owner,
			Expiration: FromExpiration(m.Expiration),
		}, nil
	default:
		return nil, fmt.Errorf("unexpected lock mode %d in lock state response", m.Mode)
	}
}

// SharedLockState converts a State response back to a shared lock state, nil for a free key
func (m *Message) SharedLockState() (*sharedlock.State, error) {
	switch m.Mode {
	case ModeFree:
		return nil, nil
	case ModeWriter:
		return &sharedlock.State{
			Writer: &sharedlock.WriterState{
				Owner:      m.Owner,
				Expiration: FromExpiration(m.Expiration),
			},
		}, nil
	case ModeReader:
		slots := make(map[string]*time.Time, len(m.Slots))
		for _, slot := range m.Slots {
			slots[slot.ID] = FromExpiration(slot.Expiration)
		}
		return &sharedlock.State{
			Reader: &sharedlock.ReaderState{
				Limit:         int(m.Limit),
				AcquiredSlots: slots,
			},
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown lock mode %d", sharedlock.ErrInvalidState, m.Mode)
	}
}
