package common

import (
	"encoding/json"
	"fmt"
	"time"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// Request fields
	Key    string `json:"key,omitempty"`     // Used for: all lock operations
	LockID string `json:"lock_id,omitempty"` // Used for: Acquire, Release, Refresh
	Limit  uint64 `json:"limit,omitempty"`   // Used for: AcquireReader
	TTL    uint64 `json:"ttl,omitempty"`     // Used for: Acquire, Refresh (milliseconds, 0 = no expiration)

	// Response only fields
	Ok  bool   `json:"ok,omitempty"`  // Used for: all responses except State
	Err string `json:"err,omitempty"` // Empty if no error, otherwise contains the error message

	// State response fields
	Mode       LockMode `json:"mode,omitempty"`       // What holds the key, ModeFree if nothing
	Owner      string   `json:"owner,omitempty"`      // Writer lock owner
	Expiration int64    `json:"expiration,omitempty"` // Writer lock expiration (unix nano, 0 = never)
	Slots      []Slot   `json:"slots,omitempty"`      // Reader slots
}

// Slot is a reader slot in a state response
type Slot struct {
	ID         string `json:"id"`
	Expiration int64  `json:"expiration,omitempty"` // unix nano, 0 = never
}

// LockMode reports what holds a key in a state response
type LockMode uint8

const (
	ModeFree LockMode = iota
	ModeWriter
	ModeReader
)

// --------------------------------------------------------------------------
// Field Conversion
// --------------------------------------------------------------------------

// ToTTL converts a duration to the wire format. Non-positive durations mean
// no expiration, durations below one millisecond are rounded up.
func ToTTL(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	ms := uint64(d / time.Millisecond)
	if ms == 0 {
		ms = 1
	}
	return ms
}

// MaxTTL is the longest TTL accepted on the wire. Expirations travel as unix
// nanoseconds, so an expiration must stay well before the year 2262.
const MaxTTL = 100 * 365 * 24 * time.Hour

// FromTTL converts a wire TTL back to a duration. TTLs above MaxTTL are
// rejected, a silent overflow would turn them into "no expiration".
func FromTTL(ttl uint64) (time.Duration, error) {
	if ttl > uint64(MaxTTL/time.Millisecond) {
		return 0, fmt.Errorf("ttl of %d ms exceeds the maximum of %s", ttl, MaxTTL)
	}
	return time.Duration(ttl) * time.Millisecond, nil
}

// ToExpiration converts an optional point in time to the wire format
func ToExpiration(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixNano()
}

// FromExpiration converts a wire expiration back to an optional point in time
func FromExpiration(ns int64) *time.Time {
	if ns == 0 {
		return nil
	}
	t := time.Unix(0, ns)
	return &t
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewLockRequest creates a new request for a lock or shared lock operation.
// Fields that are not used by the message type are ignored by the server.
func NewLockRequest(msgType MessageType, key, lockID string, ttl time.Duration) *Message {
	return &Message{
		MsgType: msgType,
		Key:     key,
		LockID:  lockID,
		TTL:     ToTTL(ttl),
	}
}

// NewAcquireReaderRequest creates a new AcquireReader request
func NewAcquireReaderRequest(key, lockID string, limit int, ttl time.Duration) *Message {
	msg := NewLockRequest(MsgTSLAcquireReader, key, lockID, ttl)
	if limit > 0 {
		msg.Limit = uint64(limit)
	}
	return msg
}

// NewStateRequest creates a new State request
func NewStateRequest(msgType MessageType, key string) *Message {
	return &Message{
		MsgType: msgType,
		Key:     key,
	}
}

// NewOkResponse creates a new response for every operation that reports a boolean result
func NewOkResponse(msgType MessageType, ok bool, err error) *Message {
	msg := &Message{
		MsgType: msgType,
		Ok:      ok,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

var msgTypeNames = map[MessageType]string{
	MsgTUnknown:                  "unknown",
	MsgTSuccess:                  "success",
	MsgTError:                    "error",
	MsgTLCKAcquire:               "acquire",
	MsgTLCKRelease:               "release",
	MsgTLCKForceRelease:          "forceRelease",
	MsgTLCKRefresh:               "refresh",
	MsgTLCKState:                 "state",
	MsgTSLAcquireWriter:          "acquireWriter",
	MsgTSLReleaseWriter:          "releaseWriter",
	MsgTSLForceReleaseWriter:     "forceReleaseWriter",
	MsgTSLRefreshWriter:          "refreshWriter",
	MsgTSLAcquireReader:          "acquireReader",
	MsgTSLReleaseReader:          "releaseReader",
	MsgTSLForceReleaseAllReaders: "forceReleaseAllReaders",
	MsgTSLRefreshReader:          "refreshReader",
	MsgTSLForceRelease:           "sharedForceRelease",
	MsgTSLState:                  "sharedState",
}

var msgTypesByName = func() map[string]MessageType {
	m := make(map[string]MessageType, len(msgTypeNames))
	for t, name := range msgTypeNames {
		m[name] = t
	}
	return m
}()

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	if name, ok := msgTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	msgType, ok := msgTypesByName[s]
	if !ok {
		return fmt.Errorf("unknown message type: %s", s)
	}
	*t = msgType
	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// ILockAdapter operations

	MsgTLCKAcquire      // Acquire a lock
	MsgTLCKRelease      // Release a lock
	MsgTLCKForceRelease // Release a lock regardless of its owner
	MsgTLCKRefresh      // Extend the expiration of a lock
	MsgTLCKState        // Get the owner of a lock

	// ISharedLockAdapter operations

	MsgTSLAcquireWriter          // Acquire the writer lock
	MsgTSLReleaseWriter          // Release the writer lock
	MsgTSLForceReleaseWriter     // Release the writer lock regardless of its owner
	MsgTSLRefreshWriter          // Extend the expiration of the writer lock
	MsgTSLAcquireReader          // Acquire a reader slot
	MsgTSLReleaseReader          // Release a reader slot
	MsgTSLForceReleaseAllReaders // Release all reader slots
	MsgTSLRefreshReader          // Extend the expiration of a reader slot
	MsgTSLForceRelease           // Release whatever holds the key
	MsgTSLState                  // Get the holders of a key
)
