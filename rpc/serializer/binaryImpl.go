package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/dLock/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format.
//
// Layout: 1 byte MsgType | 2 bytes flags | present fields in flag order.
// Strings and byte slices are prefixed with a uint32 length, integers are
// big endian, the slot list is prefixed with a uint32 count.
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasKey        uint16 = 1 << 0
	hasLockID     uint16 = 1 << 1
	hasLimit      uint16 = 1 << 2
	hasTTL        uint16 = 1 << 3
	hasOk         uint16 = 1 << 4
	hasErr        uint16 = 1 << 5
	hasMode       uint16 = 1 << 6
	hasOwner      uint16 = 1 << 7
	hasExpiration uint16 = 1 << 8
	hasSlots      uint16 = 1 << 9
)

const headerSize = 3

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	result := make([]byte, b.sizeBytes(msg))

	// Write message type
	result[0] = byte(msg.MsgType)

	var flags uint16
	pos := headerSize

	if msg.Key != "" {
		flags |= hasKey
		pos = putString(result, pos, msg.Key)
	}
	if msg.LockID != "" {
		flags |= hasLockID
		pos = putString(result, pos, msg.LockID)
	}
	if msg.Limit > 0 {
		flags |= hasLimit
		binary.BigEndian.PutUint64(result[pos:pos+8], msg.Limit)
		pos += 8
	}
	if msg.TTL > 0 {
		flags |= hasTTL
		binary.BigEndian.PutUint64(result[pos:pos+8], msg.TTL)
		pos += 8
	}
	// the flag alone carries the value
	if msg.Ok {
		flags |= hasOk
	}
	if msg.Err != "" {
		flags |= hasErr
		pos = putString(result, pos, msg.Err)
	}
	if msg.Mode != common.ModeFree {
		flags |= hasMode
		result[pos] = byte(msg.Mode)
		pos++
	}
	if msg.Owner != "" {
		flags |= hasOwner
		pos = putString(result, pos, msg.Owner)
	}
	if msg.Expiration != 0 {
		flags |= hasExpiration
		binary.BigEndian.PutUint64(result[pos:pos+8], uint64(msg.Expiration))
		pos += 8
	}
	if len(msg.Slots) > 0 {
		flags |= hasSlots
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(msg.Slots)))
		pos += 4
		for _, slot := range msg.Slots {
			pos = putString(result, pos, slot.ID)
			binary.BigEndian.PutUint64(result[pos:pos+8], uint64(slot.Expiration))
			pos += 8
		}
	}

	// Set flags after knowing which fields are present
	binary.BigEndian.PutUint16(result[1:3], flags)

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < headerSize {
		return fmt.Errorf("data too short for message header")
	}

	msg.MsgType = common.MessageType(data[0])
	flags := binary.BigEndian.Uint16(data[1:3])
	r := reader{data: data, pos: headerSize}

	msg.Key = ""
	if flags&hasKey != 0 {
		msg.Key = r.string("key")
	}
	msg.LockID = ""
	if flags&hasLockID != 0 {
		msg.LockID = r.string("lock id")
	}
	msg.Limit = 0
	if flags&hasLimit != 0 {
		msg.Limit = r.uint64("limit")
	}
	msg.TTL = 0
	if flags&hasTTL != 0 {
		msg.TTL = r.uint64("ttl")
	}
	msg.Ok = flags&hasOk != 0
	msg.Err = ""
	if flags&hasErr != 0 {
		msg.Err = r.string("error")
	}
	msg.Mode = common.ModeFree
	if flags&hasMode != 0 {
		msg.Mode = common.LockMode(r.byte("mode"))
	}
	msg.Owner = ""
	if flags&hasOwner != 0 {
		msg.Owner = r.string("owner")
	}
	msg.Expiration = 0
	if flags&hasExpiration != 0 {
		msg.Expiration = int64(r.uint64("expiration"))
	}
	msg.Slots = nil
	if flags&hasSlots != 0 {
		count := r.uint32("slot count")
		// every slot needs at least 12 bytes, reject counts the data cannot hold
		if r.err == nil && int(count) > (len(data)-r.pos)/12 {
			return fmt.Errorf("data too short for %d slots", count)
		}
		msg.Slots = make([]common.Slot, 0, count)
		for i := uint32(0); i < count && r.err == nil; i++ {
			id := r.string("slot id")
			exp := int64(r.uint64("slot expiration"))
			msg.Slots = append(msg.Slots, common.Slot{ID: id, Expiration: exp})
		}
	}

	return r.err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	// 1 byte for MsgType + 2 bytes for flags
	size := headerSize

	if msg.Key != "" {
		size += 4 + len(msg.Key)
	}
	if msg.LockID != "" {
		size += 4 + len(msg.LockID)
	}
	if msg.Limit > 0 {
		size += 8
	}
	if msg.TTL > 0 {
		size += 8
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}
	if msg.Mode != common.ModeFree {
		size += 1
	}
	if msg.Owner != "" {
		size += 4 + len(msg.Owner)
	}
	if msg.Expiration != 0 {
		size += 8
	}
	if len(msg.Slots) > 0 {
		size += 4
		for _, slot := range msg.Slots {
			size += 4 + len(slot.ID) + 8
		}
	}

	return size
}

func putString(buf []byte, pos int, s string) int {
	binary.BigEndian.PutUint32(buf[pos:pos+4], uint32(len(s)))
	pos += 4
	return pos + copy(buf[pos:], s)
}

// reader reads fields sequentially and keeps the first error.
// After an error every read returns the zero value.
type reader struct {
	data []byte
	pos  int
	err  error
}

func (r *reader) need(n int, field string) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.err = fmt.Errorf("data too short for %s", field)
		return false
	}
	return true
}

func (r *reader) byte(field string) byte {
	if !r.need(1, field) {
		return 0
	}
	v := r.data[r.pos]
	r.pos++
	return v
}

func (r *reader) uint32(field string) uint32 {
	if !r.need(4, field) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.pos : r.pos+4])
	r.pos += 4
	return v
}

func (r *reader) uint64(field string) uint64 {
	if !r.need(8, field) {
		return 0
	}
	v := binary.BigEndian.Uint64(r.data[r.pos : r.pos+8])
	r.pos += 8
	return v
}

func (r *reader) string(field string) string {
	n := int(r.uint32(field + " length"))
	if !r.need(n, field) {
		return ""
	}
	s := string(r.data[r.pos : r.pos+n])
	r.pos += n
	return s
}
