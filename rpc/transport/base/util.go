package base

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

const (
	frameHeaderSize = 20

	// MaxFrameSize bounds the payload of a single frame. Lock messages are tiny,
	// a larger length field means a corrupt or foreign stream.
	MaxFrameSize = 16 << 20
)

// writeFrame writes a frame to the connection with the format:
// - 8 bytes: shardId (uint64, big endian)
// - 8 bytes: requestID (uint64, big endian)
// - 4 bytes: data length (uint32, big endian)
// - N bytes: data payload
func writeFrame(conn net.Conn, shardID uint64, requestID uint64, data []byte) error {
	if len(data) > MaxFrameSize {
		return fmt.Errorf("frame of %d bytes exceeds the limit of %d bytes", len(data), MaxFrameSize)
	}

	var header [frameHeaderSize]byte
	binary.BigEndian.PutUint64(header[:8], shardID)
	binary.BigEndian.PutUint64(header[8:16], requestID)
	binary.BigEndian.PutUint32(header[16:20], uint32(len(data)))

	b := net.Buffers{header[:], data}
	_, err := b.WriteTo(conn)
	return err
}

// readFrame reads one frame into buf. The returned payload aliases buf unless
// buf is smaller than the payload, then a new slice is allocated.
func readFrame(conn net.Conn, buf []byte) (shardID, requestID uint64, payload []byte, err error) {
	if len(buf) < frameHeaderSize {
		buf = make([]byte, frameHeaderSize)
	}

	if _, err = io.ReadFull(conn, buf[:frameHeaderSize]); err != nil {
		return 0, 0, nil, err
	}

	shardID = binary.BigEndian.Uint64(buf[:8])
	requestID = binary.BigEndian.Uint64(buf[8:16])
	length := int(binary.BigEndian.Uint32(buf[16:20]))

	if length == 0 {
		return shardID, requestID, []byte{}, nil
	}
	if length > MaxFrameSize {
		return 0, 0, nil, fmt.Errorf("frame of %d bytes exceeds the limit of %d bytes", length, MaxFrameSize)
	}

	// the header is parsed, so its bytes may be overwritten by the payload
	if len(buf) < length {
		buf = make([]byte, length)
	}

	if _, err = io.ReadFull(conn, buf[:length]); err != nil {
		return 0, 0, nil, err
	}

	return shardID, requestID, buf[:length], nil
}
