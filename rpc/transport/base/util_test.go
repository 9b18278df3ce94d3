package base

import (
	"bytes"
	"encoding/binary"
	"net"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	payloads := [][]byte{[]byte("hello"), {}, bytes.Repeat([]byte{7}, 1024)}

	go func() {
		for i, p := range payloads {
			if err := writeFrame(client, 100, uint64(i+1), p); err != nil {
				t.Errorf("writeFrame failed: %v", err)
				return
			}
		}
	}()

	// buffer smaller than the largest payload
	buf := make([]byte, 64)
	for i, p := range payloads {
		shardID, requestID, payload, err := readFrame(server, buf)
		if err != nil {
			t.Fatalf("readFrame failed: %v", err)
		}
		if shardID != 100 || requestID != uint64(i+1) {
			t.Errorf("frame %d: expected shard 100 and request %d, got %d and %d", i, i+1, shardID, requestID)
		}
		if !bytes.Equal(payload, p) {
			t.Errorf("frame %d: payload mismatch", i)
		}
	}
}

func TestReadFrameRejectsOversizedFrames(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		header := make([]byte, frameHeaderSize)
		binary.BigEndian.PutUint32(header[16:20], MaxFrameSize+1)
		_, _ = client.Write(header)
	}()

	if _, _, _, err := readFrame(server, nil); err == nil {
		t.Error("expected an error for a frame above the size limit")
	}
}
