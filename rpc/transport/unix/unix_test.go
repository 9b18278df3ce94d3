package unix

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/ValentinKolb/dLock/rpc/transport"
)

// echoHandler answers with the shard id followed by the request
func echoHandler(shardId uint64, req []byte) []byte {
	resp := make([]byte, 8+len(req))
	binary.BigEndian.PutUint64(resp[:8], shardId)
	copy(resp[8:], req)
	return resp
}

// startServer starts a unix server transport and returns a connected client
func startServer(t *testing.T, clientConf common.ClientConfig) (transport.IRPCServerTransport, transport.IRPCClientTransport) {
	t.Helper()

	socket := filepath.Join(t.TempDir(), "dlock.sock")
	server := NewUnixServerTransport()
	server.RegisterHandler(echoHandler)

	done := make(chan error, 1)
	go func() {
		done <- server.Listen(common.ServerConfig{
			Transport:     common.ServerTransportConfig{Endpoint: socket, WorkersPerConn: 4},
			TimeoutSecond: 5,
		})
	}()

	clientConf.Transport.Endpoints = []string{socket}
	client := NewUnixClientTransport()

	deadline := time.Now().Add(2 * time.Second)
	for {
		err := client.Connect(clientConf)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Failed to connect to server: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Cleanup(func() {
		client.Close()
		server.Close()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Listen returned error after Close: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("Listen did not return after Close")
		}
	})

	return server, client
}

func TestSendReceive(t *testing.T) {
	_, client := startServer(t, common.ClientConfig{TimeoutSecond: 2})

	resp, err := client.Send(42, []byte("hello"))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if shard := binary.BigEndian.Uint64(resp[:8]); shard != 42 {
		t.Errorf("Expected shard 42, got %d", shard)
	}
	if !bytes.Equal(resp[8:], []byte("hello")) {
		t.Errorf("Expected echo of request, got %q", resp[8:])
	}
}

func TestEmptyRequest(t *testing.T) {
	_, client := startServer(t, common.ClientConfig{TimeoutSecond: 2})

	resp, err := client.Send(1, nil)
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(resp) != 8 {
		t.Errorf("Expected 8 byte response, got %d", len(resp))
	}
}

func TestConcurrentRequests(t *testing.T) {
	_, client := startServer(t, common.ClientConfig{
		TimeoutSecond: 5,
		Transport:     common.ClientTransportConfig{ConnectionsPerEndpoint: 3},
	})

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := []byte(fmt.Sprintf("request-%d", i))
			resp, err := client.Send(uint64(i), req)
			if err != nil {
				t.Errorf("Send %d failed: %v", i, err)
				return
			}
			if shard := binary.BigEndian.Uint64(resp[:8]); shard != uint64(i) {
				t.Errorf("Request %d got the response of shard %d", i, shard)
			}
			if !bytes.Equal(resp[8:], req) {
				t.Errorf("Request %d got response %q", i, resp[8:])
			}
		}(i)
	}
	wg.Wait()
}

func TestSendAfterClose(t *testing.T) {
	_, client := startServer(t, common.ClientConfig{TimeoutSecond: 1})

	client.Close()
	if _, err := client.Send(1, []byte("x")); err == nil {
		t.Error("Expected Send on a closed transport to fail")
	}
}
