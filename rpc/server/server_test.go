package server

import (
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/ValentinKolb/dLock/rpc/serializer"
	"github.com/ValentinKolb/dLock/rpc/transport"
)

const (
	sharedShard = 1
	lockShard   = 2
)

// fakeTransport hands requests directly to the registered handler
type fakeTransport struct {
	mu      sync.Mutex
	handler transport.ServerHandleFunc
	closed  chan struct{}
	once    sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{closed: make(chan struct{})}
}

func (t *fakeTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = handler
}

func (t *fakeTransport) Listen(common.ServerConfig) error {
	<-t.closed
	return nil
}

func (t *fakeTransport) Close() error {
	t.once.Do(func() { close(t.closed) })
	return nil
}

func (t *fakeTransport) registered() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.handler != nil
}

func testConfig() common.ServerConfig {
	return common.ServerConfig{
		Shards: []common.ServerShard{
			{ShardID: sharedShard, Type: common.ShardTypeSharedLock},
			{ShardID: lockShard, Type: common.ShardTypeLock},
		},
		TimeoutSecond: 5,
		LogLevel:      "error",
	}
}

func newTestServer(t *testing.T) *RPCServer {
	t.Helper()
	s := NewRPCServer(testConfig(), newFakeTransport(), serializer.NewBinarySerializer())
	if err := s.init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func send(t *testing.T, s *RPCServer, shardId uint64, req *common.Message) *common.Message {
	t.Helper()
	b, err := s.serializer.Serialize(*req)
	if err != nil {
		t.Fatalf("failed to serialize request: %v", err)
	}
	var resp common.Message
	if err := s.serializer.Deserialize(s.HandleRequest(shardId, b), &resp); err != nil {
		t.Fatalf("failed to deserialize response: %v", err)
	}
	return &resp
}

func TestSharedLockShard(t *testing.T) {
	s := newTestServer(t)

	resp := send(t, s, sharedShard, common.NewLockRequest(common.MsgTSLAcquireWriter, "res", "w1", time.Minute))
	if !resp.Ok || resp.Err != "" {
		t.Fatalf("expected writer acquisition to succeed, got %+v", resp)
	}

	resp = send(t, s, sharedShard, common.NewAcquireReaderRequest("res", "r1", 2, time.Minute))
	if resp.Ok {
		t.Errorf("expected reader acquisition to fail while a writer holds the key")
	}

	resp = send(t, s, sharedShard, common.NewStateRequest(common.MsgTSLState, "res"))
	state, err := resp.SharedLockState()
	if err != nil {
		t.Fatalf("unexpected state error: %v", err)
	}
	if state == nil || state.Writer == nil || state.Writer.Owner != "w1" || state.Writer.Expiration == nil {
		t.Fatalf("expected writer w1 with expiration, got %+v", state)
	}

	resp = send(t, s, sharedShard, common.NewLockRequest(common.MsgTSLReleaseWriter, "res", "w1", 0))
	if !resp.Ok {
		t.Fatalf("expected release to succeed")
	}

	for _, id := range []string{"r1", "r2"} {
		if resp = send(t, s, sharedShard, common.NewAcquireReaderRequest("res", id, 2, 0)); !resp.Ok {
			t.Fatalf("expected reader %s to acquire a slot", id)
		}
	}
	if resp = send(t, s, sharedShard, common.NewAcquireReaderRequest("res", "r3", 2, 0)); resp.Ok {
		t.Errorf("expected third reader to be rejected")
	}

	resp = send(t, s, sharedShard, common.NewStateRequest(common.MsgTSLState, "res"))
	state, _ = resp.SharedLockState()
	if state == nil || state.Reader == nil || state.Reader.Limit != 2 || len(state.Reader.AcquiredSlots) != 2 {
		t.Fatalf("expected two reader slots with limit 2, got %+v", state)
	}

	if resp = send(t, s, sharedShard, common.NewStateRequest(common.MsgTSLForceRelease, "res")); !resp.Ok {
		t.Errorf("expected force release to succeed")
	}
	resp = send(t, s, sharedShard, common.NewStateRequest(common.MsgTSLState, "res"))
	if resp.Mode != common.ModeFree {
		t.Errorf("expected free key after force release, got mode %d", resp.Mode)
	}
}

func TestLockShard(t *testing.T) {
	s := newTestServer(t)

	if resp := send(t, s, lockShard, common.NewLockRequest(common.MsgTLCKAcquire, "res", "a", 0)); !resp.Ok {
		t.Fatalf("expected acquisition to succeed")
	}
	if resp := send(t, s, lockShard, common.NewLockRequest(common.MsgTLCKAcquire, "res", "b", 0)); resp.Ok {
		t.Errorf("expected second owner to be rejected")
	}
	if resp := send(t, s, lockShard, common.NewLockRequest(common.MsgTLCKRefresh, "res", "a", time.Second)); resp.Ok {
		t.Errorf("expected refresh of a lock without ttl to fail")
	}

	resp := send(t, s, lockShard, common.NewStateRequest(common.MsgTLCKState, "res"))
	state, err := resp.LockState()
	if err != nil || state == nil || state.Owner != "a" || state.Expiration != nil {
		t.Fatalf("expected lock owned by a without expiration, got %+v (err: %v)", state, err)
	}

	if resp := send(t, s, lockShard, common.NewStateRequest(common.MsgTLCKForceRelease, "res")); !resp.Ok {
		t.Errorf("expected force release to succeed")
	}
}

func TestTTLAboveLimitIsRejected(t *testing.T) {
	s := newTestServer(t)
	const hugeTTL = uint64(1) << 63

	requests := []struct {
		shardId uint64
		req     common.Message
		state   common.MessageType
	}{
		{sharedShard, common.Message{MsgType: common.MsgTSLAcquireWriter, Key: "res", LockID: "w1", TTL: hugeTTL}, common.MsgTSLState},
		{sharedShard, common.Message{MsgType: common.MsgTSLAcquireReader, Key: "res", LockID: "r1", Limit: 1, TTL: hugeTTL}, common.MsgTSLState},
		{lockShard, common.Message{MsgType: common.MsgTLCKAcquire, Key: "res", LockID: "a", TTL: hugeTTL}, common.MsgTLCKState},
	}

	for _, r := range requests {
		resp := send(t, s, r.shardId, &r.req)
		if resp.MsgType != common.MsgTError || resp.Err == "" {
			t.Errorf("%s: expected an error response for ttl %d, got %+v", r.req.MsgType, hugeTTL, resp)
		}
		if resp = send(t, s, r.shardId, common.NewStateRequest(r.state, "res")); resp.Mode != common.ModeFree {
			t.Errorf("%s: expected key to stay free, got mode %d", r.req.MsgType, resp.Mode)
		}
	}

	// the largest accepted ttl still produces an expiration
	maxTTL := uint64(common.MaxTTL / time.Millisecond)
	resp := send(t, s, lockShard, &common.Message{MsgType: common.MsgTLCKAcquire, Key: "res", LockID: "a", TTL: maxTTL})
	if !resp.Ok {
		t.Fatalf("expected acquisition with maximum ttl to succeed, got %+v", resp)
	}
	state, err := send(t, s, lockShard, common.NewStateRequest(common.MsgTLCKState, "res")).LockState()
	if err != nil || state == nil || state.Expiration == nil || !state.Expiration.After(time.Now()) {
		t.Fatalf("expected lock with a future expiration, got %+v (err: %v)", state, err)
	}
}

func TestShardsAreIndependent(t *testing.T) {
	s := newTestServer(t)

	send(t, s, sharedShard, common.NewLockRequest(common.MsgTSLAcquireWriter, "res", "w1", 0))
	if resp := send(t, s, lockShard, common.NewLockRequest(common.MsgTLCKAcquire, "res", "other", 0)); !resp.Ok {
		t.Errorf("expected the same key on another shard to be free")
	}
}

func TestInvalidRequests(t *testing.T) {
	s := newTestServer(t)

	t.Run("UnknownShard", func(t *testing.T) {
		resp := send(t, s, 42, common.NewStateRequest(common.MsgTSLState, "res"))
		if resp.MsgType != common.MsgTError || !strings.Contains(resp.Err, "shard 42 not found") {
			t.Errorf("expected shard not found error, got %+v", resp)
		}
	})

	t.Run("WrongShardType", func(t *testing.T) {
		resp := send(t, s, lockShard, common.NewLockRequest(common.MsgTSLAcquireWriter, "res", "w1", 0))
		if resp.MsgType != common.MsgTError || resp.Err == "" {
			t.Errorf("expected error for a shared lock request on a lock shard, got %+v", resp)
		}
	})

	t.Run("BadPayload", func(t *testing.T) {
		var resp common.Message
		if err := s.serializer.Deserialize(s.HandleRequest(sharedShard, []byte{0xff}), &resp); err != nil {
			t.Fatalf("failed to deserialize response: %v", err)
		}
		if resp.MsgType != common.MsgTError || !strings.Contains(resp.Err, "deserialize") {
			t.Errorf("expected deserialize error, got %+v", resp)
		}
	})
}

func TestInitErrors(t *testing.T) {
	cases := map[string][]common.ServerShard{
		"NoShards":       nil,
		"DuplicateShard": {{ShardID: 1, Type: common.ShardTypeLock}, {ShardID: 1, Type: common.ShardTypeSharedLock}},
		"InvalidType":    {{ShardID: 1, Type: "kv"}},
	}
	for name, shards := range cases {
		t.Run(name, func(t *testing.T) {
			config := testConfig()
			config.Shards = shards
			s := NewRPCServer(config, newFakeTransport(), serializer.NewBinarySerializer())
			if err := s.Serve(); err == nil {
				t.Errorf("expected Serve to fail")
			}
		})
	}
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t)

	send(t, s, sharedShard, common.NewLockRequest(common.MsgTSLAcquireWriter, "res", "w1", 0))
	send(t, s, sharedShard, common.NewLockRequest(common.MsgTSLAcquireWriter, "res", "w2", 0))
	send(t, s, 42, common.NewStateRequest(common.MsgTSLState, "res"))

	rec := httptest.NewRecorder()
	s.metrics.handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{
		`dlock_requests_total{shard="1",op="acquireWriter",result="ok"} 1`,
		`dlock_requests_total{shard="1",op="acquireWriter",result="rejected"} 1`,
		`dlock_requests_total{shard="42",op="unknown",result="error"} 1`,
		`dlock_held_keys{shard="1",type="sharedlock"} 1`,
		`dlock_held_keys{shard="2",type="lock"} 0`,
		`dlock_request_duration_seconds_count{op="acquireWriter"} 2`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected metrics to contain %s\n%s", want, body)
		}
	}
}

func TestServeAndClose(t *testing.T) {
	ft := newFakeTransport()
	s := NewRPCServer(testConfig(), ft, serializer.NewBinarySerializer())

	done := make(chan error, 1)
	go func() { done <- s.Serve() }()

	deadline := time.Now().Add(2 * time.Second)
	for !ft.registered() {
		if time.Now().After(deadline) {
			t.Fatal("handler was never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	resp := send(t, s, sharedShard, common.NewLockRequest(common.MsgTSLAcquireWriter, "res", "w1", 0))
	if !resp.Ok {
		t.Fatalf("expected acquisition to succeed")
	}

	if err := s.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected Serve to return nil after Close, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Close")
	}

	resp = send(t, s, sharedShard, common.NewStateRequest(common.MsgTSLState, "res"))
	if resp.Mode != common.ModeFree {
		t.Errorf("expected all locks to be released by Close")
	}

	if err := s.Close(); err != nil {
		t.Errorf("second close failed: %v", err)
	}
}

// failingTransport fails to listen right away
type failingTransport struct{ err error }

func (t *failingTransport) RegisterHandler(transport.ServerHandleFunc) {}
func (t *failingTransport) Listen(common.ServerConfig) error            { return t.err }
func (t *failingTransport) Close() error                                { return nil }

func TestServeReturnsWhenListenFails(t *testing.T) {
	listenErr := errors.New("listen failed")

	for i := 0; i < 200; i++ {
		cfg := testConfig()
		cfg.MetricsEndpoint = "127.0.0.1:0"
		s := NewRPCServer(cfg, &failingTransport{err: listenErr}, serializer.NewBinarySerializer())

		done := make(chan error, 1)
		go func() { done <- s.Serve() }()

		select {
		case err := <-done:
			if !errors.Is(err, listenErr) {
				t.Fatalf("run %d: expected listen error, got %v", i, err)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("run %d: Serve did not return after the transport failed", i)
		}
		_ = s.Close()
	}
}

func TestServeAfterClose(t *testing.T) {
	cfg := testConfig()
	cfg.MetricsEndpoint = "127.0.0.1:0"
	ft := newFakeTransport()
	s := NewRPCServer(cfg, ft, serializer.NewBinarySerializer())
	if err := s.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Serve() }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve of a closed server did not return")
	}
}
