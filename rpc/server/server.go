package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	lockmemory "github.com/ValentinKolb/dLock/lib/lock/adapters/memory"
	slmemory "github.com/ValentinKolb/dLock/lib/sharedlock/adapters/memory"
	"github.com/ValentinKolb/dLock/lib/timer"
	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/ValentinKolb/dLock/rpc/serializer"
	"github.com/ValentinKolb/dLock/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/errgroup"
)

var Logger = logger.GetLogger("rpc")

const metricsShutdownTimeout = 5 * time.Second

// serverShard is one shard of the RPC server: the adapter that owns its lock
// backend and the backend type
type serverShard struct {
	Type    common.ServerShardType
	Adapter IRPCServerAdapter
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		unix.NewUnixServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//	defer s.Close()
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	return &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		shards:     xsync.NewMapOf[uint64, serverShard](),
		metrics:    newServerMetrics(),
		scheduler:  timer.NewSystemScheduler(),
	}
}

type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, serverShard]
	metrics    *serverMetrics
	scheduler  timer.IScheduler

	metricsMu     sync.Mutex
	metricsServer *http.Server
	stopped       bool

	stopOnce  sync.Once
	closeOnce sync.Once
}

// HandleRequest decodes a request for shardId, lets the shard's adapter handle
// it and returns the encoded response. Transports call it for every request.
func (s *RPCServer) HandleRequest(shardId uint64, req []byte) []byte {
	start := time.Now()

	var msg common.Message
	var respMsg *common.Message

	shard, ok := s.shards.Load(shardId)
	if !ok {
		respMsg = common.NewErrorResponse(fmt.Sprintf("shard %d not found", shardId))
	} else if err := s.serializer.Deserialize(req, &msg); err != nil {
		respMsg = common.NewErrorResponse(fmt.Sprintf("failed to deserialize request: %s", err))
	} else {
		respMsg = shard.Adapter.Handle(&msg)
	}

	s.metrics.observe(shardId, msg.MsgType, resultOf(respMsg), start)

	val, err := s.serializer.Serialize(*respMsg)
	if err != nil {
		Logger.Errorf("failed to serialize response: %v", err)
		val, _ = s.serializer.Serialize(*common.NewErrorResponse(fmt.Sprintf("failed to serialize response: %s", err)))
	}
	return val
}

func (s *RPCServer) init() error {
	if s.config.LogLevel != "" {
		if err := common.InitLoggers(s.config.LogLevel); err != nil {
			return err
		}
	}

	if len(s.config.Shards) == 0 {
		return fmt.Errorf("no shards configured")
	}

	/*
		Note: A single RPC Server can host any number of shards. Each shard has
		its own lock table, either a shared (reader/writer) or an exclusive one.
	*/

	for _, shardConfig := range s.config.Shards {
		if _, exists := s.shards.Load(shardConfig.ShardID); exists {
			return fmt.Errorf("duplicate shard id %d", shardConfig.ShardID)
		}

		var adapter IRPCServerAdapter
		switch shardConfig.Type {
		case common.ShardTypeSharedLock:
			adapter = NewSharedLockServerAdapter(slmemory.NewMemorySharedLockAdapter(s.scheduler))
		case common.ShardTypeLock:
			adapter = NewLockServerAdapter(lockmemory.NewMemoryLockAdapter(s.scheduler))
		default:
			return fmt.Errorf("invalid shard type: %s", shardConfig.Type)
		}

		s.shards.Store(shardConfig.ShardID, serverShard{
			Type:    shardConfig.Type,
			Adapter: adapter,
		})
		s.metrics.registerShard(shardConfig.ShardID, shardConfig.Type, adapter)
		Logger.Infof("created %s shard %d", shardConfig.Type, shardConfig.ShardID)
	}

	s.transport.RegisterHandler(s.HandleRequest)

	Logger.Infof("dLock setup completed successfully")
	Logger.Infof(s.config.String())
	return nil
}

// Serve initializes the shards and starts the transport layer and, if configured,
// the metrics endpoint. It blocks until Close is called or one of them fails.
func (s *RPCServer) Serve() error {
	if err := s.init(); err != nil {
		return err
	}

	var g errgroup.Group

	g.Go(func() error {
		defer s.stop()
		return s.transport.Listen(s.config)
	})

	// the metrics server is registered before any goroutine runs, so a
	// failing transport always finds it in stop
	if metricsServer := s.newMetricsServer(); metricsServer != nil {
		g.Go(func() error {
			defer s.stop()
			return s.serveMetrics(metricsServer)
		})
	}

	return g.Wait()
}

// Close stops the server and releases all locks of all shards
func (s *RPCServer) Close() error {
	s.stop()

	var errs []error
	s.closeOnce.Do(func() {
		s.shards.Range(func(shardId uint64, shard serverShard) bool {
			if err := shard.Adapter.Close(); err != nil {
				errs = append(errs, fmt.Errorf("shard %d: %w", shardId, err))
			}
			return true
		})
		Logger.Infof("released all locks")
	})
	return errors.Join(errs...)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// stop closes the transport and the metrics endpoint, the shards stay intact
func (s *RPCServer) stop() {
	s.stopOnce.Do(func() {
		if err := s.transport.Close(); err != nil {
			Logger.Warningf("failed to close transport: %v", err)
		}

		s.metricsMu.Lock()
		defer s.metricsMu.Unlock()
		if s.metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
			defer cancel()
			if err := s.metricsServer.Shutdown(ctx); err != nil {
				Logger.Warningf("failed to stop metrics endpoint: %v", err)
			}
		}
		s.metricsServer = nil
		s.stopped = true
	})
}

// newMetricsServer registers the http server for the metrics endpoint. It
// returns nil if no endpoint is configured or the server was already stopped.
func (s *RPCServer) newMetricsServer() *http.Server {
	if s.config.MetricsEndpoint == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", s.metrics.handler())

	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()
	if s.stopped {
		return nil
	}
	s.metricsServer = &http.Server{
		Addr:              s.config.MetricsEndpoint,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.metricsServer
}

// serveMetrics serves prometheus metrics on the metrics endpoint
func (s *RPCServer) serveMetrics(server *http.Server) error {
	Logger.Infof("Starting metrics endpoint on %s/metrics", server.Addr)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics endpoint: %w", err)
	}
	return nil
}
