package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/VictoriaMetrics/metrics"
)

// serverMetrics records per request metrics of a server in its own set,
// so several servers in one process do not share counters.
type serverMetrics struct {
	set *metrics.Set
}

func newServerMetrics() *serverMetrics {
	return &serverMetrics{set: metrics.NewSet()}
}

// observe records one handled request. result is "ok", "rejected" or "error".
func (m *serverMetrics) observe(shardId uint64, msgType common.MessageType, result string, start time.Time) {
	m.set.GetOrCreateCounter(fmt.Sprintf(`dlock_requests_total{shard="%d",op=%q,result=%q}`, shardId, msgType.String(), result)).Inc()
	m.set.GetOrCreateSummary(fmt.Sprintf(`dlock_request_duration_seconds{op=%q}`, msgType.String())).UpdateDuration(start)
}

// registerShard exposes the number of held keys of a shard, if the adapter can report it
func (m *serverMetrics) registerShard(shardId uint64, shardType common.ServerShardType, adapter IRPCServerAdapter) {
	s, ok := adapter.(sizer)
	if !ok {
		return
	}
	m.set.GetOrCreateGauge(fmt.Sprintf(`dlock_held_keys{shard="%d",type=%q}`, shardId, string(shardType)), func() float64 {
		return float64(s.Len())
	})
}

// handler serves the metrics in prometheus text format
func (m *serverMetrics) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		m.set.WritePrometheus(w)
		metrics.WriteProcessMetrics(w)
	})
}

// resultOf classifies a response for the request counter
func resultOf(resp *common.Message) string {
	switch {
	case resp.Err != "" || resp.MsgType == common.MsgTError:
		return "error"
	case resp.Ok || resp.MsgType == common.MsgTSLState || resp.MsgType == common.MsgTLCKState:
		return "ok"
	default:
		return "rejected"
	}
}
