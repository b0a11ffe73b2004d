package server

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 记录控制服务运行期的关键指标（用于监控与调试）
// 原子计数器用于 /admin/stats 快照，同时镜像到 Prometheus 采集器
type Metrics struct {
	ConnectionsAccepted int64 // 已接受的连接数
	ConnectionsClosed   int64 // 已关闭的连接数
	ConnectionsRefused  int64 // 因连接数上限被拒绝的双工连接
	MessagesAccepted    int64 // 解析成功并入队的消息数
	MessagesRejected    int64 // 解析失败（负确认）的消息数
	RateLimited         int64 // 因限速被拒绝的消息数
	ActionsResolved     int64 // Resolver 产出的 GameAction 数
	BelowThreshold      int64 // 低于阈值被忽略的强度事件数
	TickCount           int64 // Resolver 被调用的 Tick 数

	registry    *prometheus.Registry
	connections *prometheus.CounterVec
	active      prometheus.Gauge
	messages    *prometheus.CounterVec
	actions     *prometheus.CounterVec
	ticks       prometheus.Counter
}

// NewMetrics 在独立的 Registry 上注册采集器（便于多实例与测试）
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "galactrl"
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		connections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Control connections by lifecycle event",
		}, []string{"event"}),
		active: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Currently open control connections",
		}),
		messages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Inbound control messages by transport and result",
		}, []string{"transport", "result"}),
		actions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Game actions resolved from control events",
		}, []string{"action"}),
		ticks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Resolver invocations",
		}),
	}
}

// Registry 返回 Prometheus Registry，用于挂载 /metrics
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) IncAccepted() {
	atomic.AddInt64(&m.ConnectionsAccepted, 1)
	m.connections.WithLabelValues("accepted").Inc()
	m.active.Inc()
}

func (m *Metrics) IncClosed() {
	atomic.AddInt64(&m.ConnectionsClosed, 1)
	m.connections.WithLabelValues("closed").Inc()
	m.active.Dec()
}

func (m *Metrics) IncRefused() {
	atomic.AddInt64(&m.ConnectionsRefused, 1)
	m.connections.WithLabelValues("refused").Inc()
}

func (m *Metrics) IncMessage(transport string) {
	atomic.AddInt64(&m.MessagesAccepted, 1)
	m.messages.WithLabelValues(transport, "ok").Inc()
}

func (m *Metrics) IncRejected(transport string, err error) {
	atomic.AddInt64(&m.MessagesRejected, 1)
	m.messages.WithLabelValues(transport, codecErrorLabel(err)).Inc()
}

func (m *Metrics) IncRateLimited(transport string) {
	atomic.AddInt64(&m.RateLimited, 1)
	m.messages.WithLabelValues(transport, "rate_limited").Inc()
}

func (m *Metrics) IncAction(a GameAction) {
	atomic.AddInt64(&m.ActionsResolved, 1)
	m.actions.WithLabelValues(a.String()).Inc()
}

func (m *Metrics) IncBelowThreshold() { atomic.AddInt64(&m.BelowThreshold, 1) }

func (m *Metrics) IncTick() {
	atomic.AddInt64(&m.TickCount, 1)
	m.ticks.Inc()
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *Metrics) Snapshot() map[string]any {
	accepted := atomic.LoadInt64(&m.ConnectionsAccepted)
	closed := atomic.LoadInt64(&m.ConnectionsClosed)
	return map[string]any{
		"connections_accepted": accepted,
		"connections_closed":   closed,
		"connections_active":   accepted - closed,
		"connections_refused":  atomic.LoadInt64(&m.ConnectionsRefused),
		"messages_accepted":    atomic.LoadInt64(&m.MessagesAccepted),
		"messages_rejected":    atomic.LoadInt64(&m.MessagesRejected),
		"rate_limited":         atomic.LoadInt64(&m.RateLimited),
		"actions_resolved":     atomic.LoadInt64(&m.ActionsResolved),
		"below_threshold":      atomic.LoadInt64(&m.BelowThreshold),
		"tick_count":           atomic.LoadInt64(&m.TickCount),
	}
}
