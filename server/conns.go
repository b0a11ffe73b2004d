package server

import (
	"net"
	"sync"
)

// connState 单个 TCP 连接的生命周期记录
type connState struct {
	hijacked bool // 已被双工处理器接管（由处理器负责报告断开）
}

// connRegistry 管理控制连接的生命周期：
// 保证每个连接恰好报告一次 ConnectionEstablished 与 ConnectionLost，
// 并记录存活的双工连接，便于 Stop 时统一关闭
type connRegistry struct {
	mu      sync.Mutex
	tracked map[net.Conn]*connState
	duplex  map[*ClientConn]struct{}
	max     int // 双工连接上限，0 表示不限
	closing bool
	drained chan struct{} // closeAll 之后最后一个双工处理器注销时关闭
	once    sync.Once

	tx      EventSender
	metrics *Metrics
}

func newConnRegistry(tx EventSender, metrics *Metrics, maxDuplex int) *connRegistry {
	return &connRegistry{
		tracked: make(map[net.Conn]*connState),
		duplex:  make(map[*ClientConn]struct{}),
		max:     maxDuplex,
		drained: make(chan struct{}),
		tx:      tx,
		metrics: metrics,
	}
}

// opened 连接首次访问控制路由；同一连接重复调用只登记一次
func (m *connRegistry) opened(c net.Conn) {
	m.mu.Lock()
	if _, ok := m.tracked[c]; ok {
		m.mu.Unlock()
		return
	}
	m.tracked[c] = &connState{}
	m.mu.Unlock()

	m.metrics.IncAccepted()
	m.tx.Send(ControlEvent{Kind: EventConnectionEstablished})
	Log.Infow("connection established", "remote", c.RemoteAddr().String())
}

// hijacked 连接被升级为双工通道，此后由 released 报告断开
func (m *connRegistry) hijacked(c net.Conn) {
	m.mu.Lock()
	if st, ok := m.tracked[c]; ok {
		st.hijacked = true
	}
	m.mu.Unlock()
}

// closed 由 http.Server 报告的关闭（未被接管的连接）；未登记的连接忽略
func (m *connRegistry) closed(c net.Conn) {
	m.mu.Lock()
	st, ok := m.tracked[c]
	if !ok || st.hijacked {
		m.mu.Unlock()
		return
	}
	delete(m.tracked, c)
	m.mu.Unlock()
	m.lost(c)
}

// released 双工处理器退出时调用；未被接管的连接忽略（由 closed 处理）
func (m *connRegistry) released(c net.Conn) {
	m.mu.Lock()
	st, ok := m.tracked[c]
	if !ok || !st.hijacked {
		m.mu.Unlock()
		return
	}
	delete(m.tracked, c)
	m.mu.Unlock()
	m.lost(c)
}

func (m *connRegistry) lost(c net.Conn) {
	m.metrics.IncClosed()
	m.tx.Send(ControlEvent{Kind: EventConnectionLost})
	Log.Infow("connection lost", "remote", c.RemoteAddr().String())
}

// acquire 登记一个双工连接；超过上限或服务正在关闭时返回 false
func (m *connRegistry) acquire(cc *ClientConn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closing || (m.max > 0 && len(m.duplex) >= m.max) {
		return false
	}
	m.duplex[cc] = struct{}{}
	return true
}

func (m *connRegistry) release(cc *ClientConn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.duplex, cc)
	m.checkDrained()
}

// checkDrained 须持有 mu
func (m *connRegistry) checkDrained() {
	if m.closing && len(m.duplex) == 0 {
		m.once.Do(func() { close(m.drained) })
	}
}

// activeDuplex 当前存活的双工连接数
func (m *connRegistry) activeDuplex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.duplex)
}

// closeAll 关闭所有双工连接（Stop 时调用），读泵随之退出；此后不再接纳新的双工连接
func (m *connRegistry) closeAll() {
	m.mu.Lock()
	m.closing = true
	conns := make([]*ClientConn, 0, len(m.duplex))
	for cc := range m.duplex {
		conns = append(conns, cc)
	}
	m.checkDrained()
	m.mu.Unlock()
	for _, cc := range conns {
		cc.Shutdown()
	}
}

// done 所有双工处理器退出后关闭；须在 closeAll 之后等待
func (m *connRegistry) done() <-chan struct{} {
	return m.drained
}
