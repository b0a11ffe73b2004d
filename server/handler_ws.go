package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait     = 5 * time.Second
	maxFrameBytes = 1 << 16

	transportWS = "ws"
)

// 双工模式的确认帧
var ackOK = []byte("ok")

func nackFrame(reason string) []byte {
	return []byte("error: " + reason)
}

// ClientConn 负责发送（写）数据到设备的轻量包装
// send 只由读泵所在协程写入，writePump 是唯一的 WS 写者
type ClientConn struct {
	ws   *websocket.Conn
	send chan []byte
	done chan struct{} // writePump 退出后关闭

	closeOnce sync.Once
}

func NewClientConn(ws *websocket.Conn) *ClientConn {
	return &ClientConn{
		ws:   ws,
		send: make(chan []byte, 64),
		done: make(chan struct{}),
	}
}

// Enqueue 将确认帧压入发送队列；写协程已退出时返回 false
// 队列满时会等待写协程，只阻塞本连接，不影响 Tick
func (c *ClientConn) Enqueue(b []byte) bool {
	select {
	case c.send <- b:
		return true
	case <-c.done:
		return false
	}
}

// Close 关闭发送队列，writePump 写完剩余消息后关闭连接
func (c *ClientConn) Close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// Shutdown 服务停止时调用：发送 going away 并立即关闭底层连接
func (c *ClientConn) Shutdown() {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping")
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = c.ws.Close()
}

// writePump 独立协程，负责从 send 队列写出到 WS
func (c *ClientConn) writePump() {
	defer close(c.done)
	defer c.ws.Close()
	for msg := range c.send {
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

// readPump 读取设备消息，解析为 ControlEvent 送入事件通道，并逐帧确认
// 解析失败只回负确认并继续读取；读错误（断开、超时）结束本连接
func (s *Server) readPump(ctx context.Context, c *ClientConn) {
	c.ws.SetReadLimit(maxFrameBytes)
	idle := s.cfg.IdleTimeout
	if idle > 0 {
		c.ws.SetPongHandler(func(string) error {
			return c.ws.SetReadDeadline(time.Now().Add(idle))
		})
	}
	var limiter *rate.Limiter
	if s.cfg.MessagesPerSecond > 0 {
		burst := s.cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(s.cfg.MessagesPerSecond), burst)
	}

	remote := c.ws.RemoteAddr().String()
	for {
		if idle > 0 {
			_ = c.ws.SetReadDeadline(time.Now().Add(idle))
		}
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				Log.Warnw("duplex read error", "remote", remote, "err", err)
			}
			return
		}
		if limiter != nil && !limiter.Allow() {
			s.metrics.IncRateLimited(transportWS)
			if !c.Enqueue(nackFrame("rate limited")) {
				return
			}
			continue
		}

		ev, err := s.decode(ctx, transportWS, payload, DecodeFrame)
		if err != nil {
			Log.Debugw("rejected frame", "remote", remote, "err", err)
			if !c.Enqueue(nackFrame(nackReason(err))) {
				return
			}
			continue
		}
		s.tx.Send(ev)
		if !c.Enqueue(ackOK) {
			return
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 设备端不带 Origin，局域网内放行所有来源
		return true
	},
}

// handleWS 双工接入：GET /ws 升级为 WebSocket，连接存活期间逐帧处理
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn := connFromContext(r.Context())
	// 升级后由这里报告断开（released 幂等）；未升级的连接由 ConnState 报告
	reportLost := func() {
		if conn != nil {
			s.conns.released(conn)
		}
	}
	defer reportLost()
	if s.cfg.MaxConnections > 0 && s.conns.activeDuplex() >= s.cfg.MaxConnections {
		s.metrics.IncRefused()
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnw("upgrade error", "remote", r.RemoteAddr, "err", err)
		return
	}

	client := NewClientConn(ws)
	if !s.conns.acquire(client) {
		s.metrics.IncRefused()
		msg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "connection refused")
		_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		_ = ws.Close()
		return
	}
	go client.writePump()
	defer func() {
		// 读泵 panic 时也要关闭写协程；先报告断开再注销，Stop 返回时断开事件已入队
		client.Close()
		<-client.done
		reportLost()
		s.conns.release(client)
	}()

	if s.cfg.Greeting != "" {
		client.Enqueue([]byte(s.cfg.Greeting))
	}
	s.readPump(r.Context(), client)
}
