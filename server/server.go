package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrAlreadyStarted Start 只能调用一次
var ErrAlreadyStarted = errors.New("server already started")

// Server 控制服务：持有监听器、后台 accept 协程与事件通道的生产端
// 每个进程一个实例；New 不做任何 I/O，Start 绑定端口并开始接受连接
type Server struct {
	cfg     Config
	tx      EventSender
	metrics *Metrics
	conns   *connRegistry
	tracer  trace.Tracer

	mu       sync.Mutex
	started  bool
	ln       net.Listener
	httpSrv  *http.Server
	serveErr chan error
}

// New 创建空闲的服务，并返回新事件通道的消费端
func New(cfg Config) (*Server, EventReceiver) {
	tx, rx := NewEventChannel()
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics("")
	}
	if cfg.TracerName == "" {
		cfg.TracerName = DefaultConfig().TracerName
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = DefaultConfig().ShutdownGrace
	}
	s := &Server{
		cfg:     cfg,
		tx:      tx,
		metrics: cfg.Metrics,
		conns:   newConnRegistry(tx, cfg.Metrics, cfg.MaxConnections),
		tracer:  otel.Tracer(cfg.TracerName),
	}
	return s, rx
}

// Metrics 返回服务的指标
func (s *Server) Metrics() *Metrics { return s.metrics }

// Start 解析地址、绑定端口并在后台启动 accept 循环
// 解析或绑定失败时返回错误，不 panic
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}

	addr, err := ResolveBindAddr(s.cfg.Host, s.cfg.Port)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", addr, err)
	}

	s.ln = ln
	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(Log.Desugar()),
		ConnState:         s.onConnState,
		ConnContext:       withConn,
	}
	s.serveErr = make(chan error, 1)
	s.started = true

	go func(srv *http.Server, ln net.Listener, done chan<- error) {
		err := srv.Serve(&acceptLoop{Listener: ln})
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		if err != nil {
			Log.Errorw("accept loop stopped", "err", err)
		}
		done <- err
	}(s.httpSrv, ln, s.serveErr)

	Log.Infof("control server listening on %s", ln.Addr())
	return nil
}

// Addr 返回实际监听地址；未启动时为 nil
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Stop 停止接受新连接并关闭所有双工连接；在 ctx 截止（或默认宽限期）内返回
// 未启动时直接返回 nil
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpSrv
	done := s.serveErr
	s.httpSrv = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ShutdownGrace)
		defer cancel()
	}

	Log.Info("control server shutting down")
	// Shutdown 不跟踪被接管的连接，双工连接单独关闭
	s.conns.closeAll()
	err := srv.Shutdown(ctx)
	if err != nil {
		// 宽限期内未能优雅结束，强制关闭
		_ = srv.Close()
	}

	select {
	case <-s.conns.done():
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	select {
	case <-done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

// onConnState 只处理已登记连接的接管与关闭；登记由控制路由完成（trackControl）
func (s *Server) onConnState(c net.Conn, state http.ConnState) {
	switch state {
	case http.StateHijacked:
		s.conns.hijacked(c)
	case http.StateClosed:
		s.conns.closed(c)
	}
}

type connKey struct{}

// withConn 将底层连接放入请求上下文，控制路由据此登记连接、报告断开
func withConn(ctx context.Context, c net.Conn) context.Context {
	return context.WithValue(ctx, connKey{}, c)
}

func connFromContext(ctx context.Context) net.Conn {
	c, _ := ctx.Value(connKey{}).(net.Conn)
	return c
}

// acceptLoop 包装监听器：单次 accept 失败只记录日志并退避重试，
// 仅在监听器关闭后返回错误
type acceptLoop struct {
	net.Listener
}

func (l *acceptLoop) Accept() (net.Conn, error) {
	var delay time.Duration
	for {
		c, err := l.Listener.Accept()
		if err == nil {
			return c, nil
		}
		if errors.Is(err, net.ErrClosed) {
			return nil, err
		}
		if delay == 0 {
			delay = 5 * time.Millisecond
		} else if delay *= 2; delay > time.Second {
			delay = time.Second
		}
		Log.Warnw("accept error; retrying", "err", err, "delay", delay)
		time.Sleep(delay)
	}
}
