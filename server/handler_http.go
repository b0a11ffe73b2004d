package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const transportHTTP = "http"

// 请求/响应模式的端点，与设备固件中的路径一致
var peakRoutes = []struct {
	path   string
	action string
}{
	{"/peakright", ActionNameRight},
	{"/leftpeak", ActionNameLeft},
	{"/shootpeak", ActionNameShoot},
}

// Handler 返回服务的完整路由；Start 使用它，测试也可直接挂到 httptest
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(s.trackControl)
		r.Get("/ws", s.handleWS)
		for _, route := range peakRoutes {
			r.Post(route.path, s.handlePeak(route.action))
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/admin/stats", s.handleStats)
	if s.cfg.Settings != nil {
		r.Get("/admin/settings", s.handleGetSettings)
		r.Post("/admin/settings", s.handleUpdateSettings)
	}
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusNotFound, "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}

// trackControl 只有控制路由上的连接才进入生命周期跟踪；
// 健康检查、指标抓取等连接不会向游戏通道发送事件
func (s *Server) trackControl(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c := connFromContext(r.Context()); c != nil {
			s.conns.opened(c)
		}
		next.ServeHTTP(w, r)
	})
}

// handlePeak 一次性请求：解析 {"peak":N}，成功则入队并回 200，失败回 400
// 每个连接只承载一个请求（Connection: close）
func (s *Server) handlePeak(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Connection", "close")

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFrameBytes))
		if err != nil {
			writeStatus(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		ev, err := s.decode(r.Context(), transportHTTP, body, func(b []byte) (ControlEvent, error) {
			return DecodePeakBody(action, b)
		})
		if err != nil {
			Log.Debugw("rejected request", "remote", r.RemoteAddr, "path", r.URL.Path, "err", err)
			writeStatus(w, http.StatusBadRequest, "Invalid JSON: "+nackReason(err))
			return
		}
		s.tx.Send(ev)
		writeStatus(w, http.StatusOK, "Peak received successfully")
	}
}

func writeStatus(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, body)
}

// decode 两种传输共用：解析、记录指标与 span；解析中的 panic 转为错误
func (s *Server) decode(ctx context.Context, transport string, payload []byte, fn func([]byte) (ControlEvent, error)) (ev ControlEvent, err error) {
	_, span := s.startMessageSpan(ctx, transport, len(payload))
	defer func() {
		if rec := recover(); rec != nil {
			Log.Errorw("decode panic", "transport", transport, "panic", rec)
			ev, err = ControlEvent{}, fmt.Errorf("decode panic: %v", rec)
		}
		endMessageSpan(span, ev, err)
		if err != nil {
			s.metrics.IncRejected(transport, err)
		} else {
			s.metrics.IncMessage(transport)
		}
	}()
	return fn(payload)
}
