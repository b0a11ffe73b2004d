package server

import (
	"encoding/json"
	"net/http"
)

// SettingsStore 游戏设置的并发安全访问器（由游戏侧持有）
type SettingsStore interface {
	Threshold
	SetPeakMin(v float32)
	CanShoot() bool
	SetCanShoot(v bool)
}

type settingsPayload struct {
	PeakMin  *float32 `json:"peakMin,omitempty"`
	CanShoot *bool    `json:"canShoot,omitempty"`
}

// handleGetSettings GET /admin/settings 返回当前设置
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	peak := s.cfg.Settings.PeakMin()
	canShoot := s.cfg.Settings.CanShoot()
	writeJSON(w, http.StatusOK, settingsPayload{PeakMin: &peak, CanShoot: &canShoot})
}

// handleUpdateSettings POST /admin/settings 以 JSON 载荷更新部分字段（热更新）
// 示例：{"peakMin":650}
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var body settingsPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFrameBytes)).Decode(&body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if body.PeakMin != nil {
		s.cfg.Settings.SetPeakMin(*body.PeakMin)
	}
	if body.CanShoot != nil {
		s.cfg.Settings.SetCanShoot(*body.CanShoot)
	}
	Log.Infof("settings updated: peakMin=%.1f canShoot=%v", s.cfg.Settings.PeakMin(), s.cfg.Settings.CanShoot())
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleStats GET /admin/stats 输出运行指标
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"duplex":  s.conns.activeDuplex(),
		"metrics": s.metrics.Snapshot(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
