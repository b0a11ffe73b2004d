package game

import (
	"sync"

	"galactrl/server"
)

// DefaultPeakMin 设备信号转换为游戏指令的默认最小强度
const DefaultPeakMin float32 = 500

var _ server.SettingsStore = (*Settings)(nil)

// Settings 游戏设置；网络侧只读（通过访问器），由游戏与管理接口修改
type Settings struct {
	mu       sync.RWMutex
	canShoot bool
	peakMin  float32
}

func NewSettings() *Settings {
	return &Settings{
		canShoot: true,
		peakMin:  DefaultPeakMin,
	}
}

func (s *Settings) PeakMin() float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.peakMin
}

func (s *Settings) SetPeakMin(v float32) {
	s.mu.Lock()
	s.peakMin = v
	s.mu.Unlock()
}

func (s *Settings) CanShoot() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.canShoot
}

func (s *Settings) SetCanShoot(v bool) {
	s.mu.Lock()
	s.canShoot = v
	s.mu.Unlock()
}
