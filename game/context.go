package game

import (
	"sync/atomic"

	"galactrl/server"
)

// Context 游戏循环所需的全部共享状态，显式传递而非全局变量
type Context struct {
	Settings *Settings
	Resolver *server.Resolver

	// 跨协程读取的计数器（CLI 状态输出、测试）
	ShotsFired    atomic.Int64
	RemoteActions atomic.Int64
}

// NewContext 用事件通道的消费端与设置创建上下文，阈值逐事件从 settings 读取
func NewContext(rx server.EventReceiver, settings *Settings, metrics *server.Metrics) *Context {
	if settings == nil {
		settings = NewSettings()
	}
	return &Context{
		Settings: settings,
		Resolver: server.NewResolver(rx, settings, metrics),
	}
}
