package server

import "time"

// DefaultPort 设备端固件中写死的端口
const DefaultPort = 3030

// Config 控制服务配置
type Config struct {
	// Host 监听地址；为空时在 Start 时从本机活动网卡解析
	Host string
	// Port 监听端口，0 表示由系统分配（测试用）
	Port int

	// MaxConnections 同时存活的双工连接上限，0 表示不限
	MaxConnections int
	// IdleTimeout 双工连接读空闲超时，0 表示不超时
	IdleTimeout time.Duration
	// MessagesPerSecond 每个双工连接的消息速率上限，0 表示不限
	MessagesPerSecond float64
	// Burst 速率限制的突发容量，<=0 时取 1
	Burst int

	// Greeting 双工连接建立后发送的首帧，为空则不发送
	Greeting string
	// ShutdownGrace Stop 未携带截止时间时的默认等待
	ShutdownGrace time.Duration

	// Settings 可选：挂载 /admin/settings
	Settings SettingsStore
	// Metrics 可选：为空时创建独立实例
	Metrics *Metrics
	// TracerName OpenTelemetry tracer 名称
	TracerName string
}

// DefaultConfig 返回与设备固件约定一致的默认配置（无连接数、空闲与速率限制）
func DefaultConfig() Config {
	return Config{
		Port:          DefaultPort,
		Greeting:      "hello",
		ShutdownGrace: 2 * time.Second,
		TracerName:    "galactrl/server",
	}
}
