package server

import "fmt"

// EventKind 控制事件类型（封闭枚举，处理处需穷举匹配）
type EventKind int

const (
	EventIntensityRight EventKind = iota + 1
	EventIntensityLeft
	EventIntensityShoot
	EventConnectionEstablished
	EventConnectionLost
)

func (k EventKind) String() string {
	switch k {
	case EventIntensityRight:
		return "intensity_right"
	case EventIntensityLeft:
		return "intensity_left"
	case EventIntensityShoot:
		return "intensity_shoot"
	case EventConnectionEstablished:
		return "connection_established"
	case EventConnectionLost:
		return "connection_lost"
	default:
		return fmt.Sprintf("event_kind(%d)", int(k))
	}
}

// ControlEvent 远端设备送来的一条信号，或连接生命周期通知
// Value 仅对 Intensity* 有意义；解析阶段不做范围限制，由 Resolver 按阈值决定
type ControlEvent struct {
	Kind  EventKind
	Value int64
}

// IsIntensity 是否为强度信号（可能产生 GameAction）
func (e ControlEvent) IsIntensity() bool {
	switch e.Kind {
	case EventIntensityRight, EventIntensityLeft, EventIntensityShoot:
		return true
	}
	return false
}

func (e ControlEvent) String() string {
	if e.IsIntensity() {
		return fmt.Sprintf("%s(%d)", e.Kind, e.Value)
	}
	return e.Kind.String()
}

// GameAction 每个 Tick 最多产生一个的离散游戏指令（无载荷）
type GameAction int

const (
	ActionNone GameAction = iota
	ActionMoveRight
	ActionMoveLeft
	ActionShoot
)

func (a GameAction) String() string {
	switch a {
	case ActionMoveRight:
		return "move_right"
	case ActionMoveLeft:
		return "move_left"
	case ActionShoot:
		return "shoot"
	default:
		return "none"
	}
}

// actionFor 强度事件到游戏指令的固定映射
func actionFor(k EventKind) (GameAction, bool) {
	switch k {
	case EventIntensityRight:
		return ActionMoveRight, true
	case EventIntensityLeft:
		return ActionMoveLeft, true
	case EventIntensityShoot:
		return ActionShoot, true
	case EventConnectionEstablished, EventConnectionLost:
		return ActionNone, false
	}
	return ActionNone, false
}
