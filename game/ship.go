package game

import (
	"time"

	"galactrl/server"
)

const (
	// MoveSpeed 远端移动指令生效期间的速度（单位/秒）
	MoveSpeed = 300.0
	// MoveWindow 一次远端移动指令的持续时间
	MoveWindow = 100 * time.Millisecond
	// ShootCooldown 两次射击的最小间隔
	ShootCooldown = 200 * time.Millisecond

	DefaultBoardWidth = 800.0
)

// Direction 飞船当前的移动方向
type Direction int

const (
	DirNone Direction = iota
	DirLeft
	DirRight
)

// Ship 玩家飞船（仅水平移动），状态只在 Tick 线程中修改
type Ship struct {
	X          float64
	BoardWidth float64

	dir       Direction
	moveUntil time.Time
	lastShot  time.Time
}

// NewShip 创建位于棋盘中央的飞船
func NewShip(boardWidth float64) *Ship {
	if boardWidth <= 0 {
		boardWidth = DefaultBoardWidth
	}
	return &Ship{X: boardWidth / 2, BoardWidth: boardWidth}
}

// Apply 执行一条远端指令；返回是否真正射击
func (s *Ship) Apply(a server.GameAction, now time.Time, canShoot bool) bool {
	switch a {
	case server.ActionMoveRight:
		s.dir = DirRight
		s.moveUntil = now.Add(MoveWindow)
	case server.ActionMoveLeft:
		s.dir = DirLeft
		s.moveUntil = now.Add(MoveWindow)
	case server.ActionShoot:
		if !canShoot || !s.canFire(now) {
			return false
		}
		s.lastShot = now
		return true
	case server.ActionNone:
	}
	return false
}

func (s *Ship) canFire(now time.Time) bool {
	return s.lastShot.IsZero() || now.Sub(s.lastShot) >= ShootCooldown
}

// Direction 当前生效的移动方向（窗口过期后为 DirNone）
func (s *Ship) Direction(now time.Time) Direction {
	if s.dir != DirNone && !now.Before(s.moveUntil) {
		s.dir = DirNone
	}
	return s.dir
}

// Update 按 dt 推进位置，并进行越界裁剪
func (s *Ship) Update(now time.Time, dt time.Duration) {
	step := MoveSpeed * dt.Seconds()
	switch s.Direction(now) {
	case DirLeft:
		s.X -= step
	case DirRight:
		s.X += step
	case DirNone:
	}
	if s.X < 0 {
		s.X = 0
	}
	if s.X > s.BoardWidth {
		s.X = s.BoardWidth
	}
}
