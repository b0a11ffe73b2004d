package game

import (
	"context"
	"time"

	"galactrl/server"
)

// DefaultTickRate 世界推进频率（60 TPS）
const DefaultTickRate = 60

// Loop 单线程 Tick 循环：取远端指令 → 作用于飞船 → 推进世界
type Loop struct {
	ctx      *Context
	ship     *Ship
	interval time.Duration
	last     time.Time
}

func NewLoop(ctx *Context, ship *Ship, tickRate int) *Loop {
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	if ship == nil {
		ship = NewShip(DefaultBoardWidth)
	}
	return &Loop{
		ctx:      ctx,
		ship:     ship,
		interval: time.Second / time.Duration(tickRate),
	}
}

// Ship 返回飞船；只应在 Tick 线程（或循环停止后）访问
func (l *Loop) Ship() *Ship { return l.ship }

// Tick 推进一帧；从不阻塞于网络
func (l *Loop) Tick(now time.Time) (server.GameAction, bool) {
	dt := l.interval
	if !l.last.IsZero() {
		dt = now.Sub(l.last)
	}
	l.last = now

	action, ok := l.ctx.Resolver.ProcessTick()
	if ok {
		l.ctx.RemoteActions.Add(1)
		if l.ship.Apply(action, now, l.ctx.Settings.CanShoot()) {
			l.ctx.ShotsFired.Add(1)
		}
	}
	l.ship.Update(now, dt)
	return action, ok
}

// Run 启动 Tick 循环直到 ctx 取消
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if action, ok := l.Tick(now); ok {
				server.Log.Debugw("remote action applied", "action", action.String(), "x", l.ship.X)
			}
		}
	}
}
