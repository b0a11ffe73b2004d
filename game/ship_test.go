package game

import (
	"math"
	"testing"
	"time"

	"galactrl/server"
)

func TestShipMoveWindow(t *testing.T) {
	now := time.Unix(0, 0)
	s := NewShip(800)
	if s.X != 400 {
		t.Fatalf("expected ship centered, got %v", s.X)
	}

	s.Apply(server.ActionMoveRight, now, true)
	s.Update(now.Add(50*time.Millisecond), 50*time.Millisecond)
	if !approx(s.X, 415) {
		t.Fatalf("expected x=415 after 50ms, got %v", s.X)
	}
	// 窗口结束后不再移动
	s.Update(now.Add(150*time.Millisecond), 100*time.Millisecond)
	if !approx(s.X, 415) {
		t.Fatalf("expected ship to stop after the move window, got %v", s.X)
	}
	if d := s.Direction(now.Add(150 * time.Millisecond)); d != DirNone {
		t.Fatalf("expected no direction, got %v", d)
	}

	s.Apply(server.ActionMoveLeft, now.Add(200*time.Millisecond), true)
	if d := s.Direction(now.Add(250 * time.Millisecond)); d != DirLeft {
		t.Fatalf("expected left, got %v", d)
	}
}

func TestShipClampsToBoard(t *testing.T) {
	now := time.Unix(0, 0)
	s := NewShip(100)
	s.Apply(server.ActionMoveLeft, now, true)
	s.Update(now, 90*time.Millisecond)
	if !approx(s.X, 23) {
		t.Fatalf("expected x=23, got %v", s.X)
	}
	s.Apply(server.ActionMoveLeft, now, true)
	s.Update(now, 90*time.Millisecond)
	if s.X != 0 {
		t.Fatalf("expected clamp at 0, got %v", s.X)
	}
}

func TestShipShootCooldown(t *testing.T) {
	now := time.Unix(0, 0)
	s := NewShip(800)
	if !s.Apply(server.ActionShoot, now, true) {
		t.Fatalf("expected first shot to fire")
	}
	if s.Apply(server.ActionShoot, now.Add(100*time.Millisecond), true) {
		t.Fatalf("expected shot inside cooldown to be ignored")
	}
	if !s.Apply(server.ActionShoot, now.Add(ShootCooldown), true) {
		t.Fatalf("expected shot after cooldown to fire")
	}
	if s.Apply(server.ActionShoot, now.Add(time.Second), false) {
		t.Fatalf("expected shot to be blocked when shooting is disabled")
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
