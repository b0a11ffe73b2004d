package device

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"galactrl/server"
)

func newHandlerServer(t *testing.T, greeting string) (string, server.EventReceiver) {
	t.Helper()
	cfg := server.DefaultConfig()
	cfg.Greeting = greeting
	srv, rx := server.New(cfg)
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)
	return strings.TrimPrefix(hs.URL, "http://"), rx
}

func TestPostPeakUnknownAction(t *testing.T) {
	if _, _, err := PostPeak(context.Background(), nil, "127.0.0.1:1", "jump", 1); err == nil {
		t.Fatalf("expected error for unknown action")
	}
}

func TestPostPeakRoundTrip(t *testing.T) {
	addr, rx := newHandlerServer(t, "")
	code, body, err := PostPeak(context.Background(), nil, addr, "LEFT", 640)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d %q", code, body)
	}
	events := rx.Drain()
	if len(events) != 1 || events[0].Kind != server.EventIntensityLeft || events[0].Value != 640 {
		t.Fatalf("unexpected events %v", events)
	}
}

func TestDuplexWithoutGreeting(t *testing.T) {
	addr, rx := newHandlerServer(t, "")
	d, err := DialDuplex(context.Background(), addr, false)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer d.Close()

	ack, err := d.Send(server.ActionNameShoot, 800)
	if err != nil || ack != "ok" {
		t.Fatalf("expected ok, got %q (%v)", ack, err)
	}
	events := rx.Drain()
	if len(events) != 1 || events[0].Kind != server.EventIntensityShoot {
		t.Fatalf("unexpected events %v", events)
	}
}
