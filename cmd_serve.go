package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"galactrl/game"
	"galactrl/server"
)

type serveOptions struct {
	host        string
	port        int
	logFile     string
	console     bool
	debug       bool
	peakMin     float32
	tickRate    int
	maxConns    int
	idleTimeout time.Duration
	rate        float64
	burst       int
	greeting    string
}

func serveCmd() *cobra.Command {
	opts := serveOptions{}
	def := server.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the control server and the game loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.host, "host", "", "bind host (default: first active network interface)")
	f.IntVar(&opts.port, "port", def.Port, "bind port")
	f.StringVar(&opts.logFile, "log-file", "galactrl.log", "rolling log file, empty to disable")
	f.BoolVar(&opts.console, "console", true, "also log to stderr")
	f.BoolVar(&opts.debug, "debug", false, "debug logging")
	f.Float32Var(&opts.peakMin, "peak-min", game.DefaultPeakMin, "minimum peak that triggers a game action")
	f.IntVar(&opts.tickRate, "tick-rate", game.DefaultTickRate, "game ticks per second")
	f.IntVar(&opts.maxConns, "max-conns", 0, "max concurrent duplex connections (0 = unlimited)")
	f.DurationVar(&opts.idleTimeout, "idle-timeout", 0, "close idle duplex connections after this long (0 = never)")
	f.Float64Var(&opts.rate, "rate", 0, "max messages per second per duplex connection (0 = unlimited)")
	f.IntVar(&opts.burst, "burst", 1, "rate limiter burst")
	f.StringVar(&opts.greeting, "greeting", def.Greeting, "first frame sent on each duplex connection, empty to disable")
	return cmd
}

func runServe(parent context.Context, opts serveOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	if err := server.InitLogger(server.LogConfig{FilePath: opts.logFile, Console: opts.console, Debug: opts.debug}); err != nil {
		return err
	}
	defer server.SyncLogger()

	settings := game.NewSettings()
	settings.SetPeakMin(opts.peakMin)

	cfg := server.DefaultConfig()
	cfg.Host = opts.host
	cfg.Port = opts.port
	cfg.MaxConnections = opts.maxConns
	cfg.IdleTimeout = opts.idleTimeout
	cfg.MessagesPerSecond = opts.rate
	cfg.Burst = opts.burst
	cfg.Greeting = opts.greeting
	cfg.Settings = settings

	srv, rx := server.New(cfg)
	gctx := game.NewContext(rx, settings, srv.Metrics())

	running := true
	if err := srv.Start(); err != nil {
		// 控制服务不可用时游戏照常运行，只是收不到远端指令
		server.Log.Errorw("control server failed to start; local input only", "err", err)
		running = false
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loop := game.NewLoop(gctx, game.NewShip(game.DefaultBoardWidth), opts.tickRate)
	err := loop.Run(ctx)
	server.Log.Infow("game loop stopped",
		"remote_actions", gctx.RemoteActions.Load(), "shots", gctx.ShotsFired.Load())

	if running {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		defer cancel()
		if serr := srv.Stop(shutdownCtx); serr != nil {
			server.Log.Warnw("control server stop", "err", serr)
		}
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
