// cmd/hillclimb/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/opd-ai/go-hillclimb/pkg/config"
	"github.com/opd-ai/go-hillclimb/pkg/engine"
	"github.com/opd-ai/go-hillclimb/pkg/event"
	"github.com/opd-ai/go-hillclimb/pkg/input"
	"github.com/opd-ai/go-hillclimb/pkg/logging"
	"github.com/opd-ai/go-hillclimb/pkg/render"
	"github.com/opd-ai/go-hillclimb/pkg/resource"
	"github.com/opd-ai/go-hillclimb/pkg/vehicle"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code: 0 after a quit, 1 on any failure.
func run() int {
	cfg, err := config.LoadConfig(os.Getenv("HILLCLIMB_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "hillclimb: %v\n", err)
		return 1
	}

	logger, err := logging.NewFileLogger(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hillclimb: %v\n", err)
		return 1
	}
	defer logger.Close()

	ctx := logging.WithCorrelationID(context.Background(), logging.GenerateCorrelationID())
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	screen, err := tcell.NewScreen()
	if err != nil {
		logger.Error(ctx, "Failed to create screen", err)
		fmt.Fprintf(os.Stderr, "hillclimb: create screen: %v\n", err)
		return 1
	}
	if err := screen.Init(); err != nil {
		logger.Error(ctx, "Failed to initialize screen", err)
		fmt.Fprintf(os.Stderr, "hillclimb: initialize screen: %v\n", err)
		return 1
	}

	// session restores the display before it returns, so the report below
	// lands on a normal terminal.
	if err := session(ctx, cfg, screen, logger); err != nil {
		logger.Error(ctx, "Simulation failed", err)
		fmt.Fprintf(os.Stderr, "hillclimb: %v\n", err)
		return 1
	}
	return 0
}

// session runs one simulation on an initialised screen until quit. The
// screen is always finalised, including when the loop panics.
func session(ctx context.Context, cfg *config.Config, screen tcell.Screen, logger *logging.Logger) (err error) {
	rm := resource.NewResourceManager(cfg.Monitor, logger)
	defer func() {
		shutdownCtx := context.WithoutCancel(ctx)
		if serr := rm.Shutdown(shutdownCtx); serr != nil {
			logger.Warn(ctx, "Background tasks still running at exit", "error", serr)
		}
	}()
	defer func() {
		r := recover()
		screen.Fini()
		if r != nil {
			logger.Error(ctx, "Simulation panicked", fmt.Errorf("panic: %v", r))
			panic(r)
		}
	}()

	screen.SetStyle(tcell.StyleDefault)
	screen.HideCursor()
	screen.Clear()

	scene, err := vehicle.NewScene(cfg)
	if err != nil {
		return logging.WrapError(err, "build scene")
	}

	if err := rm.Start(); err != nil {
		return logging.WrapError(err, "start resource manager")
	}

	keys := input.NewGuardedSource(input.NewTerminalSource(screen), cfg.Input, logger)
	mux := event.NewMultiplexer(
		event.NewRateClock(cfg.Loop.TickRate),
		event.NewRateClock(cfg.Loop.FrameRate),
		keys,
		event.WithLogger(logger),
		event.WithSpawner(rm),
		event.WithInputBuffer(cfg.Loop.InputBuffer),
	)
	defer mux.Close()
	rm.AddGauge("event_queue", resource.Gauge{Read: mux.Len, WarnAt: cfg.Monitor.QueueWarnDepth})

	if err := mux.Start(ctx); err != nil {
		return logging.WrapError(err, "start event multiplexer")
	}

	game := engine.NewGame(scene, mux, render.NewTerminalRenderer(screen, cfg.Render),
		cfg.Vehicle.DriveTorque, engine.WithLogger(logger))

	logger.Info(ctx, "Simulation started",
		"tick_rate", cfg.Loop.TickRate,
		"frame_rate", cfg.Loop.FrameRate,
	)
	if err := game.Run(ctx); err != nil {
		if ctx.Err() != nil {
			logger.Info(ctx, "Simulation stopped by signal", "cause", context.Cause(ctx))
			return nil
		}
		return err
	}

	stats := game.Stats()
	logger.Info(ctx, "Session summary",
		"ticks", stats.Ticks,
		"renders", stats.Renders,
		"accelerations", stats.Accelerations,
		"decelerations", stats.Decelerations,
		"input_errors", stats.Errors,
	)
	return nil
}
