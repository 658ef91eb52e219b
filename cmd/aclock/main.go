// Command aclock drives the clock face on the configured display until
// interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/coreman2200/funtimes-aclock/internal/app"
	"github.com/coreman2200/funtimes-aclock/internal/config"
	"github.com/coreman2200/funtimes-aclock/internal/logging"
	"github.com/coreman2200/funtimes-aclock/internal/loop"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("aclock", pflag.ContinueOnError)
	var (
		configPath = fs.String("config", "", "path to aclock.yaml")
		driver     = fs.String("driver", "", "display: hardware | sim | term | png | ws")
		lat        = fs.Float64("lat", 0, "latitude in degrees")
		lon        = fs.Float64("lon", 0, "longitude in degrees")
		scale      = fs.Int("scale", 0, "render scale")
		speed      = fs.Float64("speed", 0, "simulated seconds per real second")
		epoch      = fs.String("epoch", "", "simulated start time (RFC3339); default now")
		addr       = fs.String("addr", "", "preview listen address")
		preview    = fs.Bool("preview", false, "serve the websocket preview")
		level      = fs.String("log-level", "", "debug | info | warn | error")
	)
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if fs.Changed("driver") {
		cfg.Driver = *driver
	}
	if fs.Changed("lat") {
		cfg.Location.Latitude = *lat
	}
	if fs.Changed("lon") {
		cfg.Location.Longitude = *lon
	}
	if fs.Changed("scale") {
		cfg.Render.Scale = *scale
	}
	if fs.Changed("speed") {
		cfg.Loop.Speed = *speed
	}
	if fs.Changed("addr") {
		cfg.Preview.Addr = *addr
	}
	if fs.Changed("preview") {
		cfg.Preview.Enabled = *preview
	}
	if fs.Changed("log-level") {
		cfg.Logging.Level = *level
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.Must(cfg.Logging.Level, cfg.Logging.Format)

	lc := cfg.LoopConfig()
	if *epoch != "" {
		t, err := time.Parse(time.RFC3339, *epoch)
		if err != nil {
			return fmt.Errorf("--epoch: %w", err)
		}
		lc.Epoch = t
		lc.Location = t.Location()
		lc.Align = false
	}

	core, err := app.InitCore(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l := loop.New(core.Renderer, core.Backend, lc,
		loop.WithLogger(log.With().Str("component", "loop").Logger()),
		loop.WithMetrics(core.Metrics),
	)

	served := make(chan error, 1)
	go func() {
		err := core.Serve(ctx)
		if err != nil {
			log.Error().Err(err).Msg("http server crashed")
			stop()
		}
		served <- err
	}()

	err = l.Run(ctx)
	stop()
	if serr := <-served; err == nil {
		err = serr
	}
	log.Info().Str("driver", core.Driver).Uint64("frames", l.Frames()).Msg("shut down")
	return err
}
