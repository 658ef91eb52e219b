// Command aclock-diag shows raw brightness test patterns on the display,
// independent of the clock face.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/coreman2200/funtimes-aclock/internal/app"
	"github.com/coreman2200/funtimes-aclock/internal/config"
	"github.com/coreman2200/funtimes-aclock/internal/diag"
	"github.com/coreman2200/funtimes-aclock/internal/logging"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	def := diag.DefaultPlan()
	fs := pflag.NewFlagSet("aclock-diag", pflag.ContinueOnError)
	var (
		configPath = fs.String("config", "", "path to aclock.yaml")
		driver     = fs.String("driver", "hardware", "display: hardware | sim | term | png | ws")
		patterns   = fs.StringSlice("patterns", []string{string(diag.Colors), string(diag.FaceWalk)}, "colors, face_walk, ring_sweep")
		hold       = fs.Duration("hold", def.Hold, "time each solid color is shown")
		tick       = fs.Duration("tick", def.Tick, "time each walking pixel is shown")
		brightness = fs.Float64("ring-brightness", -1, "ring brightness 0..1")
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
	cfg.Driver = *driver
	if fs.Changed("ring-brightness") {
		cfg.Ring.Brightness = *brightness
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := logging.Must(cfg.Logging.Level, cfg.Logging.Format)

	plan := diag.Plan{Hold: *hold, Tick: *tick}
	for _, p := range *patterns {
		plan.Kinds = append(plan.Kinds, diag.Kind(p))
	}
	if err := plan.Validate(); err != nil {
		return err
	}

	core, err := app.InitCore(cfg, log)
	if err != nil {
		return err
	}
	defer core.Backend.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		if err := core.Serve(ctx); err != nil {
			log.Error().Err(err).Msg("http server crashed")
		}
	}()

	return diag.Run(ctx, core.Backend, core.Renderer.Params(), plan, log)
}
