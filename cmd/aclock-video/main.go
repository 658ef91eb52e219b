// Command aclock-video renders a simulated time range into a looping video.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/coreman2200/funtimes-aclock/internal/config"
	"github.com/coreman2200/funtimes-aclock/internal/logging"
	"github.com/coreman2200/funtimes-aclock/internal/metrics"
	"github.com/coreman2200/funtimes-aclock/internal/render"
	"github.com/coreman2200/funtimes-aclock/internal/video"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("aclock-video", pflag.ContinueOnError)
	var (
		configPath = fs.String("config", "", "path to aclock.yaml")
		out        = fs.StringP("out", "o", "", "output video path (default from config)")
		framesDir  = fs.String("frames-dir", "", "write numbered PNGs and a manifest here instead of a video")
		startS     = fs.String("start", "", "simulated start (RFC3339); default now")
		endS       = fs.String("end", "", "simulated end (RFC3339); default start + span")
		span       = fs.Duration("span", 0, "simulated length when --end is not given")
		step       = fs.Duration("step", 0, "simulated time between frames")
		speed      = fs.Float64("speed", 0, "simulated seconds per video second; sets fps when --fps is 0")
		fps        = fs.Float64("fps", -1, "video frame rate")
		workers    = fs.Int("workers", -1, "render workers (0 = one per CPU)")
		window     = fs.Int("window", -1, "max frames rendered but not yet muxed (0 = 2 x workers)")
		lat        = fs.Float64("lat", 0, "latitude in degrees")
		lon        = fs.Float64("lon", 0, "longitude in degrees")
		scale      = fs.Int("scale", 0, "render scale")
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
	if fs.Changed("lat") {
		cfg.Location.Latitude = *lat
	}
	if fs.Changed("lon") {
		cfg.Location.Longitude = *lon
	}
	if fs.Changed("scale") {
		cfg.Render.Scale = *scale
	}
	if fs.Changed("out") {
		cfg.Video.Output = *out
	}
	if fs.Changed("step") {
		cfg.Video.Step = *step
	}
	if fs.Changed("span") {
		cfg.Video.Span = *span
	}
	if fs.Changed("fps") {
		cfg.Video.FPS = *fps
	}
	if fs.Changed("workers") {
		cfg.Video.Workers = *workers
	}
	if fs.Changed("window") {
		cfg.Video.Window = *window
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := logging.Must(cfg.Logging.Level, cfg.Logging.Format)

	start := time.Now()
	if *startS != "" {
		if start, err = time.Parse(time.RFC3339, *startS); err != nil {
			return fmt.Errorf("--start: %w", err)
		}
	}
	end := start.Add(cfg.Video.Span)
	if *endS != "" {
		if end, err = time.Parse(time.RFC3339, *endS); err != nil {
			return fmt.Errorf("--end: %w", err)
		}
	}
	_, off := start.Zone()

	job, err := video.NewJob(start, end, cfg.Video.Step, off/60, cfg.Video.Output)
	if err != nil {
		return err
	}
	job.FPS = cfg.Video.FPS
	job.Speed = *speed

	g, err := cfg.Geo()
	if err != nil {
		return err
	}
	p, err := cfg.Params()
	if err != nil {
		return err
	}
	r, err := render.New(g, p)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var mux video.Muxer
	if *framesDir != "" {
		mux, err = video.NewDir(*framesDir, job)
	} else {
		mux, err = video.NewFFmpeg(ctx, cfg.Video.FFmpeg, job, log)
	}
	if err != nil {
		return err
	}

	pipe := video.New(r,
		video.WithWorkers(cfg.Video.Workers),
		video.WithWindow(cfg.Video.Window),
		video.WithLogger(log),
		video.WithMetrics(metrics.New()),
	)
	stats, err := pipe.Run(ctx, job, mux)
	if err != nil {
		return err
	}
	dest := job.Output
	if *framesDir != "" {
		dest = *framesDir
	}
	fmt.Printf("%s: %d frames at %g fps in %s\n", dest, stats.Frames, job.FrameRate(), stats.Elapsed.Round(time.Millisecond))
	return nil
}
