// Package app wires configuration, renderer and display backend together
// for the commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-aclock/internal/config"
	"github.com/coreman2200/funtimes-aclock/internal/display"
	"github.com/coreman2200/funtimes-aclock/internal/display/hw"
	"github.com/coreman2200/funtimes-aclock/internal/display/sim"
	"github.com/coreman2200/funtimes-aclock/internal/metrics"
	"github.com/coreman2200/funtimes-aclock/internal/preview"
	"github.com/coreman2200/funtimes-aclock/internal/render"
)

// Core is everything a live command needs.
type Core struct {
	Config   *config.Config
	Renderer *render.Renderer
	Backend  display.Backend
	Driver   string
	Preview  *preview.Server
	Metrics  *metrics.Metrics
	Log      zerolog.Logger
}

// InitCore builds the renderer and opens the configured backend. A preview
// server is attached when the driver is "ws" or preview is enabled.
func InitCore(cfg *config.Config, log zerolog.Logger) (*Core, error) {
	g, err := cfg.Geo()
	if err != nil {
		return nil, err
	}
	p, err := cfg.Params()
	if err != nil {
		return nil, err
	}
	r, err := render.New(g, p)
	if err != nil {
		return nil, err
	}

	c := &Core{Config: cfg, Renderer: r, Metrics: metrics.New(), Log: log}
	primary, driver, err := OpenBackend(cfg, log)
	if err != nil {
		return nil, err
	}
	c.Driver = driver

	if driver == "ws" || cfg.Preview.Enabled {
		c.Preview = preview.New(log.With().Str("component", "preview").Logger(), c.Metrics)
		c.Preview.Driver = driver
	}
	switch {
	case primary == nil:
		c.Backend = c.Preview
	case c.Preview != nil:
		c.Backend = &display.Multi{
			Backends: []display.Backend{primary, c.Preview},
			OnErr: func(i int, err error) {
				log.Debug().Err(err).Int("backend", i).Msg("secondary backend failed")
			},
		}
	default:
		c.Backend = primary
	}
	return c, nil
}

// OpenBackend opens the configured driver. Hardware that cannot be opened
// falls back to the simulator. The "ws" driver returns a nil backend: the
// preview server is the display.
func OpenBackend(cfg *config.Config, log zerolog.Logger) (display.Backend, string, error) {
	switch cfg.Driver {
	case "hardware":
		h, err := hw.Open(cfg.Hardware(), log.With().Str("component", "hw").Logger())
		if err == nil {
			return h, "hardware", nil
		}
		log.Warn().Err(err).Str("driver", "hardware").Msg("hardware init failed; falling back to SIM")
		return sim.NewBuffer(), "sim", nil
	case "term":
		t, err := sim.NewTerminal(cfg.Render.Scale)
		if err != nil {
			return nil, "", fmt.Errorf("open terminal: %w", err)
		}
		return t, "term", nil
	case "png":
		p, err := sim.NewPNG(cfg.Sim.PNGPath)
		if err != nil {
			return nil, "", err
		}
		return p, "png", nil
	case "ws":
		return nil, "ws", nil
	case "sim":
		return sim.NewBuffer(), "sim", nil
	}
	return nil, "", fmt.Errorf("unknown driver %q", cfg.Driver)
}

// Serve runs the preview HTTP server, if any, until ctx is done.
func (c *Core) Serve(ctx context.Context) error {
	if c.Preview == nil {
		return nil
	}
	srv := &http.Server{
		Addr:         c.Config.Preview.Addr,
		Handler:      WithCORS(c.Preview.Router()),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		c.Log.Info().Str("addr", srv.Addr).Str("driver", c.Driver).Msg("HTTP server starting")
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		return srv.Close()
	}
}

func WithCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
