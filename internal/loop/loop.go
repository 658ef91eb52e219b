// Package loop is the live driver: it samples the clock on every tick,
// renders the face for that moment and presents it, until cancelled.
package loop

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-aclock/internal/display"
	"github.com/coreman2200/funtimes-aclock/internal/metrics"
	"github.com/coreman2200/funtimes-aclock/internal/solar"
)

// State of the loop. ShuttingDown is terminal.
type State int32

const (
	Idle State = iota
	Rendering
	Presenting
	ShuttingDown
)

func (s State) String() string {
	switch s {
	case Rendering:
		return "rendering"
	case Presenting:
		return "presenting"
	case ShuttingDown:
		return "shutting-down"
	default:
		return "idle"
	}
}

var (
	// ErrRenderFailure means the renderer panicked. Always fatal.
	ErrRenderFailure = errors.New("render failure")
	// ErrTooManyTransient wraps the last of MaxTransient consecutive
	// transient device errors.
	ErrTooManyTransient = errors.New("too many consecutive transient device errors")
)

// Renderer draws the face for an instant. *render.Renderer satisfies it.
type Renderer interface {
	Render(at solar.Instant) *image.RGBA
	Blank() *image.RGBA
}

// Clock is the loop's source of time.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Real is the wall clock.
func Real() Clock { return realClock{} }

type Config struct {
	Interval time.Duration // real time between ticks
	// Speed is simulated seconds per real second.
	Speed float64
	// Epoch is the simulated time at start; zero means now.
	Epoch time.Time
	// Location gives the UTC offset shown on the face; nil means time.Local.
	Location *time.Location
	// MaxTransient consecutive transient errors are treated as fatal.
	MaxTransient int
	// Align wakes just after each wall-clock interval boundary.
	Align bool
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = time.Second
	}
	if c.Speed <= 0 {
		c.Speed = 1
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.MaxTransient <= 0 {
		c.MaxTransient = 2
	}
	return c
}

type Loop struct {
	cfg      Config
	renderer Renderer
	backend  display.Backend
	clock    Clock
	log      zerolog.Logger
	metrics  *metrics.Metrics

	state  atomic.Int32
	frames atomic.Uint64
}

type Option func(*Loop)

func WithClock(c Clock) Option              { return func(l *Loop) { l.clock = c } }
func WithLogger(log zerolog.Logger) Option  { return func(l *Loop) { l.log = log } }
func WithMetrics(m *metrics.Metrics) Option { return func(l *Loop) { l.metrics = m } }

// New binds a renderer to the backend it owns for the life of the loop.
func New(r Renderer, b display.Backend, cfg Config, opts ...Option) *Loop {
	l := &Loop{
		cfg:      cfg.withDefaults(),
		renderer: r,
		backend:  b,
		clock:    Real(),
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *Loop) State() State { return State(l.state.Load()) }

// Frames counts successful presents.
func (l *Loop) Frames() uint64 { return l.frames.Load() }

func (l *Loop) setState(s State) {
	l.state.Store(int32(s))
	l.metrics.LoopState(int(s))
}

// Run ticks until ctx is cancelled or a fatal error occurs. Either way it
// presents an all-off canvas and closes the backend before returning.
// Cancellation returns nil.
func (l *Loop) Run(ctx context.Context) error {
	start := l.clock.Now()
	epoch := l.cfg.Epoch
	if epoch.IsZero() {
		epoch = start
	}
	l.log.Info().
		Dur("interval", l.cfg.Interval).
		Float64("speed", l.cfg.Speed).
		Time("epoch", epoch).
		Msg("render loop starting")

	err := l.tick(ctx, start, epoch)
	l.shutdown()
	return err
}

func (l *Loop) tick(ctx context.Context, start, epoch time.Time) error {
	next := start
	transient := 0
	for ctx.Err() == nil {
		now := l.clock.Now()
		at, err := l.instant(epoch.Add(time.Duration(float64(now.Sub(start)) * l.cfg.Speed)))
		if err != nil {
			return err
		}

		l.setState(Rendering)
		t0 := time.Now()
		canvas, err := l.render(at)
		if err != nil {
			return err
		}
		l.metrics.ObserveRender(time.Since(t0))

		l.setState(Presenting)
		t0 = time.Now()
		err = l.backend.Present(canvas)
		l.metrics.ObservePresent(time.Since(t0))
		switch {
		case err == nil:
			transient = 0
			l.frames.Add(1)
			l.metrics.LoopFrame("ok")
		case display.IsTransient(err):
			transient++
			l.metrics.LoopFrame("transient")
			if transient >= l.cfg.MaxTransient {
				return fmt.Errorf("%w (%d): %w", ErrTooManyTransient, transient, err)
			}
			l.log.Warn().Err(err).Int("streak", transient).Str("at", at.String()).Msg("frame dropped")
		default:
			l.metrics.LoopFrame("fatal")
			return err
		}
		l.metrics.TransientStreak(transient)
		l.setState(Idle)

		wait := l.nextWait(&next)
		select {
		case <-ctx.Done():
		case <-l.clock.After(wait):
		}
	}
	return nil
}

// nextWait advances next past now, skipping missed ticks, and returns how
// long to sleep until it.
func (l *Loop) nextWait(next *time.Time) time.Duration {
	now := l.clock.Now()
	iv := l.cfg.Interval
	if l.cfg.Align {
		*next = now.Truncate(iv).Add(iv)
		return next.Sub(now)
	}
	*next = next.Add(iv)
	if !next.After(now) {
		missed := now.Sub(*next)/iv + 1
		*next = next.Add(missed * iv)
		l.log.Debug().Int64("missed", int64(missed)).Msg("tick overran; skipping")
	}
	return next.Sub(now)
}

func (l *Loop) instant(t time.Time) (solar.Instant, error) {
	_, off := t.In(l.cfg.Location).Zone()
	return solar.NewInstant(t, off/60)
}

func (l *Loop) render(at solar.Instant) (canvas *image.RGBA, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w at %s: %v", ErrRenderFailure, at, r)
		}
	}()
	return l.renderer.Render(at), nil
}

// shutdown blanks the display and releases it. A transient failure on the
// blank frame is retried once.
func (l *Loop) shutdown() {
	l.setState(ShuttingDown)
	blank := l.renderer.Blank()
	err := l.backend.Present(blank)
	if display.IsTransient(err) {
		err = l.backend.Present(blank)
	}
	if err != nil {
		l.log.Error().Err(err).Msg("blanking display")
	}
	if err := l.backend.Close(); err != nil {
		l.log.Error().Err(err).Msg("closing display")
	}
	l.log.Info().Uint64("frames", l.Frames()).Msg("render loop stopped")
}
