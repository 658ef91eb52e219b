package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"runtime"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-aclock/internal/metrics"
	"github.com/coreman2200/funtimes-aclock/internal/render"
	"github.com/coreman2200/funtimes-aclock/internal/solar"
)

var (
	// ErrRenderFailure means the renderer panicked on a frame.
	ErrRenderFailure = errors.New("render failure")
	// ErrPipelineFailure means a frame failed twice and the job was aborted.
	ErrPipelineFailure = errors.New("pipeline failure")
)

// PipelineError reports the frame that aborted a job.
type PipelineError struct {
	Frame int
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%v: frame %d failed twice: %v", ErrPipelineFailure, e.Frame, e.Err)
}

func (e *PipelineError) Unwrap() []error { return []error{ErrPipelineFailure, e.Err} }

// Frame is one rendered, PNG-encoded video frame.
type Frame struct {
	Index  int
	At     solar.Instant
	PNG    []byte
	Digest string
}

// RenderFunc renders one instant. (*render.Renderer).Render fits after
// wrapping; tests use it to inject failures.
type RenderFunc func(at solar.Instant) (*image.RGBA, error)

// Stats summarises a finished job.
type Stats struct {
	Frames  int
	Retries int
	Bytes   int64
	Elapsed time.Duration
}

type Pipeline struct {
	render  RenderFunc
	workers int
	window  int
	log     zerolog.Logger
	metrics *metrics.Metrics
	encoder png.Encoder
}

type Option func(*Pipeline)

func WithWorkers(n int) Option              { return func(p *Pipeline) { p.workers = n } }
func WithWindow(n int) Option               { return func(p *Pipeline) { p.window = n } }
func WithLogger(log zerolog.Logger) Option  { return func(p *Pipeline) { p.log = log } }
func WithMetrics(m *metrics.Metrics) Option { return func(p *Pipeline) { p.metrics = m } }
func WithRenderFunc(f RenderFunc) Option    { return func(p *Pipeline) { p.render = f } }

// New builds a pipeline around r. Workers default to runtime.NumCPU and the
// in-flight window to twice the worker count.
func New(r *render.Renderer, opts ...Option) *Pipeline {
	p := &Pipeline{
		log:     zerolog.Nop(),
		encoder: png.Encoder{CompressionLevel: png.BestSpeed},
	}
	if r != nil {
		p.render = func(at solar.Instant) (*image.RGBA, error) { return r.Render(at), nil }
	}
	for _, o := range opts {
		o(p)
	}
	if p.workers <= 0 {
		p.workers = runtime.NumCPU()
	}
	if p.window <= 0 {
		p.window = 2 * p.workers
	}
	return p
}

func (p *Pipeline) Workers() int { return p.workers }
func (p *Pipeline) Window() int  { return p.window }

type result struct {
	frame   Frame
	retried bool
	err     error
}

// Run renders every frame of job and hands them to mux in index order.
// At most Window frames are dispatched but not yet muxed at any time.
// On failure or cancellation the muxer is aborted, otherwise closed.
func (p *Pipeline) Run(ctx context.Context, job Job, mux Muxer) (Stats, error) {
	if err := job.Validate(); err != nil {
		return Stats{}, err
	}
	if p.render == nil {
		return Stats{}, fmt.Errorf("%w: pipeline has no renderer", solar.ErrConfiguration)
	}
	n := job.Count()
	log := p.log.With().Str("job", job.ID.String()).Logger()
	log.Info().
		Int("frames", n).
		Int("workers", p.workers).
		Int("window", p.window).
		Time("start", job.Start).
		Dur("step", job.Step).
		Msg("video job starting")

	begin := time.Now()
	runCtx, abort := context.WithCancel(ctx)
	defer abort()

	slots := make(chan struct{}, p.window)
	tasks := make(chan int)
	results := make(chan result, p.window)

	go func() {
		defer close(tasks)
		for k := 0; k < n; k++ {
			select {
			case slots <- struct{}{}:
			case <-runCtx.Done():
				return
			}
			select {
			case tasks <- k:
			case <-runCtx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := range tasks {
				results <- p.produce(job, k, log)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var (
		stats   Stats
		failed  error
		pending = map[int]Frame{}
		next    = 0
	)
	for res := range results {
		if res.retried {
			stats.Retries++
		}
		if failed != nil {
			continue
		}
		if res.err != nil {
			failed = res.err
			abort()
			continue
		}
		pending[res.frame.Index] = res.frame
		for {
			f, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			if err := mux.Add(f); err != nil {
				failed = fmt.Errorf("mux frame %d: %w", next, err)
				abort()
				break
			}
			stats.Frames++
			stats.Bytes += int64(len(f.PNG))
			next++
			<-slots
		}
		p.metrics.VideoInFlight(len(slots))
	}
	p.metrics.VideoInFlight(0)
	stats.Elapsed = time.Since(begin)

	if failed == nil && ctx.Err() != nil {
		failed = fmt.Errorf("video job cancelled after %d of %d frames: %w", stats.Frames, n, ctx.Err())
	}
	if failed != nil {
		if err := mux.Abort(); err != nil {
			log.Warn().Err(err).Msg("abort muxer")
		}
		log.Error().Err(failed).Int("muxed", stats.Frames).Msg("video job failed")
		return stats, failed
	}
	if err := mux.Close(); err != nil {
		return stats, fmt.Errorf("finish video: %w", err)
	}
	log.Info().
		Int("frames", stats.Frames).
		Int("retries", stats.Retries).
		Str("size", humanize.Bytes(uint64(stats.Bytes))).
		Dur("elapsed", stats.Elapsed).
		Msg("video job done")
	return stats, nil
}

// produce renders frame k, retrying once.
func (p *Pipeline) produce(job Job, k int, log zerolog.Logger) result {
	f, err := p.frame(job, k)
	if err == nil {
		p.metrics.VideoFrame("ok")
		return result{frame: f}
	}
	log.Warn().Err(err).Int("frame", k).Msg("frame failed; retrying")
	p.metrics.VideoFrame("retry")
	f, err = p.frame(job, k)
	if err != nil {
		p.metrics.VideoFrame("failed")
		return result{retried: true, err: &PipelineError{Frame: k, Err: err}}
	}
	p.metrics.VideoFrame("ok")
	return result{frame: f, retried: true}
}

func (p *Pipeline) frame(job Job, k int) (f Frame, err error) {
	at := job.At(k)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w at %s: %v", ErrRenderFailure, at, r)
		}
	}()
	canvas, err := p.render(at)
	if err != nil {
		return Frame{}, err
	}
	var buf bytes.Buffer
	if err := p.encoder.Encode(&buf, canvas); err != nil {
		return Frame{}, fmt.Errorf("encode frame %d: %w", k, err)
	}
	return Frame{Index: k, At: at, PNG: buf.Bytes(), Digest: render.Digest(canvas)}, nil
}
