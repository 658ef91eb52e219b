package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-aclock/internal/metrics"
	"github.com/coreman2200/funtimes-aclock/internal/render"
	"github.com/coreman2200/funtimes-aclock/internal/solar"
)

var (
	t0      = time.Date(2024, 11, 5, 11, 0, 0, 0, time.UTC)
	washDC  = solar.MustGeo(38.8895, -77.0353)
	params1 = render.Params{Scale: 1, Face: render.DefaultFace}
)

func hourJob(t *testing.T) Job {
	t.Helper()
	j, err := NewJob(t0, t0.Add(time.Hour), time.Minute, -300, "")
	require.NoError(t, err)
	return j
}

func plain(at solar.Instant) (*image.RGBA, error) {
	return render.Render(at, washDC, params1), nil
}

func TestJob(t *testing.T) {
	j := hourJob(t)
	assert.Equal(t, 61, j.Count())
	assert.Equal(t, t0.Add(time.Hour), j.At(60).UTC())
	assert.Equal(t, -300, j.At(0).Offset())
	assert.Equal(t, float64(DefaultFPS), j.FrameRate())

	j.Speed = 600
	assert.Equal(t, 10.0, j.FrameRate())
	j.FPS = 24
	assert.Equal(t, 24.0, j.FrameRate())

	_, err := NewJob(t0, t0, time.Minute, 0, "")
	assert.ErrorIs(t, err, solar.ErrConfiguration)
	_, err = NewJob(t0, t0.Add(time.Hour), 0, 0, "")
	assert.ErrorIs(t, err, solar.ErrConfiguration)
}

func digests(fs []Frame) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Digest
	}
	return out
}

func TestWorkerCountDoesNotChangeOutput(t *testing.T) {
	job := hourJob(t)
	var runs [][]Frame
	for _, w := range []int{1, 8} {
		mux := &Slice{}
		stats, err := New(nil, WithRenderFunc(plain), WithWorkers(w)).Run(context.Background(), job, mux)
		require.NoError(t, err)
		assert.Equal(t, 61, stats.Frames)
		assert.True(t, mux.Closed())
		runs = append(runs, mux.Frames())
	}
	require.Len(t, runs[0], 61)
	assert.Equal(t, digests(runs[0]), digests(runs[1]))
	for i := range runs[0] {
		assert.Equal(t, i, runs[1][i].Index)
		assert.True(t, bytes.Equal(runs[0][i].PNG, runs[1][i].PNG), "frame %d", i)
	}
}

func TestOrderedDespiteSkewedCompletion(t *testing.T) {
	job := hourJob(t)
	slow := func(at solar.Instant) (*image.RGBA, error) {
		k := int(at.UTC().Sub(t0) / time.Minute)
		if k%3 == 0 {
			time.Sleep(3 * time.Millisecond)
		}
		return plain(at)
	}
	mux := &Slice{}
	_, err := New(nil, WithRenderFunc(slow), WithWorkers(6)).Run(context.Background(), job, mux)
	require.NoError(t, err)
	for i, f := range mux.Frames() {
		require.Equal(t, i, f.Index)
		assert.Equal(t, job.At(i), f.At)
	}
}

// failing fails frame k on its first times renders.
func failing(k, times int, fail func() error) RenderFunc {
	var n atomic.Int32
	return func(at solar.Instant) (*image.RGBA, error) {
		if at.UTC().Equal(t0.Add(time.Duration(k)*time.Minute)) && int(n.Add(1)) <= times {
			return nil, fail()
		}
		return plain(at)
	}
}

var errAlloc = errors.New("cannot allocate canvas")

func TestSingleFailureIsRetried(t *testing.T) {
	fn := failing(3, 1, func() error { return errAlloc })
	mux := &Slice{}
	stats, err := New(nil, WithRenderFunc(fn), WithWorkers(4), WithMetrics(metrics.New())).Run(context.Background(), hourJob(t), mux)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Retries)
	assert.Len(t, mux.Frames(), 61)
	assert.True(t, mux.Closed())
}

func TestSecondFailureAbortsJob(t *testing.T) {
	bad := failing(5, 2, func() error { return errAlloc })
	mux := &Slice{}
	_, err := New(nil, WithRenderFunc(bad), WithWorkers(4)).Run(context.Background(), hourJob(t), mux)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPipelineFailure)
	assert.ErrorIs(t, err, errAlloc)
	var pe *PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 5, pe.Frame)
	assert.True(t, mux.Aborted())
	assert.False(t, mux.Closed())
	assert.LessOrEqual(t, len(mux.Frames()), 5)
}

func TestRenderPanicIsRenderFailure(t *testing.T) {
	boom := failing(2, 2, func() error { panic("index out of range") })
	mux := &Slice{}
	_, err := New(nil, WithRenderFunc(boom), WithWorkers(2)).Run(context.Background(), hourJob(t), mux)
	assert.ErrorIs(t, err, ErrRenderFailure)
	assert.ErrorIs(t, err, ErrPipelineFailure)
	assert.True(t, mux.Aborted())
}

// gated blocks in Add until gate is closed.
type gated struct {
	Slice
	gate chan struct{}
}

func (g *gated) Add(f Frame) error {
	<-g.gate
	return g.Slice.Add(f)
}

func TestWindowBoundsDispatchedFrames(t *testing.T) {
	var started atomic.Int32
	counting := func(at solar.Instant) (*image.RGBA, error) {
		started.Add(1)
		return plain(at)
	}
	mux := &gated{gate: make(chan struct{})}
	p := New(nil, WithRenderFunc(counting), WithWorkers(8), WithWindow(4))

	done := make(chan error, 1)
	go func() {
		_, err := p.Run(context.Background(), hourJob(t), mux)
		done <- err
	}()

	require.Eventually(t, func() bool { return started.Load() == 4 }, time.Second, time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(4), started.Load(), "slow muxer holds the window")

	close(mux.gate)
	require.NoError(t, <-done)
	assert.Equal(t, int32(61), started.Load())
	assert.Len(t, mux.Frames(), 61)
}

type cancelling struct {
	Slice
	after  int
	cancel context.CancelFunc
}

func (c *cancelling) Add(f Frame) error {
	if f.Index == c.after {
		c.cancel()
	}
	return c.Slice.Add(f)
}

func TestCancellationDrainsAndAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mux := &cancelling{after: 3, cancel: cancel}
	stats, err := New(nil, WithRenderFunc(plain), WithWorkers(2), WithWindow(2)).Run(ctx, hourJob(t), mux)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, mux.Aborted())
	assert.Less(t, stats.Frames, 61)
	for i, f := range mux.Frames() {
		assert.Equal(t, i, f.Index)
	}
}

func TestDirMuxer(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	job := hourJob(t)
	mux, err := NewDir(dir, job)
	require.NoError(t, err)
	_, err = New(nil, WithRenderFunc(plain), WithWorkers(3)).Run(context.Background(), job, mux)
	require.NoError(t, err)

	m, err := ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, job.ID.String(), m.Job)
	require.Len(t, m.Frames, 61)
	assert.Equal(t, "000060.png", m.Frames[60].File)

	f, err := os.Open(filepath.Join(dir, "000000.png"))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, render.Width, render.Height), img.Bounds())
	rgba, ok := img.(*image.RGBA)
	if assert.True(t, ok) {
		assert.Equal(t, m.Frames[0].Digest, render.Digest(rgba))
	}
}

func TestDirMuxerAbortRemovesFrames(t *testing.T) {
	dir := t.TempDir()
	mux, err := NewDir(dir, hourJob(t))
	require.NoError(t, err)
	require.NoError(t, mux.Add(Frame{Index: 0, PNG: []byte("x")}))
	require.NoError(t, mux.Abort())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDirRerunAbortDropsOldManifest(t *testing.T) {
	dir := t.TempDir()
	job := hourJob(t)
	mux, err := NewDir(dir, job)
	require.NoError(t, err)
	_, err = New(nil, WithRenderFunc(plain), WithWorkers(2)).Run(context.Background(), job, mux)
	require.NoError(t, err)
	_, err = ReadManifest(dir)
	require.NoError(t, err)

	again, err := NewJob(t0, t0.Add(time.Hour), time.Minute, -300, "")
	require.NoError(t, err)
	mux, err = NewDir(dir, again)
	require.NoError(t, err)
	_, err = ReadManifest(dir)
	assert.True(t, os.IsNotExist(err), "old manifest removed before new frames land")

	bad := failing(3, 2, func() error { return errAlloc })
	_, err = New(nil, WithRenderFunc(bad), WithWorkers(1)).Run(context.Background(), again, mux)
	require.ErrorIs(t, err, ErrPipelineFailure)

	_, err = ReadManifest(dir)
	assert.True(t, os.IsNotExist(err))
	for i := 0; i < 3; i++ {
		_, err := os.Stat(filepath.Join(dir, fmt.Sprintf("%06d.png", i)))
		assert.True(t, os.IsNotExist(err), "frame %d", i)
	}
}

func TestDirCloseLeavesNoPartialManifest(t *testing.T) {
	dir := t.TempDir()
	mux, err := NewDir(dir, hourJob(t))
	require.NoError(t, err)
	require.NoError(t, mux.Add(Frame{Index: 0, PNG: []byte("x")}))
	require.NoError(t, mux.Close())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"000000.png", ManifestName}, names)
}

// fakeFFmpeg copies stdin to its last argument.
func fakeFFmpeg(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("no sh")
	}
	bin := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\nfor last; do :; done\nexec cat > \"$last\"\n"
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))
	return bin
}

func TestFFmpegArgs(t *testing.T) {
	job := hourJob(t)
	job.Output = filepath.Join(t.TempDir(), "year.webp")
	f, err := NewFFmpeg(context.Background(), fakeFFmpeg(t), job, zerolog.Nop())
	require.NoError(t, err)
	defer f.Abort()
	args := f.Args()
	assert.Contains(t, args, "image2pipe")
	assert.Contains(t, args, "fps=15")
	assert.Equal(t, []string{"-loop", "0"}, args[12:14])
	assert.Equal(t, filepath.Join(filepath.Dir(job.Output), ".partial-year.webp"), args[len(args)-1])
}

func TestFFmpegRenamesOnClose(t *testing.T) {
	job := hourJob(t)
	job.Output = filepath.Join(t.TempDir(), "year.webp")
	f, err := NewFFmpeg(context.Background(), fakeFFmpeg(t), job, zerolog.Nop())
	require.NoError(t, err)

	stats, err := New(nil, WithRenderFunc(plain), WithWorkers(4)).Run(context.Background(), job, f)
	require.NoError(t, err)
	info, err := os.Stat(job.Output)
	require.NoError(t, err)
	assert.Equal(t, stats.Bytes, info.Size())
	_, err = os.Stat(f.tmp)
	assert.True(t, os.IsNotExist(err))
}

func TestFFmpegAbortLeavesNothing(t *testing.T) {
	job := hourJob(t)
	job.Output = filepath.Join(t.TempDir(), "year.webp")
	f, err := NewFFmpeg(context.Background(), fakeFFmpeg(t), job, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, f.Add(Frame{PNG: []byte("partial")}))
	require.NoError(t, f.Abort())
	entries, err := os.ReadDir(filepath.Dir(job.Output))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
