package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// FFmpeg pipes PNG frames into an ffmpeg process. Output goes to a hidden
// file in the target directory and is renamed into place only on Close.
type FFmpeg struct {
	Bin    string
	Output string
	FPS    float64

	tmp    string
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	log    zerolog.Logger
	done   bool
}

// NewFFmpeg starts bin writing a looping video of job to job.Output.
func NewFFmpeg(ctx context.Context, bin string, job Job, log zerolog.Logger) (*FFmpeg, error) {
	if bin == "" {
		bin = "ffmpeg"
	}
	if job.Output == "" {
		return nil, errors.New("ffmpeg: no output path")
	}
	f := &FFmpeg{
		Bin:    bin,
		Output: job.Output,
		FPS:    job.FrameRate(),
		tmp:    filepath.Join(filepath.Dir(job.Output), ".partial-"+filepath.Base(job.Output)),
		log:    log,
	}
	f.cmd = exec.CommandContext(ctx, bin, f.Args()...)
	f.cmd.Stderr = &f.stderr
	stdin, err := f.cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	f.stdin = stdin
	if err := f.cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", bin, err)
	}
	log.Debug().Str("cmd", bin+" "+strings.Join(f.Args(), " ")).Msg("ffmpeg started")
	return f, nil
}

// Args is the ffmpeg command line, without the binary.
func (f *FFmpeg) Args() []string {
	fps := strconv.FormatFloat(f.FPS, 'f', -1, 64)
	return []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "image2pipe", "-c:v", "png", "-framerate", fps, "-i", "-",
		"-loop", "0", "-filter:v", "fps=" + fps,
		f.tmp,
	}
}

func (f *FFmpeg) Add(fr Frame) error {
	if f.done {
		return errMuxerDone
	}
	if _, err := f.stdin.Write(fr.PNG); err != nil {
		return fmt.Errorf("ffmpeg frame %d: %w", fr.Index, err)
	}
	return nil
}

func (f *FFmpeg) Close() error {
	if f.done {
		return errMuxerDone
	}
	f.done = true
	f.stdin.Close()
	if err := f.cmd.Wait(); err != nil {
		os.Remove(f.tmp)
		return fmt.Errorf("ffmpeg: %w: %s", err, f.stderrText())
	}
	return os.Rename(f.tmp, f.Output)
}

// Abort kills ffmpeg and removes its partial output.
func (f *FFmpeg) Abort() error {
	if f.done {
		return nil
	}
	f.done = true
	f.stdin.Close()
	if f.cmd.Process != nil {
		_ = f.cmd.Process.Kill()
	}
	_ = f.cmd.Wait()
	if err := os.Remove(f.tmp); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (f *FFmpeg) stderrText() string { return strings.TrimSpace(f.stderr.String()) }
