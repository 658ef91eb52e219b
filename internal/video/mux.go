package video

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Muxer consumes frames in index order. Exactly one of Close or Abort ends
// it; after Abort nothing it wrote may be treated as a finished video.
type Muxer interface {
	Add(f Frame) error
	Close() error
	Abort() error
}

var errMuxerDone = errors.New("muxer already finished")

// Slice keeps frames in memory.
type Slice struct {
	mu      sync.Mutex
	frames  []Frame
	closed  bool
	aborted bool
}

func (s *Slice) Add(f Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.aborted {
		return errMuxerDone
	}
	s.frames = append(s.frames, f)
	return nil
}

func (s *Slice) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Slice) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aborted = true
	return nil
}

func (s *Slice) Frames() []Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Frame(nil), s.frames...)
}

func (s *Slice) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Slice) Aborted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aborted
}

// Manifest is written next to a Dir's frames on Close.
type Manifest struct {
	Job    string          `yaml:"job"`
	Frames []ManifestFrame `yaml:"frames"`
}

type ManifestFrame struct {
	File   string `yaml:"file"`
	At     string `yaml:"at"`
	Digest string `yaml:"digest"`
}

const ManifestName = "manifest.yaml"

// Dir writes each frame as %06d.png into a directory.
type Dir struct {
	path     string
	manifest Manifest
	done     bool
}

// NewDir creates path if needed. A manifest left by an earlier job is
// removed first, since this job may overwrite the frames it lists.
func NewDir(path string, job Job) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, err
	}
	if err := os.Remove(filepath.Join(path, ManifestName)); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("stale manifest: %w", err)
	}
	return &Dir{path: path, manifest: Manifest{Job: job.ID.String()}}, nil
}

func (d *Dir) Path() string { return d.path }

func (d *Dir) Add(f Frame) error {
	if d.done {
		return errMuxerDone
	}
	name := fmt.Sprintf("%06d.png", f.Index)
	if err := os.WriteFile(filepath.Join(d.path, name), f.PNG, 0o644); err != nil {
		return err
	}
	d.manifest.Frames = append(d.manifest.Frames, ManifestFrame{File: name, At: f.At.String(), Digest: f.Digest})
	return nil
}

func (d *Dir) Close() error {
	if d.done {
		return errMuxerDone
	}
	d.done = true
	b, err := yaml.Marshal(&d.manifest)
	if err != nil {
		return err
	}
	tmp := filepath.Join(d.path, ".partial-"+ManifestName)
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, filepath.Join(d.path, ManifestName)); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Abort removes the frames written so far.
func (d *Dir) Abort() error {
	d.done = true
	var errs []error
	for _, f := range d.manifest.Frames {
		if err := os.Remove(filepath.Join(d.path, f.File)); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	d.manifest.Frames = nil
	return errors.Join(errs...)
}

// ReadManifest loads the manifest of a finished Dir.
func ReadManifest(dir string) (Manifest, error) {
	var m Manifest
	b, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return m, err
	}
	err = yaml.Unmarshal(b, &m)
	return m, err
}
