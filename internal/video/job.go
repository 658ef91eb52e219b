// Package video renders a simulated time range into an ordered stream of
// frames and feeds them to a muxer.
package video

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coreman2200/funtimes-aclock/internal/solar"
)

const DefaultFPS = 15

// Job describes one batch render. Frames fall on Start + k·Step for every k
// with Start + k·Step <= End.
type Job struct {
	ID    uuid.UUID
	Start time.Time
	End   time.Time
	Step  time.Duration
	// Speed is simulated seconds per video second. Used only when FPS is 0.
	Speed float64
	FPS   float64
	// Offset is the UTC offset in minutes shown on the face.
	Offset int
	Output string
}

// NewJob returns a validated job with a fresh ID.
func NewJob(start, end time.Time, step time.Duration, offset int, output string) (Job, error) {
	j := Job{
		ID:     uuid.New(),
		Start:  start,
		End:    end,
		Step:   step,
		Offset: offset,
		Output: output,
	}
	return j, j.Validate()
}

func (j Job) Validate() error {
	switch {
	case !j.End.After(j.Start):
		return fmt.Errorf("%w: job end %s is not after start %s", solar.ErrConfiguration, j.End, j.Start)
	case j.Step <= 0:
		return fmt.Errorf("%w: job step %s must be positive", solar.ErrConfiguration, j.Step)
	case j.Speed < 0 || j.FPS < 0:
		return fmt.Errorf("%w: negative speed or fps", solar.ErrConfiguration)
	}
	_, err := solar.NewInstant(j.Start, j.Offset)
	return err
}

// Count is the number of frames in the job.
func (j Job) Count() int {
	return int(j.End.Sub(j.Start)/j.Step) + 1
}

// At is the simulated instant of frame k.
func (j Job) At(k int) solar.Instant {
	at, _ := solar.NewInstant(j.Start.Add(time.Duration(k)*j.Step), j.Offset)
	return at
}

// FrameRate is FPS when set, otherwise Speed/Step, otherwise DefaultFPS.
func (j Job) FrameRate() float64 {
	switch {
	case j.FPS > 0:
		return j.FPS
	case j.Speed > 0:
		return j.Speed / j.Step.Seconds()
	default:
		return DefaultFPS
	}
}
