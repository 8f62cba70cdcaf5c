// Package pitchtrack holds fundamental-frequency tracks produced by an external
// pitch tracker and reads them from the text and JSON files such tools emit.
package pitchtrack

import (
	"errors"
	"fmt"
)

// ErrInvalidTrack is returned for tracks with a bad sample rate or hop size
var ErrInvalidTrack = errors.New("invalid pitch track")

// Tracker estimates one fundamental frequency per analysis frame.
// Unpitched frames are reported as zero (or any value below the analysis floor).
type Tracker interface {
	Pitch(audio []float64, sampleRate int) ([]float64, error)
}

// TrackerFunc adapts an ordinary function to the Tracker interface
type TrackerFunc func(audio []float64, sampleRate int) ([]float64, error)

// Pitch calls f(audio, sampleRate)
func (f TrackerFunc) Pitch(audio []float64, sampleRate int) ([]float64, error) {
	return f(audio, sampleRate)
}

// Track is a sequence of per-frame frequency estimates
type Track struct {
	Name        string    `json:"name"`
	SampleRate  int       `json:"sample_rate"`
	HopSize     int       `json:"hop_size"` // samples between frame starts
	Frequencies []float64 `json:"frequencies"`

	// Times holds explicit frame times in seconds when the producer wrote them;
	// otherwise TimeAxis derives them from HopSize and SampleRate
	Times []float64 `json:"times,omitempty"`
}

// Run runs tracker over audio and wraps its estimates in a Track
func Run(tracker Tracker, name string, audio []float64, sampleRate, hopSize int) (*Track, error) {
	if tracker == nil {
		return nil, fmt.Errorf("%w: tracker is nil", ErrInvalidTrack)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrInvalidTrack, sampleRate)
	}

	freqs, err := tracker.Pitch(audio, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("pitch tracking %s: %w", name, err)
	}

	t := &Track{
		Name:        name,
		SampleRate:  sampleRate,
		HopSize:     hopSize,
		Frequencies: freqs,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Len returns the number of frames
func (t *Track) Len() int {
	return len(t.Frequencies)
}

// Validate checks that a time axis can be derived
func (t *Track) Validate() error {
	if len(t.Times) > 0 {
		if len(t.Times) != len(t.Frequencies) {
			return fmt.Errorf("%w: %d times for %d frequencies", ErrInvalidTrack, len(t.Times), len(t.Frequencies))
		}
		return nil
	}
	if t.SampleRate <= 0 || t.HopSize <= 0 {
		return fmt.Errorf("%w: %s needs a positive sample rate and hop size (got %d, %d)",
			ErrInvalidTrack, t.Name, t.SampleRate, t.HopSize)
	}
	return nil
}

// FrameDuration returns the seconds between frame starts, 0 when unknown
func (t *Track) FrameDuration() float64 {
	if t.SampleRate <= 0 || t.HopSize <= 0 {
		return 0
	}
	return float64(t.HopSize) / float64(t.SampleRate)
}

// TimeAxis returns the start time in seconds of every frame
func (t *Track) TimeAxis() []float64 {
	if len(t.Times) == len(t.Frequencies) && len(t.Times) > 0 {
		return append([]float64(nil), t.Times...)
	}

	step := t.FrameDuration()
	times := make([]float64, len(t.Frequencies))
	for i := range times {
		times[i] = float64(i) * step
	}
	return times
}

// MaskedTimes returns the time axis restricted to frames where mask is true,
// mask being an analyzer retention mask of the same length
func (t *Track) MaskedTimes(mask []bool) ([]float64, error) {
	if len(mask) != len(t.Frequencies) {
		return nil, fmt.Errorf("%w: mask has %d entries for %d frames", ErrInvalidTrack, len(mask), len(t.Frequencies))
	}

	all := t.TimeAxis()
	out := make([]float64, 0, len(all))
	for i, keep := range mask {
		if keep {
			out = append(out, all[i])
		}
	}
	return out, nil
}
