package tuning

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfiguration is returned for empty reference scales and
// non-positive base or reference frequencies.
var ErrInvalidConfiguration = errors.New("invalid configuration")

const (
	// A4Frequency is concert pitch
	A4Frequency = 440.0

	// A4MIDI is the MIDI note number of A4
	A4MIDI = 69

	// MIDINotes is the size of a full MIDI keyboard table
	MIDINotes = 128

	// SemitonesPerOctave is the number of equal steps in 12-TET
	SemitonesPerOctave = 12
)

// CSharpOverA440 is C#5 relative to A4 = 440 Hz (four semitones above A4)
var CSharpOverA440 = A4Frequency * math.Pow(2, 4.0/SemitonesPerOctave)

// Scale is an ordered set of reference frequencies in Hz.
//
// Storage order matters only for tie-breaking: when a frequency is equally
// distant from two entries, the one stored first wins.
type Scale struct {
	Name        string    `json:"name"`
	Frequencies []float64 `json:"frequencies"`
	Labels      []string  `json:"labels,omitempty"` // parallel to Frequencies, may be empty
}

// NewScale builds a scale from a literal table of frequencies
func NewScale(name string, freqs []float64, labels []string) (*Scale, error) {
	if labels != nil && len(labels) != len(freqs) {
		return nil, fmt.Errorf("%w: scale %q has %d labels for %d frequencies",
			ErrInvalidConfiguration, name, len(labels), len(freqs))
	}

	s := &Scale{
		Name:        name,
		Frequencies: append([]float64(nil), freqs...),
	}
	if labels != nil {
		s.Labels = append([]string(nil), labels...)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Len returns the number of reference frequencies
func (s *Scale) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Frequencies)
}

// Label returns the label of entry i, or its frequency formatted in Hz when unlabelled
func (s *Scale) Label(i int) string {
	if i >= 0 && i < len(s.Labels) && s.Labels[i] != "" {
		return s.Labels[i]
	}
	if i >= 0 && i < len(s.Frequencies) {
		return fmt.Sprintf("%.2f Hz", s.Frequencies[i])
	}
	return ""
}

// Validate checks that the scale can be matched against
func (s *Scale) Validate() error {
	if s.Len() == 0 {
		return fmt.Errorf("%w: reference scale is empty", ErrInvalidConfiguration)
	}
	for i, f := range s.Frequencies {
		if !(f > 0) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: reference frequency %d is %v, must be positive and finite",
				ErrInvalidConfiguration, i, f)
		}
	}
	return nil
}

// EqualTemperament generates a 12-TET table for MIDI notes 0..numEntries-1:
//
//	freq(m) = baseFreq * 2^((m - anchorMIDI) / 12)
//
// A non-positive numEntries yields an empty scale; matching against it fails later.
func EqualTemperament(baseFreq float64, anchorMIDI, numEntries int) (*Scale, error) {
	if !(baseFreq > 0) || math.IsInf(baseFreq, 0) {
		return nil, fmt.Errorf("%w: base frequency %v must be positive", ErrInvalidConfiguration, baseFreq)
	}

	s := &Scale{Name: fmt.Sprintf("12-TET %.2f Hz @ MIDI %d", baseFreq, anchorMIDI)}
	if numEntries <= 0 {
		return s, nil
	}

	s.Frequencies = make([]float64, numEntries)
	s.Labels = make([]string, numEntries)
	for m := range numEntries {
		s.Frequencies[m] = baseFreq * math.Pow(2, float64(m-anchorMIDI)/SemitonesPerOctave)
		s.Labels[m] = NoteName(m)
	}

	return s, nil
}

// OctaveSeries generates baseFreq * 2^k for k = lowOctave..highOctave, the
// octave-equivalents of a single pitch class. high < low yields an empty scale.
func OctaveSeries(baseFreq float64, lowOctave, highOctave int) (*Scale, error) {
	if !(baseFreq > 0) || math.IsInf(baseFreq, 0) {
		return nil, fmt.Errorf("%w: base frequency %v must be positive", ErrInvalidConfiguration, baseFreq)
	}

	s := &Scale{Name: fmt.Sprintf("octaves of %.2f Hz", baseFreq)}
	if highOctave < lowOctave {
		return s, nil
	}

	n := highOctave - lowOctave + 1
	s.Frequencies = make([]float64, 0, n)
	s.Labels = make([]string, 0, n)
	for k := lowOctave; k <= highOctave; k++ {
		s.Frequencies = append(s.Frequencies, baseFreq*math.Pow(2, float64(k)))
		s.Labels = append(s.Labels, fmt.Sprintf("%+d oct", k))
	}

	return s, nil
}

// ragaFrequencies are the seven shuddha svaras of the reference recording, Sa on C4
var ragaFrequencies = []float64{261.6, 293.7, 329.6, 349.2, 392.0, 440.0, 493.9}

var ragaLabels = []string{"Sa", "Re", "Ga", "Ma", "Pa", "Dha", "Ni"}

// RagaScale returns the fixed seven-degree raga reference table
func RagaScale() *Scale {
	return &Scale{
		Name:        "raga",
		Frequencies: append([]float64(nil), ragaFrequencies...),
		Labels:      append([]string(nil), ragaLabels...),
	}
}
