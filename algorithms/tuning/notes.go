package tuning

import (
	"fmt"
	"math"
)

var pitchClassNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// PitchClassName returns the name of pitch class pc (0=C, ..., 11=B), wrapping out-of-range values
func PitchClassName(pc int) string {
	pc %= SemitonesPerOctave
	if pc < 0 {
		pc += SemitonesPerOctave
	}
	return pitchClassNames[pc]
}

// NoteName returns scientific pitch notation for a MIDI note (60 = C4, 69 = A4)
func NoteName(midi int) string {
	octave := floorDiv(midi, SemitonesPerOctave) - 1
	return fmt.Sprintf("%s%d", PitchClassName(midi), octave)
}

// FrequencyToMIDI returns the fractional MIDI note of freq on a 12-TET scale
// anchored at baseFreq = anchorMIDI. Non-positive frequencies return NaN.
func FrequencyToMIDI(freq, baseFreq float64, anchorMIDI int) float64 {
	if freq <= 0 || baseFreq <= 0 {
		return math.NaN()
	}
	return float64(anchorMIDI) + SemitonesPerOctave*math.Log2(freq/baseFreq)
}

// Cents returns the interval from ref to freq in cents (1200 per octave)
func Cents(freq, ref float64) float64 {
	return 1200 * math.Log2(freq/ref)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
