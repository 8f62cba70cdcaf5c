package deviation

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/sonido-intonation/algorithms/tuning"
	"github.com/RyanBlaney/sonido-intonation/logging"
)

var (
	// ErrInvalidConfiguration aliases tuning.ErrInvalidConfiguration so callers
	// can match either package's errors with errors.Is
	ErrInvalidConfiguration = tuning.ErrInvalidConfiguration

	// ErrEmptyInput is returned when no sample survives the validity floor
	ErrEmptyInput = errors.New("no valid pitch samples")
)

const (
	// DefaultValidityFloor is the frequency (Hz) at or below which a frame counts as unpitched
	DefaultValidityFloor = 20.0

	// DefaultHzTolerance is the within-tolerance threshold used in Hz mode when none is given
	DefaultHzTolerance = 2.0

	// octaveCents and halfOctaveCents bound the folded cents deviation to (-600, 600]
	octaveCents     = 1200.0
	halfOctaveCents = 600.0
)

// Mode selects the unit of a deviation
type Mode int

const (
	// ModeHz reports detected - closest in Hz
	ModeHz Mode = iota

	// ModeCents reports 1200*log2(detected/closest), folded into (-600, 600]
	ModeCents
)

func (m Mode) String() string {
	switch m {
	case ModeHz:
		return "hz"
	case ModeCents:
		return "cents"
	default:
		return "unknown"
	}
}

// Unit returns the display unit for deviations in this mode
func (m Mode) Unit() string {
	if m == ModeCents {
		return "cents"
	}
	return "Hz"
}

// ParseMode converts "hz" or "cents" to a Mode
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hz", "linear", "linear_hz", "":
		return ModeHz, nil
	case "cents", "cent":
		return ModeCents, nil
	default:
		return ModeHz, fmt.Errorf("%w: unknown deviation mode %q", ErrInvalidConfiguration, s)
	}
}

// Params configures a deviation analysis
type Params struct {
	// ValidityFloor drops every sample <= floor (Hz). It must be >= 0 so that
	// unpitched zero frames never reach the matcher.
	ValidityFloor float64 `json:"validity_floor"`

	Mode Mode `json:"mode"`

	// Tolerance is the |deviation| threshold, in Mode units, below which a record
	// counts as in tune. Zero means DefaultHzTolerance in Hz mode; cents mode
	// has no default and requires a positive value.
	Tolerance float64 `json:"tolerance"`
}

// DefaultParams returns Hz-mode parameters with a 20 Hz floor and 2 Hz tolerance
func DefaultParams() Params {
	return Params{
		ValidityFloor: DefaultValidityFloor,
		Mode:          ModeHz,
		Tolerance:     DefaultHzTolerance,
	}
}

// resolve fills defaults and validates the parameters
func (p Params) resolve() (Params, error) {
	if !(p.ValidityFloor >= 0) {
		return p, fmt.Errorf("%w: validity floor %v must be a non-negative frequency", ErrInvalidConfiguration, p.ValidityFloor)
	}

	switch p.Mode {
	case ModeHz:
		if p.Tolerance == 0 {
			p.Tolerance = DefaultHzTolerance
		}
	case ModeCents:
		if p.Tolerance == 0 {
			return p, fmt.Errorf("%w: cents mode requires an explicit tolerance", ErrInvalidConfiguration)
		}
	default:
		return p, fmt.Errorf("%w: unknown deviation mode %d", ErrInvalidConfiguration, p.Mode)
	}

	if !(p.Tolerance > 0) {
		return p, fmt.Errorf("%w: tolerance %v must be positive", ErrInvalidConfiguration, p.Tolerance)
	}
	return p, nil
}

// Record is the match of one retained sample against the reference scale
type Record struct {
	Index          int     `json:"index"` // position in the input sample sequence
	Detected       float64 `json:"detected"`
	Reference      float64 `json:"reference"`
	ReferenceIndex int     `json:"reference_index"`
	Deviation      float64 `json:"deviation"`
}

// Result is the output of one analysis run
type Result struct {
	Mode    Mode     `json:"mode"`
	Records []Record `json:"records"`

	// Mask[i] is true when input sample i produced a record, so a parallel
	// time axis can be filtered identically
	Mask []bool `json:"mask"`

	Summary Summary `json:"summary"`
}

// Deviations returns the deviation column of the records
func (r *Result) Deviations() []float64 {
	out := make([]float64, len(r.Records))
	for i, rec := range r.Records {
		out[i] = rec.Deviation
	}
	return out
}

// Analyzer matches pitch samples against a reference scale.
//
// It holds no per-run state: Analyze is a pure function of its arguments and
// the parameters given at construction.
type Analyzer struct {
	params Params
	logger logging.Logger
}

// NewAnalyzer creates an analyzer; parameters are validated on each Analyze call
func NewAnalyzer(params Params) *Analyzer {
	return &Analyzer{
		params: params,
		logger: logging.WithFields(logging.Fields{
			"component": "deviation_analyzer",
		}),
	}
}

// Params returns the analyzer parameters as configured
func (a *Analyzer) Params() Params {
	return a.params
}

// Analyze is shorthand for NewAnalyzer(params).Analyze(samples, reference)
func Analyze(samples, reference []float64, params Params) (*Result, error) {
	return NewAnalyzer(params).Analyze(samples, reference)
}

// AnalyzeScale runs Analyze against a tuning.Scale
func (a *Analyzer) AnalyzeScale(samples []float64, scale *tuning.Scale) (*Result, error) {
	if scale == nil {
		return nil, fmt.Errorf("%w: reference scale is nil", ErrInvalidConfiguration)
	}
	return a.Analyze(samples, scale.Frequencies)
}

// Analyze matches every sample above the validity floor to its nearest
// reference frequency (by absolute Hz difference, first entry wins ties) and
// computes the deviation in the configured mode.
//
// In cents mode the nearest entry is still chosen by Hz distance and the
// result is then folded into (-600, 600]. Near the midpoint between two
// octave-equivalent entries this can differ from choosing by cents distance.
func (a *Analyzer) Analyze(samples, reference []float64) (*Result, error) {
	params, err := a.params.resolve()
	if err != nil {
		return nil, err
	}
	if err := validateReference(reference); err != nil {
		return nil, err
	}

	result := &Result{
		Mode:    params.Mode,
		Records: make([]Record, 0, len(samples)),
		Mask:    make([]bool, len(samples)),
	}

	diffs := make([]float64, len(reference))
	for i, f := range samples {
		if !isValidSample(f, params.ValidityFloor) {
			continue
		}

		idx := nearest(reference, f, diffs)
		ref := reference[idx]
		result.Mask[i] = true
		result.Records = append(result.Records, Record{
			Index:          i,
			Detected:       f,
			Reference:      ref,
			ReferenceIndex: idx,
			Deviation:      deviate(f, ref, params.Mode),
		})
	}

	if len(result.Records) == 0 {
		a.logger.Debug("No samples above validity floor", logging.Fields{
			"samples":        len(samples),
			"validity_floor": params.ValidityFloor,
		})
		return nil, fmt.Errorf("%w: all %d samples at or below %.2f Hz",
			ErrEmptyInput, len(samples), params.ValidityFloor)
	}

	result.Summary = summarize(result.Records, params.Tolerance)

	a.logger.Debug("Deviation analysis completed", logging.Fields{
		"mode":             params.Mode.String(),
		"samples":          len(samples),
		"records":          len(result.Records),
		"reference_size":   len(reference),
		"mean_abs":         result.Summary.MeanAbs,
		"within_tolerance": len(result.Summary.WithinTolerance),
	})

	return result, nil
}

// Nearest returns the index of the reference entry closest to freq in Hz.
// Ties go to the entry stored first.
func Nearest(reference []float64, freq float64) (int, error) {
	if err := validateReference(reference); err != nil {
		return 0, err
	}
	return nearest(reference, freq, make([]float64, len(reference))), nil
}

// nearest is a linear scan; reference tables are at most a keyboard wide
func nearest(reference []float64, freq float64, diffs []float64) int {
	for j, r := range reference {
		diffs[j] = math.Abs(freq - r)
	}
	return floats.MinIdx(diffs)
}

func deviate(detected, ref float64, mode Mode) float64 {
	if mode == ModeCents {
		return FoldCents(tuning.Cents(detected, ref))
	}
	return detected - ref
}

// FoldCents maps a cents interval onto its octave-equivalent in (-600, 600].
// Non-finite input has no octave class and returns NaN.
func FoldCents(c float64) float64 {
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return math.NaN()
	}
	c = math.Remainder(c, octaveCents)
	if c <= -halfOctaveCents {
		c = halfOctaveCents
	}
	return c
}

func isValidSample(f, floor float64) bool {
	return f > floor && f > 0 && !math.IsInf(f, 1)
}

func validateReference(reference []float64) error {
	if len(reference) == 0 {
		return fmt.Errorf("%w: reference scale is empty", ErrInvalidConfiguration)
	}
	for i, r := range reference {
		if !(r > 0) || math.IsInf(r, 0) {
			return fmt.Errorf("%w: reference frequency %d is %v", ErrInvalidConfiguration, i, r)
		}
	}
	return nil
}
