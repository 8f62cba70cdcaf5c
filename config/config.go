package config

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/RyanBlaney/sonido-intonation/algorithms/deviation"
	"github.com/RyanBlaney/sonido-intonation/algorithms/tuning"
)

// ScaleKind selects the generator used to build the reference scale
type ScaleKind string

const (
	// ScaleEqualTemperament is NumEntries 12-TET pitches with AnchorMIDI at BaseFreq
	ScaleEqualTemperament ScaleKind = "equal_temperament"

	// ScaleOctaveSeries is BaseFreq * 2^k for k in [LowOctave, HighOctave]
	ScaleOctaveSeries ScaleKind = "octave_series"

	// ScaleRaga is the fixed seven-degree raga scale Sa..Ni
	ScaleRaga ScaleKind = "raga"

	// ScaleLiteral takes Frequencies and Labels as given
	ScaleLiteral ScaleKind = "literal"
)

// ScaleConfig describes how to build the reference scale
type ScaleConfig struct {
	Kind ScaleKind `json:"kind"`
	Name string    `json:"name,omitempty"`

	// equal_temperament and octave_series
	BaseFreq float64 `json:"base_freq,omitempty"`

	// equal_temperament
	AnchorMIDI int `json:"anchor_midi,omitempty"`
	NumEntries int `json:"num_entries,omitempty"`

	// octave_series, inclusive
	LowOctave  int `json:"low_octave,omitempty"`
	HighOctave int `json:"high_octave,omitempty"`

	// literal
	Frequencies []float64 `json:"frequencies,omitempty"`
	Labels      []string  `json:"labels,omitempty"`
}

// AnalysisConfig configures one deviation analysis run
type AnalysisConfig struct {
	Name  string      `json:"name"`
	Scale ScaleConfig `json:"scale"`

	Mode          string  `json:"mode"` // "hz" or "cents"
	ValidityFloor float64 `json:"validity_floor"`
	Tolerance     float64 `json:"tolerance"` // in mode units

	// Timing for text tracks that carry no time column
	SampleRate int `json:"sample_rate"`
	HopSize    int `json:"hop_size"`

	HistogramBins int `json:"histogram_bins"`
}

// Preset names accepted by Preset
const (
	// PresetTwelveTETCents is 128 equal-tempered notes at A4 = 440.8 Hz, in cents
	PresetTwelveTETCents = "12tet-cents"

	// PresetA440Cents is the same table at A4 = 440 Hz
	PresetA440Cents = "a440-cents"

	// PresetCSharpHz is the C# octave series from octave -5 to +5, in Hz
	PresetCSharpHz = "csharp-hz"

	// PresetRagaHz is the raga scale, in Hz
	PresetRagaHz = "raga-hz"
)

// DefaultAnalysisConfig returns the 12-TET cents analysis tuned to A4 = 440.8 Hz
func DefaultAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		Name: PresetTwelveTETCents,
		Scale: ScaleConfig{
			Kind:       ScaleEqualTemperament,
			BaseFreq:   440.8,
			AnchorMIDI: tuning.A4MIDI,
			NumEntries: tuning.MIDINotes,
		},
		Mode:          deviation.ModeCents.String(),
		ValidityFloor: deviation.DefaultValidityFloor,
		Tolerance:     10.0,
		SampleRate:    32000,
		HopSize:       256,
		HistogramBins: 100,
	}
}

// Preset returns a named analysis configuration
func Preset(name string) (*AnalysisConfig, error) {
	cfg := DefaultAnalysisConfig()

	switch strings.ToLower(name) {
	case PresetTwelveTETCents, "", "default":
		// defaults

	case PresetA440Cents:
		cfg.Name = PresetA440Cents
		cfg.Scale.BaseFreq = tuning.A4Frequency

	case PresetCSharpHz:
		cfg.Name = PresetCSharpHz
		cfg.Scale = ScaleConfig{
			Kind:       ScaleOctaveSeries,
			Name:       "C#",
			BaseFreq:   tuning.CSharpOverA440,
			LowOctave:  -5,
			HighOctave: 5,
		}
		cfg.Mode = deviation.ModeHz.String()
		cfg.Tolerance = deviation.DefaultHzTolerance

	case PresetRagaHz:
		cfg.Name = PresetRagaHz
		cfg.Scale = ScaleConfig{Kind: ScaleRaga}
		cfg.Mode = deviation.ModeHz.String()
		cfg.Tolerance = deviation.DefaultHzTolerance

	default:
		return nil, fmt.Errorf("%w: unknown preset %q (have %s)",
			tuning.ErrInvalidConfiguration, name, strings.Join(PresetNames(), ", "))
	}

	return cfg, nil
}

// PresetNames lists the available presets in sorted order
func PresetNames() []string {
	names := []string{PresetTwelveTETCents, PresetA440Cents, PresetCSharpHz, PresetRagaHz}
	slices.Sort(names)
	return names
}

// Load reads a JSON config file over base; fields absent from the file keep
// base's values. A nil base starts from DefaultAnalysisConfig.
func Load(path string, base *AnalysisConfig) (*AnalysisConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultAnalysisConfig()
	if base != nil {
		c := *base
		c.Scale.Frequencies = slices.Clone(base.Scale.Frequencies)
		c.Scale.Labels = slices.Clone(base.Scale.Labels)
		cfg = &c
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate builds the scale and parameters once to surface configuration errors early
func (c *AnalysisConfig) Validate() error {
	scale, err := c.BuildScale()
	if err != nil {
		return err
	}
	if err := scale.Validate(); err != nil {
		return err
	}
	if _, err := c.Params(); err != nil {
		return err
	}
	if c.HistogramBins < 0 {
		return fmt.Errorf("%w: histogram bins %d", tuning.ErrInvalidConfiguration, c.HistogramBins)
	}
	return nil
}

// BuildScale generates the configured reference scale
func (c *AnalysisConfig) BuildScale() (*tuning.Scale, error) {
	sc := c.Scale

	var (
		scale *tuning.Scale
		err   error
	)
	switch sc.Kind {
	case ScaleEqualTemperament:
		scale, err = tuning.EqualTemperament(sc.BaseFreq, sc.AnchorMIDI, sc.NumEntries)
	case ScaleOctaveSeries:
		scale, err = tuning.OctaveSeries(sc.BaseFreq, sc.LowOctave, sc.HighOctave)
	case ScaleRaga:
		scale = tuning.RagaScale()
	case ScaleLiteral:
		scale, err = tuning.NewScale(sc.Name, sc.Frequencies, sc.Labels)
	default:
		return nil, fmt.Errorf("%w: unknown scale kind %q", tuning.ErrInvalidConfiguration, sc.Kind)
	}
	if err != nil {
		return nil, err
	}

	if sc.Name != "" {
		scale.Name = sc.Name
	}
	return scale, nil
}

// Params converts the config into analyzer parameters
func (c *AnalysisConfig) Params() (deviation.Params, error) {
	mode, err := deviation.ParseMode(c.Mode)
	if err != nil {
		return deviation.Params{}, err
	}
	if !(c.ValidityFloor >= 0) {
		return deviation.Params{}, fmt.Errorf("%w: validity floor %v must be a non-negative frequency",
			tuning.ErrInvalidConfiguration, c.ValidityFloor)
	}
	if c.Tolerance < 0 {
		return deviation.Params{}, fmt.Errorf("%w: tolerance %v is negative",
			tuning.ErrInvalidConfiguration, c.Tolerance)
	}
	if mode == deviation.ModeCents && !(c.Tolerance > 0) {
		return deviation.Params{}, fmt.Errorf("%w: cents mode requires a positive tolerance",
			tuning.ErrInvalidConfiguration)
	}
	return deviation.Params{
		ValidityFloor: c.ValidityFloor,
		Mode:          mode,
		Tolerance:     c.Tolerance,
	}, nil
}

// LoadAnnotation reads a ground-truth annotation from a JSON file
func LoadAnnotation(path string) (*deviation.Annotation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var ann deviation.Annotation
	if err := json.Unmarshal(data, &ann); err != nil {
		return nil, fmt.Errorf("parsing annotation %s: %w", path, err)
	}
	if err := ann.Validate(); err != nil {
		return nil, fmt.Errorf("annotation %s: %w", path, err)
	}
	return &ann, nil
}
